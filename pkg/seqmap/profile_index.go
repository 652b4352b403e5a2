package seqmap

import (
	"fmt"
	"math/bits"
	"strings"
)

// DefaultProfile names the implicit profile whose items appear in every view.
const DefaultProfile = ""

// MaxProfiles is the number of distinct profiles, the default included, one
// sequence can reference.
const MaxProfiles = 64

// ProfileMask is a set of profile bits.
type ProfileMask uint64

// MaskOf returns the mask with the given bits set.
func MaskOf(bits ...uint) ProfileMask {
	var m ProfileMask
	for _, b := range bits {
		m = m.With(b)
	}
	return m
}

// With returns m with bit set.
func (m ProfileMask) With(bit uint) ProfileMask { return m | 1<<bit }

// Has reports whether bit is set.
func (m ProfileMask) Has(bit uint) bool { return m&(1<<bit) != 0 }

// Intersects reports whether m and other share a bit.
func (m ProfileMask) Intersects(other ProfileMask) bool { return m&other != 0 }

// Len returns the number of bits set.
func (m ProfileMask) Len() int { return bits.OnesCount64(uint64(m)) }

func (m ProfileMask) String() string {
	return fmt.Sprintf("%#x", uint64(m))
}

// ProfileBit pairs a profile with its bit position.
type ProfileBit struct {
	Name string
	Bit  uint
}

// ProfileIndex assigns bit positions to profile names in first-seen order.
// The default profile always holds bit 0. It is not safe for concurrent use.
type ProfileIndex struct {
	bits  map[string]uint
	order []string
}

// NewProfileIndex returns an index holding only the default profile.
func NewProfileIndex() *ProfileIndex {
	return &ProfileIndex{
		bits:  map[string]uint{DefaultProfile: 0},
		order: []string{DefaultProfile},
	}
}

// EnsureIndexed returns the bit of name, assigning the next free one on first
// sight. It fails with ErrTooManyProfiles once every bit is taken.
func (x *ProfileIndex) EnsureIndexed(name string) (uint, error) {
	if bit, ok := x.bits[name]; ok {
		return bit, nil
	}
	if len(x.order) >= MaxProfiles {
		return 0, fmt.Errorf("%w: cannot index %q, %d profiles already indexed", ErrTooManyProfiles, name, len(x.order))
	}
	bit := uint(len(x.order))
	x.bits[name] = bit
	x.order = append(x.order, name)
	return bit, nil
}

// Bit returns the bit of an indexed profile.
func (x *ProfileIndex) Bit(name string) (uint, bool) {
	bit, ok := x.bits[name]
	return bit, ok
}

// Mask returns the mask of the given indexed profiles. Unknown names are
// ignored.
func (x *ProfileIndex) Mask(names ...string) ProfileMask {
	var m ProfileMask
	for _, name := range names {
		if bit, ok := x.bits[name]; ok {
			m = m.With(bit)
		}
	}
	return m
}

// Profiles returns the indexed profiles in bit order.
func (x *ProfileIndex) Profiles() []ProfileBit {
	out := make([]ProfileBit, len(x.order))
	for i, name := range x.order {
		out[i] = ProfileBit{Name: name, Bit: uint(i)}
	}
	return out
}

// Names returns the profiles of m in bit order.
func (x *ProfileIndex) Names(m ProfileMask) []string {
	var out []string
	for i, name := range x.order {
		if m.Has(uint(i)) {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of indexed profiles.
func (x *ProfileIndex) Len() int { return len(x.order) }

func (x *ProfileIndex) String() string {
	parts := make([]string, len(x.order))
	for i, name := range x.order {
		if name == DefaultProfile {
			name = "<default>"
		}
		parts[i] = fmt.Sprintf("%s=%d", name, i)
	}
	return strings.Join(parts, " ")
}

func (x *ProfileIndex) clone() *ProfileIndex {
	c := &ProfileIndex{
		bits:  make(map[string]uint, len(x.bits)),
		order: append([]string(nil), x.order...),
	}
	for k, v := range x.bits {
		c.bits[k] = v
	}
	return c
}

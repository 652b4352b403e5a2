package seqmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestProfileIndex_DefaultHoldsBitZero(t *testing.T) {
	x := NewProfileIndex()
	bit, ok := x.Bit(DefaultProfile)
	require.True(t, ok)
	require.Equal(t, uint(0), bit)
	require.Equal(t, 1, x.Len())

	bit, err := x.EnsureIndexed("Dog")
	require.NoError(t, err)
	require.Equal(t, uint(1), bit)
}

func TestProfileIndex_EnsureIndexedIsIdempotent(t *testing.T) {
	x := NewProfileIndex()
	first, err := x.EnsureIndexed("Dog")
	require.NoError(t, err)
	_, err = x.EnsureIndexed("Cat")
	require.NoError(t, err)
	again, err := x.EnsureIndexed("Dog")
	require.NoError(t, err)

	require.Equal(t, first, again)
	require.Equal(t, 3, x.Len())
	require.Equal(t, []ProfileBit{
		{Name: DefaultProfile, Bit: 0},
		{Name: "Dog", Bit: 1},
		{Name: "Cat", Bit: 2},
	}, x.Profiles())
}

func TestProfileIndex_NamesAreCaseSensitive(t *testing.T) {
	x := NewProfileIndex()
	lower, err := x.EnsureIndexed("dog")
	require.NoError(t, err)
	upper, err := x.EnsureIndexed("Dog")
	require.NoError(t, err)
	require.NotEqual(t, lower, upper)
}

func TestProfileIndex_RejectsProfilesBeyondMaskWidth(t *testing.T) {
	x := NewProfileIndex()
	for i := 1; i < MaxProfiles; i++ {
		bit, err := x.EnsureIndexed(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		require.Equal(t, uint(i), bit)
	}
	require.Equal(t, MaxProfiles, x.Len())

	_, err := x.EnsureIndexed("one-too-many")
	require.ErrorIs(t, err, ErrTooManyProfiles)
	require.Equal(t, MaxProfiles, x.Len())

	bit, err := x.EnsureIndexed("p63")
	require.NoError(t, err)
	require.Equal(t, uint(63), bit)
}

func TestProfileIndex_MaskAndNames(t *testing.T) {
	x := NewProfileIndex()
	for _, p := range []string{"Dog", "Cat", "Fox"} {
		_, err := x.EnsureIndexed(p)
		require.NoError(t, err)
	}

	m := x.Mask("Fox", DefaultProfile, "unknown")
	require.Equal(t, MaskOf(0, 3), m)
	require.Equal(t, []string{DefaultProfile, "Fox"}, x.Names(m))
	require.Equal(t, "<default>=0 Dog=1 Cat=2 Fox=3", x.String())
}

func TestProfileMask(t *testing.T) {
	m := MaskOf(0, 5)
	require.True(t, m.Has(0))
	require.True(t, m.Has(5))
	require.False(t, m.Has(1))
	require.Equal(t, 2, m.Len())
	require.True(t, m.Intersects(MaskOf(5)))
	require.False(t, m.Intersects(MaskOf(1, 2)))
	require.True(t, MaskOf(63).Has(63))
	require.Equal(t, "0x21", m.String())
}

func TestProfileIndex_CloneIsIndependent(t *testing.T) {
	x := NewProfileIndex()
	_, err := x.EnsureIndexed("Dog")
	require.NoError(t, err)

	c := x.clone()
	_, err = x.EnsureIndexed("Cat")
	require.NoError(t, err)

	require.Equal(t, 2, c.Len())
	_, ok := c.Bit("Cat")
	require.False(t, ok)
}

// Property: bits follow first-seen order, never change once assigned, and
// are unique.
func TestProfileIndex_Property_FirstSeenStableUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z0-9]{0,3}`), 0, 40).Draw(t, "names")

		x := NewProfileIndex()
		assigned := map[string]uint{DefaultProfile: 0}
		next := uint(1)
		for _, name := range names {
			bit, err := x.EnsureIndexed(name)
			require.NoError(t, err)
			if want, ok := assigned[name]; ok {
				require.Equal(t, want, bit, "bit of %q changed", name)
				continue
			}
			require.Equal(t, next, bit)
			assigned[name] = bit
			next++
		}

		seen := make(map[uint]string)
		for _, p := range x.Profiles() {
			other, dup := seen[p.Bit]
			require.False(t, dup, "bit %d shared by %q and %q", p.Bit, other, p.Name)
			seen[p.Bit] = p.Name
			require.Equal(t, assigned[p.Name], p.Bit)
		}
		require.Len(t, seen, len(assigned))
	})
}

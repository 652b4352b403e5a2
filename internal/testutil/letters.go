package testutil

import "strings"

// Item is the contract every letter fixture implements.
type Item interface {
	Name() string
}

// Letter is an Item that reports its own text as name.
type Letter string

// Name implements Item.
func (l Letter) Name() string { return string(l) }

// NewLetter returns a constructor producing a fresh Letter on every call.
func NewLetter(name string) func() Item {
	return func() Item { return Letter(name) }
}

// Names concatenates the names of items in order.
func Names(items []Item) string {
	var sb strings.Builder
	for _, item := range items {
		if item == nil {
			sb.WriteString("_")
			continue
		}
		sb.WriteString(item.Name())
	}
	return sb.String()
}

// Decorated wraps another Item with a prefix and a repeat count.
type Decorated struct {
	Prefix string
	Inner  Item
	Times  int
}

// Name implements Item.
func (d *Decorated) Name() string {
	inner := ""
	if d.Inner != nil {
		inner = d.Inner.Name()
	}
	return d.Prefix + strings.Repeat(inner, max(d.Times, 1))
}

// NewDecorated is a positional constructor for Decorated.
func NewDecorated(prefix string, inner Item, times int) *Decorated {
	return &Decorated{Prefix: prefix, Inner: inner, Times: times}
}

package manifest

import (
	"sort"
	"strings"

	"github.com/zjrosen/seqmap/pkg/lookup"
)

// Step is the item contract of every manifest sequence.
type Step interface {
	Label() string
}

// Label is a step that renders as its own text.
type Label string

func (l Label) Label() string { return string(l) }

type labelParams struct {
	lookup.In
	Text string `lookup:"text"`
}

func newLabel(p labelParams) Step { return Label(p.Text) }

// Prefixed renders Text after Prefix.
type Prefixed struct {
	Prefix string
	Text   string
}

func (p *Prefixed) Label() string { return p.Prefix + p.Text }

type prefixedParams struct {
	lookup.In
	Prefix string `lookup:"prefix"`
	Text   string `lookup:"text"`
}

func newPrefixed(p prefixedParams) Step {
	return &Prefixed{Prefix: p.Prefix, Text: p.Text}
}

// Wrapped renders Inner between Before and After, Times times.
type Wrapped struct {
	Inner  Step
	Before string
	After  string
	Times  int
}

func (w *Wrapped) Label() string {
	inner := ""
	if w.Inner != nil {
		inner = w.Inner.Label()
	}
	return w.Before + strings.Repeat(inner, max(w.Times, 1)) + w.After
}

type wrappedParams struct {
	lookup.In
	Inner  Step   `lookup:"inner"`
	Before string `lookup:"before"`
	After  string `lookup:"after"`
	Times  int    `lookup:"times"`
}

func newWrapped(p wrappedParams) Step {
	return &Wrapped{Inner: p.Inner, Before: p.Before, After: p.After, Times: p.Times}
}

var kinds = map[string]any{
	"label":    newLabel,
	"prefixed": newPrefixed,
	"wrapped":  newWrapped,
}

// Kinds returns the step kinds a manifest may construct.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Labels renders steps, using "<nil>" for nil entries.
func Labels(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		if s == nil {
			out[i] = "<nil>"
			continue
		}
		out[i] = s.Label()
	}
	return out
}

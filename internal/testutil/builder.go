package testutil

import (
	"testing"

	"github.com/zjrosen/seqmap/pkg/lookup"
)

// Builder accumulates sequence declarations and unrelated plain
// registrations for a test.
type Builder struct {
	t     *testing.T
	decls []Decl
	plain []string
}

// NewBuilder creates an empty builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// WithItem appends a letter item to the sequence.
func (b *Builder) WithItem(letter string, opts ...DeclOption) *Builder {
	d := declData{letter: letter}
	for _, opt := range opts {
		opt(&d)
	}
	b.decls = append(b.decls, Decl{Letter: d.letter, Profiles: d.profiles})
	return b
}

// WithItems appends unscoped letter items, one per rune of letters.
func (b *Builder) WithItems(letters string) *Builder {
	for _, r := range letters {
		b.WithItem(string(r))
	}
	return b
}

// WithPlain adds a plain Item registration outside of any sequence.
func (b *Builder) WithPlain(letters string) *Builder {
	for _, r := range letters {
		b.plain = append(b.plain, string(r))
	}
	return b
}

// Decls returns the accumulated sequence declarations in order.
func (b *Builder) Decls() []Decl {
	return append([]Decl(nil), b.decls...)
}

// Profiles returns the distinct profiles mentioned by the declarations in
// first-seen order.
func (b *Builder) Profiles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range b.decls {
		for _, p := range d.Profiles {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// RegisterPlain adds the plain registrations to r and clears them.
func (b *Builder) RegisterPlain(r lookup.Registrar) {
	b.t.Helper()
	for _, letter := range b.plain {
		lookup.Add[Item](r, lookup.Constructor(NewLetter(letter)))
	}
	b.plain = nil
}

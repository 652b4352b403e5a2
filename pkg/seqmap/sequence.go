package seqmap

import (
	"reflect"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/seqmap/pkg/lookup"
)

// Sequence is a finalized declaration. It is immutable and safe for
// concurrent use.
type Sequence[T any] struct {
	name     string
	key      string
	mode     Mode
	contract reflect.Type
	index    *ProfileIndex
	records  []*itemRecord
	views    map[string]*view[T]
	tracer   trace.Tracer
}

func newSequence[T any](b *buildContext[T]) *Sequence[T] {
	s := &Sequence[T]{
		name:     b.name,
		mode:     b.mode,
		contract: b.contract,
		index:    b.index.clone(),
		records:  append([]*itemRecord(nil), b.records...),
		tracer:   b.opts.tracer,
	}
	if s.name == "" {
		s.key = b.opts.newID()
	}

	defaultMask := MaskOf(0)
	s.views = make(map[string]*view[T], s.index.Len())
	for _, p := range s.index.Profiles() {
		s.views[p.Name] = &view[T]{seq: s, profile: p.Name, active: defaultMask.With(p.Bit)}
	}
	return s
}

// register adds every item under the contract, at r's scope for default
// items and in each profile the item belongs to, then one view per profile.
// Profiles are flat, so when r is itself a profile scope the default items
// are also added to every other profile the sequence has a view for.
func (s *Sequence[T]) register(r lookup.Registrar) {
	profiles := s.index.Profiles()
	scope := scopeOf(r)

	for _, rec := range s.records {
		shared := rec.profiling.Has(0)
		if shared {
			r.Add(s.contract, rec.inst)
		}
		for _, p := range profiles[1:] {
			if p.Name == scope && shared {
				continue
			}
			if !rec.profiling.Has(p.Bit) && !(shared && scope != "") {
				continue
			}
			r.Profile(p.Name, func(pr lookup.Registrar) {
				pr.Add(s.contract, rec.inst)
			})
		}
	}

	contract := seqType[T]()
	for _, p := range profiles {
		inst := s.views[p.Name].instance()
		add := func(reg lookup.Registrar) {
			if s.mode == Replace {
				reg.Use(contract, inst)
			} else {
				reg.Add(contract, inst)
			}
		}
		if p.Name == DefaultProfile {
			add(r)
		} else {
			r.Profile(p.Name, add)
		}
	}
}

func scopeOf(r lookup.Registrar) string {
	if sr, ok := r.(interface{ Scope() string }); ok {
		return sr.Scope()
	}
	return ""
}

// Name returns the sequence name, empty for the contract's unnamed sequence.
func (s *Sequence[T]) Name() string { return s.name }

// Mode returns how the views were registered.
func (s *Sequence[T]) Mode() Mode { return s.mode }

// Contract returns the item type.
func (s *Sequence[T]) Contract() reflect.Type { return s.contract }

// Profiles returns every profile the sequence has a view for, default first.
func (s *Sequence[T]) Profiles() []ProfileBit { return s.index.Profiles() }

// Len returns the number of declared items.
func (s *Sequence[T]) Len() int { return len(s.records) }

// Describe lists the items of profile's view without resolving them.
// Profiles the sequence never mentions see the default view.
func (s *Sequence[T]) Describe(profile string) []string {
	v := s.viewFor(profile)
	var out []string
	for _, rec := range s.records {
		if v.selects(rec) {
			out = append(out, rec.String())
		}
	}
	return out
}

// Membership returns the profiles each item belongs to, in declaration order.
func (s *Sequence[T]) Membership() [][]string {
	out := make([][]string, len(s.records))
	for i, rec := range s.records {
		out[i] = s.index.Names(rec.profiling)
	}
	return out
}

// View evaluates the view of r's profile directly, without going through the
// registered view instances.
func (s *Sequence[T]) View(r lookup.Resolver) Seq[T] {
	return s.viewFor(r.Profile()).bind(r)
}

func (s *Sequence[T]) viewFor(profile string) *view[T] {
	if v, ok := s.views[profile]; ok {
		return v
	}
	return s.views[DefaultProfile]
}

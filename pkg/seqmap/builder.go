package seqmap

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/pkg/lookup"
)

// Mode selects how a sequence's views are registered.
type Mode int

const (
	// Append adds the views next to other registrations of the contract.
	Append Mode = iota
	// Replace makes the views the contract's default.
	Replace
)

func (m Mode) String() string {
	switch m {
	case Append:
		return "add"
	case Replace:
		return "use"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ForSequenceOf starts the declaration of a sequence of T registered with r.
// The returned steps must be driven by a single goroutine.
func ForSequenceOf[T any](r lookup.Registrar, opts ...Option) AddOrUseStep[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &buildContext[T]{
		registrar: r,
		opts:      o,
		contract:  reflect.TypeFor[T](),
		index:     NewProfileIndex(),
	}
	if r == nil {
		b.fail(fmt.Errorf("%w: nil registrar", ErrInvalidItem))
	}
	return addOrUseStep[T]{b: b}
}

// buildContext is the state shared by every step of one declaration.
type buildContext[T any] struct {
	registrar lookup.Registrar
	opts      options
	contract  reflect.Type

	mode    Mode
	name    string
	index   *ProfileIndex
	records []*itemRecord
	pending *pendingItem

	err  error
	done bool
}

// fail keeps the first error; later steps become no-ops.
func (b *buildContext[T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *buildContext[T]) active() bool {
	return b.err == nil && !b.done
}

func (b *buildContext[T]) declare(inst *lookup.Instance, profiles []string) {
	if !b.active() {
		return
	}
	b.flush()
	if b.err != nil {
		return
	}

	position := len(b.records) + 1
	switch {
	case inst == nil:
		b.fail(fmt.Errorf("%w: item %d is nil", ErrInvalidItem, position))
		return
	case inst.Err() != nil:
		b.fail(fmt.Errorf("%w: item %d (%s): %w", ErrInvalidItem, position, inst, inst.Err()))
		return
	case inst.Returns() != nil && !inst.Returns().AssignableTo(b.contract):
		b.fail(fmt.Errorf("%w: item %d (%s) produces %s, want %s", ErrNotAssignable, position, inst, inst.Returns(), b.contract))
		return
	}

	mask, err := b.maskOf(profiles)
	if err != nil {
		b.fail(fmt.Errorf("item %d (%s): %w", position, inst, err))
		return
	}
	b.pending = &pendingItem{inst: inst, profiling: mask}
}

// maskOf indexes every profile and returns their mask, or the default bit
// when there are none.
func (b *buildContext[T]) maskOf(profiles []string) (ProfileMask, error) {
	if len(profiles) == 0 {
		return MaskOf(0), nil
	}
	var mask ProfileMask
	for _, p := range profiles {
		bit, err := b.index.EnsureIndexed(p)
		if err != nil {
			return 0, err
		}
		mask = mask.With(bit)
	}
	return mask, nil
}

func (b *buildContext[T]) override(sel lookup.ParamSelector, src lookup.ArgSource) {
	if !b.active() || b.pending == nil {
		return
	}
	b.pending.overrides = b.pending.overrides.then(sel, src)
}

func (b *buildContext[T]) flush() {
	if b.pending == nil {
		return
	}
	p := b.pending
	b.pending = nil

	rec, err := p.flush(b.opts.newID())
	if err != nil {
		b.fail(fmt.Errorf("item %d (%s): %w", len(b.records)+1, p.inst, err))
		return
	}
	b.records = append(b.records, rec)
}

func (b *buildContext[T]) finish() (*Sequence[T], error) {
	if b.done {
		return nil, ErrSequenceFinalized
	}
	if b.err == nil {
		b.flush()
	}
	b.done = true

	if b.err != nil {
		log.ErrorErr(log.CatSeq, "sequence declaration failed", b.err, "contract", b.contract, "name", b.name)
		return nil, b.err
	}

	seq := newSequence(b)
	seq.register(b.registrar)
	log.Debug(log.CatSeq, "sequence registered",
		"contract", b.contract,
		"name", seq.name,
		"mode", seq.mode,
		"items", len(seq.records),
		"profiles", seq.index)
	return seq, nil
}

type addOrUseStep[T any] struct{ b *buildContext[T] }

func (s addOrUseStep[T]) AddSequence() SetNameOrNextItemStep[T] {
	s.b.mode = Append
	return nameStep[T]{nextItemStep[T]{b: s.b}}
}

func (s addOrUseStep[T]) UseSequence() SetNameOrNextItemStep[T] {
	s.b.mode = Replace
	return nameStep[T]{nextItemStep[T]{b: s.b}}
}

type nextItemStep[T any] struct{ b *buildContext[T] }

func (s nextItemStep[T]) AddNext(ctor any, profiles ...string) ChooseCtorParamOrSetNextItemStep[T] {
	s.b.declare(lookup.Constructor(ctor), profiles)
	return ctorParamStep[T]{s}
}

func (s nextItemStep[T]) NextIs(ctor any, profiles ...string) SetNextItemStep[T] {
	s.b.declare(lookup.Constructor(ctor), profiles)
	return s
}

func (s nextItemStep[T]) NextIsNamed(name string, profiles ...string) SetNextItemStep[T] {
	s.b.declare(lookup.Ref(name), profiles)
	return s
}

func (s nextItemStep[T]) NextIsValue(v T, profiles ...string) SetNextItemStep[T] {
	s.b.declare(lookup.Value(v), profiles)
	return s
}

func (s nextItemStep[T]) NextIsInstance(inst *lookup.Instance, profiles ...string) SetNextItemStep[T] {
	s.b.declare(inst, profiles)
	return s
}

func (s nextItemStep[T]) End() error {
	_, err := s.b.finish()
	return err
}

func (s nextItemStep[T]) Finish() (*Sequence[T], error) {
	return s.b.finish()
}

type nameStep[T any] struct{ nextItemStep[T] }

func (s nameStep[T]) Named(name string) SetNextItemStep[T] {
	if s.b.active() {
		s.b.name = name
	}
	return s.nextItemStep
}

type ctorParamStep[T any] struct{ nextItemStep[T] }

func (s ctorParamStep[T]) Ctor(t reflect.Type) SetCtorArgStep[T] {
	return ctorArgStep[T]{b: s.b, sel: lookup.ParamSelector{Type: t}}
}

func (s ctorParamStep[T]) CtorNamed(t reflect.Type, name string) SetCtorArgStep[T] {
	return ctorArgStep[T]{b: s.b, sel: lookup.ParamSelector{Type: t, Name: name}}
}

type ctorArgStep[T any] struct {
	b   *buildContext[T]
	sel lookup.ParamSelector
}

func (s ctorArgStep[T]) IsNamedInstance(name string) ChooseCtorParamOrSetNextItemStep[T] {
	return s.bind(lookup.NamedInstance(name))
}

func (s ctorArgStep[T]) IsType(t reflect.Type) ChooseCtorParamOrSetNextItemStep[T] {
	return s.bind(lookup.OfType(t))
}

func (s ctorArgStep[T]) IsValue(v any) ChooseCtorParamOrSetNextItemStep[T] {
	return s.bind(lookup.Literal(v))
}

func (s ctorArgStep[T]) Is(inst *lookup.Instance) ChooseCtorParamOrSetNextItemStep[T] {
	return s.bind(lookup.FromInstance(inst))
}

func (s ctorArgStep[T]) IsBuiltBy(ctor any) ChooseCtorParamOrSetNextItemStep[T] {
	return s.bind(lookup.BuiltBy(ctor))
}

func (s ctorArgStep[T]) bind(src lookup.ArgSource) ChooseCtorParamOrSetNextItemStep[T] {
	s.b.override(s.sel, src)
	return ctorParamStep[T]{nextItemStep[T]{b: s.b}}
}

package seqmap

import (
	"reflect"

	"github.com/zjrosen/seqmap/pkg/lookup"
)

// AddOrUseStep chooses how the sequence's views are registered.
type AddOrUseStep[T any] interface {
	// AddSequence registers the views alongside earlier registrations of
	// the sequence contract, for consumers that fold every registration.
	AddSequence() SetNameOrNextItemStep[T]
	// UseSequence registers the views as the sequence contract's default,
	// superseding earlier default sequences.
	UseSequence() SetNameOrNextItemStep[T]
}

// SetNextItemStep declares the next item or finishes the sequence.
//
// Constructors are functions returning a value assignable to T, or such a
// value and an error; their parameters are resolved by the lookup service.
// Profiles scope the item: with none it belongs to the default profile only,
// with some it belongs to exactly those.
type SetNextItemStep[T any] interface {
	// AddNext declares an item built by ctor whose parameters may be bound
	// in the following steps.
	AddNext(ctor any, profiles ...string) ChooseCtorParamOrSetNextItemStep[T]
	// NextIs declares an item built by ctor.
	NextIs(ctor any, profiles ...string) SetNextItemStep[T]
	// NextIsNamed declares an item resolved from the registration of T
	// named name at resolution time.
	NextIsNamed(name string, profiles ...string) SetNextItemStep[T]
	// NextIsValue declares an item that always yields v.
	NextIsValue(v T, profiles ...string) SetNextItemStep[T]
	// NextIsInstance declares an item obtained through inst.
	NextIsInstance(inst *lookup.Instance, profiles ...string) SetNextItemStep[T]

	// End registers the items and one view per profile. It returns the
	// first error of the declaration, in which case nothing is registered.
	End() error
	// Finish is End returning the finalized sequence.
	Finish() (*Sequence[T], error)
}

// SetNameOrNextItemStep optionally names the sequence before its first item.
type SetNameOrNextItemStep[T any] interface {
	SetNextItemStep[T]
	// Named registers the views under name instead of as the contract's
	// unnamed sequence.
	Named(name string) SetNextItemStep[T]
}

// ChooseCtorParamOrSetNextItemStep selects a constructor parameter of the
// pending item to bind, or moves on.
type ChooseCtorParamOrSetNextItemStep[T any] interface {
	SetNextItemStep[T]
	// Ctor selects every parameter of type t.
	Ctor(t reflect.Type) SetCtorArgStep[T]
	// CtorNamed selects the parameter called name. A nil t matches any type.
	CtorNamed(t reflect.Type, name string) SetCtorArgStep[T]
}

// SetCtorArgStep binds the selected constructor parameter. Later bindings of
// the same parameter win.
type SetCtorArgStep[T any] interface {
	// IsNamedInstance binds the registration named name.
	IsNamedInstance(name string) ChooseCtorParamOrSetNextItemStep[T]
	// IsType binds the default registration of t, resolved at
	// instantiation time.
	IsType(t reflect.Type) ChooseCtorParamOrSetNextItemStep[T]
	// IsValue binds a literal.
	IsValue(v any) ChooseCtorParamOrSetNextItemStep[T]
	// Is binds a value obtained through inst.
	Is(inst *lookup.Instance) ChooseCtorParamOrSetNextItemStep[T]
	// IsBuiltBy binds a value built by ctor.
	IsBuiltBy(ctor any) ChooseCtorParamOrSetNextItemStep[T]
}

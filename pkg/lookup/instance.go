package lookup

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Lifecycle controls how long a built value is reused.
type Lifecycle int

const (
	// Transient builds a new value on every resolution.
	Transient Lifecycle = iota
	// Singleton builds once per registry scope and reuses the value.
	Singleton
)

func (l Lifecycle) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

type instanceKind int

const (
	kindConstructor instanceKind = iota
	kindValue
	kindFactory
	kindRef
)

// Instance describes how to obtain one value. Instances are configured
// through their modifiers before registration and treated as read-only after.
type Instance struct {
	kind        instanceKind
	name        string
	keyed       bool // name set by Keyed
	description string
	lifecycle   Lifecycle

	fn          reflect.Value
	params      []Param
	paramObject bool
	returns     reflect.Type

	value   any
	factory func(Resolver) (any, error)
	ref     string

	bindings []Binding
	err      error
}

// Constructor builds values by calling fn, which must be a non-variadic
// function returning R or (R, error).
func Constructor(fn any) *Instance {
	inst := &Instance{kind: kindConstructor}
	if fn == nil {
		inst.err = fmt.Errorf("%w: nil function", ErrInvalidConstructor)
		return inst
	}

	rv := reflect.ValueOf(fn)
	ft := rv.Type()
	inst.description = funcName(rv)
	switch {
	case ft.Kind() != reflect.Func:
		inst.err = fmt.Errorf("%w: %s is not a function", ErrInvalidConstructor, ft)
		return inst
	case rv.IsNil():
		inst.err = fmt.Errorf("%w: nil function", ErrInvalidConstructor)
		return inst
	case ft.IsVariadic():
		inst.err = fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, ft)
		return inst
	case ft.NumOut() == 0 || ft.NumOut() > 2:
		inst.err = fmt.Errorf("%w: %s must return R or (R, error)", ErrInvalidConstructor, ft)
		return inst
	case ft.NumOut() == 2 && ft.Out(1) != errorType:
		inst.err = fmt.Errorf("%w: second result of %s must be error", ErrInvalidConstructor, ft)
		return inst
	}

	params, paramObject, err := paramsOf(ft)
	if err != nil {
		inst.err = err
		return inst
	}

	inst.fn = rv
	inst.params = params
	inst.paramObject = paramObject
	inst.returns = ft.Out(0)
	return inst
}

// Value always yields v.
func Value(v any) *Instance {
	inst := &Instance{kind: kindValue, value: v, description: fmt.Sprintf("value %v", v)}
	if v != nil {
		inst.returns = reflect.TypeOf(v)
	}
	return inst
}

// Factory builds values by calling fn with the resolving scope.
func Factory(description string, fn func(Resolver) (any, error)) *Instance {
	inst := &Instance{kind: kindFactory, factory: fn, description: description}
	if fn == nil {
		inst.err = fmt.Errorf("%w: nil factory %q", ErrInvalidRegistration, description)
	}
	return inst
}

// Ref forwards to the registration of the same contract named name.
// Whether name exists is only checked at resolution time.
func Ref(name string) *Instance {
	return &Instance{kind: kindRef, ref: name, description: fmt.Sprintf("ref %q", name)}
}

// Named sets the registration name.
func (i *Instance) Named(name string) *Instance {
	i.name = name
	i.keyed = false
	return i
}

// Keyed sets the registration name without making the registration named:
// it still shadows same-keyed registrations of other scopes, but counts as
// unnamed when the contract's default is chosen.
func (i *Instance) Keyed(key string) *Instance {
	i.name = key
	i.keyed = true
	return i
}

// Describe replaces the human readable description.
func (i *Instance) Describe(description string) *Instance {
	i.description = description
	return i
}

// Singleton marks the instance as built once per scope.
func (i *Instance) Singleton() *Instance {
	i.lifecycle = Singleton
	return i
}

// Bind overrides the parameters matched by sel with src. Later bindings for
// the same parameter win. Binding a parameter the constructor does not have
// records ErrUnknownParameter on the instance.
func (i *Instance) Bind(sel ParamSelector, src ArgSource) *Instance {
	if i.err != nil {
		return i
	}
	if i.kind != kindConstructor {
		i.err = fmt.Errorf("%w: %s: only constructors take parameter bindings", ErrInvalidRegistration, i)
		return i
	}
	if src == nil {
		i.err = fmt.Errorf("%w: %s: nil source for parameter %s", ErrInvalidRegistration, i, sel)
		return i
	}
	if !i.hasParam(sel) {
		i.err = fmt.Errorf("%w: %s has no parameter %s (parameters: %s)", ErrUnknownParameter, i, sel, i.paramList())
		return i
	}
	i.bindings = append(i.bindings, Binding{Selector: sel, Source: src})
	return i
}

// Clone returns a copy of i that can be modified and registered on its own.
func (i *Instance) Clone() *Instance {
	c := *i
	c.params = append([]Param(nil), i.params...)
	c.bindings = append([]Binding(nil), i.bindings...)
	return &c
}

// Name returns the registration name, empty when unset.
func (i *Instance) Name() string { return i.name }

// Lifecycle returns the instance lifecycle.
func (i *Instance) Lifecycle() Lifecycle { return i.lifecycle }

// Returns reports the static result type, or nil when only known at build time.
func (i *Instance) Returns() reflect.Type { return i.returns }

// Params returns the constructor parameters; nil for other instance kinds.
func (i *Instance) Params() []Param { return append([]Param(nil), i.params...) }

// Bindings returns the parameter bindings in declaration order.
func (i *Instance) Bindings() []Binding { return append([]Binding(nil), i.bindings...) }

// Err reports the first configuration error of the instance.
func (i *Instance) Err() error { return i.err }

func (i *Instance) String() string {
	if i == nil {
		return "<nil instance>"
	}
	return i.description
}

func (i *Instance) hasParam(sel ParamSelector) bool {
	for _, p := range i.params {
		if sel.matches(p) {
			return true
		}
	}
	return false
}

// binding returns the last binding matching p.
func (i *Instance) binding(p Param) (Binding, bool) {
	for j := len(i.bindings) - 1; j >= 0; j-- {
		if i.bindings[j].Selector.matches(p) {
			return i.bindings[j], true
		}
	}
	return Binding{}, false
}

func (i *Instance) paramList() string {
	if len(i.params) == 0 {
		return "none"
	}
	parts := make([]string, len(i.params))
	for j, p := range i.params {
		parts[j] = p.String()
	}
	return strings.Join(parts, ", ")
}

func funcName(fn reflect.Value) string {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return fmt.Sprintf("%v", fn.Type())
	}
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		name := f.Name()
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		return name
	}
	return fn.Type().String()
}

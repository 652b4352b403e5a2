package lookup

import (
	"context"
	"fmt"
	"reflect"
)

// In marks a parameter object. A constructor whose only argument is a struct
// embedding In has one parameter per exported field, named by the field name
// or by a `lookup:"name"` tag.
type In struct{}

var (
	inType       = reflect.TypeFor[In]()
	errorType    = reflect.TypeFor[error]()
	resolverType = reflect.TypeFor[Resolver]()
	contextType  = reflect.TypeFor[context.Context]()
)

// Param describes one constructor parameter.
type Param struct {
	Name  string // empty for positional parameters
	Type  reflect.Type
	index int // argument position
	field int // field index inside a parameter object, -1 otherwise
}

func (p Param) String() string {
	if p.Name == "" {
		return fmt.Sprintf("#%d %s", p.index, p.Type)
	}
	return fmt.Sprintf("%s %s", p.Name, p.Type)
}

// ParamSelector picks the constructor parameters a Binding applies to.
// With a Name it matches that named parameter (Type, when set, must agree);
// without one it matches every parameter of exactly Type.
type ParamSelector struct {
	Type reflect.Type
	Name string
}

func (s ParamSelector) matches(p Param) bool {
	if s.Name != "" {
		return p.Name == s.Name && (s.Type == nil || s.Type == p.Type)
	}
	return s.Type != nil && s.Type == p.Type
}

func (s ParamSelector) String() string {
	switch {
	case s.Name != "" && s.Type != nil:
		return fmt.Sprintf("%s %s", s.Name, s.Type)
	case s.Name != "":
		return s.Name
	case s.Type != nil:
		return s.Type.String()
	default:
		return "<empty selector>"
	}
}

// Binding overrides how a constructor parameter is obtained.
type Binding struct {
	Selector ParamSelector
	Source   ArgSource
}

// ArgSource produces the value bound to a parameter at instantiation time.
type ArgSource interface {
	produce(s *session, target reflect.Type) (reflect.Value, error)
	String() string
}

// NamedInstance binds the parameter to the registration of the parameter's
// type with the given name.
func NamedInstance(name string) ArgSource { return namedSource{name: name} }

// OfType binds the parameter to the default registration of t, which must be
// assignable to the parameter type.
func OfType(t reflect.Type) ArgSource { return typeSource{t: t} }

// Literal binds the parameter to a fixed value.
func Literal(v any) ArgSource { return literalSource{v: v} }

// FromInstance binds the parameter to a value built from inst in the
// resolving scope. inst is not registered anywhere.
func FromInstance(inst *Instance) ArgSource { return instanceSource{inst: inst} }

// BuiltBy is shorthand for FromInstance(Constructor(fn)).
func BuiltBy(fn any) ArgSource { return instanceSource{inst: Constructor(fn)} }

type namedSource struct{ name string }

func (n namedSource) produce(s *session, target reflect.Type) (reflect.Value, error) {
	v, err := s.Resolve(target, n.name)
	if err != nil {
		return reflect.Value{}, err
	}
	return valueFor(v, target)
}

func (n namedSource) String() string { return fmt.Sprintf("named %q", n.name) }

type typeSource struct{ t reflect.Type }

func (ts typeSource) produce(s *session, target reflect.Type) (reflect.Value, error) {
	if ts.t == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil type reference", ErrTypeMismatch)
	}
	if !ts.t.AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, ts.t, target)
	}
	v, err := s.Resolve(ts.t, "")
	if err != nil {
		return reflect.Value{}, err
	}
	return valueFor(v, target)
}

func (ts typeSource) String() string { return fmt.Sprintf("type %s", ts.t) }

type literalSource struct{ v any }

func (l literalSource) produce(_ *session, target reflect.Type) (reflect.Value, error) {
	if l.v == nil {
		return valueFor(nil, target)
	}
	rv := reflect.ValueOf(l.v)
	if rv.Type().AssignableTo(target) {
		return rv, nil
	}
	// Allow untyped-looking literals such as 3 for an int64 parameter.
	if v, ok := convertLiteral(rv, target); ok {
		return v, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: literal %T is not assignable to %s", ErrTypeMismatch, l.v, target)
}

func (l literalSource) String() string { return fmt.Sprintf("literal %v", l.v) }

type instanceSource struct{ inst *Instance }

func (is instanceSource) produce(s *session, target reflect.Type) (reflect.Value, error) {
	if is.inst == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil instance", ErrInvalidRegistration)
	}
	if err := is.inst.Err(); err != nil {
		return reflect.Value{}, err
	}
	v, err := s.build(is.inst, target)
	if err != nil {
		return reflect.Value{}, err
	}
	return valueFor(v, target)
}

func (is instanceSource) String() string { return fmt.Sprintf("instance %s", is.inst) }

// valueFor converts a resolved value into an argument of type target.
func valueFor(v any, target reflect.Type) (reflect.Value, error) {
	if v == nil {
		if !nilable(target) {
			return reflect.Value{}, fmt.Errorf("%w: nil is not assignable to %s", ErrTypeMismatch, target)
		}
		return reflect.Zero(target), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(target) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrTypeMismatch, rv.Type(), target)
	}
	return rv, nil
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// convertLiteral converts rv to target when no information is lost. Numbers
// convert between numeric kinds if the value fits; strings and bools only
// convert to types of the same kind.
func convertLiteral(rv reflect.Value, target reflect.Type) (reflect.Value, bool) {
	from, to := rv.Kind(), target.Kind()
	if !rv.Type().ConvertibleTo(target) {
		return reflect.Value{}, false
	}
	switch {
	case (from == reflect.String || from == reflect.Bool) && from == to:
		return rv.Convert(target), true
	case isInt(from) && isInt(to):
	case isFloat(from) && isFloat(to):
	case isInt(from) && isFloat(to):
	default:
		return reflect.Value{}, false
	}
	out := rv.Convert(target)
	if !out.Convert(rv.Type()).Equal(rv) || signFlipped(rv, out) {
		return reflect.Value{}, false
	}
	return out, true
}

func signFlipped(from, to reflect.Value) bool {
	switch {
	case from.CanInt() && to.CanUint():
		return from.Int() < 0
	case from.CanUint() && to.CanInt():
		return to.Int() < 0
	default:
		return false
	}
}

func isInt(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return isUint(k)
}

func isUint(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isFloat(k reflect.Kind) bool { return k == reflect.Float32 || k == reflect.Float64 }

// paramsOf extracts the parameter list of constructor type ft.
func paramsOf(ft reflect.Type) ([]Param, bool, error) {
	if ft.NumIn() == 1 && isParamObject(ft.In(0)) {
		obj := ft.In(0)
		var params []Param
		for i := 0; i < obj.NumField(); i++ {
			f := obj.Field(i)
			if f.Anonymous && f.Type == inType {
				continue
			}
			if !f.IsExported() {
				return nil, false, fmt.Errorf("%w: parameter object %s has unexported field %s", ErrInvalidConstructor, obj, f.Name)
			}
			name := f.Name
			if tag := f.Tag.Get("lookup"); tag != "" {
				name = tag
			}
			params = append(params, Param{Name: name, Type: f.Type, index: 0, field: i})
		}
		return params, true, nil
	}

	params := make([]Param, ft.NumIn())
	for i := range params {
		params[i] = Param{Type: ft.In(i), index: i, field: -1}
	}
	return params, false, nil
}

func isParamObject(t reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == inType {
			return true
		}
	}
	return false
}

package seqmap

import (
	"reflect"

	"github.com/zjrosen/seqmap/pkg/lookup"
)

// overrideSpec composes constructor-argument bindings for one pending item.
// The zero value is the identity.
type overrideSpec struct {
	fn func(*lookup.Instance) *lookup.Instance
}

// then returns the composition binding sel to src after every earlier binding.
func (o overrideSpec) then(sel lookup.ParamSelector, src lookup.ArgSource) overrideSpec {
	prev := o.fn
	return overrideSpec{fn: func(inst *lookup.Instance) *lookup.Instance {
		if prev != nil {
			inst = prev(inst)
		}
		return inst.Bind(sel, src)
	}}
}

func (o overrideSpec) apply(inst *lookup.Instance) *lookup.Instance {
	if o.fn == nil {
		return inst
	}
	return o.fn(inst)
}

// Param returns the type of P for selecting a constructor parameter.
func Param[P any]() reflect.Type {
	return reflect.TypeFor[P]()
}

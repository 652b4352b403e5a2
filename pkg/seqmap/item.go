package seqmap

import (
	"github.com/zjrosen/seqmap/pkg/lookup"
)

// itemRecord is one declared sequence entry. Its position in the builder's
// slice is its position in every view.
type itemRecord struct {
	id        string // registration name in the lookup registry
	profiling ProfileMask
	inst      *lookup.Instance
}

func (r *itemRecord) String() string { return r.inst.String() }

// pendingItem is the item whose declaration is still open: profile bits and
// overrides accumulate on it until the next item or End flushes it.
type pendingItem struct {
	inst      *lookup.Instance
	profiling ProfileMask
	overrides overrideSpec
}

// flush applies the overrides to a copy of the instance and freezes the item
// under id.
func (p *pendingItem) flush(id string) (*itemRecord, error) {
	inst := p.overrides.apply(p.inst.Clone())
	if err := inst.Err(); err != nil {
		return nil, err
	}
	return &itemRecord{id: id, profiling: p.profiling, inst: inst.Named(id)}, nil
}

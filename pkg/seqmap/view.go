package seqmap

import (
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/seqmap/internal/tracing"
	"github.com/zjrosen/seqmap/pkg/lookup"
)

// Seq is the lazily produced view of a sequence. Every iteration resolves the
// selected items again, in declaration order; a failed lookup is yielded as
// the zero value with the lookup service's error.
type Seq[T any] func(yield func(T, error) bool)

// view selects the records visible in one profile.
type view[T any] struct {
	seq     *Sequence[T]
	profile string
	active  ProfileMask // profile bit | default bit
}

func (v *view[T]) selects(rec *itemRecord) bool {
	return rec.profiling.Intersects(v.active)
}

// bind returns the view evaluated through r.
func (v *view[T]) bind(r lookup.Resolver) Seq[T] {
	return func(yield func(T, error) bool) {
		ctx, span := v.seq.tracer.Start(r.Context(), tracing.SpanSequenceView,
			trace.WithAttributes(
				attribute.String(tracing.AttrSeqContract, v.seq.contract.String()),
				attribute.String(tracing.AttrSeqName, v.seq.name),
				attribute.String(tracing.AttrSeqProfile, v.profile),
				attribute.String(tracing.AttrSeqScope, r.Profile()),
			))
		defer span.End()
		scoped := lookup.WithContext(r, ctx)

		yielded := 0
		defer func() { span.SetAttributes(attribute.Int(tracing.AttrSeqItems, yielded)) }()

		for _, rec := range v.seq.records {
			if !v.selects(rec) {
				continue
			}
			item, err := lookup.Get[T](scoped, rec.id)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			yielded++
			if !yield(item, err) {
				return
			}
		}
	}
}

func (v *view[T]) instance() *lookup.Instance {
	desc := fmt.Sprintf("sequence of %s", v.seq.contract)
	if v.profile != DefaultProfile {
		desc = fmt.Sprintf("sequence of %s for %s", v.seq.contract, v.profile)
	}
	inst := lookup.Factory(desc, func(r lookup.Resolver) (any, error) {
		return v.bind(r), nil
	})
	if v.seq.name != "" {
		return inst.Named(v.seq.name)
	}
	return inst.Keyed(v.seq.key)
}

// Resolve returns the view of the sequence of T named name, or of the
// contract's default sequence when name is empty, in r's profile.
func Resolve[T any](r lookup.Resolver, name string) (Seq[T], error) {
	return lookup.Get[Seq[T]](r, name)
}

// ResolveAll chains the views of every sequence of T registered in r's
// profile, in registration order.
func ResolveAll[T any](r lookup.Resolver) (Seq[T], error) {
	views, err := lookup.GetAll[Seq[T]](r)
	if err != nil {
		return nil, err
	}
	return func(yield func(T, error) bool) {
		for _, v := range views {
			stopped := false
			v(func(item T, err error) bool {
				if !yield(item, err) {
					stopped = true
					return false
				}
				return true
			})
			if stopped {
				return
			}
		}
	}, nil
}

// Collect drains s. It stops at the first error.
func Collect[T any](s Seq[T]) ([]T, error) {
	var out []T
	if s == nil {
		return out, nil
	}
	var failure error
	s(func(item T, err error) bool {
		if err != nil {
			failure = err
			return false
		}
		out = append(out, item)
		return true
	})
	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func seqType[T any]() reflect.Type {
	return reflect.TypeFor[Seq[T]]()
}

package seqmap

import (
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option configures a sequence declaration.
type Option func(*options)

type options struct {
	newID  func() string
	tracer trace.Tracer
}

func defaultOptions() options {
	return options{
		newID:  uuid.NewString,
		tracer: noop.NewTracerProvider().Tracer("seqmap"),
	}
}

// WithIDGenerator replaces the generator of item and view registration keys.
// Keys must be unique within a registry.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithTracer records a span for every enumeration of the sequence's views.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

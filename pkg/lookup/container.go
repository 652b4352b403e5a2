package lookup

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/seqmap/internal/cachemanager"
	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/internal/tracing"
)

// Resolver produces registered values. The resolving scope is passed to
// factories so that nested lookups honour the active profile.
type Resolver interface {
	// Resolve returns the registration of contract named name, or the
	// contract's default when name is empty.
	Resolve(contract reflect.Type, name string) (any, error)
	// ResolveAll returns every registration of contract visible in scope.
	ResolveAll(contract reflect.Type) ([]any, error)
	// Profile returns the active profile, empty for the root scope.
	Profile() string
	// Context returns the context of the current resolution.
	Context() context.Context
}

// Get resolves contract T.
func Get[T any](r Resolver, name string) (T, error) {
	var zero T
	v, err := r.Resolve(reflect.TypeFor[T](), name)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, reflect.TypeFor[T]())
	}
	return t, nil
}

// GetAll resolves every registration of contract T.
func GetAll[T any](r Resolver) ([]T, error) {
	values, err := r.ResolveAll(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(values))
	for _, v := range values {
		t, _ := v.(T)
		out = append(out, t)
	}
	return out, nil
}

// Option configures a Container.
type Option func(*options)

type options struct {
	tracer       trace.Tracer
	singletons   cachemanager.CacheManager[string, any]
	singletonTTL time.Duration
}

// WithTracer traces every resolution with t.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithSingletonCache stores singleton instances in cache, expiring them
// after ttl (cachemanager.NoExpiration keeps them for the container's life).
func WithSingletonCache(cache cachemanager.CacheManager[string, any], ttl time.Duration) Option {
	return func(o *options) {
		o.singletons = cache
		o.singletonTTL = ttl
	}
}

// Container resolves registrations of a Registry within one scope.
// It is safe for concurrent use.
type Container struct {
	registry     *Registry
	profile      string
	tracer       trace.Tracer
	singletons   *cachemanager.ReadThroughCache[string, any, buildRequest]
	singletonTTL time.Duration
}

type buildRequest struct {
	s        *session
	e        *entry
	contract reflect.Type
}

// NewContainer creates a root-scope container. It fails when the registry
// recorded registration errors.
func NewContainer(r *Registry, opts ...Option) (*Container, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidRegistry)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}

	o := options{singletonTTL: cachemanager.NoExpiration}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("lookup")
	}
	if o.singletons == nil {
		o.singletons = cachemanager.NewInMemoryCacheManager[string, any]("singletons", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	}

	return &Container{
		registry: r.root,
		tracer:   o.tracer,
		singletons: cachemanager.NewReadThroughCache[string, any, buildRequest](o.singletons, func(_ context.Context, req buildRequest) (any, error) {
			return req.s.build(req.e.inst, req.contract)
		}),
		singletonTTL: o.singletonTTL,
	}, nil
}

// ForProfile returns a container resolving within the named profile. The
// empty name is the root scope. Singletons are shared with c.
func (c *Container) ForProfile(name string) *Container {
	nested := *c
	nested.profile = name
	return &nested
}

// Profile implements Resolver.
func (c *Container) Profile() string { return c.profile }

// Context implements Resolver.
func (c *Container) Context() context.Context { return context.Background() }

// Resolve implements Resolver.
func (c *Container) Resolve(contract reflect.Type, name string) (any, error) {
	return c.ResolveContext(context.Background(), contract, name)
}

// ResolveContext resolves contract under ctx, which becomes the parent of
// the resolution spans and is visible to factories via Resolver.Context.
func (c *Container) ResolveContext(ctx context.Context, contract reflect.Type, name string) (any, error) {
	return c.newSession(ctx).Resolve(contract, name)
}

// ResolveAll implements Resolver.
func (c *Container) ResolveAll(contract reflect.Type) ([]any, error) {
	return c.newSession(context.Background()).ResolveAll(contract)
}

func (c *Container) newSession(ctx context.Context) *session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{c: c, ctx: ctx}
}

// WithContext returns a resolver that resolves like r under ctx, so the
// spans of its lookups become children of ctx's span. Resolvers other than
// containers and factory scopes are returned unchanged.
func WithContext(r Resolver, ctx context.Context) Resolver {
	switch v := r.(type) {
	case *Container:
		return v.newSession(ctx)
	case *session:
		if ctx == nil {
			return v
		}
		return &session{c: v.c, ctx: ctx, path: v.path}
	default:
		return r
	}
}

type resolutionKey struct {
	contract reflect.Type
	name     string
	scope    string
}

func (k resolutionKey) String() string {
	if k.scope == "" {
		return fmt.Sprintf("%s[%s]", k.contract, k.name)
	}
	return fmt.Sprintf("%s[%s]@%s", k.contract, k.name, k.scope)
}

var (
	typeIDs    sync.Map
	nextTypeID atomic.Uint64
)

// typeID numbers reflect types by identity. Distinct types may share a
// String form when their packages share a name.
func typeID(t reflect.Type) uint64 {
	if id, ok := typeIDs.Load(t); ok {
		return id.(uint64)
	}
	id, _ := typeIDs.LoadOrStore(t, nextTypeID.Add(1))
	return id.(uint64)
}

// cacheKey identifies a singleton build.
func (k resolutionKey) cacheKey() string {
	return fmt.Sprintf("%d:%s", typeID(k.contract), k)
}

// session is one resolution call chain. It carries the path for cycle
// detection and the span context of the enclosing resolution.
type session struct {
	c    *Container
	ctx  context.Context
	path []resolutionKey
}

func (s *session) Profile() string          { return s.c.profile }
func (s *session) Context() context.Context { return s.ctx }

func (s *session) Resolve(contract reflect.Type, name string) (any, error) {
	if contract == nil {
		return nil, fmt.Errorf("%w: nil contract", ErrNotRegistered)
	}
	e, ok := s.c.registry.find(s.c.profile, contract, name)
	if !ok {
		err := fmt.Errorf("%w: %s named %q in profile %q", ErrNotRegistered, contract, name, s.c.profile)
		log.Debug(log.CatLookup, "resolution failed", "contract", contract, "name", name, "profile", s.c.profile)
		return nil, err
	}
	return s.resolveEntry(contract, e)
}

func (s *session) ResolveAll(contract reflect.Type) ([]any, error) {
	if contract == nil {
		return nil, fmt.Errorf("%w: nil contract", ErrNotRegistered)
	}
	entries := s.c.registry.findAll(s.c.profile, contract)
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		v, err := s.resolveEntry(contract, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *session) resolveEntry(contract reflect.Type, e *entry) (any, error) {
	key := resolutionKey{contract: contract, name: e.name, scope: e.scope}
	for _, seen := range s.path {
		if seen == key {
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, s.describePath(key))
		}
	}

	ctx, span := s.c.tracer.Start(s.ctx, tracing.SpanLookupResolve,
		trace.WithAttributes(
			attribute.String(tracing.AttrLookupContract, contract.String()),
			attribute.String(tracing.AttrLookupName, e.name),
			attribute.String(tracing.AttrLookupProfile, s.c.profile),
			attribute.String(tracing.AttrLookupLifecycle, e.inst.Lifecycle().String()),
		))
	defer span.End()

	child := &session{c: s.c, ctx: ctx, path: append(append([]resolutionKey(nil), s.path...), key)}

	var (
		v   any
		err error
	)
	if e.inst.Lifecycle() == Singleton {
		v, err = s.c.singletons.Get(ctx, key.cacheKey(), buildRequest{s: child, e: e, contract: contract}, s.c.singletonTTL)
	} else {
		v, err = child.build(e.inst, contract)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return v, nil
}

func (s *session) describePath(last resolutionKey) string {
	parts := make([]string, 0, len(s.path)+1)
	for _, k := range s.path {
		parts = append(parts, k.String())
	}
	parts = append(parts, last.String())
	return strings.Join(parts, " -> ")
}

// build produces a value from inst and checks it satisfies target.
func (s *session) build(inst *Instance, target reflect.Type) (any, error) {
	var (
		v   any
		err error
	)
	switch inst.kind {
	case kindValue:
		v = inst.value
	case kindRef:
		return s.Resolve(target, inst.ref)
	case kindFactory:
		v, err = inst.factory(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", inst, err)
		}
	case kindConstructor:
		v, err = s.construct(inst)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown instance kind %d", ErrInvalidRegistration, inst.kind)
	}

	if v == nil {
		if !nilable(target) {
			return nil, fmt.Errorf("%w: %s produced nil for %s", ErrTypeMismatch, inst, target)
		}
		return nil, nil
	}
	if !reflect.TypeOf(v).AssignableTo(target) {
		return nil, fmt.Errorf("%w: %s produced %T, want %s", ErrTypeMismatch, inst, v, target)
	}
	return v, nil
}

func (s *session) construct(inst *Instance) (any, error) {
	ft := inst.fn.Type()
	args := make([]reflect.Value, ft.NumIn())

	var obj reflect.Value
	if inst.paramObject {
		obj = reflect.New(ft.In(0)).Elem()
	}

	for _, p := range inst.params {
		arg, err := s.argument(inst, p)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %s: %w", inst, p, err)
		}
		if inst.paramObject {
			obj.Field(p.field).Set(arg)
		} else {
			args[p.index] = arg
		}
	}
	if inst.paramObject {
		args[0] = obj
	}

	out := inst.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, fmt.Errorf("%s: %w", inst, out[1].Interface().(error))
	}
	if isNilValue(out[0]) {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func (s *session) argument(inst *Instance, p Param) (reflect.Value, error) {
	if b, ok := inst.binding(p); ok {
		return b.Source.produce(s, p.Type)
	}
	switch p.Type {
	case resolverType:
		return reflect.ValueOf(Resolver(s)), nil
	case contextType:
		return reflect.ValueOf(s.ctx), nil
	}
	v, err := s.Resolve(p.Type, "")
	if err != nil {
		return reflect.Value{}, err
	}
	return valueFor(v, p.Type)
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

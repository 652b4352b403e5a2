package lookup

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/seqmap/internal/log"
)

// Registrar declares registrations. *Registry implements it for the root
// scope and for every profile scope.
type Registrar interface {
	// Add appends inst to the contract's registrations.
	Add(contract reflect.Type, inst *Instance)
	// Use appends inst and makes it the contract's default.
	Use(contract reflect.Type, inst *Instance)
	// Profile runs configure against the registrar of the named profile.
	// The empty name is the root scope.
	Profile(name string, configure func(Registrar))
}

// Add registers inst for contract T.
func Add[T any](r Registrar, inst *Instance) {
	r.Add(reflect.TypeFor[T](), inst)
}

// Use registers inst as the default for contract T.
func Use[T any](r Registrar, inst *Instance) {
	r.Use(reflect.TypeFor[T](), inst)
}

type entry struct {
	name     string
	inst     *Instance
	seq      uint64
	explicit bool // name given by the caller rather than generated
	scope    string
}

type family struct {
	entries []*entry
	byName  map[string]*entry
	def     *entry
}

// registryState is shared by the root registry and its profiles.
type registryState struct {
	mu       sync.RWMutex
	seq      uint64
	errs     []error
	profiles map[string]*Registry
}

// Registry stores registrations for the root scope or one profile.
type Registry struct {
	state    *registryState
	profile  string
	root     *Registry
	families map[reflect.Type]*family
}

// NewRegistry creates an empty root registry.
func NewRegistry() *Registry {
	r := &Registry{
		state:    &registryState{profiles: make(map[string]*Registry)},
		families: make(map[reflect.Type]*family),
	}
	r.root = r
	return r
}

// Add implements Registrar.
func (r *Registry) Add(contract reflect.Type, inst *Instance) {
	r.register(contract, inst, false)
}

// Use implements Registrar.
func (r *Registry) Use(contract reflect.Type, inst *Instance) {
	r.register(contract, inst, true)
}

// Profile implements Registrar. Profiles are flat: calling Profile on a
// profile registry configures the named profile of the same root.
func (r *Registry) Profile(name string, configure func(Registrar)) {
	if configure == nil {
		return
	}
	if name == "" {
		configure(r.root)
		return
	}

	r.state.mu.Lock()
	p, ok := r.state.profiles[name]
	if !ok {
		p = &Registry{
			state:    r.state,
			profile:  name,
			root:     r.root,
			families: make(map[reflect.Type]*family),
		}
		r.state.profiles[name] = p
	}
	r.state.mu.Unlock()

	configure(p)
}

// Scope returns the profile name of this registry, empty for the root.
func (r *Registry) Scope() string { return r.profile }

// Profiles lists the profiles that received at least one Profile call, sorted.
func (r *Registry) Profiles() []string {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	names := make([]string, 0, len(r.state.profiles))
	for name := range r.state.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many registrations contract has in this scope.
func (r *Registry) Len(contract reflect.Type) int {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	if f, ok := r.families[contract]; ok {
		return len(f.entries)
	}
	return 0
}

// Err joins every registration error recorded so far.
func (r *Registry) Err() error {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return errors.Join(r.state.errs...)
}

func (r *Registry) register(contract reflect.Type, inst *Instance, asDefault bool) {
	if err := validateRegistration(contract, inst); err != nil {
		r.state.mu.Lock()
		r.state.errs = append(r.state.errs, err)
		r.state.mu.Unlock()
		log.ErrorErr(log.CatLookup, "rejected registration", err, "profile", r.profile)
		return
	}

	name, explicit := inst.Name(), !inst.keyed
	if name == "" {
		name, explicit = uuid.NewString(), false
	}

	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	r.state.seq++
	e := &entry{name: name, inst: inst, seq: r.state.seq, explicit: explicit, scope: r.profile}

	f, ok := r.families[contract]
	if !ok {
		f = &family{byName: make(map[string]*entry)}
		r.families[contract] = f
	}
	if old, ok := f.byName[name]; ok {
		// Re-registering a name replaces it in place.
		for i, existing := range f.entries {
			if existing == old {
				f.entries[i] = e
				break
			}
		}
	} else {
		f.entries = append(f.entries, e)
	}
	f.byName[name] = e
	if asDefault {
		f.def = e
	}

	log.Debug(log.CatLookup, "registered", "contract", contract, "name", name, "profile", r.profile, "default", asDefault, "instance", inst)
}

func validateRegistration(contract reflect.Type, inst *Instance) error {
	switch {
	case contract == nil:
		return fmt.Errorf("%w: nil contract", ErrInvalidRegistration)
	case inst == nil:
		return fmt.Errorf("%w: nil instance for %s", ErrInvalidRegistration, contract)
	case inst.Err() != nil:
		return fmt.Errorf("%w: %s named %q: %w", ErrInvalidRegistration, contract, inst.Name(), inst.Err())
	case inst.Returns() != nil && !inst.Returns().AssignableTo(contract):
		return fmt.Errorf("%w: %s does not produce %s", ErrTypeMismatch, inst, contract)
	case inst.kind == kindValue && inst.value == nil && !nilable(contract):
		return fmt.Errorf("%w: nil value for %s", ErrTypeMismatch, contract)
	}
	return nil
}

// find locates the entry for (contract, name) as seen from profile.
// An empty name selects the default.
func (r *Registry) find(profile string, contract reflect.Type, name string) (*entry, bool) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	rootFam, profFam := r.root.families[contract], r.profileFamily(profile, contract)
	if name == "" {
		name = defaultName(rootFam, profFam)
		if name == "" {
			return nil, false
		}
	}
	if profFam != nil {
		if e, ok := profFam.byName[name]; ok {
			return e, true
		}
	}
	if rootFam != nil {
		if e, ok := rootFam.byName[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// findAll returns every registration of contract visible from profile:
// root order with same-named profile entries substituted, then entries only
// the profile has.
func (r *Registry) findAll(profile string, contract reflect.Type) []*entry {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	rootFam, profFam := r.root.families[contract], r.profileFamily(profile, contract)
	var out []*entry
	if rootFam != nil {
		for _, e := range rootFam.entries {
			if profFam != nil {
				if shadow, ok := profFam.byName[e.name]; ok {
					out = append(out, shadow)
					continue
				}
			}
			out = append(out, e)
		}
	}
	if profFam != nil {
		for _, e := range profFam.entries {
			if rootFam != nil {
				if _, ok := rootFam.byName[e.name]; ok {
					continue
				}
			}
			out = append(out, e)
		}
	}
	return out
}

// profileFamily must be called with state.mu held.
func (r *Registry) profileFamily(profile string, contract reflect.Type) *family {
	if profile == "" {
		return nil
	}
	p, ok := r.state.profiles[profile]
	if !ok {
		return nil
	}
	return p.families[contract]
}

// defaultName picks the most recent explicit default in the scope chain, then
// the most recent unnamed registration, then the most recent registration.
func defaultName(fams ...*family) string {
	var best *entry
	newer := func(e *entry) {
		if e != nil && (best == nil || e.seq > best.seq) {
			best = e
		}
	}

	for _, f := range fams {
		if f != nil {
			newer(f.def)
		}
	}
	if best != nil {
		return best.name
	}

	for _, f := range fams {
		if f == nil {
			continue
		}
		for _, e := range f.entries {
			if !e.explicit {
				newer(e)
			}
		}
	}
	if best != nil {
		return best.name
	}

	for _, f := range fams {
		if f == nil {
			continue
		}
		for _, e := range f.entries {
			newer(e)
		}
	}
	if best != nil {
		return best.name
	}
	return ""
}

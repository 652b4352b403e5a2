package manifest

import (
	"fmt"
	"reflect"

	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/pkg/lookup"
	"github.com/zjrosen/seqmap/pkg/seqmap"
)

var (
	stepType   = reflect.TypeFor[Step]()
	stringType = reflect.TypeFor[string]()
)

// Apply registers the manifest's components and steps with r and declares
// its sequences, in file order. It stops at the first error; registrations
// made before it are kept.
func (m *Manifest) Apply(r lookup.Registrar, opts ...seqmap.Option) ([]*seqmap.Sequence[Step], error) {
	for _, c := range m.Components {
		inst := lookup.Value(c.Value).Named(c.Name)
		registerIn(r, c.Profiles, func(reg lookup.Registrar) {
			if c.Default {
				lookup.Use[string](reg, inst)
			} else {
				lookup.Add[string](reg, inst)
			}
		})
	}

	for _, s := range m.Steps {
		inst, err := buildInstance(s.Kind, s.Args)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
		inst.Named(s.Name)
		if s.Singleton {
			inst.Singleton()
		}
		registerIn(r, s.Profiles, func(reg lookup.Registrar) {
			lookup.Add[Step](reg, inst)
		})
	}

	seqs := make([]*seqmap.Sequence[Step], 0, len(m.Sequences))
	for i, s := range m.Sequences {
		seq, err := declare(r, s, opts)
		if err != nil {
			if s.Name != "" {
				return nil, fmt.Errorf("sequence %q: %w", s.Name, err)
			}
			return nil, fmt.Errorf("sequence %d: %w", i+1, err)
		}
		seqs = append(seqs, seq)
	}

	log.Debug(log.CatManifest, "manifest applied", "sequences", len(seqs))
	return seqs, nil
}

func registerIn(r lookup.Registrar, profiles []string, register func(lookup.Registrar)) {
	if len(profiles) == 0 {
		register(r)
		return
	}
	for _, p := range profiles {
		r.Profile(p, register)
	}
}

func declare(r lookup.Registrar, s Sequence, opts []seqmap.Option) (*seqmap.Sequence[Step], error) {
	start := seqmap.ForSequenceOf[Step](r, opts...)

	var named seqmap.SetNameOrNextItemStep[Step]
	if s.Mode == "use" {
		named = start.UseSequence()
	} else {
		named = start.AddSequence()
	}

	var next seqmap.SetNextItemStep[Step] = named
	if s.Name != "" {
		next = named.Named(s.Name)
	}

	for _, it := range s.Items {
		switch {
		case it.Label != "":
			next = next.NextIsValue(Label(it.Label), it.Profiles...)
		case it.Ref != "":
			next = next.NextIsNamed(it.Ref, it.Profiles...)
		default:
			ctor, err := kindCtor(it.Kind)
			if err != nil {
				return nil, err
			}
			step := next.AddNext(ctor, it.Profiles...)
			for _, name := range sortedKeys(it.Args) {
				step, err = bindArg(step.CtorNamed(paramType(ctor, name), name), it.Args[name])
				if err != nil {
					return nil, fmt.Errorf("arg %q: %w", name, err)
				}
			}
			next = step
		}
	}
	return next.Finish()
}

func bindArg(step seqmap.SetCtorArgStep[Step], a Arg) (seqmap.ChooseCtorParamOrSetNextItemStep[Step], error) {
	switch {
	case a.Value != nil:
		return step.IsValue(a.Value), nil
	case a.Ref != "":
		return step.IsNamedInstance(a.Ref), nil
	case a.Type != "":
		t, err := contractOf(a.Type)
		if err != nil {
			return nil, err
		}
		return step.IsType(t), nil
	case a.Label != "":
		text := a.Label
		return step.IsBuiltBy(func() Step { return Label(text) }), nil
	default:
		inst, err := buildInstance(a.Kind, a.Args)
		if err != nil {
			return nil, err
		}
		return step.Is(inst), nil
	}
}

// buildInstance returns a constructor instance of kind with args bound.
func buildInstance(kind string, args map[string]Arg) (*lookup.Instance, error) {
	ctor, err := kindCtor(kind)
	if err != nil {
		return nil, err
	}
	inst := lookup.Constructor(ctor)
	for _, name := range sortedKeys(args) {
		src, err := argSource(args[name])
		if err != nil {
			return nil, fmt.Errorf("arg %q: %w", name, err)
		}
		inst.Bind(lookup.ParamSelector{Name: name}, src)
	}
	if err := inst.Err(); err != nil {
		return nil, err
	}
	return inst, nil
}

func argSource(a Arg) (lookup.ArgSource, error) {
	switch {
	case a.Value != nil:
		return lookup.Literal(a.Value), nil
	case a.Ref != "":
		return lookup.NamedInstance(a.Ref), nil
	case a.Type != "":
		t, err := contractOf(a.Type)
		if err != nil {
			return nil, err
		}
		return lookup.OfType(t), nil
	case a.Label != "":
		return lookup.FromInstance(lookup.Value(Label(a.Label))), nil
	default:
		inst, err := buildInstance(a.Kind, a.Args)
		if err != nil {
			return nil, err
		}
		return lookup.FromInstance(inst), nil
	}
}

func kindCtor(kind string) (any, error) {
	ctor, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidManifest, kind)
	}
	return ctor, nil
}

func contractOf(name string) (reflect.Type, error) {
	switch name {
	case "string":
		return stringType, nil
	case "step":
		return stepType, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidManifest, name)
	}
}

// paramType returns the type of ctor's parameter name, or nil when it has
// none so that binding reports the unknown parameter.
func paramType(ctor any, name string) reflect.Type {
	for _, p := range lookup.Constructor(ctor).Params() {
		if p.Name == name {
			return p.Type
		}
	}
	return nil
}

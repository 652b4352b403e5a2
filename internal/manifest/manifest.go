// Package manifest declares lookup components and step sequences from a YAML
// file and replays them through the seqmap builder.
//
//	components:
//	  - name: greeting
//	    value: hello
//	    profiles: [Dog]
//	steps:
//	  - name: bark
//	    kind: label
//	    args:
//	      text: {value: Woof}
//	sequences:
//	  - name: pipeline
//	    mode: use
//	    items:
//	      - label: A
//	      - ref: bark
//	        profiles: [Dog]
//	      - kind: prefixed
//	        args:
//	          prefix: {value: ">> "}
//	          text: {ref: greeting}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/seqmap/internal/log"
)

// ErrInvalidManifest is wrapped by every load and validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a parsed manifest file.
type Manifest struct {
	Components []Component `yaml:"components"`
	Steps      []StepDecl  `yaml:"steps"`
	Sequences  []Sequence  `yaml:"sequences"`
}

// Component is a string value registered under its name. Constructor
// parameters of type string that no argument binds resolve the default one.
type Component struct {
	Name     string   `yaml:"name"`
	Contract string   `yaml:"contract"` // only "string" is supported
	Value    string   `yaml:"value"`
	Default  bool     `yaml:"default"`
	Profiles []string `yaml:"profiles"`
}

// StepDecl is a named step that sequence items and arguments can reference.
type StepDecl struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Args      map[string]Arg `yaml:"args"`
	Singleton bool           `yaml:"singleton"` // built once per container
	Profiles  []string       `yaml:"profiles"`
}

// Sequence declares one sequence of steps.
type Sequence struct {
	Name  string `yaml:"name"`
	Mode  string `yaml:"mode"` // add (default) or use
	Items []Item `yaml:"items"`
}

// Item is one sequence entry. Exactly one of Label, Ref or Kind is set.
type Item struct {
	Label    string         `yaml:"label"`
	Ref      string         `yaml:"ref"`
	Kind     string         `yaml:"kind"`
	Args     map[string]Arg `yaml:"args"`
	Profiles []string       `yaml:"profiles"`
}

// Arg binds one constructor parameter. Exactly one source is set.
type Arg struct {
	Value any            `yaml:"value"`
	Ref   string         `yaml:"ref"`   // named component or step
	Type  string         `yaml:"type"`  // "string" or "step": the contract's default
	Kind  string         `yaml:"kind"`  // nested step built in place
	Args  map[string]Arg `yaml:"args"`  // arguments of Kind
	Label string         `yaml:"label"` // shorthand for a label step
}

// Load reads and validates the manifest at path in fsys.
func Load(fsys fs.FS, path string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CatManifest, "manifest loaded",
		"path", path,
		"components", len(m.Components),
		"steps", len(m.Steps),
		"sequences", len(m.Sequences))
	return m, nil
}

// Parse decodes and validates a manifest. Unknown keys are rejected.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the shape of every declaration. References are only
// checked when the views are resolved.
func (m *Manifest) Validate() error {
	var errs []error

	for i, c := range m.Components {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Errorf("component %d: name is required", i+1))
		case c.Contract != "" && c.Contract != "string":
			errs = append(errs, fmt.Errorf("component %q: unsupported contract %q", c.Name, c.Contract))
		}
	}
	for i, s := range m.Steps {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("step %d: name is required", i+1))
			continue
		}
		if err := validateKind(s.Kind, s.Args); err != nil {
			errs = append(errs, fmt.Errorf("step %q: %w", s.Name, err))
		}
	}

	seqNames := make(map[string]bool)
	for i, s := range m.Sequences {
		where := fmt.Sprintf("sequence %d", i+1)
		if s.Name != "" {
			where = fmt.Sprintf("sequence %q", s.Name)
			if seqNames[s.Name] {
				errs = append(errs, fmt.Errorf("%s: declared twice", where))
			}
			seqNames[s.Name] = true
		}
		if s.Mode != "" && s.Mode != "add" && s.Mode != "use" {
			errs = append(errs, fmt.Errorf("%s: mode must be add or use, got %q", where, s.Mode))
		}
		for j, it := range s.Items {
			if err := it.validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s item %d: %w", where, j+1, err))
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	return nil
}

// Profiles returns every profile the manifest mentions, sorted.
func (m *Manifest) Profiles() []string {
	seen := make(map[string]bool)
	add := func(ps []string) {
		for _, p := range ps {
			if p != "" {
				seen[p] = true
			}
		}
	}
	for _, c := range m.Components {
		add(c.Profiles)
	}
	for _, s := range m.Steps {
		add(s.Profiles)
	}
	for _, s := range m.Sequences {
		for _, it := range s.Items {
			add(it.Profiles)
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (it Item) validate() error {
	set := 0
	for _, s := range []string{it.Label, it.Ref, it.Kind} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of label, ref or kind is required")
	}
	if it.Kind != "" {
		return validateKind(it.Kind, it.Args)
	}
	if len(it.Args) > 0 {
		return errors.New("args require kind")
	}
	return nil
}

func validateKind(kind string, args map[string]Arg) error {
	if _, ok := kinds[kind]; !ok {
		return fmt.Errorf("unknown kind %q (known: %v)", kind, Kinds())
	}
	for _, name := range sortedKeys(args) {
		if err := args[name].validate(); err != nil {
			return fmt.Errorf("arg %q: %w", name, err)
		}
	}
	return nil
}

func (a Arg) validate() error {
	set := 0
	if a.Value != nil {
		set++
	}
	for _, s := range []string{a.Ref, a.Type, a.Kind, a.Label} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of value, ref, type, kind or label is required")
	}
	if a.Type != "" && a.Type != "string" && a.Type != "step" {
		return fmt.Errorf("type must be string or step, got %q", a.Type)
	}
	if a.Kind != "" {
		return validateKind(a.Kind, a.Args)
	}
	if len(a.Args) > 0 {
		return errors.New("args require kind")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package app wires a manifest into a lookup container and answers the
// questions the CLI asks about it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/zjrosen/seqmap/internal/cachemanager"
	"github.com/zjrosen/seqmap/internal/config"
	"github.com/zjrosen/seqmap/internal/log"
	"github.com/zjrosen/seqmap/internal/manifest"
	"github.com/zjrosen/seqmap/internal/presentation"
	"github.com/zjrosen/seqmap/internal/tracing"
	"github.com/zjrosen/seqmap/pkg/lookup"
	"github.com/zjrosen/seqmap/pkg/seqmap"
)

// ErrUnknownSequence is returned when a command names a sequence the
// manifest does not declare.
var ErrUnknownSequence = errors.New("unknown sequence")

// App is a loaded manifest ready for resolution.
type App struct {
	cfg       config.Config
	manifest  *manifest.Manifest
	container *lookup.Container
	sequences []*seqmap.Sequence[manifest.Step]
	provider  *tracing.Provider
}

// Open loads cfg.Manifest from fsys and declares it in a fresh registry.
func Open(cfg config.Config, fsys fs.FS) (*App, error) {
	m, err := manifest.Load(fsys, cfg.Manifest)
	if err != nil {
		return nil, err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	a, err := open(cfg, m, provider)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return a, nil
}

func open(cfg config.Config, m *manifest.Manifest, provider *tracing.Provider) (*App, error) {
	reg := lookup.NewRegistry()
	seqs, err := m.Apply(reg, seqmap.WithTracer(provider.Tracer()))
	if err != nil {
		return nil, err
	}

	ttl := cfg.Cache.SingletonTTL
	if ttl == 0 {
		ttl = cachemanager.NoExpiration
	}
	cleanup := cfg.Cache.CleanupInterval
	if cleanup == 0 {
		cleanup = cachemanager.DefaultCleanupInterval
	}
	cache := cachemanager.NewInMemoryCacheManager[string, any]("singletons", ttl, cleanup)

	c, err := lookup.NewContainer(reg,
		lookup.WithTracer(provider.Tracer()),
		lookup.WithSingletonCache(cache, ttl))
	if err != nil {
		return nil, err
	}

	log.Debug(log.CatConfig, "manifest opened",
		"manifest", cfg.Manifest,
		"sequences", len(seqs),
		"profiles", m.Profiles(),
		"tracing", provider.Enabled())
	return &App{cfg: cfg, manifest: m, container: c, sequences: seqs, provider: provider}, nil
}

// Close flushes and stops the tracer.
func (a *App) Close(ctx context.Context) error {
	return a.provider.Shutdown(ctx)
}

// Profiles returns every profile the manifest mentions.
func (a *App) Profiles() []string { return a.manifest.Profiles() }

// Views resolves the views of every sequence, or only the one named
// sequence, in each profile. Without profiles it uses the configured ones,
// and without those the default profile and every manifest profile.
// Resolution errors are reported per view.
func (a *App) Views(profiles []string, sequence string) ([]presentation.ViewDTO, error) {
	seqs, err := a.selectSequences(sequence)
	if err != nil {
		return nil, err
	}
	profiles = a.profilesOrDefault(profiles)

	var out []presentation.ViewDTO
	for _, seq := range seqs {
		for _, p := range profiles {
			dto := presentation.ViewDTO{Sequence: seq.Name(), Profile: p}
			items, err := a.resolve(seq, p)
			if err != nil {
				dto.Error = err.Error()
				log.ErrorErr(log.CatSeq, "view resolution failed", err, "sequence", seq.Name(), "profile", p)
			}
			dto.Items = items
			out = append(out, dto)
		}
	}
	return out, nil
}

// ProfileTable lists the bit and view contents of every profile of every
// sequence, or of the one named sequence.
func (a *App) ProfileTable(sequence string) ([]presentation.ProfileDTO, error) {
	seqs, err := a.selectSequences(sequence)
	if err != nil {
		return nil, err
	}
	var out []presentation.ProfileDTO
	for _, seq := range seqs {
		for _, pb := range seq.Profiles() {
			out = append(out, presentation.ProfileDTO{
				Sequence: seq.Name(),
				Profile:  pb.Name,
				Bit:      pb.Bit,
				Items:    seq.Describe(pb.Name),
			})
		}
	}
	return out, nil
}

// Diff compares the views of profiles from and to. An empty sequence name
// selects the contract's default sequence.
func (a *App) Diff(sequence, from, to string) ([]presentation.DiffLine, error) {
	if sequence != "" {
		if _, err := a.selectSequences(sequence); err != nil {
			return nil, err
		}
	}
	before, err := a.resolveNamed(sequence, from)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", from, err)
	}
	after, err := a.resolveNamed(sequence, to)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", to, err)
	}
	return presentation.DiffViews(before, after), nil
}

func (a *App) selectSequences(name string) ([]*seqmap.Sequence[manifest.Step], error) {
	if name == "" {
		return a.sequences, nil
	}
	for _, seq := range a.sequences {
		if seq.Name() == name {
			return []*seqmap.Sequence[manifest.Step]{seq}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
}

func (a *App) profilesOrDefault(profiles []string) []string {
	if len(profiles) > 0 {
		return profiles
	}
	if len(a.cfg.Profiles) > 0 {
		return a.cfg.Profiles
	}
	return append([]string{seqmap.DefaultProfile}, a.manifest.Profiles()...)
}

// resolve goes through the registered view for named sequences and through
// the sequence itself for unnamed ones, whose registration key is private.
func (a *App) resolve(seq *seqmap.Sequence[manifest.Step], profile string) ([]string, error) {
	if seq.Name() != "" {
		return a.resolveNamed(seq.Name(), profile)
	}
	return collect(seq.View(a.container.ForProfile(profile)))
}

func (a *App) resolveNamed(name, profile string) ([]string, error) {
	s, err := seqmap.Resolve[manifest.Step](a.container.ForProfile(profile), name)
	if err != nil {
		return nil, err
	}
	return collect(s)
}

func collect(s seqmap.Seq[manifest.Step]) ([]string, error) {
	steps, err := seqmap.Collect(s)
	if err != nil {
		return nil, err
	}
	return manifest.Labels(steps), nil
}

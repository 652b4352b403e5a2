package app

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/seqmap/internal/config"
	"github.com/zjrosen/seqmap/internal/manifest"
	"github.com/zjrosen/seqmap/internal/presentation"
	"github.com/zjrosen/seqmap/internal/tracing"
)

const testManifest = `
components:
  - name: greeting
    value: hello
    default: true
  - name: greeting
    value: woof
    profiles: [Dog]
steps:
  - name: bark
    kind: label
    args:
      text: {value: Woof}
sequences:
  - name: pets
    mode: use
    items:
      - label: A
      - ref: bark
        profiles: [Dog]
      - kind: prefixed
        args:
          prefix: {value: "> "}
          text: {ref: greeting}
      - label: C
        profiles: [Cat]
  - items:
      - label: X
      - ref: ghost
        profiles: [Owl]
`

func openTest(t *testing.T, mutate ...func(*config.Config)) *App {
	t.Helper()
	cfg := config.Defaults()
	for _, m := range mutate {
		m(&cfg)
	}
	fsys := fstest.MapFS{cfg.Manifest: {Data: []byte(testManifest)}}

	a, err := Open(cfg, fsys)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(t.Context()) })
	return a
}

func TestOpen_Errors(t *testing.T) {
	cfg := config.Defaults()

	_, err := Open(cfg, fstest.MapFS{})
	require.ErrorContains(t, err, "reading manifest")

	_, err = Open(cfg, fstest.MapFS{cfg.Manifest: {Data: []byte("sequences:\n  - mode: x\n")}})
	require.ErrorIs(t, err, manifest.ErrInvalidManifest)

	bad := cfg
	bad.Tracing.Enabled = true
	bad.Tracing.Exporter = "zipkin"
	_, err = Open(bad, fstest.MapFS{cfg.Manifest: {Data: []byte(testManifest)}})
	require.ErrorIs(t, err, tracing.ErrUnsupportedExporter)
}

func TestViews_AllProfiles(t *testing.T) {
	a := openTest(t)
	require.Equal(t, []string{"Cat", "Dog", "Owl"}, a.Profiles())

	views, err := a.Views(nil, "")
	require.NoError(t, err)
	require.Len(t, views, 8)

	byKey := make(map[string]presentation.ViewDTO)
	for _, v := range views {
		byKey[v.Sequence+"@"+v.Profile] = v
	}
	require.Equal(t, []string{"A", "> hello"}, byKey["pets@"].Items)
	require.Equal(t, []string{"A", "Woof", "> woof"}, byKey["pets@Dog"].Items)
	require.Equal(t, []string{"A", "> hello", "C"}, byKey["pets@Cat"].Items)
	require.Equal(t, []string{"A", "> hello"}, byKey["pets@Owl"].Items)
	require.Equal(t, []string{"X"}, byKey["@"].Items)
	require.Equal(t, []string{"X"}, byKey["@Dog"].Items)

	owl := byKey["@Owl"]
	require.Empty(t, owl.Items)
	require.Contains(t, owl.Error, "ghost")
}

func TestViews_SelectedProfilesAndSequence(t *testing.T) {
	a := openTest(t)

	views, err := a.Views([]string{"Dog"}, "pets")
	require.NoError(t, err)
	require.Equal(t, []presentation.ViewDTO{
		{Sequence: "pets", Profile: "Dog", Items: []string{"A", "Woof", "> woof"}},
	}, views)

	_, err = a.Views(nil, "missing")
	require.ErrorIs(t, err, ErrUnknownSequence)
}

func TestViews_ConfiguredProfiles(t *testing.T) {
	a := openTest(t, func(c *config.Config) { c.Profiles = []string{"Cat"} })

	views, err := a.Views(nil, "pets")
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "Cat", views[0].Profile)
}

func TestProfileTable(t *testing.T) {
	a := openTest(t)

	rows, err := a.ProfileTable("pets")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "", rows[0].Profile)
	require.Equal(t, uint(0), rows[0].Bit)
	require.Equal(t, "Dog", rows[1].Profile)
	require.Equal(t, uint(1), rows[1].Bit)
	require.Len(t, rows[1].Items, 3)
	require.Equal(t, "Cat", rows[2].Profile)
	require.Equal(t, uint(2), rows[2].Bit)

	all, err := a.ProfileTable("")
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestDiff(t *testing.T) {
	a := openTest(t)

	lines, err := a.Diff("pets", "", "Dog")
	require.NoError(t, err)
	require.Equal(t, []presentation.DiffLine{
		{Op: presentation.OpEqual, Text: "A"},
		{Op: presentation.OpDelete, Text: "> hello"},
		{Op: presentation.OpInsert, Text: "Woof"},
		{Op: presentation.OpInsert, Text: "> woof"},
	}, lines)

	def, err := a.Diff("", "", "Cat")
	require.NoError(t, err, "the used sequence is the default")
	require.Equal(t, presentation.OpInsert, def[len(def)-1].Op)
	require.Equal(t, "C", def[len(def)-1].Text)

	_, err = a.Diff("missing", "", "Dog")
	require.ErrorIs(t, err, ErrUnknownSequence)
}

func TestOpen_TracesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	a := openTest(t, func(c *config.Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = tracing.ExporterFile
		c.Tracing.FilePath = path
	})

	_, err := a.Views([]string{"Dog"}, "pets")
	require.NoError(t, err)
	require.NoError(t, a.Close(t.Context()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "seqmap.view")
	require.Contains(t, string(data), "lookup.resolve")
}

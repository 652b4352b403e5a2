package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/seqmap/internal/config"
	"github.com/zjrosen/seqmap/internal/presentation"
)

const petsManifest = `
sequences:
  - name: pets
    mode: use
    items:
      - label: A
      - label: H
        profiles: [Dog]
      - label: B
      - label: C
        profiles: [Cat]
`

type workspace struct {
	dir      string
	config   string
	manifest string
}

func newWorkspace(t *testing.T, configYAML string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:      dir,
		config:   filepath.Join(dir, "config.yaml"),
		manifest: filepath.Join(dir, "seqmap.yaml"),
	}
	require.NoError(t, os.WriteFile(ws.config, []byte(configYAML), 0o600))
	require.NoError(t, os.WriteFile(ws.manifest, []byte(petsManifest), 0o600))
	return ws
}

// run executes the root command with fresh global state.
func (ws workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)
	cfg = config.Config{}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", ws.config, "--manifest", ws.manifest}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestResolve_Plain(t *testing.T) {
	ws := newWorkspace(t, "output: plain\n")

	out, err := ws.run(t, "resolve")
	require.NoError(t, err)
	require.Equal(t,
		"pets@<default>: A, B\n"+
			"pets@Cat: A, B, C\n"+
			"pets@Dog: A, H, B\n",
		out)
}

func TestResolve_ProfilesAndJSON(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := ws.run(t, "resolve", "-p", "Dog", "-p", "Owl", "-s", "pets", "-o", "json")
	require.NoError(t, err)

	var views []presentation.ViewDTO
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Equal(t, []presentation.ViewDTO{
		{Sequence: "pets", Profile: "Dog", Items: []string{"A", "H", "B"}},
		{Sequence: "pets", Profile: "Owl", Items: []string{"A", "B"}},
	}, views)
}

func TestResolve_Table(t *testing.T) {
	ws := newWorkspace(t, "")

	out, err := ws.run(t, "resolve", "--no-color", "-p", "Dog")
	require.NoError(t, err)
	require.Contains(t, out, "SEQUENCE")
	require.Contains(t, out, "A H B")
	require.NotContains(t, out, "\x1b[")
}

func TestResolve_Errors(t *testing.T) {
	ws := newWorkspace(t, "")

	_, err := ws.run(t, "resolve", "-s", "missing")
	require.ErrorContains(t, err, `unknown sequence: "missing"`)

	_, err = ws.run(t, "resolve", "-o", "xml")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	bad := newWorkspace(t, "output: xml\n")
	_, err = bad.run(t, "resolve")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	missing := workspace{config: filepath.Join(t.TempDir(), "nope.yaml"), manifest: ws.manifest}
	_, err = missing.run(t, "resolve")
	require.ErrorContains(t, err, "does not exist")

	noManifest := workspace{config: ws.config, manifest: filepath.Join(t.TempDir(), "none.yaml")}
	_, err = noManifest.run(t, "resolve")
	require.ErrorContains(t, err, "reading manifest")
}

func TestProfiles(t *testing.T) {
	ws := newWorkspace(t, "output: plain\n")

	out, err := ws.run(t, "profiles")
	require.NoError(t, err)
	require.Equal(t,
		"pets <default> bit=0 items=2\n"+
			"pets Dog bit=1 items=3\n"+
			"pets Cat bit=2 items=3\n",
		out)
}

func TestDiff(t *testing.T) {
	ws := newWorkspace(t, "output: plain\n")

	out, err := ws.run(t, "diff", "Dog", "Cat")
	require.NoError(t, err)
	require.Equal(t, "--- Dog\n+++ Cat\n  A\n- H\n  B\n+ C\n", out)

	_, err = ws.run(t, "diff", "Dog")
	require.Error(t, err)
}

func TestUse(t *testing.T) {
	ws := newWorkspace(t, "# keep me\noutput: plain\n")

	out, err := ws.run(t, "use", "Dog")
	require.NoError(t, err)
	require.Contains(t, out, "default profiles set to Dog")

	data, err := os.ReadFile(ws.config)
	require.NoError(t, err)
	require.Contains(t, string(data), "# keep me")

	out, err = ws.run(t, "resolve")
	require.NoError(t, err)
	require.Equal(t, "pets@Dog: A, H, B\n", out)

	out, err = ws.run(t, "use", "--clear")
	require.NoError(t, err)
	require.Contains(t, out, "cleared")

	out, err = ws.run(t, "resolve")
	require.NoError(t, err)
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	_, err = ws.run(t, "use")
	require.ErrorContains(t, err, "at least one profile")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	ws := workspace{config: path, manifest: "seqmap.yaml"}

	out, err := ws.run(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))

	require.NoError(t, os.WriteFile(path, []byte("output: json\n"), 0o600))
	out, err = ws.run(t, "init")
	require.NoError(t, err)
	require.Contains(t, out, "already exists")

	_, err = ws.run(t, "init", "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfigTemplate(), string(data))
}

func TestDebugLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	ws := newWorkspace(t, "output: plain\nlog:\n  path: "+logPath+"\n")

	_, err := ws.run(t, "--debug", "resolve", "-p", "Dog")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "seqmap starting")
	require.Contains(t, string(data), "manifest loaded")
}

func TestWatchLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	changes := make(chan struct{})
	var out, errOut bytes.Buffer
	renders := 0
	render := func() error {
		renders++
		if renders == 2 {
			return errors.New("half-written manifest")
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, &out, &errOut, changes, render) }()

	changes <- struct{}{}
	changes <- struct{}{}
	close(changes)

	require.NoError(t, <-done)
	require.Equal(t, 3, renders)
	require.Equal(t, 2, strings.Count(out.String(), "manifest changed"))
	require.Equal(t, "error: half-written manifest\n", errOut.String())
}

func TestWatchLoop_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	var out bytes.Buffer
	err := watchLoop(ctx, &out, &out, make(chan struct{}), func() error { return nil })
	require.NoError(t, err)
}

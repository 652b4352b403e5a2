package manifest

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

const petsManifest = `
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
  - name: pipeline
    mode: use
    items:
      - label: A
      - ref: bark
        profiles: [Dog]
      - kind: prefixed
        args:
          prefix: {value: ">> "}
          text: {ref: greeting}
      - kind: wrapped
        profiles: [Dog, Cat]
        args:
          inner: {label: x}
          before: {value: "["}
          after: {value: "]"}
          times: {value: 2}
`

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{"seqmap.yaml": {Data: []byte(petsManifest)}}

	m, err := Load(fsys, "seqmap.yaml")
	require.NoError(t, err)
	require.Len(t, m.Components, 2)
	require.Len(t, m.Steps, 1)
	require.Len(t, m.Sequences, 1)
	require.Equal(t, "use", m.Sequences[0].Mode)
	require.Len(t, m.Sequences[0].Items, 4)
	require.Equal(t, 2, m.Sequences[0].Items[3].Args["times"].Value)
	require.Equal(t, []string{"Cat", "Dog"}, m.Profiles())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(fstest.MapFS{}, "seqmap.yaml")
	require.ErrorContains(t, err, "reading manifest")
}

func TestParse_Empty(t *testing.T) {
	m, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, m.Sequences)
	require.Empty(t, m.Profiles())
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse(strings.NewReader("sequences:\n  - items:\n      - lable: A\n"))
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "component without name",
			yaml:    "components:\n  - value: x\n",
			wantErr: "component 1: name is required",
		},
		{
			name:    "component with other contract",
			yaml:    "components:\n  - name: n\n    contract: int\n",
			wantErr: `unsupported contract "int"`,
		},
		{
			name:    "step without name",
			yaml:    "steps:\n  - kind: label\n",
			wantErr: "step 1: name is required",
		},
		{
			name:    "step of unknown kind",
			yaml:    "steps:\n  - name: s\n    kind: banner\n",
			wantErr: `unknown kind "banner"`,
		},
		{
			name:    "bad mode",
			yaml:    "sequences:\n  - mode: insert\n",
			wantErr: `mode must be add or use, got "insert"`,
		},
		{
			name:    "sequence declared twice",
			yaml:    "sequences:\n  - name: p\n  - name: p\n",
			wantErr: `sequence "p": declared twice`,
		},
		{
			name:    "item with two sources",
			yaml:    "sequences:\n  - items:\n      - label: A\n        ref: b\n",
			wantErr: "sequence 1 item 1: exactly one of label, ref or kind is required",
		},
		{
			name:    "item without source",
			yaml:    "sequences:\n  - items:\n      - profiles: [Dog]\n",
			wantErr: "exactly one of label, ref or kind is required",
		},
		{
			name:    "args without kind",
			yaml:    "sequences:\n  - items:\n      - label: A\n        args:\n          text: {value: x}\n",
			wantErr: "args require kind",
		},
		{
			name:    "arg without source",
			yaml:    "sequences:\n  - items:\n      - kind: label\n        args:\n          text: {}\n",
			wantErr: `arg "text": exactly one of value, ref, type, kind or label is required`,
		},
		{
			name:    "arg of unknown type",
			yaml:    "sequences:\n  - items:\n      - kind: label\n        args:\n          text: {type: int}\n",
			wantErr: `type must be string or step, got "int"`,
		},
		{
			name:    "nested arg of unknown kind",
			yaml:    "sequences:\n  - items:\n      - kind: wrapped\n        args:\n          inner: {kind: banner}\n",
			wantErr: `arg "inner": unknown kind "banner"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidManifest)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	_, err := Parse(strings.NewReader("steps:\n  - kind: label\nsequences:\n  - mode: x\n"))
	require.ErrorContains(t, err, "name is required")
	require.ErrorContains(t, err, "mode must be add or use")
}

func TestKinds(t *testing.T) {
	require.Equal(t, []string{"label", "prefixed", "wrapped"}, Kinds())
}

func TestLabels(t *testing.T) {
	steps := []Step{
		Label("A"),
		&Prefixed{Prefix: "> ", Text: "B"},
		&Wrapped{Inner: Label("c"), Before: "(", After: ")", Times: 3},
		&Wrapped{Before: "<", After: ">"},
		nil,
	}
	require.Equal(t, []string{"A", "> B", "(ccc)", "<>", "<nil>"}, Labels(steps))
}

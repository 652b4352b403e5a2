package presentation

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ViewDTO is one sequence view as seen from one profile.
type ViewDTO struct {
	Sequence string   `json:"sequence"`
	Profile  string   `json:"profile"`
	Items    []string `json:"items"`
	Error    string   `json:"error,omitempty"`
}

// ProfileDTO describes the bit a profile holds in one sequence.
type ProfileDTO struct {
	Sequence string   `json:"sequence"`
	Profile  string   `json:"profile"`
	Bit      uint     `json:"bit"`
	Items    []string `json:"items"` // item descriptions of the profile's view
}

// Diff operations.
const (
	OpEqual  = "="
	OpDelete = "-"
	OpInsert = "+"
)

// DiffLine is one line of a view diff.
type DiffLine struct {
	Op   string `json:"op"`
	Text string `json:"text"`
}

// DiffViews returns a line diff turning view a into view b.
func DiffViews(a, b []string) []DiffLine {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(joinLines(a), joinLines(b))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var out []DiffLine
	for _, d := range diffs {
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out = append(out, DiffLine{Op: op, Text: strings.TrimSuffix(line, "\n")})
		}
	}
	return out
}

func joinLines(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return strings.Join(items, "\n") + "\n"
}

// ProfileLabel renders the default profile's empty name.
func ProfileLabel(profile string) string {
	if profile == "" {
		return "<default>"
	}
	return profile
}

// SequenceLabel renders an unnamed sequence's empty name.
func SequenceLabel(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

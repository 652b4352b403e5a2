package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatPlain = "plain"
)

// Formatter writes views, profiles and diffs in one output format.
type Formatter struct {
	writer io.Writer
	format string

	header  lipgloss.Style
	cell    lipgloss.Style
	failed  lipgloss.Style
	added   lipgloss.Style
	removed lipgloss.Style
}

// NewFormatter creates a formatter for format, rendering without colour when
// noColor is set. An empty format is table.
func NewFormatter(writer io.Writer, format string, noColor bool) (*Formatter, error) {
	switch format {
	case "":
		format = FormatTable
	case FormatTable, FormatJSON, FormatPlain:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}

	r := lipgloss.NewRenderer(writer)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Formatter{
		writer:  writer,
		format:  format,
		header:  r.NewStyle().Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		failed:  r.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("9")),
		added:   r.NewStyle().Foreground(lipgloss.Color("10")),
		removed: r.NewStyle().Foreground(lipgloss.Color("9")),
	}, nil
}

// FormatViews writes one row per view.
func (f *Formatter) FormatViews(views []ViewDTO) error {
	switch f.format {
	case FormatJSON:
		return f.json(views)
	case FormatPlain:
		for _, v := range views {
			line := fmt.Sprintf("%s@%s: %s", SequenceLabel(v.Sequence), ProfileLabel(v.Profile), strings.Join(v.Items, ", "))
			if v.Error != "" {
				line += " (error: " + v.Error + ")"
			}
			if _, err := fmt.Fprintln(f.writer, line); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		items := strings.Join(v.Items, " ")
		if v.Error != "" {
			items = "error: " + v.Error
		}
		rows[i] = []string{SequenceLabel(v.Sequence), ProfileLabel(v.Profile), strconv.Itoa(len(v.Items)), items}
	}
	t := f.table("SEQUENCE", "PROFILE", "ITEMS", "VIEW").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.header
			}
			if row >= 0 && row < len(views) && views[row].Error != "" && col == 3 {
				return f.failed
			}
			return f.cell
		}).
		Rows(rows...)
	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// FormatProfiles writes one row per profile of every sequence.
func (f *Formatter) FormatProfiles(profiles []ProfileDTO) error {
	switch f.format {
	case FormatJSON:
		return f.json(profiles)
	case FormatPlain:
		for _, p := range profiles {
			if _, err := fmt.Fprintf(f.writer, "%s %s bit=%d items=%d\n",
				SequenceLabel(p.Sequence), ProfileLabel(p.Profile), p.Bit, len(p.Items)); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([][]string, len(profiles))
	for i, p := range profiles {
		rows[i] = []string{SequenceLabel(p.Sequence), ProfileLabel(p.Profile), strconv.FormatUint(uint64(p.Bit), 10), strconv.Itoa(len(p.Items))}
	}
	t := f.table("SEQUENCE", "PROFILE", "BIT", "ITEMS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.header
			}
			return f.cell
		}).
		Rows(rows...)
	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// FormatDiff writes a diff of profile a's view against profile b's. An empty
// sequence is the default one.
func (f *Formatter) FormatDiff(sequence, a, b string, lines []DiffLine) error {
	if f.format == FormatJSON {
		return f.json(struct {
			Sequence string     `json:"sequence"`
			From     string     `json:"from"`
			To       string     `json:"to"`
			Lines    []DiffLine `json:"lines"`
		}{sequence, a, b, lines})
	}

	var sb strings.Builder
	label := func(profile string) string {
		if sequence == "" {
			return ProfileLabel(profile)
		}
		return sequence + "@" + ProfileLabel(profile)
	}
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", label(a), label(b))
	for _, l := range lines {
		text := l.Op + " " + l.Text
		if l.Op == OpEqual {
			text = "  " + l.Text
		}
		if f.format == FormatTable {
			switch l.Op {
			case OpInsert:
				text = f.added.Render(text)
			case OpDelete:
				text = f.removed.Render(text)
			}
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(f.writer, sb.String())
	return err
}

func (f *Formatter) table(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func (f *Formatter) json(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

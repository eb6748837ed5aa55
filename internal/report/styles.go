package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/spyunit/pkg/runner"
)

// Styles defines the visual theme for terminal output.
// Lipgloss degrades to plain text when output is not a TTY.
type Styles struct {
	// Header styles the summary line.
	Header lipgloss.Style

	// Delimiter styles the ===== and ----- rules around failure blocks.
	Delimiter lipgloss.Style

	// Pass, Fail and Error style the status words.
	Pass  lipgloss.Style
	Fail  lipgloss.Style
	Error lipgloss.Style

	// TableHeader styles the header row of the --list table.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for stack frames and debug output.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Delimiter: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Error: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),
		Border:      lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// StatusStyle returns the style for a test status.
func (s Styles) StatusStyle(st runner.Status) lipgloss.Style {
	switch st {
	case runner.Passed:
		return s.Pass
	case runner.Failed:
		return s.Fail
	case runner.Errored:
		return s.Error
	default:
		return s.Muted
	}
}

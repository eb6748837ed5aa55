// Package report renders run results: the failure blocks and summary
// printed after a run, per-test progress lines, a JSON document and the
// --list table.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/unbound-force/spyunit/pkg/runner"
)

var (
	blockRule   = strings.Repeat("=", 70)
	sectionRule = strings.Repeat("-", 70)
)

// Format renders the failure blocks and summary for records and
// returns the text together with the process exit code.
func Format(records []runner.Record, total int, elapsed time.Duration) (string, int) {
	var b strings.Builder
	var p painter
	for _, rec := range records {
		p.block(&b, rec)
	}
	code := p.summary(&b, len(records), total, elapsed)
	return b.String(), code
}

// TextOptions controls WriteText.
type TextOptions struct {
	// Debug appends each failed test's captured debug output to its block.
	Debug bool

	// Styled enables lipgloss styling of status words and rules.
	Styled bool
}

// WriteText writes the failure blocks and summary of rep to w and
// returns the exit code.
func WriteText(w io.Writer, rep *runner.Report, opts TextOptions) int {
	var p painter
	if opts.Styled {
		s := DefaultStyles()
		p.styles = &s
	}
	var b strings.Builder
	for _, rec := range rep.Records {
		p.block(&b, rec)
		if opts.Debug && len(rec.Debug) > 0 {
			var dbg strings.Builder
			rec.Debug.Dump(&dbg, "  ")
			b.WriteString("Debug output:\n")
			b.WriteString(p.muted(dbg.String()))
			b.WriteString("\n")
		}
	}
	code := p.summary(&b, len(rep.Records), rep.Total, rep.Duration)
	_, _ = io.WriteString(w, b.String())
	return code
}

// painter writes report text, styled when styles is set.
type painter struct {
	styles *Styles
}

func (p painter) block(b *strings.Builder, rec runner.Record) {
	word, label := "FAIL", "Assertion error"
	if rec.Status == runner.Errored {
		word, label = "ERROR", "Unexpected error"
	}
	b.WriteString(p.rule(blockRule) + "\n")
	fmt.Fprintf(b, "%s: %s\n", p.status(rec.Status, word), rec.ID)
	b.WriteString(p.rule(sectionRule) + "\n")
	for _, line := range rec.Stack.Lines() {
		text := strings.TrimLeft(line, "\t")
		b.WriteString(line[:len(line)-len(text)] + p.muted(text) + "\n")
	}
	fmt.Fprintf(b, "\n%s: %s\n\n", label, rec.Message)
}

func (p painter) summary(b *strings.Builder, problems, total int, elapsed time.Duration) int {
	b.WriteString(p.rule(sectionRule) + "\n")
	fmt.Fprintf(b, "Ran %d %s in %.3fs\n\n", total, plural(total, "test", "tests"), elapsed.Seconds())
	if problems == 0 {
		b.WriteString(p.status(runner.Passed, "OK") + "\n")
		return 0
	}
	b.WriteString(p.status(runner.Failed, fmt.Sprintf("FAILED (failures=%d)", problems)) + "\n")
	return 1
}

func (p painter) rule(text string) string {
	if p.styles == nil {
		return text
	}
	return p.styles.Delimiter.Render(text)
}

func (p painter) status(st runner.Status, text string) string {
	if p.styles == nil {
		return text
	}
	return p.styles.StatusStyle(st).Render(text)
}

func (p painter) muted(text string) string {
	if p.styles == nil {
		return text
	}
	return p.styles.Muted.Render(text)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

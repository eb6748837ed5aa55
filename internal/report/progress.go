package report

import (
	"fmt"
	"io"

	"github.com/unbound-force/spyunit/pkg/runner"
)

// Progress is a runner observer that prints one line per finished test:
//
//	test_foo (MyCase) ... ok
type Progress struct {
	w      io.Writer
	styles *Styles
}

// NewProgress returns a progress printer writing to w. styled enables
// colored status words.
func NewProgress(w io.Writer, styled bool) *Progress {
	p := &Progress{w: w}
	if styled {
		s := DefaultStyles()
		p.styles = &s
	}
	return p
}

// TestStarted implements runner.Observer.
func (p *Progress) TestStarted(runner.TestID) {}

// TestFinished implements runner.Observer.
func (p *Progress) TestFinished(res runner.Result) {
	word := statusWord(res.Status)
	if p.styles != nil {
		word = p.styles.StatusStyle(res.Status).Render(word)
	}
	fmt.Fprintf(p.w, "%s ... %s\n", res.ID, word)
}

func statusWord(st runner.Status) string {
	switch st {
	case runner.Passed:
		return "ok"
	case runner.Failed:
		return "FAIL"
	default:
		return "ERROR"
	}
}

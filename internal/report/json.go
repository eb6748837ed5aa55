package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/unbound-force/spyunit/pkg/runner"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version    string       `json:"version"`
	Summary    JSONSummary  `json:"summary"`
	Results    []JSONResult `json:"results"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DurationMS int64        `json:"duration_ms"`
}

// JSONSummary holds the run totals.
type JSONSummary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Errored int  `json:"errored"`
	OK      bool `json:"ok"`
}

// JSONResult is one test's outcome.
type JSONResult struct {
	Case    string                     `json:"case"`
	Method  string                     `json:"method"`
	Status  runner.Status              `json:"status"`
	Target  string                     `json:"target,omitempty"`
	Calls   int                        `json:"calls,omitempty"`
	Message string                     `json:"message,omitempty"`
	Stack   []unittest.Frame           `json:"stack,omitempty"`
	Debug   []unittest.CapturedMessage `json:"debug,omitempty"`
}

// WriteJSON writes rep as formatted JSON to w.
func WriteJSON(w io.Writer, rep *runner.Report, version string) error {
	passed, failed, errored := rep.Counts()
	out := JSONReport{
		Version: version,
		Summary: JSONSummary{
			Total:   rep.Total,
			Passed:  passed,
			Failed:  failed,
			Errored: errored,
			OK:      rep.OK(),
		},
		Results:    make([]JSONResult, 0, len(rep.Results)),
		StartedAt:  rep.StartedAt,
		FinishedAt: rep.FinishedAt,
		DurationMS: rep.Duration.Milliseconds(),
	}
	for _, res := range rep.Results {
		jr := JSONResult{
			Case:   res.ID.Case,
			Method: res.ID.Method,
			Status: res.Status,
			Target: string(res.Target),
			Calls:  res.Calls,
		}
		if rec := res.Record; rec != nil {
			jr.Message = rec.Message
			jr.Stack = rec.Stack
			jr.Debug = rec.Debug
		}
		out.Results = append(out.Results, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

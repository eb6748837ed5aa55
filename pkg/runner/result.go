package runner

import (
	"fmt"
	"time"

	"github.com/unbound-force/spyunit/pkg/registry"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

// Status is the terminal state of one test method.
type Status string

const (
	// Passed means the method returned normally.
	Passed Status = "passed"

	// Failed means an assertion failed.
	Failed Status = "failed"

	// Errored means the method panicked or returned an error that is not
	// an assertion failure.
	Errored Status = "errored"
)

// TestID names one test method of one test case.
type TestID struct {
	Case   string `json:"case"`
	Method string `json:"method"`
}

func (id TestID) String() string {
	return fmt.Sprintf("%s (%s)", id.Method, id.Case)
}

// Record is the diagnostic kept for a test that did not pass. Stack is
// empty for Errored records.
type Record struct {
	ID      TestID
	Status  Status
	Message string
	Stack   unittest.Stack
	Debug   unittest.CapturedOutput
}

// Result is the outcome of one test method.
type Result struct {
	ID     TestID
	Status Status

	// Target is the patched entity, empty when nothing was patched.
	Target registry.EntityID

	// Calls is the number of calls the spy recorded.
	Calls int

	// Record is set when Status is not Passed.
	Record *Record
}

// Report is the aggregate of a whole run.
type Report struct {
	Results    []Result
	Records    []Record
	Total      int
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// OK reports whether every test passed.
func (r *Report) OK() bool {
	return len(r.Records) == 0
}

// Counts returns the number of passed, failed and errored tests.
func (r *Report) Counts() (passed, failed, errored int) {
	for _, res := range r.Results {
		switch res.Status {
		case Passed:
			passed++
		case Failed:
			failed++
		case Errored:
			errored++
		}
	}
	return passed, failed, errored
}

// Observer is notified as each test starts and finishes.
type Observer interface {
	TestStarted(id TestID)
	TestFinished(res Result)
}

type nullObserver struct{}

func (nullObserver) TestStarted(TestID)  {}
func (nullObserver) TestFinished(Result) {}

type observers []Observer

func (o observers) TestStarted(id TestID) {
	for _, x := range o {
		x.TestStarted(id)
	}
}

func (o observers) TestFinished(res Result) {
	for _, x := range o {
		x.TestFinished(res)
	}
}

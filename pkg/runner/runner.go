// Package runner executes the test methods listed in a registry, one at
// a time, and aggregates their outcomes.
//
// Each test runs against a fresh instance of its test case. When the
// test method carries a patch marker, a spy is installed on the target
// before the body runs and removed afterwards on every exit path.
// Panics raised by the body are recovered here and nowhere else.
package runner

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/registry"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

// SpyParam is the parameter type string of a test method that accepts
// the spy.
const SpyParam = "*patch.Spy"

// Runner runs the tests of one registry.
type Runner struct {
	reg      *registry.Registry
	table    *patch.Table
	observer Observer
	logger   *log.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTable sets the patch table spies are installed in. The default is
// patch.Default.
func WithTable(t *patch.Table) Option {
	return func(r *Runner) { r.table = t }
}

// WithObserver adds an observer. Observers are notified in the order
// they were added.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if existing, ok := r.observer.(observers); ok {
			r.observer = append(existing, o)
			return
		}
		r.observer = observers{o}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithClock replaces time.Now for the run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New returns a runner for reg.
func New(reg *registry.Registry, opts ...Option) *Runner {
	r := &Runner{
		reg:      reg,
		table:    patch.Default,
		observer: nullObserver{},
		logger:   log.New(io.Discard),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PlannedTest is one test method ready to run.
type PlannedTest struct {
	ID       TestID
	New      func() any
	Method   *registry.MethodMetadata
	Target   registry.EntityID
	TakesSpy bool
}

// Plan validates every test method and returns them in execution order.
// All definition errors are collected and returned together; no test
// body runs during planning.
func (r *Runner) Plan() ([]PlannedTest, error) {
	var (
		plan []PlannedTest
		errs []error
	)
	for _, tc := range r.reg.ListTestCases() {
		if tc.New == nil {
			errs = append(errs, &registry.DefinitionError{Class: tc.Class, Reason: "test case has no factory"})
			continue
		}
		for _, m := range tc.Methods {
			pt, err := r.planMethod(tc, m)
			if err != nil {
				errs = append(errs, &registry.DefinitionError{Class: tc.Class, Method: m.ID, Reason: err.Error()})
				continue
			}
			plan = append(plan, pt)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return plan, nil
}

func (r *Runner) planMethod(tc registry.TestCaseDescriptor, m *registry.MethodMetadata) (PlannedTest, error) {
	pt := PlannedTest{
		ID:     TestID{Case: tc.Name, Method: m.Name},
		New:    tc.New,
		Method: m,
	}
	if m.Invoke == nil {
		return pt, errors.New("test method has no invoker")
	}
	switch {
	case len(m.Params) == 0:
	case len(m.Params) == 1 && m.Params[0] == SpyParam:
		pt.TakesSpy = true
	default:
		return pt, fmt.Errorf("test method parameters %v: want none or (%s)", m.Params, SpyParam)
	}

	req, err := m.PatchRequest()
	switch {
	case errors.Is(err, registry.ErrNoMarker):
		if pt.TakesSpy {
			return pt, errors.New("test method takes a spy but has no patch marker")
		}
		return pt, nil
	case err != nil:
		return pt, err
	}
	if _, err := r.reg.Resolve(req.Target); err != nil {
		return pt, err
	}
	if !r.table.Has(req.Target) {
		return pt, fmt.Errorf("patch target %q: %w", req.Target, patch.ErrUnknownTarget)
	}
	pt.Target = req.Target
	return pt, nil
}

// Run plans the suite and runs every test in order. It returns an error
// only for definition errors, in which case no test has run.
func (r *Runner) Run() (*Report, error) {
	plan, err := r.Plan()
	if err != nil {
		return nil, err
	}
	rep := &Report{Total: len(plan), StartedAt: r.now()}
	r.logger.Debug("starting run", "tests", len(plan))
	for _, pt := range plan {
		res := r.runTest(pt)
		rep.Results = append(rep.Results, res)
		if res.Record != nil {
			rep.Records = append(rep.Records, *res.Record)
		}
	}
	rep.FinishedAt = r.now()
	rep.Duration = rep.FinishedAt.Sub(rep.StartedAt)
	r.logger.Debug("run finished", "tests", rep.Total, "problems", len(rep.Records), "elapsed", rep.Duration)
	return rep, nil
}

func (r *Runner) runTest(pt PlannedTest) (res Result) {
	res = Result{ID: pt.ID, Target: pt.Target}
	r.observer.TestStarted(pt.ID)
	defer func() { r.observer.TestFinished(res) }()

	var spy *patch.Spy
	if pt.Target != "" {
		spy = patch.NewSpy()
		restore, err := r.table.Install(pt.Target, spy)
		if err != nil {
			res.setError(err.Error())
			return res
		}
		r.logger.Debug("spy installed", "test", pt.ID, "target", pt.Target)
		defer func() {
			restore()
			res.Calls = spy.CallCount()
			r.logger.Debug("spy restored", "test", pt.ID, "target", pt.Target, "calls", res.Calls)
		}()
	}

	tc := r.invoke(&res, pt, spy)
	if res.Record != nil && tc != nil {
		res.Record.Debug = tc.DebugOutput()
	}
	r.logger.Debug("test finished", "test", pt.ID, "status", res.Status)
	return res
}

// invoke creates the test case instance, runs the test body and
// classifies its outcome. It is the only place panics from test code,
// factories included, are recovered. tc is nil when the instance could
// not be created.
func (r *Runner) invoke(res *Result, pt PlannedTest, spy *patch.Spy) (tc *unittest.TestCase) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if tc == nil {
			res.setError("creating test case: " + panicMessage(rec))
			return
		}
		if f, ok := tc.Recovered(rec); ok {
			res.setFailure(f)
			return
		}
		res.setError(panicMessage(rec))
	}()

	instance := pt.New()
	bound, err := unittest.Bind(instance, pt.ID.Case, pt.ID.Method)
	if err != nil {
		res.setError(err.Error())
		return nil
	}
	tc = bound

	var args []any
	if pt.TakesSpy {
		args = append(args, spy)
	}
	err = pt.Method.Invoke(instance, args...)

	// testify's assert package records through Errorf without aborting.
	if f := tc.Failure(); f != nil {
		res.setFailure(f)
		return tc
	}
	if err != nil {
		var af *unittest.AssertionFailure
		if errors.As(err, &af) {
			res.setFailure(af)
			return tc
		}
		res.setError(err.Error())
		return tc
	}
	res.Status = Passed
	return tc
}

func (res *Result) setFailure(f *unittest.AssertionFailure) {
	res.Status = Failed
	res.Record = &Record{ID: res.ID, Status: Failed, Message: f.Message, Stack: f.Stack}
}

func (res *Result) setError(msg string) {
	res.Status = Errored
	res.Record = &Record{ID: res.ID, Status: Errored, Message: msg}
}

func panicMessage(rec any) string {
	if err, ok := rec.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(rec)
}

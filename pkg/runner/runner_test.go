package runner_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unbound-force/spyunit/pkg/patch"
	"github.com/unbound-force/spyunit/pkg/registry"
	"github.com/unbound-force/spyunit/pkg/runner"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

// ---------------------------------------------------------------------------
// Fixture: a class under test with one patchable method, and test cases
// written against it. The registry is assembled by hand the way the
// generator would write it.
// ---------------------------------------------------------------------------

const doubleID registry.EntityID = "runner_test.Calc.Double(int) int"

type calc struct{}

type calcFixture struct {
	table *patch.Table
	slot  *patch.Slot[func(*calc, int) int]
}

func newCalcFixture() *calcFixture {
	tbl := patch.NewTable()
	return &calcFixture{
		table: tbl,
		slot:  patch.Register(tbl, doubleID, func(_ *calc, v int) int { return 2 * v }, patch.KindMethod),
	}
}

func (f *calcFixture) double(c *calc, v int) int { return f.slot.Fn()(c, v) }

func (f *calcFixture) calcClass() registry.Class {
	return registry.Class{
		ID:   "runner_test.Calc",
		Name: "Calc",
		Methods: []registry.MethodMetadata{
			{ID: doubleID, Name: "Double", Params: []string{"int"}, Results: []string{"int"}},
		},
	}
}

type calcCase struct {
	unittest.TestCase
	fx  *calcFixture
	ran *[]string
}

func (c *calcCase) test_pass() {
	*c.ran = append(*c.ran, "test_pass")
	c.AssertEqual(c.fx.double(&calc{}, 2), 4)
}

func (c *calcCase) test_equal() {
	*c.ran = append(*c.ran, "test_equal")
	c.AssertEqual(3, 4)
}

func (c *calcCase) test_spy(spy *patch.Spy) {
	*c.ran = append(*c.ran, "test_spy")
	c.fx.double(&calc{}, 5)
	c.fx.double(&calc{}, 7)
	c.AssertEqual(spy.CallCount(), 2)
	c.AssertFalse(spy.CalledOnce())
	c.AssertTrue(spy.CalledWith(7))
	c.AssertFalse(spy.CalledOnceWith(5))
	calls := spy.CallArgsList()
	c.AssertEqual([][]any{calls[0].Args, calls[1].Args}, [][]any{{5}, {7}})
}

func (c *calcCase) test_unpatched() {
	*c.ran = append(*c.ran, "test_unpatched")
	c.AssertEqual(c.fx.double(&calc{}, 5), 10)
}

func (c *calcCase) test_panic() {
	*c.ran = append(*c.ran, "test_panic")
	var m map[string]int
	m["boom"]++
}

func (c *calcCase) test_returns_error() error {
	return errors.New("disk full")
}

func (c *calcCase) test_returns_failure() error {
	return fmt.Errorf("wrapped: %w", unittest.Equal(1, 2))
}

func (c *calcCase) test_testify() {
	require.Equal(c, "a", "b")
}

func (c *calcCase) test_patched_panic(spy *patch.Spy) {
	c.fx.double(&calc{}, 1)
	panic("after spy call")
}

// method builds the metadata for a calcCase test method.
func method(name string, invoke registry.Invoker, markers ...registry.Marker) registry.MethodMetadata {
	return registry.MethodMetadata{
		ID:      registry.EntityID("runner_test.CalcCase." + name + "()"),
		Name:    name,
		Markers: markers,
		Invoke:  invoke,
	}
}

func spyMethod(name string, target registry.EntityID, invoke registry.Invoker) registry.MethodMetadata {
	m := method(name, invoke, registry.Marker{Name: registry.PatchMarker, Args: []string{string(target)}})
	m.ID = registry.EntityID("runner_test.CalcCase." + name + "(*patch.Spy)")
	m.Params = []string{runner.SpyParam}
	return m
}

func plain(fn func(*calcCase)) registry.Invoker {
	return func(recv any, _ ...any) error {
		fn(recv.(*calcCase))
		return nil
	}
}

func withSpy(fn func(*calcCase, *patch.Spy)) registry.Invoker {
	return func(recv any, args ...any) error {
		fn(recv.(*calcCase), args[0].(*patch.Spy))
		return nil
	}
}

func returning(fn func(*calcCase) error) registry.Invoker {
	return func(recv any, _ ...any) error {
		return fn(recv.(*calcCase))
	}
}

type suite struct {
	fx  *calcFixture
	ran []string
}

func newSuite() *suite {
	return &suite{fx: newCalcFixture()}
}

func (s *suite) testCase(methods ...registry.MethodMetadata) registry.Class {
	return registry.Class{
		ID:       "runner_test.CalcCase",
		Name:     "CalcCase",
		TestCase: true,
		New:      func() any { return &calcCase{fx: s.fx, ran: &s.ran} },
		Methods:  methods,
	}
}

func (s *suite) run(t *testing.T, opts []runner.Option, methods ...registry.MethodMetadata) (*runner.Report, error) {
	t.Helper()
	reg, err := registry.Build(s.fx.calcClass(), s.testCase(methods...))
	if err != nil {
		return nil, err
	}
	opts = append([]runner.Option{runner.WithTable(s.fx.table)}, opts...)
	return runner.New(reg, opts...).Run()
}

func mustRun(t *testing.T, s *suite, methods ...registry.MethodMetadata) *runner.Report {
	t.Helper()
	rep, err := s.run(t, nil, methods...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return rep
}

// ---------------------------------------------------------------------------
// Outcomes
// ---------------------------------------------------------------------------

func TestRun_NoTests(t *testing.T) {
	rep := mustRun(t, newSuite())
	if rep.Total != 0 || !rep.OK() {
		t.Errorf("Total = %d, OK = %v; want 0, true", rep.Total, rep.OK())
	}
}

func TestRun_Passing(t *testing.T) {
	s := newSuite()
	rep := mustRun(t, s, method("test_pass", plain((*calcCase).test_pass)))
	if rep.Total != 1 || !rep.OK() {
		t.Fatalf("Total = %d, records = %v", rep.Total, rep.Records)
	}
	if rep.Results[0].Status != runner.Passed {
		t.Errorf("status = %s, want passed", rep.Results[0].Status)
	}
}

func TestRun_AssertionFailure(t *testing.T) {
	s := newSuite()
	rep := mustRun(t, s,
		method("test_equal", plain((*calcCase).test_equal)),
		method("test_pass", plain((*calcCase).test_pass)),
	)
	if len(rep.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(rep.Records))
	}
	rec := rep.Records[0]
	if rec.Status != runner.Failed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if rec.ID.String() != "test_equal (CalcCase)" {
		t.Errorf("ID = %s", rec.ID)
	}
	if !strings.Contains(rec.Message, "3") || !strings.Contains(rec.Message, "4") {
		t.Errorf("message %q does not mention 3 and 4", rec.Message)
	}
	if len(rec.Stack) == 0 || !strings.Contains(rec.Stack[0].Function, "test_equal") {
		t.Errorf("stack does not start at the assertion: %v", rec.Stack)
	}
	for _, f := range rec.Stack {
		if strings.Contains(f.Function, "/pkg/runner.") {
			t.Errorf("runner frame leaked into stack: %s", f.Function)
		}
	}
	// The run continues after a failure.
	if got := strings.Join(s.ran, ","); got != "test_equal,test_pass" {
		t.Errorf("ran = %s", got)
	}
}

func TestRun_PanicIsErrored(t *testing.T) {
	rep := mustRun(t, newSuite(), method("test_panic", plain((*calcCase).test_panic)))
	rec := rep.Records[0]
	if rec.Status != runner.Errored {
		t.Fatalf("status = %s, want errored", rec.Status)
	}
	if !strings.Contains(rec.Message, "nil map") {
		t.Errorf("message = %q", rec.Message)
	}
	if len(rec.Stack) != 0 {
		t.Errorf("errored record has a stack: %v", rec.Stack)
	}
}

func TestRun_PanickingFactoryIsErrored(t *testing.T) {
	s := newSuite()
	made := 0
	tc := s.testCase(
		method("test_pass", plain((*calcCase).test_pass)),
		method("test_unpatched", plain((*calcCase).test_unpatched)),
	)
	tc.New = func() any {
		made++
		if made == 1 {
			panic("constructor blew up")
		}
		return &calcCase{fx: s.fx, ran: &s.ran}
	}
	reg, err := registry.Build(s.fx.calcClass(), tc)
	if err != nil {
		t.Fatal(err)
	}

	rep, err := runner.New(reg, runner.WithTable(s.fx.table)).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(rep.Results))
	}
	if len(rep.Records) != 1 {
		t.Fatalf("records = %+v", rep.Records)
	}
	rec := rep.Records[0]
	if rec.ID.Method != "test_pass" || rec.Status != runner.Errored {
		t.Errorf("record = %+v", rec)
	}
	if rec.Message != "creating test case: constructor blew up" {
		t.Errorf("message = %q", rec.Message)
	}
	if rep.Results[1].Status != runner.Passed {
		t.Errorf("second test status = %s, want passed", rep.Results[1].Status)
	}
}

func TestRun_ReturnedErrors(t *testing.T) {
	rep := mustRun(t, newSuite(),
		method("test_returns_error", returning((*calcCase).test_returns_error)),
		method("test_returns_failure", returning((*calcCase).test_returns_failure)),
	)
	if len(rep.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(rep.Records))
	}
	if rep.Records[0].Status != runner.Errored || rep.Records[0].Message != "disk full" {
		t.Errorf("first record = %+v", rep.Records[0])
	}
	if rep.Records[1].Status != runner.Failed || rep.Records[1].Message != "1 != 2" {
		t.Errorf("second record = %+v", rep.Records[1])
	}
}

func TestRun_TestifyRequire(t *testing.T) {
	rep := mustRun(t, newSuite(), method("test_testify", plain((*calcCase).test_testify)))
	rec := rep.Records[0]
	if rec.Status != runner.Failed {
		t.Fatalf("status = %s, want failed", rec.Status)
	}
	if !strings.Contains(rec.Message, "Not equal") {
		t.Errorf("message = %q", rec.Message)
	}
}

// ---------------------------------------------------------------------------
// Patching
// ---------------------------------------------------------------------------

func TestRun_SpyRecordsCalls(t *testing.T) {
	rep := mustRun(t, newSuite(), spyMethod("test_spy", doubleID, withSpy((*calcCase).test_spy)))
	if !rep.OK() {
		t.Fatalf("records = %+v", rep.Records)
	}
	res := rep.Results[0]
	if res.Target != doubleID || res.Calls != 2 {
		t.Errorf("Target = %q, Calls = %d", res.Target, res.Calls)
	}
}

func TestRun_PatchScopedToOneTest(t *testing.T) {
	s := newSuite()
	rep := mustRun(t, s,
		spyMethod("test_spy", doubleID, withSpy((*calcCase).test_spy)),
		method("test_unpatched", plain((*calcCase).test_unpatched)),
	)
	if !rep.OK() {
		t.Fatalf("records = %+v", rep.Records)
	}
	if s.fx.table.Active(doubleID) != nil {
		t.Error("spy still installed after run")
	}
}

func TestRun_SpyRestoredAfterPanic(t *testing.T) {
	s := newSuite()
	rep := mustRun(t, s,
		spyMethod("test_patched_panic", doubleID, withSpy((*calcCase).test_patched_panic)),
		method("test_unpatched", plain((*calcCase).test_unpatched)),
	)
	if len(rep.Records) != 1 || rep.Records[0].ID.Method != "test_patched_panic" {
		t.Fatalf("records = %+v", rep.Records)
	}
	if rep.Results[0].Calls != 1 {
		t.Errorf("Calls = %d, want 1", rep.Results[0].Calls)
	}
	if got := s.fx.double(&calc{}, 3); got != 6 {
		t.Errorf("double after run = %d, want 6", got)
	}
}

// ---------------------------------------------------------------------------
// Definition errors
// ---------------------------------------------------------------------------

func TestPlan_UnresolvedTargetRejectedBeforeRun(t *testing.T) {
	s := newSuite()
	_, err := s.run(t, nil,
		method("test_pass", plain((*calcCase).test_pass)),
		spyMethod("test_spy", "runner_test.Calc.Missing()", withSpy((*calcCase).test_spy)),
	)
	if err == nil {
		t.Fatal("expected a definition error")
	}
	if !strings.Contains(err.Error(), "runner_test.Calc.Missing()") {
		t.Errorf("error %q does not name the target", err)
	}
	if len(s.ran) != 0 {
		t.Errorf("test bodies ran: %v", s.ran)
	}
}

func TestPlan_TargetWithoutSlot(t *testing.T) {
	s := newSuite()
	reg, err := registry.Build(s.fx.calcClass(), s.testCase(
		spyMethod("test_spy", doubleID, withSpy((*calcCase).test_spy)),
	))
	if err != nil {
		t.Fatal(err)
	}
	_, err = runner.New(reg, runner.WithTable(patch.NewTable())).Plan()
	if !errors.Is(err, patch.ErrUnknownTarget) {
		t.Fatalf("err = %v, want ErrUnknownTarget", err)
	}
}

func TestPlan_SpyParamWithoutMarker(t *testing.T) {
	m := spyMethod("test_spy", doubleID, withSpy((*calcCase).test_spy))
	m.Markers = nil
	s := newSuite()
	_, err := s.run(t, nil, m)
	if err == nil || !strings.Contains(err.Error(), "no patch marker") {
		t.Fatalf("err = %v", err)
	}
}

func TestPlan_CollectsAllErrors(t *testing.T) {
	noInvoke := method("test_a", nil)
	badParams := method("test_b", plain((*calcCase).test_pass))
	badParams.Params = []string{"int"}
	s := newSuite()
	_, err := s.run(t, nil, noInvoke, badParams)
	if err == nil {
		t.Fatal("expected definition errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "no invoker") || !strings.Contains(msg, "want none or") {
		t.Errorf("error = %q", msg)
	}
	var de *registry.DefinitionError
	if !errors.As(err, &de) {
		t.Errorf("error does not wrap a DefinitionError")
	}
}

// ---------------------------------------------------------------------------
// Ordering, timing, observers
// ---------------------------------------------------------------------------

func TestRun_OrderIsDeterministic(t *testing.T) {
	methods := []registry.MethodMetadata{
		method("test_pass", plain((*calcCase).test_pass)),
		method("test_equal", plain((*calcCase).test_equal)),
		method("test_unpatched", plain((*calcCase).test_unpatched)),
	}
	first, second := newSuite(), newSuite()
	mustRun(t, first, methods...)
	mustRun(t, second, methods...)
	if strings.Join(first.ran, ",") != strings.Join(second.ran, ",") {
		t.Errorf("runs differ: %v vs %v", first.ran, second.ran)
	}
	if strings.Join(first.ran, ",") != "test_pass,test_equal,test_unpatched" {
		t.Errorf("order = %v, want declaration order", first.ran)
	}
}

func TestRun_Clock(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := 0
	clock := func() time.Time {
		ticks++
		return start.Add(time.Duration(ticks-1) * 1500 * time.Millisecond)
	}
	rep, err := newSuite().run(t, []runner.Option{runner.WithClock(clock)})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", rep.Duration)
	}
}

type recordingObserver struct {
	events []string
}

func (o *recordingObserver) TestStarted(id runner.TestID) {
	o.events = append(o.events, "start "+id.String())
}

func (o *recordingObserver) TestFinished(res runner.Result) {
	o.events = append(o.events, fmt.Sprintf("finish %s %s", res.ID, res.Status))
}

func TestRun_Observer(t *testing.T) {
	obs := &recordingObserver{}
	_, err := newSuite().run(t, []runner.Option{runner.WithObserver(obs)},
		method("test_pass", plain((*calcCase).test_pass)),
		method("test_equal", plain((*calcCase).test_equal)),
	)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"start test_pass (CalcCase)",
		"finish test_pass (CalcCase) passed",
		"start test_equal (CalcCase)",
		"finish test_equal (CalcCase) failed",
	}
	if strings.Join(obs.events, "\n") != strings.Join(want, "\n") {
		t.Errorf("events:\n%s\nwant:\n%s", strings.Join(obs.events, "\n"), strings.Join(want, "\n"))
	}
}

func TestReport_Counts(t *testing.T) {
	rep := mustRun(t, newSuite(),
		method("test_pass", plain((*calcCase).test_pass)),
		method("test_equal", plain((*calcCase).test_equal)),
		method("test_panic", plain((*calcCase).test_panic)),
	)
	p, f, e := rep.Counts()
	if p != 1 || f != 1 || e != 1 {
		t.Errorf("Counts = %d, %d, %d; want 1, 1, 1", p, f, e)
	}
}

// Package unittest is the assertion library test cases are written
// against.
//
// A test case is a struct that embeds TestCase and declares methods
// named with the "test_" prefix:
//
//	type ExampleTestCase struct {
//		unittest.TestCase
//	}
//
//	func (c *ExampleTestCase) test_sum() {
//		c.AssertEqual(1+2, 3)
//	}
//
// A failing assertion aborts the test method; the runner records the
// failure together with the call stack captured at the assertion.
// TestCase also satisfies testify's require.TestingT, so testify
// assertions can be used inside test methods.
package unittest

import (
	"errors"
	"fmt"
)

// TestCase carries the per-test state of one test-method invocation.
// Embed it in test case structs; the runner binds a fresh one to every
// instance it constructs.
type TestCase struct {
	name     string
	caseName string
	failures []*AssertionFailure
	debug    CapturingLogger
}

// abort is the panic value that ends a test body after a failure has
// already been recorded.
type abort struct{}

// Binder is implemented by every type that embeds TestCase.
type Binder interface {
	testCase() *TestCase
}

func (tc *TestCase) testCase() *TestCase { return tc }

// Bind attaches fresh per-test state for the test method name of the
// test case caseName to instance, and returns it. It fails when
// instance does not embed TestCase.
func Bind(instance any, caseName, name string) (*TestCase, error) {
	b, ok := instance.(Binder)
	if !ok {
		return nil, fmt.Errorf("%T does not embed unittest.TestCase", instance)
	}
	tc := b.testCase()
	*tc = TestCase{name: name, caseName: caseName}
	return tc, nil
}

// Name returns the running test method's name.
func (tc *TestCase) Name() string { return tc.name }

// CaseName returns the running test case's name.
func (tc *TestCase) CaseName() string { return tc.caseName }

// Failure returns the first recorded failure, or nil.
func (tc *TestCase) Failure() *AssertionFailure {
	if len(tc.failures) == 0 {
		return nil
	}
	return tc.failures[0]
}

// Failures returns every recorded failure.
func (tc *TestCase) Failures() []*AssertionFailure {
	return append([]*AssertionFailure(nil), tc.failures...)
}

// DebugOutput returns what the test logged through Debugf.
func (tc *TestCase) DebugOutput() CapturedOutput {
	return tc.debug.Output()
}

// AssertTrue fails the test unless v is truthy.
func (tc *TestCase) AssertTrue(v any) { tc.check(True(v)) }

// AssertFalse fails the test unless v is falsy.
func (tc *TestCase) AssertFalse(v any) { tc.check(False(v)) }

// AssertIsNull fails the test unless v is nil or a zero value.
func (tc *TestCase) AssertIsNull(v any) { tc.check(IsNull(v)) }

// AssertIsNotNull fails the test if v is nil or a zero value.
func (tc *TestCase) AssertIsNotNull(v any) { tc.check(IsNotNull(v)) }

// AssertEqual fails the test unless v equals expected.
func (tc *TestCase) AssertEqual(v, expected any) { tc.check(Equal(v, expected)) }

// AssertNotEqual fails the test if v equals expected.
func (tc *TestCase) AssertNotEqual(v, expected any) { tc.check(NotEqual(v, expected)) }

// Fail fails the test unconditionally.
func (tc *TestCase) Fail(format string, args ...any) {
	tc.check(NewFailure(format, args...))
}

// Errorf records a failure without stopping the test. It is what
// testify's assert package calls.
func (tc *TestCase) Errorf(format string, args ...any) {
	tc.failures = append(tc.failures, NewFailure(format, args...))
}

// FailNow stops the test. testify's require package calls it after
// Errorf.
func (tc *TestCase) FailNow() {
	if len(tc.failures) == 0 {
		tc.failures = append(tc.failures, NewFailure("test failed with no failure message"))
	}
	panic(abort{})
}

// Helper exists for testify compatibility.
func (tc *TestCase) Helper() {}

// Debugf captures a debug line for this test. The output is shown for
// failed tests when the suite runs with debug output enabled.
func (tc *TestCase) Debugf(format string, args ...any) {
	tc.debug.Printf(format, args...)
}

func (tc *TestCase) check(f *AssertionFailure) {
	if f == nil {
		return
	}
	tc.failures = append(tc.failures, f)
	panic(abort{})
}

// Recovered classifies a value recovered from a panicking test body.
// It returns the assertion failure for aborts and raised failures, and
// ok false for any other panic.
func (tc *TestCase) Recovered(r any) (f *AssertionFailure, ok bool) {
	switch v := r.(type) {
	case abort:
		return tc.Failure(), true
	case *AssertionFailure:
		tc.failures = append(tc.failures, v)
		return tc.Failure(), true
	case error:
		var af *AssertionFailure
		if errors.As(v, &af) {
			tc.failures = append(tc.failures, af)
			return tc.Failure(), true
		}
	}
	return nil, false
}

package patch

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/unbound-force/spyunit/pkg/registry"
	"github.com/unbound-force/spyunit/pkg/unittest"
)

// Call is one recorded invocation. Seq is the invocation's position,
// starting at 1.
type Call struct {
	Seq  int
	Args []any
}

func (c Call) String() string {
	return unittest.ReprArgs(c.Args)
}

// Spy records every call made to the target it is installed on. A Spy
// is created per test method and must not be reused across tests.
type Spy struct {
	target registry.EntityID
	calls  []Call
}

// NewSpy returns a spy with no calls recorded.
func NewSpy() *Spy {
	return &Spy{}
}

// Target returns the identifier the spy is installed on, or "" when it
// has not been installed.
func (s *Spy) Target() registry.EntityID { return s.target }

func (s *Spy) record(args []any) {
	s.calls = append(s.calls, Call{Seq: len(s.calls) + 1, Args: args})
}

// Called reports whether the spy was called at least once.
func (s *Spy) Called() bool {
	return len(s.calls) > 0
}

// CalledOnce reports whether the spy was called exactly once.
func (s *Spy) CalledOnce() bool {
	return len(s.calls) == 1
}

// CallCount returns the number of recorded calls.
func (s *Spy) CallCount() int {
	return len(s.calls)
}

// CallArgsList returns every recorded call in invocation order.
func (s *Spy) CallArgsList() []Call {
	return append([]Call(nil), s.calls...)
}

// LastCall returns the most recent call.
func (s *Spy) LastCall() (Call, bool) {
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// CalledWith reports whether the most recent call had exactly args.
// Earlier calls are not considered.
func (s *Spy) CalledWith(args ...any) bool {
	last, ok := s.LastCall()
	return ok && argsMatch(last.Args, args)
}

// CalledOnceWith reports whether the spy was called exactly once, with
// exactly args.
func (s *Spy) CalledOnceWith(args ...any) bool {
	return s.CalledOnce() && argsMatch(s.calls[0].Args, args)
}

// AssertCalled panics with an assertion failure unless the spy was
// called.
func (s *Spy) AssertCalled() {
	if !s.Called() {
		panic(unittest.NewFailure("expected %s to have been called", s.name()))
	}
}

// AssertNotCalled panics with an assertion failure if the spy was
// called.
func (s *Spy) AssertNotCalled() {
	if s.Called() {
		panic(unittest.NewFailure("expected %s to not have been called. Called %d times.%s",
			s.name(), len(s.calls), s.callList()))
	}
}

// AssertCalledOnce panics with an assertion failure unless the spy was
// called exactly once.
func (s *Spy) AssertCalledOnce() {
	if !s.CalledOnce() {
		panic(unittest.NewFailure("expected %s to have been called once. Called %d times.%s",
			s.name(), len(s.calls), s.callList()))
	}
}

// AssertCalledWith panics with an assertion failure unless the most
// recent call had exactly args.
func (s *Spy) AssertCalledWith(args ...any) {
	last, ok := s.LastCall()
	if !ok {
		panic(unittest.NewFailure("expected call: %s%s\nNot called",
			s.name(), unittest.ReprArgs(args)))
	}
	if !argsMatch(last.Args, args) {
		want, got := unittest.ReprArgsPair(args, last.Args)
		panic(unittest.NewFailure("expected call: %s%s\nActual: %s%s",
			s.name(), want, s.name(), got))
	}
}

// AssertCalledOnceWith panics with an assertion failure unless the spy
// was called exactly once, with exactly args.
func (s *Spy) AssertCalledOnceWith(args ...any) {
	if !s.CalledOnce() {
		panic(unittest.NewFailure("expected %s to be called once with %s. Called %d times.%s",
			s.name(), unittest.ReprArgs(args), len(s.calls), s.callList()))
	}
	if !argsMatch(s.calls[0].Args, args) {
		want, got := unittest.ReprArgsPair(args, s.calls[0].Args)
		panic(unittest.NewFailure("expected call: %s%s\nActual: %s%s",
			s.name(), want, s.name(), got))
	}
}

// Reset forgets every recorded call.
func (s *Spy) Reset() {
	s.calls = nil
}

func (s *Spy) name() string {
	if s.target == "" {
		return "spy"
	}
	name := string(s.target)
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return name
}

func (s *Spy) callList() string {
	if len(s.calls) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nCalls:")
	for _, c := range s.calls {
		fmt.Fprintf(&b, "\n  %d: %s", c.Seq, c)
	}
	return b.String()
}

// argsMatch compares a recorded argument tuple with an expected one.
// Expected entries may be matchers. An expected value convertible to
// the recorded argument's type matches by value, so a literal 5 matches
// a recorded int64(5).
func argsMatch(actual, expected []any) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range expected {
		if m, ok := expected[i].(Matcher); ok {
			if !m.Matches(actual[i]) {
				return false
			}
			continue
		}
		if !assert.ObjectsAreEqualValues(expected[i], actual[i]) {
			return false
		}
	}
	return true
}

package unittest

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackDepth = 64

// harnessPrefixes are the packages whose frames sit between the user's
// assertion and the point where the stack is captured.
var harnessPrefixes = []string{
	"github.com/unbound-force/spyunit/pkg/unittest.",
	"github.com/unbound-force/spyunit/pkg/patch.",
	"github.com/stretchr/testify/",
	"reflect.",
	"runtime.",
}

// invokerMark identifies the invoker closures of a generated registry,
// whatever file name the registry was written to.
const invokerMark = ".UnittestClasses.func"

// bottomPrefixes mark the end of the user's part of the stack.
var bottomPrefixes = []string{
	"github.com/unbound-force/spyunit/pkg/runner.",
	"testing.",
}

// Frame is one call-stack entry.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s\n\t%s:%d", f.Function, f.File, f.Line)
}

// Stack is a captured call stack, innermost frame first.
type Stack []Frame

// Lines renders the stack two lines per frame: the function, then the
// tab-indented file:line.
func (s Stack) Lines() []string {
	lines := make([]string, 0, 2*len(s))
	for _, f := range s {
		lines = append(lines, strings.Split(f.String(), "\n")...)
	}
	return lines
}

// AssertionFailure is raised by a failing assertion. Stack is captured
// where the failure was created and starts at the user's call site.
type AssertionFailure struct {
	Message string
	Stack   Stack
}

// NewFailure builds a failure with message and the caller's stack.
func NewFailure(format string, args ...any) *AssertionFailure {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		msg = "assertion failed"
	}
	return &AssertionFailure{Message: msg, Stack: CaptureStack()}
}

func (f *AssertionFailure) Error() string {
	return "assertion failed: " + f.Message
}

// CaptureStack returns the current stack with harness frames trimmed
// from the top and runner frames trimmed from the bottom.
func CaptureStack() Stack {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(2, pcs)

	var all Stack
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		all = append(all, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return trim(all)
}

// trim drops harness frames from the top, everything from the runner
// down, and the generated invoker closures just above the runner.
func trim(all Stack) Stack {
	start := 0
	for start < len(all) && hasPrefix(all[start].Function, harnessPrefixes) {
		start++
	}
	end := start
	for end < len(all) && !hasPrefix(all[end].Function, bottomPrefixes) {
		end++
	}
	for end > start && isInvoker(all[end-1].Function) {
		end--
	}
	return append(Stack(nil), all[start:end]...)
}

func isInvoker(function string) bool {
	return strings.Contains(function, invokerMark)
}

func hasPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

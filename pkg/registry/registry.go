// Package registry holds the metadata fact base the harness runs from:
// every class and method of the program under test, their signatures,
// and the markers attached to them.
//
// The registry is built once, usually by code that `spyunit gen`
// writes into each package, and is read-only afterwards. The runner
// never inspects Go types directly; it only queries this table.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// TestPrefix is the reserved method-name prefix that makes a method of
// a test case a test method.
const TestPrefix = "test_"

// GeneratedFile is the file name `spyunit gen` writes into each
// package. Stack traces drop frames that belong to it.
const GeneratedFile = "zz_unittest_registry.go"

// ErrNotFound is returned by Resolve for identifiers that are not in
// the registry.
var ErrNotFound = errors.New("entity not found")

// EntityID is the stable identifier of a declared method or function:
// its qualified name followed by its signature, for example
// "example.ExampleClass.Identity(int) int".
type EntityID string

// ClassID identifies a declared type, for example "example.ExampleClass".
type ClassID string

// Invoker calls a test method on recv. args carries the spy when the
// method accepts one. A non-nil error is the method's own return value.
type Invoker func(recv any, args ...any) error

// MethodMetadata describes one declared method or function.
type MethodMetadata struct {
	// ID is the entity identifier.
	ID EntityID

	// Class is the declaring class. Build fills it in when empty;
	// package-level functions belong to the class named after their
	// package.
	Class ClassID

	// Name is the bare method name.
	Name string

	// Params are the parameter type strings, receiver excluded.
	Params []string

	// Results are the result type strings.
	Results []string

	// Markers are the structured annotations attached to the method,
	// in declaration order.
	Markers []Marker

	// Location is the source position of the declaration.
	Location string

	// Complexity is the cyclomatic complexity of the body, 0 when unknown.
	Complexity int

	// Invoke calls the method. It is only set for test methods.
	Invoke Invoker
}

// IsTest reports whether the method name carries the reserved test prefix.
func (m *MethodMetadata) IsTest() bool {
	return strings.HasPrefix(m.Name, TestPrefix)
}

// Class describes a declared type and the methods declared on it.
type Class struct {
	// ID is the class identifier.
	ID ClassID

	// Name is the bare type name.
	Name string

	// TestCase is set for types that embed unittest.TestCase.
	TestCase bool

	// New returns a fresh instance. Required for test cases.
	New func() any

	// Methods are the declared methods in source order.
	Methods []MethodMetadata
}

// TestCaseDescriptor is the discovery view of one test case: the class
// and its test methods, in declaration order.
type TestCaseDescriptor struct {
	Class   ClassID
	Name    string
	New     func() any
	Methods []*MethodMetadata
}

// Registry is the immutable metadata table.
type Registry struct {
	classes []*Class
	methods map[EntityID]*MethodMetadata
}

// Build validates classes and returns the frozen registry. Definition
// errors (duplicate identifiers, malformed markers, patch targets that
// do not resolve) are all collected and returned together.
func Build(classes ...Class) (*Registry, error) {
	r := &Registry{methods: make(map[EntityID]*MethodMetadata)}

	var errs []error
	seenClass := make(map[ClassID]bool)
	for i := range classes {
		c := classes[i]
		if c.ID == "" {
			errs = append(errs, &DefinitionError{Reason: "class with empty identifier"})
			continue
		}
		if seenClass[c.ID] {
			errs = append(errs, &DefinitionError{Class: c.ID, Reason: "duplicate class"})
			continue
		}
		seenClass[c.ID] = true

		// Copy so callers cannot mutate the registry afterwards.
		c.Methods = append([]MethodMetadata(nil), c.Methods...)
		for j := range c.Methods {
			m := &c.Methods[j]
			if m.Class == "" {
				m.Class = c.ID
			}
			if _, dup := r.methods[m.ID]; dup {
				errs = append(errs, &DefinitionError{Class: c.ID, Method: m.ID, Reason: "duplicate method"})
				continue
			}
			r.methods[m.ID] = m
		}
		r.classes = append(r.classes, &c)
	}

	// Patch targets may point at any class, so markers are checked once
	// every method is known.
	for _, c := range r.classes {
		for j := range c.Methods {
			m := &c.Methods[j]
			if r.methods[m.ID] != m {
				continue
			}
			req, err := m.PatchRequest()
			if errors.Is(err, ErrNoMarker) {
				continue
			}
			if err != nil {
				errs = append(errs, &DefinitionError{Class: c.ID, Method: m.ID, Reason: err.Error()})
				continue
			}
			if _, ok := r.methods[req.Target]; !ok {
				errs = append(errs, &DefinitionError{
					Class:  c.ID,
					Method: m.ID,
					Reason: fmt.Sprintf("patch target %q: %v", req.Target, ErrNotFound),
				})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// MustBuild is like Build but panics on definition errors.
func MustBuild(classes ...Class) *Registry {
	r, err := Build(classes...)
	if err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	return r
}

// ListTestCases returns every test case with its test methods, in
// declaration order.
func (r *Registry) ListTestCases() []TestCaseDescriptor {
	var out []TestCaseDescriptor
	for _, c := range r.classes {
		if !c.TestCase {
			continue
		}
		d := TestCaseDescriptor{Class: c.ID, Name: c.Name, New: c.New}
		for j := range c.Methods {
			if c.Methods[j].IsTest() {
				d.Methods = append(d.Methods, &c.Methods[j])
			}
		}
		out = append(out, d)
	}
	return out
}

// Resolve looks up the metadata for id.
func (r *Registry) Resolve(id EntityID) (*MethodMetadata, error) {
	m, ok := r.methods[id]
	if !ok {
		return nil, fmt.Errorf("resolving %q: %w", id, ErrNotFound)
	}
	return m, nil
}

// Classes returns every registered class in declaration order.
func (r *Registry) Classes() []*Class {
	return append([]*Class(nil), r.classes...)
}

// Len returns the number of registered methods and functions.
func (r *Registry) Len() int {
	return len(r.methods)
}

// DefinitionError reports a suite that cannot be constructed.
type DefinitionError struct {
	Class  ClassID
	Method EntityID
	Reason string
}

func (e *DefinitionError) Error() string {
	switch {
	case e.Method != "":
		return fmt.Sprintf("definition error in %s: %s", e.Method, e.Reason)
	case e.Class != "":
		return fmt.Sprintf("definition error in %s: %s", e.Class, e.Reason)
	default:
		return "definition error: " + e.Reason
	}
}

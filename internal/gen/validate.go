package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unbound-force/spyunit/pkg/registry"
)

// RegistryClasses converts the scan result into registry classes, without
// factories or invokers. Package-level functions are listed under a
// class named after the package.
func (p *Package) RegistryClasses() []registry.Class {
	var out []registry.Class
	for _, c := range p.Classes {
		rc := registry.Class{ID: p.ClassID(c), Name: c.Name, TestCase: c.TestCase}
		for _, m := range c.Methods {
			rc.Methods = append(rc.Methods, m.metadata(rc.ID))
		}
		out = append(out, rc)
	}
	if len(p.Funcs) > 0 {
		rc := registry.Class{ID: registry.ClassID(p.Name), Name: p.Name}
		for _, m := range p.Funcs {
			rc.Methods = append(rc.Methods, m.metadata(""))
		}
		out = append(out, rc)
	}
	return out
}

func (m *Method) metadata(class registry.ClassID) registry.MethodMetadata {
	return registry.MethodMetadata{
		ID:         m.ID,
		Class:      class,
		Name:       m.Name,
		Params:     m.Params,
		Results:    m.Results,
		Markers:    m.Markers,
		Location:   m.Location,
		Complexity: m.Complexity,
	}
}

// Validate checks the scanned packages as one suite: marker syntax,
// patch targets across every package, and test-method signatures. All
// problems are returned together.
func Validate(pkgs []*Package) error {
	var (
		classes []registry.Class
		errs    []error
	)
	for _, p := range pkgs {
		classes = append(classes, p.RegistryClasses()...)
		for _, c := range p.Classes {
			for _, m := range c.Methods {
				errs = append(errs, m.check(p.ClassID(c))...)
			}
		}
		for _, m := range p.Funcs {
			errs = append(errs, m.check("")...)
		}
	}
	if _, err := registry.Build(classes...); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Method) check(class registry.ClassID) []error {
	var errs []error
	fail := func(reason string) {
		errs = append(errs, &registry.DefinitionError{Class: class, Method: m.ID, Reason: reason})
	}
	for _, err := range m.directiveErrs {
		fail(err.Error())
	}

	md := m.metadata(class)
	_, err := md.PatchRequest()
	hasPatch := err == nil || !errors.Is(err, registry.ErrNoMarker)
	if hasPatch && !m.IsTest {
		fail(fmt.Sprintf("%s marker on a method that is not a test method", registry.PatchMarker))
	}
	if !m.IsTest {
		return errs
	}

	switch {
	case len(m.Params) == 0:
	case m.TakesSpy:
		if !hasPatch {
			fail("test method takes a spy but has no patch marker")
		}
	default:
		fail(fmt.Sprintf("test method parameters (%s): want none or (*patch.Spy)", strings.Join(m.Params, ", ")))
	}
	if len(m.Results) > 0 && !m.ReturnsError {
		fail(fmt.Sprintf("test method results (%s): want none or error", strings.Join(m.Results, ", ")))
	}
	return errs
}

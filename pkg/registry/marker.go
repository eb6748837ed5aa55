package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// PatchMarker is the marker name that requests a patch.
const PatchMarker = "patch"

// DirectivePrefix introduces a marker in a doc comment:
//
//	//unittest:patch "example.ExampleClass.Identity(int) int"
const DirectivePrefix = "//unittest:"

// ErrNoMarker is returned when a method carries no marker of the
// requested name.
var ErrNoMarker = errors.New("marker not present")

// Marker is a structured annotation attached to a method.
type Marker struct {
	Name string
	Args []string
}

// MarkerError reports a marker whose argument list does not have the
// expected shape.
type MarkerError struct {
	Name   string
	Want   int
	Got    int
	Detail string
}

func (e *MarkerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("marker %q: %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("marker %q: expected %d argument(s), got %d", e.Name, e.Want, e.Got)
}

// PatchRequest is a test method's request to patch one target.
type PatchRequest struct {
	Target EntityID
}

// Marker returns the arguments of the marker called name. It returns
// ErrNoMarker when the marker is absent and a *MarkerError when it
// appears more than once or has other than arity arguments.
func (m *MethodMetadata) Marker(name string, arity int) ([]string, error) {
	var found *Marker
	for i := range m.Markers {
		if m.Markers[i].Name != name {
			continue
		}
		if found != nil {
			return nil, &MarkerError{Name: name, Detail: "declared more than once"}
		}
		found = &m.Markers[i]
	}
	if found == nil {
		return nil, fmt.Errorf("%s on %s: %w", name, m.ID, ErrNoMarker)
	}
	if len(found.Args) != arity {
		return nil, &MarkerError{Name: name, Want: arity, Got: len(found.Args)}
	}
	return found.Args, nil
}

// PatchRequest parses the patch marker of m.
func (m *MethodMetadata) PatchRequest() (*PatchRequest, error) {
	args, err := m.Marker(PatchMarker, 1)
	if err != nil {
		return nil, err
	}
	target := strings.TrimSpace(args[0])
	if target == "" {
		return nil, &MarkerError{Name: PatchMarker, Detail: "empty target"}
	}
	return &PatchRequest{Target: EntityID(target)}, nil
}

// ParseDirective parses a single comment line. ok is false for lines
// that are not marker directives.
func ParseDirective(line string) (mk Marker, ok bool, err error) {
	if !strings.HasPrefix(line, DirectivePrefix) {
		return Marker{}, false, nil
	}
	rest := strings.TrimPrefix(line, DirectivePrefix)
	name, args, _ := strings.Cut(rest, " ")
	if name == "" {
		return Marker{}, true, &MarkerError{Detail: "missing marker name"}
	}
	fields, err := splitArgs(args)
	if err != nil {
		return Marker{}, true, &MarkerError{Name: name, Detail: err.Error()}
	}
	return Marker{Name: name, Args: fields}, true, nil
}

// splitArgs splits on whitespace, keeping double-quoted and
// back-quoted arguments whole.
func splitArgs(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return out, nil
		}
		if s[0] == '"' || s[0] == '`' {
			q, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, fmt.Errorf("unterminated quoted argument")
			}
			v, _ := strconv.Unquote(q)
			out = append(out, v)
			s = s[len(q):]
			continue
		}
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			end = len(s)
		}
		out = append(out, s[:end])
		s = s[end:]
	}
}

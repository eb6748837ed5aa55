package unittest

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// Repr returns the canonical representation of v used in failure
// messages: strings quoted, nil as "nil", everything else via %v.
func Repr(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case error:
		return strconv.Quote(x.Error())
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

// ReprArgs renders an argument tuple, e.g. (5, "x").
func ReprArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Repr(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ReprPair renders two compared values. When both render the same, as
// int64(3) and 3 do, each is prefixed with its type.
func ReprPair(a, b any) (string, string) {
	ra, rb := Repr(a), Repr(b)
	if ra != rb {
		return ra, rb
	}
	return typed(a, ra), typed(b, rb)
}

// ReprArgsPair is ReprPair for argument tuples.
func ReprArgsPair(a, b []any) (string, string) {
	ra, rb := ReprArgs(a), ReprArgs(b)
	if ra != rb {
		return ra, rb
	}
	return typedArgs(a), typedArgs(b)
}

func typed(v any, repr string) string {
	return fmt.Sprintf("%T(%s)", v, repr)
}

func typedArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = typed(a, Repr(a))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// diff returns a go-cmp diff for composite values, or "" when the
// values are scalars or cannot be diffed.
func diff(expected, actual any) (d string) {
	if !isComposite(expected) && !isComposite(actual) {
		return ""
	}
	defer func() {
		if recover() != nil {
			d = ""
		}
	}()
	return cmp.Diff(expected, actual, cmp.Exporter(func(reflect.Type) bool { return true }))
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
		return true
	case reflect.Pointer:
		return reflect.TypeOf(v).Elem().Kind() == reflect.Struct
	}
	return false
}

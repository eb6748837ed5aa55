package unittest

import (
	"reflect"

	"github.com/stretchr/testify/assert"
)

// The check functions below are the pure form of the assertion
// library: they return nil on success and a failure otherwise, and
// never abort the caller. TestCase wraps them.

// Equal checks actual == expected.
func Equal(actual, expected any) *AssertionFailure {
	if assert.ObjectsAreEqual(expected, actual) {
		return nil
	}
	ra, re := ReprPair(actual, expected)
	if d := diff(expected, actual); d != "" {
		return NewFailure("%s != %s\n\ndiff (-expected +actual):\n%s", ra, re, d)
	}
	return NewFailure("%s != %s", ra, re)
}

// NotEqual checks actual != expected.
func NotEqual(actual, expected any) *AssertionFailure {
	if !assert.ObjectsAreEqual(expected, actual) {
		return nil
	}
	return NewFailure("%s == %s", Repr(actual), Repr(expected))
}

// True checks that v is truthy.
func True(v any) *AssertionFailure {
	if Truthy(v) {
		return nil
	}
	return NewFailure("%s is not true", Repr(v))
}

// False checks that v is falsy.
func False(v any) *AssertionFailure {
	if !Truthy(v) {
		return nil
	}
	return NewFailure("%s is not false", Repr(v))
}

// IsNull checks that v is nil or the zero value of its type.
func IsNull(v any) *AssertionFailure {
	if Null(v) {
		return nil
	}
	return NewFailure("%s is not null", Repr(v))
}

// IsNotNull checks that v is neither nil nor the zero value of its type.
func IsNotNull(v any) *AssertionFailure {
	if !Null(v) {
		return nil
	}
	return NewFailure("unexpectedly null: %s", Repr(v))
}

// Truthy converts v to a boolean: bools as is, nil false, numbers
// non-zero, strings and collections non-empty, references non-nil,
// and any other value true.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Complex64, reflect.Complex128:
		return rv.Complex() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array, reflect.Chan:
		if rv.Kind() != reflect.Array && rv.Kind() != reflect.String && rv.IsNil() {
			return false
		}
		return rv.Len() > 0
	case reflect.Pointer, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return !rv.IsNil()
	}
	return true
}

// Null reports whether v is nil or the zero value of its type.
func Null(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}

package patch

import (
	"fmt"
	"reflect"

	"github.com/unbound-force/spyunit/pkg/registry"
)

// Kind says whether a slot wraps a method or a plain function.
type Kind int

const (
	// KindFunc slots record every argument.
	KindFunc Kind = iota

	// KindMethod slots take the receiver as their first parameter and
	// do not record it.
	KindMethod
)

// Slot is the indirection point of one patchable method or function.
// F is the func type the call sites invoke; for methods it is the
// method expression type, receiver first.
type Slot[F any] struct {
	entity   registry.EntityID
	k        Kind
	fnType   reflect.Type
	original F
	current  F
	spy      *Spy
}

// Func registers a patchable function in the Default table.
func Func[F any](id registry.EntityID, impl F) *Slot[F] {
	return Register(Default, id, impl, KindFunc)
}

// Method registers a patchable method in the Default table. impl is
// the method expression, e.g. (*ExampleClass).identity.
func Method[F any](id registry.EntityID, impl F) *Slot[F] {
	return Register(Default, id, impl, KindMethod)
}

// Register adds a slot for id to t. It panics when F is not a func
// type, when a method slot has no receiver parameter, or when id is
// already registered; all three are programming errors caught at init.
func Register[F any](t *Table, id registry.EntityID, impl F, k Kind) *Slot[F] {
	ft := reflect.TypeOf((*F)(nil)).Elem()
	if ft.Kind() != reflect.Func {
		panic(fmt.Sprintf("patch: slot %q: %s is not a func type", id, ft))
	}
	if k == KindMethod && ft.NumIn() == 0 {
		panic(fmt.Sprintf("patch: slot %q: method type %s has no receiver", id, ft))
	}
	if reflect.ValueOf(&impl).Elem().IsNil() {
		panic(fmt.Sprintf("patch: slot %q: nil implementation", id))
	}
	s := &Slot[F]{
		entity:   id,
		k:        k,
		fnType:   ft,
		original: impl,
		current:  impl,
	}
	t.add(s)
	return s
}

// Fn returns the implementation calls must go through: the original,
// or the spy's stub while a spy is installed.
func (s *Slot[F]) Fn() F {
	return s.current
}

// ID returns the slot's entity identifier.
func (s *Slot[F]) ID() registry.EntityID { return s.entity }

func (s *Slot[F]) id() registry.EntityID { return s.entity }

func (s *Slot[F]) kind() Kind { return s.k }

func (s *Slot[F]) active() *Spy { return s.spy }

func (s *Slot[F]) install(spy *Spy) {
	spy.target = s.entity
	s.spy = spy
	s.current = s.stub(spy)
}

func (s *Slot[F]) restore() {
	s.current = s.original
	s.spy = nil
}

// stub builds a function of type F that records into spy and returns
// zero values.
func (s *Slot[F]) stub(spy *Spy) F {
	ft := s.fnType
	skip := 0
	if s.k == KindMethod {
		skip = 1
	}
	fn := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		spy.record(flattenArgs(ft, in, skip))
		out := make([]reflect.Value, ft.NumOut())
		for i := range out {
			out[i] = reflect.Zero(ft.Out(i))
		}
		return out
	})
	return fn.Interface().(F)
}

// flattenArgs converts the incoming values into recorded arguments,
// dropping the receiver and expanding a variadic tail.
func flattenArgs(ft reflect.Type, in []reflect.Value, skip int) []any {
	args := make([]any, 0, len(in))
	for i := skip; i < len(in); i++ {
		if ft.IsVariadic() && i == len(in)-1 {
			tail := in[i]
			for j := 0; j < tail.Len(); j++ {
				args = append(args, decay(tail.Index(j)))
			}
			continue
		}
		args = append(args, decay(in[i]))
	}
	return args
}

// decay returns a value copy of v. Slices and maps are cloned one level
// deep so later mutation by the caller does not change the record.
func decay(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v.Interface()
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(c, v)
		return c.Interface()
	case reflect.Map:
		if v.IsNil() {
			return v.Interface()
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), iter.Value())
		}
		return c.Interface()
	}
	return v.Interface()
}

// Package patch provides the indirection points that let a test swap a
// method's implementation for a recording spy, and the spy itself.
//
// A patchable method routes its body through a Slot:
//
//	var identitySlot = patch.Method(
//		"example.ExampleClass.Identity(int) int",
//		(*ExampleClass).identity,
//	)
//
//	func (c *ExampleClass) Identity(v int) int {
//		return identitySlot.Fn()(c, v)
//	}
//
// While a spy is installed every call, on any instance, reaches the
// spy instead of the original body. The spy records the arguments and
// returns the zero value of each result type.
package patch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/unbound-force/spyunit/pkg/registry"
)

var (
	// ErrUnknownTarget is returned when no slot is registered for an
	// identifier.
	ErrUnknownTarget = errors.New("no patchable slot registered")

	// ErrAlreadyPatched is returned when a target already has an active
	// spy.
	ErrAlreadyPatched = errors.New("target already patched")
)

// Default is the table slots register into unless told otherwise.
var Default = NewTable()

// target is the type-erased view of a Slot.
type target interface {
	id() registry.EntityID
	kind() Kind
	install(s *Spy)
	restore()
	active() *Spy
}

// Table is the dispatch table: one slot per patchable identifier.
// Access is single-threaded, matching the sequential runner.
type Table struct {
	slots map[registry.EntityID]target
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{slots: make(map[registry.EntityID]target)}
}

func (t *Table) add(tg target) {
	if _, dup := t.slots[tg.id()]; dup {
		panic(fmt.Sprintf("patch: duplicate slot %q", tg.id()))
	}
	t.slots[tg.id()] = tg
}

// Has reports whether id has a registered slot.
func (t *Table) Has(id registry.EntityID) bool {
	_, ok := t.slots[id]
	return ok
}

// IDs returns the registered identifiers, sorted.
func (t *Table) IDs() []registry.EntityID {
	ids := make([]registry.EntityID, 0, len(t.slots))
	for id := range t.slots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Active returns the spy currently installed on id, or nil.
func (t *Table) Active(id registry.EntityID) *Spy {
	tg, ok := t.slots[id]
	if !ok {
		return nil
	}
	return tg.active()
}

// Install redirects every call of id to s until the returned restore
// function is called. restore is idempotent.
func (t *Table) Install(id registry.EntityID, s *Spy) (restore func(), err error) {
	tg, ok := t.slots[id]
	if !ok {
		return nil, fmt.Errorf("installing spy on %q: %w", id, ErrUnknownTarget)
	}
	if tg.active() != nil {
		return nil, fmt.Errorf("installing spy on %q: %w", id, ErrAlreadyPatched)
	}
	tg.install(s)
	done := false
	return func() {
		if done {
			return
		}
		done = true
		tg.restore()
	}, nil
}

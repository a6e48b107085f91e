package advice

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// A Table owns named slots and resolves calls through them. It is safe for
// concurrent use.
type Table struct {
	mu    sync.RWMutex
	slots map[string]*Slot
}

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{
		slots: make(map[string]*Slot),
	}
}

// Define binds fn under namespace and name, creating the slot on first
// use and returning it. Re-defining an existing name re-binds the slot's
// base function in place, so references to the slot stay valid. A nil fn
// declares the slot without binding a function to it.
func (t *Table) Define(namespace, name string, fn Func) *Slot {
	mustHaveValidName(namespace, name)

	t.mu.Lock()
	defer t.mu.Unlock()

	key := namespace + "/" + name
	if s, ok := t.slots[key]; ok {
		s.rebind(fn)
		return s
	}

	s := &Slot{namespace: namespace, name: name}
	if fn != nil {
		s.base = fn
	}

	t.slots[key] = s

	return s
}

// mustHaveValidName rejects names that would collide under the "ns/name"
// qualified form, so two distinct identities never alias one slot.
func mustHaveValidName(namespace, name string) {
	if namespace == "" {
		panic("advice: namespace must not be empty")
	}

	if name == "" {
		panic("advice: name must not be empty")
	}

	if strings.Contains(namespace, "/") || strings.Contains(name, "/") {
		panic("advice: namespace and name must not contain '/'")
	}
}

// Lookup returns the slot defined under namespace and name.
func (t *Table) Lookup(namespace, name string) (*Slot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.slots[namespace+"/"+name]

	return s, ok
}

// Call dispatches a call through the named slot.
func (t *Table) Call(
	ctx context.Context,
	namespace, name string,
	args ...any,
) (any, error) {
	s, ok := t.Lookup(namespace, name)
	if !ok {
		return nil, &UnboundError{Namespace: namespace, Name: name}
	}

	return s.Call(ctx, args...)
}

// Slots returns every slot in the table, ordered by qualified name.
func (t *Table) Slots() []*Slot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slots := make([]*Slot, 0, len(t.slots))
	for _, s := range t.slots {
		slots = append(slots, s)
	}

	sortSlots(slots)

	return slots
}

// Namespace returns every slot defined under the given namespace label,
// ordered by qualified name.
func (t *Table) Namespace(namespace string) []*Slot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slots := make([]*Slot, 0)
	for _, s := range t.slots {
		if s.namespace == namespace {
			slots = append(slots, s)
		}
	}

	sortSlots(slots)

	return slots
}

func sortSlots(slots []*Slot) {
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].String() < slots[j].String()
	})
}

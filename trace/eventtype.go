package trace

import "sync"

// TypeTable interns event-type definitions and assigns stable numeric ids
// starting from 1; 0 is the reserved "no type" sentinel. Lifetime is the
// owning Database (spec.md §4.1).
type TypeTable struct {
	mu      sync.RWMutex
	byName  map[string]*EventType
	byID    []*EventType // index 0 unused
	nextID  uint32
}

// NewTypeTable constructs an empty table with id 1 as the next id to assign.
func NewTypeTable() *TypeTable {
	return &TypeTable{
		byName: make(map[string]*EventType),
		byID:   []*EventType{nil},
		nextID: 1,
	}
}

// Define interns an event type by name. A repeat definition with the same
// name returns the existing entry unchanged, even if the descriptor given
// now differs from the one on file — descriptor diffing is left as a future
// extension (spec.md §4.1, §9 open question).
func (t *TypeTable) Define(name string, class EventClass, flags EventFlags, args []ArgSpec) *EventType {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.byName[name]; ok {
		return existing
	}
	et := &EventType{
		ID:        t.nextID,
		Name:      name,
		Class:     class,
		Flags:     flags,
		Arguments: args,
	}
	t.nextID++
	t.byName[name] = et
	t.byID = append(t.byID, et)
	return et
}

// ByID looks up a type by its numeric id. Returns nil if not found or id==0.
func (t *TypeTable) ByID(id uint32) *EventType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id == 0 || int(id) >= len(t.byID) {
		return nil
	}
	return t.byID[id]
}

// ByName looks up a type by its interned name.
func (t *TypeTable) ByName(name string) *EventType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byName[name]
}

// resolveOnDemand defines-or-fetches a type materialized from an event's
// "name" argument, used by the scope rebuilder for wtf.scope#enter and
// wtf.trace#timeStamp (spec.md §4.3, §9 "on-demand event types").
func (t *TypeTable) resolveOnDemand(name string, class EventClass) *EventType {
	if et := t.ByName(name); et != nil {
		return et
	}
	return t.Define(name, class, 0, nil)
}

package trace

import "sort"

// EventIterator is a cursor into an EventStore's packed buffer, optionally
// bounded to [first, last] or redirected through an explicit ordering of
// record indices (see beginIndirect). It is only valid until the next
// Rebuild or a capacity-growing Insert (spec.md §4.3, §5).
type EventIterator struct {
	store *EventStore

	first, last int // inclusive record-index bounds when indirect == nil
	pos         int // current record index

	indirect []int // optional explicit ordering of record indices
	indirPos int   // position within indirect, when indirect != nil

	parentCache *EventIterator
}

func (s *EventStore) begin() *EventIterator {
	return s.Begin()
}

// Begin returns an iterator over the whole store in sorted order.
func (s *EventStore) Begin() *EventIterator {
	if s.count == 0 {
		return &EventIterator{store: s, first: 0, last: -1, pos: 0}
	}
	return &EventIterator{store: s, first: 0, last: s.count - 1, pos: 0}
}

// newIteratorAt returns a single-position iterator, used internally by the
// ancillary-rebuild dispatcher so subscribers get a fresh, non-shared cursor
// per event (spec.md §4.4: "a fresh seek is performed by the driver between
// dispatches").
func (s *EventStore) newIteratorAt(pos int) *EventIterator {
	return &EventIterator{store: s, first: pos, last: pos, pos: pos}
}

// GetEvent returns an iterator positioned at a single record id, free to
// navigate anywhere in the store via Parent/NextSibling/MoveToParent (only
// linear Next()/NextScope()/NextInstance() are bounded to the rest of the
// buffer), or a Done() iterator if id is out of range.
func (s *EventStore) GetEvent(id int) *EventIterator {
	if id < 0 || id >= s.count {
		return &EventIterator{store: s, first: 0, last: -1, pos: 0}
	}
	return &EventIterator{store: s, first: 0, last: s.count - 1, pos: id}
}

// IndexOfEventNearTime returns the largest record index whose TIME (µs) is
// <= tMs, or 0 if none (spec.md §4.3).
func (s *EventStore) IndexOfEventNearTime(tMs int64) int {
	if s.count == 0 {
		return 0
	}
	tUs := tMs * 1000
	idx := sort.Search(s.count, func(i int) bool {
		return int64(s.cellsFor(i)[fieldTime]) > tUs
	})
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// IndexOfRootScopeIncludingTime walks parents up to depth 0 from the event
// nearest tMs; if that root is a scope spanning tMs it is returned, else the
// near-index itself is returned (spec.md §4.3 — lets painters render a scope
// that begins off-screen-left but spans the viewport).
func (s *EventStore) IndexOfRootScopeIncludingTime(tMs int64) int {
	near := s.IndexOfEventNearTime(tMs)
	if s.count == 0 {
		return near
	}
	idx := near
	for {
		p := s.cellsFor(idx)[fieldParent]
		if p == noParent {
			break
		}
		idx = int(p)
	}
	rec := s.cellsFor(idx)
	endUs := rec[fieldEndTime]
	tUs := tMs * 1000
	if endUs != 0 && int64(endUs) >= tUs {
		return idx
	}
	return near
}

// BeginTimeRange returns an iterator bounded to [start, end] ms. When
// fromRoot is true, the lower bound is widened to the root scope enclosing
// start, so a scope beginning before the window is still included.
func (s *EventStore) BeginTimeRange(startMs, endMs int64, fromRoot bool) *EventIterator {
	if s.count == 0 {
		return &EventIterator{store: s, first: 0, last: -1, pos: 0}
	}
	firstIdx := s.IndexOfEventNearTime(startMs)
	if fromRoot {
		firstIdx = s.IndexOfRootScopeIncludingTime(startMs)
	}
	lastIdx := s.IndexOfEventNearTime(endMs)
	if lastIdx < firstIdx {
		lastIdx = firstIdx
	}
	return &EventIterator{store: s, first: firstIdx, last: lastIdx, pos: firstIdx}
}

// BeginEventRange returns an iterator bounded to record indices [lo, hi].
func (s *EventStore) BeginEventRange(lo, hi int) *EventIterator {
	if lo < 0 {
		lo = 0
	}
	if hi > s.count-1 {
		hi = s.count - 1
	}
	return &EventIterator{store: s, first: lo, last: hi, pos: lo}
}

// beginIndirect returns an iterator that walks an explicit, externally
// supplied ordering of record indices. Nothing in this module calls it; the
// query engine's results carry query.Match values instead of an iterator.
func (s *EventStore) beginIndirect(order []int) *EventIterator {
	it := &EventIterator{store: s, indirect: order}
	if len(order) > 0 {
		it.pos = order[0]
	}
	return it
}

func (it *EventIterator) cells() []uint32 {
	return it.store.cellsFor(it.pos)
}

// Done reports whether the cursor has exhausted its bounds.
func (it *EventIterator) Done() bool {
	if it.indirect != nil {
		return it.indirPos >= len(it.indirect)
	}
	return it.first > it.last || it.pos > it.last || it.pos < it.first
}

// Next advances the cursor by one position.
func (it *EventIterator) Next() {
	if it.indirect != nil {
		it.indirPos++
		if it.indirPos < len(it.indirect) {
			it.pos = it.indirect[it.indirPos]
		}
		return
	}
	it.pos++
}

// Seek repositions the cursor at a record index (ignored for indirect
// iterators, which only move through their supplied ordering).
func (it *EventIterator) Seek(id int) {
	if it.indirect != nil {
		return
	}
	it.pos = id
}

// NextScope advances to the next record whose END_TIME cell is non-zero.
func (it *EventIterator) NextScope() {
	for {
		it.Next()
		if it.Done() || it.IsScope() {
			return
		}
	}
}

// NextInstance advances to the next record whose END_TIME cell is zero.
func (it *EventIterator) NextInstance() {
	for {
		it.Next()
		if it.Done() || it.IsInstance() {
			return
		}
	}
}

// NextSibling follows the NEXT_SIBLING cell; a 0 value leaves the cursor
// Done (spec.md §3, §9 — 0 is the unambiguous end-of-chain sentinel).
func (it *EventIterator) NextSibling() {
	if it.Done() {
		return
	}
	next := it.cells()[fieldNextSibling]
	if next == noSibling {
		it.pos = it.last + 1
		return
	}
	it.Seek(int(next))
}

// MoveToParent repositions the cursor at its PARENT record, or leaves it
// Done if already at a root.
func (it *EventIterator) MoveToParent() {
	if it.Done() {
		return
	}
	p := it.cells()[fieldParent]
	if p == noParent {
		it.pos = it.last + 1
		return
	}
	it.Seek(int(p))
}

// Parent returns a cursor at this record's parent. With fast=true, the
// returned cursor is cached on this iterator and reused across calls to
// avoid allocation; callers must not retain it across the next Parent(true)
// call (spec.md §4.3).
func (it *EventIterator) Parent(fast bool) *EventIterator {
	if it.Done() {
		return &EventIterator{store: it.store, first: 0, last: -1}
	}
	p := it.cells()[fieldParent]
	if p == noParent {
		return &EventIterator{store: it.store, first: 0, last: -1}
	}
	if fast {
		if it.parentCache == nil {
			it.parentCache = &EventIterator{store: it.store}
		}
		it.parentCache.indirect = nil
		it.parentCache.first = int(p)
		it.parentCache.last = int(p)
		it.parentCache.pos = int(p)
		return it.parentCache
	}
	return it.store.GetEvent(int(p))
}

// --- accessors ---

func (it *EventIterator) ID() int       { return int(it.cells()[fieldID]) }
func (it *EventIterator) TypeID() uint32 { return it.cells()[fieldType] }

func (it *EventIterator) eventType() *EventType {
	return it.store.types.ByID(it.TypeID())
}

func (it *EventIterator) TypeFlags() EventFlags {
	if et := it.eventType(); et != nil {
		return et.Flags
	}
	return 0
}

func (it *EventIterator) Name() string {
	if et := it.eventType(); et != nil {
		return et.Name
	}
	return ""
}

func (it *EventIterator) IsScope() bool    { return it.cells()[fieldEndTime] != 0 }
func (it *EventIterator) IsInstance() bool { return it.cells()[fieldEndTime] == 0 }
func (it *EventIterator) Depth() int       { return int(it.cells()[fieldDepth]) }

func (it *EventIterator) TimeMs() int64 {
	return int64(it.cells()[fieldTime]) / 1000
}

func (it *EventIterator) EndTimeMs() int64 {
	end := it.cells()[fieldEndTime]
	if end == 0 {
		return it.TimeMs()
	}
	return int64(end) / 1000
}

func (it *EventIterator) TotalDurationMs() float64 {
	c := it.cells()
	end := c[fieldEndTime]
	if end == 0 {
		return 0
	}
	return float64(int64(end)-int64(c[fieldTime])) / 1000.0
}

func (it *EventIterator) systemTimeUs() int64 {
	return int64(it.cells()[fieldSystemTime])
}

func (it *EventIterator) childTimeUs() int64 {
	return int64(it.cells()[fieldChildTime])
}

// SystemTimeMs returns the aggregate system-time inside this scope's
// subtree, in milliseconds.
func (it *EventIterator) SystemTimeMs() float64 {
	return float64(it.systemTimeUs()) / 1000.0
}

// ChildTimeMs returns the aggregate direct-child time inside this scope, in
// milliseconds.
func (it *EventIterator) ChildTimeMs() float64 {
	return float64(it.childTimeUs()) / 1000.0
}

func (it *EventIterator) UserDurationMs() float64 {
	return it.TotalDurationMs() - float64(it.systemTimeUs())/1000.0
}

func (it *EventIterator) OwnDurationMs() float64 {
	return it.TotalDurationMs() - float64(it.childTimeUs())/1000.0
}

func (it *EventIterator) Arguments() *ArgumentData {
	return it.store.GetArguments(it.cells()[fieldArguments])
}

func (it *EventIterator) Argument(key string) (Value, bool) {
	return it.Arguments().Get(key)
}

func (it *EventIterator) GetTag() uint32     { return it.cells()[fieldTag] }
func (it *EventIterator) SetTag(v uint32)    { it.cells()[fieldTag] = v }
func (it *EventIterator) GetValue() uint32   { return it.cells()[fieldValue] }
func (it *EventIterator) SetValue(v uint32)  { it.cells()[fieldValue] = v }

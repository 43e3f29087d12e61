package trace

import "sort"

type scopeFrame struct {
	scopeIndex   int
	eventType    uint32
	childTimeUs  int64
	systemTimeUs int64
	// lastChild is the index of the most recently linked direct child of
	// this scope, or -1 if none has been seen yet; used to thread the
	// NEXT_SIBLING chain as children arrive (spec.md §4.3).
	lastChild int
}

// Rebuild finalizes a batch of inserted records: resort, re-scope, then
// ancillary-index rebuild. Each phase completes before the next starts; the
// whole call is a single contiguous operation (spec.md §5 "Rebuilding").
func (s *EventStore) Rebuild() error {
	if s.count == 0 {
		s.rebuilt = true
		return s.rebuildAncillary()
	}
	s.resort()
	s.rescope()
	s.rebuilt = true
	return s.rebuildAncillary()
}

// resort is phase 1: order records by (TIME, original insertion id) and
// renumber each record's ID cell to its new index (spec.md §4.3 phase 1).
func (s *EventStore) resort() {
	order := make([]int, s.count)
	for i := range order {
		order[i] = i
	}
	cellsAt := func(i int) []uint32 {
		base := i * StructSize
		return s.cells[base : base+StructSize]
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := cellsAt(order[a]), cellsAt(order[b])
		ta, tb := ra[fieldTime], rb[fieldTime]
		if ta != tb {
			return ta < tb
		}
		return ra[fieldID] < rb[fieldID]
	})

	newCells := make([]uint32, s.capacity*StructSize)
	for newIdx, oldIdx := range order {
		src := cellsAt(oldIdx)
		dstBase := newIdx * StructSize
		copy(newCells[dstBase:dstBase+StructSize], src)
		newCells[dstBase+fieldID] = uint32(newIdx)
	}
	s.cells = newCells

	first := s.cellsFor(0)
	s.firstTimeUs = int64(first[fieldTime])
	last := s.cellsFor(s.count - 1)
	if last[fieldEndTime] != 0 {
		s.lastTimeUs = int64(last[fieldEndTime])
	} else {
		s.lastTimeUs = int64(last[fieldTime])
	}
}

// rescope is phase 2: a single forward pass reconstructing parent/depth/
// next-sibling/end-time/system-time/child-time via a stack of open scopes
// (spec.md §4.3 phase 2).
func (s *EventStore) rescope() {
	var stack []scopeFrame
	s.maxDepth = 0
	lastRoot := -1

	// linkChild threads record i onto the sibling chain of whatever scope
	// is currently open (or the root chain if none is). It must only be
	// called for records that are themselves direct children of that
	// scope - not for the scope-leave record that closes it, and not for
	// appendData records that get merged away instead of standing as
	// nodes in the tree (spec.md §4.3 invariant: NEXT_SIBLING enumerates
	// exactly a scope's direct children).
	linkChild := func(i int) {
		if len(stack) == 0 {
			if lastRoot >= 0 {
				s.cellsFor(lastRoot)[fieldNextSibling] = uint32(i)
			}
			lastRoot = i
			return
		}
		top := &stack[len(stack)-1]
		if top.lastChild >= 0 {
			s.cellsFor(top.lastChild)[fieldNextSibling] = uint32(i)
		}
		top.lastChild = i
	}

	for i := 0; i < s.count; i++ {
		rec := s.cellsFor(i)

		var parent uint32
		if len(stack) == 0 {
			parent = noParent
		} else {
			parent = uint32(stack[len(stack)-1].scopeIndex)
		}
		depth := len(stack)
		rec[fieldParent] = parent
		rec[fieldDepth] = uint32(depth)
		rec[fieldNextSibling] = noSibling
		if depth > s.maxDepth {
			s.maxDepth = depth
		}

		et := s.types.ByID(rec[fieldType])
		name := ""
		if et != nil {
			name = et.Name
		}

		switch name {
		case TypeScopeEnter:
			linkChild(i)
			resolved := s.resolveScopeName(rec[fieldArguments], ClassScope)
			rec[fieldType] = resolved.ID
			stack = append(stack, scopeFrame{scopeIndex: i, eventType: resolved.ID, lastChild: -1})

		case TypeScopeLeave:
			if len(stack) == 0 {
				// Stray leave with no open scope: ignored, kept as an
				// instance record (spec.md §7 "unknown event referenced
				// at rebuild").
				continue
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			t := int64(rec[fieldTime])
			scopeRec := s.cellsFor(popped.scopeIndex)
			startT := int64(scopeRec[fieldTime])
			duration := t - startT

			scopeRec[fieldEndTime] = uint32(t)
			scopeRec[fieldSystemTime] = uint32(popped.systemTimeUs)
			scopeRec[fieldChildTime] = uint32(popped.childTimeUs)

			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				top.childTimeUs += duration

				var local int64
				if poppedType := s.types.ByID(popped.eventType); poppedType != nil && poppedType.Flags.Has(FlagSystemTime) {
					local = duration
				}
				top.systemTimeUs += popped.systemTimeUs + local
			}

		case TypeScopeAppendData:
			if len(stack) == 0 {
				// No open scope to append to: silently ignored per the
				// open question in spec.md §9.
				continue
			}
			top := stack[len(stack)-1]
			scopeRec := s.cellsFor(top.scopeIndex)
			incoming := s.GetArguments(rec[fieldArguments])
			if incoming == nil {
				continue
			}
			existing := s.GetArguments(scopeRec[fieldArguments])
			merged := existing.Merge(incoming)
			scopeRec[fieldArguments] = s.replaceArguments(scopeRec[fieldArguments], merged)

		case TypeTimeStamp:
			linkChild(i)
			resolved := s.resolveScopeName(rec[fieldArguments], ClassInstance)
			rec[fieldType] = resolved.ID

		default:
			linkChild(i)
			if et != nil && et.Class == ClassScope {
				stack = append(stack, scopeFrame{scopeIndex: i, eventType: et.ID, lastChild: -1})
			}
			// Instance-class (or unknown-type) events: no stack effect.
		}
	}
}

// resolveScopeName reads the "name" argument off a generic enter/timeStamp
// record and resolves or defines the concrete on-demand type for it
// (spec.md §4.3, §9).
func (s *EventStore) resolveScopeName(argID uint32, class EventClass) *EventType {
	args := s.GetArguments(argID)
	name, ok := args.GetString("name")
	if !ok || name == "" {
		name = "wtf.unnamed#" + class.String()
	}
	return s.types.resolveOnDemand(name, class)
}

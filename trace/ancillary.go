package trace

// AncillaryIndex is the pluggable contract derived lists (frames, marks,
// time ranges) implement to subscribe to specific event types and rebuild
// themselves after every ingestion batch (spec.md §4.4).
type AncillaryIndex interface {
	// BeginRebuild declares the subscribed event types; the position of
	// each returned entry is that callback's stable type_index handle.
	// A nil entry means "not present in this store's type table yet".
	BeginRebuild(types *TypeTable) []*EventType

	// HandleEvent is invoked once per matching event in post-sort order.
	// The iterator must not be advanced by the implementation; the driver
	// performs a fresh Seek between dispatches.
	HandleEvent(typeIndex int, eventType *EventType, it *EventIterator)

	// EndRebuild finalizes the index. The built-in indexes (FrameList,
	// MarkList, TimeRangeList) emit no event from it; the INVALIDATED
	// broadcast comes from Database.RebuildZone.
	EndRebuild()
}

// RegisterAncillary attaches index to this store. If the store already has
// committed (rebuilt) events, a single-index rebuild runs immediately so the
// new subscriber is not left empty until the next batch (spec.md §4.3, §9).
func (s *EventStore) RegisterAncillary(index AncillaryIndex) {
	s.ancillary = append(s.ancillary, index)
	if s.rebuilt && s.count > 0 {
		s.dispatchOne(index)
	}
}

// UnregisterAncillary detaches index, if registered, without affecting any
// other subscriber.
func (s *EventStore) UnregisterAncillary(index AncillaryIndex) {
	for i, a := range s.ancillary {
		if a == index {
			s.ancillary = append(s.ancillary[:i], s.ancillary[i+1:]...)
			return
		}
	}
}

// rebuildAncillary is phase 3: every subscribed index is rebuilt from
// scratch against the freshly resorted/rescoped buffer.
func (s *EventStore) rebuildAncillary() error {
	for _, index := range s.ancillary {
		s.dispatchOne(index)
	}
	return nil
}

func (s *EventStore) dispatchOne(index AncillaryIndex) {
	wanted := index.BeginRebuild(s.types)
	if len(wanted) == 0 {
		index.EndRebuild()
		return
	}
	wantByID := make(map[uint32]int, len(wanted))
	for i, et := range wanted {
		if et != nil {
			wantByID[et.ID] = i
		}
	}
	if len(wantByID) > 0 && s.count > 0 {
		it := s.begin()
		for !it.Done() {
			typeID := it.cells()[fieldType]
			if typeIndex, ok := wantByID[typeID]; ok {
				et := s.types.ByID(typeID)
				fresh := s.newIteratorAt(it.pos)
				index.HandleEvent(typeIndex, et, fresh)
			}
			it.Next()
		}
	}
	index.EndRebuild()
}

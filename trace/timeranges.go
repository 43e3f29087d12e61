package trace

import "sort"

// TimeRange is one complete timeRangeStart/timeRangeEnd pair, keyed by name.
type TimeRange struct {
	Name     string
	StartMs  int64
	EndMs    int64
	hasStart bool
	hasEnd   bool
}

// TimeRangeList is the ancillary index for named time ranges, following the
// same shape as FrameList and MarkList (spec.md §4.4).
type TimeRangeList struct {
	byName   map[string]*TimeRange
	dense    []*TimeRange
	startIdx int
	endIdx   int
}

func NewTimeRangeList() *TimeRangeList {
	return &TimeRangeList{byName: make(map[string]*TimeRange)}
}

func (r *TimeRangeList) BeginRebuild(types *TypeTable) []*EventType {
	r.byName = make(map[string]*TimeRange)
	r.dense = nil
	start := types.resolveOnDemand(TypeTimeRangeStart, ClassInstance)
	end := types.resolveOnDemand(TypeTimeRangeEnd, ClassInstance)
	r.startIdx, r.endIdx = 0, 1
	return []*EventType{start, end}
}

func (r *TimeRangeList) HandleEvent(typeIndex int, eventType *EventType, it *EventIterator) {
	name, ok := it.Argument("name")
	if !ok || name.Kind != KindString {
		return
	}
	tr, exists := r.byName[name.Str]
	if !exists {
		tr = &TimeRange{Name: name.Str}
		r.byName[name.Str] = tr
	}
	switch typeIndex {
	case r.startIdx:
		tr.StartMs = it.TimeMs()
		tr.hasStart = true
	case r.endIdx:
		tr.EndMs = it.TimeMs()
		tr.hasEnd = true
	}
}

func (r *TimeRangeList) EndRebuild() {
	r.dense = r.dense[:0]
	for name, tr := range r.byName {
		if tr.hasStart && tr.hasEnd {
			r.dense = append(r.dense, tr)
		} else {
			delete(r.byName, name)
		}
	}
	sort.Slice(r.dense, func(i, j int) bool { return r.dense[i].StartMs < r.dense[j].StartMs })
}

func (r *TimeRangeList) Count() int { return len(r.dense) }

func (r *TimeRangeList) At(i int) *TimeRange {
	if i < 0 || i >= len(r.dense) {
		return nil
	}
	return r.dense[i]
}

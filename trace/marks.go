package trace

import "sort"

// Mark is one complete markStart/markEnd pair, keyed by name.
type Mark struct {
	Name     string
	StartMs  int64
	EndMs    int64
	hasStart bool
	hasEnd   bool
}

// MarkList is the ancillary index for named mark spans, following the same
// shape as FrameList (spec.md §4.4).
type MarkList struct {
	byName   map[string]*Mark
	dense    []*Mark
	startIdx int
	endIdx   int
}

func NewMarkList() *MarkList {
	return &MarkList{byName: make(map[string]*Mark)}
}

func (m *MarkList) BeginRebuild(types *TypeTable) []*EventType {
	m.byName = make(map[string]*Mark)
	m.dense = nil
	start := types.resolveOnDemand(TypeMarkStart, ClassInstance)
	end := types.resolveOnDemand(TypeMarkEnd, ClassInstance)
	m.startIdx, m.endIdx = 0, 1
	return []*EventType{start, end}
}

func (m *MarkList) HandleEvent(typeIndex int, eventType *EventType, it *EventIterator) {
	name, ok := it.Argument("name")
	if !ok || name.Kind != KindString {
		return
	}
	mk, exists := m.byName[name.Str]
	if !exists {
		mk = &Mark{Name: name.Str}
		m.byName[name.Str] = mk
	}
	switch typeIndex {
	case m.startIdx:
		mk.StartMs = it.TimeMs()
		mk.hasStart = true
	case m.endIdx:
		mk.EndMs = it.TimeMs()
		mk.hasEnd = true
	}
}

func (m *MarkList) EndRebuild() {
	m.dense = m.dense[:0]
	for name, mk := range m.byName {
		if mk.hasStart && mk.hasEnd {
			m.dense = append(m.dense, mk)
		} else {
			delete(m.byName, name)
		}
	}
	sort.Slice(m.dense, func(i, j int) bool { return m.dense[i].StartMs < m.dense[j].StartMs })
}

func (m *MarkList) Count() int { return len(m.dense) }

func (m *MarkList) At(i int) *Mark {
	if i < 0 || i >= len(m.dense) {
		return nil
	}
	return m.dense[i]
}

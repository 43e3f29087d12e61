// Package stats implements the per-event-type statistics aggregator
// described in spec.md §4.5: counts, aggregate durations, and a fixed
// 1000-bucket latency histogram over an arbitrary time window and filter.
package stats

import (
	"math"
	"sort"

	"wtftrace/trace"
)

// SortMode selects the ordering forEach walks the aggregated entries in.
type SortMode int

const (
	SortByCount SortMode = iota
	SortByTotalTime
	SortByMeanTime
)

const histogramBuckets = 1000

// Entry is one event-type's aggregated statistics. Scope-class entries carry
// timing (TotalTimeMs, UserTimeMs, Histogram); instance-class entries only
// ever increment Count.
type Entry struct {
	TypeName string
	Class    trace.EventClass
	Flags    trace.EventFlags

	Count int64

	TotalTimeMs float64 // scope only: sum of total_duration
	UserTimeMs  float64 // scope only: sum of user_duration

	Histogram [histogramBuckets]int64 // scope only
}

// MeanTimeMs implements spec.md §4.5's MEAN_TIME ordering key: system-time
// flagged scopes are measured by total time (their user time excludes the
// attributed child), everything else by user time.
func (e *Entry) MeanTimeMs() float64 {
	if e.Count == 0 {
		return 0
	}
	if e.Flags.Has(trace.FlagSystemTime) {
		return e.TotalTimeMs / float64(e.Count)
	}
	return e.UserTimeMs / float64(e.Count)
}

// Filter decides whether an event should be counted; returning false skips
// it the same way an INTERNAL/BUILTIN flag would (spec.md §4.5).
type Filter func(it *trace.EventIterator) bool

// Aggregator accumulates Entry statistics across one or more zones' event
// stores for a given time window.
type Aggregator struct {
	byName map[string]*Entry
	sorted []*Entry
	mode   SortMode
	dirty  bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{byName: make(map[string]*Entry), mode: SortByCount}
}

// Rebuild walks every event in [startMs, endMs] across zones, in the same
// units the event store exposes (milliseconds), skipping INTERNAL/BUILTIN
// flagged types and anything filter rejects.
func (a *Aggregator) Rebuild(zones []*trace.Zone, startMs, endMs int64, filter Filter) {
	a.byName = make(map[string]*Entry)
	a.dirty = true

	for _, z := range zones {
		it := z.Store.BeginTimeRange(startMs, endMs, false)
		for !it.Done() {
			a.observe(it, filter)
			it.Next()
		}
	}
}

func (a *Aggregator) observe(it *trace.EventIterator, filter Filter) {
	flags := it.TypeFlags()
	if flags.Has(trace.FlagInternal) || flags.Has(trace.FlagBuiltin) {
		return
	}
	if filter != nil && !filter(it) {
		return
	}

	name := it.Name()
	e, ok := a.byName[name]
	if !ok {
		class := trace.ClassInstance
		if it.IsScope() {
			class = trace.ClassScope
		}
		e = &Entry{TypeName: name, Class: class, Flags: flags}
		a.byName[name] = e
	}

	e.Count++
	if e.Class != trace.ClassScope {
		return
	}

	total := it.TotalDurationMs()
	user := it.UserDurationMs()
	e.TotalTimeMs += total
	e.UserTimeMs += user

	bucket := int(math.Round(user))
	if bucket < 0 {
		bucket = 0
	}
	if bucket > histogramBuckets-1 {
		bucket = histogramBuckets - 1
	}
	e.Histogram[bucket]++
}

// forEachSort lazily (re)sorts only when the mode actually changes or the
// underlying data was rebuilt since the last sort (spec.md §4.5).
func (a *Aggregator) forEachSort(mode SortMode) {
	if !a.dirty && a.mode == mode && a.sorted != nil {
		return
	}
	a.sorted = a.sorted[:0]
	for _, e := range a.byName {
		a.sorted = append(a.sorted, e)
	}

	switch mode {
	case SortByCount:
		sort.Slice(a.sorted, func(i, j int) bool { return a.sorted[i].Count > a.sorted[j].Count })
	case SortByTotalTime:
		sort.Slice(a.sorted, func(i, j int) bool {
			x, y := a.sorted[i], a.sorted[j]
			if x.Class != y.Class {
				return x.Class == trace.ClassScope
			}
			if x.Class == trace.ClassScope {
				return x.TotalTimeMs > y.TotalTimeMs
			}
			return x.Count > y.Count
		})
	case SortByMeanTime:
		sort.Slice(a.sorted, func(i, j int) bool {
			x, y := a.sorted[i], a.sorted[j]
			if x.Class != y.Class {
				return x.Class == trace.ClassScope
			}
			if x.Class == trace.ClassScope {
				return x.MeanTimeMs() > y.MeanTimeMs()
			}
			return x.Count > y.Count
		})
	}
	a.mode = mode
	a.dirty = false
}

// ForEach walks entries in the given sort order, stopping early if cb
// returns false.
func (a *Aggregator) ForEach(mode SortMode, cb func(*Entry) bool) {
	a.forEachSort(mode)
	for _, e := range a.sorted {
		if !cb(e) {
			return
		}
	}
}

// Lookup returns the entry for a type name, if any events of that type were
// observed by the last Rebuild.
func (a *Aggregator) Lookup(typeName string) (*Entry, bool) {
	e, ok := a.byName[typeName]
	return e, ok
}

// Len reports the number of distinct event types with at least one
// observation.
func (a *Aggregator) Len() int { return len(a.byName) }

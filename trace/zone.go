package trace

// Zone is a logical event stream — typically one thread or isolate — with
// its own event store and ancillary indexes (spec.md §3, GLOSSARY).
type Zone struct {
	ID       string
	Name     string
	Type     string
	Location string

	Store *EventStore

	Frames     *FrameList
	Marks      *MarkList
	TimeRanges *TimeRangeList

	// Timebase is wall-clock seconds of t=0 in the recording; TimeDelay is
	// the estimated source-to-local clock skew in seconds. Both are
	// carried through from DataSource.Initialize so a multi-zone merge can
	// be time-aligned by callers; the core does not align them itself
	// (SPEC_FULL.md §4).
	Timebase     float64
	TimeDelay    float64
	HighResTimes bool

	invalid    bool
	invalidErr error
}

func newZone(id, name, zoneType, location string, types *TypeTable) *Zone {
	z := &Zone{
		ID:       id,
		Name:     name,
		Type:     zoneType,
		Location: location,
		Store:    NewEventStore(types),
	}
	z.Frames = NewFrameList()
	z.Marks = NewMarkList()
	z.TimeRanges = NewTimeRangeList()
	z.Store.RegisterAncillary(z.Frames)
	z.Store.RegisterAncillary(z.Marks)
	z.Store.RegisterAncillary(z.TimeRanges)
	return z
}

// Invalid reports whether this zone has been marked unusable for further
// ingestion. Only a failed Zone.Rebuild sets the mark; a
// ResourceExhaustedError from EventStore.Insert does not. Already-ingested
// data remains readable through the zone's iterators.
func (z *Zone) Invalid() bool { return z.invalid }

// InvalidReason returns the error that invalidated the zone, if any.
func (z *Zone) InvalidReason() error { return z.invalidErr }

// Rebuild runs the zone's event store through Rebuild and marks the zone
// invalid if that returns an error.
func (z *Zone) Rebuild() error {
	if err := z.Store.Rebuild(); err != nil {
		z.invalid = true
		z.invalidErr = err
		return &RebuildError{EventStoreError: EventStoreError{Op: "zone.rebuild", Err: err}, Zone: z.Name}
	}
	return nil
}

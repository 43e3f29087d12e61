package trace

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/sirupsen/logrus"
	"go.jetify.com/typeid"
)

type zonePrefix struct{}

func (zonePrefix) Prefix() string { return "zone" }

// ZoneID is a typed, prefixed zone identifier ("zone_<suffix>"), stable
// across reconnects even when two zones share a human-readable name
// (SPEC_FULL.md §3).
type ZoneID = typeid.TypeID[zonePrefix]

// InvalidationEvent is broadcast by RebuildZone once per zone rebuild,
// whether or not the rebuild succeeded. Events are per zone only; no
// separate database-wide event is sent.
type InvalidationEvent struct {
	Zone    string
	BatchID uuid.UUID
}

// Database owns zones and the shared event-type table, and hands out data
// sources (NewDataSource) without keeping track of them; it orchestrates
// ingestion batches and fires invalidation (spec.md §4, Database row).
type Database struct {
	mu    sync.Mutex
	Types *TypeTable

	zonesByID   map[string]*Zone
	zonesByName map[string]*Zone

	log *logrus.Entry

	subscribers []chan<- InvalidationEvent
}

// NewDatabase constructs an empty database with its own type table.
func NewDatabase() *Database {
	return &Database{
		Types:       NewTypeTable(),
		zonesByID:   make(map[string]*Zone),
		zonesByName: make(map[string]*Zone),
		log:         logrus.WithField("component", "trace.Database"),
	}
}

// Zone returns the named zone, creating it (with a fresh event store and the
// standard ancillary indexes) if it does not yet exist. Distinct zones have
// independent event stores (spec.md §3).
func (db *Database) Zone(name, zoneType, location string) *Zone {
	db.mu.Lock()
	defer db.mu.Unlock()
	if z, ok := db.zonesByName[name]; ok {
		return z
	}
	id, err := typeid.New[ZoneID]()
	idStr := name
	if err == nil {
		idStr = id.String()
	}
	z := newZone(idStr, name, zoneType, location, db.Types)
	db.zonesByName[name] = z
	db.zonesByID[idStr] = z
	return z
}

// ZoneByID looks up a zone by its typed id.
func (db *Database) ZoneByID(id string) *Zone {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.zonesByID[id]
}

// ArgumentsFor resolves the arguments of a single event given its zone name
// and record index, for callers (e.g. the query engine's CSV/JSON dump) that
// only carry those two values rather than a live iterator.
func (db *Database) ArgumentsFor(zoneName string, eventID int) *ArgumentData {
	db.mu.Lock()
	z, ok := db.zonesByName[zoneName]
	db.mu.Unlock()
	if !ok {
		return nil
	}
	return z.Store.GetEvent(eventID).Arguments()
}

// Zones returns every zone currently registered, in no particular order.
func (db *Database) Zones() []*Zone {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*Zone, 0, len(db.zonesByName))
	for _, z := range db.zonesByName {
		out = append(out, z)
	}
	return out
}

// Subscribe registers ch to receive InvalidationEvents. Broadcasts are
// non-blocking: a full channel drops the event rather than stalling the
// rebuild that produced it (spec.md §5 — rebuild must run to completion
// without yielding).
func (db *Database) Subscribe(ch chan<- InvalidationEvent) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.subscribers = append(db.subscribers, ch)
}

func (db *Database) broadcast(ev InvalidationEvent) {
	db.mu.Lock()
	subs := append([]chan<- InvalidationEvent(nil), db.subscribers...)
	db.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// RebuildZone runs one zone's full three-phase rebuild and fires its
// INVALIDATED event. A failed rebuild marks the zone invalid (see
// Zone.Rebuild); the database still emits INVALIDATED so consumers re-read
// the last-good state.
func (db *Database) RebuildZone(z *Zone, batchID uuid.UUID) error {
	err := z.Rebuild()
	db.log.WithFields(logrus.Fields{
		"zone":    z.Name,
		"batch":   batchID,
		"records": z.Store.Count(),
	}).Debug("zone rebuilt")
	db.broadcast(InvalidationEvent{Zone: z.Name, BatchID: batchID})
	return err
}

// IngestBatch inserts a batch of already-decoded events into zone z, then
// rebuilds the zone and fires invalidation. This is the boundary
// between a DataSource adapter (outside the core) and the core's own
// commit/rebuild cycle (spec.md §4, "Data flow").
func (db *Database) IngestBatch(z *Zone, events []PendingEvent) (uuid.UUID, error) {
	batchID := uuid.New()
	if z.Invalid() {
		return batchID, &ZoneInvalidError{Zone: z.Name}
	}
	count, argCount, seq := z.Store.checkpoint()
	for _, e := range events {
		if _, err := z.Store.Insert(e.TypeID, e.TimeUs, e.Args); err != nil {
			// Partial batch discarded; zone stays at its last commit
			// (spec.md §1 Non-goals, §7 "source-parse failure").
			z.Store.truncateTo(count, argCount, seq)
			return batchID, err
		}
	}
	if err := db.RebuildZone(z, batchID); err != nil {
		return batchID, err
	}
	return batchID, nil
}

// PendingEvent is one already-decoded event awaiting insertion, the shape a
// DataSource hands to IngestBatch.
type PendingEvent struct {
	TypeID uint32
	TimeUs int64
	Args   *ArgumentData
}

// DataSourceFlags is the bitmask passed to DataSource.Initialize. Only
// HasHighResolutionTimes is observable by the core (spec.md §6).
type DataSourceFlags uint32

const FlagHasHighResolutionTimes DataSourceFlags = 1 << 0

// ContextInfo identifies the recording session/process a DataSource is
// attached to.
type ContextInfo struct {
	Name string
}

// DataSource is the abstract ingestion handle spec.md §6 describes: created
// by the Database, driven by an external wire-format adapter that has
// already decoded events. The core never parses the wire format itself.
type DataSource struct {
	db       *Database
	zone     *Zone
	flags    DataSourceFlags
	metadata map[string]string
}

// NewDataSource binds a new ingestion handle to a zone.
func (db *Database) NewDataSource(z *Zone) *DataSource {
	return &DataSource{db: db, zone: z}
}

// Initialize is called once by the adapter after it parses the wire-format
// header.
func (d *DataSource) Initialize(ctx ContextInfo, flags DataSourceFlags, metadata map[string]string, timebase, timeDelay float64) error {
	d.flags = flags
	d.metadata = metadata
	d.zone.Timebase = timebase
	d.zone.TimeDelay = timeDelay
	d.zone.HighResTimes = flags&FlagHasHighResolutionTimes != 0
	return nil
}

// AddEvent pushes one decoded event into the bound zone's store. No
// ordering guarantees hold until the next rebuild (spec.md §6).
func (d *DataSource) AddEvent(eventType uint32, timeUs int64, args *ArgumentData) error {
	if d.zone.Invalid() {
		return &ZoneInvalidError{Zone: d.zone.Name}
	}
	_, err := d.zone.Store.Insert(eventType, timeUs, args)
	return err
}

// SnapshotBuffer is one entry of a storage snapshot: a MIME-typed byte
// buffer, typically ending up on disk with the matching extension
// (spec.md §6).
type SnapshotBuffer struct {
	MimeType string
	Bytes    []byte
}

const wtfTraceMimeType = "application/x-extension-wtf-trace"

// SnapshotBuffers serializes every zone's packed buffer into a
// zstd-compressed byte stream, one SnapshotBuffer per zone. This is an
// internal binary encoding for snapshot/restore round-tripping; it does not
// claim wire compatibility with the tracing runtime's own format, which is
// explicitly out of scope (spec.md §1, §6).
func (db *Database) SnapshotBuffers(ctx context.Context) ([]SnapshotBuffer, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer enc.Close()

	var out []SnapshotBuffer
	for _, z := range db.Zones() {
		raw := serializeCells(z.Store)
		compressed := enc.EncodeAll(raw, nil)
		out = append(out, SnapshotBuffer{MimeType: wtfTraceMimeType, Bytes: compressed})
	}
	return out, nil
}

func serializeCells(s *EventStore) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint32(s.Count()))
	_ = binary.Write(&buf, binary.LittleEndian, s.cells[:s.Count()*StructSize])
	return buf.Bytes()
}

// Package ingestsvc implements the gRPC ingestion front end: it decodes the
// wire messages defined in proto/trace.proto and drives a trace.DataSource,
// the abstract adapter handle spec.md §6 describes. Wire-format parsing
// itself happens client-side, before a message ever reaches this package.
package ingestsvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"wtftrace/internal/ingestsvc/proto"
	"wtftrace/trace"
)

// Server implements proto.IngestionServiceServer over a shared trace.Database.
type Server struct {
	proto.UnimplementedIngestionServiceServer

	db  *trace.Database
	log *logrus.Entry

	mu      sync.Mutex
	sources map[string]*trace.DataSource
}

func NewServer(db *trace.Database) *Server {
	return &Server{
		db:      db,
		log:     logrus.WithField("component", "ingestsvc.Server"),
		sources: make(map[string]*trace.DataSource),
	}
}

// Initialize creates (or reuses) a zone and binds a fresh DataSource to it,
// per spec.md §6.
func (s *Server) Initialize(ctx context.Context, req *proto.InitializeRequest) (*proto.InitializeResponse, error) {
	z := s.db.Zone(req.ZoneName, req.ZoneType, req.Location)
	src := s.db.NewDataSource(z)

	var flags trace.DataSourceFlags
	if req.Flags&uint32(trace.FlagHasHighResolutionTimes) != 0 {
		flags |= trace.FlagHasHighResolutionTimes
	}
	if err := src.Initialize(trace.ContextInfo{Name: req.ZoneName}, flags, req.Metadata, req.Timebase, req.TimeDelay); err != nil {
		return nil, fmt.Errorf("ingestsvc: initialize %s: %w", req.ZoneName, err)
	}

	s.mu.Lock()
	s.sources[z.ID] = src
	s.mu.Unlock()

	return &proto.InitializeResponse{ZoneId: z.ID}, nil
}

// AddEvents drains a client stream of batches, inserting each event into its
// zone's store via the matching DataSource, and rebuilds once the stream
// closes (spec.md §4.3, §6: ordering is only established at rebuild time, so
// there is no need to rebuild per message).
func (s *Server) AddEvents(stream proto.IngestionService_AddEventsServer) error {
	var (
		zoneID   string
		z        *trace.Zone
		src      *trace.DataSource
		accepted uint32
	)

	for {
		req, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		if zoneID == "" {
			zoneID = req.ZoneId
			s.mu.Lock()
			src = s.sources[zoneID]
			s.mu.Unlock()
			if src == nil {
				return fmt.Errorf("ingestsvc: zone %q was never initialized", zoneID)
			}
			z = s.db.ZoneByID(zoneID)
		}

		for _, ev := range req.Events {
			if err := src.AddEvent(ev.TypeId, ev.TimeUs, argsFromWire(ev.Arguments)); err != nil {
				return fmt.Errorf("ingestsvc: add event: %w", err)
			}
			accepted++
		}
	}

	batchID := uuid.New()
	if z != nil {
		if err := s.db.RebuildZone(z, batchID); err != nil {
			return fmt.Errorf("ingestsvc: rebuild %s: %w", z.Name, err)
		}
	}

	s.log.WithFields(logrus.Fields{"zone": zoneID, "accepted": accepted}).Info("batch ingested")
	return stream.SendAndClose(&proto.AddEventsSummary{Accepted: accepted, BatchId: batchID.String()})
}

func argsFromWire(wire map[string]*proto.ArgumentValue) *trace.ArgumentData {
	if len(wire) == 0 {
		return nil
	}
	kvs := make([]trace.KeyValue, 0, len(wire))
	for name, v := range wire {
		kvs = append(kvs, trace.KeyValue{Key: name, Value: valueFromWire(v)})
	}
	return trace.NewArgumentData(kvs...)
}

func valueFromWire(v *proto.ArgumentValue) trace.Value {
	switch {
	case v.IntValue != nil:
		return trace.IntValue(*v.IntValue)
	case v.FloatValue != nil:
		return trace.FloatValue(*v.FloatValue)
	case v.StringValue != nil:
		return trace.StringValue(*v.StringValue)
	case v.BytesValue != nil:
		return trace.BytesValue(v.BytesValue)
	default:
		return trace.Value{}
	}
}

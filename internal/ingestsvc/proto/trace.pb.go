// Package proto defines the wire messages for IngestionService described by
// trace.proto, and the grpc codec (codec.go) that (de)serializes them.
//
// These are hand-written rather than protoc-generated: protoc-gen-go's
// normal output backs every message's ProtoReflect() with a serialized
// FileDescriptorProto baked in at build time, which this module cannot
// produce without invoking protoc. Rather than ship message types that
// claim to implement proto.Message without a real, verifiable descriptor
// behind them, these are plain structs paired with an explicit codec
// (see codec.go) - grpc never forces these through protobuf's wire format,
// so nothing here needs protoreflect at all.
package proto

// InitializeRequest carries the wire-format header an adapter parsed before
// any events are streamed.
type InitializeRequest struct {
	ZoneName  string            `json:"zone_name,omitempty"`
	ZoneType  string            `json:"zone_type,omitempty"`
	Location  string            `json:"location,omitempty"`
	Flags     uint32            `json:"flags,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timebase  float64           `json:"timebase,omitempty"`
	TimeDelay float64           `json:"time_delay,omitempty"`
}

// InitializeResponse carries the zone_id assigned to the newly bound
// DataSource (spec.md §6).
type InitializeResponse struct {
	ZoneId string `json:"zone_id,omitempty"`
}

// ArgumentValue is the wire form of trace.Value: exactly one of its fields
// is set, matching the oneof in trace.proto.
type ArgumentValue struct {
	IntValue    *int64   `json:"int_value,omitempty"`
	FloatValue  *float64 `json:"float_value,omitempty"`
	StringValue *string  `json:"string_value,omitempty"`
	BytesValue  []byte   `json:"bytes_value,omitempty"`
}

// Event is one decoded trace event awaiting insertion.
type Event struct {
	TypeId    uint32                    `json:"type_id,omitempty"`
	TypeName  string                    `json:"type_name,omitempty"`
	TimeUs    int64                     `json:"time_us,omitempty"`
	Arguments map[string]*ArgumentValue `json:"arguments,omitempty"`
}

// AddEventsRequest is one message of the AddEvents client stream.
type AddEventsRequest struct {
	ZoneId string   `json:"zone_id,omitempty"`
	Events []*Event `json:"events,omitempty"`
}

// AddEventsSummary closes the AddEvents stream with how many events were
// committed and the ingestion batch id that rebuilt the zone.
type AddEventsSummary struct {
	Accepted uint32 `json:"accepted,omitempty"`
	BatchId  string `json:"batch_id,omitempty"`
}

package trace

import (
	"errors"
	"fmt"
)

// EventStoreError is the base error type for store/zone/database
// operations; ValidationError, RebuildError and QueryCompileError embed it,
// mirroring the teacher's EventStoreError/Unwrap shape (pkg/dcb/errors.go).
// ResourceExhaustedError and ZoneInvalidError are standalone types.
type EventStoreError struct {
	Op  string
	Err error
}

func (e *EventStoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *EventStoreError) Unwrap() error { return e.Err }

// ValidationError reports malformed input to an operation. No function in
// this module returns it: an empty query compiles to a substring match, and
// time ranges are not validated.
type ValidationError struct {
	EventStoreError
	Field string
	Value string
}

// RebuildError wraps a failure during EventStore.Rebuild.
type RebuildError struct {
	EventStoreError
	Zone string
}

// ResourceExhaustedError reports that a store could not grow further.
// EventStore.Insert returns it without appending the record; the owning zone
// is not marked invalid when it occurs (see Zone.Invalid).
type ResourceExhaustedError struct {
	Op        string
	Requested int
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("%s: failed to grow event store to %d records", e.Op, e.Requested)
}

// QueryCompileError reports a malformed filter expression; it never mutates
// state (spec.md §7).
type QueryCompileError struct {
	EventStoreError
	Expression string
}

// ZoneInvalidError is returned by Database.IngestBatch and
// DataSource.AddEvent for a zone marked invalid (see Zone.Invalid). Reads
// from such a zone are not refused.
type ZoneInvalidError struct {
	Zone string
}

func (e *ZoneInvalidError) Error() string {
	return fmt.Sprintf("zone %q is invalid and no longer accepts ingestion", e.Zone)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsResourceExhaustedError(err error) bool {
	var e *ResourceExhaustedError
	return errors.As(err, &e)
}

func IsZoneInvalidError(err error) bool {
	var e *ZoneInvalidError
	return errors.As(err, &e)
}

package wire

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Canonical event kinds. A session's event stream is a sequence of records
// discriminated by one of these values after normalization.
const (
	KindCreated                  = "created"
	KindStarted                  = "started"
	KindSuspended                = "suspended"
	KindResumed                  = "resumed"
	KindBodyCompleted            = "body-completed"
	KindCompleted                = "completed"
	KindCancelled                = "cancelled"
	KindFailed                   = "failed"
	KindThreadAssigned           = "thread-assigned"
	KindDispatcherSelected       = "dispatcher-selected"
	KindJobStateChanged          = "job-state-changed"
	KindJobCancellationRequested = "job-cancellation-requested"
	KindJobJoinRequested         = "job-join-requested"
	KindJobJoinCompleted         = "job-join-completed"
	KindWaitingForChildren       = "waiting-for-children"
	KindDeferredCompleted        = "deferred-completed"
	KindDeferredAwaited          = "deferred-awaited"
)

var canonicalKinds = map[string]struct{}{
	KindCreated:                  {},
	KindStarted:                  {},
	KindSuspended:                {},
	KindResumed:                  {},
	KindBodyCompleted:            {},
	KindCompleted:                {},
	KindCancelled:                {},
	KindFailed:                   {},
	KindThreadAssigned:           {},
	KindDispatcherSelected:       {},
	KindJobStateChanged:          {},
	KindJobCancellationRequested: {},
	KindJobJoinRequested:         {},
	KindJobJoinCompleted:         {},
	KindWaitingForChildren:       {},
	KindDeferredCompleted:        {},
	KindDeferredAwaited:          {},
}

// KnownKind reports whether kind is one of the canonical event kinds.
func KnownKind(kind string) bool {
	_, ok := canonicalKinds[kind]
	return ok
}

// Record is a single lifecycle event as delivered by the event source.
//
// Seq defines the total order within a session. TsNanos is a monotonic
// nanosecond timestamp in the emitting runtime's clock domain. The remaining
// fields are kind-specific and zero-valued when absent from the payload.
type Record struct {
	SessionID   string `json:"sessionId"`
	Seq         uint64 `json:"seq"`
	TsNanos     uint64 `json:"tsNanos"`
	Kind        string `json:"kind,omitempty"`
	LegacyType  string `json:"type,omitempty"`
	CoroutineID string `json:"coroutineId,omitempty"`

	// created
	JobID    string `json:"jobId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
	ScopeID  string `json:"scopeId,omitempty"`
	Label    string `json:"label,omitempty"`

	// suspended
	Function string `json:"function,omitempty"`
	Location string `json:"location,omitempty"`
	Reason   string `json:"reason,omitempty"`

	// thread-assigned
	ThreadID   string `json:"threadId,omitempty"`
	ThreadName string `json:"threadName,omitempty"`

	// dispatcher-selected
	DispatcherID   string `json:"dispatcherId,omitempty"`
	DispatcherName string `json:"dispatcherName,omitempty"`

	// job-state-changed
	IsActive    *bool `json:"isActive,omitempty"`
	IsCompleted *bool `json:"isCompleted,omitempty"`
	IsCancelled *bool `json:"isCancelled,omitempty"`

	// waiting-for-children
	ActiveChildrenIDs   []string `json:"activeChildrenIds,omitempty"`
	ActiveChildrenCount *int     `json:"activeChildrenCount,omitempty"`

	// failed
	Error string `json:"error,omitempty"`

	// deferred-awaited
	AwaiterID string `json:"awaiterId,omitempty"`
}

// Valid reports whether the record carries the fields every event must have.
// Seq zero means the emitter never set it; idempotence tracking needs a real
// sequence number. Records failing this check are dropped as malformed.
func (r *Record) Valid() bool {
	return r != nil && r.SessionID != "" && r.CoroutineID != "" && r.Seq > 0
}

// Decode parses a single JSON-encoded record.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &rec, nil
}

// Encode serializes a record to JSON.
func Encode(rec *Record) ([]byte, error) {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

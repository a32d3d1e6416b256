// Package scenario produces deterministic synthetic event streams for
// demos and fixtures.
package scenario

import (
	"github.com/google/uuid"

	"coroviz/internal/wire"
)

// Generator emits a canned session: a root coroutine spawning workers that
// suspend, resume, complete, fail and get cancelled, with the root parking
// in WAITING_FOR_CHILDREN until its job closes. Sequence numbers and
// timestamps are deterministic; only the session id varies.
type Generator struct {
	sessionID string
	seq       uint64
	ts        uint64
}

// New creates a generator. An empty sessionID gets a random UUID.
func New(sessionID string) *Generator {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Generator{sessionID: sessionID}
}

// SessionID returns the session id the generated records carry.
func (g *Generator) SessionID() string {
	return g.sessionID
}

func (g *Generator) emit(kind, coroutineID string, deltaMillis uint64, mutate func(*wire.Record)) *wire.Record {
	g.seq++
	g.ts += deltaMillis * 1_000_000
	rec := &wire.Record{
		SessionID:   g.sessionID,
		Seq:         g.seq,
		TsNanos:     g.ts,
		Kind:        kind,
		CoroutineID: coroutineID,
	}
	if mutate != nil {
		mutate(rec)
	}
	return rec
}

// Records builds the full scenario stream in order.
func (g *Generator) Records() []*wire.Record {
	boolPtr := func(b bool) *bool { return &b }
	var recs []*wire.Record
	add := func(rec *wire.Record) { recs = append(recs, rec) }

	// Root coroutine on the default dispatcher.
	add(g.emit(wire.KindCreated, "c-1", 0, func(r *wire.Record) {
		r.JobID = "j-1"
		r.ScopeID = "scope-main"
		r.Label = "main"
	}))
	add(g.emit(wire.KindDispatcherSelected, "c-1", 1, func(r *wire.Record) {
		r.DispatcherID = "d-1"
		r.DispatcherName = "Dispatchers.Default"
	}))
	add(g.emit(wire.KindThreadAssigned, "c-1", 0, func(r *wire.Record) {
		r.ThreadID = "t-11"
		r.ThreadName = "DefaultDispatcher-worker-1"
	}))
	add(g.emit(wire.KindStarted, "c-1", 1, nil))

	// Worker that suspends on a delay and completes.
	add(g.emit(wire.KindCreated, "c-2", 2, func(r *wire.Record) {
		r.JobID = "j-2"
		r.ParentID = "c-1"
		r.ScopeID = "scope-main"
		r.Label = "worker-1"
	}))
	add(g.emit(wire.KindStarted, "c-2", 1, nil))
	add(g.emit(wire.KindSuspended, "c-2", 5, func(r *wire.Record) {
		r.Function = "kotlinx.coroutines.delay"
		r.Location = "Worker.kt:42"
		r.Reason = "timed delay"
	}))

	// Deferred child awaited by the root.
	add(g.emit(wire.KindCreated, "c-3", 1, func(r *wire.Record) {
		r.JobID = "j-3"
		r.ParentID = "c-1"
		r.ScopeID = "scope-main"
		r.Label = "fetch-config"
	}))
	add(g.emit(wire.KindStarted, "c-3", 1, nil))
	add(g.emit(wire.KindDeferredAwaited, "c-3", 1, func(r *wire.Record) {
		r.AwaiterID = "c-1"
	}))

	// Worker that fails.
	add(g.emit(wire.KindCreated, "c-4", 1, func(r *wire.Record) {
		r.JobID = "j-4"
		r.ParentID = "c-1"
		r.ScopeID = "scope-main"
		r.Label = "worker-2"
	}))
	add(g.emit(wire.KindStarted, "c-4", 1, nil))

	// Root body is done while the children still run.
	add(g.emit(wire.KindBodyCompleted, "c-1", 2, nil))
	add(g.emit(wire.KindWaitingForChildren, "c-1", 1, func(r *wire.Record) {
		r.ActiveChildrenIDs = []string{"c-2", "c-3", "c-4"}
		count := 3
		r.ActiveChildrenCount = &count
	}))

	add(g.emit(wire.KindResumed, "c-2", 10, nil))
	add(g.emit(wire.KindDeferredCompleted, "c-3", 1, nil))
	add(g.emit(wire.KindCompleted, "c-3", 1, nil))
	add(g.emit(wire.KindCompleted, "c-2", 3, nil))

	add(g.emit(wire.KindFailed, "c-4", 2, func(r *wire.Record) {
		r.Error = "java.io.IOException: connection reset"
	}))

	// Failure requests cancellation of the parent job; the runtime winds
	// the root down.
	add(g.emit(wire.KindJobCancellationRequested, "c-1", 1, nil))
	add(g.emit(wire.KindJobStateChanged, "c-1", 2, func(r *wire.Record) {
		r.IsActive = boolPtr(false)
		r.IsCancelled = boolPtr(true)
	}))

	return recs
}

// LegacyRecords returns the same scenario with legacy UpperCamel type
// names, exercising the normalizer's lookup table end to end.
func (g *Generator) LegacyRecords() []*wire.Record {
	legacyNames := map[string]string{
		wire.KindCreated:                  "CoroutineCreated",
		wire.KindStarted:                  "CoroutineStarted",
		wire.KindSuspended:                "CoroutineSuspended",
		wire.KindResumed:                  "CoroutineResumed",
		wire.KindBodyCompleted:            "CoroutineBodyCompleted",
		wire.KindCompleted:                "CoroutineCompleted",
		wire.KindCancelled:                "CoroutineCancelled",
		wire.KindFailed:                   "CoroutineFailed",
		wire.KindThreadAssigned:           "ThreadAssigned",
		wire.KindDispatcherSelected:       "DispatcherSelected",
		wire.KindJobStateChanged:          "JobStateChanged",
		wire.KindJobCancellationRequested: "JobCancellationRequested",
		wire.KindJobJoinRequested:         "JobJoinRequested",
		wire.KindJobJoinCompleted:         "JobJoinCompleted",
		wire.KindWaitingForChildren:       "WaitingForChildren",
		wire.KindDeferredCompleted:        "DeferredCompleted",
		wire.KindDeferredAwaited:          "DeferredAwaited",
	}

	recs := g.Records()
	for _, rec := range recs {
		if legacy, ok := legacyNames[rec.Kind]; ok {
			rec.LegacyType = legacy
			rec.Kind = ""
		}
	}
	return recs
}

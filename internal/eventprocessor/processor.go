package eventprocessor

import (
	"github.com/rs/zerolog"

	"coroviz/internal/metrics"
	"coroviz/internal/session"
	"coroviz/internal/wire"
)

// SnapshotHandler observes every applied record together with the session
// it landed in, after the snapshot advanced. Implemented by the span
// exporter.
type SnapshotHandler interface {
	HandleApplied(rec *wire.Record, sess *session.Session) error
}

// Processor coordinates event processing. It admits normalized records,
// resolves the owning session and delegates post-apply work to an optional
// snapshot handler.
type Processor struct {
	sessions  *session.Manager
	snapshots SnapshotHandler
	collector *metrics.Collector
	log       zerolog.Logger
}

// NewProcessor creates a new event processor. snapshots and collector may
// be nil.
func NewProcessor(sessions *session.Manager, snapshots SnapshotHandler, collector *metrics.Collector, log zerolog.Logger) *Processor {
	return &Processor{
		sessions:  sessions,
		snapshots: snapshots,
		collector: collector,
		log:       log,
	}
}

// HandleRecord applies one normalized record. It never returns an error for
// bad input: malformed records are dropped, unknown kinds ignored and
// duplicate sequence numbers skipped, each with its own counter.
func (p *Processor) HandleRecord(rec *wire.Record) error {
	p.collector.RecordRead()

	if !rec.Valid() {
		p.collector.RecordDropped()
		p.log.Debug().Msg("dropping record without session or coroutine id")
		return nil
	}
	if !wire.KnownKind(rec.Kind) {
		// Preserved by the normalizer, ignored here.
		p.collector.UnknownKind()
		p.log.Debug().Str("kind", rec.Kind).Msg("ignoring unknown event kind")
		return nil
	}

	sess := p.sessions.GetOrCreate(rec.SessionID)
	p.collector.SetSessionsActive(p.sessions.Len())

	_, seen := sess.Snapshot()[rec.CoroutineID]

	if !sess.Apply(rec) {
		p.collector.DuplicateSkipped()
		return nil
	}
	p.collector.EventApplied()

	// Only records that actually applied count as defensive creations.
	if rec.Kind != wire.KindCreated && !seen {
		p.collector.DefensiveCreation()
	}

	if p.snapshots != nil {
		if err := p.snapshots.HandleApplied(rec, sess); err != nil {
			// Export trouble must not stall reduction.
			p.log.Warn().Err(err).Uint64("seq", rec.Seq).Msg("snapshot handler failed")
		}
	}
	return nil
}

// Sessions exposes the session table for the query surface.
func (p *Processor) Sessions() *session.Manager {
	return p.sessions
}

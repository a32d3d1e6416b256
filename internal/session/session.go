package session

import (
	"sync"

	"coroviz/internal/hierarchy"
	"coroviz/internal/timeline"
	"coroviz/internal/timesync"
	"coroviz/internal/wire"
)

// Session is the event-sourcing arena for one tracing session.
type Session struct {
	ID string

	mu      sync.Mutex
	nodes   hierarchy.NodeMap
	applied map[uint64]struct{}
	log     map[string][]*wire.Record
	clock   *timesync.Converter

	firstSeq, lastSeq uint64
	eventCount        int
}

func newSession(id string) *Session {
	return &Session{
		ID:      id,
		nodes:   hierarchy.NodeMap{},
		applied: make(map[uint64]struct{}),
		log:     make(map[string][]*wire.Record),
		clock:   timesync.NewConverter(),
	}
}

// Apply folds one normalized record into the session. Returns false when
// the record is a duplicate delivery of an already-applied seq, which is a
// no-op: no accumulator double-counts.
func (s *Session) Apply(rec *wire.Record) bool {
	if rec == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.applied[rec.Seq]; dup {
		return false
	}
	s.applied[rec.Seq] = struct{}{}

	s.clock.ToWallClock(rec.TsNanos)
	s.nodes = hierarchy.Apply(rec, s.nodes)

	if rec.CoroutineID != "" {
		s.log[rec.CoroutineID] = append(s.log[rec.CoroutineID], rec)
	}
	if s.eventCount == 0 || rec.Seq < s.firstSeq {
		s.firstSeq = rec.Seq
	}
	if rec.Seq > s.lastSeq {
		s.lastSeq = rec.Seq
	}
	s.eventCount++
	return true
}

// Snapshot returns the current node map. The map is immutable; callers may
// read it concurrently with further Apply calls.
func (s *Session) Snapshot() hierarchy.NodeMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodes
}

// Events returns a copy of the recorded event subsequence for one coroutine,
// in application order.
func (s *Session) Events(coroutineID string) []*wire.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*wire.Record(nil), s.log[coroutineID]...)
}

// Timeline replays one coroutine's event log into its timing summary.
func (s *Session) Timeline(coroutineID string) *timeline.Timeline {
	return timeline.Reconstruct(coroutineID, s.Events(coroutineID))
}

// Clock returns the session's monotonic-to-wallclock converter.
func (s *Session) Clock() *timesync.Converter {
	return s.clock
}

// EventCount returns how many distinct events the session has applied.
func (s *Session) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCount
}

// Package eventstream pumps raw records from an event source through the
// normalizer into a handler, tolerating per-record failures.
package eventstream

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"coroviz/internal/wire"
)

// Source yields raw wire records in delivery order. Read blocks until a
// record is available, the source is exhausted (io.EOF) or the context is
// done. Sequence numbers are expected to be non-decreasing, but consumers
// stay tolerant of minor violations.
type Source interface {
	Read(ctx context.Context) (*wire.Record, error)
}

// Handler consumes normalized records.
type Handler interface {
	HandleRecord(rec *wire.Record) error
}

// Stream reads records from a source and dispatches them to a handler.
type Stream struct {
	source  Source
	handler Handler
	stopCh  chan struct{}
	log     zerolog.Logger
}

// New creates a new Stream with the given source and handler.
func New(source Source, handler Handler, log zerolog.Logger) *Stream {
	return &Stream{
		source:  source,
		handler: handler,
		stopCh:  make(chan struct{}),
		log:     log,
	}
}

// Start begins pumping records in a goroutine. It returns immediately and
// processes records in the background until the source is exhausted, the
// context is cancelled or Stop is called.
func (s *Stream) Start(ctx context.Context) error {
	go func() {
		_ = s.Run(ctx)
	}()
	return nil
}

// Stop signals the pump to stop.
func (s *Stream) Stop() error {
	close(s.stopCh)
	return nil
}

// Run pumps records synchronously until the source is exhausted or the
// context is cancelled. A failing record is logged and skipped; only source
// exhaustion or cancellation ends the loop.
func (s *Stream) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		default:
			rec, err := s.source.Read(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				s.log.Warn().Err(err).Msg("reading record")
				continue
			}
			if rec == nil {
				continue
			}

			wire.Normalize(rec)

			if err := s.handler.HandleRecord(rec); err != nil {
				s.log.Warn().Err(err).Msg("handling record")
			}
		}
	}
}

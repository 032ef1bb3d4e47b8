package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// Sink durably records completed exchanges. It has no read path for the relay.
type Sink interface {
	Record(ctx context.Context, exchange chat.Exchange) error
}

// PersistenceError wraps a failed write. It never reaches relay callers; it
// exists so the failure can be logged and matched in tests.
type PersistenceError struct {
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist exchange for session %s: %v", e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Record(context.Context, chat.Exchange) error { return nil }

// Recorder wraps a Sink with best-effort semantics: timestamps are filled in,
// failures are logged and swallowed.
type Recorder struct {
	sink    Sink
	clock   func() time.Time
	stamp   *Timestamper
	log     *logger.Logger
	onError func(*PersistenceError)
}

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) RecorderOption {
	return func(r *Recorder) { r.clock = clock }
}

// WithErrorHook observes every swallowed failure.
func WithErrorHook(fn func(*PersistenceError)) RecorderOption {
	return func(r *Recorder) { r.onError = fn }
}

// NewRecorder returns a best-effort recorder around sink.
func NewRecorder(sink Sink, stamp *Timestamper, log *logger.Logger, opts ...RecorderOption) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	if stamp == nil {
		stamp = NewTimestamper(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	r := &Recorder{sink: sink, clock: time.Now, stamp: stamp, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists the exchange and never returns an error.
func (r *Recorder) Record(ctx context.Context, exchange chat.Exchange) {
	now := r.clock()
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = now.UTC()
	}
	if exchange.Timestamp == "" {
		exchange.Timestamp = r.stamp.Format(now)
	}

	if err := r.sink.Record(ctx, exchange); err != nil {
		perr := &PersistenceError{SessionID: exchange.SessionID, Err: err}
		r.log.Error("failed to persist exchange", "session_id", exchange.SessionID, "error", perr)
		if r.onError != nil {
			r.onError(perr)
		}
	}
}

package client

import (
	"context"
	"sync"
)

// Recognizer captures one spoken utterance. Listen blocks until a transcript
// is available, recognition fails, or ctx is cancelled.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// RecorderState is the voice input control state.
type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
)

func (s RecorderState) String() string {
	if s == RecorderRecording {
		return "recording"
	}
	return "idle"
}

// Recorder toggles voice input. Results are delivered to onResult, failures
// other than a user stop to onError; either way the recorder returns to idle.
type Recorder struct {
	rec      Recognizer
	onResult func(string)
	onError  func(error)

	mu     sync.Mutex
	state  RecorderState
	seq    uint64
	cancel context.CancelFunc
}

func NewRecorder(rec Recognizer, onResult func(string), onError func(error)) *Recorder {
	if onResult == nil {
		onResult = func(string) {}
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &Recorder{rec: rec, onResult: onResult, onError: onError}
}

// Supported reports whether a recognizer is available. Front-ends hide the
// control when it is not.
func (r *Recorder) Supported() bool {
	return r != nil && r.rec != nil
}

// State returns the current control state.
func (r *Recorder) State() RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Toggle starts listening when idle and stops when recording.
func (r *Recorder) Toggle() error {
	if !r.Supported() {
		return ErrPlatformCapabilityUnavailable
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == RecorderRecording {
		r.cancel()
		r.cancel = nil
		r.state = RecorderIdle
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.seq++
	id := r.seq
	r.cancel = cancel
	r.state = RecorderRecording

	go func() {
		defer cancel()
		text, err := r.rec.Listen(ctx)

		r.mu.Lock()
		if r.seq == id && r.state == RecorderRecording {
			r.state = RecorderIdle
			r.cancel = nil
		}
		r.mu.Unlock()

		switch {
		case err != nil:
			if ctx.Err() == nil {
				r.onError(err)
			}
		case text != "":
			r.onResult(text)
		}
	}()
	return nil
}

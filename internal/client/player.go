package client

import (
	"context"
	"strings"
	"sync"

	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// Soothing profile applied to every utterance.
const (
	SoothingRate   = 0.82
	SoothingPitch  = 0.88
	SoothingVolume = 0.88
)

// Utterance is a request to speak plain text.
type Utterance struct {
	Text   string
	Voice  Voice
	Lang   string
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer is the platform text-to-speech engine. Speak blocks until the
// utterance ends, fails, or ctx is cancelled.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
}

// SoothingUtterance builds the utterance for text with the calmest voice in voices.
func SoothingUtterance(text string, voices []Voice) Utterance {
	u := Utterance{
		Text:   text,
		Lang:   "en-US",
		Rate:   SoothingRate,
		Pitch:  SoothingPitch,
		Volume: SoothingVolume,
	}
	if v, ok := PickSoothingVoice(voices); ok {
		u.Voice = v
		if v.British() {
			u.Lang = "en-GB"
		}
	}
	return u
}

// Player speaks one message at a time. Starting a new utterance cancels the
// one in flight.
type Player struct {
	synth Synthesizer
	log   *logger.Logger

	// speaking serializes Speak from stopping the old utterance to
	// registering the new one.
	speaking sync.Mutex

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer returns a player; a nil synth yields a player whose Speak reports
// ErrPlatformCapabilityUnavailable.
func NewPlayer(synth Synthesizer, log *logger.Logger) *Player {
	if log == nil {
		log = logger.Nop()
	}
	return &Player{synth: synth, log: log}
}

// Supported reports whether speech output is available.
func (p *Player) Supported() bool {
	return p != nil && p.synth != nil
}

// Speak strips the HTML from content and reads it aloud. Blank text is ignored.
func (p *Player) Speak(content string) error {
	if !p.Supported() {
		return ErrPlatformCapabilityUnavailable
	}
	p.speaking.Lock()
	defer p.speaking.Unlock()
	p.Stop()

	text := StripHTML(content)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	voices, err := p.synth.Voices(ctx)
	if err != nil {
		p.log.Warn("listing voices failed, using engine default", "error", err)
	}
	u := SoothingUtterance(text, voices)

	done := make(chan struct{})
	p.mu.Lock()
	p.seq++
	id := p.seq
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()
		if err := p.synth.Speak(ctx, u); err != nil && ctx.Err() == nil {
			p.log.Error("speech synthesis error", "error", err)
		}
		p.release(id)
	}()
	return nil
}

// Speaking reports whether an utterance is in flight.
func (p *Player) Speaking() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// Stop cancels the current utterance, if any, and waits for it to wind down.
func (p *Player) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Wait blocks until the current utterance finishes.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (p *Player) release(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq == id {
		p.cancel = nil
		p.done = nil
	}
}

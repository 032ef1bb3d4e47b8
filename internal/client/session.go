package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// DefaultMinInterval is the minimum gap between accepted submissions.
const DefaultMinInterval = 2000 * time.Millisecond

// Greeting is the bot bubble shown when a session starts.
const Greeting = "Hello! 👋<br><br>I am your AI helper.<br><br>I write in a way that is easy to read.<br><br>What would you like to know?"

// State of a client session.
type State int

const (
	StateIdle State = iota
	StateSending
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	default:
		return "idle"
	}
}

// EventKind classifies an Event.
type EventKind int

const (
	EventAdded EventKind = iota
	EventUpdated
	EventAlert
	EventState
)

// Event notifies a front-end of a transcript or state change.
type Event struct {
	Kind    EventKind
	Message Message
	Alert   string
	State   State
}

// Observer receives events synchronously, in order.
type Observer func(Event)

// Stopper halts speech output. *Player implements it.
type Stopper interface {
	Stop()
}

// Session drives one conversation: guards, placeholder, request and outcome.
type Session struct {
	sender      Sender
	speech      Stopper
	transcript  *Transcript
	minInterval time.Duration
	now         func() time.Time
	observer    Observer
	log         *logger.Logger

	mu          sync.Mutex
	state       State
	lastRequest time.Time
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

func WithObserver(o Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

func WithSpeech(st Stopper) SessionOption {
	return func(s *Session) { s.speech = st }
}

func WithMinInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.minInterval = d }
}

func WithLogger(log *logger.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

func NewSession(sender Sender, opts ...SessionOption) *Session {
	s := &Session{
		sender:      sender,
		transcript:  NewTranscript(),
		minInterval: DefaultMinInterval,
		now:         time.Now,
		observer:    func(Event) {},
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcript exposes the session's messages.
func (s *Session) Transcript() *Transcript { return s.transcript }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Greet adds the greeting bubble.
func (s *Session) Greet() Message {
	m := Message{
		ID:      NewMessageID(s.now()),
		IsBot:   true,
		Content: Greeting,
		Actions: []Action{ActionReadAloud},
	}
	s.transcript.Add(m)
	s.observer(Event{Kind: EventAdded, Message: m})
	return m
}

// Submit sends text to the relay. Guard failures return ErrEmptyPrompt or
// ErrTooSoon and leave the transcript untouched. Otherwise the returned
// message is the final bot bubble; err carries the send failure, if any.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	if s.speech != nil {
		s.speech.Stop()
	}

	msg := strings.TrimSpace(text)
	if msg == "" {
		s.observer(Event{Kind: EventAlert, Alert: AlertEmptyPrompt})
		return Message{}, ErrEmptyPrompt
	}

	s.mu.Lock()
	now := s.now()
	if !s.lastRequest.IsZero() && now.Sub(s.lastRequest) < s.minInterval {
		s.mu.Unlock()
		s.observer(Event{Kind: EventAlert, Alert: AlertTooSoon})
		return Message{}, ErrTooSoon
	}
	s.lastRequest = now
	s.mu.Unlock()

	s.setState(StateSending)

	user := Message{ID: NewMessageID(now), Content: msg}
	s.transcript.Add(user)
	s.observer(Event{Kind: EventAdded, Message: user})

	placeholder := Message{ID: NewMessageID(now), IsBot: true, Content: ThinkingText}
	s.transcript.Add(placeholder)
	s.observer(Event{Kind: EventAdded, Message: placeholder})

	bot, err := s.sender.Send(ctx, msg)

	var final Message
	if err != nil {
		s.log.Warn("relay request failed", "error", err)
		final, _ = s.transcript.Replace(placeholder.ID, FailureText(err))
		s.observer(Event{Kind: EventUpdated, Message: final})
		s.setState(StateFailure)
	} else {
		final, _ = s.transcript.Replace(placeholder.ID, strings.TrimSpace(bot), ActionReadAloud)
		s.observer(Event{Kind: EventUpdated, Message: final})
		s.setState(StateSuccess)
	}
	s.setState(StateIdle)
	return final, err
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.observer(Event{Kind: EventState, State: st})
}

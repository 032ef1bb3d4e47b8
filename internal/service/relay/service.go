package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/internal/service/ai"
	"github.com/infogenius-ai/chat-relay/internal/service/archive"
	"github.com/infogenius-ai/chat-relay/internal/service/history"
	"github.com/infogenius-ai/chat-relay/internal/service/prompt"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

// ErrInvalidRequest marks a request that is rejected before any downstream call.
var ErrInvalidRequest = errors.New("invalid request")

// Reply is the result of one relay invocation.
type Reply struct {
	SessionID string
	// Bot is the formatted reply returned to the client.
	Bot string
	// Raw is the model output as stored in history.
	Raw string
}

// Service drives compose -> complete -> linkify -> persist for one message.
type Service struct {
	history  history.Store
	composer *prompt.Composer
	ai       ai.Completer
	recorder *archive.Recorder
	locks    *sessionLocks
	log      *logger.Logger
}

// NewService wires the relay.
func NewService(store history.Store, composer *prompt.Composer, completer ai.Completer, recorder *archive.Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if recorder == nil {
		recorder = archive.NewRecorder(archive.NopSink{}, nil, log)
	}
	return &Service{
		history:  store,
		composer: composer,
		ai:       completer,
		recorder: recorder,
		locks:    newSessionLocks(),
		log:      log.With("component", "relay"),
	}
}

// Relay handles one user message. A completion failure is returned as the
// underlying *ai.CompletionError and leaves the user turn in history.
// Calls on the same session run one at a time, from reading the history to
// appending the bot turn.
func (s *Service) Relay(ctx context.Context, sessionID, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
	}

	release, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("wait for session %s: %w", sessionID, err)
	}
	defer release()

	past, err := s.history.Snapshot(ctx, sessionID)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}

	if err := s.history.Append(ctx, sessionID, chat.UserTurn(message)); err != nil {
		return Reply{}, fmt.Errorf("append user turn: %w", err)
	}

	composed, err := s.composer.Compose(past, message)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	raw, err := s.ai.Complete(ctx, composed)
	if err != nil {
		s.log.Warn("completion failed", "session_id", sessionID, "error", err)
		return Reply{}, err
	}

	formatted := Linkify(raw)

	s.recorder.Record(ctx, chat.Exchange{
		SessionID: sessionID,
		UserText:  message,
		BotText:   formatted,
	})

	if err := s.history.Append(ctx, sessionID, chat.BotTurn(raw)); err != nil {
		return Reply{}, fmt.Errorf("append bot turn: %w", err)
	}

	s.log.Info("relayed message", "session_id", sessionID, "history_turns", len(past)+2, "reply_length", len(formatted))
	return Reply{SessionID: sessionID, Bot: formatted, Raw: raw}, nil
}

// CreateSession mints a fresh conversation.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, error) {
	return s.history.CreateSession(ctx)
}

package history

import (
	"context"
	"errors"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrInvalidRole     = errors.New("turn role must be user or bot")
)

// Store is a session-scoped, append-only conversation log.
type Store interface {
	// CreateSession provisions a new empty conversation.
	CreateSession(ctx context.Context) (chat.Session, error)
	// Append adds a turn to the end of the session's log, creating the
	// session implicitly when it does not exist yet.
	Append(ctx context.Context, sessionID string, turn chat.Turn) error
	// Snapshot returns a copy of the session's turns in append order.
	Snapshot(ctx context.Context, sessionID string) ([]chat.Turn, error)
}

func validate(sessionID string, turn chat.Turn) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if !turn.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

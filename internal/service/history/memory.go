package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

// MemoryStore keeps every session in process memory. Nothing is evicted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	turns    map[string][]chat.Turn
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore bootstraps an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		turns:    make(map[string][]chat.Turn),
	}
}

// CreateSession provisions an anonymous session.
func (s *MemoryStore) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.turns[session.ID] = make([]chat.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// Append adds a turn to the session history.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turn chat.Turn) error {
	if err := validate(sessionID, turn); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		s.sessions[sessionID] = chat.Session{ID: sessionID, CreatedAt: time.Now().UTC()}
	}
	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

// Snapshot returns stored turns for the provided session. Unknown sessions
// have an empty history.
func (s *MemoryStore) Snapshot(_ context.Context, sessionID string) ([]chat.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.turns[sessionID]
	copied := make([]chat.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Session retrieves a known session.
func (s *MemoryStore) Session(sessionID string) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

const defaultKeyPrefix = "infogenius:history:"

// RedisStore keeps each session as a Redis list of JSON-encoded turns so that
// several relay instances can share conversations.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// RedisOption customises a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the key namespace.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithTTL expires idle sessions; zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{rdb: rdb, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects and pings, following the usual go-redis bootstrap.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) turnsKey(sessionID string) string   { return s.prefix + sessionID + ":turns" }
func (s *RedisStore) sessionKey(sessionID string) string { return s.prefix + sessionID + ":meta" }

func (s *RedisStore) CreateSession(ctx context.Context) (chat.Session, error) {
	session := chat.Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}

	raw, err := json.Marshal(session)
	if err != nil {
		return chat.Session{}, err
	}
	if err := s.rdb.Set(ctx, s.sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return chat.Session{}, fmt.Errorf("redis create session: %w", err)
	}
	return session, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, turn chat.Turn) error {
	if err := validate(sessionID, turn); err != nil {
		return err
	}

	raw, err := json.Marshal(turn)
	if err != nil {
		return err
	}

	key := s.turnsKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
		pipe.Expire(ctx, s.sessionKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append turn: %w", err)
	}
	return nil
}

func (s *RedisStore) Snapshot(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	values, err := s.rdb.LRange(ctx, s.turnsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load history: %w", err)
	}

	turns := make([]chat.Turn, 0, len(values))
	for _, v := range values {
		var turn chat.Turn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			return nil, fmt.Errorf("decode turn for session %s: %w", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

package history

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	session, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	empty, err := store.Snapshot(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := []chat.Turn{
		chat.UserTurn("hello"),
		chat.BotTurn("<p>What is your name?</p>"),
		chat.UserTurn("Asha"),
		chat.BotTurn("Nice to meet you"),
	}
	for _, turn := range want {
		require.NoError(t, store.Append(ctx, session.ID, turn))
	}

	got, err := store.Snapshot(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got[0].Text = "mutated"
	again, err := store.Snapshot(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", again[0].Text)

	other, err := store.Snapshot(ctx, "other-"+session.ID)
	require.NoError(t, err)
	assert.Empty(t, other)

	assert.ErrorIs(t, store.Append(ctx, "", chat.UserTurn("x")), ErrSessionRequired)
	assert.ErrorIs(t, store.Append(ctx, session.ID, chat.Turn{Role: "system", Text: "x"}), ErrInvalidRole)
	_, err = store.Snapshot(ctx, "")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreImplicitSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, chat.DefaultSessionID, chat.UserTurn("hi")))
	_, ok := store.Session(chat.DefaultSessionID)
	assert.True(t, ok)
}

func TestMemoryStoreIsolatesConcurrentSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const sessions, perSession = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < perSession; j++ {
				_ = store.Append(ctx, id, chat.UserTurn(fmt.Sprintf("%s-%d", id, j)))
			}
		}(fmt.Sprintf("s%d", i))
	}
	wg.Wait()

	for i := 0; i < sessions; i++ {
		id := fmt.Sprintf("s%d", i)
		turns, err := store.Snapshot(ctx, id)
		require.NoError(t, err)
		require.Len(t, turns, perSession)
		for j, turn := range turns {
			assert.Equal(t, fmt.Sprintf("%s-%d", id, j), turn.Text)
		}
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis history test")
	}

	ctx := context.Background()
	rdb, err := DialRedis(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	prefix := "test:" + uuid.NewString() + ":"
	store := NewRedisStore(rdb, WithKeyPrefix(prefix), WithTTL(time.Minute))
	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
	})

	exerciseStore(t, store)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/internal/model/policy"
	"github.com/infogenius-ai/chat-relay/internal/service/ai"
	"github.com/infogenius-ai/chat-relay/internal/service/history"
	"github.com/infogenius-ai/chat-relay/internal/service/prompt"
	relayService "github.com/infogenius-ai/chat-relay/internal/service/relay"
)

func newTestRouter(t *testing.T) (http.Handler, *history.MemoryStore) {
	t.Helper()
	client, err := ai.NewClient(context.Background(), ai.NewMockChatModel())
	require.NoError(t, err)

	store := history.NewMemoryStore()
	svc := relayService.NewService(store, prompt.NewComposer(policy.Seed()[0]), client, nil, nil)
	return NewRouter(Deps{Relay: svc, Sessions: store, AllowedOrigins: []string{"*"}}), store
}

func TestRouterEndToEnd(t *testing.T) {
	router, store := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Hello from InfoGeniusAI"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/session", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	var session chat.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&session))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"prompt":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", session.ID)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bot string `json:"bot"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, strings.ToLower(body.Bot), "name")

	turns, err := store.Snapshot(context.Background(), session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, chat.UserTurn("hello"), turns[0])

	defaults, err := store.Snapshot(context.Background(), chat.DefaultSessionID)
	require.NoError(t, err)
	assert.Empty(t, defaults)
}

func TestRouterPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
)

const (
	sessionHeader   = "X-Session-ID"
	errorCodeHeader = "X-Relay-Error"
)

// Sender delivers one prompt to the relay and returns the bot HTML.
type Sender interface {
	Send(ctx context.Context, prompt string) (string, error)
}

// RelayClient talks to the relay endpoint over HTTP.
type RelayClient struct {
	baseURL string
	http    *http.Client

	mu        sync.RWMutex
	sessionID string
}

// RelayOption customizes a RelayClient.
type RelayOption func(*RelayClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) RelayOption {
	return func(rc *RelayClient) { rc.http = c }
}

// WithSessionID pins the session sent with every request.
func WithSessionID(id string) RelayOption {
	return func(rc *RelayClient) { rc.sessionID = id }
}

func NewRelayClient(baseURL string, opts ...RelayOption) *RelayClient {
	rc := &RelayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// SessionID returns the session attached to outgoing requests.
func (c *RelayClient) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

type sendRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId,omitempty"`
}

type sendResponse struct {
	Bot string `json:"bot"`
}

// Send posts the prompt. Non-2xx answers yield *ServerError; transport and
// decoding failures yield *NetworkError.
func (c *RelayClient) Send(ctx context.Context, prompt string) (string, error) {
	sessionID := c.SessionID()
	payload, err := json.Marshal(sendRequest{Prompt: prompt, SessionID: sessionID})
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/", bytes.NewReader(payload))
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", &NetworkError{Err: err}
		}
		return "", &ServerError{
			Status: resp.StatusCode,
			Code:   resp.Header.Get(errorCodeHeader),
			Body:   string(body),
		}
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &NetworkError{Err: fmt.Errorf("decode reply: %w", err)}
	}
	return out.Bot, nil
}

// CreateSession mints a session on the server and pins it to the client.
func (c *RelayClient) CreateSession(ctx context.Context) (chat.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", nil)
	if err != nil {
		return chat.Session{}, &NetworkError{Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Session{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return chat.Session{}, &ServerError{Status: resp.StatusCode, Body: string(body)}
	}

	var s chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return chat.Session{}, &NetworkError{Err: fmt.Errorf("decode session: %w", err)}
	}

	c.mu.Lock()
	c.sessionID = s.ID
	c.mu.Unlock()
	return s, nil
}

package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (f *fakeSender) Send(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type countingStopper struct{ stops int }

func (c *countingStopper) Stop() { c.stops++ }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(sender Sender, opts ...SessionOption) (*Session, *clock, *[]Event) {
	clk := &clock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	var events []Event
	opts = append([]SessionOption{
		WithClock(clk.Now),
		WithObserver(func(e Event) { events = append(events, e) }),
	}, opts...)
	return NewSession(sender, opts...), clk, &events
}

func TestSubmitEmptyPrompt(t *testing.T) {
	sender := &fakeSender{reply: "<p>x</p>"}
	speech := &countingStopper{}
	s, _, events := newTestSession(sender, WithSpeech(speech))

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Submit(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		assert.Equal(t, AlertEmptyPrompt, AlertText(err))
	}

	assert.Zero(t, s.Transcript().Len())
	assert.Empty(t, sender.prompts)
	assert.Equal(t, 3, speech.stops)
	require.Len(t, *events, 3)
	assert.Equal(t, EventAlert, (*events)[0].Kind)
	assert.Equal(t, AlertEmptyPrompt, (*events)[0].Alert)
}

func TestSubmitMinimumInterval(t *testing.T) {
	sender := &fakeSender{reply: "<p>ok</p>"}
	s, clk, _ := newTestSession(sender)

	_, err := s.Submit(context.Background(), "first")
	require.NoError(t, err)

	clk.advance(1500 * time.Millisecond)
	_, err = s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrTooSoon)
	assert.Equal(t, AlertTooSoon, AlertText(err))
	assert.Equal(t, 2, s.Transcript().Len())

	clk.advance(500 * time.Millisecond)
	_, err = s.Submit(context.Background(), "third")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "third"}, sender.prompts)
	assert.Equal(t, 4, s.Transcript().Len())
}

func TestSubmitRejectedDoesNotResetInterval(t *testing.T) {
	sender := &fakeSender{reply: "ok"}
	s, clk, _ := newTestSession(sender)

	_, err := s.Submit(context.Background(), "one")
	require.NoError(t, err)
	clk.advance(1900 * time.Millisecond)
	_, err = s.Submit(context.Background(), "two")
	require.ErrorIs(t, err, ErrTooSoon)
	clk.advance(100 * time.Millisecond)
	_, err = s.Submit(context.Background(), "three")
	require.NoError(t, err)
}

func TestSubmitSuccess(t *testing.T) {
	sender := &fakeSender{reply: "  <p>Hi <strong>there</strong></p>\n"}
	s, _, events := newTestSession(sender)

	msg, err := s.Submit(context.Background(), "  hello ")
	require.NoError(t, err)

	assert.True(t, msg.IsBot)
	assert.Equal(t, "<p>Hi <strong>there</strong></p>", msg.Content)
	assert.True(t, msg.HasAction(ActionReadAloud))
	assert.Equal(t, []string{"hello"}, sender.prompts)

	transcript := s.Transcript().Messages()
	require.Len(t, transcript, 2)
	assert.False(t, transcript[0].IsBot)
	assert.Equal(t, "hello", transcript[0].Content)
	assert.Equal(t, msg, transcript[1])
	assert.NotEqual(t, transcript[0].ID, transcript[1].ID)

	var kinds []EventKind
	var states []State
	for _, e := range *events {
		kinds = append(kinds, e.Kind)
		if e.Kind == EventState {
			states = append(states, e.State)
		}
	}
	assert.Equal(t, []EventKind{EventState, EventAdded, EventAdded, EventUpdated, EventState, EventState}, kinds)
	assert.Equal(t, []State{StateSending, StateSuccess, StateIdle}, states)
	assert.Equal(t, ThinkingText, (*events)[2].Message.Content)
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"quota body", &ServerError{Status: 500, Body: "Something went wrong: insufficient_quota"}, QuotaFailureText},
		{"quota code", &ServerError{Status: 429, Code: "quota_exceeded", Body: "Something went wrong"}, QuotaFailureText},
		{"generic", &ServerError{Status: 500, Body: "Something went wrong: boom"}, ServerFailureText},
		{"network", &NetworkError{Err: errors.New("dial tcp: refused")}, NetworkFailureText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{err: tc.err}
			s, _, events := newTestSession(sender)

			msg, err := s.Submit(context.Background(), "hello")
			require.Error(t, err)
			assert.Equal(t, tc.want, msg.Content)
			assert.Empty(t, msg.Actions)
			assert.Len(t, sender.prompts, 1)

			transcript := s.Transcript().Messages()
			require.Len(t, transcript, 2)
			assert.Equal(t, tc.want, transcript[1].Content)

			last := (*events)[len(*events)-2]
			assert.Equal(t, StateFailure, last.State)
		})
	}
}

func TestGreet(t *testing.T) {
	s, _, events := newTestSession(&fakeSender{})
	m := s.Greet()

	assert.True(t, m.IsBot)
	assert.Equal(t, Greeting, m.Content)
	assert.True(t, m.HasAction(ActionReadAloud))
	assert.True(t, strings.HasPrefix(m.ID, "id-"))
	require.Len(t, *events, 1)
	assert.Equal(t, EventAdded, (*events)[0].Kind)
}

func TestNewMessageID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a, b := NewMessageID(now), NewMessageID(now)

	assert.Regexp(t, `^id-1700000000123-[0-9a-f]+$`, a)
	assert.NotEqual(t, a, b)
}

func TestTranscriptReplaceUnknown(t *testing.T) {
	tr := NewTranscript()
	tr.Add(Message{ID: "a", Content: "x"})

	_, ok := tr.Replace("missing", "y")
	assert.False(t, ok)

	m, ok := tr.Replace("a", "y", ActionReadAloud)
	require.True(t, ok)
	assert.Equal(t, "y", m.Content)
	got, _ := tr.Get("a")
	assert.Equal(t, m, got)
}

package prompt

import (
	"errors"
	"strings"

	"github.com/infogenius-ai/chat-relay/internal/model/chat"
	"github.com/infogenius-ai/chat-relay/internal/model/policy"
)

// ErrEmptyMessage is returned when the new user message is blank.
var ErrEmptyMessage = errors.New("prompt: message is required")

const (
	historyHeader = "\n\nCONVERSATION HISTORY:\n"
	botCue        = "Bot:"
)

// Composer renders a policy, a conversation snapshot and a new user message
// into the single prompt string sent to the completion service.
type Composer struct {
	policy policy.Policy
}

// NewComposer builds a composer bound to the given policy.
func NewComposer(p policy.Policy) *Composer {
	return &Composer{policy: p}
}

// Policy returns the policy the composer renders.
func (c *Composer) Policy() policy.Policy {
	return c.policy
}

// Compose is a pure function of the policy, history and message.
// History is serialised in the order given; the new message is appended as the
// final user line and followed by the bot cue.
func (c *Composer) Compose(history []chat.Turn, message string) (string, error) {
	return Compose(c.policy, history, message)
}

// Compose builds the prompt without a Composer instance.
func Compose(p policy.Policy, history []chat.Turn, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	var b strings.Builder
	b.WriteString(p.Render())
	b.WriteString(historyHeader)
	for _, turn := range history {
		writeTurn(&b, turn)
	}
	writeTurn(&b, chat.UserTurn(message))
	b.WriteString(botCue)
	return b.String(), nil
}

// SerializeHistory renders turns exactly as they appear inside a composed prompt.
func SerializeHistory(history []chat.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		writeTurn(&b, turn)
	}
	return b.String()
}

func writeTurn(b *strings.Builder, turn chat.Turn) {
	b.WriteString(string(turn.Role))
	b.WriteString(": ")
	b.WriteString(turn.Text)
	b.WriteByte('\n')
}

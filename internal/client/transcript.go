package client

import "sync"

// Action is an affordance attached to a transcript message.
type Action string

// ActionReadAloud speaks the message with the soothing voice profile.
const ActionReadAloud Action = "read_aloud"

// Message is one bubble in the transcript. Content is HTML for bot messages
// and plain text for user messages.
type Message struct {
	ID      string
	IsBot   bool
	Content string
	Actions []Action
}

// HasAction reports whether a is attached to the message.
func (m Message) HasAction(a Action) bool {
	for _, got := range m.Actions {
		if got == a {
			return true
		}
	}
	return false
}

// Transcript is the ordered, append-mostly list of messages shown to the user.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	index    map[string]int
}

func NewTranscript() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

// Add appends m.
func (t *Transcript) Add(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.index[m.ID] = len(t.messages)
	t.messages = append(t.messages, m)
}

// Replace rewrites the content and actions of the message with id in place.
func (t *Transcript) Replace(id, content string, actions ...Action) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	m := t.messages[i]
	m.Content = content
	m.Actions = append([]Action(nil), actions...)
	t.messages[i] = m
	return m, true
}

// Get returns the message with id.
func (t *Transcript) Get(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.index[id]
	if !ok {
		return Message{}, false
	}
	return t.messages[i], true
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

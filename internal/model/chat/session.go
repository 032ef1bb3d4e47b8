package chat

import "time"

// DefaultSessionID groups requests that carry no session identifier.
const DefaultSessionID = "default"

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

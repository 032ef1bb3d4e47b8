package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Turn is one immutable message in a conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// UserTurn builds a user turn.
func UserTurn(text string) Turn { return Turn{Role: RoleUser, Text: text} }

// BotTurn builds a bot turn.
func BotTurn(text string) Turn { return Turn{Role: RoleBot, Text: text} }

// Exchange is one completed user/bot pair, the unit of persistence.
// Bot carries the formatted (linkified) reply.
type Exchange struct {
	SessionID string    `json:"sessionId"`
	UserText  string    `json:"user"`
	BotText   string    `json:"bot"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}

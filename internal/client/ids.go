package client

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewMessageID returns an id of the form id-<unix ms>-<hex>.
func NewMessageID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("id-%d-%s", now.UnixMilli(), hex.EncodeToString(u[:6]))
}

package auth

import (
	"time"

	"github.com/google/uuid"
)

// SessionRecord mirrors a live Redis session in postgres so that active
// logins survive for auditing after the Redis key expires.
type SessionRecord struct {
	ID        string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}

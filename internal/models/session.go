package models

import "time"

// LoginToken is the short-lived single-use magic-link credential. The row is
// deleted on successful verification (and on a failed verification of an
// expired token).
type LoginToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index;not null"`
	Token     string    `gorm:"size:128;uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// Session stores long-lived user sessions (for logout, invalidation, audit).
// The bearer JWT references a session by ID; deleting the row revokes the
// credential.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// Valid reports whether the session is still usable at now.
func (s Session) Valid(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

package models

import "time"

// AuditLog records privileged operations (role changes, bans, moderation,
// allowlist edits) for later review.
type AuditLog struct {
	ID         uint   `gorm:"primaryKey"`
	UserID     string `gorm:"size:36;index"`
	Action     string `gorm:"size:64;index;not null"`
	TargetType string `gorm:"size:32"`
	TargetID   string `gorm:"size:255"`
	Metadata   string `gorm:"size:2048"`
	IP         string `gorm:"size:64"`
	CreatedAt  time.Time
}

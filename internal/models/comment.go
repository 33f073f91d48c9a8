package models

import "time"

const (
	CommentActive = "active"
	CommentHidden = "hidden"
)

// Comment on a feature. Hidden comments stay in the table but are excluded
// from the public listing.
type Comment struct {
	ID        string    `gorm:"primaryKey;size:36"`
	FeatureID string    `gorm:"size:36;index;not null"`
	UserID    string    `gorm:"size:36;index;not null"`
	ParentID  *string   `gorm:"size:36;index"`
	Content   string    `gorm:"type:text;not null"`
	Status    string    `gorm:"size:16;index;not null;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package models

import "time"

const (
	SuggestionPending  = "pending"
	SuggestionApproved = "approved"
	SuggestionRejected = "rejected"
)

// Suggestion is a user-submitted feature idea awaiting review. Approving one
// creates a real Feature and records its ID; a suggestion is reviewed at most
// once.
type Suggestion struct {
	ID                string    `gorm:"primaryKey;size:36"`
	UserID            string    `gorm:"size:36;index;not null"`
	TitleEN           string    `gorm:"size:255;not null"`
	TitleVI           string    `gorm:"size:255;not null"`
	DescEN            string    `gorm:"type:text"`
	DescVI            string    `gorm:"type:text"`
	Status            string    `gorm:"size:16;index;not null;default:pending"`
	AdminNote         string    `gorm:"type:text"`
	ApprovedFeatureID *string   `gorm:"size:36"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

package models

import "time"

// Feature is a proposed product feature with bilingual title/description.
// Vote counts are never stored here; they are derived from the votes table
// at read time.
type Feature struct {
	ID        string    `gorm:"primaryKey;size:36"`
	TitleEN   string    `gorm:"size:255;not null"`
	TitleVI   string    `gorm:"size:255;not null"`
	DescEN    string    `gorm:"type:text"`
	DescVI    string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LocalizedText is the bilingual payload shape used on the wire.
type LocalizedText struct {
	EN string `json:"en"`
	VI string `json:"vi"`
}

package models

import "time"

const (
	VoteUp   = "up"
	VoteDown = "down"
)

// ValidVoteType reports whether t is one of the two allowed literals.
func ValidVoteType(t string) bool {
	return t == VoteUp || t == VoteDown
}

// Vote is one ledger row. The composite unique index on
// (feature_id, fingerprint) guarantees at most one row per voter per feature
// even when two first-time votes race.
type Vote struct {
	ID          string    `gorm:"primaryKey;size:36"`
	FeatureID   string    `gorm:"size:36;not null;uniqueIndex:idx_votes_feature_fingerprint"`
	Fingerprint string    `gorm:"size:64;not null;uniqueIndex:idx_votes_feature_fingerprint"`
	VoteType    string    `gorm:"size:8;not null"`
	CreatedAt   time.Time
}

// Tally holds the derived vote counts for one feature.
type Tally struct {
	VotesUp   int64 `json:"votesUp"`
	VotesDown int64 `json:"votesDown"`
}

// Net returns votesUp - votesDown.
func (t Tally) Net() int64 {
	return t.VotesUp - t.VotesDown
}

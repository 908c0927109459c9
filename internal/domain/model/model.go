// Package model contains domain models passed between layers.
package model

import "time"

// Group is a registered team identified by name and authenticated by an
// opaque API key. Groups are created by the admin CLI, never over HTTP.
type Group struct {
	ID        string    `gorm:"primaryKey;size:36" json:"-"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Key       string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Submission holds a group's current guess. At most one row exists per group;
// updates overwrite the guess and timestamp in place rather than appending.
type Submission struct {
	ID        string    `gorm:"primaryKey;size:36" json:"-"`
	GroupID   string    `gorm:"uniqueIndex;size:36;not null" json:"-"`
	Guess     string    `gorm:"size:64;not null" json:"guess"`
	CreatedAt time.Time `json:"submitted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupSubmission pairs a group with its current submission for scoring.
type GroupSubmission struct {
	Group      Group
	Submission Submission
}

// ScoreEntry is a derived standings row. It is never stored; the aggregator
// recomputes entries from groups and submissions on demand.
type ScoreEntry struct {
	Rank        int       `json:"rank"`
	Group       string    `json:"group"`
	Guess       string    `json:"guess"`
	Correct     bool      `json:"correct"`
	Score       float64   `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

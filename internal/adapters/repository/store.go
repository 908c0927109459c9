// Package repository defines the relational store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/perceval/leaderboard/internal/domain/model"
)

// Store provides durable access to groups and submissions.
type Store interface {
	// CreateGroup persists a new group with its API key.
	// Returns ErrDuplicateGroup when the name is already taken.
	CreateGroup(ctx context.Context, name, key string, admin bool) (model.Group, error)

	// GroupByKey looks up the group owning an API key.
	// Returns ErrNotFound for unknown keys.
	GroupByKey(ctx context.Context, key string) (model.Group, error)

	// Groups lists all registered groups.
	Groups(ctx context.Context) ([]model.Group, error)

	// CreateSubmission records a group's first guess.
	// Returns ErrConflict when the group already has a submission.
	CreateSubmission(ctx context.Context, groupID, guess string) (model.Submission, error)

	// UpdateSubmission overwrites the guess and timestamp of the group's
	// existing submission. Returns ErrNotFound when none exists.
	UpdateSubmission(ctx context.Context, groupID, guess string) (model.Submission, error)

	// Submission returns the group's current submission or ErrNotFound.
	Submission(ctx context.Context, groupID string) (model.Submission, error)

	// DeleteSubmission removes the group's submission.
	// Returns ErrNotFound when none exists.
	DeleteSubmission(ctx context.Context, groupID string) error

	// CurrentSubmissions returns every group paired with its submission,
	// for standings computation. Groups without a submission are omitted.
	CurrentSubmissions(ctx context.Context) ([]model.GroupSubmission, error)

	// PruneSubmissions deletes submissions last updated before the cutoff
	// and reports how many rows were removed.
	PruneSubmissions(ctx context.Context, cutoff time.Time) (int64, error)

	// CountGroups returns the number of registered groups.
	CountGroups(ctx context.Context) (int64, error)

	// Close releases the underlying database handle.
	Close() error
}

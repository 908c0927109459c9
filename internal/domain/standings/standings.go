// Package standings computes ranked leaderboard entries from submissions.
package standings

import (
	"sort"
	"sync"
	"time"

	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/internal/domain/scoring"
)

// Compute derives ranked standings from the current submissions. Entries are
// ordered by score descending; ties rank the earlier submission first, and
// equal timestamps fall back to group name so the order is deterministic.
func Compute(rows []model.GroupSubmission, rule *scoring.Rule) []model.ScoreEntry {
	entries := make([]model.ScoreEntry, 0, len(rows))
	for _, row := range rows {
		score, correct := rule.Score(row.Submission.Guess)
		entries = append(entries, model.ScoreEntry{
			Group:       row.Group.Name,
			Guess:       row.Submission.Guess,
			Correct:     correct,
			Score:       score,
			SubmittedAt: row.Submission.UpdatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
		}
		return entries[i].Group < entries[j].Group
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Snapshot is a cached standings view with its refresh time.
type Snapshot struct {
	Entries     []model.ScoreEntry `json:"standings"`
	RefreshedAt time.Time          `json:"refreshed_at"`
}

// Cache holds the snapshot the scheduler refreshes and the standings page
// polls. Reads never touch the database.
type Cache struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// NewCache creates an empty standings cache.
func NewCache() *Cache {
	return &Cache{}
}

// Set replaces the cached snapshot.
func (c *Cache) Set(entries []model.ScoreEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = Snapshot{
		Entries:     entries,
		RefreshedAt: time.Now(),
	}
}

// Get returns the cached snapshot. The entries slice is shared; callers must
// not mutate it.
func (c *Cache) Get() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/perceval/leaderboard/internal/adapters/repository"
	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/domain/auth"
	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/internal/domain/scoring"
	"github.com/perceval/leaderboard/internal/domain/standings"
	"github.com/perceval/leaderboard/pkg/logger"
	"github.com/perceval/leaderboard/pkg/metrics"
)

// Service implements the API dependencies for the leaderboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	contest *config.Contest
	rule    *scoring.Rule
	cache   *standings.Cache

	// Configuration
	pruneAfter time.Duration

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the relational store backing the service.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithContest sets the contest parameters loaded at startup.
func WithContest(contest *config.Contest) Option {
	return func(s *Service) {
		if contest != nil {
			s.contest = contest
		}
	}
}

// WithPruneAfter enables pruning of submissions older than the window.
func WithPruneAfter(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.pruneAfter = window
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. A store and contest must be provided via
// options before Start.
func New(opts ...Option) *Service {
	s := &Service{
		cache: standings.NewCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start validates the wiring, builds the scoring rule and warms the
// standings snapshot.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return fmt.Errorf("%w: no store configured", ErrNotStarted)
	}
	if s.contest == nil {
		return fmt.Errorf("%w: no contest configured", ErrNotStarted)
	}

	s.rule = scoring.NewRule(
		scoring.WithTarget(s.contest.Target),
		scoring.WithMaxScore(s.contest.MaxScore),
		scoring.WithPresenceOnly(s.contest.PresenceOnly),
	)
	s.started = true

	if err := s.refreshSnapshot(ctx); err != nil {
		s.logger.Warn(ctx, "initial standings refresh failed", logger.Error(err))
	}

	s.logger.Info(ctx, "leaderboard service started",
		logger.String("target", s.contest.Target),
		logger.Any("presenceOnly", s.contest.PresenceOnly),
		logger.Duration("pruneAfter", s.pruneAfter),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
	}
	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// RegisterGroup creates a group with a freshly generated API key and returns
// the key. Used by the admin CLI only.
func (s *Service) RegisterGroup(ctx context.Context, name string, admin bool) (model.Group, error) {
	key, err := auth.NewKey()
	if err != nil {
		return model.Group{}, err
	}
	g, err := s.store.CreateGroup(ctx, name, key, admin)
	if err != nil {
		return model.Group{}, err
	}
	return g, nil
}

// Authenticate resolves an API key to its group. Unknown keys yield
// ErrInvalidKey without revealing which groups exist.
func (s *Service) Authenticate(ctx context.Context, key string) (model.Group, error) {
	if key == "" {
		metrics.RecordAuthFailure()
		return model.Group{}, ErrInvalidKey
	}
	g, err := s.store.GroupByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordAuthFailure()
			return model.Group{}, ErrInvalidKey
		}
		return model.Group{}, err
	}
	return g, nil
}

// Submit records a group's first guess.
func (s *Service) Submit(ctx context.Context, g model.Group, guess string) (model.Submission, error) {
	if !s.contest.Allowed(guess) {
		metrics.RecordSubmissionRejected("bad_guess")
		return model.Submission{}, fmt.Errorf("%w: %q", ErrBadGuess, guess)
	}
	sub, err := s.store.CreateSubmission(ctx, g.ID, guess)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			metrics.RecordSubmissionRejected("conflict")
		}
		return model.Submission{}, err
	}
	metrics.RecordSubmissionCreated()
	s.logger.Debug(ctx, "submission created",
		logger.String("group", g.Name),
		logger.String("guess", guess),
	)
	return sub, nil
}

// Update overwrites a group's existing guess.
func (s *Service) Update(ctx context.Context, g model.Group, guess string) (model.Submission, error) {
	if !s.contest.Allowed(guess) {
		metrics.RecordSubmissionRejected("bad_guess")
		return model.Submission{}, fmt.Errorf("%w: %q", ErrBadGuess, guess)
	}
	sub, err := s.store.UpdateSubmission(ctx, g.ID, guess)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordSubmissionRejected("not_found")
		}
		return model.Submission{}, err
	}
	metrics.RecordSubmissionUpdated()
	s.logger.Debug(ctx, "submission updated",
		logger.String("group", g.Name),
		logger.String("guess", guess),
	)
	return sub, nil
}

// Get returns a group's current submission.
func (s *Service) Get(ctx context.Context, g model.Group) (model.Submission, error) {
	return s.store.Submission(ctx, g.ID)
}

// Delete removes a group's submission.
func (s *Service) Delete(ctx context.Context, g model.Group) error {
	if err := s.store.DeleteSubmission(ctx, g.ID); err != nil {
		return err
	}
	metrics.RecordSubmissionDeleted()
	return nil
}

// Standings recomputes ranked standings from the store. Reads are always
// fresh; the cached snapshot exists only for the polling page.
func (s *Service) Standings(ctx context.Context) ([]model.ScoreEntry, error) {
	rows, err := s.store.CurrentSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	return standings.Compute(rows, s.rule), nil
}

// Snapshot returns the cached standings the scheduler keeps fresh.
func (s *Service) Snapshot() standings.Snapshot {
	return s.cache.Get()
}

// refreshSnapshot recomputes standings and publishes them to the cache.
func (s *Service) refreshSnapshot(ctx context.Context) error {
	start := time.Now()
	entries, err := s.Standings(ctx)
	if err != nil {
		return err
	}
	s.cache.Set(entries)
	metrics.RecordStandingsRefresh(float64(time.Since(start).Milliseconds()))

	if count, err := s.store.CountGroups(ctx); err == nil {
		metrics.UpdateTotalGroups(int(count))
	}
	return nil
}

// Tick is the scheduler entry point: refresh the snapshot and, when
// configured, prune stale submissions.
func (s *Service) Tick(ctx context.Context) error {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if err := s.refreshSnapshot(ctx); err != nil {
		return fmt.Errorf("standings refresh: %w", err)
	}

	if s.pruneAfter > 0 {
		cutoff := time.Now().Add(-s.pruneAfter)
		pruned, err := s.store.PruneSubmissions(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("prune submissions: %w", err)
		}
		if pruned > 0 {
			metrics.RecordPrunedSubmissions(pruned)
			s.logger.Info(ctx, "pruned stale submissions", logger.Int64("count", pruned))
		}
	}
	return nil
}

// Contest exposes the loaded contest parameters. Handlers use this for the
// admin status endpoint; the target never leaves admin-gated responses.
func (s *Service) Contest() *config.Contest {
	return s.contest
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		snap := s.cache.Get()
		stats["standingsEntries"] = len(snap.Entries)
		stats["standingsRefreshedAt"] = snap.RefreshedAt
		if count, err := s.store.CountGroups(context.Background()); err == nil {
			stats["totalGroups"] = count
		}
	}
	return stats
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/pkg/metrics"
)

// GormStore implements Store on top of gorm with a sqlite or postgres driver.
type GormStore struct {
	db       *gorm.DB
	postgres bool
}

// Open connects to the database selected by dsn. A postgres:// or
// postgresql:// prefix selects the postgres driver; anything else is treated
// as a sqlite path or URI.
func Open(ctx context.Context, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	pg := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if pg {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &GormStore{db: db, postgres: pg}, nil
}

// Migrate creates or updates the schema. Safe to call repeatedly.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Group{}, &model.Submission{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// transient reports whether an error is worth a single retry. Domain
// sentinels and cancellation are final; everything else (connection drops,
// busy database) gets one more attempt before surfacing as a 500.
func transient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicateGroup):
		return false
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return false
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func (s *GormStore) withRetry(fn func() error) error {
	err := fn()
	if !transient(err) {
		return err
	}
	metrics.RecordStoreRetry()
	return fn()
}

func observeWrite(start time.Time) {
	metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
}

func observeQuery(start time.Time) {
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
}

// CreateGroup persists a new group with its API key.
func (s *GormStore) CreateGroup(ctx context.Context, name, key string, admin bool) (model.Group, error) {
	defer observeWrite(time.Now())

	g := model.Group{
		ID:    uuid.NewString(),
		Name:  name,
		Key:   key,
		Admin: admin,
	}
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Create(&g).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Group{}, fmt.Errorf("%w: %s", ErrDuplicateGroup, name)
	}
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to create group: %w", err)
	}
	return g, nil
}

// GroupByKey looks up the group owning an API key.
func (s *GormStore) GroupByKey(ctx context.Context, key string) (model.Group, error) {
	defer observeQuery(time.Now())

	var g model.Group
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Where("key = ?", key).First(&g).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Group{}, ErrNotFound
	}
	if err != nil {
		return model.Group{}, fmt.Errorf("failed to look up group: %w", err)
	}
	return g, nil
}

// Groups lists all registered groups ordered by name.
func (s *GormStore) Groups(ctx context.Context) ([]model.Group, error) {
	defer observeQuery(time.Now())

	var groups []model.Group
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Order("name").Find(&groups).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// CreateSubmission records a group's first guess. The existence check and the
// insert run in one transaction; a concurrent insert racing past the check
// still hits the unique index on group_id and maps to ErrConflict.
func (s *GormStore) CreateSubmission(ctx context.Context, groupID, guess string) (model.Submission, error) {
	defer observeWrite(time.Now())

	var sub model.Submission
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&model.Submission{}).Where("group_id = ?", groupID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrConflict
			}
			sub = model.Submission{
				ID:      uuid.NewString(),
				GroupID: groupID,
				Guess:   guess,
			}
			return tx.Create(&sub).Error
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = ErrConflict
	}
	if errors.Is(err, ErrConflict) {
		return model.Submission{}, ErrConflict
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("failed to create submission: %w", err)
	}
	return sub, nil
}

// UpdateSubmission overwrites the guess and timestamp of an existing
// submission inside a transaction. On postgres the row is locked for the
// read-modify-write; sqlite serializes writers on its own.
func (s *GormStore) UpdateSubmission(ctx context.Context, groupID, guess string) (model.Submission, error) {
	defer observeWrite(time.Now())

	var sub model.Submission
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			q := tx.Where("group_id = ?", groupID)
			if s.postgres {
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			if err := q.First(&sub).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			sub.Guess = guess
			return tx.Save(&sub).Error
		})
	})
	if errors.Is(err, ErrNotFound) {
		return model.Submission{}, ErrNotFound
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("failed to update submission: %w", err)
	}
	return sub, nil
}

// Submission returns the group's current submission.
func (s *GormStore) Submission(ctx context.Context, groupID string) (model.Submission, error) {
	defer observeQuery(time.Now())

	var sub model.Submission
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Where("group_id = ?", groupID).First(&sub).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Submission{}, ErrNotFound
	}
	if err != nil {
		return model.Submission{}, fmt.Errorf("failed to read submission: %w", err)
	}
	return sub, nil
}

// DeleteSubmission removes the group's submission.
func (s *GormStore) DeleteSubmission(ctx context.Context, groupID string) error {
	defer observeWrite(time.Now())

	var affected int64
	err := s.withRetry(func() error {
		res := s.db.WithContext(ctx).Where("group_id = ?", groupID).Delete(&model.Submission{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CurrentSubmissions pairs every submission with its group.
func (s *GormStore) CurrentSubmissions(ctx context.Context) ([]model.GroupSubmission, error) {
	defer observeQuery(time.Now())

	var groups []model.Group
	var subs []model.Submission
	err := s.withRetry(func() error {
		if err := s.db.WithContext(ctx).Find(&groups).Error; err != nil {
			return err
		}
		return s.db.WithContext(ctx).Find(&subs).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}

	byID := make(map[string]model.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	rows := make([]model.GroupSubmission, 0, len(subs))
	for _, sub := range subs {
		g, ok := byID[sub.GroupID]
		if !ok {
			// Orphaned submission; the pruning task will collect it.
			continue
		}
		rows = append(rows, model.GroupSubmission{Group: g, Submission: sub})
	}
	return rows, nil
}

// PruneSubmissions deletes submissions last updated before the cutoff.
func (s *GormStore) PruneSubmissions(ctx context.Context, cutoff time.Time) (int64, error) {
	defer observeWrite(time.Now())

	var affected int64
	err := s.withRetry(func() error {
		res := s.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&model.Submission{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune submissions: %w", err)
	}
	return affected, nil
}

// CountGroups returns the number of registered groups.
func (s *GormStore) CountGroups(ctx context.Context) (int64, error) {
	defer observeQuery(time.Now())

	var count int64
	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Model(&model.Group{}).Count(&count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return count, nil
}

// Close releases the underlying database handle.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perceval/leaderboard/internal/adapters/repository"
	service "github.com/perceval/leaderboard/internal/app"
	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/pkg/logger"
)

// Run executes a full contest simulation: register groups, drive concurrent
// submissions through the HTTP API and verify the resulting standings.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting contest simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("groups", cfg.NumGroups),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
	)

	contest, err := config.LoadContest(cfg.ContestPath)
	if err != nil {
		return fmt.Errorf("failed to load contest config: %w", err)
	}

	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	groups, cleanup, err := registerGroups(ctx, cfg, stats)
	if err != nil {
		return fmt.Errorf("group registration failed: %w", err)
	}
	defer cleanup()

	if err := driveSubmissions(ctx, cfg, contest, groups, stats); err != nil {
		return fmt.Errorf("submission run failed: %w", err)
	}

	entries, err := newHTTPClient(cfg.Timeout).standings(ctx, cfg.BaseURL+cfg.BasePath)
	if err != nil {
		return fmt.Errorf("standings retrieval failed: %w", err)
	}
	stats.StandingsEntries = len(entries)

	if err := verifyStandings(ctx, contest, groups, entries); err != nil {
		return fmt.Errorf("standings verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	log.Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is up before driving load at it.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	client := newHTTPClient(cfg.Timeout)
	status, _, err := client.do(ctx, http.MethodGet, cfg.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("health check returned status %d", status)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// registerGroups creates throwaway groups directly against the store and
// returns them along with a cleanup func that removes their submissions.
func registerGroups(ctx context.Context, cfg *Config, stats *Stats) ([]model.Group, func(), error) {
	store, err := repository.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	svc := service.New(service.WithStore(store))

	groups := make([]model.Group, 0, cfg.NumGroups)
	suffix := time.Now().Format("150405")
	for i := 0; i < cfg.NumGroups; i++ {
		name := fmt.Sprintf("sim-%s-%03d", suffix, i)
		g, err := svc.RegisterGroup(ctx, name, false)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to register group %s: %w", name, err)
		}
		groups = append(groups, g)
	}
	stats.GroupsRegistered = len(groups)
	logger.Get().Info(ctx, "registered simulation groups", logger.Int("count", len(groups)))

	cleanup := func() {
		if !cfg.KeepGroups {
			for _, g := range groups {
				_ = store.DeleteSubmission(context.Background(), g.ID)
			}
		}
		_ = store.Close()
	}
	return groups, cleanup, nil
}

// driveSubmissions pushes every group's guesses through the HTTP API with a
// worker pool. Each group POSTs once, then a random share PATCHes a new guess
// and a few POST again to exercise the conflict path.
func driveSubmissions(ctx context.Context, cfg *Config, contest *config.Contest, groups []model.Group, stats *Stats) error {
	client := newHTTPClient(cfg.Timeout)
	base := cfg.BaseURL + cfg.BasePath
	guesses := contest.AllowedGuesses

	type job struct {
		method string
		key    string
		guess  string
	}

	// Every group POSTs once; a random third PATCHes a new guess afterwards
	// and another third POSTs again to exercise the conflict path.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var first, second []job
	for _, g := range groups {
		first = append(first, job{http.MethodPost, g.Key, guesses[rng.Intn(len(guesses))]})
		switch rng.Intn(3) {
		case 0:
			second = append(second, job{http.MethodPatch, g.Key, guesses[rng.Intn(len(guesses))]})
		case 1:
			second = append(second, job{http.MethodPost, g.Key, guesses[rng.Intn(len(guesses))]})
		}
	}

	var created, updated, conflicts, failed, submitted int64

	// runRound drains a batch through the worker pool before the next batch
	// starts, so PATCH and conflict jobs always hit existing rows.
	runRound := func(round []job) {
		jobChan := make(chan job, cfg.Workers*2)
		var wg sync.WaitGroup
		for i := 0; i < cfg.Workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range jobChan {
					select {
					case <-ctx.Done():
						return
					default:
					}
					atomic.AddInt64(&submitted, 1)
					switch client.submit(ctx, base, j.method, j.key, j.guess) {
					case "created":
						atomic.AddInt64(&created, 1)
					case "updated":
						atomic.AddInt64(&updated, 1)
					case "conflict":
						atomic.AddInt64(&conflicts, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
				}
			}()
		}
		for _, j := range round {
			select {
			case <-ctx.Done():
				close(jobChan)
				wg.Wait()
				return
			case jobChan <- j:
			}
		}
		close(jobChan)
		wg.Wait()
	}

	runRound(first)
	runRound(second)

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Created = int(atomic.LoadInt64(&created))
	stats.Updated = int(atomic.LoadInt64(&updated))
	stats.Conflicts = int(atomic.LoadInt64(&conflicts))
	stats.Failed = int(atomic.LoadInt64(&failed))

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", stats.Failed, stats.Submitted)
	}
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("groupsRegistered", stats.GroupsRegistered),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("updated", stats.Updated),
		logger.Int("conflicts", stats.Conflicts),
		logger.Int("failed", stats.Failed),
		logger.Int("standingsEntries", stats.StandingsEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("requestsPerSecond", perSecond),
	)
}

package simulate

import (
	"context"
	"fmt"
	"strings"

	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/pkg/logger"
)

// verifyStandings checks that the standings returned by the API contain every
// simulated group, are sorted by score, and score guesses consistently with
// the contest parameters.
func verifyStandings(ctx context.Context, contest *config.Contest, groups []model.Group, entries []Entry) error {
	log := logger.Get()
	log.Info(ctx, "verifying standings", logger.Int("entries", len(entries)))

	if len(entries) == 0 {
		return fmt.Errorf("no standings entries to verify")
	}

	byName := make(map[string]Entry, len(entries))
	for i, e := range entries {
		if e.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d", i, e.Rank)
		}
		if i > 0 && e.Score > entries[i-1].Score {
			return fmt.Errorf("standings not sorted: rank %d outscores rank %d", e.Rank, entries[i-1].Rank)
		}
		byName[e.Group] = e
	}

	missing := 0
	for _, g := range groups {
		e, ok := byName[g.Name]
		if !ok {
			missing++
			continue
		}
		correct := contest.PresenceOnly || strings.EqualFold(e.Guess, contest.Target)
		if e.Correct != correct {
			return fmt.Errorf("group %s marked correct=%v for guess %q", g.Name, e.Correct, e.Guess)
		}
		want := 0.0
		if correct {
			want = contest.MaxScore
		}
		if e.Score != want {
			return fmt.Errorf("group %s scored %.2f, want %.2f", g.Name, e.Score, want)
		}
	}
	if missing > 0 {
		return fmt.Errorf("%d simulated groups missing from standings", missing)
	}

	log.Info(ctx, "standings verified")
	return nil
}

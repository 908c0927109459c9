package scheduler_test

import (
	"os"
	"testing"

	"github.com/perceval/leaderboard/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"github.com/perceval/leaderboard/internal/simulate"
	"github.com/perceval/leaderboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumGroups   = 25
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the service")
		basePath   = flag.String("base-path", "/lelec2103", "Base path the API is mounted under")
		dsn        = flag.String("dsn", "file:leaderboard.db", "Database DSN for registering simulation groups")
		contest    = flag.String("contest", ".config.json", "Contest config file")
		numGroups  = flag.Int("groups", defaultNumGroups, "Number of groups to register and drive")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		keepGroups = flag.Bool("keep", false, "Leave the simulation groups' submissions in place")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:     *baseURL,
		BasePath:    *basePath,
		DatabaseDSN: *dsn,
		ContestPath: *contest,
		NumGroups:   *numGroups,
		Workers:     *workers,
		Timeout:     *timeout,
		KeepGroups:  *keepGroups,
		Verbose:     *verbose,
	}

	if err := simulate.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

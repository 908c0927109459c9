package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/perceval/leaderboard/internal/adapters/http/api"
	"github.com/perceval/leaderboard/internal/adapters/http/site"
	"github.com/perceval/leaderboard/internal/adapters/http/swagger"
	"github.com/perceval/leaderboard/internal/adapters/repository"
	service "github.com/perceval/leaderboard/internal/app"
	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/scheduler"
	"github.com/perceval/leaderboard/pkg/logger"
	"github.com/perceval/leaderboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "perceval",
		Short:        "Contest leaderboard service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the contest configuration",
	}
	configCmd.AddCommand(configInitCmd(), generateKeyCmd())

	sqlCmd := &cobra.Command{
		Use:   "sql",
		Short: "Manage the relational database",
	}
	sqlCmd.AddCommand(sqlInitCmd(), sqlGroupsCmd())

	root.AddCommand(serve, configCmd, sqlCmd)
	return root
}

// configInitCmd writes the contest configuration file with default values.
// It fails when the file already exists so a running contest cannot be
// clobbered by accident.
func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the contest configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := config.InitContest(cfg.ContestPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "contest config written to %s\n", cfg.ContestPath)
			return nil
		},
	}
}

// generateKeyCmd registers a group and prints its freshly generated API key.
func generateKeyCmd() *cobra.Command {
	var admin bool
	cmd := &cobra.Command{
		Use:   "generate-key <group>",
		Short: "Register a group and print its API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			store, err := repository.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := service.New(service.WithStore(store))
			g, err := svc.RegisterGroup(cmd.Context(), args[0], admin)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "group: %s\nkey:   %s\n", g.Name, g.Key)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the group admin rights")
	return cmd
}

// sqlInitCmd creates the database schema.
func sqlInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			store, err := repository.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database schema ready")
			return nil
		},
	}
}

// sqlGroupsCmd lists registered groups.
func sqlGroupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List registered groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			store, err := repository.Open(cmd.Context(), cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			groups, err := store.Groups(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range groups {
				admin := ""
				if g.Admin {
					admin = " (admin)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\t%s\n", g.Name, admin, g.Key)
			}
			return nil
		},
	}
}

func runServe() error {
	// Disable default Go metrics collection; the system metrics updater
	// exports its own gauges on the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// The contest file is immutable while serving; a corrupt one is fatal
	// since the scoring rule would be nonsense.
	contest, err := config.LoadContest(cfg.ContestPath)
	if err != nil {
		return fmt.Errorf("failed to load contest config: %w", err)
	}

	store, err := repository.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithStore(store),
		service.WithContest(contest),
		service.WithPruneAfter(cfg.PruneAfter()),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	// Periodic snapshot refresh and pruning.
	sched := scheduler.New(svc.Tick,
		scheduler.WithInterval(cfg.RefreshInterval()),
		scheduler.WithLogger(log.Named("scheduler")),
	)
	go sched.Run(ctx)

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	swagger.Register(ctx, mux, cfg.BasePath)
	site.Register(ctx, mux, cfg.BasePath)

	apiServer := api.NewServer(cfg.BasePath, svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("basePath", cfg.BasePath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater periodically exports process-level gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}

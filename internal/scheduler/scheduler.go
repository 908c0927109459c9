// Package scheduler runs a periodic task inside the server process.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/perceval/leaderboard/pkg/logger"
	"github.com/perceval/leaderboard/pkg/metrics"
)

// Default scheduler configuration constants.
const (
	defaultInterval = time.Second
)

// Task is the unit of work executed on every tick.
type Task func(ctx context.Context) error

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick period.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the scheduler.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler invokes a task at a fixed interval. Ticks never overlap: when a
// run is still in flight the tick is skipped and counted. A failing or
// panicking task is logged and the loop continues with the next tick.
type Scheduler struct {
	task     Task
	interval time.Duration
	running  atomic.Bool
	logger   logger.Logger
}

// New creates a scheduler for the given task with configuration options.
func New(task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		task:     task,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is canceled, executing the task on every tick.
func (s *Scheduler) Run(ctx context.Context) {
	if s.logger == nil {
		s.logger = logger.Get().Named("scheduler")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "scheduler started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs the task once, guarded against overlap and panics.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.RecordSchedulerTickSkipped()
		return
	}
	defer s.running.Store(false)

	metrics.RecordSchedulerTick()
	if err := s.runTask(ctx); err != nil {
		metrics.RecordSchedulerTickError()
		s.logger.Warn(ctx, "scheduler tick failed", logger.Error(err))
	}
}

// runTask converts a panic in the task into an error so one bad tick cannot
// take the process down.
func (s *Scheduler) runTask(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return s.task(ctx)
}

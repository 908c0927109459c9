package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/perceval/leaderboard/internal/scheduler"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSchedulerRun(t *testing.T) {
	Convey("Given a scheduler with a fast interval", t, func() {
		Convey("When the task succeeds", func() {
			var ticks atomic.Int64
			s := scheduler.New(func(ctx context.Context) error {
				ticks.Add(1)
				return nil
			}, scheduler.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
			defer cancel()
			s.Run(ctx)

			Convey("Then the task should run repeatedly until cancellation", func() {
				So(ticks.Load(), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When the task keeps failing", func() {
			var ticks atomic.Int64
			s := scheduler.New(func(ctx context.Context) error {
				ticks.Add(1)
				return errors.New("boom")
			}, scheduler.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
			defer cancel()
			s.Run(ctx)

			Convey("Then the loop should keep ticking anyway", func() {
				So(ticks.Load(), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When the task panics", func() {
			var ticks atomic.Int64
			s := scheduler.New(func(ctx context.Context) error {
				ticks.Add(1)
				panic("boom")
			}, scheduler.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
			defer cancel()

			Convey("Then the panic should be contained and ticking continue", func() {
				So(func() { s.Run(ctx) }, ShouldNotPanic)
				So(ticks.Load(), ShouldBeGreaterThanOrEqualTo, 3)
			})
		})

		Convey("When a run takes longer than the interval", func() {
			var inFlight, maxInFlight atomic.Int64
			s := scheduler.New(func(ctx context.Context) error {
				n := inFlight.Add(1)
				if n > maxInFlight.Load() {
					maxInFlight.Store(n)
				}
				time.Sleep(20 * time.Millisecond)
				inFlight.Add(-1)
				return nil
			}, scheduler.WithInterval(5*time.Millisecond))

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			s.Run(ctx)

			Convey("Then runs should never overlap", func() {
				So(maxInFlight.Load(), ShouldEqual, 1)
			})
		})
	})
}

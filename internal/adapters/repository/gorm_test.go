package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/perceval/leaderboard/internal/adapters/repository"
	. "github.com/smartystreets/goconvey/convey"
)

// newStore opens a fresh in-memory database with the schema applied.
func newStore(t *testing.T, ctx context.Context) *repository.GormStore {
	t.Helper()
	store, err := repository.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGroupStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		store := newStore(t, ctx)

		Convey("When creating a group", func() {
			g, err := store.CreateGroup(ctx, "team-red", "key-red", false)

			Convey("Then it should persist with an ID", func() {
				So(err, ShouldBeNil)
				So(g.ID, ShouldNotBeEmpty)
				So(g.Name, ShouldEqual, "team-red")
				So(g.Admin, ShouldBeFalse)
			})

			Convey("And it should be found by its key", func() {
				found, err := store.GroupByKey(ctx, "key-red")
				So(err, ShouldBeNil)
				So(found.ID, ShouldEqual, g.ID)
			})

			Convey("And creating the same name again should conflict", func() {
				_, err := store.CreateGroup(ctx, "team-red", "key-other", false)
				So(err, ShouldWrap, repository.ErrDuplicateGroup)
			})

			Convey("And the group count should reflect it", func() {
				count, err := store.CountGroups(ctx)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})
		})

		Convey("When looking up an unknown key", func() {
			_, err := store.GroupByKey(ctx, "nope")

			Convey("Then it should report not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When listing groups", func() {
			_, err := store.CreateGroup(ctx, "zebra", "key-z", false)
			So(err, ShouldBeNil)
			_, err = store.CreateGroup(ctx, "alpha", "key-a", true)
			So(err, ShouldBeNil)

			groups, err := store.Groups(ctx)

			Convey("Then they should come back ordered by name", func() {
				So(err, ShouldBeNil)
				So(groups, ShouldHaveLength, 2)
				So(groups[0].Name, ShouldEqual, "alpha")
				So(groups[0].Admin, ShouldBeTrue)
				So(groups[1].Name, ShouldEqual, "zebra")
			})
		})
	})
}

func TestSubmissionStore(t *testing.T) {
	Convey("Given a store with one group", t, func() {
		ctx := context.Background()
		store := newStore(t, ctx)

		g, err := store.CreateGroup(ctx, "team-red", "key-red", false)
		So(err, ShouldBeNil)

		Convey("When creating a submission", func() {
			sub, err := store.CreateSubmission(ctx, g.ID, "fire")

			Convey("Then it should persist and round-trip", func() {
				So(err, ShouldBeNil)
				So(sub.Guess, ShouldEqual, "fire")

				got, err := store.Submission(ctx, g.ID)
				So(err, ShouldBeNil)
				So(got.Guess, ShouldEqual, "fire")
				So(got.GroupID, ShouldEqual, g.ID)
			})

			Convey("And a second create should conflict", func() {
				_, err := store.CreateSubmission(ctx, g.ID, "birds")
				So(err, ShouldEqual, repository.ErrConflict)
			})

			Convey("And an update should overwrite the guess in place", func() {
				updated, err := store.UpdateSubmission(ctx, g.ID, "birds")
				So(err, ShouldBeNil)
				So(updated.Guess, ShouldEqual, "birds")
				So(updated.ID, ShouldEqual, sub.ID)

				rows, err := store.CurrentSubmissions(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(rows[0].Submission.Guess, ShouldEqual, "birds")
			})

			Convey("And a delete should remove it", func() {
				So(store.DeleteSubmission(ctx, g.ID), ShouldBeNil)

				_, err := store.Submission(ctx, g.ID)
				So(err, ShouldEqual, repository.ErrNotFound)

				Convey("And deleting again should report not found", func() {
					So(store.DeleteSubmission(ctx, g.ID), ShouldEqual, repository.ErrNotFound)
				})
			})
		})

		Convey("When updating without an existing submission", func() {
			_, err := store.UpdateSubmission(ctx, g.ID, "fire")

			Convey("Then it should report not found", func() {
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})

		Convey("When reading without an existing submission", func() {
			_, err := store.Submission(ctx, g.ID)
			So(err, ShouldEqual, repository.ErrNotFound)
		})
	})
}

func TestCurrentSubmissions(t *testing.T) {
	Convey("Given two groups with submissions", t, func() {
		ctx := context.Background()
		store := newStore(t, ctx)

		red, err := store.CreateGroup(ctx, "red", "key-red", false)
		So(err, ShouldBeNil)
		blue, err := store.CreateGroup(ctx, "blue", "key-blue", false)
		So(err, ShouldBeNil)

		_, err = store.CreateSubmission(ctx, red.ID, "fire")
		So(err, ShouldBeNil)
		_, err = store.CreateSubmission(ctx, blue.ID, "birds")
		So(err, ShouldBeNil)

		Convey("When reading current submissions", func() {
			rows, err := store.CurrentSubmissions(ctx)

			Convey("Then every group should be paired with its guess", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)

				byName := make(map[string]string)
				for _, r := range rows {
					byName[r.Group.Name] = r.Submission.Guess
				}
				So(byName["red"], ShouldEqual, "fire")
				So(byName["blue"], ShouldEqual, "birds")
			})
		})
	})
}

func TestPruneSubmissions(t *testing.T) {
	Convey("Given a store with submissions", t, func() {
		ctx := context.Background()
		store := newStore(t, ctx)

		g, err := store.CreateGroup(ctx, "red", "key-red", false)
		So(err, ShouldBeNil)
		_, err = store.CreateSubmission(ctx, g.ID, "fire")
		So(err, ShouldBeNil)

		Convey("When pruning with a cutoff in the past", func() {
			pruned, err := store.PruneSubmissions(ctx, time.Now().Add(-time.Hour))

			Convey("Then nothing should be removed", func() {
				So(err, ShouldBeNil)
				So(pruned, ShouldEqual, 0)

				_, err := store.Submission(ctx, g.ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When pruning with a cutoff in the future", func() {
			pruned, err := store.PruneSubmissions(ctx, time.Now().Add(time.Hour))

			Convey("Then the stale submission should be removed", func() {
				So(err, ShouldBeNil)
				So(pruned, ShouldEqual, 1)

				_, err := store.Submission(ctx, g.ID)
				So(err, ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

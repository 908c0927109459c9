package scoring_test

import (
	"testing"

	"github.com/perceval/leaderboard/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRule_Score(t *testing.T) {
	Convey("Given a rule with a target", t, func() {
		rule := scoring.NewRule(
			scoring.WithTarget("fire"),
			scoring.WithMaxScore(1.0),
		)

		Convey("When scoring the exact target", func() {
			score, correct := rule.Score("fire")

			Convey("Then it should award full points", func() {
				So(correct, ShouldBeTrue)
				So(score, ShouldEqual, 1.0)
			})
		})

		Convey("When scoring the target with different casing", func() {
			score, correct := rule.Score("FiRe")

			Convey("Then the match should be case-insensitive", func() {
				So(correct, ShouldBeTrue)
				So(score, ShouldEqual, 1.0)
			})
		})

		Convey("When scoring a wrong guess", func() {
			score, correct := rule.Score("chainsaw")

			Convey("Then it should score zero", func() {
				So(correct, ShouldBeFalse)
				So(score, ShouldEqual, 0.0)
			})
		})

		Convey("When scoring an empty guess", func() {
			score, correct := rule.Score("")

			Convey("Then it should score zero", func() {
				So(correct, ShouldBeFalse)
				So(score, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given a rule in presence mode", t, func() {
		rule := scoring.NewRule(
			scoring.WithTarget("fire"),
			scoring.WithMaxScore(2.0),
			scoring.WithPresenceOnly(true),
		)

		Convey("When scoring any non-empty guess", func() {
			score, correct := rule.Score("chainsaw")

			Convey("Then it should award full points", func() {
				So(correct, ShouldBeTrue)
				So(score, ShouldEqual, 2.0)
			})
		})

		Convey("When scoring an empty guess", func() {
			score, correct := rule.Score("")

			Convey("Then it should still score zero", func() {
				So(correct, ShouldBeFalse)
				So(score, ShouldEqual, 0.0)
			})
		})
	})

	Convey("Given a rule with a non-positive max score option", t, func() {
		rule := scoring.NewRule(
			scoring.WithTarget("fire"),
			scoring.WithMaxScore(-1),
		)

		Convey("Then the default max score should be kept", func() {
			So(rule.MaxScore(), ShouldEqual, 1.0)
		})
	})
}

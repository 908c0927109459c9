// Package scoring defines the rule for scoring guesses against the target.
package scoring

import (
	"strings"
)

// Default scoring configuration constants.
const (
	defaultMaxScore = 1.0
)

// Option applies a configuration option to the Rule.
type Option func(*Rule)

// WithTarget sets the hidden target value.
func WithTarget(target string) Option {
	return func(r *Rule) {
		r.target = target
	}
}

// WithMaxScore sets the score awarded for a correct guess.
func WithMaxScore(max float64) Option {
	return func(r *Rule) {
		if max > 0 {
			r.maxScore = max
		}
	}
}

// WithPresenceOnly switches the rule to presence mode: any guess counts.
func WithPresenceOnly(presenceOnly bool) Option {
	return func(r *Rule) {
		r.presenceOnly = presenceOnly
	}
}

// Rule scores a guess against the configured target. The zero rule scores
// everything as incorrect; construct one with NewRule.
type Rule struct {
	target       string
	presenceOnly bool
	maxScore     float64
}

// NewRule creates a scoring rule with configuration options.
func NewRule(opts ...Option) *Rule {
	r := &Rule{
		maxScore: defaultMaxScore,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Score computes the score for a guess and whether it counts as correct.
// In presence mode any non-empty guess scores full points; otherwise the
// guess must match the target exactly (case-insensitive).
func (r *Rule) Score(guess string) (float64, bool) {
	if guess == "" {
		return 0, false
	}
	if r.presenceOnly {
		return r.maxScore, true
	}
	if strings.EqualFold(guess, r.target) {
		return r.maxScore, true
	}
	return 0, false
}

// MaxScore returns the score a correct guess is worth.
func (r *Rule) MaxScore() float64 {
	return r.maxScore
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// File permission for the contest configuration file.
const contestFilePermission = 0o600

// Contest holds the immutable-once-set contest parameters: the secret target
// the guesses are scored against, the set of accepted guess values and the
// scoring constants. The file is written by `config init` and only read
// afterwards; editing it requires a server restart to take effect.
type Contest struct {
	// Target is the hidden value guesses are compared against.
	Target string `json:"target"`

	// AllowedGuesses enumerates the guess values the API accepts.
	AllowedGuesses []string `json:"allowed_guesses"`

	// PresenceOnly scores any allowed guess as correct. Used for warm-up
	// rounds where showing up is all that counts.
	PresenceOnly bool `json:"presence_only"`

	// MaxScore is the score awarded for a correct guess.
	MaxScore float64 `json:"max_score"`
}

// DefaultContest returns the contest parameters written by `config init`.
func DefaultContest() *Contest {
	return &Contest{
		Target: "fire",
		AllowedGuesses: []string{
			"birds",
			"chainsaw",
			"fire",
			"handsaw",
			"helicopter",
		},
		PresenceOnly: false,
		MaxScore:     1.0,
	}
}

// Validate checks internal consistency of the contest parameters.
func (c *Contest) Validate() error {
	if c.MaxScore <= 0 {
		return fmt.Errorf("%w: max_score must be positive", ErrInvalidConfig)
	}
	if len(c.AllowedGuesses) == 0 {
		return fmt.Errorf("%w: allowed_guesses must not be empty", ErrInvalidConfig)
	}
	if !c.Allowed(c.Target) {
		return fmt.Errorf("%w: target %q is not an allowed guess", ErrInvalidConfig, c.Target)
	}
	return nil
}

// Allowed reports whether guess is one of the accepted guess values.
func (c *Contest) Allowed(guess string) bool {
	for _, g := range c.AllowedGuesses {
		if g == guess {
			return true
		}
	}
	return false
}

// InitContest writes a fresh contest file with default values at path.
// It refuses to overwrite an existing file so a second `config init`
// cannot clobber a running contest.
func InitContest(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	data, err := json.MarshalIndent(DefaultContest(), "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := os.WriteFile(path, data, contestFilePermission); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return nil
}

// LoadContest parses the contest file at path. A missing, malformed or
// inconsistent file yields ErrCorruptConfig; the caller treats that as fatal
// since serving with invalid contest parameters would score nonsense.
func LoadContest(path string) (*Contest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptConfig, err)
	}

	var c Contest
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptConfig, err)
	}
	return &c, nil
}

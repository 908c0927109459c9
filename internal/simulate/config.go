package simulate

import "time"

// Config holds configuration for a contest simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	BasePath    string        // Base path the API is mounted under
	DatabaseDSN string        // DSN used to register throwaway groups
	ContestPath string        // Contest config file, for the allowed guesses
	NumGroups   int           // Number of groups to register and drive
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	KeepGroups  bool          // Leave the registered groups in the database
	Verbose     bool          // Enable verbose logging
}

// Entry mirrors the standings entry served by the API.
type Entry struct {
	Rank        int     `json:"rank"`
	Group       string  `json:"group"`
	Guess       string  `json:"guess"`
	Correct     bool    `json:"correct"`
	Score       float64 `json:"score"`
	SubmittedAt string  `json:"submitted_at"`
}

// standingsResponse mirrors the standings envelope served by the API.
type standingsResponse struct {
	Status    string  `json:"status"`
	Standings []Entry `json:"standings"`
}

// submissionResponse mirrors the submission envelope served by the API.
type submissionResponse struct {
	Status string `json:"status"`
	Group  string `json:"group"`
}

// Stats holds simulation statistics.
type Stats struct {
	GroupsRegistered int
	Submitted        int
	Created          int
	Updated          int
	Conflicts        int
	Failed           int
	StandingsEntries int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

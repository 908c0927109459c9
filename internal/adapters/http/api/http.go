// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/perceval/leaderboard/internal/adapters/repository"
	service "github.com/perceval/leaderboard/internal/app"
	"github.com/perceval/leaderboard/internal/config"
	"github.com/perceval/leaderboard/internal/domain/model"
	"github.com/perceval/leaderboard/internal/domain/standings"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Authenticate resolves an API key to its group.
	Authenticate(ctx context.Context, key string) (model.Group, error)

	// Submission lifecycle operations for an authenticated group.
	Submit(ctx context.Context, g model.Group, guess string) (model.Submission, error)
	Update(ctx context.Context, g model.Group, guess string) (model.Submission, error)
	Get(ctx context.Context, g model.Group) (model.Submission, error)
	Delete(ctx context.Context, g model.Group) error

	// Standings recomputes ranked standings from the store.
	Standings(ctx context.Context) ([]model.ScoreEntry, error)

	// Snapshot returns the cached standings the scheduler keeps fresh.
	Snapshot() standings.Snapshot

	// Contest exposes the loaded contest parameters.
	Contest() *config.Contest
}

// Server wires HTTP routes for the business API.
type Server struct {
	basePath          string
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	submissionHandler *SubmissionHandler
	standingsHandler  *StandingsHandler
	statusHandler     *StatusHandler
}

// NewServer creates a new API server with all handlers mounted under basePath.
func NewServer(basePath string, deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		basePath:          basePath,
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		submissionHandler: NewSubmissionHandler(deps),
		standingsHandler:  NewStandingsHandler(deps),
		statusHandler:     NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	base := s.basePath

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST "+base+"/leaderboard/submit/{key}/{guess}",
		MetricsMiddleware(s.submissionHandler.HandleCreate, "submit"))
	mux.HandleFunc("PATCH "+base+"/leaderboard/submit/{key}/{guess}",
		MetricsMiddleware(s.submissionHandler.HandleUpdate, "submit"))
	mux.HandleFunc("GET "+base+"/leaderboard/submit/{key}",
		MetricsMiddleware(s.submissionHandler.HandleGet, "submit"))
	mux.HandleFunc("DELETE "+base+"/leaderboard/submit/{key}",
		MetricsMiddleware(s.submissionHandler.HandleDelete, "submit"))

	mux.HandleFunc("GET "+base+"/leaderboard/standings",
		MetricsMiddleware(s.standingsHandler.HandleGetStandings, "standings"))
	mux.HandleFunc("GET "+base+"/leaderboard/check/{key}",
		MetricsMiddleware(s.statusHandler.HandleCheck, "check"))
	mux.HandleFunc("GET "+base+"/leaderboard/status/{key}",
		MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
}

// submissionResponse is the success envelope for submission operations.
type submissionResponse struct {
	Status     string            `json:"status"`
	Group      string            `json:"group"`
	Submission *model.Submission `json:"submission,omitempty"`
}

// errorResponse is the error envelope for all endpoints.
type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Status: "error", Code: code, Message: msg})
}

// writeServiceError translates service and store errors to HTTP responses.
// Anything outside the known taxonomy surfaces as a 500 with a generic
// message so internals never leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidKey):
		writeError(w, http.StatusUnauthorized, "invalid_key", service.ErrInvalidKey)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", service.ErrForbidden)
	case errors.Is(err, service.ErrBadGuess):
		writeError(w, http.StatusBadRequest, "bad_guess", err)
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", repository.ErrConflict)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", repository.ErrNotFound)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", ErrInternal)
	}
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	service "github.com/perceval/leaderboard/internal/app"
	"github.com/perceval/leaderboard/internal/domain/model"
)

// StatusHandler handles the key-check and admin status endpoints.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// checkResponse confirms a key is valid and whether it has admin rights.
type checkResponse struct {
	Status string `json:"status"`
	Group  string `json:"group"`
	Admin  bool   `json:"admin"`
}

// statusResponse is the admin view: contest parameters plus live standings.
type statusResponse struct {
	Status         string             `json:"status"`
	Target         string             `json:"target"`
	AllowedGuesses []string           `json:"allowed_guesses"`
	PresenceOnly   bool               `json:"presence_only"`
	MaxScore       float64            `json:"max_score"`
	Standings      []model.ScoreEntry `json:"standings"`
}

// HandleCheck handles GET /leaderboard/check/{key} requests. Admin tooling
// uses it to verify a key before driving the contest.
func (h *StatusHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Authenticate(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		Status: "ok",
		Group:  g.Name,
		Admin:  g.Admin,
	})
}

// HandleStatus handles GET /leaderboard/status/{key} requests. Only admin
// keys may read it: the response includes the secret target.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.Authenticate(r.Context(), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !g.Admin {
		writeServiceError(w, service.ErrForbidden)
		return
	}

	entries, err := h.deps.Standings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	contest := h.deps.Contest()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:         "ok",
		Target:         contest.Target,
		AllowedGuesses: contest.AllowedGuesses,
		PresenceOnly:   contest.PresenceOnly,
		MaxScore:       contest.MaxScore,
		Standings:      orEmpty(entries),
	})
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/perceval/leaderboard/internal/domain/model"
)

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps Dependencies
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps Dependencies) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// standingsResponse wraps the ranked entries with the snapshot time.
type standingsResponse struct {
	Status      string             `json:"status"`
	Standings   []model.ScoreEntry `json:"standings"`
	RefreshedAt *time.Time         `json:"refreshed_at,omitempty"`
}

// HandleGetStandings handles GET /leaderboard/standings requests.
// By default it serves the cached snapshot the scheduler keeps fresh, which
// is what the polling page hits every second. ?fresh=1 forces a
// recomputation from the store.
func (h *StandingsHandler) HandleGetStandings(w http.ResponseWriter, r *http.Request) {
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("fresh"))
	if fresh {
		entries, err := h.deps.Standings(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, standingsResponse{Status: "ok", Standings: orEmpty(entries)})
		return
	}

	snap := h.deps.Snapshot()
	refreshedAt := snap.RefreshedAt
	writeJSON(w, http.StatusOK, standingsResponse{
		Status:      "ok",
		Standings:   orEmpty(snap.Entries),
		RefreshedAt: &refreshedAt,
	})
}

// orEmpty keeps empty standings encoding as [] rather than null.
func orEmpty(entries []model.ScoreEntry) []model.ScoreEntry {
	if entries == nil {
		return []model.ScoreEntry{}
	}
	return entries
}

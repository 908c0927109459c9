// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// SubmissionHandler handles the submission lifecycle endpoints.
type SubmissionHandler struct {
	deps Dependencies
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(deps Dependencies) *SubmissionHandler {
	return &SubmissionHandler{deps: deps}
}

// HandleCreate handles POST /leaderboard/submit/{key}/{guess} requests.
// A group that already submitted gets a 409 and must use PATCH instead.
func (h *SubmissionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	guess := r.PathValue("guess")
	if key == "" || guess == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	g, err := h.deps.Authenticate(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sub, err := h.deps.Submit(r.Context(), g, guess)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submissionResponse{
		Status:     "created",
		Group:      g.Name,
		Submission: &sub,
	})
}

// HandleUpdate handles PATCH /leaderboard/submit/{key}/{guess} requests.
// The existing submission is overwritten in place; no history is kept.
func (h *SubmissionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	guess := r.PathValue("guess")
	if key == "" || guess == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	g, err := h.deps.Authenticate(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sub, err := h.deps.Update(r.Context(), g, guess)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{
		Status:     "updated",
		Group:      g.Name,
		Submission: &sub,
	})
}

// HandleGet handles GET /leaderboard/submit/{key} requests.
func (h *SubmissionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	g, err := h.deps.Authenticate(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	sub, err := h.deps.Get(r.Context(), g)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{
		Status:     "ok",
		Group:      g.Name,
		Submission: &sub,
	})
}

// HandleDelete handles DELETE /leaderboard/submit/{key} requests.
// Deleting an absent submission yields 404; deleting an existing one 200.
func (h *SubmissionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	g, err := h.deps.Authenticate(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.Delete(r.Context(), g); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{
		Status: "deleted",
		Group:  g.Name,
	})
}

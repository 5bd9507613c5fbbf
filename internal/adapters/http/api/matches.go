package api

import (
	"context"
	"net/http"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

// MatchDependencies defines the match operations the API needs.
type MatchDependencies interface {
	RebuildMatches(ctx context.Context, projectID int64) ([]model.MatchDetail, error)
	ListMatchesByProject(ctx context.Context, projectID int64) ([]model.MatchDetail, error)
	ListMatches(ctx context.Context) ([]model.MatchDetail, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps MatchDependencies
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies) *MatchesHandler {
	return &MatchesHandler{deps: deps}
}

// HandleRebuild handles POST /matches/projects/{id}/rebuild.
func (h *MatchesHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	const op = "api.rebuild_matches"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	ms, err := h.deps.RebuildMatches(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMatches(ms))
}

// HandleListByProject handles GET /matches/projects/{id}.
func (h *MatchesHandler) HandleListByProject(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_project_matches"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	ms, err := h.deps.ListMatchesByProject(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatches(ms))
}

// HandleList handles GET /matches.
func (h *MatchesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ms, err := h.deps.ListMatches(r.Context())
	if err != nil {
		fail(w, r, "api.list_matches", err)
		return
	}
	writeJSON(w, http.StatusOK, toMatches(ms))
}

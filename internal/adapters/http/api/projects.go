package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/expanders360/vendormatch/internal/adapters/repository"
	"github.com/expanders360/vendormatch/internal/domain/model"
)

// ProjectDependencies defines the project operations the API needs.
type ProjectDependencies interface {
	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id int64) (model.Project, error)
	ListProjects(ctx context.Context, f repository.ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, id int64) error
}

// ProjectsHandler handles project requests.
type ProjectsHandler struct {
	deps ProjectDependencies
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(deps ProjectDependencies) *ProjectsHandler {
	return &ProjectsHandler{deps: deps}
}

// HandleCreate handles POST /projects. Status defaults to active.
func (h *ProjectsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_project"
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	p := model.Project{Status: model.StatusActive}
	if err := req.apply(&p); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := h.deps.CreateProject(r.Context(), &p); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProject(&p))
}

// HandleList handles GET /projects?clientId=&status=.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_projects"
	var f repository.ProjectFilter
	q := r.URL.Query()
	if raw := q.Get("clientId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fail(w, r, op, fmt.Errorf("%w: clientId %q", ErrBadRequest, raw))
			return
		}
		f.ClientID = id
	}
	if raw := q.Get("status"); raw != "" {
		st, err := model.ParseProjectStatus(raw)
		if err != nil {
			fail(w, r, op, err)
			return
		}
		f.Status = st
	}
	ps, err := h.deps.ListProjects(r.Context(), f)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	out := make([]projectResponse, 0, len(ps))
	for i := range ps {
		out = append(out, toProject(&ps[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /projects/{id}.
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_project"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	p, err := h.deps.GetProject(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProject(&p))
}

// HandleUpdate handles PATCH /projects/{id}.
func (h *ProjectsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_project"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	p, err := h.deps.GetProject(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if err := req.apply(&p); err != nil {
		fail(w, r, op, err)
		return
	}
	if err := h.deps.UpdateProject(r.Context(), &p); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toProject(&p))
}

// HandleDelete handles DELETE /projects/{id}.
func (h *ProjectsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_project"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if err := h.deps.DeleteProject(r.Context(), id); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

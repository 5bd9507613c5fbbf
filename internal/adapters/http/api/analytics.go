package api

import (
	"context"
	"net/http"

	"github.com/expanders360/vendormatch/internal/domain/types"
	"github.com/expanders360/vendormatch/internal/scheduler"
)

// AnalyticsDependencies defines the reporting operations the API needs.
type AnalyticsDependencies interface {
	TopVendorsByCountry(ctx context.Context) ([]types.CountryTopVendors, error)
	GeneralAnalytics(ctx context.Context) (types.GeneralAnalytics, error)
}

// AnalyticsHandler handles analytics requests.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleTopVendors handles GET /analytics/top-vendors.
func (h *AnalyticsHandler) HandleTopVendors(w http.ResponseWriter, r *http.Request) {
	top, err := h.deps.TopVendorsByCountry(r.Context())
	if err != nil {
		fail(w, r, "api.top_vendors", err)
		return
	}
	if top == nil {
		top = []types.CountryTopVendors{}
	}
	writeJSON(w, http.StatusOK, top)
}

// HandleGeneral handles GET /analytics/general.
func (h *AnalyticsHandler) HandleGeneral(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.GeneralAnalytics(r.Context())
	if err != nil {
		fail(w, r, "api.general_analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// JobDependencies exposes the scheduler for manual runs.
type JobDependencies interface {
	Jobs() []scheduler.Entry
	RunJob(ctx context.Context, name string) error
}

// JobsHandler handles scheduled job requests.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

// HandleList handles GET /jobs.
func (h *JobsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	jobs := h.deps.Jobs()
	if jobs == nil {
		jobs = []scheduler.Entry{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

type jobRunResponse struct {
	Job    string `json:"job"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HandleRun handles POST /jobs/{name}/run. The job runs synchronously; a run
// where only some items failed still answers 200 with status "partial".
func (h *JobsHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	err := h.deps.RunJob(r.Context(), name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, jobRunResponse{Job: name, Status: "ok"})
	case scheduler.IsPartial(err):
		writeJSON(w, http.StatusOK, jobRunResponse{Job: name, Status: "partial", Error: err.Error()})
	default:
		fail(w, r, "api.run_job", err)
	}
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/expanders360/vendormatch/pkg/logger"
)

func init() { //nolint:gochecknoinits // scores and ratings render as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Pinger
	MatchDependencies
	ClientDependencies
	ProjectDependencies
	VendorDependencies
	AnalyticsDependencies
	JobDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	matchesHandler   *MatchesHandler
	clientsHandler   *ClientsHandler
	projectsHandler  *ProjectsHandler
	vendorsHandler   *VendorsHandler
	analyticsHandler *AnalyticsHandler
	jobsHandler      *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(deps),
		statsHandler:     NewStatsHandler(statsProvider),
		matchesHandler:   NewMatchesHandler(deps),
		clientsHandler:   NewClientsHandler(deps),
		projectsHandler:  NewProjectsHandler(deps),
		vendorsHandler:   NewVendorsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
		jobsHandler:      NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(endpoint, h))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("POST /matches/projects/{id}/rebuild", "matches_rebuild", s.matchesHandler.HandleRebuild)
	route("GET /matches/projects/{id}", "matches_by_project", s.matchesHandler.HandleListByProject)
	route("GET /matches", "matches", s.matchesHandler.HandleList)

	route("POST /clients", "clients", s.clientsHandler.HandleCreate)
	route("GET /clients", "clients", s.clientsHandler.HandleList)
	route("GET /clients/{id}", "client", s.clientsHandler.HandleGet)

	route("POST /projects", "projects", s.projectsHandler.HandleCreate)
	route("GET /projects", "projects", s.projectsHandler.HandleList)
	route("GET /projects/{id}", "project", s.projectsHandler.HandleGet)
	route("PATCH /projects/{id}", "project", s.projectsHandler.HandleUpdate)
	route("DELETE /projects/{id}", "project", s.projectsHandler.HandleDelete)

	route("POST /vendors", "vendors", s.vendorsHandler.HandleCreate)
	route("GET /vendors", "vendors", s.vendorsHandler.HandleList)
	route("GET /vendors/{id}", "vendor", s.vendorsHandler.HandleGet)
	route("PATCH /vendors/{id}", "vendor", s.vendorsHandler.HandleUpdate)
	route("DELETE /vendors/{id}", "vendor", s.vendorsHandler.HandleDelete)

	route("GET /analytics/top-vendors", "analytics_top_vendors", s.analyticsHandler.HandleTopVendors)
	route("GET /analytics/general", "analytics_general", s.analyticsHandler.HandleGeneral)

	route("GET /jobs", "jobs", s.jobsHandler.HandleList)
	route("POST /jobs/{name}/run", "jobs_run", s.jobsHandler.HandleRun)
}

type errorResponse struct {
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail classifies err and writes it. Server-side failures are logged; their
// details stay out of the response.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Default().Named("api").Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

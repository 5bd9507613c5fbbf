package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

// ClientDependencies defines the client operations the API needs.
type ClientDependencies interface {
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id int64) (model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
}

// ClientsHandler handles client requests.
type ClientsHandler struct {
	deps ClientDependencies
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(deps ClientDependencies) *ClientsHandler {
	return &ClientsHandler{deps: deps}
}

// HandleCreate handles POST /clients.
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_client"
	var req clientRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	c := model.Client{
		CompanyName:  strings.TrimSpace(req.CompanyName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
	}
	if err := h.deps.CreateClient(r.Context(), &c); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClient(&c))
}

// HandleGet handles GET /clients/{id}.
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_client"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	c, err := h.deps.GetClient(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toClient(&c))
}

// HandleList handles GET /clients.
func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cs, err := h.deps.ListClients(r.Context())
	if err != nil {
		fail(w, r, "api.list_clients", err)
		return
	}
	out := make([]clientResponse, 0, len(cs))
	for i := range cs {
		out = append(out, toClient(&cs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

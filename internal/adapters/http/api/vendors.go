package api

import (
	"context"
	"net/http"

	"github.com/expanders360/vendormatch/internal/domain/model"
)

// VendorDependencies defines the vendor operations the API needs.
type VendorDependencies interface {
	CreateVendor(ctx context.Context, v *model.Vendor) error
	GetVendor(ctx context.Context, id int64) (model.Vendor, error)
	ListVendors(ctx context.Context, activeOnly bool) ([]model.Vendor, error)
	UpdateVendor(ctx context.Context, v *model.Vendor) error
	DeleteVendor(ctx context.Context, id int64) error
}

// VendorsHandler handles vendor requests.
type VendorsHandler struct {
	deps VendorDependencies
}

// NewVendorsHandler creates a new vendors handler.
func NewVendorsHandler(deps VendorDependencies) *VendorsHandler {
	return &VendorsHandler{deps: deps}
}

// HandleCreate handles POST /vendors. New vendors are active with a 24h SLA
// unless the request says otherwise.
func (h *VendorsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_vendor"
	var req vendorRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	v := model.Vendor{ResponseSLAHours: model.DefaultResponseSLAHours, IsActive: true}
	req.apply(&v)
	if err := h.deps.CreateVendor(r.Context(), &v); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVendor(&v))
}

// HandleList handles GET /vendors. Only active vendors are listed unless
// ?all=true is given.
func (h *VendorsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all := r.URL.Query().Get("all") == "true"
	vs, err := h.deps.ListVendors(r.Context(), !all)
	if err != nil {
		fail(w, r, "api.list_vendors", err)
		return
	}
	out := make([]vendorResponse, 0, len(vs))
	for i := range vs {
		out = append(out, toVendor(&vs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /vendors/{id}.
func (h *VendorsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_vendor"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	v, err := h.deps.GetVendor(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendor(&v))
}

// HandleUpdate handles PATCH /vendors/{id}.
func (h *VendorsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_vendor"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	var req vendorRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, op, err)
		return
	}
	v, err := h.deps.GetVendor(r.Context(), id)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	req.apply(&v)
	if err := h.deps.UpdateVendor(r.Context(), &v); err != nil {
		fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toVendor(&v))
}

// HandleDelete handles DELETE /vendors/{id}.
func (h *VendorsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_vendor"
	id, err := pathID(r)
	if err != nil {
		fail(w, r, op, err)
		return
	}
	if err := h.deps.DeleteVendor(r.Context(), id); err != nil {
		fail(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

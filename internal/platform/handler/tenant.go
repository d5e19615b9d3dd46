package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/schoolflow/schoolflow-backend/internal/platform/service"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// TenantHandler exposes platform-owner-only tenant administration.
type TenantHandler struct {
	service *service.TenantService
	logger  *logger.Logger
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(svc *service.TenantService, log *logger.Logger) *TenantHandler {
	return &TenantHandler{service: svc, logger: log}
}

// OnboardRequest is the payload for provisioning a new tenant.
type OnboardRequest struct {
	Slug string `json:"slug" validate:"required,min=2,max=63,alphanum"`
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Onboard provisions a new tenant.
func (h *TenantHandler) Onboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	t, err := h.service.Onboard(r.Context(), req.Slug, req.Name)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, t)
}

// List returns every tenant, paginated.
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	tenants, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, tenants, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// Get fetches a tenant by ID.
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, t)
}

// Suspend suspends a tenant.
func (h *TenantHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Suspend(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Reactivate reactivates a suspended tenant.
func (h *TenantHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Reactivate(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Offboard soft-deletes a tenant.
func (h *TenantHandler) Offboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Offboard(r.Context(), id); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/schoolflow/schoolflow-backend/internal/audit/service"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// AuditHandler exposes the tenant's audit trail read-only.
type AuditHandler struct {
	service *service.AuditService
	logger  *logger.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(svc *service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{service: svc, logger: log}
}

// List returns the tenant's audit entries, newest first, paginated.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	logs, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, logs)
}

// ForResource returns the audit history of a single resource.
func (h *AuditHandler) ForResource(w http.ResponseWriter, r *http.Request) {
	resourceType := r.URL.Query().Get("resource_type")
	resourceID := r.URL.Query().Get("resource_id")
	if resourceType == "" || resourceID == "" {
		httputil.ErrorLocalized(w, r, errors.BadRequest("resource_type and resource_id are required"))
		return
	}

	logs, err := h.service.ForResource(r.Context(), resourceType, resourceID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, logs)
}

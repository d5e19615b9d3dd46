package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the read-only audit trail under /audit. Callers
// are expected to have already run authz.Pipeline.Require and the
// relevant RequirePermission middleware (audit trail reading is an
// elevated capability, not something every role gets).
func RegisterRoutes(r chi.Router, h *AuditHandler) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/resource", h.ForResource)
	})
}

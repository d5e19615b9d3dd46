package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts platform-owner-only tenant administration under
// /platform/tenants. Callers must wrap the router with
// authz.Pipeline.RequirePlatformOwner before mounting these routes.
func RegisterRoutes(r chi.Router, h *TenantHandler) {
	r.Route("/platform/tenants", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Onboard)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/suspend", h.Suspend)
		r.Post("/{id}/reactivate", h.Reactivate)
		r.Delete("/{id}", h.Offboard)
	})
}

package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the user and role-grant endpoints under r. Callers
// are expected to have already applied the authz pipeline's authentication
// and tenant-resolution middleware.
func RegisterRoutes(r chi.Router, h *UserHandler) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/roles", h.AssignRole)
		r.Delete("/{id}/roles", h.RevokeRole)
	})
	r.Post("/profile/password", h.ChangePassword)
}

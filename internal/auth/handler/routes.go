package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the public authentication endpoints under r: login,
// refresh, and logout never require a valid access token (logout must
// still work with an expired one).
func RegisterRoutes(r chi.Router, h *AuthHandler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})
}

// RegisterProtectedRoutes mounts /auth/me. Callers must wrap r with
// authz.Pipeline.Require before mounting, since Me reads identity out of
// the request context the pipeline attaches.
func RegisterProtectedRoutes(r chi.Router, h *AuthHandler) {
	r.Get("/auth/me", h.Me)
}

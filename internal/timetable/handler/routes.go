package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the timetable generator and manual-edit surface.
// Callers are expected to have already run authz.Pipeline.Require and the
// relevant RequirePermission/RequireRole middleware per route.
func RegisterRoutes(r chi.Router, h *TimetableHandler) {
	r.Route("/timetable", func(r chi.Router) {
		r.Route("/academic-years/{academicYearId}", func(r chi.Router) {
			r.Post("/generate", h.Generate)
			r.Get("/status", h.Status)
			r.Post("/finalize", h.Finalize)
			r.Get("/export", h.Export)
		})
		r.Route("/entries/{id}", func(r chi.Router) {
			r.Put("/", h.Move)
			r.Post("/lock", h.Lock)
			r.Post("/unlock", h.Unlock)
		})
	})
}

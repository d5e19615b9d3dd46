package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the thin-CRUD school entities under /school.
// Callers are expected to have already run authz.Pipeline.Require and the
// relevant RequirePermission/RequireRole middleware per route.
func RegisterRoutes(r chi.Router, h *SchoolHandler) {
	r.Route("/school", func(r chi.Router) {
		r.Route("/time-slots", func(r chi.Router) {
			r.Get("/", h.ListTimeSlots)
			r.Post("/", h.CreateTimeSlot)
		})
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Get("/{id}", h.GetRoom)
			r.Put("/{id}", h.UpdateRoom)
		})
		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", h.ListSubjects)
			r.Post("/", h.CreateSubject)
		})
		r.Route("/classes", func(r chi.Router) {
			r.Get("/", h.ListClasses)
			r.Post("/", h.CreateClass)
			r.Get("/{id}", h.GetClass)
		})
		r.Route("/requirements", func(r chi.Router) {
			r.Get("/", h.ListRequirements)
			r.Post("/", h.CreateRequirement)
		})
		r.Post("/teachers/subjects", h.AssignTeacherSubject)
		r.Post("/teachers/availability", h.SetTeacherAvailability)
	})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/school/service"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// SchoolHandler exposes the thin-CRUD surface over time slots, rooms,
// subjects, classes, teacher qualifications/availability, and class-subject
// requirements.
type SchoolHandler struct {
	service *service.SchoolService
	logger  *logger.Logger
}

// NewSchoolHandler creates a SchoolHandler.
func NewSchoolHandler(svc *service.SchoolService, log *logger.Logger) *SchoolHandler {
	return &SchoolHandler{service: svc, logger: log}
}

// --- TimeSlot -------------------------------------------------------------

func (h *SchoolHandler) CreateTimeSlot(w http.ResponseWriter, r *http.Request) {
	var slot domain.TimeSlot
	if err := httputil.DecodeJSONLocalized(r, &slot); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.CreateTimeSlot(r.Context(), &slot); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, slot)
}

func (h *SchoolHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListTimeSlots(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, slots)
}

// --- Room -------------------------------------------------------------

func (h *SchoolHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room domain.Room
	if err := httputil.DecodeJSONLocalized(r, &room); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.CreateRoom(r.Context(), &room); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, room)
}

func (h *SchoolHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, rooms)
}

func (h *SchoolHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	room, err := h.service.GetRoom(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, room)
}

func (h *SchoolHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var room domain.Room
	if err := httputil.DecodeJSONLocalized(r, &room); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	room.ID = id
	if err := h.service.UpdateRoom(r.Context(), &room); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, room)
}

// --- Subject -------------------------------------------------------------

func (h *SchoolHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var subject domain.Subject
	if err := httputil.DecodeJSONLocalized(r, &subject); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.CreateSubject(r.Context(), &subject); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, subject)
}

func (h *SchoolHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.ListSubjects(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, subjects)
}

// --- Class -------------------------------------------------------------

func (h *SchoolHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var class domain.Class
	if err := httputil.DecodeJSONLocalized(r, &class); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.CreateClass(r.Context(), &class); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, class)
}

func (h *SchoolHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.service.ListClasses(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, classes)
}

func (h *SchoolHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	class, err := h.service.GetClass(r.Context(), id)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, class)
}

// --- Teacher qualifications and availability ---------------------------

type assignSubjectRequest struct {
	TeacherID string `json:"teacherId" validate:"required,uuid"`
	SubjectID string `json:"subjectId" validate:"required,uuid"`
}

func (h *SchoolHandler) AssignTeacherSubject(w http.ResponseWriter, r *http.Request) {
	var req assignSubjectRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.AssignTeacherSubject(r.Context(), req.TeacherID, req.SubjectID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

type setAvailabilityRequest struct {
	TeacherID string `json:"teacherId" validate:"required,uuid"`
	SlotID    string `json:"slotId" validate:"required,uuid"`
	Available bool   `json:"available"`
}

func (h *SchoolHandler) SetTeacherAvailability(w http.ResponseWriter, r *http.Request) {
	var req setAvailabilityRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.SetTeacherAvailability(r.Context(), req.TeacherID, req.SlotID, req.Available); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// --- ClassSubjectRequirement --------------------------------------------

func (h *SchoolHandler) CreateRequirement(w http.ResponseWriter, r *http.Request) {
	var req domain.ClassSubjectRequirement
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := h.service.CreateRequirement(r.Context(), &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.Created(w, req)
}

func (h *SchoolHandler) ListRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.ListRequirements(r.Context())
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, reqs)
}

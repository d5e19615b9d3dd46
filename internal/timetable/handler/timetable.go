package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/service"
	"github.com/schoolflow/schoolflow-backend/pkg/csvutil"
	"github.com/schoolflow/schoolflow-backend/pkg/documents"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// TimeSlotSource supplies the slot definitions Export needs to lay out a
// day-by-day document; satisfied by internal/school's service.
type TimeSlotSource interface {
	ListTimeSlots(ctx context.Context) ([]*schooldomain.TimeSlot, error)
}

// TimetableHandler exposes the generator and manual-edit surface: generate,
// status, move, lock/unlock, finalize, and document/CSV export.
type TimetableHandler struct {
	service *service.TimetableService
	slots   TimeSlotSource
	logger  *logger.Logger
}

// NewTimetableHandler creates a TimetableHandler.
func NewTimetableHandler(svc *service.TimetableService, slots TimeSlotSource, log *logger.Logger) *TimetableHandler {
	return &TimetableHandler{service: svc, slots: slots, logger: log}
}

type generateRequest struct {
	PreserveLocked bool `json:"preserveLocked"`
}

// Generate runs the backtracking placer for an academic year.
func (h *TimetableHandler) Generate(w http.ResponseWriter, r *http.Request) {
	academicYearID := chi.URLParam(r, "academicYearId")

	var req generateRequest
	if r.ContentLength > 0 {
		if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
	}

	result, err := h.service.Generate(r.Context(), academicYearID, req.PreserveLocked)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, result)
}

// Status returns the current draft and active entries for an academic
// year.
func (h *TimetableHandler) Status(w http.ResponseWriter, r *http.Request) {
	academicYearID := chi.URLParam(r, "academicYearId")
	draft, entries, err := h.service.Status(r.Context(), academicYearID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"draft":   draft,
		"entries": entries,
	})
}

type moveRequest struct {
	AcademicYearID string `json:"academicYearId" validate:"required,uuid"`
	ClassID        string `json:"classId" validate:"required,uuid"`
	TeacherID      string `json:"teacherId" validate:"required,uuid"`
	RoomID         string `json:"roomId" validate:"required,uuid"`
	TimeSlotID     string `json:"timeSlotId" validate:"required,uuid"`
	Version        int    `json:"version" validate:"gte=0"`
}

// Move applies a manual edit to one entry.
func (h *TimetableHandler) Move(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	var req moveRequest
	if err := httputil.DecodeJSONLocalized(r, &req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	candidate := domain.Candidate{
		AcademicYearID: req.AcademicYearID,
		ClassID:        req.ClassID,
		TeacherID:      req.TeacherID,
		RoomID:         req.RoomID,
		TimeSlotID:     req.TimeSlotID,
	}

	entry, err := h.service.Move(r.Context(), entryID, candidate, req.Version)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, entry)
}

// Lock pins an entry so future generate() runs leave it untouched.
func (h *TimetableHandler) Lock(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if err := h.service.Lock(r.Context(), entryID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Unlock releases a manual pin.
func (h *TimetableHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")
	if err := h.service.Unlock(r.Context(), entryID); err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.NoContent(w)
}

// Finalize locks a draft (and its entries) as read-only.
func (h *TimetableHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	academicYearID := chi.URLParam(r, "academicYearId")
	draft, err := h.service.Finalize(r.Context(), academicYearID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}
	httputil.JSON(w, http.StatusOK, draft)
}

// Export returns an academic year's active entries as either a CSV
// (?format=csv, the default) or a printable PDF (?format=pdf).
func (h *TimetableHandler) Export(w http.ResponseWriter, r *http.Request) {
	academicYearID := chi.URLParam(r, "academicYearId")
	_, entries, err := h.service.Status(r.Context(), academicYearID)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")

	if format == "pdf" {
		slots, err := h.slots.ListTimeSlots(r.Context())
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
		flat := make([]schooldomain.TimeSlot, len(slots))
		for i, s := range slots {
			flat[i] = *s
		}
		out, err := documents.RenderTimetable(academicYearID, entries, flat)
		if err != nil {
			httputil.ErrorLocalized(w, r, errors.Internal("failed to render timetable pdf"))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="timetable.pdf"`)
		w.Write(out)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="timetable.csv"`)
	if err := csvutil.WriteEntries(w, entries); err != nil {
		h.logger.Error().Err(err).Msg("failed to write timetable csv export")
	}
}

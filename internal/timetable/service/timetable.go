package service

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/constraint"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/generator"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/actor"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// AvailabilitySource is the narrow slice of school configuration a manual
// move needs to re-run the constraint checker: a teacher's unavailable
// slots.
type AvailabilitySource interface {
	UnavailableSlots(ctx context.Context, teacherID string) (map[string]bool, error)
}

// TimetableService orchestrates the generator, the constraint checker, and
// entry persistence behind the operations spec'd for the timetable API:
// generate, status, manual move, lock/unlock, and finalize.
type TimetableService struct {
	repo   *repository.TimetableRepository
	gen    *generator.Generator
	school AvailabilitySource
	logger *logger.Logger
}

// NewTimetableService creates a TimetableService.
func NewTimetableService(repo *repository.TimetableRepository, gen *generator.Generator, school AvailabilitySource, log *logger.Logger) *TimetableService {
	return &TimetableService{repo: repo, gen: gen, school: school, logger: log}
}

// Generate runs the backtracking placer for an academic year and persists
// its outcome as a new draft. Refuses to run against a year whose latest
// draft is already finalized: a finalized timetable is read-only except
// by explicit platform intervention, and generate() has none.
func (s *TimetableService) Generate(ctx context.Context, academicYearID string, preserveLocked bool) (*domain.GenerateResult, error) {
	latest, err := s.repo.LatestDraft(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Status == domain.DraftStatusFinalized {
		return nil, errors.FinalizedReadOnly()
	}

	result, err := s.gen.Generate(ctx, generator.Params{
		AcademicYearID: academicYearID,
		PreserveLocked: preserveLocked,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("academic_year_id", academicYearID).
		Int("placed", len(result.Placed)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Msg("timetable generation completed")
	return result, nil
}

// Status returns the latest draft and its active entries for an academic
// year.
func (s *TimetableService) Status(ctx context.Context, academicYearID string) (*domain.Draft, []domain.Entry, error) {
	draft, err := s.repo.LatestDraft(ctx, academicYearID)
	if err != nil {
		return nil, nil, err
	}
	if draft == nil {
		return nil, nil, errors.NotFound("timetable draft")
	}
	entries, err := s.repo.ActiveEntries(ctx, academicYearID)
	if err != nil {
		return nil, nil, err
	}
	return draft, entries, nil
}

// Move applies a manual edit to one entry: the candidate placement is
// constraint-checked against every other active entry in the academic
// year (excluding the entry being moved) before the update commits.
func (s *TimetableService) Move(ctx context.Context, entryID string, candidate domain.Candidate, expectedVersion int) (*domain.Entry, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsFinalized {
		return nil, errors.FinalizedReadOnly()
	}

	existing, err := s.repo.ActiveEntries(ctx, candidate.AcademicYearID)
	if err != nil {
		return nil, err
	}
	idx := constraint.NewIndex(existing)

	unavailable, err := s.school.UnavailableSlots(ctx, candidate.TeacherID)
	if err != nil {
		return nil, err
	}

	conflicts := constraint.Check(idx, candidate, entryID, unavailable)
	if len(conflicts) > 0 {
		details := make(map[string]string, len(conflicts))
		for _, c := range conflicts {
			details[c.Kind] = c.Message
		}
		return nil, errors.ConflictSet(details)
	}

	entry.ClassID = candidate.ClassID
	entry.TeacherID = candidate.TeacherID
	entry.RoomID = candidate.RoomID
	entry.TimeSlotID = candidate.TimeSlotID
	entry.Version = expectedVersion

	if err := s.repo.UpdateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Lock marks an entry as manually pinned so future generate() runs with
// preserveLocked leave it untouched.
func (s *TimetableService) Lock(ctx context.Context, entryID string) error {
	a := actor.FromContext(ctx)
	lockedBy := ""
	if a != nil {
		lockedBy = a.ID
	}
	return s.repo.SetLock(ctx, entryID, true, lockedBy)
}

// Unlock releases a manual pin.
func (s *TimetableService) Unlock(ctx context.Context, entryID string) error {
	return s.repo.SetLock(ctx, entryID, false, "")
}

// Finalize locks a draft (and its entries) as read-only, refusing if any
// requirement failed to place.
func (s *TimetableService) Finalize(ctx context.Context, academicYearID string) (*domain.Draft, error) {
	draft, err := s.repo.LatestDraft(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, errors.NotFound("timetable draft")
	}
	if draft.FailedCount > 0 {
		return nil, errors.NotFinalizable(draft.FailedCount)
	}

	err = s.repo.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.FinalizeInTx(ctx, draft.ID, academicYearID)
	})
	if err != nil {
		return nil, err
	}
	draft.Status = domain.DraftStatusFinalized
	return draft, nil
}

// Package generator implements the backtracking timetable placer: it
// expands class-subject period requirements into individual placement
// units, orders them hardest-first, and greedily places each one into the
// first conflict-free (room, slot) pair a qualified teacher can take,
// retrying bounded numbers of times before giving up on an entry or on
// the whole run.
package generator

import (
	"context"
	"sort"

	"github.com/google/uuid"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/constraint"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
	"github.com/schoolflow/schoolflow-backend/pkg/tracing"
)

// Bounds on retry effort, chosen so a run over a school-sized instance
// terminates quickly instead of thrashing on an unsatisfiable requirement.
const (
	MaxRetriesPerEntry = 10
	MaxGlobalRetries   = 500
)

// SchoolSource is the read-only view of school configuration the
// generator needs: the period requirements to satisfy, which teachers can
// take which subject, the rooms and slots available, and each teacher's
// unavailability. Implemented by internal/school/repository.SchoolRepository.
type SchoolSource interface {
	RequirementsForAcademicYear(ctx context.Context) ([]*schooldomain.ClassSubjectRequirement, error)
	TeachersForSubject(ctx context.Context, subjectID string) ([]string, error)
	ListRooms(ctx context.Context) ([]*schooldomain.Room, error)
	ListTimeSlots(ctx context.Context) ([]*schooldomain.TimeSlot, error)
	UnavailableSlots(ctx context.Context, teacherID string) (map[string]bool, error)
}

// Generator runs the placement algorithm and persists its outcome.
type Generator struct {
	repo   *repository.TimetableRepository
	school SchoolSource
	logger *logger.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(repo *repository.TimetableRepository, school SchoolSource, log *logger.Logger) *Generator {
	return &Generator{repo: repo, school: school, logger: log}
}

// Params configures one generate() call.
type Params struct {
	AcademicYearID string
	PreserveLocked bool
}

// placementUnit is one expanded requirement plus the precomputed set of
// teachers who could take it.
type placementUnit struct {
	req      domain.Requirement
	teachers []string // candidate teacher IDs; len 1 if the requirement pins a teacher
}

// Generate expands requirements, orders them, clears the previous pass
// (respecting PreserveLocked), places as many as it can, and persists the
// outcome as a new draft inside one transaction.
func (g *Generator) Generate(ctx context.Context, p Params) (*domain.GenerateResult, error) {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return nil, err
	}

	units, err := g.buildUnits(ctx, p.AcademicYearID)
	if err != nil {
		return nil, err
	}
	var skipped []domain.SkippedRequirement
	rooms, err := g.school.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := g.school.ListTimeSlots(ctx)
	if err != nil {
		return nil, err
	}
	unavailability := make(map[string]map[string]bool) // teacherID -> slotID -> unavailable
	for _, u := range units {
		for _, t := range u.teachers {
			if _, ok := unavailability[t]; ok {
				continue
			}
			m, err := g.school.UnavailableSlots(ctx, t)
			if err != nil {
				return nil, err
			}
			unavailability[t] = m
		}
	}

	existing, err := g.repo.ActiveEntries(ctx, p.AcademicYearID)
	if err != nil {
		return nil, err
	}

	var preserved []domain.Entry
	if p.PreserveLocked {
		for _, e := range existing {
			if e.IsLocked {
				preserved = append(preserved, e)
			}
		}
	}

	units, skippedByLock := removeSatisfiedByLocked(units, preserved)
	skipped = append(skipped, skippedByLock...)

	_, span := tracing.StartSpan(ctx, "generator", "place_units")
	placed, failed, _ := g.place(units, preserved, rooms, slots, unavailability)
	span.End()

	draft := &domain.Draft{
		AcademicYearID: p.AcademicYearID,
		PlacedCount:    len(placed),
		FailedCount:    len(failed),
		SkippedCount:   len(skipped),
	}

	err = g.repo.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := g.repo.AcquireGenerationLockInTx(ctx, tenantID, p.AcademicYearID); err != nil {
			return err
		}
		if err := g.repo.ClearEntriesInTx(ctx, p.AcademicYearID, p.PreserveLocked); err != nil {
			return err
		}
		for i := range placed {
			placed[i].AcademicYearID = p.AcademicYearID
			if err := g.repo.InsertEntryInTx(ctx, &placed[i]); err != nil {
				return err
			}
		}
		return g.repo.SaveDraftInTx(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	return &domain.GenerateResult{
		Draft:   *draft,
		Placed:  placed,
		Failed:  failed,
		Skipped: skipped,
	}, nil
}

// buildUnits expands every ClassSubjectRequirement into per-period
// placementUnits and orders them difficulty-first: fewer qualified
// teachers first, then higher totalPeriods first, ties broken by the
// original (stable) order.
func (g *Generator) buildUnits(ctx context.Context, academicYearID string) ([]placementUnit, error) {
	reqs, err := g.school.RequirementsForAcademicYear(ctx)
	if err != nil {
		return nil, err
	}

	var units []placementUnit
	for _, req := range reqs {
		var teachers []string
		pinned := ""
		if req.TeacherID != nil && *req.TeacherID != "" {
			pinned = *req.TeacherID
			teachers = []string{pinned}
		} else {
			teachers, err = g.school.TeachersForSubject(ctx, req.SubjectID)
			if err != nil {
				return nil, err
			}
		}
		for i := 0; i < req.PeriodsPerWeek; i++ {
			units = append(units, placementUnit{
				req: domain.Requirement{
					ClassID:        req.ClassID,
					SubjectID:      req.SubjectID,
					TeacherID:      pinned,
					PeriodIndex:    i,
					TotalPeriods:   req.PeriodsPerWeek,
					CandidateCount: len(teachers),
				},
				teachers: teachers,
			})
		}
	}

	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i].req, units[j].req
		if a.CandidateCount != b.CandidateCount {
			return a.CandidateCount < b.CandidateCount
		}
		return a.TotalPeriods > b.TotalPeriods
	})

	return units, nil
}

// removeSatisfiedByLocked drops the first N expanded units for each
// (classID, subjectID) pair already covered by N preserved locked entries,
// recording them as skipped rather than re-placed.
func removeSatisfiedByLocked(units []placementUnit, preserved []domain.Entry) ([]placementUnit, []domain.SkippedRequirement) {
	remaining := make(map[string]int)
	for _, e := range preserved {
		remaining[e.ClassID+"|"+e.SubjectID]++
	}
	if len(remaining) == 0 {
		return units, nil
	}

	var kept []placementUnit
	var skipped []domain.SkippedRequirement
	for _, u := range units {
		key := u.req.ClassID + "|" + u.req.SubjectID
		if remaining[key] > 0 {
			remaining[key]--
			skipped = append(skipped, domain.SkippedRequirement{
				ClassID:     u.req.ClassID,
				SubjectID:   u.req.SubjectID,
				PeriodIndex: u.req.PeriodIndex,
			})
			continue
		}
		kept = append(kept, u)
	}
	return kept, skipped
}

// place runs the greedy/backtracking placement loop and returns the
// entries it managed to place, the requirements it could not, and the
// final in-memory index (preserved entries plus every newly placed one).
func (g *Generator) place(
	units []placementUnit,
	preserved []domain.Entry,
	rooms []*schooldomain.Room,
	slots []*schooldomain.TimeSlot,
	unavailability map[string]map[string]bool,
) ([]domain.Entry, []domain.FailedRequirement, *constraint.Index) {
	idx := constraint.NewIndex(preserved)

	var placed []domain.Entry
	var failed []domain.FailedRequirement
	globalRetries := 0

	for _, u := range units {
		if len(u.teachers) == 0 {
			failed = append(failed, domain.FailedRequirement{
				ClassID: u.req.ClassID, SubjectID: u.req.SubjectID,
				PeriodIndex: u.req.PeriodIndex, TotalPeriods: u.req.TotalPeriods,
				Reason: domain.ReasonNoValidSlotFound,
			})
			continue
		}

		entry, ok, reason := g.placeOne(idx, u, rooms, slots, unavailability, &globalRetries)
		if !ok {
			failed = append(failed, domain.FailedRequirement{
				ClassID: u.req.ClassID, SubjectID: u.req.SubjectID,
				TeacherID:    firstOrEmpty(u.teachers),
				PeriodIndex:  u.req.PeriodIndex, TotalPeriods: u.req.TotalPeriods,
				Reason: reason,
			})
			continue
		}
		// Give the entry its own ID before indexing it, so later Check calls
		// (which skip only the excluded ID) see it as a conflict.
		entry.ID = uuid.New().String()
		idx.Add(entry)
		placed = append(placed, entry)

		if globalRetries >= MaxGlobalRetries {
			// Remaining units are marked failed without further attempts —
			// the run-wide retry budget is exhausted.
			for _, rest := range unitsAfter(units, u) {
				failed = append(failed, domain.FailedRequirement{
					ClassID: rest.req.ClassID, SubjectID: rest.req.SubjectID,
					PeriodIndex: rest.req.PeriodIndex, TotalPeriods: rest.req.TotalPeriods,
					Reason: domain.ReasonMaxRetriesExceeded,
				})
			}
			break
		}
	}

	return placed, failed, idx
}

// placeOne tries, in order, every (slot, teacher, room) combination for a
// unit until one is conflict-free or the per-entry retry budget is spent.
// Rooms are tried lowest-usage-count first so load balances across the
// building; a slot the class already occupies (from a prior placement in
// this run, or a preserved locked entry) is skipped without spending
// retry budget, since Check would reject it anyway. That skip is read
// straight off idx, not cached — unlike a class's fitness for one
// teacher pool, occupancy never changes mid-unit, so nothing here is
// correct for this unit and stale for the next one.
func (g *Generator) placeOne(
	idx *constraint.Index,
	u placementUnit,
	rooms []*schooldomain.Room,
	slots []*schooldomain.TimeSlot,
	unavailability map[string]map[string]bool,
	globalRetries *int,
) (domain.Entry, bool, string) {
	attempts := 0
	anyCombinationExisted := false

	for _, slot := range slots {
		if idx.ClassOccupiedAt(u.req.ClassID, slot.ID) {
			continue
		}
		for _, teacherID := range u.teachers {
			if unavailability[teacherID][slot.ID] {
				continue
			}
			roomsOrdered := orderRoomsByUsage(rooms, idx)
			for _, room := range roomsOrdered {
				anyCombinationExisted = true
				if attempts >= MaxRetriesPerEntry || *globalRetries >= MaxGlobalRetries {
					return domain.Entry{}, false, domain.ReasonMaxRetriesExceeded
				}
				attempts++
				*globalRetries++

				candidate := domain.Candidate{
					AcademicYearID: "",
					ClassID:        u.req.ClassID,
					TeacherID:      teacherID,
					RoomID:         room.ID,
					TimeSlotID:     slot.ID,
				}
				conflicts := constraint.Check(idx, candidate, "", unavailability[teacherID])
				if len(conflicts) == 0 {
					return domain.Entry{
						ClassID:    u.req.ClassID,
						SubjectID:  u.req.SubjectID,
						TeacherID:  teacherID,
						RoomID:     room.ID,
						TimeSlotID: slot.ID,
						IsActive:   true,
					}, true, ""
				}
			}
		}
	}

	if !anyCombinationExisted {
		return domain.Entry{}, false, domain.ReasonNoValidSlotFound
	}
	return domain.Entry{}, false, domain.ReasonMaxRetriesExceeded
}

func orderRoomsByUsage(rooms []*schooldomain.Room, idx *constraint.Index) []*schooldomain.Room {
	ordered := make([]*schooldomain.Room, len(rooms))
	copy(ordered, rooms)
	sort.SliceStable(ordered, func(i, j int) bool {
		ci, cj := idx.RoomUsageCount(ordered[i].ID), idx.RoomUsageCount(ordered[j].ID)
		if ci != cj {
			return ci < cj
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func firstOrEmpty(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}

func unitsAfter(units []placementUnit, after placementUnit) []placementUnit {
	for i, u := range units {
		if u.req.ClassID == after.req.ClassID && u.req.SubjectID == after.req.SubjectID && u.req.PeriodIndex == after.req.PeriodIndex {
			if i+1 >= len(units) {
				return nil
			}
			return units[i+1:]
		}
	}
	return nil
}

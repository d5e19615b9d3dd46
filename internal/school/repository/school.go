package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

// SchoolRepository persists the thin-CRUD entities the timetable generator
// consumes: time slots, rooms, subjects, classes, teacher qualifications
// and availability, and per-class-subject period requirements. Every
// method is tenant-scoped through the Facade — these are ordinary business
// rows, unlike the platform-owned Tenant table.
type SchoolRepository struct {
	db *database.Facade
}

// NewSchoolRepository creates a SchoolRepository.
func NewSchoolRepository(db *database.Facade) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// --- TimeSlot ---------------------------------------------------------

// CreateTimeSlot inserts a new time slot.
func (r *SchoolRepository) CreateTimeSlot(ctx context.Context, s *domain.TimeSlot) error {
	s.ID = uuid.New().String()
	return r.db.Tx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, `
			INSERT INTO time_slots (id, tenant_id, day_of_week, start_time, end_time)
			VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3, $4)
			RETURNING created_at
		`, s.ID, s.DayOfWeek, s.Start, s.End)
		return row.Scan(&s.CreatedAt)
	})
}

// ListTimeSlots returns every time slot for the tenant, ordered by day
// then start time.
func (r *SchoolRepository) ListTimeSlots(ctx context.Context) ([]*domain.TimeSlot, error) {
	slots := []*domain.TimeSlot{}
	err := r.db.Select(ctx, &slots, `
		SELECT id, day_of_week, start_time, end_time, created_at
		FROM time_slots
		ORDER BY day_of_week, start_time
	`)
	return slots, err
}

// GetTimeSlot fetches a single time slot by ID.
func (r *SchoolRepository) GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error) {
	var s domain.TimeSlot
	err := r.db.Get(ctx, &s, `
		SELECT id, day_of_week, start_time, end_time, created_at
		FROM time_slots WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("time slot")
	}
	return &s, err
}

// --- Room ---------------------------------------------------------------

// CreateRoom inserts a new room.
func (r *SchoolRepository) CreateRoom(ctx context.Context, room *domain.Room) error {
	room.ID = uuid.New().String()
	return r.db.Tx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, `
			INSERT INTO rooms (id, tenant_id, name, capacity, available)
			VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3, $4)
			RETURNING created_at, updated_at, version
		`, room.ID, room.Name, room.Capacity, room.Available)
		return row.Scan(&room.CreatedAt, &room.UpdatedAt, &room.Version)
	})
}

// ListRooms returns every available room for the tenant.
func (r *SchoolRepository) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms := []*domain.Room{}
	err := r.db.Select(ctx, &rooms, `
		SELECT id, name, capacity, available, created_at, updated_at, version
		FROM rooms WHERE available = true
		ORDER BY name
	`)
	return rooms, err
}

// GetRoom fetches a room by ID.
func (r *SchoolRepository) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.Get(ctx, &room, `
		SELECT id, name, capacity, available, created_at, updated_at, version
		FROM rooms WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("room")
	}
	return &room, err
}

// UpdateRoom applies a version-guarded update to a room.
func (r *SchoolRepository) UpdateRoom(ctx context.Context, room *domain.Room) error {
	return r.db.Tx(ctx, func(ctx context.Context) error {
		result, err := r.db.DB().ExecContext(ctx, `
			UPDATE rooms
			SET name = $2, capacity = $3, available = $4, updated_at = now(), version = version + 1
			WHERE id = $1 AND version = $5
		`, room.ID, room.Name, room.Capacity, room.Available, room.Version)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.VersionConflict()
		}
		room.Version++
		return nil
	})
}

// --- Subject --------------------------------------------------------------

// CreateSubject inserts a new subject.
func (r *SchoolRepository) CreateSubject(ctx context.Context, s *domain.Subject) error {
	s.ID = uuid.New().String()
	return r.db.Tx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, `
			INSERT INTO subjects (id, tenant_id, name, code)
			VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3)
			RETURNING created_at
		`, s.ID, s.Name, s.Code)
		return row.Scan(&s.CreatedAt)
	})
}

// ListSubjects returns every subject for the tenant.
func (r *SchoolRepository) ListSubjects(ctx context.Context) ([]*domain.Subject, error) {
	subjects := []*domain.Subject{}
	err := r.db.Select(ctx, &subjects, `SELECT id, name, code, created_at FROM subjects ORDER BY name`)
	return subjects, err
}

// --- Class ------------------------------------------------------------

// CreateClass inserts a new class.
func (r *SchoolRepository) CreateClass(ctx context.Context, c *domain.Class) error {
	c.ID = uuid.New().String()
	return r.db.Tx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, `
			INSERT INTO classes (id, tenant_id, name, grade_year)
			VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3)
			RETURNING created_at, updated_at, version
		`, c.ID, c.Name, c.GradeYear)
		return row.Scan(&c.CreatedAt, &c.UpdatedAt, &c.Version)
	})
}

// ListClasses returns every class for the tenant.
func (r *SchoolRepository) ListClasses(ctx context.Context) ([]*domain.Class, error) {
	classes := []*domain.Class{}
	err := r.db.Select(ctx, &classes, `
		SELECT id, name, grade_year, created_at, updated_at, version
		FROM classes ORDER BY grade_year, name
	`)
	return classes, err
}

// GetClass fetches a class by ID.
func (r *SchoolRepository) GetClass(ctx context.Context, id string) (*domain.Class, error) {
	var c domain.Class
	err := r.db.Get(ctx, &c, `
		SELECT id, name, grade_year, created_at, updated_at, version
		FROM classes WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("class")
	}
	return &c, err
}

// --- Teacher qualifications and availability ---------------------------

// AssignSubject grants a teacher the ability to teach a subject.
func (r *SchoolRepository) AssignSubject(ctx context.Context, teacherID, subjectID string) error {
	return r.db.Exec(ctx, `
		INSERT INTO teacher_subjects (teacher_id, subject_id)
		VALUES ($1, $2)
		ON CONFLICT (teacher_id, subject_id) DO NOTHING
	`, teacherID, subjectID)
}

// TeachersForSubject returns the IDs of every teacher qualified to teach a
// subject, used by the generator's difficulty-first ordering.
func (r *SchoolRepository) TeachersForSubject(ctx context.Context, subjectID string) ([]string, error) {
	var ids []string
	err := r.db.Select(ctx, &ids, `
		SELECT teacher_id FROM teacher_subjects WHERE subject_id = $1
	`, subjectID)
	return ids, err
}

// SetAvailability records whether a teacher can be scheduled into a slot.
// Only unavailability needs persisting; an absent row defaults to
// available via UnavailableSlots below.
func (r *SchoolRepository) SetAvailability(ctx context.Context, teacherID, slotID string, available bool) error {
	return r.db.Exec(ctx, `
		INSERT INTO teacher_availability (teacher_id, time_slot_id, available)
		VALUES ($1, $2, $3)
		ON CONFLICT (teacher_id, time_slot_id) DO UPDATE SET available = EXCLUDED.available
	`, teacherID, slotID, available)
}

// UnavailableSlots returns the slot IDs a teacher is explicitly marked
// unavailable for.
func (r *SchoolRepository) UnavailableSlots(ctx context.Context, teacherID string) (map[string]bool, error) {
	type row struct {
		SlotID    string `db:"time_slot_id"`
		Available bool   `db:"available"`
	}
	rows := []row{}
	err := r.db.Select(ctx, &rows, `
		SELECT time_slot_id, available FROM teacher_availability WHERE teacher_id = $1
	`, teacherID)
	if err != nil {
		return nil, err
	}
	unavailable := make(map[string]bool, len(rows))
	for _, rr := range rows {
		if !rr.Available {
			unavailable[rr.SlotID] = true
		}
	}
	return unavailable, nil
}

// --- ClassSubjectRequirement --------------------------------------------

// CreateRequirement inserts a new class-subject period requirement.
func (r *SchoolRepository) CreateRequirement(ctx context.Context, req *domain.ClassSubjectRequirement) error {
	req.ID = uuid.New().String()
	return r.db.Tx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, `
			INSERT INTO class_subject_requirements
				(id, tenant_id, class_id, subject_id, teacher_id, periods_per_week)
			VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3, $4, $5)
			RETURNING created_at, updated_at, version
		`, req.ID, req.ClassID, req.SubjectID, req.TeacherID, req.PeriodsPerWeek)
		return row.Scan(&req.CreatedAt, &req.UpdatedAt, &req.Version)
	})
}

// RequirementsForAcademicYear returns every requirement for the tenant —
// requirements are not themselves academic-year-scoped, so the generator
// applies the same requirement set to whichever year it is run against.
func (r *SchoolRepository) RequirementsForAcademicYear(ctx context.Context) ([]*domain.ClassSubjectRequirement, error) {
	reqs := []*domain.ClassSubjectRequirement{}
	err := r.db.Select(ctx, &reqs, `
		SELECT id, class_id, subject_id, teacher_id, periods_per_week, created_at, updated_at, version
		FROM class_subject_requirements
		ORDER BY periods_per_week DESC
	`)
	return reqs, err
}

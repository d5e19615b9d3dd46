package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

// TimetableRepository persists entries and generator drafts. Several
// operations (the generator's clear+place+save, and finalize's
// entry-flip+draft-flip) must commit atomically, so this repository
// exposes two tiers of method:
//
//   - ordinary methods (CreateEntry, UpdateEntry, LockEntry, ...) each open
//     their own tenant-scoped transaction via the Facade, exactly like
//     every other repository in this module;
//   - "InTx" methods take a ctx that the caller has ALREADY put inside a
//     Facade.Tx/RunInTransaction callback, and issue their statements
//     directly against db.DB() without opening a second transaction. A
//     second Facade.Tx call would start a brand new connection with none
//     of the outer transaction's SET LOCAL session variables applied,
//     silently breaking both atomicity and row-level security. Callers
//     compose InTx methods inside one RunInTransaction closure to get a
//     single real transaction around multi-statement work.
type TimetableRepository struct {
	db *database.Facade
}

// NewTimetableRepository creates a TimetableRepository.
func NewTimetableRepository(db *database.Facade) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// RunInTransaction opens one tenant-scoped transaction and runs fn inside
// it. Every InTx method called from fn, given the ctx fn receives, shares
// this single transaction.
func (r *TimetableRepository) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Tx(ctx, fn)
}

// AcquireGenerationLockInTx takes a transaction-scoped Postgres advisory
// lock keyed on (tenant, academicYear), serializing concurrent generate()
// calls for the same year without blocking generate() calls for other
// years or other tenants. The lock is released automatically when the
// enclosing transaction commits or rolls back.
func (r *TimetableRepository) AcquireGenerationLockInTx(ctx context.Context, tenantID, academicYearID string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))
	`, tenantID, academicYearID)
	return err
}

// --- reads used by both the generator and manual move/status -----------

// ActiveEntriesInTx returns every active, non-deleted entry for an
// academic year, the seed set the constraint checker's in-memory Index is
// built from.
func (r *TimetableRepository) ActiveEntriesInTx(ctx context.Context, academicYearID string) ([]domain.Entry, error) {
	entries := []domain.Entry{}
	err := r.db.DB().SelectContext(ctx, &entries, `
		SELECT id, academic_year_id, class_id, subject_id, teacher_id, room_id, time_slot_id,
		       is_locked, locked_by, locked_at, is_finalized, is_active, created_at, updated_at, version
		FROM timetable_entries
		WHERE academic_year_id = $1 AND is_active = true AND deleted_at IS NULL
	`, academicYearID)
	return entries, err
}

// ActiveEntries is the standalone (own-transaction) counterpart of
// ActiveEntriesInTx, used by status/listing endpoints that aren't part of
// a larger atomic operation.
func (r *TimetableRepository) ActiveEntries(ctx context.Context, academicYearID string) ([]domain.Entry, error) {
	entries := []domain.Entry{}
	err := r.db.Select(ctx, &entries, `
		SELECT id, academic_year_id, class_id, subject_id, teacher_id, room_id, time_slot_id,
		       is_locked, locked_by, locked_at, is_finalized, is_active, created_at, updated_at, version
		FROM timetable_entries
		WHERE academic_year_id = $1 AND is_active = true AND deleted_at IS NULL
	`, academicYearID)
	return entries, err
}

// GetEntry fetches a single active entry by ID.
func (r *TimetableRepository) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	var e domain.Entry
	err := r.db.Get(ctx, &e, `
		SELECT id, academic_year_id, class_id, subject_id, teacher_id, room_id, time_slot_id,
		       is_locked, locked_by, locked_at, is_finalized, is_active, created_at, updated_at, version
		FROM timetable_entries
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("timetable entry")
	}
	return &e, err
}

// --- generator: clear + insert ------------------------------------------

// ClearEntriesInTx deletes (soft) every active, non-finalized entry for the
// academic year so the generator can place a fresh pass. When
// preserveLocked is false, locked (but not finalized) entries are cleared
// too. Finalized entries are never touched here; a finalized draft is
// write-protected except by explicit platform intervention.
func (r *TimetableRepository) ClearEntriesInTx(ctx context.Context, academicYearID string, preserveLocked bool) error {
	query := `
		UPDATE timetable_entries
		SET is_active = false, deleted_at = now(), updated_at = now()
		WHERE academic_year_id = $1 AND is_active = true AND deleted_at IS NULL AND is_finalized = false
	`
	if preserveLocked {
		query += ` AND is_locked = false`
	}
	_, err := r.db.DB().ExecContext(ctx, query, academicYearID)
	return err
}

// InsertEntryInTx places one new entry as part of a generator run.
func (r *TimetableRepository) InsertEntryInTx(ctx context.Context, e *domain.Entry) error {
	e.ID = uuid.New().String()
	row := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO timetable_entries
			(id, tenant_id, academic_year_id, class_id, subject_id, teacher_id, room_id, time_slot_id,
			 is_locked, is_finalized, is_active)
		VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3, $4, $5, $6, $7, false, false, true)
		RETURNING created_at, updated_at, version
	`, e.ID, e.AcademicYearID, e.ClassID, e.SubjectID, e.TeacherID, e.RoomID, e.TimeSlotID)
	if err := row.Scan(&e.CreatedAt, &e.UpdatedAt, &e.Version); err != nil {
		return err
	}
	e.IsActive = true
	return nil
}

// RoomUsageCountsInTx returns, for every room with at least one active
// booking in the academic year, how many slots it currently occupies —
// the load-balancing signal the generator uses to pick among viable rooms.
func (r *TimetableRepository) RoomUsageCountsInTx(ctx context.Context, academicYearID string) (map[string]int, error) {
	type row struct {
		RoomID string `db:"room_id"`
		Count  int    `db:"count"`
	}
	rows := []row{}
	err := r.db.DB().SelectContext(ctx, &rows, `
		SELECT room_id, count(*) AS count
		FROM timetable_entries
		WHERE academic_year_id = $1 AND is_active = true AND deleted_at IS NULL
		GROUP BY room_id
	`, academicYearID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, rr := range rows {
		counts[rr.RoomID] = rr.Count
	}
	return counts, nil
}

// --- draft persistence ----------------------------------------------------

// LatestDraft returns the most recently created draft for an academic
// year, or nil if none exists yet.
func (r *TimetableRepository) LatestDraft(ctx context.Context, academicYearID string) (*domain.Draft, error) {
	var d domain.Draft
	err := r.db.Get(ctx, &d, `
		SELECT id, academic_year_id, status, placed_count, failed_count, skipped_count, created_at, updated_at
		FROM timetable_drafts
		WHERE academic_year_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, academicYearID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &d, err
}

// SaveDraftInTx inserts a new draft row recording one generator run's
// outcome.
func (r *TimetableRepository) SaveDraftInTx(ctx context.Context, d *domain.Draft) error {
	d.ID = uuid.New().String()
	d.Status = domain.DraftStatusDraft
	row := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO timetable_drafts
			(id, tenant_id, academic_year_id, status, placed_count, failed_count, skipped_count)
		VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, d.ID, d.AcademicYearID, d.Status, d.PlacedCount, d.FailedCount, d.SkippedCount)
	return row.Scan(&d.CreatedAt, &d.UpdatedAt)
}

// FinalizeInTx flips the draft to finalized and marks every active entry
// for the academic year finalized, in the same transaction.
func (r *TimetableRepository) FinalizeInTx(ctx context.Context, draftID, academicYearID string) error {
	result, err := r.db.DB().ExecContext(ctx, `
		UPDATE timetable_drafts SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
	`, draftID, domain.DraftStatusFinalized, domain.DraftStatusDraft)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.Conflict("draft is not in a finalizable state")
	}
	_, err = r.db.DB().ExecContext(ctx, `
		UPDATE timetable_entries
		SET is_finalized = true, updated_at = now()
		WHERE academic_year_id = $1 AND is_active = true AND deleted_at IS NULL
	`, academicYearID)
	return err
}

// --- manual move / lock / unlock ----------------------------------------

// UpdateEntry applies a version-guarded field update to an entry (manual
// move). Rejects with VersionConflict if the version doesn't match, and
// FinalizedReadOnly if the entry belongs to a finalized draft.
func (r *TimetableRepository) UpdateEntry(ctx context.Context, e *domain.Entry) error {
	return r.db.Tx(ctx, func(ctx context.Context) error {
		result, err := r.db.DB().ExecContext(ctx, `
			UPDATE timetable_entries
			SET class_id = $2, subject_id = $3, teacher_id = $4, room_id = $5, time_slot_id = $6,
			    updated_at = now(), version = version + 1
			WHERE id = $1 AND version = $7 AND is_finalized = false AND deleted_at IS NULL
		`, e.ID, e.ClassID, e.SubjectID, e.TeacherID, e.RoomID, e.TimeSlotID, e.Version)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var finalized bool
			err := r.db.DB().GetContext(ctx, &finalized,
				`SELECT is_finalized FROM timetable_entries WHERE id = $1 AND deleted_at IS NULL`, e.ID)
			if err == nil && finalized {
				return errors.FinalizedReadOnly()
			}
			return errors.VersionConflict()
		}
		e.Version++
		return nil
	})
}

// SetLock locks or unlocks an entry.
func (r *TimetableRepository) SetLock(ctx context.Context, entryID string, locked bool, lockedBy string) error {
	return r.db.Tx(ctx, func(ctx context.Context) error {
		var result sql.Result
		var err error
		if locked {
			result, err = r.db.DB().ExecContext(ctx, `
				UPDATE timetable_entries
				SET is_locked = true, locked_by = $2, locked_at = now(), updated_at = now()
				WHERE id = $1 AND deleted_at IS NULL
			`, entryID, lockedBy)
		} else {
			result, err = r.db.DB().ExecContext(ctx, `
				UPDATE timetable_entries
				SET is_locked = false, locked_by = NULL, locked_at = NULL, updated_at = now()
				WHERE id = $1 AND deleted_at IS NULL
			`, entryID)
		}
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("timetable entry")
		}
		return nil
	})
}

package repository_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}
	defer suite.Cleanup(ctx)
	defer testutil.TerminateContainer(ctx)

	os.Exit(m.Run())
}

// seedScheduleFixtures inserts the class, subject, room, and time slot rows
// timetable_entries' foreign keys require, under the given tenant.
func seedScheduleFixtures(t *testing.T, ctx context.Context, tenantID string, rooms, slots int) (classID, subjectID string, roomIDs, slotIDs []string) {
	t.Helper()

	classID = uuid.New().String()
	_, err := suite.RawDB.ExecContext(ctx, `
		INSERT INTO classes (id, tenant_id, name, grade_year) VALUES ($1, $2, 'Class A', 9)
	`, classID, tenantID)
	require.NoError(t, err)

	subjectID = uuid.New().String()
	_, err = suite.RawDB.ExecContext(ctx, `
		INSERT INTO subjects (id, tenant_id, name, code) VALUES ($1, $2, 'Mathematics', 'MATH')
	`, subjectID, tenantID)
	require.NoError(t, err)

	for i := 0; i < rooms; i++ {
		roomID := uuid.New().String()
		_, err = suite.RawDB.ExecContext(ctx, `
			INSERT INTO rooms (id, tenant_id, name, capacity) VALUES ($1, $2, $3, 30)
		`, roomID, tenantID, "Room")
		require.NoError(t, err)
		roomIDs = append(roomIDs, roomID)
	}

	for i := 0; i < slots; i++ {
		slotID := uuid.New().String()
		_, err = suite.RawDB.ExecContext(ctx, `
			INSERT INTO time_slots (id, tenant_id, day_of_week, start_time, end_time) VALUES ($1, $2, 0, '08:00', '08:45')
		`, slotID, tenantID)
		require.NoError(t, err)
		slotIDs = append(slotIDs, slotID)
	}

	return classID, subjectID, roomIDs, slotIDs
}

func insertEntry(t *testing.T, ctx context.Context, repo *repository.TimetableRepository, academicYearID, classID, subjectID, roomID, slotID string) domain.Entry {
	t.Helper()
	e := domain.Entry{
		AcademicYearID: academicYearID,
		ClassID:        classID,
		SubjectID:      subjectID,
		TeacherID:      uuid.New().String(),
		RoomID:         roomID,
		TimeSlotID:     slotID,
	}
	err := repo.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.InsertEntryInTx(ctx, &e)
	})
	require.NoError(t, err)
	return e
}

func markFinalized(t *testing.T, ctx context.Context, entryID string) {
	t.Helper()
	_, err := suite.RawDB.ExecContext(ctx, `UPDATE timetable_entries SET is_finalized = true WHERE id = $1`, entryID)
	require.NoError(t, err)
}

func TestClearEntriesInTx_PreservesFinalizedEntries(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "clear-preserves-finalized")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	classID, subjectID, roomIDs, slotIDs := seedScheduleFixtures(t, tenantCtx, tenant.ID, 1, 2)
	academicYearID := "2026"

	finalized := insertEntry(t, tenantCtx, repo, academicYearID, classID, subjectID, roomIDs[0], slotIDs[0])
	markFinalized(t, tenantCtx, finalized.ID)
	draft := insertEntry(t, tenantCtx, repo, academicYearID, classID, subjectID, roomIDs[0], slotIDs[1])

	err := repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.ClearEntriesInTx(ctx, academicYearID, false)
	})
	require.NoError(t, err)

	active, err := repo.ActiveEntries(tenantCtx, academicYearID)
	require.NoError(t, err)

	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	assert.Contains(t, ids, finalized.ID, "a finalized entry must survive a clear even though it was not locked")
	assert.NotContains(t, ids, draft.ID, "a non-finalized, non-locked entry must be cleared")
}

func TestClearEntriesInTx_PreserveLockedKeepsLockedOnly(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "clear-preserve-locked")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	classID, subjectID, roomIDs, slotIDs := seedScheduleFixtures(t, tenantCtx, tenant.ID, 1, 2)
	academicYearID := "2026"

	locked := insertEntry(t, tenantCtx, repo, academicYearID, classID, subjectID, roomIDs[0], slotIDs[0])
	_, err := suite.RawDB.ExecContext(tenantCtx, `UPDATE timetable_entries SET is_locked = true WHERE id = $1`, locked.ID)
	require.NoError(t, err)
	unlocked := insertEntry(t, tenantCtx, repo, academicYearID, classID, subjectID, roomIDs[0], slotIDs[1])

	err = repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.ClearEntriesInTx(ctx, academicYearID, true)
	})
	require.NoError(t, err)

	active, err := repo.ActiveEntries(tenantCtx, academicYearID)
	require.NoError(t, err)

	ids := make([]string, len(active))
	for i, e := range active {
		ids[i] = e.ID
	}
	assert.Contains(t, ids, locked.ID)
	assert.NotContains(t, ids, unlocked.ID)
}

func TestFinalizeInTx_MarksEntriesAndDraftFinalized(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "finalize-entries")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	classID, subjectID, roomIDs, slotIDs := seedScheduleFixtures(t, tenantCtx, tenant.ID, 1, 1)
	academicYearID := "2026"
	entry := insertEntry(t, tenantCtx, repo, academicYearID, classID, subjectID, roomIDs[0], slotIDs[0])

	d := &domain.Draft{AcademicYearID: academicYearID, PlacedCount: 1}
	err := repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.SaveDraftInTx(ctx, d)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.FinalizeInTx(ctx, d.ID, academicYearID)
	})
	require.NoError(t, err)

	got, err := repo.GetEntry(tenantCtx, entry.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFinalized)

	latest, err := repo.LatestDraft(tenantCtx, academicYearID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, domain.DraftStatusFinalized, latest.Status)
}

func TestFinalizeInTx_RejectsAlreadyFinalizedDraft(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "finalize-twice")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	academicYearID := "2026"
	d := &domain.Draft{AcademicYearID: academicYearID}
	err := repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.SaveDraftInTx(ctx, d)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.FinalizeInTx(ctx, d.ID, academicYearID)
	})
	require.NoError(t, err)

	err = repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.FinalizeInTx(ctx, d.ID, academicYearID)
	})
	assert.Error(t, err, "a draft already finalized is not in a finalizable state a second time")
}

package service_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/generator"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/repository"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/service"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
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

// failIfCalledSchoolSource satisfies both generator.SchoolSource and
// service.AvailabilitySource. Every method fails the test immediately,
// proving a caller never reached into the generator at all.
type failIfCalledSchoolSource struct {
	t *testing.T
}

func (s failIfCalledSchoolSource) RequirementsForAcademicYear(ctx context.Context) ([]*schooldomain.ClassSubjectRequirement, error) {
	s.t.Fatal("generator should not have been invoked")
	return nil, nil
}

func (s failIfCalledSchoolSource) TeachersForSubject(ctx context.Context, subjectID string) ([]string, error) {
	s.t.Fatal("generator should not have been invoked")
	return nil, nil
}

func (s failIfCalledSchoolSource) ListRooms(ctx context.Context) ([]*schooldomain.Room, error) {
	s.t.Fatal("generator should not have been invoked")
	return nil, nil
}

func (s failIfCalledSchoolSource) ListTimeSlots(ctx context.Context) ([]*schooldomain.TimeSlot, error) {
	s.t.Fatal("generator should not have been invoked")
	return nil, nil
}

func (s failIfCalledSchoolSource) UnavailableSlots(ctx context.Context, teacherID string) (map[string]bool, error) {
	s.t.Fatal("generator should not have been invoked")
	return nil, nil
}

// emptySchoolSource reports no requirements, rooms, slots, or teachers, so a
// Generate call that reaches the generator completes successfully with an
// empty result instead of failing on missing school configuration.
type emptySchoolSource struct{}

func (emptySchoolSource) RequirementsForAcademicYear(ctx context.Context) ([]*schooldomain.ClassSubjectRequirement, error) {
	return nil, nil
}

func (emptySchoolSource) TeachersForSubject(ctx context.Context, subjectID string) ([]string, error) {
	return nil, nil
}

func (emptySchoolSource) ListRooms(ctx context.Context) ([]*schooldomain.Room, error) {
	return nil, nil
}

func (emptySchoolSource) ListTimeSlots(ctx context.Context) ([]*schooldomain.TimeSlot, error) {
	return nil, nil
}

func (emptySchoolSource) UnavailableSlots(ctx context.Context, teacherID string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func newTestService(t *testing.T) *service.TimetableService {
	t.Helper()
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))
	school := failIfCalledSchoolSource{t: t}
	gen := generator.NewGenerator(repo, school, logger.New("test", "test"))
	return service.NewTimetableService(repo, gen, school, logger.New("test", "test"))
}

func finalizeEmptyDraft(t *testing.T, ctx context.Context, repo *repository.TimetableRepository, academicYearID string) {
	t.Helper()
	d := &domain.Draft{AcademicYearID: academicYearID}
	err := repo.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.SaveDraftInTx(ctx, d)
	})
	require.NoError(t, err)
	err = repo.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.FinalizeInTx(ctx, d.ID, academicYearID)
	})
	require.NoError(t, err)
}

func TestGenerate_RefusesAgainstAlreadyFinalizedDraft(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "generate-refuses-finalized")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	academicYearID := "2026"
	finalizeEmptyDraft(t, tenantCtx, repo, academicYearID)

	svc := newTestService(t)
	_, err := svc.Generate(tenantCtx, academicYearID, false)

	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok, "expected an *errors.AppError, got %T", err)
	assert.Equal(t, "FINALIZED_READ_ONLY", appErr.Code)
}

func TestGenerate_AllowsRunWhenNoDraftExists(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "generate-no-draft")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))
	school := emptySchoolSource{}
	gen := generator.NewGenerator(repo, school, logger.New("test", "test"))
	svc := service.NewTimetableService(repo, gen, school, logger.New("test", "test"))
	academicYearID := "2026"

	result, err := svc.Generate(tenantCtx, academicYearID, false)

	require.NoError(t, err, "with no prior draft the finalized-draft guard must let the run through")
	assert.Equal(t, domain.DraftStatusDraft, result.Draft.Status)
}

func TestFinalize_RejectsDraftWithFailedRequirements(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "finalize-rejects-failed")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	academicYearID := "2026"
	d := &domain.Draft{AcademicYearID: academicYearID, FailedCount: 2}
	err := repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.SaveDraftInTx(ctx, d)
	})
	require.NoError(t, err)

	svc := newTestService(t)
	_, err = svc.Finalize(tenantCtx, academicYearID)

	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok, "expected an *errors.AppError, got %T", err)
	assert.Equal(t, "NOT_FINALIZABLE", appErr.Code)
}

func TestFinalize_SucceedsWhenNoRequirementsFailed(t *testing.T) {
	ctx := context.Background()
	tenant := suite.SetupTenant(t, ctx, "finalize-succeeds")
	tenantCtx := suite.TenantContext(tenant)
	repo := repository.NewTimetableRepository(database.NewFacade(suite.DB))

	academicYearID := "2026"
	d := &domain.Draft{AcademicYearID: academicYearID, PlacedCount: 3}
	err := repo.RunInTransaction(tenantCtx, func(ctx context.Context) error {
		return repo.SaveDraftInTx(ctx, d)
	})
	require.NoError(t, err)

	svc := newTestService(t)
	finalized, err := svc.Finalize(tenantCtx, academicYearID)

	require.NoError(t, err)
	assert.Equal(t, domain.DraftStatusFinalized, finalized.Status)
}

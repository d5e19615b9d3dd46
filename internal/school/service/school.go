package service

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/school/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// SchoolService wraps SchoolRepository. It holds no state of its own and
// every method is a thin pass-through; the only rule it adds is that
// CreateRoom marks a new room available.
type SchoolService struct {
	repo   *repository.SchoolRepository
	logger *logger.Logger
}

// NewSchoolService creates a SchoolService.
func NewSchoolService(repo *repository.SchoolRepository, log *logger.Logger) *SchoolService {
	return &SchoolService{repo: repo, logger: log}
}

func (s *SchoolService) CreateTimeSlot(ctx context.Context, slot *domain.TimeSlot) error {
	return s.repo.CreateTimeSlot(ctx, slot)
}

func (s *SchoolService) ListTimeSlots(ctx context.Context) ([]*domain.TimeSlot, error) {
	return s.repo.ListTimeSlots(ctx)
}

func (s *SchoolService) GetTimeSlot(ctx context.Context, id string) (*domain.TimeSlot, error) {
	return s.repo.GetTimeSlot(ctx, id)
}

func (s *SchoolService) CreateRoom(ctx context.Context, room *domain.Room) error {
	room.Available = true
	return s.repo.CreateRoom(ctx, room)
}

func (s *SchoolService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	return s.repo.ListRooms(ctx)
}

func (s *SchoolService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return s.repo.GetRoom(ctx, id)
}

func (s *SchoolService) UpdateRoom(ctx context.Context, room *domain.Room) error {
	return s.repo.UpdateRoom(ctx, room)
}

func (s *SchoolService) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	return s.repo.CreateSubject(ctx, subject)
}

func (s *SchoolService) ListSubjects(ctx context.Context) ([]*domain.Subject, error) {
	return s.repo.ListSubjects(ctx)
}

func (s *SchoolService) CreateClass(ctx context.Context, class *domain.Class) error {
	return s.repo.CreateClass(ctx, class)
}

func (s *SchoolService) ListClasses(ctx context.Context) ([]*domain.Class, error) {
	return s.repo.ListClasses(ctx)
}

func (s *SchoolService) GetClass(ctx context.Context, id string) (*domain.Class, error) {
	return s.repo.GetClass(ctx, id)
}

// AssignTeacherSubject grants a teacher qualification to teach a subject.
func (s *SchoolService) AssignTeacherSubject(ctx context.Context, teacherID, subjectID string) error {
	return s.repo.AssignSubject(ctx, teacherID, subjectID)
}

// SetTeacherAvailability records a teacher's availability for a slot.
func (s *SchoolService) SetTeacherAvailability(ctx context.Context, teacherID, slotID string, available bool) error {
	return s.repo.SetAvailability(ctx, teacherID, slotID, available)
}

// CreateRequirement adds a class-subject period requirement, the raw
// material the timetable generator consumes.
func (s *SchoolService) CreateRequirement(ctx context.Context, req *domain.ClassSubjectRequirement) error {
	return s.repo.CreateRequirement(ctx, req)
}

// ListRequirements returns every class-subject requirement for the tenant.
func (s *SchoolService) ListRequirements(ctx context.Context) ([]*domain.ClassSubjectRequirement, error) {
	return s.repo.RequirementsForAcademicYear(ctx)
}

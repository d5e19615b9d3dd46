package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Status       string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleFixture represents test role data
type RoleFixture struct {
	ID          string
	Name        string
	DisplayName string
	Level       int
	IsManager   bool
	Permissions []string
}

// RoomFixture represents test classroom data
type RoomFixture struct {
	ID        string
	Name      string
	Capacity  int
	Available bool
	CreatedAt time.Time
}

// SubjectFixture represents test subject data
type SubjectFixture struct {
	ID        string
	Name      string
	Code      string
	CreatedAt time.Time
}

// ClassFixture represents test class data
type ClassFixture struct {
	ID        string
	Name      string
	GradeYear int
	CreatedAt time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	user := UserFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@test.schoolflow.dev", seq),
		PasswordHash: string(hash),
		FirstName:    fmt.Sprintf("Test%d", seq),
		LastName:     "User",
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithEmail sets the user email
func WithEmail(email string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Email = email
	}
}

// WithName sets the user's first and last name
func WithName(first, last string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.FirstName = first
		u.LastName = last
	}
}

// WithStatus sets the user status
func WithStatus(status string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Status = status
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*UserFixture) {
	return func(u *UserFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}

// WithRoleID sets the user's role ID
func WithRoleID(roleID string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.RoleID = roleID
	}
}

// Role creates a role fixture with defaults
func (f *FixtureFactory) Role(opts ...func(*RoleFixture)) RoleFixture {
	seq := f.nextSeq()

	role := RoleFixture{
		ID:          uuid.New().String(),
		Name:        fmt.Sprintf("role_%d", seq),
		DisplayName: fmt.Sprintf("Role %d", seq),
		Level:       50,
		IsManager:   false,
		Permissions: []string{"read"},
	}

	for _, opt := range opts {
		opt(&role)
	}

	return role
}

// AdminRole creates an admin role fixture
func (f *FixtureFactory) AdminRole() RoleFixture {
	return RoleFixture{
		ID:          uuid.New().String(),
		Name:        "admin",
		DisplayName: "Administrator",
		Level:       100,
		IsManager:   true,
		Permissions: []string{"*"},
	}
}

// TeacherRole creates a teacher role fixture
func (f *FixtureFactory) TeacherRole() RoleFixture {
	return RoleFixture{
		ID:          uuid.New().String(),
		Name:        "teacher",
		DisplayName: "Teacher",
		Level:       50,
		IsManager:   false,
		Permissions: []string{"timetable:read", "school:read"},
	}
}

// Room creates a classroom fixture with defaults
func (f *FixtureFactory) Room(opts ...func(*RoomFixture)) RoomFixture {
	seq := f.nextSeq()

	room := RoomFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Room %d", seq),
		Capacity:  30,
		Available: true,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&room)
	}

	return room
}

// WithRoomName sets the room name
func WithRoomName(name string) func(*RoomFixture) {
	return func(r *RoomFixture) {
		r.Name = name
	}
}

// WithCapacity sets the room capacity
func WithCapacity(capacity int) func(*RoomFixture) {
	return func(r *RoomFixture) {
		r.Capacity = capacity
	}
}

// Subject creates a subject fixture with defaults
func (f *FixtureFactory) Subject(opts ...func(*SubjectFixture)) SubjectFixture {
	seq := f.nextSeq()

	subject := SubjectFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Subject %d", seq),
		Code:      fmt.Sprintf("SUBJ-%03d", seq),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&subject)
	}

	return subject
}

// WithSubjectName sets the subject name
func WithSubjectName(name string) func(*SubjectFixture) {
	return func(s *SubjectFixture) {
		s.Name = name
	}
}

// WithSubjectCode sets the subject code
func WithSubjectCode(code string) func(*SubjectFixture) {
	return func(s *SubjectFixture) {
		s.Code = code
	}
}

// Class creates a class fixture with defaults
func (f *FixtureFactory) Class(opts ...func(*ClassFixture)) ClassFixture {
	seq := f.nextSeq()

	class := ClassFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Class %d", seq),
		GradeYear: 9,
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&class)
	}

	return class
}

// WithClassName sets the class name
func WithClassName(name string) func(*ClassFixture) {
	return func(c *ClassFixture) {
		c.Name = name
	}
}

// WithGradeYear sets the class grade year
func WithGradeYear(year int) func(*ClassFixture) {
	return func(c *ClassFixture) {
		c.GradeYear = year
	}
}

// DefaultTestUsers returns a set of standard test users
func DefaultTestUsers(factory *FixtureFactory) []UserFixture {
	return []UserFixture{
		factory.User(WithEmail("admin@greenwood-academy.edu"), WithName("Alex", "Greenwood")),
		factory.User(WithEmail("teacher@greenwood-academy.edu"), WithName("Priya", "Sharma")),
		factory.User(WithEmail("viewer@greenwood-academy.edu"), WithName("Sam", "Okafor")),
		factory.User(WithEmail("inactive@greenwood-academy.edu"), WithName("Lee", "Novak"), WithStatus("inactive")),
	}
}

// DefaultTestRoles returns standard test roles
func DefaultTestRoles() []RoleFixture {
	return []RoleFixture{
		{ID: uuid.New().String(), Name: "admin", DisplayName: "Administrator", Level: 100, IsManager: true, Permissions: []string{"*"}},
		{ID: uuid.New().String(), Name: "principal", DisplayName: "Principal", Level: 80, IsManager: true, Permissions: []string{"users:read", "users:write", "school:read", "school:write"}},
		{ID: uuid.New().String(), Name: "teacher", DisplayName: "Teacher", Level: 50, IsManager: false, Permissions: []string{"timetable:read", "school:read"}},
		{ID: uuid.New().String(), Name: "viewer", DisplayName: "Viewer", Level: 10, IsManager: false, Permissions: []string{"timetable:read"}},
	}
}

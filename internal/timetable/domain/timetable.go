package domain

import "time"

// Draft statuses. Finalized is a monotonic terminal state — no path moves
// a draft back to draft once it has been finalized.
const (
	DraftStatusDraft     = "draft"
	DraftStatusFinalized = "finalized"
)

// Failure reasons recorded against a requirement the generator could not
// place.
const (
	ReasonMaxRetriesExceeded = "max_retries_exceeded"
	ReasonNoValidSlotFound   = "no_valid_slot_found"
)

// Conflict kinds the constraint checker can report, per the predicate
// table over active, non-deleted entries within the same tenant and
// academic year.
const (
	ConflictRoomDoubleBooked    = "RoomDoubleBooked"
	ConflictTeacherDoubleBooked = "TeacherDoubleBooked"
	ConflictClassDoubleBooked   = "ClassDoubleBooked"
	ConflictTeacherUnavailable  = "TeacherUnavailable"
)

// Entry is one placed (class, subject, teacher, room, slot) tuple within an
// academic year's timetable.
type Entry struct {
	ID             string     `db:"id" json:"id"`
	AcademicYearID string     `db:"academic_year_id" json:"academicYearId"`
	ClassID        string     `db:"class_id" json:"classId"`
	SubjectID      string     `db:"subject_id" json:"subjectId"`
	TeacherID      string     `db:"teacher_id" json:"teacherId"`
	RoomID         string     `db:"room_id" json:"roomId"`
	TimeSlotID     string     `db:"time_slot_id" json:"timeSlotId"`
	IsLocked       bool       `db:"is_locked" json:"isLocked"`
	LockedBy       *string    `db:"locked_by" json:"lockedBy,omitempty"`
	LockedAt       *time.Time `db:"locked_at" json:"lockedAt,omitempty"`
	IsFinalized    bool       `db:"is_finalized" json:"isFinalized"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
	Version        int        `db:"version" json:"version"`

	// Denormalized labels for UI convenience in generate() responses; not
	// persisted columns.
	ClassName   string `db:"-" json:"className,omitempty"`
	SubjectName string `db:"-" json:"subjectName,omitempty"`
	RoomName    string `db:"-" json:"roomName,omitempty"`
}

// Candidate is a proposed placement the constraint checker evaluates.
type Candidate struct {
	AcademicYearID string
	ClassID        string
	TeacherID      string
	RoomID         string
	TimeSlotID     string
}

// Conflict is one reason a candidate placement cannot be committed.
type Conflict struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Draft records the outcome of one generator run for a (tenant, academic
// year). At most one non-deleted draft per (tenant, academicYear) is
// "current" — the latest by creation.
type Draft struct {
	ID             string    `db:"id" json:"id"`
	AcademicYearID string    `db:"academic_year_id" json:"academicYearId"`
	Status         string    `db:"status" json:"status"`
	PlacedCount    int       `db:"placed_count" json:"placedCount"`
	FailedCount    int       `db:"failed_count" json:"failedCount"`
	SkippedCount   int       `db:"skipped_count" json:"skippedCount"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// Requirement is one expanded (classId, subjectId, periodIndex) unit of
// work the generator must place, derived from a
// ClassSubjectRequirement{periodsPerWeek = P} by emitting P of these.
type Requirement struct {
	ClassID        string
	SubjectID      string
	TeacherID      string // empty if the requirement does not pin a teacher
	PeriodIndex    int
	TotalPeriods   int
	CandidateCount int // number of teachers qualified for SubjectID, used for difficulty ordering
}

// FailedRequirement records a requirement the generator could not place.
type FailedRequirement struct {
	ClassID      string `json:"classId"`
	SubjectID    string `json:"subjectId"`
	TeacherID    string `json:"teacherId,omitempty"`
	PeriodIndex  int    `json:"periodIndex"`
	TotalPeriods int    `json:"totalPeriods"`
	Reason       string `json:"reason"`
}

// SkippedRequirement records a requirement the generator did not attempt
// because it was already satisfied by a locked entry.
type SkippedRequirement struct {
	ClassID     string `json:"classId"`
	SubjectID   string `json:"subjectId"`
	PeriodIndex int    `json:"periodIndex"`
}

// GenerateResult is the full output of one generator run.
type GenerateResult struct {
	Draft   Draft                `json:"draft"`
	Placed  []Entry              `json:"placed"`
	Failed  []FailedRequirement  `json:"failed"`
	Skipped []SkippedRequirement `json:"skipped"`
}

package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
)

func entry(id, classID, teacherID, roomID, slotID string) domain.Entry {
	return domain.Entry{
		ID:         id,
		ClassID:    classID,
		TeacherID:  teacherID,
		RoomID:     roomID,
		TimeSlotID: slotID,
		IsActive:   true,
	}
}

func TestCheck_NoConflicts(t *testing.T) {
	idx := NewIndex(nil)
	c := domain.Candidate{ClassID: "c1", TeacherID: "t1", RoomID: "r1", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "", nil)

	assert.Empty(t, conflicts)
}

func TestCheck_RoomDoubleBooked(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})
	c := domain.Candidate{ClassID: "c2", TeacherID: "t2", RoomID: "r1", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "", nil)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictRoomDoubleBooked, conflicts[0].Kind)
}

func TestCheck_TeacherDoubleBooked(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})
	c := domain.Candidate{ClassID: "c2", TeacherID: "t1", RoomID: "r2", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "", nil)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictTeacherDoubleBooked, conflicts[0].Kind)
}

func TestCheck_ClassDoubleBooked(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})
	c := domain.Candidate{ClassID: "c1", TeacherID: "t2", RoomID: "r2", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "", nil)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictClassDoubleBooked, conflicts[0].Kind)
}

func TestCheck_TeacherUnavailable(t *testing.T) {
	idx := NewIndex(nil)
	c := domain.Candidate{ClassID: "c1", TeacherID: "t1", RoomID: "r1", TimeSlotID: "s1"}
	unavailable := map[string]bool{"s1": true}

	conflicts := Check(idx, c, "", unavailable)

	assert.Len(t, conflicts, 1)
	assert.Equal(t, domain.ConflictTeacherUnavailable, conflicts[0].Kind)
}

func TestCheck_ExcludesOwnEntry(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})
	c := domain.Candidate{ClassID: "c1", TeacherID: "t1", RoomID: "r1", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "e1", nil)

	assert.Empty(t, conflicts, "a candidate matching its own entry should not conflict with itself")
}

func TestCheck_MultipleConflictsReported(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})
	c := domain.Candidate{ClassID: "c1", TeacherID: "t1", RoomID: "r1", TimeSlotID: "s1"}

	conflicts := Check(idx, c, "", nil)

	kinds := make([]string, len(conflicts))
	for i, cf := range conflicts {
		kinds[i] = cf.Kind
	}
	assert.ElementsMatch(t, []string{
		domain.ConflictRoomDoubleBooked,
		domain.ConflictTeacherDoubleBooked,
		domain.ConflictClassDoubleBooked,
	}, kinds)
}

func TestIndex_RoomUsageCount(t *testing.T) {
	idx := NewIndex([]domain.Entry{
		entry("e1", "c1", "t1", "r1", "s1"),
		entry("e2", "c2", "t2", "r1", "s2"),
		entry("e3", "c3", "t3", "r2", "s1"),
	})

	assert.Equal(t, 2, idx.RoomUsageCount("r1"))
	assert.Equal(t, 1, idx.RoomUsageCount("r2"))
	assert.Equal(t, 0, idx.RoomUsageCount("r3"))
}

func TestIndex_ClassOccupiedAt(t *testing.T) {
	idx := NewIndex([]domain.Entry{entry("e1", "c1", "t1", "r1", "s1")})

	assert.True(t, idx.ClassOccupiedAt("c1", "s1"))
	assert.False(t, idx.ClassOccupiedAt("c1", "s2"))
	assert.False(t, idx.ClassOccupiedAt("c2", "s1"))
}

func TestIndex_ClassOccupiedAt_ReflectsAddAndRemove(t *testing.T) {
	idx := NewIndex(nil)
	assert.False(t, idx.ClassOccupiedAt("c1", "s1"))

	idx.Add(entry("e1", "c1", "t1", "r1", "s1"))
	assert.True(t, idx.ClassOccupiedAt("c1", "s1"))

	idx.Remove("e1")
	assert.False(t, idx.ClassOccupiedAt("c1", "s1"), "Remove frees the slot again")
}

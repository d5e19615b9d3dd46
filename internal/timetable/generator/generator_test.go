package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/constraint"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
)

func testRooms(ids ...string) []*schooldomain.Room {
	rooms := make([]*schooldomain.Room, len(ids))
	for i, id := range ids {
		rooms[i] = &schooldomain.Room{ID: id, Name: id, Capacity: 30, Available: true}
	}
	return rooms
}

func testSlots(ids ...string) []*schooldomain.TimeSlot {
	slots := make([]*schooldomain.TimeSlot, len(ids))
	for i, id := range ids {
		slots[i] = &schooldomain.TimeSlot{ID: id, DayOfWeek: 0, Start: "08:00", End: "08:45"}
	}
	return slots
}

func unit(classID, subjectID string, periodIndex int, teachers ...string) placementUnit {
	return placementUnit{
		req: domain.Requirement{
			ClassID:        classID,
			SubjectID:      subjectID,
			PeriodIndex:    periodIndex,
			TotalPeriods:   1,
			CandidateCount: len(teachers),
		},
		teachers: teachers,
	}
}

// Scenario 4: a teacher marked unavailable for a slot must never be placed
// there, even when the slot is otherwise the only free one.
func TestPlaceOne_ExcludesUnavailableSlot(t *testing.T) {
	g := &Generator{}
	idx := constraint.NewIndex(nil)
	rooms := testRooms("r1")
	slots := testSlots("s1", "s2")
	unavailability := map[string]map[string]bool{
		"t1": {"s1": true},
	}
	u := unit("c1", "sub1", 0, "t1")
	retries := 0

	result, ok, _ := g.placeOne(idx, u, rooms, slots, unavailability, &retries)

	require.True(t, ok)
	assert.Equal(t, "s2", result.TimeSlotID, "the unavailable slot must be skipped in favor of the free one")
}

func TestPlaceOne_FailsWhenEveryTeacherUnavailable(t *testing.T) {
	g := &Generator{}
	idx := constraint.NewIndex(nil)
	rooms := testRooms("r1")
	slots := testSlots("s1")
	unavailability := map[string]map[string]bool{
		"t1": {"s1": true},
	}
	u := unit("c1", "sub1", 0, "t1")
	retries := 0

	_, ok, reason := g.placeOne(idx, u, rooms, slots, unavailability, &retries)

	assert.False(t, ok)
	assert.Equal(t, domain.ReasonNoValidSlotFound, reason)
}

// Regression test for the bug where placeOne's per-class memo persisted a
// slot as permanently excluded for the whole class after only one
// requirement's teacher pool failed there, blocking a later requirement for
// the same class whose own (different) teacher pool was free at that slot.
func TestPlace_DoesNotLeakOneUnitsFailureOntoAnothersFeasibleSlot(t *testing.T) {
	g := &Generator{}
	rooms := testRooms("r1")
	slots := testSlots("s0", "s1", "s2", "s3", "s4")

	// T1 teaches subject S1 for class C1 and is unavailable at s0-s3, so the
	// only slot it can be placed at is s4.
	unavailability := map[string]map[string]bool{
		"t1": {"s0": true, "s1": true, "s2": true, "s3": true},
		"t2": {},
	}

	units := []placementUnit{
		unit("c1", "sub1", 0, "t1"),
		unit("c1", "sub2", 0, "t2"), // t2 is free everywhere, including s0-s3
	}

	placed, failed, _ := g.place(units, nil, rooms, slots, unavailability)

	require.Empty(t, failed, "both requirements have a conflict-free placement available")
	require.Len(t, placed, 2)

	bySubject := make(map[string]domain.Entry, len(placed))
	for _, e := range placed {
		bySubject[e.SubjectID] = e
	}
	assert.Equal(t, "s4", bySubject["sub1"].TimeSlotID)
	assert.Contains(t, []string{"s0", "s1", "s2", "s3"}, bySubject["sub2"].TimeSlotID,
		"sub2's unit must still be able to use a slot sub1's teacher pool failed at")
}

func TestPlace_SkipsSlotAlreadyOccupiedByClass(t *testing.T) {
	g := &Generator{}
	rooms := testRooms("r1", "r2")
	slots := testSlots("s1")
	unavailability := map[string]map[string]bool{
		"t1": {},
		"t2": {},
	}
	units := []placementUnit{
		unit("c1", "sub1", 0, "t1"),
		unit("c1", "sub2", 0, "t2"),
	}

	placed, failed, _ := g.place(units, nil, rooms, slots, unavailability)

	assert.Len(t, placed, 1, "only one of the two units can occupy class c1's only slot")
	require.Len(t, failed, 1)
	assert.Equal(t, domain.ReasonNoValidSlotFound, failed[0].Reason)
}

func TestPlace_HonorsPreservedLockedEntries(t *testing.T) {
	g := &Generator{}
	rooms := testRooms("r1")
	slots := testSlots("s1", "s2")
	unavailability := map[string]map[string]bool{"t1": {}}

	preserved := []domain.Entry{
		{ID: "locked-1", ClassID: "c1", SubjectID: "sub0", TeacherID: "t0", RoomID: "r1", TimeSlotID: "s1", IsLocked: true, IsActive: true},
	}
	units := []placementUnit{unit("c1", "sub1", 0, "t1")}

	placed, failed, idx := g.place(units, preserved, rooms, slots, unavailability)

	require.Empty(t, failed)
	require.Len(t, placed, 1)
	assert.Equal(t, "s2", placed[0].TimeSlotID, "s1 is already occupied by the preserved locked entry")
	assert.True(t, idx.ClassOccupiedAt("c1", "s1"))
}

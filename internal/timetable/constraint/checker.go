// Package constraint implements the timetable's placement predicate: given
// a candidate placement and the set of entries already committed in this
// academic year (persisted, plus whatever the generator has placed so far
// in its current run), report every reason the candidate cannot stand.
//
// The checker is a pure function over its inputs. It touches no database —
// both the generator and the manual-move handler build an Index once and
// reuse it across many candidate evaluations.
package constraint

import (
	"fmt"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
)

// Index is the in-memory view of active, non-deleted entries the checker
// evaluates candidates against. It is seeded from persisted rows and, in
// the generator, grows as new placements commit.
type Index struct {
	entries map[string]domain.Entry // by entry ID
	byRoom  map[string][]string     // "timeSlotID|roomID" -> entry IDs
	byTeach map[string][]string     // "timeSlotID|teacherID" -> entry IDs
	byClass map[string][]string     // "timeSlotID|classID" -> entry IDs
}

// NewIndex builds an Index from a set of already-active entries.
func NewIndex(entries []domain.Entry) *Index {
	idx := &Index{
		entries: make(map[string]domain.Entry, len(entries)),
		byRoom:  make(map[string][]string),
		byTeach: make(map[string][]string),
		byClass: make(map[string][]string),
	}
	for _, e := range entries {
		idx.add(e)
	}
	return idx
}

func roomKey(timeSlotID, roomID string) string  { return timeSlotID + "|" + roomID }
func teachKey(timeSlotID, teacherID string) string { return timeSlotID + "|" + teacherID }
func classKey(timeSlotID, classID string) string { return timeSlotID + "|" + classID }

func (idx *Index) add(e domain.Entry) {
	idx.entries[e.ID] = e
	idx.byRoom[roomKey(e.TimeSlotID, e.RoomID)] = append(idx.byRoom[roomKey(e.TimeSlotID, e.RoomID)], e.ID)
	idx.byTeach[teachKey(e.TimeSlotID, e.TeacherID)] = append(idx.byTeach[teachKey(e.TimeSlotID, e.TeacherID)], e.ID)
	idx.byClass[classKey(e.TimeSlotID, e.ClassID)] = append(idx.byClass[classKey(e.TimeSlotID, e.ClassID)], e.ID)
}

// Add records a newly committed placement so subsequent Check calls in the
// same run see it.
func (idx *Index) Add(e domain.Entry) {
	idx.add(e)
}

// Remove drops an entry from the index, so Check, RoomUsageCount and
// ClassOccupiedAt no longer see it.
func (idx *Index) Remove(id string) {
	delete(idx.entries, id)
}

// RoomUsageCount returns how many active entries currently occupy a room
// across every slot, used by the generator's lowest-usage room selection.
func (idx *Index) RoomUsageCount(roomID string) int {
	count := 0
	for _, e := range idx.entries {
		if e.RoomID == roomID {
			count++
		}
	}
	return count
}

// ClassOccupiedAt reports whether classID already has a committed entry at
// timeSlotID, so the generator can skip a slot for a class without
// re-running the full candidate check against it.
func (idx *Index) ClassOccupiedAt(classID, timeSlotID string) bool {
	for _, id := range idx.byClass[classKey(timeSlotID, classID)] {
		if _, ok := idx.entries[id]; ok {
			return true
		}
	}
	return false
}

// Check evaluates a candidate against the index plus the teacher's
// unavailability set, returning every conflict found. excludeEntryID lets a
// manual move re-check a candidate against everything except itself.
func Check(idx *Index, c domain.Candidate, excludeEntryID string, teacherUnavailable map[string]bool) []domain.Conflict {
	var conflicts []domain.Conflict

	if teacherUnavailable[c.TimeSlotID] {
		conflicts = append(conflicts, domain.Conflict{
			Kind:    domain.ConflictTeacherUnavailable,
			Message: fmt.Sprintf("teacher %s is marked unavailable for slot %s", c.TeacherID, c.TimeSlotID),
		})
	}

	if other, ok := idx.firstOtherThan(idx.byRoom[roomKey(c.TimeSlotID, c.RoomID)], excludeEntryID); ok {
		conflicts = append(conflicts, domain.Conflict{
			Kind:    domain.ConflictRoomDoubleBooked,
			Message: fmt.Sprintf("room %s already booked at slot %s by entry %s", c.RoomID, c.TimeSlotID, other),
		})
	}

	if other, ok := idx.firstOtherThan(idx.byTeach[teachKey(c.TimeSlotID, c.TeacherID)], excludeEntryID); ok {
		conflicts = append(conflicts, domain.Conflict{
			Kind:    domain.ConflictTeacherDoubleBooked,
			Message: fmt.Sprintf("teacher %s already booked at slot %s by entry %s", c.TeacherID, c.TimeSlotID, other),
		})
	}

	if other, ok := idx.firstOtherThan(idx.byClass[classKey(c.TimeSlotID, c.ClassID)], excludeEntryID); ok {
		conflicts = append(conflicts, domain.Conflict{
			Kind:    domain.ConflictClassDoubleBooked,
			Message: fmt.Sprintf("class %s already booked at slot %s by entry %s", c.ClassID, c.TimeSlotID, other),
		})
	}

	return conflicts
}

func (idx *Index) firstOtherThan(ids []string, excludeEntryID string) (string, bool) {
	for _, id := range ids {
		if id == excludeEntryID {
			continue
		}
		if _, ok := idx.entries[id]; ok {
			return id, true
		}
	}
	return "", false
}

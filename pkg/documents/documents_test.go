package documents

import (
	"testing"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlots() []schooldomain.TimeSlot {
	return []schooldomain.TimeSlot{
		{ID: "slot1", DayOfWeek: 1, Start: "08:00", End: "08:45"},
		{ID: "slot2", DayOfWeek: 1, Start: "08:45", End: "09:30"},
	}
}

func TestRenderTimetable_ProducesNonEmptyPDF(t *testing.T) {
	entries := []domain.Entry{
		{ClassName: "9B", SubjectName: "Math", RoomName: "101", TimeSlotID: "slot1"},
		{ClassName: "9B", SubjectName: "Science", RoomName: "102", TimeSlotID: "slot2"},
	}

	out, err := RenderTimetable("2026", entries, testSlots())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.True(t, len(out) > 100)
}

func TestRenderClassSchedule_ProducesNonEmptyPDF(t *testing.T) {
	entries := []domain.Entry{
		{ClassName: "9B", SubjectName: "Math", RoomName: "101", TimeSlotID: "slot1"},
	}

	out, err := RenderClassSchedule("9B", entries, testSlots())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

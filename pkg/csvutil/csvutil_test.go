package csvutil

import (
	"strings"
	"testing"

	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRequirements_SkipsHeaderRow(t *testing.T) {
	input := "class_id,subject_id,teacher_id,periods_per_week\nc1,s1,t1,4\nc2,s2,,2\n"

	reqs, err := ReadRequirements(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "c1", reqs[0].ClassID)
	assert.Equal(t, 4, reqs[0].PeriodsPerWeek)
	require.NotNil(t, reqs[0].TeacherID)
	assert.Equal(t, "t1", *reqs[0].TeacherID)

	assert.Nil(t, reqs[1].TeacherID)
}

func TestReadRequirements_RejectsNonIntegerPeriods(t *testing.T) {
	input := "c1,s1,t1,four\n"
	_, err := ReadRequirements(strings.NewReader(input))
	assert.Error(t, err)
}

func TestReadRequirements_RejectsEmptyFile(t *testing.T) {
	_, err := ReadRequirements(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteEntries_IncludesHeaderAndRows(t *testing.T) {
	entries := []domain.Entry{
		{ClassName: "9B", SubjectName: "Math", TeacherID: "t1", RoomName: "101", TimeSlotID: "slot1", IsLocked: true},
	}

	var buf strings.Builder
	require.NoError(t, WriteEntries(&buf, entries))

	out := buf.String()
	assert.Contains(t, out, "class_name,subject_name,teacher_id,room_name,time_slot_id,is_locked")
	assert.Contains(t, out, "9B,Math,t1,101,slot1,true")
}

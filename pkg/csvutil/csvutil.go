// Package csvutil reads and writes the CSV shapes used for bulk
// class-subject requirement import and generated-timetable export. No ecosystem CSV library
// appeared anywhere in the teacher or the rest of the example pack, so this
// is built directly on the standard library's encoding/csv.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

var requirementHeader = []string{"class_id", "subject_id", "teacher_id", "periods_per_week"}

// ReadRequirements parses a class-subject-requirement import file.
// teacher_id may be blank (the requirement is then unassigned). A malformed
// row is reported as a BadRequest naming the 1-based row number, so an
// admin uploading a spreadsheet export can find and fix it directly.
func ReadRequirements(r io.Reader) ([]*schooldomain.ClassSubjectRequirement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(requirementHeader)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.BadRequest("malformed csv: " + err.Error())
	}
	if len(rows) == 0 {
		return nil, errors.BadRequest("csv file is empty")
	}

	body := rows
	firstRow := 1 // file row number of body[0]
	if rows[0][0] == requirementHeader[0] {
		body = rows[1:]
		firstRow = 2
	}

	out := make([]*schooldomain.ClassSubjectRequirement, 0, len(body))
	for i, row := range body {
		periods, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, errors.BadRequest(fmt.Sprintf("row %d: periods_per_week must be an integer", i+firstRow))
		}
		req := &schooldomain.ClassSubjectRequirement{
			ClassID:        row[0],
			SubjectID:      row[1],
			PeriodsPerWeek: periods,
		}
		if row[2] != "" {
			teacherID := row[2]
			req.TeacherID = &teacherID
		}
		out = append(out, req)
	}
	return out, nil
}

var entryHeader = []string{"class_name", "subject_name", "teacher_id", "room_name", "time_slot_id", "is_locked"}

// WriteEntries writes a generated timetable's entries as CSV for download.
func WriteEntries(w io.Writer, entries []domain.Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(entryHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.ClassName,
			e.SubjectName,
			e.TeacherID,
			e.RoomName,
			e.TimeSlotID,
			strconv.FormatBool(e.IsLocked),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

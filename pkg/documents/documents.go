// Package documents renders printable PDFs — weekly timetables and
// per-class schedule summaries — using github.com/go-pdf/fpdf, promoted
// from an indirect to a direct dependency for this purpose.
package documents

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"

	schooldomain "github.com/schoolflow/schoolflow-backend/internal/school/domain"
	"github.com/schoolflow/schoolflow-backend/internal/timetable/domain"
)

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)
	return pdf
}

func slotByID(slots []schooldomain.TimeSlot) map[string]schooldomain.TimeSlot {
	byID := make(map[string]schooldomain.TimeSlot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}
	return byID
}

// RenderTimetable renders a full academic year's active entries as a
// day-by-day grid, one row per entry within each day section.
func RenderTimetable(academicYearLabel string, entries []domain.Entry, slots []schooldomain.TimeSlot) ([]byte, error) {
	byID := slotByID(slots)

	byDay := make(map[int][]domain.Entry)
	for _, e := range entries {
		slot, ok := byID[e.TimeSlotID]
		if !ok {
			continue
		}
		byDay[slot.DayOfWeek] = append(byDay[slot.DayOfWeek], e)
	}

	pdf := newDocument(fmt.Sprintf("Timetable — %s", academicYearLabel))

	for day := 0; day < 7; day++ {
		dayEntries := byDay[day]
		if len(dayEntries) == 0 {
			continue
		}
		sort.Slice(dayEntries, func(i, j int) bool {
			return byID[dayEntries[i].TimeSlotID].Start < byID[dayEntries[j].TimeSlotID].Start
		})

		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, dayNames[day])
		pdf.Ln(8)

		pdf.SetFont("Helvetica", "", 10)
		for _, e := range dayEntries {
			slot := byID[e.TimeSlotID]
			row := fmt.Sprintf("%s-%s  %s  %s  room %s", slot.Start, slot.End, e.ClassName, e.SubjectName, e.RoomName)
			pdf.Cell(0, 6, row)
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderClassSchedule renders one class's weekly schedule as a standalone
// printable document — the "report card" shape named for this class of
// system, scoped to the schedule data this system actually models.
func RenderClassSchedule(className string, entries []domain.Entry, slots []schooldomain.TimeSlot) ([]byte, error) {
	byID := slotByID(slots)

	sort.Slice(entries, func(i, j int) bool {
		si, sj := byID[entries[i].TimeSlotID], byID[entries[j].TimeSlotID]
		if si.DayOfWeek != sj.DayOfWeek {
			return si.DayOfWeek < sj.DayOfWeek
		}
		return si.Start < sj.Start
	})

	pdf := newDocument(fmt.Sprintf("Weekly Schedule — %s", className))
	pdf.SetFont("Helvetica", "", 10)

	for _, e := range entries {
		slot := byID[e.TimeSlotID]
		row := fmt.Sprintf("%s  %s-%s  %s  room %s", dayNames[slot.DayOfWeek], slot.Start, slot.End, e.SubjectName, e.RoomName)
		pdf.Cell(0, 6, row)
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/jacobmichels/portal"
	"github.com/xuri/excelize/v2"
)

func TestWorkbook(t *testing.T) {
	courses := []portal.Course{
		{Code: "CIT401", Title: "Advanced Web Development", Credits: 3, Instructor: "Dr. Ada Lovelace", Syllabus: []string{"Intro", "React"}, Color: portal.ColorPrimary},
	}
	timetable := []portal.TimetableEntry{
		{ID: "t1", NewTimetableEntry: portal.NewTimetableEntry{Day: portal.Monday, Time: "09:00 - 11:00", CourseCode: "CIT401", CourseTitle: "Advanced Web Dev", Location: "Lab 3"}},
	}
	announcements := []portal.Announcement{
		{ID: "1", Title: "Hello", Content: "World", Date: "2024-07-20"},
		{ID: "2", Title: "Again", Content: "More", Date: "2024-07-18"},
	}

	f, err := Workbook(courses, timetable, announcements)
	if err != nil {
		t.Fatal(err)
	}

	// round trip through bytes like the download does
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	f, err = excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{"Courses", "Timetable", "Announcements"}) {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows("Courses")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one course, got %d rows", len(rows))
	}
	expected := []string{"CIT401", "Advanced Web Development", "3", "Dr. Ada Lovelace", "Intro; React", "", "primary"}
	if !reflect.DeepEqual(rows[1], expected) {
		t.Fatalf("expected %v, got %v", expected, rows[1])
	}

	rows, _ = f.GetRows("Timetable")
	if len(rows) != 2 || rows[1][0] != "t1" || rows[1][1] != "Monday" {
		t.Fatalf("unexpected timetable rows %v", rows)
	}

	rows, _ = f.GetRows("Announcements")
	if len(rows) != 3 || rows[0][0] != "ID" || rows[2][2] != "Again" {
		t.Fatalf("unexpected announcement rows %v", rows)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	f, err := Workbook(nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	rows, err := f.GetRows("Timetable")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || len(rows[0]) != 6 {
		t.Fatalf("expected only the header row, got %v", rows)
	}
}

func TestColumnWidthIsClamped(t *testing.T) {
	s := sheet{
		header: []string{"A", "B"},
		rows:   [][]string{{"x", string(make([]byte, 200))}},
	}
	if w := columnWidth(s, 0); w != minColWidth {
		t.Fatalf("expected %v, got %v", float64(minColWidth), w)
	}
	if w := columnWidth(s, 1); w != maxColWidth {
		t.Fatalf("expected %v, got %v", float64(maxColWidth), w)
	}
}

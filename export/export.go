package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jacobmichels/portal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of a saved workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	minColWidth = 12
	maxColWidth = 40
	// rows considered when sizing a column
	widthSampleRows = 50
)

type sheet struct {
	title  string
	header []string
	rows   [][]string
}

// Workbook lays out the course catalog, the timetable and the announcements on one sheet each
func Workbook(courses []portal.Course, timetable []portal.TimetableEntry, announcements []portal.Announcement) (*excelize.File, error) {
	sheets := []sheet{
		coursesSheet(courses),
		timetableSheet(timetable),
		announcementsSheet(announcements),
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			// reuse the sheet every new file starts with
			if err := f.SetSheetName(f.GetSheetName(0), s.title); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.title); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", s.title, err)
		}

		if err := writeSheet(f, s, bold); err != nil {
			return nil, fmt.Errorf("failed to write sheet %s: %w", s.title, err)
		}
	}
	f.SetActiveSheet(0)

	return f, nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	for r, row := range append([][]string{s.header}, s.rows...) {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(s.title, cell, val); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.title, "A1", last, headerStyle); err != nil {
		return err
	}
	if err := f.AutoFilter(s.title, "A1:"+last, nil); err != nil {
		return err
	}

	for c := range s.header {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.title, name, name, columnWidth(s, c)); err != nil {
			return err
		}
	}
	return nil
}

// columnWidth guesses from the header and the first rows, clamped to a readable range
func columnWidth(s sheet, col int) float64 {
	longest := len(s.header[col])
	for r := 0; r < min(widthSampleRows, len(s.rows)); r++ {
		if l := len(s.rows[r][col]); l > longest {
			longest = l
		}
	}
	return max(minColWidth, min(maxColWidth, float64(longest)*0.9))
}

func coursesSheet(courses []portal.Course) sheet {
	s := sheet{
		title:  "Courses",
		header: []string{"Code", "Title", "Credits", "Instructor", "Syllabus", "Prerequisites", "Color"},
	}
	for _, c := range courses {
		s.rows = append(s.rows, []string{
			c.Code,
			c.Title,
			strconv.Itoa(c.Credits),
			c.Instructor,
			strings.Join(c.Syllabus, "; "),
			strings.Join(c.Prerequisites, "; "),
			string(c.Color),
		})
	}
	return s
}

func timetableSheet(timetable []portal.TimetableEntry) sheet {
	s := sheet{
		title:  "Timetable",
		header: []string{"ID", "Day", "Time", "Course Code", "Course Title", "Location"},
	}
	for _, e := range timetable {
		s.rows = append(s.rows, []string{e.ID, string(e.Day), e.Time, e.CourseCode, e.CourseTitle, e.Location})
	}
	return s
}

func announcementsSheet(announcements []portal.Announcement) sheet {
	s := sheet{
		title:  "Announcements",
		header: []string{"ID", "Date", "Title", "Content"},
	}
	for _, a := range announcements {
		s.rows = append(s.rows, []string{a.ID, a.Date, a.Title, a.Content})
	}
	return s
}

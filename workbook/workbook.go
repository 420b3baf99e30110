package workbook

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"progress-server-go/chart"
	"progress-server-go/models"
	"progress-server-go/scorer"
)

const (
	reportsSheet = "Reports"
	errorsSheet  = "Errors"
)

// RecordHeader is the expected first row of an import sheet.
var RecordHeader = []string{
	"Name", "Roll No", "Semester %", "Attendance %", "Homework %", "Study Hours",
	"Week 1", "Week 2", "Week 3", "Week 4", "Week 5",
}

var reportHeader = []string{
	"Name", "Roll No", "Category", "Average Score", "Score Growth", "Improvement Rate",
	"Week 1", "Week 2", "Week 3", "Week 4", "Week 5", "Reasons", "Generated On",
}

// RowError describes a sheet row that was skipped during import.
type RowError struct {
	Row    int    `json:"row"` // 1-based, as shown by spreadsheet apps
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// Entry is a parsed record and the sheet row it came from.
type Entry struct {
	Row    int // 1-based, same numbering as RowError
	Record models.StudentRecord
}

// Fail turns a later failure on e into a RowError for the same row.
func (e Entry) Fail(err error) RowError {
	return RowError{Row: e.Row, Reason: e.Record.RollNo + ": " + err.Error()}
}

// ReadRecords parses student records from the first sheet of an xlsx stream.
// The first row is a header. Rows that cannot be parsed are skipped and
// returned as RowErrors; blank rows are ignored.
func ReadRecords(r io.Reader) ([]Entry, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheet, err)
	}

	var (
		entries []Entry
		skipped []RowError
	)
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			skipped = append(skipped, RowError{Row: i + 1, Reason: err.Error()})
			continue
		}
		entries = append(entries, Entry{Row: i + 1, Record: rec})
	}
	return entries, skipped, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseRow(row []string) (models.StudentRecord, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	num := func(i int) (float64, error) {
		v, err := strconv.ParseFloat(cell(i), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", RecordHeader[i], cell(i))
		}
		return v, nil
	}

	rec := models.StudentRecord{Name: cell(0), RollNo: cell(1)}
	if rec.Name == "" || rec.RollNo == "" {
		return rec, errors.New("missing name or roll number")
	}

	var err error
	indicators := []*float64{&rec.SemesterPct, &rec.AttendancePct, &rec.HomeworkPct, &rec.StudyHours}
	for i, dst := range indicators {
		if *dst, err = num(2 + i); err != nil {
			return rec, err
		}
	}
	for w := 0; w < models.WeekCount; w++ {
		v, err := num(6 + w)
		if err != nil {
			return rec, err
		}
		if v != math.Trunc(v) {
			return rec, fmt.Errorf("%s: %v is not a whole number", RecordHeader[6+w], v)
		}
		rec.WeeklyScores[w] = int(v)
	}
	return rec, rec.CheckRanges()
}

// WriteTemplate writes an empty import workbook containing only the header.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow("Sheet1", "A1", &RecordHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return f.Write(w)
}

// WriteReports writes one row per report to a "Reports" sheet, filling the
// category cell with the category color. Skipped rows go to an "Errors" sheet.
func WriteReports(w io.Writer, reports []*models.Report, skipped []RowError) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := f.SetSheetRow(reportsSheet, "A1", &reportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	styles := map[string]int{}
	for i, r := range reports {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			r.Name, r.RollNo, r.Category, round2(r.AverageScore), r.ScoreGrowth, round2(r.ImprovementRate),
		}
		for _, s := range r.Scores {
			values = append(values, s)
		}
		values = append(values, strings.Join(r.Reasons, "; "), r.GeneratedAt.Format(scorer.TimestampLayout))
		if err := f.SetSheetRow(reportsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.RollNo, err)
		}

		if r.Color == "" {
			continue
		}
		style, ok := styles[r.Color]
		if !ok {
			var err error
			if style, err = f.NewStyle(fillStyle(r.Color)); err != nil {
				return fmt.Errorf("failed to create style for %s: %w", r.Color, err)
			}
			styles[r.Color] = style
		}
		catCell, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellStyle(reportsSheet, catCell, catCell, style); err != nil {
			return fmt.Errorf("failed to style %s: %w", catCell, err)
		}
	}

	if len(skipped) > 0 {
		if _, err := f.NewSheet(errorsSheet); err != nil {
			return fmt.Errorf("failed to add errors sheet: %w", err)
		}
		header := []interface{}{"Row", "Reason"}
		if err := f.SetSheetRow(errorsSheet, "A1", &header); err != nil {
			return err
		}
		for i, e := range skipped {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			values := []interface{}{e.Row, e.Reason}
			if err := f.SetSheetRow(errorsSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write row error: %w", err)
			}
		}
	}

	return f.Write(w)
}

func fillStyle(hex string) *excelize.Style {
	s := &excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex}},
	}
	if chart.IsDark(hex) {
		s.Font = &excelize.Font{Color: "#FFFFFF"}
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

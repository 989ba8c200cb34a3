package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/xuri/excelize/v2"
)

const (
	attendanceSheet = "Attendance"
	summarySheet    = "Summary"
	summaryTitle    = "FCTC Exam Report Summary"

	maxColumnWidth = 50
	// minWorkbookSize rejects truncated files; a valid xlsx is several KB.
	minWorkbookSize = 1000
)

// Writer produces xlsx reports. It is stateless and safe for concurrent use.
type Writer struct{}

// NewWriter returns a report writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteMaster writes the master workbook with an Attendance sheet and a
// Summary sheet.
func (w *Writer) WriteMaster(path string, rows []core.MasterRow, summary core.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", attendanceSheet); err != nil {
		return err
	}
	if err := writeAttendance(f, attendanceSheet, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, summarySheet, summary); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	return save(f, path)
}

// WriteSection writes the workbook of one section.
func (w *Writer) WriteSection(path string, p core.SectionPartition) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := core.SectionSheetName(p.Section)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := writeAttendance(f, sheet, p.Rows); err != nil {
		return err
	}
	return save(f, path)
}

func writeAttendance(f *excelize.File, sheet string, rows []core.MasterRow) error {
	table := make([][]any, 0, len(rows)+1)
	header := make([]any, len(core.MasterColumns))
	for i, c := range core.MasterColumns {
		header[i] = c
	}
	table = append(table, header)

	for _, r := range rows {
		var score any
		if r.Score.Valid {
			score = r.Score.Value
		}
		table = append(table, []any{
			rollNoValue(r.RollNo),
			r.Identifier,
			r.Name,
			r.Section,
			string(r.Attendance),
			score,
		})
	}

	if err := writeTable(f, sheet, 1, table); err != nil {
		return err
	}
	if err := boldRow(f, sheet, 1, len(header), 0); err != nil {
		return err
	}
	return autoWidth(f, sheet, table)
}

func writeSummary(f *excelize.File, sheet string, s core.Summary) error {
	table := [][]any{
		{"Metric", "Value"},
		{"Total Students", s.Total},
		{"Present Count", s.Present},
		{"Absent Count", s.Absent},
		{"Attendance %", s.AttendanceLabel()},
		{"Duplicate Attempts", s.DuplicateAttempts},
	}
	if err := writeTable(f, sheet, 2, table); err != nil {
		return err
	}
	if err := autoWidth(f, sheet, append([][]any{{summaryTitle}}, table...)); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", summaryTitle); err != nil {
		return err
	}
	if err := boldRow(f, sheet, 1, 1, 14); err != nil {
		return err
	}
	return boldRow(f, sheet, 2, 2, 0)
}

func writeTable(f *excelize.File, sheet string, startRow int, table [][]any) error {
	for i, values := range table {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return err
		}
		row := values
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", startRow+i, err)
		}
	}
	return nil
}

// boldRow bolds the first cols cells of row. A size of zero keeps the
// default font size.
func boldRow(f *excelize.File, sheet string, row, cols int, size float64) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: size}})
	if err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

// autoWidth sizes each column to its longest value plus padding, capped at
// maxColumnWidth.
func autoWidth(f *excelize.File, sheet string, table [][]any) error {
	widths := map[int]int{}
	for _, row := range table {
		for j, v := range row {
			if n := utf8.RuneCountInString(displayString(v)); n > widths[j] {
				widths[j] = n
			}
		}
	}
	for j, n := range widths {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		width := min(n+2, maxColumnWidth)
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return err
		}
	}
	return nil
}

func displayString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// rollNoValue writes integral roll numbers as numbers so spreadsheets sort
// them numerically.
func rollNoValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func save(f *excelize.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", filepath.Base(path), err)
	}
	if info.Size() < minWorkbookSize {
		_ = os.Remove(path)
		return fmt.Errorf("verify %s: file is only %d bytes", filepath.Base(path), info.Size())
	}
	return nil
}

package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKind identifies how a spreadsheet cell was stored.
type CellKind int

const (
	CellBlank CellKind = iota
	CellText
	CellNumber
)

// Cell is a single scalar value read from a spreadsheet.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell returns a text cell. Empty strings are kept as text; use BlankCell
// for missing values.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// BlankCell returns a missing value.
func BlankCell() Cell {
	return Cell{}
}

// CellOf converts a Go value into a Cell. Strings become text, integer and
// float types become numbers, nil becomes blank. Anything else is formatted
// with %v and stored as text.
func CellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return BlankCell()
	case Cell:
		return x
	case string:
		return TextCell(x)
	case int:
		return NumberCell(float64(x))
	case int32:
		return NumberCell(float64(x))
	case int64:
		return NumberCell(float64(x))
	case float32:
		return NumberCell(float64(x))
	case float64:
		return NumberCell(x)
	default:
		return TextCell(fmt.Sprintf("%v", x))
	}
}

// IsBlank reports whether the cell holds no value at all.
func (c Cell) IsBlank() bool {
	return c.Kind == CellBlank
}

// String stringifies the cell the way the spreadsheet reader presents it:
// blanks are empty, numbers use the shortest decimal form without exponent.
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		if math.IsNaN(c.Number) {
			return "nan"
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// RawTable is a headed view over the raw rows of one worksheet.
//
// Headers and Rows are positional: Rows[i][j] belongs to Headers[j]. Headers
// may repeat. The full un-headed grid is retained so header detection can
// re-head the table from a later row.
type RawTable struct {
	Headers []string
	Rows    [][]Cell

	grid      [][]Cell
	headerRow int
}

// PlaceholderPrefix is used for header cells that are blank.
const PlaceholderPrefix = "Unnamed: "

// NewRawTable heads grid at its first row.
func NewRawTable(grid [][]Cell) RawTable {
	return HeadedAt(grid, 0)
}

// HeadedAt builds a RawTable using grid[row] as the header row. Rows above
// the header are discarded, fully blank data rows are skipped, and blank
// header cells get a positional placeholder name.
func HeadedAt(grid [][]Cell, row int) RawTable {
	t := RawTable{grid: grid, headerRow: row}
	if row < 0 || row >= len(grid) {
		return t
	}

	width := 0
	for _, r := range grid[row:] {
		if len(r) > width {
			width = len(r)
		}
	}

	t.Headers = make([]string, width)
	for i := 0; i < width; i++ {
		h := ""
		if i < len(grid[row]) {
			h = strings.TrimSpace(grid[row][i].String())
		}
		if h == "" {
			h = PlaceholderPrefix + strconv.Itoa(i)
		}
		t.Headers[i] = h
	}

	for _, r := range grid[row+1:] {
		if isBlankRow(r) {
			continue
		}
		cells := make([]Cell, width)
		copy(cells, r)
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// TableFromRecords builds a table from string records, the first record
// being the header row. Whitespace-only values become blank cells.
func TableFromRecords(records [][]string) RawTable {
	grid := make([][]Cell, len(records))
	for i, rec := range records {
		row := make([]Cell, len(rec))
		for j, v := range rec {
			if strings.TrimSpace(v) == "" {
				row[j] = BlankCell()
			} else {
				row[j] = TextCell(v)
			}
		}
		grid[i] = row
	}
	return NewRawTable(grid)
}

// Grid returns the un-headed rows the table was built from.
func (t RawTable) Grid() [][]Cell {
	return t.grid
}

// HeaderRow returns the grid index of the header row.
func (t RawTable) HeaderRow() int {
	return t.headerRow
}

// Cell returns the value at row, col or a blank cell when out of range.
func (t RawTable) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return BlankCell()
	}
	return t.Rows[row][col]
}

func isBlankRow(r []Cell) bool {
	for _, c := range r {
		if c.Kind == CellNumber {
			return false
		}
		if c.Kind == CellText && strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}

// Score is a parsed exam score. Invalid scores carry no value and are
// skipped by every aggregation.
type Score struct {
	Value float64
	Valid bool
}

// ValidScore wraps a numeric score.
func ValidScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// InvalidScore is the "no score" value.
var InvalidScore = Score{}

// String returns the score without trailing zeros, or "" when invalid.
func (s Score) String() string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// Attendance is the derived presence status of a roster student.
type Attendance string

const (
	Present Attendance = "Present"
	Absent  Attendance = "Absent"
)

// ExamRecord is one exam-source row that survived identifier validation.
// After attempt reduction it represents the best attempt of one student.
type ExamRecord struct {
	IdentifierRaw string
	IdentifierKey string
	ScoreRaw      Cell
	Score         Score
	Optional      map[FieldName]string
	AttemptCount  int
}

// RosterRecord is one roster row that survived identifier validation.
type RosterRecord struct {
	IdentifierRaw string
	IdentifierKey string
	RollNo        string
	Name          string
	Section       string
}

// MasterRow is one student line of the master attendance report.
type MasterRow struct {
	RollNo       string
	Identifier   string
	Name         string
	Section      string
	Attendance   Attendance
	Score        Score
	AttemptCount int
}

// SectionPartition holds the rows of one section, renumbered from 1.
type SectionPartition struct {
	Section string
	Rows    []MasterRow
}

// Summary holds the fixed metrics reported alongside the master table.
type Summary struct {
	Total             int     `json:"total_students"`
	Present           int     `json:"present_count"`
	Absent            int     `json:"absent_count"`
	AttendancePercent float64 `json:"attendance_percentage"`
	DuplicateAttempts int     `json:"duplicate_attempts"`
}

// AttendanceLabel formats the attendance percentage with one decimal.
func (s Summary) AttendanceLabel() string {
	return fmt.Sprintf("%.1f%%", s.AttendancePercent)
}

// MasterColumns is the fixed column order of every attendance sheet.
var MasterColumns = []string{"Roll No", "PRN", "Name", "Division", "Attendance", "Score"}

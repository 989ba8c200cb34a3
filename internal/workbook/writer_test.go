package workbook

import (
	"path/filepath"
	"testing"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func masterFixture() ([]core.MasterRow, core.Summary) {
	rows := []core.MasterRow{
		{RollNo: "1", Identifier: "12210001", Name: "Asha", Section: "A", Attendance: core.Present, Score: core.ValidScore(88.5)},
		{RollNo: "2", Identifier: "12210002", Name: "Ravi", Section: "B", Attendance: core.Absent, Score: core.InvalidScore},
		{RollNo: "R-3", Identifier: "12210003", Name: "Meera", Section: "A", Attendance: core.Present, Score: core.ValidScore(70)},
	}
	summary := core.Summary{Total: 3, Present: 2, Absent: 1, AttendancePercent: 66.66666, DuplicateAttempts: 1}
	return rows, summary
}

func TestWriteMaster(t *testing.T) {
	rows, summary := masterFixture()
	path := filepath.Join(t.TempDir(), "master", "Final_Master_Report.xlsx")

	require.NoError(t, NewWriter().WriteMaster(path, rows, summary))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Attendance", "Summary"}, f.GetSheetList())

	got, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, core.MasterColumns, got[0])
	assert.Equal(t, []string{"1", "12210001", "Asha", "A", "Present", "88.5"}, got[1])
	// Invalid scores leave the cell empty, which GetRows trims.
	assert.Equal(t, []string{"2", "12210002", "Ravi", "B", "Absent"}, got[2])
	assert.Equal(t, "R-3", got[3][0])

	typ, err := f.GetCellType("Attendance", "A2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "integral roll numbers are stored as numbers")

	summaryRows, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summaryRows, 7)
	assert.Equal(t, []string{"FCTC Exam Report Summary"}, summaryRows[0])
	assert.Equal(t, []string{"Metric", "Value"}, summaryRows[1])
	assert.Equal(t, []string{"Total Students", "3"}, summaryRows[2])
	assert.Equal(t, []string{"Present Count", "2"}, summaryRows[3])
	assert.Equal(t, []string{"Absent Count", "1"}, summaryRows[4])
	assert.Equal(t, []string{"Attendance %", "66.7%"}, summaryRows[5])
	assert.Equal(t, []string{"Duplicate Attempts", "1"}, summaryRows[6])

	width, err := f.GetColWidth("Attendance", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("12210001")+2), width)
}

func TestWriteMaster_EmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.xlsx")
	require.NoError(t, NewWriter().WriteMaster(path, nil, core.Summary{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("Attendance")
	require.NoError(t, err)
	assert.Equal(t, [][]string{core.MasterColumns}, got)
}

func TestWriteSection(t *testing.T) {
	rows, _ := masterFixture()
	parts := core.Partition(rows)
	require.Len(t, parts, 2)

	dir := t.TempDir()
	for _, p := range parts {
		path := filepath.Join(dir, core.SectionFileName(p.Section))
		require.NoError(t, NewWriter().WriteSection(path, p))
	}

	f, err := excelize.OpenFile(filepath.Join(dir, core.SectionFileName("A")))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Division A"}, f.GetSheetList())
	got, err := f.GetRows("Division A")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "12210001", "Asha", "A", "Present", "88.5"}, got[1])
	assert.Equal(t, []string{"2", "12210003", "Meera", "A", "Present", "70"}, got[2])
}

func TestWriteThenRead(t *testing.T) {
	rows, summary := masterFixture()
	path := filepath.Join(t.TempDir(), "m.xlsx")
	require.NoError(t, NewWriter().WriteMaster(path, rows, summary))

	table, err := NewReader(0).ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, core.MasterColumns, table.Headers)
	assert.Len(t, table.Rows, 3)
	assert.Equal(t, core.TextCell("12210001"), table.Cell(0, 1))
	assert.Equal(t, core.NumberCell(1), table.Cell(0, 0))
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func masterRow(roll, id, section string) MasterRow {
	return MasterRow{RollNo: roll, Identifier: id, Section: section, Attendance: Absent}
}

func TestPartition(t *testing.T) {
	master := []MasterRow{
		masterRow("10", "P10", "B"),
		masterRow("2", "P2", "A"),
		masterRow("9", "P9", "B"),
		masterRow("1", "P1", "A"),
		masterRow("5", "P5", ""),
	}

	parts := Partition(master)
	require.Len(t, parts, 2)

	assert.Equal(t, "B", parts[0].Section)
	assert.Equal(t, []string{"P10", "P9"}, identifiers(parts[0].Rows))
	assert.Equal(t, []string{"1", "2"}, rollNumbers(parts[0].Rows))

	assert.Equal(t, "A", parts[1].Section)
	assert.Equal(t, []string{"P1", "P2"}, identifiers(parts[1].Rows))

	assert.Equal(t, "10", master[0].RollNo, "input rows must not be renumbered")
}

func TestPartition_CoversAllSectionedRows(t *testing.T) {
	master := []MasterRow{
		masterRow("1", "a", "A"), masterRow("2", "b", "B"), masterRow("3", "c", ""),
		masterRow("4", "d", "A"), masterRow("5", "e", "C"), masterRow("6", "f", "B"),
	}

	parts := Partition(master)

	total := 0
	for _, p := range parts {
		assert.NotEmpty(t, p.Rows, "section %s", p.Section)
		total += len(p.Rows)
	}
	assert.Equal(t, 5, total)
}

func TestPartition_StableForEqualRollNumbers(t *testing.T) {
	parts := Partition([]MasterRow{
		masterRow("1", "first", "A"),
		masterRow("1", "second", "A"),
	})
	require.Len(t, parts, 1)
	assert.Equal(t, []string{"first", "second"}, identifiers(parts[0].Rows))
}

func TestPartition_RollNumbersSortAsText(t *testing.T) {
	tests := []struct {
		name  string
		rolls []string
		want  []string
	}{
		{"multi digit before single digit", []string{"2", "10"}, []string{"10", "2"}},
		{"equal width is numeric order", []string{"03", "01", "02"}, []string{"01", "02", "03"}},
		{"mixed values", []string{"B-2", "3", "", "B-1"}, []string{"", "3", "B-1", "B-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			master := make([]MasterRow, len(tt.rolls))
			for i, r := range tt.rolls {
				master[i] = masterRow(r, "P"+r, "A")
			}

			parts := Partition(master)
			require.Len(t, parts, 1)

			var got []string
			for _, id := range identifiers(parts[0].Rows) {
				got = append(got, id[1:])
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartition_NoSections(t *testing.T) {
	assert.Empty(t, Partition([]MasterRow{masterRow("1", "a", "")}))
	assert.Empty(t, Partition(nil))
}

func TestSectionFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "Division_A.xlsx"},
		{"CS/A", "Division_CS_A.xlsx"},
		{`X\Y:Z`, "Division_X_Y_Z.xlsx"},
	}
	for _, tt := range tests {
		if got := SectionFileName(tt.in); got != tt.want {
			t.Errorf("SectionFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSectionSheetName(t *testing.T) {
	assert.Equal(t, "Division A", SectionSheetName("A"))
	assert.Equal(t, "Division CS_A_", SectionSheetName("CS/A?"))
	long := SectionSheetName("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	assert.Len(t, []rune(long), 31)
}

func identifiers(rows []MasterRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Identifier
	}
	return out
}

func rollNumbers(rows []MasterRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.RollNo
	}
	return out
}

package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioRoster() RawTable {
	return sheet(
		row("PRN", "Roll No", "Name", "Div"),
		row("A1", 1, "X", "A"),
		row("A2", 2, "Y", "B"),
	)
}

func scenarioExam() RawTable {
	return sheet(
		row("PRN", "Score"),
		row("A1", "7/10"),
		row("A1", "9/10"),
	)
}

func TestEngineRun_TwoAttemptsTwoSections(t *testing.T) {
	engine := NewEngine(DefaultSchemas(), discardLogger())

	report, err := engine.Run(scenarioExam(), scenarioRoster())
	require.NoError(t, err)

	require.Len(t, report.Master, 2)
	a1, a2 := report.Master[0], report.Master[1]

	assert.Equal(t, "A1", a1.Identifier)
	assert.Equal(t, Present, a1.Attendance)
	assert.Equal(t, ValidScore(9), a1.Score)
	assert.Equal(t, 2, a1.AttemptCount)

	assert.Equal(t, "A2", a2.Identifier)
	assert.Equal(t, Absent, a2.Attendance)
	assert.False(t, a2.Score.Valid)
	assert.Equal(t, 0, a2.AttemptCount)

	require.Len(t, report.Partitions, 2)
	for i, want := range []string{"A", "B"} {
		p := report.Partitions[i]
		assert.Equal(t, want, p.Section)
		require.Len(t, p.Rows, 1)
		assert.Equal(t, "1", p.Rows[0].RollNo)
	}

	assert.Equal(t, 1, report.Summary.Present)
	assert.Equal(t, 1, report.Summary.DuplicateAttempts)
	assert.Equal(t, 2, report.ExamRecords)
	assert.Equal(t, 2, report.RosterRecords)
}

func TestEngineRun_MissingExamIdentifier(t *testing.T) {
	exam := sheet(
		row("Student", "Score"),
		row("A1", 5),
	)

	report, err := NewEngine(DefaultSchemas(), nil).Run(exam, scenarioRoster())

	assert.Nil(t, report)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "want *SchemaError, got %v", err)
	assert.Contains(t, schemaErr.Labels, "PRN")
}

func TestEngineRun_HeaderOnlyRoster(t *testing.T) {
	roster := sheet(row("PRN", "Roll No", "Name", "Division"))

	report, err := NewEngine(DefaultSchemas(), nil).Run(scenarioExam(), roster)

	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrEmptyRoster), "want ErrEmptyRoster, got %v", err)
}

func TestEngineRun_Idempotent(t *testing.T) {
	engine := NewEngine(DefaultSchemas(), nil)

	first, err := engine.Run(scenarioExam(), scenarioRoster())
	require.NoError(t, err)
	second, err := engine.Run(scenarioExam(), scenarioRoster())
	require.NoError(t, err)

	assert.Equal(t, first.Master, second.Master)
	assert.Equal(t, first.Partitions, second.Partitions)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestEngineRun_TitleRowsAndNumericPRNs(t *testing.T) {
	roster := sheet(
		row("Division wise roll call", nil, nil, nil),
		row("Sr No", "PRN", "Student Name", "Division"),
		row(1, 12210001.0, "P", "a"),
		row(2, 12210002.0, "Q", "a"),
	)
	exam := sheet(
		row("Timestamp", "PRN", "Total score"),
		row("t1", "12210002.0", "18 / 20"),
		row("t2", " 12210001 ", "not graded"),
	)

	report, err := NewEngine(DefaultSchemas(), nil).Run(exam, roster)
	require.NoError(t, err)

	assert.Equal(t, Present, report.Master[0].Attendance)
	assert.False(t, report.Master[0].Score.Valid)
	assert.Equal(t, ValidScore(18), report.Master[1].Score)
	require.Len(t, report.Partitions, 1)
	assert.Equal(t, "A", report.Partitions[0].Section)
}

func TestEngineDiagnose(t *testing.T) {
	d := NewEngine(DefaultSchemas(), nil).Diagnose(scenarioExam(), scenarioRoster())

	assert.Empty(t, d.ExamError)
	assert.Empty(t, d.RosterError)
	assert.Equal(t, 2, d.ExamRowCount)
	assert.Equal(t, 2, d.ExamExtracted)
	assert.Equal(t, 1, d.ExamUnique)
	assert.Equal(t, 2, d.RosterUnique)
	assert.Equal(t, 1, d.Matching)
	assert.Equal(t, []string{"A1"}, d.SampleMatches)
	require.NotNil(t, d.CharacterAnalysis)
	assert.Equal(t, []rune{'A', '1'}, d.CharacterAnalysis.ExamChars)

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"matching_prns":1`)
	assert.Contains(t, string(data), `"fctc_chars":[65,49]`)
}

func TestEngineDiagnose_ReportsExtractionErrors(t *testing.T) {
	exam := sheet(row("Student", "Score"), row("A1", 5))

	d := NewEngine(DefaultSchemas(), nil).Diagnose(exam, scenarioRoster())

	assert.Contains(t, d.ExamError, "PRN")
	assert.Empty(t, d.RosterError)
	assert.Equal(t, 0, d.Matching)
	assert.Nil(t, d.CharacterAnalysis)
	assert.Equal(t, []string{"A1", "A2"}, d.RosterSample)
}

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rosterRec(id, roll, name, section string) RosterRecord {
	return RosterRecord{
		IdentifierRaw: id,
		IdentifierKey: NormalizeIdentifierString(id),
		RollNo:        roll,
		Name:          name,
		Section:       section,
	}
}

func TestReconcile(t *testing.T) {
	roster := []RosterRecord{
		rosterRec("A1", "1", "X", "A"),
		rosterRec("A2", "2", "Y", "B"),
		rosterRec("A3", "3", "Z", "A"),
	}
	exam := []ExamRecord{
		{IdentifierKey: "A1", Score: ValidScore(9.456), AttemptCount: 2},
		{IdentifierKey: "A3", Score: InvalidScore, AttemptCount: 1},
		{IdentifierKey: "ZZ", Score: ValidScore(4), AttemptCount: 3},
	}

	rows, summary, err := Reconcile(roster, exam, discardLogger())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, MasterRow{RollNo: "1", Identifier: "A1", Name: "X", Section: "A",
		Attendance: Present, Score: ValidScore(9.46), AttemptCount: 2}, rows[0])
	assert.Equal(t, MasterRow{RollNo: "2", Identifier: "A2", Name: "Y", Section: "B",
		Attendance: Absent, Score: InvalidScore, AttemptCount: 0}, rows[1])
	assert.Equal(t, Present, rows[2].Attendance)
	assert.False(t, rows[2].Score.Valid)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Present)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 2, summary.DuplicateAttempts)
	assert.InDelta(t, 66.667, summary.AttendancePercent, 0.001)
	assert.Equal(t, "66.7%", summary.AttendanceLabel())
}

func TestReconcile_EmptyRoster(t *testing.T) {
	_, _, err := Reconcile(nil, []ExamRecord{{IdentifierKey: "A1"}}, discardLogger())

	assert.True(t, errors.Is(err, ErrEmptyRoster))
	var empty *EmptyRosterError
	assert.ErrorAs(t, err, &empty)
}

func TestReconcile_HeaderOnlyExamFailsBeforeReconcile(t *testing.T) {
	report, err := NewEngine(DefaultSchemas(), nil).Run(sheet(row("PRN", "Score")), scenarioRoster())

	assert.Nil(t, report)
	var noValid *NoValidIdentifiersError
	require.ErrorAs(t, err, &noValid)
	assert.Equal(t, SourceExam, noValid.Source)
	assert.Equal(t, "SCH002", MapError(err).Code)
}

func TestReconcile_RepeatedRosterIdentifier(t *testing.T) {
	roster := []RosterRecord{
		rosterRec("A1", "1", "X", "A"),
		rosterRec("A1", "2", "X again", "A"),
	}

	_, _, err := Reconcile(roster, nil, discardLogger())

	var dup *DuplicateIdentifierInvariantError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []string{"A1"}, dup.Identifiers)
}

func TestReconcile_SharedKeyDifferentSpelling(t *testing.T) {
	roster := []RosterRecord{
		rosterRec("a1", "1", "X", "A"),
		rosterRec("A1", "2", "Y", "A"),
	}
	exam := []ExamRecord{{IdentifierKey: "A1", Score: ValidScore(5), AttemptCount: 1}}

	rows, summary, err := Reconcile(roster, exam, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, Present, rows[0].Attendance)
	assert.Equal(t, Present, rows[1].Attendance)
	assert.Equal(t, 2, summary.Present)
}

func TestReconcile_Deterministic(t *testing.T) {
	roster := []RosterRecord{rosterRec("A1", "1", "X", "A"), rosterRec("A2", "2", "Y", "B")}
	exam := []ExamRecord{{IdentifierKey: "A2", Score: ValidScore(3.333), AttemptCount: 1}}

	first, s1, err := Reconcile(roster, exam, discardLogger())
	require.NoError(t, err)
	second, s2, err := Reconcile(roster, exam, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, s1, s2)
}

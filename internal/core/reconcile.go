package core

import (
	"log/slog"
	"math"
	"sort"
)

// Reconcile joins the roster with the deduplicated exam records.
//
// Every roster record yields exactly one MasterRow, in roster order. A
// student is Present iff their identifier key appears in exam. Scores are
// rounded to two decimals and only reported for present students; absent
// students get no score and zero attempts.
func Reconcile(roster []RosterRecord, exam []ExamRecord, logger *slog.Logger) ([]MasterRow, Summary, error) {
	if len(roster) == 0 {
		return nil, Summary{}, &EmptyRosterError{}
	}

	type attempt struct {
		score Score
		count int
	}
	present := make(map[string]attempt, len(exam))
	duplicateAttempts := 0
	for _, rec := range exam {
		present[rec.IdentifierKey] = attempt{score: rec.Score, count: rec.AttemptCount}
		if rec.AttemptCount > 1 {
			duplicateAttempts++
		}
	}

	rows := make([]MasterRow, len(roster))
	summary := Summary{Total: len(roster), DuplicateAttempts: duplicateAttempts}
	for i, r := range roster {
		row := MasterRow{
			RollNo:     r.RollNo,
			Identifier: r.IdentifierRaw,
			Name:       r.Name,
			Section:    r.Section,
			Attendance: Absent,
			Score:      InvalidScore,
		}
		if a, ok := present[r.IdentifierKey]; ok {
			row.Attendance = Present
			row.AttemptCount = a.count
			if a.score.Valid {
				row.Score = ValidScore(roundScore(a.score.Value))
			}
			summary.Present++
		}
		rows[i] = row
	}
	summary.Absent = summary.Total - summary.Present
	summary.AttendancePercent = float64(summary.Present) / float64(summary.Total) * 100

	if err := checkUniqueIdentifiers(rows); err != nil {
		return nil, Summary{}, err
	}
	warnSharedKeys(roster, logger)

	return rows, summary, nil
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func checkUniqueIdentifiers(rows []MasterRow) error {
	seen := make(map[string]int, len(rows))
	for _, r := range rows {
		seen[r.Identifier]++
	}
	var dups []string
	for id, n := range seen {
		if n > 1 {
			dups = append(dups, id)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return &DuplicateIdentifierInvariantError{Identifiers: dups}
	}
	return nil
}

// warnSharedKeys logs roster students whose differently written identifiers
// normalize to the same key. Both rows are kept and match the same attempt.
func warnSharedKeys(roster []RosterRecord, logger *slog.Logger) {
	first := make(map[string]string, len(roster))
	for _, r := range roster {
		prev, ok := first[r.IdentifierKey]
		if !ok {
			first[r.IdentifierKey] = r.IdentifierRaw
			continue
		}
		if prev != r.IdentifierRaw {
			logger.Warn("roster identifiers share a normalized key",
				"key", r.IdentifierKey,
				"first", prev,
				"duplicate", r.IdentifierRaw,
			)
		}
	}
}

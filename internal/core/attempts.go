package core

// ReduceAttempts collapses exam records to one per identifier key.
//
// Within a group the record with the highest valid score is kept, the
// earliest winning ties. A group without any valid score keeps its first
// record. Each survivor carries AttemptCount set to its group size. Groups
// appear in the order their key was first seen.
func ReduceAttempts(records []ExamRecord) ([]ExamRecord, error) {
	type group struct {
		best  int
		count int
	}

	order := make([]string, 0, len(records))
	groups := make(map[string]*group, len(records))

	for i, rec := range records {
		g, ok := groups[rec.IdentifierKey]
		if !ok {
			groups[rec.IdentifierKey] = &group{best: i, count: 1}
			order = append(order, rec.IdentifierKey)
			continue
		}
		g.count++

		cur := records[g.best].Score
		switch {
		case !rec.Score.Valid:
		case !cur.Valid:
			g.best = i
		case rec.Score.Value > cur.Value:
			g.best = i
		}
	}

	out := make([]ExamRecord, 0, len(order))
	for _, key := range order {
		g := groups[key]
		rec := records[g.best]
		rec.AttemptCount = g.count
		out = append(out, rec)
	}

	if err := checkUniqueKeys(out, len(groups)); err != nil {
		return nil, err
	}
	return out, nil
}

func checkUniqueKeys(out []ExamRecord, distinct int) error {
	seen := make(map[string]struct{}, len(out))
	for _, rec := range out {
		seen[rec.IdentifierKey] = struct{}{}
	}
	if len(out) != distinct || len(seen) != distinct {
		return &DeduplicationInvariantError{Distinct: distinct, Got: len(out)}
	}
	return nil
}

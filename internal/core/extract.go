package core

import (
	"errors"
	"log/slog"
	"strings"
)

// ExtractExam turns a raw exam sheet into exam records with parsed scores.
// Rows without a usable identifier are dropped.
func ExtractExam(t RawTable, schema Schema, logger *slog.Logger) ([]ExamRecord, Resolution, error) {
	t, res, err := prepareTable(t, schema, logger)
	if err != nil {
		return nil, res, err
	}

	idCol := res.Columns[FieldIdentifier]
	scoreCol := res.Columns[FieldScore]

	var optional []CanonicalField
	for _, f := range schema.Fields {
		if !f.Critical && res.Has(f.Name) {
			optional = append(optional, f)
		}
	}

	records := make([]ExamRecord, 0, len(t.Rows))
	for i := range t.Rows {
		raw := t.Cell(i, idCol)
		key := NormalizeIdentifier(raw)
		if key == "" {
			continue
		}

		scoreRaw := t.Cell(i, scoreCol)
		rec := ExamRecord{
			IdentifierRaw: raw.String(),
			IdentifierKey: key,
			ScoreRaw:      scoreRaw,
			Score:         ParseScore(scoreRaw),
		}
		for _, f := range optional {
			v := strings.TrimSpace(t.Cell(i, res.Columns[f.Name]).String())
			if v == "" {
				continue
			}
			if rec.Optional == nil {
				rec.Optional = make(map[FieldName]string, len(optional))
			}
			rec.Optional[f.Name] = v
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, res, &NoValidIdentifiersError{Source: schema.Source, Rows: len(t.Rows)}
	}

	logger.Debug("exam rows extracted",
		"rows", len(t.Rows),
		"kept", len(records),
		"dropped", len(t.Rows)-len(records),
	)
	return records, res, nil
}

// ExtractRoster turns a raw roster sheet into roster records. Sections are
// uppercased so partitioning can use exact matching.
func ExtractRoster(t RawTable, schema Schema, logger *slog.Logger) ([]RosterRecord, Resolution, error) {
	t, res, err := prepareTable(t, schema, logger)
	if err != nil {
		return nil, res, err
	}

	idCol := res.Columns[FieldIdentifier]
	rollCol := res.Columns[FieldRollNo]
	nameCol := res.Columns[FieldStudentName]
	sectionCol := res.Columns[FieldSection]

	records := make([]RosterRecord, 0, len(t.Rows))
	for i := range t.Rows {
		raw := t.Cell(i, idCol)
		key := NormalizeIdentifier(raw)
		if key == "" {
			continue
		}
		records = append(records, RosterRecord{
			IdentifierRaw: raw.String(),
			IdentifierKey: key,
			RollNo:        strings.TrimSpace(t.Cell(i, rollCol).String()),
			Name:          strings.TrimSpace(t.Cell(i, nameCol).String()),
			Section:       strings.ToUpper(strings.TrimSpace(t.Cell(i, sectionCol).String())),
		})
	}

	// A header-only roster yields no records and fails later as an empty roster.
	if len(t.Rows) > 0 && len(records) == 0 {
		return nil, res, &NoValidIdentifiersError{Source: schema.Source, Rows: len(t.Rows)}
	}

	logger.Debug("roster rows extracted",
		"rows", len(t.Rows),
		"kept", len(records),
		"dropped", len(t.Rows)-len(records),
	)
	return records, res, nil
}

// prepareTable runs header detection and column resolution, failing when a
// critical field is unresolved.
func prepareTable(t RawTable, schema Schema, logger *slog.Logger) (RawTable, Resolution, error) {
	t, err := DetectHeader(t)
	if err != nil {
		var hnf *HeaderNotFoundError
		if errors.As(err, &hnf) {
			hnf.Source = schema.Source
		}
		return t, Resolution{}, err
	}
	if t.HeaderRow() > 0 {
		logger.Info("header row detected below first row",
			"source", string(schema.Source),
			"row", t.HeaderRow()+1,
		)
	}

	res := ResolveColumns(t.Headers, schema)

	var missing []FieldName
	var labels []string
	for _, name := range res.Unmatched {
		f, _ := schema.Field(name)
		if f.Critical {
			missing = append(missing, name)
			labels = append(labels, f.DisplayName())
			continue
		}
		logger.Info("optional column not found",
			"source", string(schema.Source),
			"field", string(name),
		)
	}
	if len(missing) > 0 {
		headers := make([]string, len(t.Headers))
		copy(headers, t.Headers)
		return t, res, &SchemaError{
			Source:  schema.Source,
			Missing: missing,
			Labels:  labels,
			Headers: headers,
		}
	}

	return t, res, nil
}

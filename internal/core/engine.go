package core

import (
	"fmt"
	"log/slog"
)

// sampleSize bounds the identifier samples in a Diagnosis.
const sampleSize = 5

// Engine runs the reconciliation pipeline. It holds no per-run state and
// may be shared between goroutines.
type Engine struct {
	schemas Schemas
	logger  *slog.Logger
}

// NewEngine creates an engine using the given schemas. A nil logger
// discards log output.
func NewEngine(schemas Schemas, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{schemas: schemas, logger: logger}
}

// WithLogger returns a copy of the engine that logs to logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	if logger == nil {
		return e
	}
	return &Engine{schemas: e.schemas, logger: logger}
}

// Schemas returns the schemas the engine resolves columns against.
func (e *Engine) Schemas() Schemas {
	return e.schemas
}

// Report is the outcome of one reconciliation run.
type Report struct {
	Master     []MasterRow
	Summary    Summary
	Partitions []SectionPartition

	// ExamRecords counts exam rows kept before attempt reduction.
	ExamRecords int
	// RosterRecords counts roster rows kept after identifier validation.
	RosterRecords int
	// ExamColumns and RosterColumns record how fields were resolved.
	ExamColumns   Resolution
	RosterColumns Resolution
}

// Run reconciles an exam sheet against a roster sheet.
func (e *Engine) Run(exam, roster RawTable) (*Report, error) {
	examRecords, examRes, err := ExtractExam(exam, e.schemas.Exam, e.logger)
	if err != nil {
		return nil, fmt.Errorf("extract exam: %w", err)
	}
	rosterRecords, rosterRes, err := ExtractRoster(roster, e.schemas.Roster, e.logger)
	if err != nil {
		return nil, fmt.Errorf("extract roster: %w", err)
	}

	best, err := ReduceAttempts(examRecords)
	if err != nil {
		return nil, fmt.Errorf("reduce attempts: %w", err)
	}
	e.logger.Info("exam attempts reduced",
		"attempts", len(examRecords),
		"students", len(best),
	)

	master, summary, err := Reconcile(rosterRecords, best, e.logger)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	partitions := Partition(master)
	e.logger.Info("reconciliation complete",
		"total", summary.Total,
		"present", summary.Present,
		"absent", summary.Absent,
		"duplicate_attempts", summary.DuplicateAttempts,
		"sections", len(partitions),
	)

	return &Report{
		Master:        master,
		Summary:       summary,
		Partitions:    partitions,
		ExamRecords:   len(examRecords),
		RosterRecords: len(rosterRecords),
		ExamColumns:   examRes,
		RosterColumns: rosterRes,
	}, nil
}

// Diagnosis explains how identifiers in two sheets line up. Extraction
// failures are reported per side instead of aborting.
type Diagnosis struct {
	ExamColumns         []string             `json:"fctc_columns"`
	ExamRowCount        int                  `json:"fctc_row_count"`
	ExamExtracted       int                  `json:"fctc_extracted_count,omitempty"`
	ExamSample          []string             `json:"fctc_sample_prns,omitempty"`
	ExamError           string               `json:"fctc_error,omitempty"`
	RosterColumns       []string             `json:"roll_call_columns"`
	RosterRowCount      int                  `json:"roll_call_row_count"`
	RosterExtracted     int                  `json:"roll_call_extracted_count,omitempty"`
	RosterSample        []string             `json:"roll_call_sample_prns,omitempty"`
	RosterError         string               `json:"roll_call_error,omitempty"`
	ExamUnique          int                  `json:"fctc_unique_prns,omitempty"`
	RosterUnique        int                  `json:"roll_call_unique_prns,omitempty"`
	Matching            int                  `json:"matching_prns"`
	SampleMatches       []string             `json:"sample_matches"`
	CharacterAnalysis   *CharacterAnalysis   `json:"character_analysis,omitempty"`
	ExamColumnMapping   map[FieldName]string `json:"fctc_column_mapping,omitempty"`
	RosterColumnMapping map[FieldName]string `json:"roll_call_column_mapping,omitempty"`
}

// CharacterAnalysis compares the code points of the first identifier of
// each side, which exposes invisible characters.
type CharacterAnalysis struct {
	ExamFirst    string `json:"fctc_first_prn"`
	RosterFirst  string `json:"roll_call_first_prn"`
	ExamLength   int    `json:"fctc_length"`
	RosterLength int    `json:"roll_call_length"`
	ExamChars    []rune `json:"fctc_chars"`
	RosterChars  []rune `json:"roll_call_chars"`
}

// Diagnose extracts both sheets and reports how their identifiers match.
func (e *Engine) Diagnose(exam, roster RawTable) Diagnosis {
	d := Diagnosis{
		ExamColumns:    exam.Headers,
		ExamRowCount:   len(exam.Rows),
		RosterColumns:  roster.Headers,
		RosterRowCount: len(roster.Rows),
		SampleMatches:  []string{},
	}

	var examKeys, rosterKeys []string
	examOK, rosterOK := false, false

	examRecords, examRes, err := ExtractExam(exam, e.schemas.Exam, e.logger)
	if err != nil {
		d.ExamError = err.Error()
	} else {
		examOK = true
		d.ExamExtracted = len(examRecords)
		d.ExamColumnMapping = examRes.Mapping
		for _, r := range examRecords {
			examKeys = append(examKeys, r.IdentifierKey)
		}
		d.ExamSample = head(examKeys, sampleSize)
	}

	rosterRecords, rosterRes, err := ExtractRoster(roster, e.schemas.Roster, e.logger)
	if err != nil {
		d.RosterError = err.Error()
	} else {
		rosterOK = true
		d.RosterExtracted = len(rosterRecords)
		d.RosterColumnMapping = rosterRes.Mapping
		for _, r := range rosterRecords {
			rosterKeys = append(rosterKeys, r.IdentifierKey)
		}
		d.RosterSample = head(rosterKeys, sampleSize)
	}

	if !examOK || !rosterOK {
		return d
	}

	examUnique := distinct(examKeys)
	rosterUnique := distinct(rosterKeys)
	d.ExamUnique = len(examUnique)
	d.RosterUnique = len(rosterUnique)

	inExam := make(map[string]bool, len(examUnique))
	for _, k := range examUnique {
		inExam[k] = true
	}
	for _, k := range rosterUnique {
		if !inExam[k] {
			continue
		}
		d.Matching++
		if len(d.SampleMatches) < sampleSize {
			d.SampleMatches = append(d.SampleMatches, k)
		}
	}

	if len(examUnique) > 0 && len(rosterUnique) > 0 {
		ef, rf := examUnique[0], rosterUnique[0]
		d.CharacterAnalysis = &CharacterAnalysis{
			ExamFirst:    ef,
			RosterFirst:  rf,
			ExamLength:   len([]rune(ef)),
			RosterLength: len([]rune(rf)),
			ExamChars:    []rune(ef),
			RosterChars:  []rune(rf),
		}
	}

	return d
}

func head(s []string, n int) []string {
	if len(s) < n {
		n = len(s)
	}
	out := make([]string, n)
	copy(out, s[:n])
	return out
}

// distinct returns the unique values of s in first-seen order.
func distinct(s []string) []string {
	seen := make(map[string]bool, len(s))
	var out []string
	for _, v := range s {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

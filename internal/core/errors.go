package core

import (
	"errors"
	"fmt"
	"strings"
)

// Input errors raised before the engine runs.
var (
	ErrNoFile              = errors.New("no file provided")
	ErrEmptyFile           = errors.New("empty file")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidYear         = errors.New("invalid year")
	ErrTooManyRuns         = errors.New("too many reconciliations in progress")
	ErrOutputNotFound      = errors.New("output not found")
)

// ErrEmptyRoster is matched by every *EmptyRosterError.
var ErrEmptyRoster = errors.New("roster has no students")

// SchemaError reports critical fields that no header of a source matched.
type SchemaError struct {
	Source  Source
	Missing []FieldName
	Labels  []string
	Headers []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "missing required column in %s file: %s", e.Source.Title(), strings.Join(e.Labels, ", "))
	fmt.Fprintf(&b, "\navailable columns: %s", strings.Join(e.Headers, ", "))
	return b.String()
}

// NoValidIdentifiersError reports a table whose every row lacked a usable
// identifier.
type NoValidIdentifiersError struct {
	Source Source
	Rows   int
}

func (e *NoValidIdentifiersError) Error() string {
	if e.Rows == 0 {
		return fmt.Sprintf("no valid PRN values in %s file: the sheet has no data rows", e.Source.Title())
	}
	return fmt.Sprintf("no valid PRN values in %s file: all %d rows were dropped", e.Source.Title(), e.Rows)
}

// EmptyRosterError reports a roster with no student records.
type EmptyRosterError struct{}

func (e *EmptyRosterError) Error() string {
	return ErrEmptyRoster.Error()
}

func (e *EmptyRosterError) Is(target error) bool {
	return target == ErrEmptyRoster
}

// DeduplicationInvariantError means attempt reduction did not leave exactly
// one record per identifier.
type DeduplicationInvariantError struct {
	Distinct int
	Got      int
}

func (e *DeduplicationInvariantError) Error() string {
	return fmt.Sprintf("deduplication invariant violated: %d distinct PRNs but %d records", e.Distinct, e.Got)
}

// DuplicateIdentifierInvariantError means the master table repeats an
// identifier.
type DuplicateIdentifierInvariantError struct {
	Identifiers []string
}

func (e *DuplicateIdentifierInvariantError) Error() string {
	return fmt.Sprintf("duplicate PRNs in master report: %s", strings.Join(e.Identifiers, ", "))
}

// HeaderNotFoundError reports a sheet where no header row could be located.
type HeaderNotFoundError struct {
	Source  Source
	Preview [][]string
}

func (e *HeaderNotFoundError) Error() string {
	var b strings.Builder
	name := "input"
	if e.Source != "" {
		name = e.Source.Title()
	}
	fmt.Fprintf(&b, "header row not found in %s file within the first %d rows", name, headerScanRows)
	for i, row := range e.Preview {
		fmt.Fprintf(&b, "\n  row %d: %s", i+1, strings.Join(row, " | "))
	}
	return b.String()
}

// IsInvariantViolation reports whether err signals an engine bug rather
// than bad input.
func IsInvariantViolation(err error) bool {
	var dedup *DeduplicationInvariantError
	var dup *DuplicateIdentifierInvariantError
	return errors.As(err, &dedup) || errors.As(err, &dup)
}

// IsInputError reports whether err was caused by the uploaded data.
func IsInputError(err error) bool {
	var schema *SchemaError
	var ids *NoValidIdentifiersError
	var header *HeaderNotFoundError
	switch {
	case errors.As(err, &schema), errors.As(err, &ids), errors.As(err, &header):
		return true
	case errors.Is(err, ErrEmptyRoster):
		return true
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrEmptyFile), errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrInvalidYear):
		return true
	}
	return false
}

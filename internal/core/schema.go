package core

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// FieldName is a canonical logical column of a source file.
type FieldName string

const (
	FieldIdentifier    FieldName = "identifier"
	FieldScore         FieldName = "score"
	FieldStudentName   FieldName = "name"
	FieldRollNo        FieldName = "roll_no"
	FieldSection       FieldName = "section"
	FieldTimestamp     FieldName = "timestamp"
	FieldEmail         FieldName = "email"
	FieldFullName      FieldName = "full_name"
	FieldCollegeName   FieldName = "college_name"
	FieldYear          FieldName = "year"
	FieldRollNumber    FieldName = "roll_number"
	FieldBranch        FieldName = "branch"
	FieldBranchSection FieldName = "branch_section"
)

// Source names a schema in diagnostics.
type Source string

const (
	SourceExam   Source = "exam"
	SourceRoster Source = "roster"
)

// Title returns the user-facing name of the source file.
func (s Source) Title() string {
	switch s {
	case SourceExam:
		return "FCTC"
	case SourceRoster:
		return "Roll Call"
	default:
		return string(s)
	}
}

// CanonicalField describes one logical column and the header spellings
// accepted for it, in priority order.
type CanonicalField struct {
	Name     FieldName `yaml:"name"`
	Label    string    `yaml:"label,omitempty"`
	Critical bool      `yaml:"critical,omitempty"`
	Variants []string  `yaml:"variants"`

	// ContainsFallback, when set, matches the first header containing this
	// substring if no variant matched.
	ContainsFallback string `yaml:"contains_fallback,omitempty"`
}

// DisplayName returns the label used in error messages.
func (f CanonicalField) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return string(f.Name)
}

// Schema is the ordered field list for one source.
type Schema struct {
	Source Source
	Fields []CanonicalField
}

// Field looks up a field by name.
func (s Schema) Field(name FieldName) (CanonicalField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return CanonicalField{}, false
}

// Schemas bundles the exam and roster schemas.
type Schemas struct {
	Exam   Schema
	Roster Schema
}

type schemaFile struct {
	Exam   []CanonicalField `yaml:"exam"`
	Roster []CanonicalField `yaml:"roster"`
}

//go:embed schemas.yaml
var defaultSchemaYAML []byte

// requiredCritical lists the fields the engine reads unconditionally.
var requiredCritical = map[Source][]FieldName{
	SourceExam:   {FieldIdentifier, FieldScore},
	SourceRoster: {FieldIdentifier, FieldRollNo, FieldStudentName, FieldSection},
}

// DefaultSchemaYAML returns the embedded schema definition.
func DefaultSchemaYAML() []byte {
	out := make([]byte, len(defaultSchemaYAML))
	copy(out, defaultSchemaYAML)
	return out
}

// DefaultSchemas parses the embedded schema definition.
func DefaultSchemas() Schemas {
	s, err := ParseSchemas(defaultSchemaYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded schemas.yaml is invalid: %v", err))
	}
	return s
}

// LoadSchemaFile reads a schema definition from disk. An empty path returns
// the embedded defaults.
func LoadSchemaFile(path string) (Schemas, error) {
	if path == "" {
		return DefaultSchemas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schemas{}, fmt.Errorf("read schema file: %w", err)
	}
	s, err := ParseSchemas(data)
	if err != nil {
		return Schemas{}, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// ParseSchemas decodes and validates a YAML schema definition.
func ParseSchemas(data []byte) (Schemas, error) {
	var raw schemaFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Schemas{}, fmt.Errorf("decode schemas: %w", err)
	}

	s := Schemas{
		Exam:   Schema{Source: SourceExam, Fields: raw.Exam},
		Roster: Schema{Source: SourceRoster, Fields: raw.Roster},
	}
	if err := s.Validate(); err != nil {
		return Schemas{}, err
	}
	return s, nil
}

// Validate checks that every field is well formed and that the fields the
// engine depends on are declared critical.
func (s Schemas) Validate() error {
	var errs []string
	for _, schema := range []Schema{s.Exam, s.Roster} {
		if len(schema.Fields) == 0 {
			errs = append(errs, fmt.Sprintf("%s: no fields declared", schema.Source))
			continue
		}
		seen := make(map[FieldName]bool)
		for i, f := range schema.Fields {
			if f.Name == "" {
				errs = append(errs, fmt.Sprintf("%s: field %d has no name", schema.Source, i))
				continue
			}
			if seen[f.Name] {
				errs = append(errs, fmt.Sprintf("%s: field %q declared twice", schema.Source, f.Name))
			}
			seen[f.Name] = true
			if len(f.Variants) == 0 && f.ContainsFallback == "" {
				errs = append(errs, fmt.Sprintf("%s: field %q has no variants", schema.Source, f.Name))
			}
			for _, v := range f.Variants {
				if strings.TrimSpace(v) == "" {
					errs = append(errs, fmt.Sprintf("%s: field %q has a blank variant", schema.Source, f.Name))
				}
			}
		}
		for _, name := range requiredCritical[schema.Source] {
			f, ok := schema.Field(name)
			if !ok {
				errs = append(errs, fmt.Sprintf("%s: required field %q is missing", schema.Source, name))
			} else if !f.Critical {
				errs = append(errs, fmt.Sprintf("%s: field %q must be critical", schema.Source, name))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid schemas:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// YAML renders the schemas in the same layout as schemas.yaml.
func (s Schemas) YAML() ([]byte, error) {
	return yaml.Marshal(schemaFile{Exam: s.Exam.Fields, Roster: s.Roster.Fields})
}

package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemas(t *testing.T) {
	s := DefaultSchemas()
	require.NoError(t, s.Validate())

	id, ok := s.Exam.Field(FieldIdentifier)
	require.True(t, ok)
	assert.True(t, id.Critical)
	assert.Equal(t, "PRN", id.DisplayName())

	section, ok := s.Roster.Field(FieldSection)
	require.True(t, ok)
	assert.Equal(t, "div", section.ContainsFallback)
}

func TestSchemasYAMLRoundTrip(t *testing.T) {
	data, err := DefaultSchemas().YAML()
	require.NoError(t, err)

	parsed, err := ParseSchemas(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultSchemas(), parsed)
}

func TestParseSchemas_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing roster",
			yaml: "exam:\n  - name: identifier\n    critical: true\n    variants: [prn]\n  - name: score\n    critical: true\n    variants: [score]\n",
			want: "roster: no fields declared",
		},
		{
			name: "score not critical",
			yaml: "exam:\n  - name: identifier\n    critical: true\n    variants: [prn]\n  - name: score\n    variants: [score]\nroster:\n  - name: identifier\n    critical: true\n    variants: [prn]\n",
			want: `exam: field "score" must be critical`,
		},
		{
			name: "blank variant",
			yaml: "exam:\n  - name: identifier\n    critical: true\n    variants: [\" \"]\n",
			want: `field "identifier" has a blank variant`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchemas([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSchemaFile(t *testing.T) {
	s, err := LoadSchemaFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchemas(), s)

	custom := strings.Replace(string(DefaultSchemaYAML()), "      - prn\n", "      - prn\n      - registration no\n", 1)
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(custom), 0o644))

	s, err = LoadSchemaFile(path)
	require.NoError(t, err)
	res := ResolveColumns([]string{"Registration No", "Score"}, s.Exam)
	assert.True(t, res.Has(FieldIdentifier))

	_, err = LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package core

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// DefaultMaxFileSize is the default per-file upload limit (16MB).
const DefaultMaxFileSize int64 = 16 * 1024 * 1024

// DefaultAllowedExtensions lists the input formats the reader understands.
var DefaultAllowedExtensions = []string{"xlsx", "xlsm", "csv"}

// DefaultValidYears lists accepted academic year values.
var DefaultValidYears = []string{"I", "II", "III", "1", "2", "3"}

// Upload is one input file as received from a client.
type Upload struct {
	FileName string
	Size     int64
	Data     io.Reader
}

// Extension returns the lowercased file extension without the dot.
func (u Upload) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(u.FileName), "."))
}

// UploadLimits bounds what ValidateUpload accepts.
type UploadLimits struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// ValidateUpload checks one file before it is parsed. role names the file
// in error messages, e.g. "FCTC file".
func ValidateUpload(role string, u Upload, limits UploadLimits) error {
	if u.Data == nil || strings.TrimSpace(u.FileName) == "" {
		return fmt.Errorf("%s: %w", role, ErrNoFile)
	}

	allowed := limits.AllowedExtensions
	if len(allowed) == 0 {
		allowed = DefaultAllowedExtensions
	}
	if ext := u.Extension(); !slices.Contains(allowed, ext) {
		return fmt.Errorf("%s: %w %q (allowed: %s)", role, ErrUnsupportedFileType, ext, strings.Join(allowed, ", "))
	}

	if u.Size == 0 {
		return fmt.Errorf("%s: %w", role, ErrEmptyFile)
	}
	maxSize := limits.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if u.Size > maxSize {
		return fmt.Errorf("%s: %w: %d bytes exceeds %dMB limit", role, ErrFileTooLarge, u.Size, maxSize/(1024*1024))
	}
	return nil
}

// ValidateYear checks the requested academic year and returns it trimmed.
func ValidateYear(year string, valid []string) (string, error) {
	if len(valid) == 0 {
		valid = DefaultValidYears
	}
	year = strings.TrimSpace(year)
	if year == "" {
		return "", fmt.Errorf("%w: year is required", ErrInvalidYear)
	}
	if !slices.Contains(valid, year) {
		return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidYear, year, strings.Join(valid, ", "))
	}
	return year, nil
}

// SanitizeFilename strips everything but word characters, whitespace, dots
// and dashes, then replaces whitespace runs with underscores.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '.' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	s := strings.Join(strings.Fields(b.String()), "_")
	if s == "" {
		return "unknown_file"
	}
	return s
}

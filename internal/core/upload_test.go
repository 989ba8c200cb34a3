package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	limits := UploadLimits{MaxFileSize: 1024}
	data := strings.NewReader("x")

	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"valid xlsx", Upload{FileName: "fctc.xlsx", Size: 10, Data: data}, nil},
		{"valid csv upper case", Upload{FileName: "ROSTER.CSV", Size: 10, Data: data}, nil},
		{"missing data", Upload{FileName: "fctc.xlsx", Size: 10}, ErrNoFile},
		{"blank name", Upload{FileName: "  ", Size: 10, Data: data}, ErrNoFile},
		{"legacy xls", Upload{FileName: "fctc.xls", Size: 10, Data: data}, ErrUnsupportedFileType},
		{"no extension", Upload{FileName: "fctc", Size: 10, Data: data}, ErrUnsupportedFileType},
		{"empty", Upload{FileName: "fctc.xlsx", Size: 0, Data: data}, ErrEmptyFile},
		{"too large", Upload{FileName: "fctc.xlsx", Size: 2048, Data: data}, ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload("FCTC file", tt.upload, limits)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUpload() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUpload() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"II", "II", false},
		{" 3 ", "3", false},
		{"", "", true},
		{"IV", "", true},
		{"ii", "", true},
	}

	for _, tt := range tests {
		got, err := ValidateYear(tt.in, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateYear(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidYear) {
			t.Errorf("ValidateYear(%q) error = %v, want ErrInvalidYear", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ValidateYear(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FCTC Report.xlsx", "FCTC_Report.xlsx"},
		{"../../etc/passwd", "....etcpasswd"},
		{"  roll  call (final).xlsx ", "roll_call_final.xlsx"},
		{"", "unknown_file"},
		{"///", "unknown_file"},
		{"résumé.xlsx", "résumé.xlsx"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

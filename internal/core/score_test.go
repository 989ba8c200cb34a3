package core

import (
	"math"
	"testing"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		name  string
		in    Cell
		want  float64
		valid bool
	}{
		{"composite keeps numerator", TextCell("85/100"), 85, true},
		{"composite with spaces", TextCell(" 7 / 10"), 7, true},
		{"not applicable", TextCell("N/A"), 0, false},
		{"number cell", NumberCell(42), 42, true},
		{"decimal text", TextCell("9.25"), 9.25, true},
		{"empty text", TextCell(""), 0, false},
		{"blank cell", BlankCell(), 0, false},
		{"word", TextCell("absent"), 0, false},
		{"nan text", TextCell("nan"), 0, false},
		{"nan number", NumberCell(math.NaN()), 0, false},
		{"infinite text", TextCell("inf"), 0, false},
		{"leading slash", TextCell("/10"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseScore(tt.in)
			if got.Valid != tt.valid {
				t.Fatalf("ParseScore(%q).Valid = %v, want %v", tt.in.String(), got.Valid, tt.valid)
			}
			if tt.valid && got.Value != tt.want {
				t.Errorf("ParseScore(%q) = %v, want %v", tt.in.String(), got.Value, tt.want)
			}
		})
	}
}

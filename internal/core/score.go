package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseScore converts a raw score cell into a numeric score.
//
// Composite values such as "7/10" keep the part before the first slash.
// Anything that does not parse as a finite number is InvalidScore.
func ParseScore(raw Cell) Score {
	if raw.Kind == CellNumber {
		if math.IsNaN(raw.Number) || math.IsInf(raw.Number, 0) {
			return InvalidScore
		}
		return ValidScore(raw.Number)
	}

	s := raw.String()
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return InvalidScore
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidScore
	}
	return ValidScore(v)
}

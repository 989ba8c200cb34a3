package core

import (
	"regexp"
	"strings"
)

// fractionalZeroSuffix matches the ".0" tail left behind when a numeric
// identifier passes through a float column.
var fractionalZeroSuffix = regexp.MustCompile(`\.0+$`)

// invalidIdentifiers are placeholder strings produced by missing values.
var invalidIdentifiers = map[string]bool{
	"":     true,
	"NAN":  true,
	"NONE": true,
	"NAT":  true,
}

// NormalizeIdentifier converts a raw PRN cell into its comparison key.
// An empty result means the row has no usable identifier.
func NormalizeIdentifier(raw Cell) string {
	return NormalizeIdentifierString(raw.String())
}

// NormalizeIdentifierString applies the identifier normalization steps to an
// already stringified value: trim, drop a trailing ".0+", uppercase, and
// blank out placeholder values.
func NormalizeIdentifierString(s string) string {
	s = strings.TrimSpace(s)
	s = fractionalZeroSuffix.ReplaceAllString(s, "")
	s = strings.ToUpper(s)
	if invalidIdentifiers[s] {
		return ""
	}
	return s
}

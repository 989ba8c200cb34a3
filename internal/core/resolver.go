package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Resolution maps canonical fields onto the headers of one table.
type Resolution struct {
	// Mapping holds the actual header text claimed by each resolved field.
	Mapping map[FieldName]string
	// Columns holds the column index of that header (first occurrence).
	Columns map[FieldName]int
	// Unmatched lists fields with no matching header, in schema order.
	Unmatched []FieldName
}

// Has reports whether field was resolved.
func (r Resolution) Has(field FieldName) bool {
	_, ok := r.Columns[field]
	return ok
}

// ResolveColumns matches schema fields against headers.
//
// Comparison folds case and normalizes whitespace. For each field the first
// declared variant present in headers wins; when a header text appears more
// than once its first column is used. A field with ContainsFallback set and
// no variant match takes the first header containing that substring.
// Headers not claimed by any field are ignored.
func ResolveColumns(headers []string, schema Schema) Resolution {
	// Casers carry state and are not safe to share between goroutines.
	folder := cases.Fold()

	index := make(map[string]int, len(headers))
	folded := make([]string, len(headers))
	for i, h := range headers {
		key := normalizeHeader(folder, h)
		folded[i] = key
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	res := Resolution{
		Mapping: make(map[FieldName]string),
		Columns: make(map[FieldName]int),
	}

	for _, field := range schema.Fields {
		col, ok := matchVariants(folder, index, field.Variants)
		if !ok && field.ContainsFallback != "" {
			col, ok = matchContains(folder, folded, field.ContainsFallback)
		}
		if !ok {
			res.Unmatched = append(res.Unmatched, field.Name)
			continue
		}
		res.Mapping[field.Name] = headers[col]
		res.Columns[field.Name] = col
	}

	return res
}

func matchVariants(folder cases.Caser, index map[string]int, variants []string) (int, bool) {
	for _, v := range variants {
		if col, ok := index[normalizeHeader(folder, v)]; ok {
			return col, true
		}
	}
	return 0, false
}

// matchContains is deliberately loose: any header containing sub matches,
// including unrelated ones. Only the roster section field uses it.
func matchContains(folder cases.Caser, folded []string, sub string) (int, bool) {
	sub = normalizeHeader(folder, sub)
	for i, h := range folded {
		if strings.Contains(h, sub) {
			return i, true
		}
	}
	return 0, false
}

// normalizeHeader trims, collapses inner whitespace runs and folds case.
func normalizeHeader(folder cases.Caser, s string) string {
	return folder.String(strings.Join(strings.Fields(s), " "))
}

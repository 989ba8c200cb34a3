package core

import "strings"

const (
	// headerScanRows is how many raw rows are inspected for a header row.
	headerScanRows = 10
	// minHeaderTextCells is the number of non-blank text cells that marks a
	// row as the header.
	minHeaderTextCells = 3
	// headerPreviewRows is how many raw rows a HeaderNotFoundError shows.
	headerPreviewRows = 5
)

// DetectHeader re-heads a table whose first row is not its header.
//
// When most headers are placeholders for blank cells, the first of the
// leading raw rows with at least three non-blank text cells becomes the
// header row. Tables with a usable first row are returned unchanged.
func DetectHeader(t RawTable) (RawTable, error) {
	if !mostlyPlaceholders(t.Headers) {
		return t, nil
	}

	grid := t.Grid()
	limit := headerScanRows
	if len(grid) < limit {
		limit = len(grid)
	}

	for i := 0; i < limit; i++ {
		if countTextCells(grid[i]) >= minHeaderTextCells {
			return HeadedAt(grid, i), nil
		}
	}

	return t, &HeaderNotFoundError{Preview: previewRows(grid, headerPreviewRows)}
}

// IsPlaceholderHeader reports whether h was generated for a blank header cell.
func IsPlaceholderHeader(h string) bool {
	return strings.HasPrefix(h, PlaceholderPrefix)
}

func mostlyPlaceholders(headers []string) bool {
	if len(headers) == 0 {
		return false
	}
	n := 0
	for _, h := range headers {
		if IsPlaceholderHeader(h) {
			n++
		}
	}
	return n*2 > len(headers)
}

func countTextCells(row []Cell) int {
	n := 0
	for _, c := range row {
		if c.Kind == CellText && strings.TrimSpace(c.Text) != "" {
			n++
		}
	}
	return n
}

func previewRows(grid [][]Cell, n int) [][]string {
	if len(grid) < n {
		n = len(grid)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(grid[i]))
		for j, c := range grid[i] {
			row[j] = c.String()
		}
		out[i] = row
	}
	return out
}

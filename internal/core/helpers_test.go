package core

import (
	"io"
	"log/slog"
)

// sheet builds a RawTable from literal rows; the first row is the header.
func sheet(rows ...[]any) RawTable {
	grid := make([][]Cell, len(rows))
	for i, r := range rows {
		cells := make([]Cell, len(r))
		for j, v := range r {
			cells[j] = CellOf(v)
		}
		grid[i] = cells
	}
	return NewRawTable(grid)
}

func row(v ...any) []any { return v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

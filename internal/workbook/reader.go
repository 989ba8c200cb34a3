// Package workbook converts uploaded spreadsheets into core tables and
// writes reconciliation reports as xlsx workbooks.
package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PranavYehale/FCTC-TOOL/internal/core"
	"github.com/xuri/excelize/v2"
)

// utf8BOM is stripped from the start of CSV input.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader parses xlsx, xlsm and csv files. It is stateless and safe for
// concurrent use.
type Reader struct {
	// MaxBytes caps how much of an input is read. Zero means no cap.
	MaxBytes int64
}

// NewReader returns a Reader that refuses inputs larger than maxBytes.
func NewReader(maxBytes int64) *Reader {
	return &Reader{MaxBytes: maxBytes}
}

// ReadTable reads the first worksheet of an upload, choosing the format by
// file extension.
func (rd *Reader) ReadTable(fileName string, r io.Reader) (core.RawTable, error) {
	data, err := rd.readAll(r)
	if err != nil {
		return core.RawTable{}, err
	}
	if len(data) == 0 {
		return core.RawTable{}, core.ErrEmptyFile
	}

	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")); ext {
	case "xlsx", "xlsm", "xltx", "xltm":
		return readExcel(data)
	case "csv":
		return readCSV(data)
	case "xls":
		return core.RawTable{}, fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", core.ErrUnsupportedFileType)
	default:
		return core.RawTable{}, fmt.Errorf("%w %q", core.ErrUnsupportedFileType, ext)
	}
}

// ReadFile reads a spreadsheet from disk.
func (rd *Reader) ReadFile(path string) (core.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return rd.ReadTable(filepath.Base(path), f)
}

func (rd *Reader) readAll(r io.Reader) ([]byte, error) {
	if rd.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, rd.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > rd.MaxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, rd.MaxBytes)
	}
	return data, nil
}

func readExcel(data []byte) (core.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return core.RawTable{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.RawTable{}, core.ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.RawTable{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return core.RawTable{}, core.ErrEmptyFile
	}

	grid := make([][]core.Cell, len(rows))
	for i, values := range rows {
		cells := make([]core.Cell, len(values))
		for j, v := range values {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return core.RawTable{}, err
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return core.RawTable{}, fmt.Errorf("cell %s: %w", name, err)
			}
			cells[j] = excelCell(typ, v)
		}
		grid[i] = cells
	}
	return core.NewRawTable(grid), nil
}

// excelCell types a raw cell value. Only untyped and numeric cells become
// numbers, so text such as "00123" keeps its leading zeros.
func excelCell(typ excelize.CellType, v string) core.Cell {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return core.NumberCell(f)
		}
	}
	return core.TextCell(v)
}

func readCSV(data []byte) (core.RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ToValidUTF8(string(data), "�")

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return core.RawTable{}, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return core.RawTable{}, core.ErrEmptyFile
	}
	return core.TableFromRecords(records), nil
}

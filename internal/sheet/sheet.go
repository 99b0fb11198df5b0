// Package sheet reads the raw records of a spreadsheet extract (.xlsx or
// .csv/.tsv) without interpreting any column.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupported is returned for file extensions that are not a sheet.
var ErrUnsupported = errors.New("unsupported sheet format")

// Selector picks a worksheet. Name wins over Index; Index is 1-based and
// defaults to the first sheet.
type Selector struct {
	Name  string
	Index int
}

// ReadFile reads all records of the selected sheet. CSV/TSV files have a
// single implicit sheet and ignore the selector.
func ReadFile(path string, sel Selector) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()
		return readWorkbook(f, filepath.Base(path), sel)
	case ".csv", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		return ReadCSV(f, sniffDelimiter(path))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Base(path))
	}
}

// ReadXLSX reads the selected sheet from an xlsx stream.
func ReadXLSX(r io.Reader, sel Selector) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return readWorkbook(f, "workbook", sel)
}

// SheetNames lists the worksheets of an xlsx file in workbook order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func readWorkbook(f *excelize.File, name string, sel Selector) ([][]string, error) {
	target, err := resolveSheet(f.GetSheetList(), name, sel)
	if err != nil {
		return nil, err
	}
	// Raw values keep number formats such as thousands separators out of
	// the metric cells.
	rows, err := f.GetRows(target, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet '%s': %w", target, err)
	}
	return rows, nil
}

func resolveSheet(sheets []string, workbook string, sel Selector) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook '%s' has no sheets", workbook)
	}
	if sel.Name != "" {
		for _, s := range sheets {
			if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(sel.Name)) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			sel.Name, workbook, strings.Join(sheets, ", "))
	}
	idx := sel.Index
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range in workbook '%s' (%d sheets)", idx, workbook, len(sheets))
	}
	return sheets[idx-1], nil
}

// ReadCSV reads every record, tolerating ragged rows and stray quotes. A
// zero delimiter means comma.
func ReadCSV(r io.Reader, delim rune) ([][]string, error) {
	cr := csv.NewReader(r)
	if delim != 0 {
		cr.Comma = delim
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

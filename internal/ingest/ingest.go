// Package ingest decodes uploaded CSV and XLSX files into raw payload rows
// and applies optional column-rename mappings before storage.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFile is returned for file types the decoder cannot read.
var ErrUnsupportedFile = errors.New("unsupported file type: only .csv and .xlsx are accepted")

// Decode picks a decoder from the uploaded filename's extension.
func Decode(filename string, r io.Reader) ([]map[string]interface{}, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return DecodeCSV(r)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return DecodeXLSX(r)
	default:
		return nil, ErrUnsupportedFile
	}
}

// DecodeCSV reads a CSV stream into one map per row, keyed by the header
// row. Cell values stay strings; typing happens at the validation boundary.
// Empty cells are omitted so required-field checks treat them as missing.
func DecodeCSV(r io.Reader) ([]map[string]interface{}, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]interface{}
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			if col == "" || i >= len(fields) {
				continue
			}
			val := strings.TrimSpace(fields[i])
			if val == "" {
				continue
			}
			row[col] = val
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// DecodeXLSX reads the first sheet of an XLSX workbook, first row as the
// header, into one map per row.
func DecodeXLSX(r io.Reader) ([]map[string]interface{}, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}

	cells, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read XLSX sheet: %w", err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("empty XLSX sheet")
	}

	header := cells[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]interface{}
	for _, fields := range cells[1:] {
		row := make(map[string]interface{}, len(header))
		for i, col := range header {
			if col == "" || i >= len(fields) {
				continue
			}
			val := strings.TrimSpace(fields[i])
			if val == "" {
				continue
			}
			row[col] = val
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ApplyMapping renames source columns to canonical field names. The
// mapping is target-field → source-column; source columns not named in the
// mapping pass through unchanged. A nil or empty mapping is a no-op.
func ApplyMapping(rows []map[string]interface{}, mapping map[string]string) []map[string]interface{} {
	if len(mapping) == 0 {
		return rows
	}

	// Invert to source → target for a single pass per row.
	bySource := make(map[string]string, len(mapping))
	for target, source := range mapping {
		if target == "" || source == "" {
			continue
		}
		bySource[source] = target
	}
	if len(bySource) == 0 {
		return rows
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		mapped := make(map[string]interface{}, len(row))
		for col, val := range row {
			if target, ok := bySource[col]; ok {
				mapped[target] = val
				continue
			}
			mapped[col] = val
		}
		out = append(out, mapped)
	}
	return out
}

// Package ingest reads the CSV data tables and product inventories that feed
// the calculator, turning string-encoded fields into typed values.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Input errors.
var (
	ErrMissingColumn          = errors.New("missing required column")
	ErrEmptyFile              = errors.New("file has no header row")
	ErrInvalidValue           = errors.New("invalid value")
	ErrMalformedUseDescriptor = errors.New("malformed use descriptor")
	ErrMalformedReprocessing  = errors.New("malformed reprocessing descriptor")
)

// notApplicable marks an unset cell in inventories and data tables.
const notApplicable = "0"

// RowError locates a problem in an input file. Row is 1-based and counts the
// header, so it matches what a spreadsheet shows.
type RowError struct {
	File   string
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s row %d: %v", e.File, e.Row, e.Err)
	}
	return fmt.Sprintf("%s row %d, column %s: %v", e.File, e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// sheet is a parsed CSV file with a header row. Header names are lower-cased.
type sheet struct {
	file    string
	columns map[string]int
	header  []string
	rows    [][]string
}

func readSheet(r io.Reader, file string, required ...string) (*sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", file, ErrEmptyFile)
	}

	s := &sheet{file: file, columns: make(map[string]int, len(records[0]))}
	for i, h := range records[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		s.header = append(s.header, name)
		s.columns[name] = i
	}
	for _, col := range required {
		if _, ok := s.columns[col]; !ok {
			return nil, fmt.Errorf("%s: %w %q", file, ErrMissingColumn, col)
		}
	}

	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		s.rows = append(s.rows, rec)
	}
	return s, nil
}

// rowNumber converts a data row index to a 1-based file row.
func (s *sheet) rowNumber(i int) int {
	return i + 2
}

func (s *sheet) has(col string) bool {
	_, ok := s.columns[col]
	return ok
}

// cell returns the trimmed value at (row, col), or "" when the row is short.
func (s *sheet) cell(row []string, col string) string {
	i, ok := s.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (s *sheet) rowErr(i int, col string, err error) error {
	return &RowError{File: s.file, Row: s.rowNumber(i), Column: col, Err: err}
}

func (s *sheet) float(i int, row []string, col string) (float64, error) {
	raw := s.cell(row, col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, s.rowErr(i, col, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw))
	}
	return v, nil
}

func (s *sheet) int(i int, row []string, col string) (int, error) {
	raw := s.cell(row, col)
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Spreadsheet exports write integers as "2020.0".
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, s.rowErr(i, col, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, raw))
		}
		v = int(f)
	}
	return v, nil
}

func (s *sheet) flag(i int, row []string, col string) (bool, error) {
	switch s.cell(row, col) {
	case "", "0", "0.0", "false":
		return false, nil
	case "1", "1.0", "true":
		return true, nil
	default:
		return false, s.rowErr(i, col, fmt.Errorf("%w: %q is not 0 or 1", ErrInvalidValue, s.cell(row, col)))
	}
}

// text returns the lower-cased cell with the "0" sentinel mapped to "".
func (s *sheet) text(row []string, col string) string {
	v := strings.ToLower(s.cell(row, col))
	if v == notApplicable || v == "0.0" {
		return ""
	}
	return v
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

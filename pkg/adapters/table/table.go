// Package table reads delimited text files into rows or records, for building
// banks, items and pages from spreadsheets.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
)

// ErrNoHeader is returned by Records when the file is empty.
var ErrNoHeader = errors.New("table has no header row")

type config struct {
	sep rune
}

// Option configures how a table is read.
type Option func(*config)

// WithSeparator sets the cell delimiter. The default is a comma; use '\t' for TSV.
func WithSeparator(sep rune) Option {
	return func(c *config) {
		c.sep = sep
	}
}

func newReader(r io.Reader, opts []Option) *csv.Reader {
	cfg := config{sep: ','}
	for _, opt := range opts {
		opt(&cfg)
	}
	cr := csv.NewReader(r)
	cr.Comma = cfg.sep
	cr.FieldsPerRecord = -1
	return cr
}

// Rows returns every row of the file as a list of cells.
func Rows(path string, opts ...Option) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()
	return ReadRows(f, opts...)
}

// ReadRows is Rows on an open reader.
func ReadRows(r io.Reader, opts ...Option) ([][]string, error) {
	rows, err := newReader(r, opts).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

// Records treats the first row as column names and maps every following row
// onto them. Missing trailing cells read as empty strings; extra cells are an error.
func Records(path string, opts ...Option) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()
	return ReadRecords(f, opts...)
}

// ReadRecords is Records on an open reader.
func ReadRecords(r io.Reader, opts ...Option) ([]map[string]string, error) {
	rows, err := ReadRows(r, opts...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+2, len(row), len(header))
		}
		rec := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(row) {
				rec[col] = row[j]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Column returns the values of one named column, in row order.
func Column(path, name string, opts ...Option) ([]string, error) {
	rows, err := Rows(path, opts...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}
	col := slices.Index(rows[0], name)
	if col < 0 {
		return nil, fmt.Errorf("table %s has no column %q", path, name)
	}
	values := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		v := ""
		if col < len(row) {
			v = row[col]
		}
		values = append(values, v)
	}
	return values, nil
}

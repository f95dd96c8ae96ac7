package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
)

// missingMarkers are the cell values treated as missing and loaded as "".
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// NormalizeCell maps missing-value markers to the empty string.
func NormalizeCell(v string) string {
	if _, ok := missingMarkers[strings.TrimSpace(v)]; ok {
		return ""
	}
	return v
}

// NormalizeColumnName trims, lower-cases and replaces spaces with underscores.
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// CatalogTable is the ordered catalog metadata. Row i corresponds to vector i
// of the index; rows are never reordered.
type CatalogTable struct {
	columns []string
	colIdx  map[string]int
	rows    [][]string
}

// NewCatalogTable creates a table from a header and rows. Short rows are
// padded with empty cells.
func NewCatalogTable(columns []string, rows [][]string) (*CatalogTable, error) {
	t := &CatalogTable{colIdx: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, dup := t.colIdx[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		t.colIdx[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	for i, r := range rows {
		if len(r) > len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i, len(r), len(columns))
		}
		row := make([]string, len(columns))
		for j, v := range r {
			row[j] = NormalizeCell(v)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// LoadCatalog reads the augmented metadata table as persisted by the builder.
func LoadCatalog(path string) (*CatalogTable, error) {
	return loadCSV(path, false)
}

// LoadRawCatalog reads the raw dataset and normalizes its column names.
func LoadRawCatalog(path string) (*CatalogTable, error) {
	return loadCSV(path, true)
}

func loadCSV(path string, normalizeNames bool) (*CatalogTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	t, err := ReadCatalog(f, normalizeNames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ReadCatalog parses a CSV document with a header row.
func ReadCatalog(r io.Reader, normalizeNames bool) (*CatalogTable, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty catalog: %w", domain.ErrCorruptArtifact)
		}
		return nil, fmt.Errorf("catalog header: %v: %w", err, domain.ErrCorruptArtifact)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	columns := make([]string, len(header))
	for i, h := range header {
		if normalizeNames {
			h = NormalizeColumnName(h)
		}
		columns[i] = h
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog rows: %v: %w", err, domain.ErrCorruptArtifact)
	}
	t, err := NewCatalogTable(columns, records)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrCorruptArtifact)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *CatalogTable) Len() int { return len(t.rows) }

// Columns returns the column names in order.
func (t *CatalogTable) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the column exists.
func (t *CatalogTable) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// Get returns a cell, or "" when the column does not exist.
func (t *CatalogTable) Get(row int, column string) string {
	j, ok := t.colIdx[column]
	if !ok {
		return ""
	}
	return t.rows[row][j]
}

// Column returns a copy of every value of a column, in row order.
func (t *CatalogTable) Column(name string) []string {
	out := make([]string, len(t.rows))
	for i := range t.rows {
		out[i] = t.Get(i, name)
	}
	return out
}

// SetColumn replaces a column, appending it when absent.
func (t *CatalogTable) SetColumn(name string, values []string) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	j, ok := t.colIdx[name]
	if !ok {
		j = len(t.columns)
		t.colIdx[name] = j
		t.columns = append(t.columns, name)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
	for i, v := range values {
		t.rows[i][j] = NormalizeCell(v)
	}
	return nil
}

// RowAt returns the entry at a row position.
func (t *CatalogTable) RowAt(index int) (domain.CatalogEntry, error) {
	if index < 0 || index >= len(t.rows) {
		return domain.CatalogEntry{}, fmt.Errorf("row %d of %d: %w", index, len(t.rows), domain.ErrIndexOutOfRange)
	}
	record := make(map[string]string, len(t.columns))
	for j, c := range t.columns {
		record[c] = t.rows[index][j]
	}
	return domain.NewCatalogEntry(index, record), nil
}

// Encode writes the table as CSV with a header row.
func (t *CatalogTable) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.rows); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// SaveCatalog writes the table to path atomically.
func SaveCatalog(path string, t *CatalogTable) error {
	return WriteFileAtomic(path, t.Encode)
}

// Package table holds time-indexed simulation output with labeled columns.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrShape indicates rows whose width does not match the column count, or a
// row count that does not match the index.
var ErrShape = errors.New("table: shape mismatch")

// Table is a dense matrix with one row per saved time point.
type Table struct {
	IndexName string      `json:"index_name"`
	Index     []float64   `json:"index"`
	Columns   []string    `json:"columns"`
	Rows      [][]float64 `json:"rows"`
}

// New returns an empty table with the given columns, indexed by "time".
func New(columns []string) *Table {
	return &Table{IndexName: "time", Columns: append([]string(nil), columns...)}
}

// Append adds a row at index value t. The row is copied.
func (tb *Table) Append(t float64, row []float64) error {
	if len(row) != len(tb.Columns) {
		return fmt.Errorf("%w: row has %d values, table has %d columns", ErrShape, len(row), len(tb.Columns))
	}
	tb.Index = append(tb.Index, t)
	tb.Rows = append(tb.Rows, append([]float64(nil), row...))
	return nil
}

// Validate checks that every row matches the columns and the index.
func (tb *Table) Validate() error {
	if len(tb.Rows) != len(tb.Index) {
		return fmt.Errorf("%w: %d rows, %d index values", ErrShape, len(tb.Rows), len(tb.Index))
	}
	for i, r := range tb.Rows {
		if len(r) != len(tb.Columns) {
			return fmt.Errorf("%w: row %d has %d values, table has %d columns", ErrShape, i, len(r), len(tb.Columns))
		}
	}
	return nil
}

// Len returns the number of rows.
func (tb *Table) Len() int { return len(tb.Rows) }

// ColumnIndex returns the position of name, or -1.
func (tb *Table) ColumnIndex(name string) int {
	for i, c := range tb.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has a column called name.
func (tb *Table) Has(name string) bool { return tb.ColumnIndex(name) >= 0 }

// Column returns a copy of the named column.
func (tb *Table) Column(name string) ([]float64, bool) {
	j := tb.ColumnIndex(name)
	if j < 0 {
		return nil, false
	}
	out := make([]float64, len(tb.Rows))
	for i, r := range tb.Rows {
		out[i] = r[j]
	}
	return out, true
}

// Select returns a table restricted to the named columns, in that order.
func (tb *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		if idx[k] = tb.ColumnIndex(name); idx[k] < 0 {
			return nil, fmt.Errorf("table: no column %q", name)
		}
	}
	out := &Table{
		IndexName: tb.IndexName,
		Index:     append([]float64(nil), tb.Index...),
		Columns:   append([]string(nil), names...),
		Rows:      make([][]float64, len(tb.Rows)),
	}
	for i, r := range tb.Rows {
		row := make([]float64, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.Rows[i] = row
	}
	return out, nil
}

// Rename returns a copy of the table whose column names are mapped by f.
func (tb *Table) Rename(f func(string) string) *Table {
	out := *tb
	out.Columns = make([]string, len(tb.Columns))
	for i, c := range tb.Columns {
		out.Columns[i] = f(c)
	}
	return &out
}

// WriteCSV writes a header row followed by one record per time point.
func (tb *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	name := tb.IndexName
	if name == "" {
		name = "time"
	}
	if err := cw.Write(append([]string{name}, tb.Columns...)); err != nil {
		return err
	}
	rec := make([]string, len(tb.Columns)+1)
	for i, r := range tb.Rows {
		rec[0] = strconv.FormatFloat(tb.Index[i], 'g', -1, 64)
		for j, v := range r {
			rec[j+1] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

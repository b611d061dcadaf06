// Package table turns uploaded spreadsheets into an in-memory grid of typed
// cells.
//
// Two container formats are accepted: Excel workbooks (.xlsx, .xlsm) and
// delimited text (.csv, .tsv, .txt). Both are normalized the same way so the
// rest of the application never cares where a table came from:
//
//   - empty headers become "Unnamed: <index>"
//   - repeated headers are suffixed ".1", ".2", ...
//   - blank and NA-marker cells become Null
//   - plain numerals become Number, everything else Text
//   - empty lines are skipped; a row of bare delimiters (",,") is kept as
//     an all-Null row so it reaches aggregation like any other student row
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies a cell value.
type Kind uint8

const (
	Null Kind = iota
	Text
	Number
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "null"
	}
}

// Cell is a single table value.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
}

// TextCell returns a Text cell.
func TextCell(s string) Cell { return Cell{Kind: Text, Text: s} }

// NumberCell returns a Number cell.
func NumberCell(f float64) Cell { return Cell{Kind: Number, Number: f} }

// NullCell returns an empty cell.
func NullCell() Cell { return Cell{} }

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool { return c.Kind == Null }

// String returns the display form of the cell. Null cells render as "".
// Whole numbers render without a decimal point, so a student ID of 101
// displays as "101".
func (c Cell) String() string {
	switch c.Kind {
	case Text:
		return c.Text
	case Number:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Float coerces the cell to a float64. Text cells are parsed with
// ParseNumber; Null cells are an error.
func (c Cell) Float() (float64, error) {
	switch c.Kind {
	case Number:
		return c.Number, nil
	case Text:
		return ParseNumber(c.Text)
	default:
		return 0, fmt.Errorf("cell is empty")
	}
}

// Table is an ordered set of named columns and rows of cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Cell

	// Lines holds the 1-based source line (CSV) or sheet row (workbook) of
	// each entry in Rows.
	Lines []int

	index map[string]int
}

// New builds a Table from a raw header and raw string records, applying the
// package normalization rules. Records may be shorter or longer than the
// header. lines gives the source line of each record; when nil, records are
// assumed to follow a header on line 1.
func New(header []string, records [][]string, lines []int) *Table {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	raw := make([]string, width)
	copy(raw, header)

	rows := make([][]Cell, 0, len(records))
	kept := make([]int, 0, len(records))
	for n, rec := range records {
		if emptyRecord(rec) {
			continue
		}
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = ParseCell(v)
		}
		line := n + 2
		if n < len(lines) {
			line = lines[n]
		}
		rows = append(rows, row)
		kept = append(kept, line)
	}

	t := FromCells(raw, rows)
	t.Lines = kept
	return t
}

// emptyRecord reports whether rec came from an empty line rather than a row
// of delimiters.
func emptyRecord(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "")
}

// FromCells builds a Table from already-typed rows. Headers are normalized;
// rows are padded or truncated to the header width. Blank rows are kept and
// rows are numbered as if the header were on line 1.
func FromCells(header []string, rows [][]Cell) *Table {
	t := &Table{Columns: normalizeHeader(header)}
	t.Rows = make([][]Cell, len(rows))
	t.Lines = make([]int, len(rows))
	for i, r := range rows {
		row := make([]Cell, len(t.Columns))
		copy(row, r)
		t.Rows[i] = row
		t.Lines[i] = i + 2
	}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// Line returns the source line of a data row.
func (t *Table) Line(row int) int {
	if row >= 0 && row < len(t.Lines) {
		return t.Lines[row]
	}
	return row + 2
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// Value returns the cell at row for the named column.
func (t *Table) Value(row int, column string) (Cell, bool) {
	i, ok := t.ColumnIndex(column)
	if !ok || row < 0 || row >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[row][i], true
}

// Head returns at most n rows as display strings, for previews.
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		vals := make([]string, len(t.Columns))
		for j, c := range t.Rows[i] {
			vals[j] = c.String()
		}
		out[i] = vals
	}
	return out
}

// normalizeHeader names empty columns "Unnamed: i" and disambiguates repeats
// by appending ".n", skipping any suffix already taken by another column.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}

	taken := make(map[string]bool, len(out))
	for _, h := range out {
		taken[h] = true
	}

	counts := make(map[string]int, len(out))
	for i, h := range out {
		n := counts[h]
		counts[h] = n + 1
		if n == 0 {
			continue
		}
		name := fmt.Sprintf("%s.%d", h, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s.%d", h, n)
		}
		counts[h] = n + 1
		taken[name] = true
		out[i] = name
	}
	return out
}

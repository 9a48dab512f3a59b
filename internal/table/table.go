// Package table provides the small in-memory table the report pipeline
// operates on: tagged column names, cells with an explicit missing state and
// CSV reading and writing.
package table

import (
	"fmt"
	"slices"
)

// ColumnName identifies a column by its base name and, once disambiguated,
// the provenance label of the source it came from.
type ColumnName struct {
	Base   string
	Source string
}

// Name returns an unqualified column name.
func Name(base string) ColumnName {
	return ColumnName{Base: base}
}

// Qualified reports whether the name carries a source label.
func (n ColumnName) Qualified() bool {
	return n.Source != ""
}

// String formats the name for display: "Base" or "Base - Source".
func (n ColumnName) String() string {
	if n.Source == "" {
		return n.Base
	}
	return n.Base + " - " + n.Source
}

// Column is a table column and the label of the source it originated from.
type Column struct {
	Name   ColumnName
	Origin string
}

// Table is an ordered set of rows over a fixed list of columns.
type Table struct {
	// Source labels where the table came from: a provenance label for CSV
	// sources, empty for derived tables.
	Source  string
	columns []Column
	rows    [][]Cell
}

// New returns an empty table with the given column names, all originating
// from source.
func New(source string, names ...string) *Table {
	t := &Table{Source: source}
	for _, n := range names {
		t.columns = append(t.columns, Column{Name: Name(n), Origin: source})
	}
	return t
}

// FromColumns returns an empty table over the given columns.
func FromColumns(source string, columns []Column) *Table {
	return &Table{Source: source, columns: slices.Clone(columns)}
}

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	return slices.Clone(t.columns)
}

// Names returns the display names of all columns.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name.String()
	}
	return names
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns row i. The slice must not be modified.
func (t *Table) Row(i int) []Cell {
	return t.rows[i]
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(row []Cell) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.columns))
	}
	t.rows = append(t.rows, row)
	return nil
}

// AppendValues adds a row of present cells.
func (t *Table) AppendValues(values ...string) error {
	row := make([]Cell, len(values))
	for i, v := range values {
		row[i] = Value(v)
	}
	return t.Append(row)
}

// Index returns the position of the column whose display name is name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.columns {
		if c.Name.String() == name {
			return i
		}
	}
	return -1
}

// Require returns the positions of the named columns, failing with a
// DataFormatError for the first one that is absent.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.Index(n)
		if idx[i] < 0 {
			return nil, missing(t.Source, n)
		}
	}
	return idx, nil
}

// WithBase returns the positions of every column whose base name is base,
// qualified or not, in table order.
func (t *Table) WithBase(base string) []int {
	var idx []int
	for i, c := range t.columns {
		if c.Name.Base == base {
			idx = append(idx, i)
		}
	}
	return idx
}

// Provenance returns the provenance label of column i: its source qualifier
// when set, otherwise the label of the source it originated from.
func (t *Table) Provenance(i int) string {
	c := t.columns[i]
	if c.Name.Source != "" {
		return c.Name.Source
	}
	return c.Origin
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := FromColumns(t.Source, t.columns)
	out.rows = make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		out.rows[i] = slices.Clone(r)
	}
	return out
}

// Filter returns a table holding the rows keep accepts.
func (t *Table) Filter(keep func(row []Cell) bool) *Table {
	out := FromColumns(t.Source, t.columns)
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, slices.Clone(r))
		}
	}
	return out
}

// Where returns the rows whose column name has the same key as value.
func (t *Table) Where(name string, value Cell) (*Table, error) {
	idx, err := t.Require(name)
	if err != nil {
		return nil, err
	}
	key := value.Key()
	return t.Filter(func(row []Cell) bool {
		return row[idx[0]].Key() == key
	}), nil
}

// Select returns a table restricted to the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx, err := t.Require(names...)
	if err != nil {
		return nil, err
	}
	return t.project(idx), nil
}

// SelectRange returns a table restricted to columns [from, to), clamped to
// the table width.
func (t *Table) SelectRange(from, to int) *Table {
	from = max(0, min(from, len(t.columns)))
	to = max(from, min(to, len(t.columns)))
	idx := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return t.project(idx)
}

func (t *Table) project(idx []int) *Table {
	out := &Table{Source: t.Source}
	for _, i := range idx {
		out.columns = append(out.columns, t.columns[i])
	}
	for _, r := range t.rows {
		row := make([]Cell, len(idx))
		for j, i := range idx {
			row[j] = r[i]
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Unique returns the distinct values of the named column in order of first
// appearance. Missing cells are skipped.
func (t *Table) Unique(name string) ([]Cell, error) {
	idx, err := t.Require(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []Cell
	for _, r := range t.rows {
		c := r[idx[0]]
		if c.IsMissing() || seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		out = append(out, c)
	}
	return out, nil
}

// Map replaces every present cell of the named column with fn's result.
func (t *Table) Map(name string, fn func(Cell) (Cell, error)) error {
	idx, err := t.Require(name)
	if err != nil {
		return err
	}
	for _, r := range t.rows {
		c := r[idx[0]]
		if c.IsMissing() {
			continue
		}
		v, err := fn(c)
		if err != nil {
			return &DataFormatError{Source: t.Source, Column: name, Err: err}
		}
		r[idx[0]] = v
	}
	return nil
}

// Rename changes the base name of the named column.
func (t *Table) Rename(from, to string) error {
	idx, err := t.Require(from)
	if err != nil {
		return err
	}
	t.columns[idx[0]].Name = ColumnName{Base: to}
	return nil
}

// SetName replaces the name of column i.
func (t *Table) SetName(i int, name ColumnName) {
	t.columns[i].Name = name
}

package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmgledhill102/perfreport/internal/table"
)

// Join outer-joins the tables on the key columns, left to right.
//
// Each step keeps every row of the accumulated table together with its
// matching rows from the next table, then appends the next table's rows that
// matched nothing. Cells with no counterpart are missing, never zero.
//
// Column disambiguation is applied per step: a newly added column whose base
// name already exists is qualified with its own provenance label right away,
// while an existing bare column stays bare until the final step, where every
// bare column whose base collided at any step is qualified with the label of
// the source it came from. Joining [A, B, C] therefore yields the same column
// set as joining the result of [A, B] with C.
func Join(tables []*table.Table, keys []string) (*table.Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("nothing to join")
	}
	if len(keys) == 0 {
		return nil, errors.New("no join keys")
	}
	for _, t := range tables {
		if _, err := t.Require(keys...); err != nil {
			return nil, err
		}
	}

	acc := tables[0].Clone()
	collided := make(map[string]bool)

	for _, right := range tables[1:] {
		next, err := joinStep(acc, right, keys, collided)
		if err != nil {
			return nil, err
		}
		acc = next
	}

	isKey := keySet(keys)
	for i, c := range acc.Columns() {
		if isKey[c.Name.String()] || c.Name.Qualified() || !collided[c.Name.Base] {
			continue
		}
		acc.SetName(i, table.ColumnName{Base: c.Name.Base, Source: acc.Provenance(i)})
	}
	if err := checkUnique(acc); err != nil {
		return nil, err
	}

	acc.Source = ""
	return acc, nil
}

func joinStep(left, right *table.Table, keys []string, collided map[string]bool) (*table.Table, error) {
	leftKeys, _ := left.Require(keys...)
	rightKeys, _ := right.Require(keys...)
	isKey := keySet(keys)

	leftBases := make(map[string]bool)
	for _, c := range left.Columns() {
		if !isKey[c.Name.String()] {
			leftBases[c.Name.Base] = true
		}
	}

	columns := left.Columns()
	var added []int
	for j, c := range right.Columns() {
		if isKey[c.Name.String()] {
			continue
		}
		if leftBases[c.Name.Base] {
			collided[c.Name.Base] = true
			if !c.Name.Qualified() {
				c.Name.Source = right.Provenance(j)
			}
		}
		columns = append(columns, c)
		added = append(added, j)
	}

	out := table.FromColumns(left.Source, columns)
	if err := checkUnique(out); err != nil {
		return nil, err
	}

	index := make(map[string][]int)
	for r := 0; r < right.Len(); r++ {
		k := rowKey(right.Row(r), rightKeys)
		index[k] = append(index[k], r)
	}

	matched := make([]bool, right.Len())
	for l := 0; l < left.Len(); l++ {
		lrow := left.Row(l)
		matches := index[rowKey(lrow, leftKeys)]
		if len(matches) == 0 {
			if err := out.Append(combine(lrow, nil, added)); err != nil {
				return nil, err
			}
			continue
		}
		for _, r := range matches {
			matched[r] = true
			if err := out.Append(combine(lrow, right.Row(r), added)); err != nil {
				return nil, err
			}
		}
	}

	for r := 0; r < right.Len(); r++ {
		if matched[r] {
			continue
		}
		lrow := make([]table.Cell, left.Width())
		for i, k := range leftKeys {
			lrow[k] = right.Row(r)[rightKeys[i]]
		}
		if err := out.Append(combine(lrow, right.Row(r), added)); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// combine appends the added columns of rrow to lrow. A nil rrow contributes
// missing cells.
func combine(lrow, rrow []table.Cell, added []int) []table.Cell {
	row := make([]table.Cell, 0, len(lrow)+len(added))
	row = append(row, lrow...)
	for _, j := range added {
		if rrow == nil {
			row = append(row, table.Missing())
		} else {
			row = append(row, rrow[j])
		}
	}
	return row
}

func rowKey(row []table.Cell, idx []int) string {
	parts := make([]string, len(idx))
	for i, k := range idx {
		parts[i] = row[k].Key()
	}
	return strings.Join(parts, "\x1f")
}

func keySet(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func checkUnique(t *table.Table) error {
	seen := make(map[string]bool)
	for _, n := range t.Names() {
		if seen[n] {
			return &table.DataFormatError{Column: n, Err: errors.New("duplicate column after merge")}
		}
		seen[n] = true
	}
	return nil
}

// Stack concatenates the rows of every table under the union of their
// columns, prefixed by a provenance column holding each table's label.
// Columns a table lacks are missing in its rows.
func Stack(tables []*table.Table, provenance string) (*table.Table, error) {
	var names []string
	seen := make(map[string]bool)
	for _, t := range tables {
		if t.Index(provenance) >= 0 {
			return nil, &table.DataFormatError{Source: t.Source, Column: provenance, Err: errors.New("provenance column already present")}
		}
		for _, n := range t.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	columns := make([]table.Column, 0, len(names)+1)
	columns = append(columns, table.Column{Name: table.Name(provenance)})
	for _, n := range names {
		columns = append(columns, table.Column{Name: table.Name(n)})
	}
	out := table.FromColumns("", columns)

	for _, t := range tables {
		pos := make([]int, len(names))
		for i, n := range names {
			pos[i] = t.Index(n)
		}
		for r := 0; r < t.Len(); r++ {
			src := t.Row(r)
			row := make([]table.Cell, 0, len(columns))
			row = append(row, table.Value(t.Source))
			for _, p := range pos {
				if p < 0 {
					row = append(row, table.Missing())
				} else {
					row = append(row, src[p])
				}
			}
			if err := out.Append(row); err != nil {
				return nil, fmt.Errorf("stacking %s: %w", t.Source, err)
			}
		}
	}
	return out, nil
}

package render

import (
	"cmp"
	"slices"

	"github.com/pmgledhill102/perfreport/internal/table"
)

// Entry is one rendered chart.
type Entry struct {
	Filename string
	Title    string
}

// Index accumulates the charts written during a run. It is owned by the
// caller and flushed explicitly with WriteCSV.
type Index struct {
	entries []Entry
}

// Add records a chart.
func (i *Index) Add(filename, title string) {
	i.entries = append(i.entries, Entry{Filename: filename, Title: title})
}

// Len returns the number of recorded charts.
func (i *Index) Len() int {
	return len(i.entries)
}

// Entries returns the recorded charts sorted by file name. Charts sharing a
// file name keep their insertion order.
func (i *Index) Entries() []Entry {
	out := slices.Clone(i.entries)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.Filename, b.Filename)
	})
	return out
}

// Table returns the index as a Filename, Title table.
func (i *Index) Table() *table.Table {
	t := table.New("", "Filename", "Title")
	for _, e := range i.Entries() {
		_ = t.AppendValues(e.Filename, e.Title)
	}
	return t
}

// WriteCSV writes the index to path, typically charts.csv.
func (i *Index) WriteCSV(path string) error {
	return i.Table().WriteCSV(path)
}

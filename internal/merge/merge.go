// Package merge combines summary CSV sources into one comparison table.
//
// Sources are outer-joined on the key columns (message size, delay and
// concurrency). A non-key column whose base name appears in more than one
// source is qualified with the label of the source it came from, so
// "Throughput" from sources A and B ends up as "Throughput - A" and
// "Throughput - B". Columns that only one source carries keep their bare
// name. The same sources can also be stacked row-wise under a provenance
// column instead of being joined.
package merge

import (
	"fmt"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// DefaultProvenanceColumn names the label column of a stacked table.
const DefaultProvenanceColumn = "Scenario Name"

// Source is one CSV file and the label identifying it in merged output.
type Source struct {
	Path  string
	Label string
}

// Options controls Load.
type Options struct {
	// Keys are the join key columns.
	Keys []string
	// ErrorColumn and MaxErrors configure the row filter. Rows whose error
	// count is at least MaxErrors are dropped. An empty ErrorColumn or a
	// MaxErrors of 0 disables the filter.
	ErrorColumn string
	MaxErrors   int
	// ProvenanceColumn names the label column of the stacked table.
	// DefaultProvenanceColumn is used when empty.
	ProvenanceColumn string
	// AuditPath, when set, receives the stacked table as CSV.
	AuditPath string
}

// Result holds the outputs of Load.
type Result struct {
	Sources []*table.Table
	Merged  *table.Table
	Stacked *table.Table
}

// Pair validates parallel file and label lists and zips them into sources.
// At least two sources with distinct labels are required.
func Pair(files, labels []string) ([]Source, error) {
	if len(files) < 2 {
		return nil, config.Invalidf("at least two summary files are required, got %d", len(files))
	}
	if len(files) != len(labels) {
		return nil, config.Invalidf("got %d summary files but %d labels", len(files), len(labels))
	}

	seen := make(map[string]bool, len(labels))
	sources := make([]Source, len(files))
	for i := range files {
		if labels[i] == "" {
			return nil, config.Invalidf("label for %s is empty", files[i])
		}
		if seen[labels[i]] {
			return nil, config.Invalidf("duplicate label %q", labels[i])
		}
		seen[labels[i]] = true
		sources[i] = Source{Path: files[i], Label: labels[i]}
	}
	return sources, nil
}

// Read loads every source and applies the error filter to each.
func Read(sources []Source, opts Options) ([]*table.Table, error) {
	tables := make([]*table.Table, 0, len(sources))
	for _, s := range sources {
		t, err := table.ReadCSV(s.Path, s.Label)
		if err != nil {
			return nil, fmt.Errorf("reading summary %s: %w", s.Path, err)
		}
		tables = append(tables, FilterErrors(t, opts.ErrorColumn, opts.MaxErrors))
	}
	return tables, nil
}

// Load reads the sources, filters them, joins them into the merged table and
// stacks them into the stacked table. The stacked table is also written to
// opts.AuditPath when set.
func Load(sources []Source, opts Options) (*Result, error) {
	if len(sources) < 2 {
		return nil, config.Invalidf("at least two summary files are required, got %d", len(sources))
	}

	tables, err := Read(sources, opts)
	if err != nil {
		return nil, err
	}

	merged, err := Join(tables, opts.Keys)
	if err != nil {
		return nil, fmt.Errorf("merging summaries: %w", err)
	}

	provenance := opts.ProvenanceColumn
	if provenance == "" {
		provenance = DefaultProvenanceColumn
	}
	stacked, err := Stack(tables, provenance)
	if err != nil {
		return nil, fmt.Errorf("stacking summaries: %w", err)
	}

	if opts.AuditPath != "" {
		if err := stacked.WriteCSV(opts.AuditPath); err != nil {
			return nil, fmt.Errorf("writing %s: %w", opts.AuditPath, err)
		}
	}

	return &Result{Sources: tables, Merged: merged, Stacked: stacked}, nil
}

// FilterErrors drops rows whose error count is at least maxErrors. Tables
// without the column, and rows whose count is missing or not a number, are
// kept as they are.
func FilterErrors(t *table.Table, column string, maxErrors int) *table.Table {
	idx := t.Index(column)
	if column == "" || maxErrors <= 0 || idx < 0 {
		return t.Clone()
	}
	return t.Filter(func(row []table.Cell) bool {
		n, err := row[idx].Float()
		return err != nil || n < float64(maxErrors)
	})
}

// Package reshape converts wide metric tables into the long form the chart
// renderer groups by.
package reshape

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pmgledhill102/perfreport/internal/format"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// Default names of the generated long form columns.
const (
	MetricColumn = "Metric"
	SeriesColumn = "Series"
)

// Request describes one melt.
type Request struct {
	// Metrics are the base names of the value columns. In a merged table a
	// base name selects every qualified column sharing it.
	Metrics []string
	// IDs are the columns copied unchanged onto every output row.
	IDs []string
	// Provenance names the column holding each row's provenance label, as in
	// a stacked table. When empty the label comes from the value column
	// itself, as in a merged table.
	Provenance string
	// Category optionally names a column whose value is folded into the
	// series label, such as a formatted message size.
	Category string
	// Value names the output value column.
	Value string
}

// Mode reports how series labels are built for a request.
type Mode int

const (
	// SingleMetric labels series by provenance only.
	SingleMetric Mode = iota
	// MultiMetric labels series by metric name and provenance.
	MultiMetric
)

// ModeOf returns SingleMetric when exactly one distinct metric is requested.
func ModeOf(metrics []string) Mode {
	distinct := slices.Compact(slices.Sorted(slices.Values(metrics)))
	if len(distinct) == 1 {
		return SingleMetric
	}
	return MultiMetric
}

// SeriesLabel builds the legend label for one value.
//
// Single metric: "<provenance>", or "<category> - <provenance>".
// Multi metric: "<metric> - <provenance>", or "<metric> - <provenance> - <category>".
func SeriesLabel(mode Mode, metric, provenance, category string) string {
	if mode == SingleMetric {
		if category != "" {
			return category + " - " + provenance
		}
		return provenance
	}
	label := metric + " - " + provenance
	if category != "" {
		label += " - " + category
	}
	return label
}

// Melt produces one output row per input row and selected value column.
// Output columns are the IDs, the provenance column when set and not already
// an ID, then Metric, the value column and Series. Missing values stay
// missing; row order is not significant.
func Melt(t *table.Table, req Request) (*table.Table, error) {
	if len(req.Metrics) == 0 {
		return nil, errors.New("no metrics to reshape")
	}
	if req.Value == "" {
		return nil, errors.New("no value column name")
	}

	ids, err := t.Require(req.IDs...)
	if err != nil {
		return nil, err
	}

	outNames := slices.Clone(req.IDs)
	prov := -1
	if req.Provenance != "" {
		idx, err := t.Require(req.Provenance)
		if err != nil {
			return nil, err
		}
		prov = idx[0]
		if !slices.Contains(req.IDs, req.Provenance) {
			outNames = append(outNames, req.Provenance)
		}
	}

	cat := -1
	if req.Category != "" {
		idx, err := t.Require(req.Category)
		if err != nil {
			return nil, err
		}
		cat = idx[0]
	}

	type valueColumn struct {
		index  int
		metric string
	}
	var selected []valueColumn
	for _, m := range req.Metrics {
		found := t.WithBase(m)
		if len(found) == 0 {
			return nil, &table.DataFormatError{Source: t.Source, Column: m, Err: table.ErrMissingColumn}
		}
		for _, i := range found {
			selected = append(selected, valueColumn{index: i, metric: m})
		}
	}

	outNames = append(outNames, MetricColumn, req.Value, SeriesColumn)
	out := table.New("", outNames...)
	mode := ModeOf(req.Metrics)

	for r := 0; r < t.Len(); r++ {
		row := t.Row(r)
		for _, vc := range selected {
			cells := make([]table.Cell, 0, len(outNames))
			for _, i := range ids {
				cells = append(cells, row[i])
			}

			provenance := t.Provenance(vc.index)
			if prov >= 0 {
				provenance = row[prov].String()
				if !slices.Contains(req.IDs, req.Provenance) {
					cells = append(cells, row[prov])
				}
			}
			category := ""
			if cat >= 0 {
				category = row[cat].String()
			}

			cells = append(cells,
				table.Value(vc.metric),
				row[vc.index],
				table.Value(SeriesLabel(mode, vc.metric, provenance, category)),
			)
			if err := out.Append(cells); err != nil {
				return nil, fmt.Errorf("reshaping row %d: %w", r, err)
			}
		}
	}

	return out, nil
}

// FormatBytes rewrites an integral byte count column with format.Bytes.
func FormatBytes(t *table.Table, column string) error {
	return formatInts(t, column, format.Bytes)
}

// FormatTime rewrites an integral millisecond column with format.Time.
func FormatTime(t *table.Table, column string) error {
	return formatInts(t, column, format.Time)
}

func formatInts(t *table.Table, column string, fn func(int) string) error {
	return t.Map(column, func(c table.Cell) (table.Cell, error) {
		n, err := c.Int()
		if err != nil {
			return table.Cell{}, err
		}
		if n < 0 {
			return table.Cell{}, fmt.Errorf("negative value %d", n)
		}
		return table.Value(fn(n)), nil
	})
}

package pipeline

import (
	"fmt"

	"github.com/pmgledhill102/perfreport/internal/format"
	"github.com/pmgledhill102/perfreport/internal/merge"
	"github.com/pmgledhill102/perfreport/internal/render"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// plotColumns returns the metric columns in the configured positional range,
// shifted right by offset.
func (r *Runner) plotColumns(t *table.Table, offset int) []string {
	pc := r.cfg.PlotColumns
	return t.SelectRange(pc.Start+offset, pc.End+offset).Names()
}

// Plots renders the heap size battery of a single summary: per heap size,
// regression charts of each plot column against concurrency, message size
// and delay, then line charts per message size and delay and categorical
// charts per delay faceted by message size.
func (r *Runner) Plots(summary string) error {
	return r.run("plots", func(idx *render.Index) error {
		raw, err := r.readSummary(summary)
		if err != nil {
			return err
		}
		cols := r.cfg.Columns
		if _, err := raw.Require(cols.HeapSize); err != nil {
			return err
		}
		metrics := r.plotColumns(raw, 0)
		hue := r.scenarioHue(raw)

		err = each(raw, cols.HeapSize, func(heap string, rows *table.Table) error {
			for _, x := range []string{cols.Concurrency, cols.MessageSize, cols.Delay} {
				for _, y := range metrics {
					err := r.render(idx, render.Chart{
						Kind:     render.Regression,
						Data:     rows,
						X:        x,
						Y:        y,
						Hue:      hue,
						Title:    y + " vs " + x,
						Filename: fmt.Sprintf("lmplot-%s-%s-%s.png", format.Slug(y), format.Slug(x), heap),
					})
					if err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		t, err := r.formatted(raw, true)
		if err != nil {
			return err
		}

		return each(t, cols.HeapSize, func(heap string, rows *table.Table) error {
			return each(rows, cols.Delay, func(delay string, rows *table.Table) error {
				err := each(rows, cols.MessageSize, func(size string, rows *table.Table) error {
					subtitle := fmt.Sprintf("Memory = %s, Message Size = %s, Back-end Service Delay = %s", heap, size, delay)
					for _, y := range metrics {
						err := r.render(idx, render.Chart{
							Kind:     render.Line,
							Data:     rows,
							X:        cols.Concurrency,
							Y:        y,
							Hue:      hue,
							Title:    y + " vs Concurrent Users",
							Subtitle: subtitle,
							Filename: fmt.Sprintf("lineplot-%s-%s-%s-%s.png", format.Slug(y), heap, size, delay),
						})
						if err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}

				subtitle := fmt.Sprintf("Memory = %s, Back-end Service Delay = %s", heap, delay)
				for _, y := range metrics {
					err := r.render(idx, render.Chart{
						Kind:     render.Point,
						Data:     rows,
						X:        cols.Concurrency,
						Y:        y,
						Hue:      hue,
						Facet:    cols.MessageSize,
						Title:    y + " vs Concurrent Users",
						Subtitle: subtitle,
						Filename: fmt.Sprintf("catplot-%s-%s-%s.png", format.Slug(y), heap, delay),
					})
					if err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
}

// ComparePlots stacks several summaries under column, one value per file,
// and renders per heap size, message size and delay a categorical chart of
// every plot column faceted by that column.
func (r *Runner) ComparePlots(files []string, column string, values []string) error {
	sources, err := merge.Pair(files, values)
	if err != nil {
		return err
	}

	return r.run("compare-plots", func(idx *render.Index) error {
		for _, s := range sources {
			r.log.WithField("file", s.Path).WithField(column, s.Label).Info("Reading summary")
		}
		tables, err := merge.Read(sources, r.loadOptions())
		if err != nil {
			return err
		}
		stacked, err := merge.Stack(tables, column)
		if err != nil {
			return fmt.Errorf("stacking summaries: %w", err)
		}

		cols := r.cfg.Columns
		if _, err := stacked.Require(cols.HeapSize); err != nil {
			return err
		}
		// The inserted comparison column shifts every metric one place right.
		metrics := r.plotColumns(stacked, 1)
		hue := r.scenarioHue(stacked)

		t, err := r.formatted(stacked, true)
		if err != nil {
			return err
		}

		return each(t, cols.HeapSize, func(heap string, rows *table.Table) error {
			return each(rows, cols.Delay, func(delay string, rows *table.Table) error {
				return each(rows, cols.MessageSize, func(size string, rows *table.Table) error {
					subtitle := fmt.Sprintf("Memory = %s, Message Size = %s, Back-end Service Delay = %s", heap, size, delay)
					for _, y := range metrics {
						err := r.render(idx, render.Chart{
							Kind:     render.Point,
							Data:     rows,
							X:        cols.Concurrency,
							Y:        y,
							Hue:      hue,
							Facet:    column,
							Title:    y + " vs Concurrent Users",
							Subtitle: subtitle,
							Filename: fmt.Sprintf("comparison-catplot-%s-%s-%s-%s.png", format.Slug(y), heap, size, delay),
						})
						if err != nil {
							return err
						}
					}
					return nil
				})
			})
		})
	})
}

// Package pipeline runs the chart batteries: nested loops over the distinct
// delays, message sizes and heap sizes of a summary, reshaping and rendering
// one chart per combination.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/merge"
	"github.com/pmgledhill102/perfreport/internal/render"
	"github.com/pmgledhill102/perfreport/internal/reshape"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// Output file names.
const (
	IndexFile      = "charts.csv"
	AllResultsFile = "all_results.csv"
	ComparisonFile = "comparison.md"
	ComparisonJSON = "comparison.json"
)

// Runner renders chart batteries into the configured output directory.
type Runner struct {
	cfg      *config.Config
	renderer *render.Renderer
	log      logrus.FieldLogger
}

// NewRunner creates the output directory and returns a runner writing to it.
func NewRunner(cfg *config.Config, log logrus.FieldLogger) (*Runner, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Runner{
		cfg:      cfg,
		renderer: render.NewRenderer(cfg.Output.Dir, cfg.Output.Width, cfg.Output.Height, log),
		log:      log,
	}, nil
}

func (r *Runner) path(name string) string {
	return filepath.Join(r.renderer.Dir(), name)
}

// run executes one battery with a fresh chart index and writes the index
// afterwards. Charts written before a failure are still indexed.
func (r *Runner) run(name string, battery func(idx *render.Index) error) error {
	var idx render.Index
	err := battery(&idx)

	if idx.Len() > 0 {
		if werr := idx.WriteCSV(r.path(IndexFile)); werr != nil {
			err = errors.Join(err, fmt.Errorf("writing chart index: %w", werr))
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	r.log.WithFields(logrus.Fields{
		"battery": name,
		"charts":  idx.Len(),
	}).Info("Charts complete")
	return nil
}

// readSummary reads a single summary CSV and applies the error filter.
func (r *Runner) readSummary(path string) (*table.Table, error) {
	r.log.WithField("file", path).Info("Reading summary")

	t, err := table.ReadCSV(path, "")
	if err != nil {
		return nil, fmt.Errorf("reading summary %s: %w", path, err)
	}
	return merge.FilterErrors(t, r.cfg.Columns.ErrorCount, r.cfg.ErrorThreshold()), nil
}

func (r *Runner) loadOptions() merge.Options {
	return merge.Options{
		Keys:             r.cfg.Keys(),
		ErrorColumn:      r.cfg.Columns.ErrorCount,
		MaxErrors:        r.cfg.ErrorThreshold(),
		ProvenanceColumn: r.cfg.Columns.Scenario,
	}
}

// render draws c. Charts without any data points are skipped.
func (r *Runner) render(idx *render.Index, c render.Chart) error {
	if c.Data.Len() == 0 {
		r.log.WithField("file", c.Filename).Debug("No rows, skipping chart")
		return nil
	}

	err := r.renderer.Render(idx, c)
	if errors.Is(err, render.ErrNoData) {
		r.log.WithField("file", c.Filename).Warn("No values to plot, skipping chart")
		return nil
	}
	return err
}

// renderMelted reshapes t with req and draws the result, hued by series
// label unless c names another hue.
func (r *Runner) renderMelted(idx *render.Index, t *table.Table, req reshape.Request, c render.Chart) error {
	if t.Len() == 0 {
		r.log.WithField("file", c.Filename).Debug("No rows, skipping chart")
		return nil
	}

	long, err := reshape.Melt(t, req)
	if err != nil {
		return fmt.Errorf("reshaping %s: %w", c.Filename, err)
	}

	c.Data = long
	c.Y = req.Value
	if c.Hue == "" {
		c.Hue = reshape.SeriesColumn
	}
	return r.render(idx, c)
}

// each calls fn with every distinct value of column, in order of first
// appearance, and the rows holding it.
func each(t *table.Table, column string, fn func(value string, rows *table.Table) error) error {
	values, err := t.Unique(column)
	if err != nil {
		return err
	}
	for _, v := range values {
		rows, err := t.Where(column, v)
		if err != nil {
			return err
		}
		if err := fn(v.String(), rows); err != nil {
			return err
		}
	}
	return nil
}

// formatted returns a copy of t with the message size column rendered as
// bytes and, when delay is set, the delay column rendered as time.
func (r *Runner) formatted(t *table.Table, delay bool) (*table.Table, error) {
	out := t.Clone()
	if err := reshape.FormatBytes(out, r.cfg.Columns.MessageSize); err != nil {
		return nil, err
	}
	if delay {
		if err := reshape.FormatTime(out, r.cfg.Columns.Delay); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// scenarioHue returns the scenario column when t has one.
func (r *Runner) scenarioHue(t *table.Table) string {
	if t.Index(r.cfg.Columns.Scenario) >= 0 {
		return r.cfg.Columns.Scenario
	}
	return ""
}

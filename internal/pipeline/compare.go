package pipeline

import (
	"fmt"
	"strings"

	"github.com/pmgledhill102/perfreport/internal/merge"
	"github.com/pmgledhill102/perfreport/internal/render"
	"github.com/pmgledhill102/perfreport/internal/report"
	"github.com/pmgledhill102/perfreport/internal/reshape"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// metricChart is one chart of a comparison battery.
type metricChart struct {
	name    string
	metrics []string
	y       string
	title   string
	kind    render.Kind
}

func (r *Runner) comparisonCharts() []metricChart {
	m := r.cfg.Metrics
	return []metricChart{
		{"thrpt", []string{m.Throughput}, m.Throughput, "Throughput vs Concurrent Users", render.Point},
		{"avgt", []string{m.Average}, m.Average, "Average Response Time vs Concurrent Users", render.Point},
		{"response_time", r.cfg.Percentiles(), "Response Time (ms)", "Response Time Percentiles", render.Bar},
		{"loadavg", r.cfg.LoadAverages(), "Load Average", "Load Average", render.Point},
		{"network", r.cfg.Network(), "Network Throughput (KB/sec)", "Network Throughput", render.Point},
		{"gc", []string{m.GCThroughput}, m.GCThroughput, "GC Throughput", render.Point},
	}
}

// Compare merges the summaries of several runs and renders, per delay, the
// comparison charts faceted by message size. The stacked rows are written
// to all_results.csv and the side by side numbers to comparison.md and
// comparison.json.
func (r *Runner) Compare(sources []merge.Source) error {
	return r.run("compare", func(idx *render.Index) error {
		opts := r.loadOptions()
		opts.AuditPath = r.path(AllResultsFile)

		for _, s := range sources {
			r.log.WithField("file", s.Path).WithField("label", s.Label).Info("Reading summary")
		}
		res, err := merge.Load(sources, opts)
		if err != nil {
			return err
		}

		labels := make([]string, len(sources))
		for i, s := range sources {
			labels[i] = s.Label
		}
		if err := r.writeComparison(res.Merged, labels); err != nil {
			return err
		}

		merged, err := r.formatted(res.Merged, false)
		if err != nil {
			return err
		}

		cols := r.cfg.Columns
		return each(merged, cols.Delay, func(delay string, rows *table.Table) error {
			for _, mc := range r.comparisonCharts() {
				err := r.renderMelted(idx, rows, reshape.Request{
					Metrics: mc.metrics,
					IDs:     []string{cols.MessageSize, cols.Concurrency},
					Value:   mc.y,
				}, render.Chart{
					Kind:     mc.kind,
					X:        cols.Concurrency,
					Facet:    cols.MessageSize,
					Title:    fmt.Sprintf("%s for %sms backend delay", mc.title, delay),
					Filename: fmt.Sprintf("comparison_%s_%sms.png", mc.name, delay),
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func (r *Runner) writeComparison(merged *table.Table, labels []string) error {
	m := r.cfg.Metrics

	var comparisons []*report.Comparison
	for _, metric := range []string{m.Throughput, m.Average, m.P99} {
		cmp, err := report.Compare(merged, r.cfg.Keys(), labels, metric)
		if err != nil {
			return fmt.Errorf("comparing %s: %w", metric, err)
		}
		comparisons = append(comparisons, cmp)
	}

	title := "Performance Comparison: " + strings.Join(labels, " vs ")
	if err := report.WriteComparisonMarkdown(comparisons, title, r.path(ComparisonFile)); err != nil {
		return fmt.Errorf("writing comparison markdown: %w", err)
	}
	if err := report.WriteJSON(comparisons, r.path(ComparisonJSON)); err != nil {
		return fmt.Errorf("writing comparison JSON: %w", err)
	}
	return nil
}

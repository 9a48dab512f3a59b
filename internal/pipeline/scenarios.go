package pipeline

import (
	"fmt"

	"github.com/pmgledhill102/perfreport/internal/format"
	"github.com/pmgledhill102/perfreport/internal/render"
	"github.com/pmgledhill102/perfreport/internal/reshape"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// scenarioChart is a chart of one metric against concurrency per scenario.
type scenarioChart struct {
	name   string
	metric string
	ylabel string
}

func (r *Runner) pointCharts() []scenarioChart {
	m := r.cfg.Metrics
	return []scenarioChart{
		{"throughput", m.Throughput, m.Throughput},
		{"average_time", m.Average, m.Average},
		{"max_time", m.Max, m.Max},
		{"p90", m.P90, "90th Percentile (ms)"},
		{"p95", m.P95, "95th Percentile (ms)"},
		{"p99", m.P99, "99th Percentile (ms)"},
		{"gc_throughput", m.GCThroughput, "GC Throughput (%)"},
	}
}

func (r *Runner) regressionCharts() []scenarioChart {
	m := r.cfg.Metrics
	return append(r.pointCharts(),
		scenarioChart{"loadavg_1", m.LoadAvg1, "Load Average - Last 1 minute"},
		scenarioChart{"loadavg_5", m.LoadAvg5, "Load Average - Last 5 minutes"},
		scenarioChart{"loadavg_15", m.LoadAvg15, "Load Average - Last 15 minutes"},
	)
}

// Scenarios renders the battery for a summary holding several scenarios,
// told apart by the scenario column:
//   - comparison charts over all delays, faceted by delay
//   - per delay, comparison charts faceted by message size
//   - per delay and message size, percentile and load average bars and one
//     point chart per metric
//   - regression charts of every metric against message size, delay and
//     concurrency, with and without a hue per scenario
func (r *Runner) Scenarios(summary string) error {
	return r.run("scenarios", func(idx *render.Index) error {
		raw, err := r.readSummary(summary)
		if err != nil {
			return err
		}
		cols := r.cfg.Columns
		if _, err := raw.Require(cols.Scenario); err != nil {
			return err
		}

		t, err := r.formatted(raw, false)
		if err != nil {
			return err
		}

		if err := r.singleComparison(idx, t); err != nil {
			return err
		}
		if err := each(t, cols.Delay, func(delay string, rows *table.Table) error {
			return r.delayComparison(idx, delay, rows)
		}); err != nil {
			return err
		}
		return r.regressions(idx, raw)
	})
}

// singleComparison draws every scenario and message size in one chart per
// metric group, faceted by delay.
func (r *Runner) singleComparison(idx *render.Index, t *table.Table) error {
	cols := r.cfg.Columns
	m := r.cfg.Metrics
	charts := []metricChart{
		{"thrpt", []string{m.Throughput}, m.Throughput, "Throughput", render.Point},
		{"avgt", []string{m.Average}, m.Average, "Average Response Time", render.Point},
		{"gc", []string{m.GCThroughput}, m.GCThroughput, "GC Throughput", render.Point},
		{"response_time", []string{m.P95, m.P99}, "Response Time (ms)", "Response Time Percentiles", render.Bar},
		{"loadavg", r.cfg.LoadAverages(), "Load Average", "Load Average", render.Point},
		{"network", r.cfg.Network(), "Network Throughput (KB/sec)", "Network Throughput", render.Point},
	}

	for _, mc := range charts {
		err := r.renderMelted(idx, t, reshape.Request{
			Metrics:    mc.metrics,
			IDs:        []string{cols.Delay, cols.MessageSize, cols.Concurrency},
			Provenance: cols.Scenario,
			Category:   cols.MessageSize,
			Value:      mc.y,
		}, render.Chart{
			Kind:     mc.kind,
			X:        cols.Concurrency,
			Facet:    cols.Delay,
			Title:    mc.title + " vs Concurrent Users",
			Filename: "comparison_" + mc.name + ".png",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) delayComparison(idx *render.Index, delay string, rows *table.Table) error {
	cols := r.cfg.Columns
	label := delayText(delay)

	for _, mc := range r.comparisonCharts() {
		err := r.renderMelted(idx, rows, reshape.Request{
			Metrics:    mc.metrics,
			IDs:        []string{cols.MessageSize, cols.Concurrency},
			Provenance: cols.Scenario,
			Value:      mc.y,
		}, render.Chart{
			Kind:     mc.kind,
			X:        cols.Concurrency,
			Facet:    cols.MessageSize,
			Title:    fmt.Sprintf("%s for %s backend delay", mc.title, label),
			Filename: fmt.Sprintf("comparison_%s_%sms.png", mc.name, delay),
		})
		if err != nil {
			return err
		}
	}

	return each(rows, cols.MessageSize, func(size string, rows *table.Table) error {
		suffix := "_" + label + "_" + size
		titleSuffix := fmt.Sprintf(" for %s messages with %s backend delay", size, label)

		bars := []metricChart{
			{"response_time", r.cfg.Percentiles(), "Response Time (ms)", "Response Time Percentiles", render.Bar},
			{"loadavg", r.cfg.LoadAverages(), "Load Average", "Load Average", render.Bar},
		}
		for _, mc := range bars {
			err := r.renderMelted(idx, rows, reshape.Request{
				Metrics:    mc.metrics,
				IDs:        []string{cols.Concurrency},
				Provenance: cols.Scenario,
				Value:      mc.y,
			}, render.Chart{
				Kind:     mc.kind,
				X:        cols.Concurrency,
				Title:    mc.title + titleSuffix,
				Filename: mc.name + suffix + ".png",
			})
			if err != nil {
				return err
			}
		}

		for _, sc := range r.pointCharts() {
			err := r.render(idx, render.Chart{
				Kind:     render.Point,
				Data:     rows,
				X:        cols.Concurrency,
				Y:        sc.metric,
				Hue:      cols.Scenario,
				Title:    sc.ylabel + " vs Concurrent Users" + titleSuffix,
				YLabel:   sc.ylabel,
				Filename: sc.name + suffix + ".png",
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// regressions draws every metric against each key column on the unformatted
// summary.
func (r *Runner) regressions(idx *render.Index, t *table.Table) error {
	cols := r.cfg.Columns
	xs := []struct{ column, name string }{
		{cols.MessageSize, "message_size"},
		{cols.Delay, "sleep_time"},
		{cols.Concurrency, "concurrent_users"},
	}

	for _, sc := range r.regressionCharts() {
		for _, x := range xs {
			chart := render.Chart{
				Kind:     render.Regression,
				Data:     t,
				X:        x.column,
				Y:        sc.metric,
				Title:    sc.ylabel + " vs " + x.column,
				YLabel:   sc.ylabel,
				Filename: fmt.Sprintf("lmplot_%s_vs_%s.png", sc.name, x.name),
			}
			if err := r.render(idx, chart); err != nil {
				return err
			}

			chart.Hue = cols.Scenario
			chart.Filename = fmt.Sprintf("lmplot_%s_vs_%s_with_hue.png", sc.name, x.name)
			if err := r.render(idx, chart); err != nil {
				return err
			}
		}
	}
	return nil
}

// delayText formats a raw delay in milliseconds, falling back to the raw
// value with a unit when it is not a whole number.
func delayText(delay string) string {
	n, err := table.Value(delay).Int()
	if err != nil || n < 0 {
		return delay + "ms"
	}
	return format.Time(n)
}

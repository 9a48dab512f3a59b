package pipeline

import (
	"fmt"

	"github.com/pmgledhill102/perfreport/internal/render"
	"github.com/pmgledhill102/perfreport/internal/reshape"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// Charts renders the single summary battery: per delay, point charts of
// throughput, average latency and GC throughput hued by message size, and
// per message size a bar chart of the response time summary.
func (r *Runner) Charts(summary string) error {
	return r.run("charts", func(idx *render.Index) error {
		t, err := r.readSummary(summary)
		if err != nil {
			return err
		}
		t, err = r.formatted(t, false)
		if err != nil {
			return err
		}

		cols, m := r.cfg.Columns, r.cfg.Metrics
		return each(t, cols.Delay, func(delay string, rows *table.Table) error {
			lines := []struct {
				name, metric, title, ylabel string
			}{
				{"thrpt", m.Throughput, "Throughput", m.Throughput},
				{"avgt", m.Average, "Average Response Time", m.Average},
				{"gc", m.GCThroughput, "GC Throughput", "GC Throughput (%)"},
			}
			for _, l := range lines {
				err := r.render(idx, render.Chart{
					Kind:     render.Point,
					Data:     rows,
					X:        cols.Concurrency,
					Y:        l.metric,
					Hue:      cols.MessageSize,
					Title:    fmt.Sprintf("%s vs Concurrent Users for %sms backend delay", l.title, delay),
					YLabel:   l.ylabel,
					Filename: fmt.Sprintf("%s_%sms.png", l.name, delay),
				})
				if err != nil {
					return err
				}
			}

			return each(rows, cols.MessageSize, func(size string, rows *table.Table) error {
				return r.renderMelted(idx, rows, reshape.Request{
					Metrics: []string{m.Min, m.P90, m.P95, m.P99, m.Max},
					IDs:     []string{cols.Concurrency},
					Value:   "Response Time (ms)",
				}, render.Chart{
					Kind:     render.Bar,
					X:        cols.Concurrency,
					Hue:      reshape.MetricColumn,
					Title:    fmt.Sprintf("Response Time Summary for %s messages with %sms backend delay", size, delay),
					Filename: fmt.Sprintf("response_time_summary_%s_%sms.png", size, delay),
				})
			})
		})
	})
}

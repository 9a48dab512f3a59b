package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmgledhill102/perfreport/internal/config"
	"github.com/pmgledhill102/perfreport/internal/merge"
	"github.com/pmgledhill102/perfreport/internal/report"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// fixture describes a synthetic summary CSV.
type fixture struct {
	scenarios []string // empty for a summary without a scenario column
	heaps     []string
	sizes     []int
	delays    []int
	users     []int
	errors    func(delay int) int
	scale     float64
}

func (f fixture) csv(cfg *config.Config) string {
	m := cfg.Metrics
	header := []string{
		cfg.Columns.HeapSize, cfg.Columns.MessageSize, cfg.Columns.Delay, cfg.Columns.Concurrency,
		cfg.Columns.ErrorCount, "Total Requests",
		m.Throughput, m.Average, m.Min, m.Max, m.P90, m.P95, m.P99,
		m.GCThroughput, m.LoadAvg1, m.LoadAvg5, m.LoadAvg15, m.Received, m.Sent,
	}
	scenarios := f.scenarios
	if len(scenarios) == 0 {
		scenarios = []string{""}
	} else {
		header = append([]string{cfg.Columns.Scenario}, header...)
	}
	scale := f.scale
	if scale == 0 {
		scale = 1
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(header, ",") + "\n")
	for s, scenario := range scenarios {
		for _, heap := range f.heaps {
			for _, size := range f.sizes {
				for _, delay := range f.delays {
					for _, users := range f.users {
						errs := 0
						if f.errors != nil {
							errs = f.errors(delay)
						}
						thrpt := scale * float64(10000-users*10-delay-s*100)
						avg := float64(delay) + float64(users)/10 + float64(s)
						if scenario != "" {
							sb.WriteString(scenario + ",")
						}
						fmt.Fprintf(&sb, "%s,%d,%d,%d,%d,%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f\n",
							heap, size, delay, users, errs, users*100,
							thrpt, avg, avg/2, avg*3, avg*1.2, avg*1.5, avg*2,
							99.5-float64(s), 1.5, 1.2, 1.0, thrpt/10, thrpt/20)
					}
				}
			}
		}
	}
	return sb.String()
}

func newRunner(t *testing.T) (*Runner, *config.Config) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.Width = 3
	cfg.Output.Height = 2

	log, _ := test.NewNullLogger()
	r, err := NewRunner(cfg, log)
	require.NoError(t, err)
	return r, cfg
}

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func readIndex(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	idx, err := table.ReadCSV(filepath.Join(cfg.Output.Dir, IndexFile), "")
	require.NoError(t, err)
	require.Equal(t, []string{"Filename", "Title"}, idx.Names())

	var files []string
	for i := 0; i < idx.Len(); i++ {
		files = append(files, idx.Row(i)[0].String())
	}
	return files
}

func assertFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		assert.FileExists(t, filepath.Join(dir, n))
	}
}

func TestCharts(t *testing.T) {
	r, cfg := newRunner(t)
	summary := write(t, "summary.csv", fixture{
		heaps:  []string{"1G"},
		sizes:  []int{50, 1024},
		delays: []int{0, 30, 60},
		users:  []int{50, 100},
		errors: func(delay int) int {
			if delay == 60 {
				return 500
			}
			return 0
		},
	}.csv(cfg))

	require.NoError(t, r.Charts(summary))

	assertFiles(t, cfg.Output.Dir,
		"thrpt_0ms.png", "avgt_0ms.png", "gc_0ms.png",
		"thrpt_30ms.png", "avgt_30ms.png", "gc_30ms.png",
		"response_time_summary_50B_0ms.png", "response_time_summary_1KiB_0ms.png",
		"response_time_summary_50B_30ms.png", "response_time_summary_1KiB_30ms.png",
	)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "thrpt_60ms.png"), "rows over the error limit are dropped")

	files := readIndex(t, cfg)
	assert.Len(t, files, 10)
	assert.IsIncreasing(t, files)
}

func TestChartsMissingSummary(t *testing.T) {
	r, cfg := newRunner(t)
	assert.Error(t, r.Charts(filepath.Join(t.TempDir(), "missing.csv")))
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, IndexFile))
}

func TestChartsFilterDisabled(t *testing.T) {
	r, cfg := newRunner(t)
	off := 0
	cfg.Filter.MaxErrors = &off

	summary := write(t, "summary.csv", fixture{
		heaps:  []string{"1G"},
		sizes:  []int{50, 1024},
		delays: []int{0, 60},
		users:  []int{50, 100},
		errors: func(int) int { return 500 },
	}.csv(cfg))

	require.NoError(t, r.Charts(summary))
	assertFiles(t, cfg.Output.Dir, "thrpt_60ms.png", "response_time_summary_1KiB_60ms.png")
	assert.Len(t, readIndex(t, cfg), 10)
}

func TestCompare(t *testing.T) {
	r, cfg := newRunner(t)
	base := fixture{heaps: []string{"1G"}, sizes: []int{1024}, delays: []int{0, 30}, users: []int{50, 100}}
	slower := base
	slower.scale = 0.5

	sources := []merge.Source{
		{Path: write(t, "a.csv", base.csv(cfg)), Label: "A"},
		{Path: write(t, "b.csv", slower.csv(cfg)), Label: "B"},
	}
	require.NoError(t, r.Compare(sources))

	for _, d := range []string{"0", "30"} {
		for _, name := range []string{"thrpt", "avgt", "response_time", "loadavg", "network", "gc"} {
			assertFiles(t, cfg.Output.Dir, fmt.Sprintf("comparison_%s_%sms.png", name, d))
		}
	}
	assert.Len(t, readIndex(t, cfg), 12)

	all, err := table.ReadCSV(filepath.Join(cfg.Output.Dir, AllResultsFile), "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Columns.Scenario, all.Names()[0])
	assert.Equal(t, 8, all.Len())

	md, err := os.ReadFile(filepath.Join(cfg.Output.Dir, ComparisonFile))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Performance Comparison: A vs B\n")
	assert.Contains(t, string(md), "- Throughput (Requests/sec): B averages 0.50x of A over 4 configurations\n")

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, ComparisonJSON))
	require.NoError(t, err)
	var comparisons []report.Comparison
	require.NoError(t, json.Unmarshal(data, &comparisons))
	require.Len(t, comparisons, 3)
	assert.Equal(t, cfg.Metrics.Throughput, comparisons[0].Metric)
	assert.Len(t, comparisons[0].Rows, 4)
}

func TestCompareErrors(t *testing.T) {
	r, cfg := newRunner(t)
	base := fixture{heaps: []string{"1G"}, sizes: []int{1024}, delays: []int{0}, users: []int{50}}
	a := write(t, "a.csv", base.csv(cfg))

	err := r.Compare([]merge.Source{{Path: a, Label: "A"}})
	assert.True(t, config.IsConfigurationError(err))

	noKey := write(t, "nokey.csv", "Concurrent Users,Throughput (Requests/sec)\n50,1\n")
	err = r.Compare([]merge.Source{{Path: a, Label: "A"}, {Path: noKey, Label: "B"}})
	assert.ErrorIs(t, err, table.ErrMissingColumn)
}

func TestScenarios(t *testing.T) {
	r, cfg := newRunner(t)
	summary := write(t, "summary.csv", fixture{
		scenarios: []string{"passthrough", "transformation"},
		heaps:     []string{"1G"},
		sizes:     []int{1024},
		delays:    []int{0, 30},
		users:     []int{50, 100},
	}.csv(cfg))

	require.NoError(t, r.Scenarios(summary))

	assertFiles(t, cfg.Output.Dir,
		"comparison_thrpt.png", "comparison_response_time.png", "comparison_network.png",
		"comparison_thrpt_0ms.png", "comparison_gc_30ms.png",
		"response_time_0ms_1KiB.png", "loadavg_30ms_1KiB.png",
		"throughput_0ms_1KiB.png", "p99_30ms_1KiB.png", "gc_throughput_0ms_1KiB.png",
		"lmplot_throughput_vs_message_size.png", "lmplot_throughput_vs_message_size_with_hue.png",
		"lmplot_loadavg_15_vs_concurrent_users_with_hue.png", "lmplot_p90_vs_sleep_time.png",
	)

	// 6 over all delays, 15 per delay and 60 regressions.
	assert.Len(t, readIndex(t, cfg), 6+2*15+60)
}

func TestScenariosRequiresScenarioColumn(t *testing.T) {
	r, cfg := newRunner(t)
	summary := write(t, "summary.csv", fixture{
		heaps: []string{"1G"}, sizes: []int{1024}, delays: []int{0}, users: []int{50},
	}.csv(cfg))

	assert.ErrorIs(t, r.Scenarios(summary), table.ErrMissingColumn)
}

func TestPlots(t *testing.T) {
	r, cfg := newRunner(t)
	// Throughput and average response time.
	cfg.PlotColumns = config.PlotColumnsConfig{Start: 6, End: 8}

	summary := write(t, "summary.csv", fixture{
		heaps:  []string{"1G", "2G"},
		sizes:  []int{1024},
		delays: []int{0, 30},
		users:  []int{50, 100},
	}.csv(cfg))

	require.NoError(t, r.Plots(summary))

	assertFiles(t, cfg.Output.Dir,
		"lmplot-throughput-concurrent-users-1G.png",
		"lmplot-average-response-time-message-size-2G.png",
		"lmplot-throughput-back-end-service-delay-2G.png",
		"lineplot-average-response-time-2G-1KiB-30ms.png",
		"lineplot-throughput-1G-1KiB-0ms.png",
		"catplot-throughput-1G-0ms.png",
		"catplot-average-response-time-2G-30ms.png",
	)

	// Per heap: 6 regressions and, per delay, 2 line and 2 categorical charts.
	assert.Len(t, readIndex(t, cfg), 2*(6+2*4))
}

func TestComparePlots(t *testing.T) {
	r, cfg := newRunner(t)
	cfg.PlotColumns = config.PlotColumnsConfig{Start: 6, End: 8}

	f := fixture{heaps: []string{"1G"}, sizes: []int{1024}, delays: []int{0, 30}, users: []int{50, 100}}
	files := []string{write(t, "a.csv", f.csv(cfg)), write(t, "b.csv", f.csv(cfg))}

	require.NoError(t, r.ComparePlots(files, "Version", []string{"4.0.0", "4.1.0"}))

	assertFiles(t, cfg.Output.Dir,
		"comparison-catplot-throughput-1G-1KiB-0ms.png",
		"comparison-catplot-average-response-time-1G-1KiB-30ms.png",
	)
	assert.Len(t, readIndex(t, cfg), 4)
}

func TestComparePlotsArguments(t *testing.T) {
	r, cfg := newRunner(t)
	f := fixture{heaps: []string{"1G"}, sizes: []int{1024}, delays: []int{0}, users: []int{50}}
	a := write(t, "a.csv", f.csv(cfg))

	tests := []struct {
		name   string
		files  []string
		values []string
	}{
		{"one file", []string{a}, []string{"x"}},
		{"missing value", []string{a, a}, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ComparePlots(tt.files, "Version", tt.values)
			assert.True(t, config.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestDelayText(t *testing.T) {
	assert.Equal(t, "0ms", delayText("0"))
	assert.Equal(t, "2s", delayText("2000"))
	assert.Equal(t, "1.5ms", delayText("1.5"))
}

// Package config handles YAML configuration loading for report generation.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables that override file values.
const EnvPrefix = "PERFREPORT"

// Config represents the complete report configuration.
type Config struct {
	Columns     ColumnsConfig     `yaml:"columns"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Filter      FilterConfig      `yaml:"filter"`
	PlotColumns PlotColumnsConfig `yaml:"plot_columns"`
	Output      OutputConfig      `yaml:"output"`
	Templates   TemplatesConfig   `yaml:"templates"`
}

// ColumnsConfig names the key and grouping columns of a summary CSV.
type ColumnsConfig struct {
	MessageSize string `yaml:"message_size"`
	Delay       string `yaml:"delay"`
	Concurrency string `yaml:"concurrency"`
	HeapSize    string `yaml:"heap_size"`
	Scenario    string `yaml:"scenario"`
	ErrorCount  string `yaml:"error_count"`
}

// MetricsConfig names the measurement columns used by the chart batteries.
type MetricsConfig struct {
	Throughput   string `yaml:"throughput"`
	Average      string `yaml:"average"`
	Min          string `yaml:"min"`
	Max          string `yaml:"max"`
	P90          string `yaml:"p90"`
	P95          string `yaml:"p95"`
	P99          string `yaml:"p99"`
	GCThroughput string `yaml:"gc_throughput"`
	LoadAvg1     string `yaml:"load_average_1"`
	LoadAvg5     string `yaml:"load_average_5"`
	LoadAvg15    string `yaml:"load_average_15"`
	Received     string `yaml:"network_received"`
	Sent         string `yaml:"network_sent"`
}

// DefaultMaxErrors is the error count at which a summary row is dropped.
const DefaultMaxErrors = 100

// FilterConfig controls the row quality filter. Rows whose error count is at
// least MaxErrors are dropped; an explicit 0 turns the filter off.
type FilterConfig struct {
	MaxErrors *int `yaml:"max_errors"`
}

// PlotColumnsConfig is the positional range of metric columns plotted by the
// heap size batteries. End is exclusive.
type PlotColumnsConfig struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// OutputConfig controls where and how large charts are written.
type OutputConfig struct {
	Dir    string  `yaml:"dir"`
	Width  float64 `yaml:"width"`  // inches
	Height float64 `yaml:"height"` // inches
}

// TemplatesConfig points at a directory of user supplied templates.
type TemplatesConfig struct {
	Dir string `yaml:"dir"`
}

// envOverrides holds the values read from PERFREPORT_* variables.
type envOverrides struct {
	OutputDir    string `envconfig:"OUTPUT_DIR"`
	TemplatesDir string `envconfig:"TEMPLATES_DIR"`
	MaxErrors    *int   `envconfig:"MAX_ERRORS"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses a YAML configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	c.applyDefaults()

	if err := c.validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

// applyEnv copies environment overrides over file values.
func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return err
	}

	if env.OutputDir != "" {
		c.Output.Dir = env.OutputDir
	}
	if env.TemplatesDir != "" {
		c.Templates.Dir = env.TemplatesDir
	}
	if env.MaxErrors != nil {
		c.Filter.MaxErrors = env.MaxErrors
	}
	return nil
}

// applyDefaults sets default values for unset configuration options.
func (c *Config) applyDefaults() {
	setDefault(&c.Columns.MessageSize, "Message Size (Bytes)")
	setDefault(&c.Columns.Delay, "Back-end Service Delay (ms)")
	setDefault(&c.Columns.Concurrency, "Concurrent Users")
	setDefault(&c.Columns.HeapSize, "Heap Size")
	setDefault(&c.Columns.Scenario, "Scenario Name")
	setDefault(&c.Columns.ErrorCount, "Error Count")

	setDefault(&c.Metrics.Throughput, "Throughput (Requests/sec)")
	setDefault(&c.Metrics.Average, "Average Response Time (ms)")
	setDefault(&c.Metrics.Min, "Minimum Response Time (ms)")
	setDefault(&c.Metrics.Max, "Maximum Response Time (ms)")
	setDefault(&c.Metrics.P90, "90th Percentile of Response Time (ms)")
	setDefault(&c.Metrics.P95, "95th Percentile of Response Time (ms)")
	setDefault(&c.Metrics.P99, "99th Percentile of Response Time (ms)")
	setDefault(&c.Metrics.GCThroughput, "API Manager GC Throughput (%)")
	setDefault(&c.Metrics.LoadAvg1, "API Manager Load Average - Last 1 minute")
	setDefault(&c.Metrics.LoadAvg5, "API Manager Load Average - Last 5 minutes")
	setDefault(&c.Metrics.LoadAvg15, "API Manager Load Average - Last 15 minutes")
	setDefault(&c.Metrics.Received, "Received (KB/sec)")
	setDefault(&c.Metrics.Sent, "Sent (KB/sec)")

	if c.Filter.MaxErrors == nil {
		n := DefaultMaxErrors
		c.Filter.MaxErrors = &n
	}

	if c.PlotColumns.Start == 0 && c.PlotColumns.End == 0 {
		c.PlotColumns.Start = 9
		c.PlotColumns.End = 23
	}

	setDefault(&c.Output.Dir, ".")
	if c.Output.Width == 0 {
		c.Output.Width = 8
	}
	if c.Output.Height == 0 {
		c.Output.Height = 6
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// validate checks that the configuration is valid.
func (c *Config) validate() error {
	if *c.Filter.MaxErrors < 0 {
		return Invalidf("filter.max_errors must not be negative, got %d", *c.Filter.MaxErrors)
	}

	if c.PlotColumns.Start < 0 || c.PlotColumns.End <= c.PlotColumns.Start {
		return Invalidf("plot_columns range [%d, %d) is empty", c.PlotColumns.Start, c.PlotColumns.End)
	}

	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return Invalidf("output.width and output.height must be positive")
	}

	return nil
}

// Keys returns the join key columns: message size, delay and concurrency.
func (c *Config) Keys() []string {
	return []string{c.Columns.MessageSize, c.Columns.Delay, c.Columns.Concurrency}
}

// ErrorThreshold returns the error count at which rows are dropped, 0 when
// the filter is off.
func (c *Config) ErrorThreshold() int {
	if c.Filter.MaxErrors == nil {
		return DefaultMaxErrors
	}
	return *c.Filter.MaxErrors
}

// Percentiles returns the p90, p95 and p99 metric columns.
func (c *Config) Percentiles() []string {
	return []string{c.Metrics.P90, c.Metrics.P95, c.Metrics.P99}
}

// LoadAverages returns the 1, 5 and 15 minute load average columns.
func (c *Config) LoadAverages() []string {
	return []string{c.Metrics.LoadAvg1, c.Metrics.LoadAvg5, c.Metrics.LoadAvg15}
}

// Network returns the received and sent network columns.
func (c *Config) Network() []string {
	return []string{c.Metrics.Received, c.Metrics.Sent}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "perfreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxErrors, cfg.ErrorThreshold())
	assert.Equal(t, 9, cfg.PlotColumns.Start)
	assert.Equal(t, 23, cfg.PlotColumns.End)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, []string{"Message Size (Bytes)", "Back-end Service Delay (ms)", "Concurrent Users"}, cfg.Keys())
	assert.Len(t, cfg.Percentiles(), 3)
	assert.Len(t, cfg.LoadAverages(), 3)
	assert.Len(t, cfg.Network(), 2)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
columns:
  delay: Sleep Time (ms)
metrics:
  throughput: Throughput
filter:
  max_errors: 5
output:
  dir: out
  width: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Sleep Time (ms)", cfg.Columns.Delay)
	assert.Equal(t, "Message Size (Bytes)", cfg.Columns.MessageSize)
	assert.Equal(t, "Throughput", cfg.Metrics.Throughput)
	assert.Equal(t, 5, cfg.ErrorThreshold())
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, 10.0, cfg.Output.Width)
	assert.Equal(t, 6.0, cfg.Output.Height)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PERFREPORT_OUTPUT_DIR", "from-env")
	t.Setenv("PERFREPORT_MAX_ERRORS", "7")
	t.Setenv("PERFREPORT_TEMPLATES_DIR", "templates")

	cfg, err := Load(writeConfig(t, "output:\n  dir: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Output.Dir)
	assert.Equal(t, 7, cfg.ErrorThreshold())
	assert.Equal(t, "templates", cfg.Templates.Dir)
}

func TestFilterCanBeDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, "filter:\n  max_errors: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ErrorThreshold())

	t.Setenv("PERFREPORT_MAX_ERRORS", "0")
	cfg, err = Load(writeConfig(t, "filter:\n  max_errors: 50\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ErrorThreshold())

	t.Setenv("PERFREPORT_MAX_ERRORS", "-3")
	_, err = Load("")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative max errors", "filter:\n  max_errors: -1\n"},
		{"empty plot range", "plot_columns:\n  start: 10\n  end: 4\n"},
		{"negative width", "output:\n  width: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")

	_, err = Load(writeConfig(t, "columns: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

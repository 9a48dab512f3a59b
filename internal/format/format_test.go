package format

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0B"},
		{50, "50B"},
		{1023, "1023B"},
		{1024, "1KiB"},
		{1500, "1500B"},
		{2048, "2KiB"},
		{102400, "100KiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Bytes(tt.in), "Bytes(%d)", tt.in)
	}
}

func TestTime(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0ms"},
		{30, "30ms"},
		{500, "500ms"},
		{1000, "1s"},
		{1500, "1500ms"},
		{2000, "2s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Time(tt.in), "Time(%d)", tt.in)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Throughput (Requests/sec)", "throughput"},
		{"90th Percentile of Response Time (ms)", "90th-percentile-of-response-time"},
		{"API Manager Load Average - Last 1 minute", "api-manager-load-average-last-1-minute"},
		{"Received (KB/sec)", "received"},
		{"GC Throughput (%)", "gc-throughput"},
		{"Concurrent Users", "concurrent-users"},
		{"message_size", "message-size"},
		{"  spaced   out  ", "spaced-out"},
		{"Café: 100%!", "caf-100"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), "Slug(%q)", tt.in)
	}
}

func TestSlugIdempotentAndSafe(t *testing.T) {
	safe := regexp.MustCompile(`^[a-z0-9-]*$`)
	inputs := []string{
		"Throughput (Requests/sec)",
		"-- leading -- and trailing --",
		"tabs\tand\nnewlines",
		"Ünïcödé (x) ✓ done",
		"a (b) c (d)",
		"under_score__run",
		"(unclosed",
	}
	for _, in := range inputs {
		once := Slug(in)
		assert.Regexp(t, safe, once, "Slug(%q)", in)
		assert.Equal(t, once, Slug(once), "Slug not idempotent for %q", in)
	}
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", Thousands(0))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "1,000", Thousands(1000))
	assert.Equal(t, "12,345.68", Thousands(12345.678))
	assert.Equal(t, "1,234.5", Thousands(1234.5))
	assert.Equal(t, "-2,500", Thousands(-2500))
}

// Package format holds the pure string helpers used for chart categories,
// file names and report tables.
package format

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Bytes renders a byte count as "<n>KiB" when it is a non-zero multiple of
// 1024 and "<n>B" otherwise.
func Bytes(b int) string {
	if b >= 1024 && b%1024 == 0 {
		return strconv.Itoa(b/1024) + "KiB"
	}
	return strconv.Itoa(b) + "B"
}

// Time renders a millisecond duration as "<n>s" when it is a non-zero
// multiple of 1000 and "<n>ms" otherwise.
func Time(ms int) string {
	if ms >= 1000 && ms%1000 == 0 {
		return strconv.Itoa(ms/1000) + "s"
	}
	return strconv.Itoa(ms) + "ms"
}

var (
	parenthetical = regexp.MustCompile(`\(.*\)`)
	unsafeChars   = regexp.MustCompile(`[^a-z0-9\s_-]`)
	separatorRuns = regexp.MustCompile(`[\s_-]+`)
)

// Slug turns a metric label into a file name fragment: parenthetical units
// are dropped, the rest is lowercased, punctuation is removed and runs of
// spaces, underscores and hyphens become a single hyphen.
//
//	Slug("90th Percentile of Response Time (ms)") == "90th-percentile-of-response-time"
func Slug(s string) string {
	s = parenthetical.ReplaceAllString(s, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = unsafeChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return separatorRuns.ReplaceAllString(s, "-")
}

var printer = message.NewPrinter(language.English)

// Thousands formats f with comma thousands separators, keeping up to two
// decimals: 12345.678 becomes "12,345.68" and 1000 becomes "1,000".
func Thousands(f float64) string {
	if f == float64(int64(f)) {
		return printer.Sprintf("%d", int64(f))
	}
	s := printer.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

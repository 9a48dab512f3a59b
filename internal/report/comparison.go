package report

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/pmgledhill102/perfreport/internal/format"
	"github.com/pmgledhill102/perfreport/internal/table"
)

// Comparison holds one metric of a merged table side by side per source.
// The first label is the baseline deltas and ratios are measured against.
type Comparison struct {
	Metric string          `json:"metric"`
	Keys   []string        `json:"keys"`
	Labels []string        `json:"labels"`
	Rows   []ComparisonRow `json:"rows"`
}

// ComparisonRow is one key tuple of a Comparison.
type ComparisonRow struct {
	Key    []string      `json:"key"`
	Values []Measurement `json:"values"`
}

// Measurement is a metric value of one source. OK is false when the source
// has no value for the row.
type Measurement struct {
	Value float64 `json:"value"`
	OK    bool    `json:"ok"`
}

// Delta returns value i minus the baseline.
func (r ComparisonRow) Delta(i int) (float64, bool) {
	if !r.Values[0].OK || !r.Values[i].OK {
		return 0, false
	}
	return r.Values[i].Value - r.Values[0].Value, true
}

// Ratio returns value i divided by the baseline.
func (r ComparisonRow) Ratio(i int) (float64, bool) {
	if !r.Values[0].OK || !r.Values[i].OK || r.Values[0].Value == 0 {
		return 0, false
	}
	return r.Values[i].Value / r.Values[0].Value, true
}

// Compare lines up metric per source for every row of a merged table. The
// metric column of each label is found by provenance, so both qualified
// ("Throughput - A") and single-source bare columns resolve.
func Compare(merged *table.Table, keys, labels []string, metric string) (*Comparison, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("comparing %s: need at least two labels", metric)
	}

	keyIdx, err := merged.Require(keys...)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]int)
	for _, i := range merged.WithBase(metric) {
		byLabel[merged.Provenance(i)] = i
	}
	if len(byLabel) == 0 {
		return nil, &table.DataFormatError{Column: metric, Err: table.ErrMissingColumn}
	}

	cmp := &Comparison{Metric: metric, Keys: keys, Labels: labels}
	for r := 0; r < merged.Len(); r++ {
		row := merged.Row(r)
		cr := ComparisonRow{
			Key:    make([]string, len(keyIdx)),
			Values: make([]Measurement, len(labels)),
		}
		for j, k := range keyIdx {
			cr.Key[j] = row[k].String()
		}
		for j, label := range labels {
			i, ok := byLabel[label]
			if !ok {
				continue
			}
			if v, err := row[i].Float(); err == nil {
				cr.Values[j] = Measurement{Value: v, OK: true}
			}
		}
		cmp.Rows = append(cmp.Rows, cr)
	}
	return cmp, nil
}

// WriteComparisonMarkdown writes the comparisons to a Markdown file, one
// table per metric followed by the findings.
func WriteComparisonMarkdown(comparisons []*Comparison, title, path string) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	if len(comparisons) > 0 {
		sb.WriteString(fmt.Sprintf("**Baseline:** %s\n\n", comparisons[0].Labels[0]))
	}

	for _, cmp := range comparisons {
		writeComparisonTable(&sb, cmp)
	}

	sb.WriteString("## Analysis\n\n")
	for _, cmp := range comparisons {
		for _, finding := range analyzeComparison(cmp) {
			sb.WriteString(fmt.Sprintf("- %s\n", finding))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Delta**: Source - Baseline (positive = higher than the baseline)\n")
	sb.WriteString("- **Ratio**: Source / Baseline (>1 = higher than the baseline)\n")

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

func writeComparisonTable(sb *strings.Builder, cmp *Comparison) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", cmp.Metric))

	header := append([]string{}, cmp.Keys...)
	header = append(header, cmp.Labels...)
	for _, l := range cmp.Labels[1:] {
		header = append(header, l+" Delta", l+" Ratio")
	}
	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")
	sb.WriteString(strings.Repeat("|---", len(header)) + "|\n")

	for _, row := range cmp.Rows {
		cells := append([]string{}, row.Key...)
		for _, m := range row.Values {
			cells = append(cells, formatValue(m.Value, m.OK))
		}
		for i := 1; i < len(cmp.Labels); i++ {
			cells = append(cells, formatDelta(row.Delta(i)), formatRatio(row.Ratio(i)))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	sb.WriteString("\n")
}

func formatValue(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return format.Thousands(v)
}

// formatDelta formats a signed difference for display.
func formatDelta(d float64, ok bool) string {
	if !ok || d == 0 {
		return "-"
	}
	if d > 0 {
		return "+" + format.Thousands(d)
	}
	return "-" + format.Thousands(-d)
}

func formatRatio(r float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2fx", r)
}

// analyzeComparison generates findings from the comparison: the average
// ratio of each source against the baseline and the rows where it is
// highest and lowest.
func analyzeComparison(cmp *Comparison) []string {
	var findings []string

	for i := 1; i < len(cmp.Labels); i++ {
		var total float64
		var count int
		highest, lowest := -1, -1
		highestRatio, lowestRatio := math.Inf(-1), math.Inf(1)

		for r, row := range cmp.Rows {
			ratio, ok := row.Ratio(i)
			if !ok {
				continue
			}
			total += ratio
			count++
			if ratio > highestRatio {
				highestRatio, highest = ratio, r
			}
			if ratio < lowestRatio {
				lowestRatio, lowest = ratio, r
			}
		}

		if count == 0 {
			findings = append(findings, fmt.Sprintf("%s: no configurations shared by %s and %s",
				cmp.Metric, cmp.Labels[i], cmp.Labels[0]))
			continue
		}

		findings = append(findings, fmt.Sprintf("%s: %s averages %.2fx of %s over %d configurations",
			cmp.Metric, cmp.Labels[i], total/float64(count), cmp.Labels[0], count))
		findings = append(findings, fmt.Sprintf("%s: highest ratio for %s at %s (%.2fx)",
			cmp.Metric, cmp.Labels[i], describeKey(cmp, highest), highestRatio))
		findings = append(findings, fmt.Sprintf("%s: lowest ratio for %s at %s (%.2fx)",
			cmp.Metric, cmp.Labels[i], describeKey(cmp, lowest), lowestRatio))
	}

	return findings
}

func describeKey(cmp *Comparison, row int) string {
	parts := make([]string, len(cmp.Keys))
	for j, k := range cmp.Keys {
		parts[j] = k + " = " + cmp.Rows[row].Key[j]
	}
	return strings.Join(parts, ", ")
}

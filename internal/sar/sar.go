// Package sar averages system activity reports exported as CSV with
// "sadf -d -U": semicolon separated, one row per sample, epoch timestamps.
package sar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/pmgledhill102/perfreport/internal/table"
)

const (
	hostnameColumn  = "hostname"
	intervalColumn  = "interval"
	timestampColumn = "timestamp"
)

var strippedChars = regexp.MustCompile(`[%/\-]`)

// Window is the inclusive range of epoch seconds that samples are taken from.
type Window struct {
	Start int64
	End   int64
}

// Contains reports whether ts lies inside the window.
func (w Window) Contains(ts float64) bool {
	return ts >= float64(w.Start) && ts <= float64(w.End)
}

// Summarize averages every numeric column of the reports over the samples in
// w, rounded to two decimals. Keys are column names with '%', '/' and '-'
// removed; a column seen in several reports takes the value of the last one.
// Empty reports are logged and skipped.
func Summarize(reports []string, w Window, log logrus.FieldLogger) (map[string]float64, error) {
	if w.End < w.Start {
		return nil, fmt.Errorf("end timestamp %d is before start timestamp %d", w.End, w.Start)
	}

	averages := make(map[string]float64)
	for _, path := range reports {
		log.WithField("file", path).Info("Reading SAR report")

		t, err := table.ReadCSVSep(path, "", ';')
		if errors.Is(err, table.ErrEmpty) {
			log.WithField("file", path).Warn("SAR report is empty, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading SAR report: %w", err)
		}

		if err := average(t, w, averages); err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", path, err)
		}
	}
	return averages, nil
}

func average(t *table.Table, w Window, into map[string]float64) error {
	// sadf prefixes the header with a comment marker.
	for _, name := range t.Names() {
		if bare := strings.TrimSpace(strings.TrimPrefix(name, "#")); bare != name {
			if err := t.Rename(name, bare); err != nil {
				return err
			}
		}
	}

	idx, err := t.Require(hostnameColumn, intervalColumn, timestampColumn)
	if err != nil {
		return err
	}
	ts := idx[2]

	samples := t.Filter(func(row []table.Cell) bool {
		v, err := row[ts].Float()
		return err == nil && w.Contains(v)
	})

	skip := map[int]bool{idx[0]: true, idx[1]: true, idx[2]: true}
	for i, name := range samples.Names() {
		if skip[i] {
			continue
		}

		var values []float64
		for r := 0; r < samples.Len(); r++ {
			if v, err := samples.Row(r)[i].Float(); err == nil {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}

		mean, err := stats.Mean(values)
		if err != nil {
			return fmt.Errorf("averaging %s: %w", name, err)
		}
		rounded, err := stats.Round(mean, 2)
		if err != nil {
			return fmt.Errorf("rounding %s: %w", name, err)
		}
		into[strippedChars.ReplaceAllString(name, "")] = rounded
	}
	return nil
}

// Package render draws report charts as PNG files.
//
// Point, bar and line charts are drawn with gonum/plot and can be faceted
// into a two column grid of panels. Regression charts are drawn with
// go-chart. Every chart is rendered to memory first and written with a
// single file write, then recorded in the caller's Index.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/pmgledhill102/perfreport/internal/table"
)

// Kind selects how a chart is drawn.
type Kind string

const (
	// Point draws the mean per x category as markers joined by lines.
	Point Kind = "point"
	// Bar draws grouped bars per x category.
	Bar Kind = "bar"
	// Line draws the mean per numeric x value as a line.
	Line Kind = "line"
	// Regression draws a scatter with a least squares fit per hue.
	Regression Kind = "regression"
)

// Chart describes one chart to render.
type Chart struct {
	Kind Kind
	Data *table.Table

	// X and Y name the columns plotted on each axis. Hue optionally names
	// the column splitting the data into series and Facet the column
	// splitting it into panels.
	X, Y  string
	Hue   string
	Facet string

	Title    string
	Subtitle string
	XLabel   string
	YLabel   string

	// Filename is relative to the renderer's output directory.
	Filename string
}

func (c Chart) xLabel() string {
	if c.XLabel != "" {
		return c.XLabel
	}
	return c.X
}

func (c Chart) yLabel() string {
	if c.YLabel != "" {
		return c.YLabel
	}
	return c.Y
}

// Renderer writes charts into an output directory.
type Renderer struct {
	dir    string
	width  float64
	height float64
	log    logrus.FieldLogger
}

// NewRenderer returns a renderer writing into dir. Width and height are the
// size of one panel in inches.
func NewRenderer(dir string, width, height float64, log logrus.FieldLogger) *Renderer {
	return &Renderer{dir: dir, width: width, height: height, log: log}
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// Render draws c, writes it to disk and records it in idx.
func (r *Renderer) Render(idx *Index, c Chart) error {
	if c.Filename == "" {
		return errors.New("chart has no file name")
	}
	if c.Data == nil {
		return fmt.Errorf("chart %s has no data", c.Filename)
	}

	path := filepath.Join(r.dir, c.Filename)
	r.log.WithFields(logrus.Fields{
		"title": c.Title,
		"file":  c.Filename,
	}).Info("Creating chart")

	var buf bytes.Buffer
	var err error
	switch c.Kind {
	case Point, Bar, Line:
		err = r.drawCategorical(&buf, c)
	case Regression:
		err = r.drawRegression(&buf, c)
	default:
		err = fmt.Errorf("unknown chart kind %q", c.Kind)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", c.Filename, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing chart: %w", err)
	}

	idx.Add(c.Filename, c.Title)
	return nil
}

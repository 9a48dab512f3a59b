package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/pmgledhill102/perfreport/internal/format"
)

const dpi = 96

// drawRegression renders a scatter of the raw points per hue with a least
// squares line through each. Both axes start at zero.
func (r *Renderer) drawRegression(w io.Writer, c Chart) error {
	idx, err := c.Data.Require(c.X, c.Y)
	if err != nil {
		return err
	}
	hi := -1
	if c.Hue != "" {
		h, err := c.Data.Require(c.Hue)
		if err != nil {
			return err
		}
		hi = h[0]
	}
	if c.Data.Len() == 0 {
		return ErrNoData
	}

	type xy struct{ x, y float64 }
	var hues levels
	points := make(map[int][]xy)
	minX, maxX, maxY := math.Inf(1), math.Inf(-1), 0.0
	for i := 0; i < c.Data.Len(); i++ {
		row := c.Data.Row(i)
		x, errX := row[idx[0]].Float()
		y, errY := row[idx[1]].Float()
		if errX != nil || errY != nil {
			continue
		}
		h := 0
		if hi >= 0 {
			h = hues.add(row[hi])
		}
		points[h] = append(points[h], xy{x, y})
		minX, maxX, maxY = math.Min(minX, x), math.Max(maxX, x), math.Max(maxY, y)
	}
	if len(hues.names) == 0 {
		hues.names = []string{""}
	}
	if len(points) == 0 {
		return ErrNoData
	}

	var series []chart.Series
	for h, name := range hues.names {
		pts := points[h]
		if len(pts) == 0 {
			continue
		}
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

		color := chart.GetDefaultColor(h)
		scatter := chart.ContinuousSeries{
			Name: name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    color,
			},
		}
		for _, p := range pts {
			scatter.XValues = append(scatter.XValues, p.x)
			scatter.YValues = append(scatter.YValues, p.y)
		}
		series = append(series, scatter)

		if pts[0].x == pts[len(pts)-1].x {
			continue
		}
		fitName := "fit"
		if name != "" {
			fitName = name + " fit"
		}
		series = append(series, &chart.LinearRegressionSeries{
			Name:        fitName,
			InnerSeries: scatter,
			Style: chart.Style{
				StrokeWidth: 2,
				StrokeColor: color,
			},
		})
	}

	if minX == maxX {
		minX, maxX = minX-1, maxX+1
	}
	yMax := maxY * 1.1
	if yMax <= 0 {
		yMax = 1
	}

	ch := chart.Chart{
		Title:  heading(c),
		Width:  int(r.width * dpi),
		Height: int(r.height * dpi),
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: 16, Right: 12, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           c.xLabel(),
			Range:          &chart.ContinuousRange{Min: math.Min(0, minX), Max: maxX},
			ValueFormatter: thousands,
		},
		YAxis: chart.YAxis{
			Name:           c.yLabel(),
			Range:          &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: thousands,
		},
		Series: series,
	}
	if c.Hue != "" {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("drawing regression chart: %w", err)
	}
	return nil
}

func thousands(v interface{}) string {
	if f, ok := v.(float64); ok {
		return format.Thousands(f)
	}
	return fmt.Sprintf("%v", v)
}

package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pmgledhill102/perfreport/internal/format"
)

// facetColumns is the number of panels per row in a faceted chart.
const facetColumns = 2

var titleBand = 0.6 * vg.Inch

func (r *Renderer) drawCategorical(w io.Writer, c Chart) error {
	g, err := group(c)
	if err != nil {
		return err
	}
	colors, err := seriesColors(len(g.hues))
	if err != nil {
		return err
	}

	cols := min(facetColumns, len(g.facets))
	rows := (len(g.facets) + cols - 1) / cols
	panelW := vg.Length(r.width) * vg.Inch
	panelH := vg.Length(r.height) * vg.Inch

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
	}
	for f, facet := range g.facets {
		p, err := r.panel(c, g, f, colors, panelW)
		if err != nil {
			return err
		}
		if c.Facet != "" {
			p.Title.Text = c.Facet + " = " + facet
		}
		if f == 0 {
			p.Legend.Top = true
			p.Legend.Padding = vg.Millimeter
		}
		plots[f/cols][f%cols] = p
	}

	faceted := c.Facet != ""
	if !faceted {
		plots[0][0].Title.Text = heading(c)
		return savePlot(w, plots[0][0], panelW, panelH)
	}

	img := vgimg.New(panelW*vg.Length(cols), panelH*vg.Length(rows)+titleBand)
	dc := draw.New(img)

	sty := plots[0][0].Title.TextStyle
	sty.Font.Size = vg.Points(14)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter
	top := draw.Crop(dc, 0, 0, dc.Max.Y-dc.Min.Y-titleBand, 0)
	top.FillText(sty, vg.Point{X: (top.Min.X + top.Max.X) / 2, Y: (top.Min.Y + top.Max.Y) / 2}, heading(c))

	body := draw.Crop(dc, 0, 0, 0, -titleBand)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, body)
	for j := range plots {
		for i, p := range plots[j] {
			if p != nil {
				p.Draw(canvases[j][i])
			}
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func heading(c Chart) string {
	if c.Subtitle == "" {
		return c.Title
	}
	return c.Title + "\n" + c.Subtitle
}

// panel builds the plot for one facet.
func (r *Renderer) panel(c Chart, g *grouped, facet int, colors []color.Color, width vg.Length) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = c.xLabel()
	p.Y.Label.Text = c.yLabel()
	p.Y.Tick.Marker = thousandsTicks{}
	p.Add(plotter.NewGrid())

	if (c.Kind != Line || !g.numericX) && len(g.xs) > 0 {
		p.NominalX(g.xs...)
		p.X.Min = -0.5
		p.X.Max = float64(len(g.xs)) - 0.5
	}

	var err error
	switch c.Kind {
	case Bar:
		err = addBars(p, g, facet, colors, width)
		p.Y.Min = 0
	default:
		err = addLines(p, c.Kind, g, facet, colors)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// addLines draws one line per hue. Point charts place x values at their
// category index, dodged slightly per hue; line charts use numeric x.
func addLines(p *plot.Plot, kind Kind, g *grouped, facet int, colors []color.Color) error {
	dodge := 0.0
	if kind == Point && len(g.hues) > 1 {
		dodge = math.Min(0.1, 0.4/float64(len(g.hues)))
	}

	for h, hue := range g.hues {
		var xys plotter.XYs
		for x := range g.xs {
			y, ok := g.mean(facet, h, x)
			if !ok {
				continue
			}
			pos := float64(x)
			if kind == Line && g.numericX {
				pos = g.xValues[x]
			} else {
				pos += (float64(h) - float64(len(g.hues)-1)/2) * dodge
			}
			xys = append(xys, plotter.XY{X: pos, Y: y})
		}
		if len(xys) == 0 {
			continue
		}

		line, points, err := plotter.NewLinePoints(xys)
		if err != nil {
			return fmt.Errorf("series %q: %w", hue, err)
		}
		line.Color = colors[h]
		line.Width = vg.Points(1.5)
		points.Color = colors[h]
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(3)

		p.Add(line, points)
		if hue != "" {
			p.Legend.Add(hue, line, points)
		}
	}
	return nil
}

// addBars draws one bar per hue and x category, grouped around the category.
func addBars(p *plot.Plot, g *grouped, facet int, colors []color.Color, width vg.Length) error {
	dataWidth := width - 1.2*vg.Inch
	if dataWidth <= 0 {
		dataWidth = width
	}
	groupWidth := dataWidth / vg.Length(max(1, len(g.xs))) * 0.8
	barWidth := groupWidth / vg.Length(len(g.hues))

	for h, hue := range g.hues {
		var first *plotter.BarChart
		for x := range g.xs {
			y, ok := g.mean(facet, h, x)
			if !ok {
				continue
			}
			bar, err := plotter.NewBarChart(plotter.Values{y}, barWidth)
			if err != nil {
				return fmt.Errorf("series %q: %w", hue, err)
			}
			bar.XMin = float64(x)
			bar.Offset = barWidth*vg.Length(h) - groupWidth/2 + barWidth/2
			bar.Color = colors[h]
			bar.LineStyle.Width = 0
			p.Add(bar)
			if first == nil {
				first = bar
			}
		}
		if first != nil && hue != "" {
			p.Legend.Add(hue, first)
		}
	}
	return nil
}

func savePlot(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("creating PNG writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// seriesColors returns n distinct colors from the qualitative Paired
// palette, cycling when more than twelve are needed.
func seriesColors(n int) ([]color.Color, error) {
	pal, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", min(max(n, 3), 12))
	if err != nil {
		return nil, fmt.Errorf("loading palette: %w", err)
	}
	base := pal.Colors()
	out := make([]color.Color, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return out, nil
}

// thousandsTicks labels the default ticks with thousands separators.
type thousandsTicks struct{}

func (thousandsTicks) Ticks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i, t := range ticks {
		if t.Label != "" {
			ticks[i].Label = format.Thousands(t.Value)
		}
	}
	return ticks
}

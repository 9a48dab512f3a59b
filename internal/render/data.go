package render

import (
	"errors"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/pmgledhill102/perfreport/internal/table"
)

// ErrNoData is returned for charts without a single plottable value.
var ErrNoData = errors.New("no values to plot")

type cellKey struct {
	facet, hue, x int
}

// grouped is a chart's data split by facet, hue and x value.
type grouped struct {
	facets   []string
	hues     []string
	xs       []string
	xValues  []float64 // numeric x positions, valid when numericX
	numericX bool
	values   map[cellKey][]float64
}

type levels struct {
	names []string
	index map[string]int
}

func (l *levels) add(c table.Cell) int {
	k := c.Key()
	if i, ok := l.index[k]; ok {
		return i
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	l.index[k] = len(l.names)
	l.names = append(l.names, c.String())
	return l.index[k]
}

func group(c Chart) (*grouped, error) {
	if c.Data.Len() == 0 {
		return nil, ErrNoData
	}

	names := []string{c.X, c.Y}
	if c.Hue != "" {
		names = append(names, c.Hue)
	}
	if c.Facet != "" {
		names = append(names, c.Facet)
	}
	idx, err := c.Data.Require(names...)
	if err != nil {
		return nil, err
	}
	xi, yi := idx[0], idx[1]
	hi, fi := -1, -1
	if c.Hue != "" {
		hi = idx[2]
	}
	if c.Facet != "" {
		fi = idx[len(idx)-1]
	}

	var facets, hues, xs levels
	type point struct {
		key cellKey
		y   float64
	}
	var points []point

	for r := 0; r < c.Data.Len(); r++ {
		row := c.Data.Row(r)
		if row[xi].IsMissing() {
			continue
		}
		key := cellKey{x: xs.add(row[xi])}
		if fi >= 0 {
			key.facet = facets.add(row[fi])
		}
		if hi >= 0 {
			key.hue = hues.add(row[hi])
		}
		y, err := row[yi].Float()
		if err != nil {
			continue
		}
		points = append(points, point{key: key, y: y})
	}

	if len(points) == 0 {
		return nil, ErrNoData
	}

	if len(facets.names) == 0 {
		facets.names = []string{""}
	}
	if len(hues.names) == 0 {
		hues.names = []string{""}
	}

	// Numeric x values are ordered by value, anything else by appearance.
	order := make([]int, len(xs.names))
	for i := range order {
		order[i] = i
	}
	numeric := make([]float64, len(xs.names))
	isNumeric := len(xs.names) > 0
	for i, name := range xs.names {
		f, err := table.Value(name).Float()
		if err != nil {
			isNumeric = false
			break
		}
		numeric[i] = f
	}
	if isNumeric {
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case numeric[a] < numeric[b]:
				return -1
			case numeric[a] > numeric[b]:
				return 1
			}
			return 0
		})
	}
	rank := make([]int, len(order))
	g := &grouped{
		facets:   facets.names,
		hues:     hues.names,
		numericX: isNumeric,
		values:   make(map[cellKey][]float64),
	}
	for pos, i := range order {
		rank[i] = pos
		g.xs = append(g.xs, xs.names[i])
		if isNumeric {
			g.xValues = append(g.xValues, numeric[i])
		}
	}

	for _, p := range points {
		k := p.key
		k.x = rank[k.x]
		g.values[k] = append(g.values[k], p.y)
	}
	return g, nil
}

// mean returns the average y for one facet, hue and x position.
func (g *grouped) mean(facet, hue, x int) (float64, bool) {
	vs := g.values[cellKey{facet: facet, hue: hue, x: x}]
	if len(vs) == 0 {
		return 0, false
	}
	m, err := stats.Mean(vs)
	if err != nil {
		return 0, false
	}
	return m, true
}

package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmgledhill102/perfreport/internal/table"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func data(t *testing.T, body string) *table.Table {
	t.Helper()
	tbl, err := table.Decode(strings.NewReader(body), "", ',')
	require.NoError(t, err)
	return tbl
}

func newRenderer(t *testing.T) (*Renderer, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	return NewRenderer(t.TempDir(), 4, 3, log), hook
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", path)
}

const long = `Concurrent Users,Message Size,Throughput,Series
100,1KiB,1200.5,A
50,1KiB,800,A
100,1KiB,1100,B
50,1KiB,,B
100,10KiB,900,A
50,10KiB,600,B
200,10KiB,950,B
`

func TestRenderKinds(t *testing.T) {
	tests := []struct {
		name  string
		chart Chart
	}{
		{"point", Chart{Kind: Point, X: "Concurrent Users", Y: "Throughput", Hue: "Series"}},
		{"point faceted", Chart{Kind: Point, X: "Concurrent Users", Y: "Throughput", Hue: "Series", Facet: "Message Size"}},
		{"bar", Chart{Kind: Bar, X: "Concurrent Users", Y: "Throughput", Hue: "Series"}},
		{"bar faceted", Chart{Kind: Bar, X: "Concurrent Users", Y: "Throughput", Hue: "Series", Facet: "Message Size"}},
		{"line", Chart{Kind: Line, X: "Concurrent Users", Y: "Throughput", Hue: "Series", Subtitle: "Memory = 2G"}},
		{"regression", Chart{Kind: Regression, X: "Concurrent Users", Y: "Throughput"}},
		{"regression with hue", Chart{Kind: Regression, X: "Concurrent Users", Y: "Throughput", Hue: "Series"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, hook := newRenderer(t)
			var idx Index

			c := tt.chart
			c.Data = data(t, long)
			c.Title = "Throughput vs Concurrent Users"
			c.Filename = strings.ReplaceAll(tt.name, " ", "_") + ".png"

			require.NoError(t, r.Render(&idx, c))
			assertPNG(t, filepath.Join(r.Dir(), c.Filename))

			assert.Equal(t, []Entry{{Filename: c.Filename, Title: c.Title}}, idx.Entries())
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, "Creating chart", hook.LastEntry().Message)
			assert.Equal(t, c.Filename, hook.LastEntry().Data["file"])
		})
	}
}

func TestRenderSinglePointRegression(t *testing.T) {
	r, _ := newRenderer(t)
	var idx Index

	err := r.Render(&idx, Chart{
		Kind:     Regression,
		Data:     data(t, "x,y\n10,0\n"),
		X:        "x",
		Y:        "y",
		Filename: "single.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestRenderErrors(t *testing.T) {
	r, _ := newRenderer(t)
	var idx Index
	tbl := data(t, long)

	tests := []struct {
		name  string
		chart Chart
	}{
		{"no file name", Chart{Kind: Point, Data: tbl, X: "Concurrent Users", Y: "Throughput"}},
		{"no data", Chart{Kind: Point, X: "Concurrent Users", Y: "Throughput", Filename: "a.png"}},
		{"unknown kind", Chart{Kind: "pie", Data: tbl, X: "Concurrent Users", Y: "Throughput", Filename: "b.png"}},
		{"missing column", Chart{Kind: Point, Data: tbl, X: "Concurrent Users", Y: "Latency", Filename: "c.png"}},
		{"missing regression column", Chart{Kind: Regression, Data: tbl, X: "Nope", Y: "Throughput", Filename: "d.png"}},
		{"empty table", Chart{Kind: Bar, Data: table.New("", "x", "y"), X: "x", Y: "y", Filename: "e.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, r.Render(&idx, tt.chart))
		})
	}

	assert.Equal(t, 0, idx.Len())
	entries, err := os.ReadDir(r.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGroup(t *testing.T) {
	g, err := group(Chart{Data: data(t, long), X: "Concurrent Users", Y: "Throughput", Hue: "Series", Facet: "Message Size"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1KiB", "10KiB"}, g.facets)
	assert.Equal(t, []string{"A", "B"}, g.hues)
	assert.Equal(t, []string{"50", "100", "200"}, g.xs)
	assert.True(t, g.numericX)

	m, ok := g.mean(0, 0, 1)
	require.True(t, ok)
	assert.Equal(t, 1200.5, m)

	_, ok = g.mean(0, 1, 0)
	assert.False(t, ok, "missing throughput must not be plotted as zero")

	cat, err := group(Chart{Data: data(t, "size,v\n1KiB,1\n50B,2\n1KiB,3\n"), X: "size", Y: "v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1KiB", "50B"}, cat.xs)
	assert.False(t, cat.numericX)

	m, ok = cat.mean(0, 0, 0)
	require.True(t, ok)
	assert.Equal(t, 2.0, m)
}

func TestIndex(t *testing.T) {
	var idx Index
	idx.Add("thrpt_30ms.png", "Throughput 30ms")
	idx.Add("avgt_0ms.png", "Average 0ms")
	idx.Add("gc_0ms.png", "GC 0ms")

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []Entry{
		{"avgt_0ms.png", "Average 0ms"},
		{"gc_0ms.png", "GC 0ms"},
		{"thrpt_30ms.png", "Throughput 30ms"},
	}, idx.Entries())

	path := filepath.Join(t.TempDir(), "charts.csv")
	require.NoError(t, idx.WriteCSV(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Filename,Title\navgt_0ms.png,Average 0ms\ngc_0ms.png,GC 0ms\nthrpt_30ms.png,Throughput 30ms\n", string(b))
}

func TestSeriesColors(t *testing.T) {
	for _, n := range []int{1, 2, 3, 12, 15} {
		colors, err := seriesColors(n)
		require.NoError(t, err)
		assert.Len(t, colors, n)
	}
}

func TestThousandsTicks(t *testing.T) {
	for _, tick := range (thousandsTicks{}).Ticks(0, 20000) {
		if tick.Label != "" {
			assert.NotContains(t, tick.Label, "e+")
		}
	}
}

func TestRenderNoValues(t *testing.T) {
	r, _ := newRenderer(t)
	var idx Index
	tbl := data(t, "x,y\n1,\n2,n/a\n")

	for _, kind := range []Kind{Point, Bar, Line, Regression} {
		err := r.Render(&idx, Chart{Kind: kind, Data: tbl, X: "x", Y: "y", Filename: string(kind) + ".png"})
		assert.ErrorIs(t, err, ErrNoData, "kind %s", kind)
	}
	assert.Equal(t, 0, idx.Len())
}

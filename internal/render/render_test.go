package render

import (
	"strings"
	"testing"

	"github.com/msalah0e/ontoview/internal/geometry"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/msalah0e/ontoview/internal/layout"
	"github.com/msalah0e/ontoview/internal/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() layout.Snapshot {
	g := graph.New()
	g.Nodes = []graph.Node{
		{ID: "a", Label: "Alpha", Kind: graph.KindObjectType},
		{ID: "b"},
	}
	g.Edges = []graph.Edge{
		{SourceID: "a", TargetID: "b", Label: "links <to>"},
		{SourceID: "a", TargetID: "ghost"},
	}
	s := layout.NewSnapshot(g, layout.DefaultConfig(), 7)
	// place the nodes side by side
	s.Nodes[0].X, s.Nodes[0].Y = 0, 0
	s.Nodes[1].X, s.Nodes[1].Y = 400, 0
	return s
}

func near(t *testing.T, want, got geometry.Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x of %+v", got)
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y of %+v", got)
}

func TestDraw_Identity(t *testing.T) {
	d := Draw(snapshot(), viewport.Initial().Transform())

	assert.Equal(t, uint64(7), d.Generation)
	require.Len(t, d.Nodes, 2)
	require.Len(t, d.Edges, 1, "edges to unknown nodes are not drawn")

	assert.Equal(t, "Alpha", d.Nodes[0].Label)
	assert.Equal(t, ColorObjectType, d.Nodes[0].Color)
	assert.Equal(t, "b", d.Nodes[1].Label, "label falls back to id")
	assert.Equal(t, ColorDefault, d.Nodes[1].Color)

	e := d.Edges[0]
	near(t, geometry.Point{X: 70, Y: 0}, e.From)
	near(t, geometry.Point{X: 330, Y: 0}, e.To)
	near(t, geometry.Point{X: 200, Y: -8}, e.LabelAt)
}

func TestDraw_Transformed(t *testing.T) {
	tr := viewport.Transform{Scale: 2, Translate: geometry.Point{X: 10, Y: 20}}
	d := Draw(snapshot(), tr)

	assert.Equal(t, geometry.Size{W: 280, H: 120}, d.Nodes[0].Rect.Size)
	near(t, geometry.Point{X: 10, Y: 20}, d.Nodes[0].Rect.Center)
	near(t, geometry.Point{X: 810, Y: 20}, d.Nodes[1].Rect.Center)

	// the border points are still on the scaled rectangles
	near(t, geometry.Point{X: 150, Y: 20}, d.Edges[0].From)
	near(t, geometry.Point{X: 670, Y: 20}, d.Edges[0].To)
}

func TestBounds(t *testing.T) {
	d := Draw(snapshot(), viewport.Initial().Transform())
	b := d.Bounds()
	near(t, geometry.Point{X: -70, Y: -30}, b.Min())
	near(t, geometry.Point{X: 470, Y: 30}, b.Max())

	assert.Equal(t, geometry.Rect{}, DrawList{}.Bounds())
}

func TestWriteSVG(t *testing.T) {
	d := Draw(snapshot(), viewport.Initial().Transform())
	var b strings.Builder
	require.NoError(t, WriteSVG(&b, d, ViewBox{}))
	out := b.String()

	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="-110 -70 620 140" data-generation="7">`), out)
	assert.Contains(t, out, `<marker id="arrow"`)
	assert.Contains(t, out, `<line x1="70" y1="0" x2="330" y2="0"`)
	assert.Contains(t, out, `links &lt;to&gt;`)
	assert.Contains(t, out, `stroke="#1677ff"`)
	assert.Contains(t, out, `stroke="#faad14"`)
	assert.Equal(t, 2, strings.Count(out, `<g class="node"`))
	// edges come before nodes
	assert.Less(t, strings.Index(out, "<line"), strings.Index(out, `<g class="node"`))
}

func TestWriteSVG_FixedViewBox(t *testing.T) {
	var b strings.Builder
	require.NoError(t, WriteSVG(&b, DrawList{}, ViewBox{X: -400, Y: -300, W: 800, H: 600}))
	assert.Contains(t, b.String(), `viewBox="-400 -300 800 600"`)
}

func TestFit_Empty(t *testing.T) {
	assert.Equal(t, ViewBox{X: -40, Y: -40, W: 80, H: 80}, Fit(DrawList{}, 40))
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		0:       "0",
		120:     "120",
		1.5:     "1.5",
		-0.001:  "0",
		3.14159: "3.14",
		-42.1:   "-42.1",
	}
	for in, want := range tests {
		assert.Equal(t, want, num(in), "num(%v)", in)
	}
}

func TestHTML(t *testing.T) {
	page := HTML(Page{Title: "sales <domain>", Subject: "domain sales", Nodes: 2, Edges: 1, SVG: "<svg></svg>", Live: true})
	assert.Contains(t, page, "<title>sales &lt;domain&gt;</title>")
	assert.Contains(t, page, `<div id="stage"><svg></svg></div>`)
	assert.Contains(t, page, "const LIVE=true;")
	assert.Contains(t, page, `<b id="n-nodes">2</b>`)
	assert.Contains(t, page, "width:100%;height:100%")

	static := HTML(Page{SVG: "<svg></svg>"})
	assert.Contains(t, static, "<title>ontoview</title>")
	assert.Contains(t, static, "const LIVE=false;")
	assert.Contains(t, static, "static export")
}

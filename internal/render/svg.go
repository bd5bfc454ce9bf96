package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strings"
)

// FitMargin is the padding added around the nodes when no view box is given.
const FitMargin = 40.0

const (
	edgeColor  = "#999"
	labelColor = "#666"
	textColor  = "#333"
	fontSize   = 14.0
)

// ViewBox is the visible region of the SVG user space.
type ViewBox struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
	W float64 `toml:"width" json:"width"`
	H float64 `toml:"height" json:"height"`
}

// Empty reports whether v has no area.
func (v ViewBox) Empty() bool {
	return v.W <= 0 || v.H <= 0
}

func (v ViewBox) String() string {
	return fmt.Sprintf("%g %g %g %g", v.X, v.Y, v.W, v.H)
}

// Fit returns a view box around every node of d plus margin.
func Fit(d DrawList, margin float64) ViewBox {
	if len(d.Nodes) == 0 {
		return ViewBox{X: -margin, Y: -margin, W: 2 * margin, H: 2 * margin}
	}
	b := d.Bounds()
	lo := b.Min()
	return ViewBox{
		X: lo.X - margin,
		Y: lo.Y - margin,
		W: b.Size.W + 2*margin,
		H: b.Size.H + 2*margin,
	}
}

// WriteSVG paints d as a standalone SVG document. An empty view box is
// replaced by one fitted to the nodes.
func WriteSVG(w io.Writer, d DrawList, view ViewBox) error {
	if view.Empty() {
		view = Fit(d, FitMargin)
	}
	scale := d.Transform.Scale
	if scale <= 0 {
		scale = 1
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s" data-generation="%d">`+"\n", view, d.Generation)
	bw.WriteString(`<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">`)
	fmt.Fprintf(bw, `<path d="M 0 0 L 10 5 L 0 10 z" fill="%s"/></marker></defs>`+"\n", edgeColor)

	bw.WriteString(`<g class="edges">` + "\n")
	for _, e := range d.Edges {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s" marker-end="url(#arrow)" data-source="%s" data-target="%s"/>`+"\n",
			num(e.From.X), num(e.From.Y), num(e.To.X), num(e.To.Y),
			edgeColor, num(1.2*scale), attr(e.SourceID), attr(e.TargetID))
		if e.Label != "" {
			fmt.Fprintf(bw, `<text x="%s" y="%s" fill="%s" font-size="%s" text-anchor="middle">%s</text>`+"\n",
				num(e.LabelAt.X), num(e.LabelAt.Y), labelColor, num(fontSize*scale), html.EscapeString(e.Label))
		}
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="nodes">` + "\n")
	for _, n := range d.Nodes {
		writeNode(bw, n, scale)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

func writeNode(w *bufio.Writer, n NodeOp, scale float64) {
	lo := n.Rect.Min()
	fmt.Fprintf(w, `<g class="node" data-id="%s">`, attr(n.ID))
	fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="#fff" stroke="%s" stroke-width="%s"/>`,
		num(lo.X), num(lo.Y), num(n.Rect.Size.W), num(n.Rect.Size.H), num(4*scale), n.Color, num(1.6*scale))
	fmt.Fprintf(w, `<text x="%s" y="%s" fill="%s" font-size="%s" text-anchor="middle" dominant-baseline="middle">%s</text>`,
		num(n.Rect.Center.X), num(n.Rect.Center.Y), textColor, num(fontSize*scale), html.EscapeString(n.Label))
	w.WriteString("</g>\n")
}

// num formats a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := strings.TrimRight(fmt.Sprintf("%.2f", v), "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func attr(s string) string {
	return html.EscapeString(s)
}

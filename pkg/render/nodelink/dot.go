package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/render"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// Engines accepted by RenderSVG.
const (
	EngineDot   = "dot"
	EngineNeato = "neato"
)

// Options configures node-link diagram generation.
type Options struct {
	// Layer restricts the diagram to one layer. Negative draws every layer,
	// each in its own cluster, plus the inter-layer edges.
	Layer int

	// Detailed adds edge weights and vertex coordinates to labels.
	Detailed bool

	// Pinned emits vertex positions as fixed pos attributes. Render pinned
	// diagrams with EngineNeato to keep the model's geometry.
	Pinned bool
}

// ToDOT converts m to Graphviz DOT. Edges that belong to one of trees are
// drawn bold and each tree root gets a double outline. Inter-layer edges
// are dashed.
func ToDOT(m *graph.Model, trees []*tree.Result, opts Options) string {
	kind, op := "graph", "--"
	if m.Directed {
		kind, op = "digraph", "->"
	}

	treeEdges := make(map[[2]string]bool)
	roots := make(map[string]bool)
	for _, t := range trees {
		roots[t.Root] = true
		for _, p := range t.Pairs {
			if p.Parent != p.Child {
				treeEdges[[2]string{p.Parent, p.Child}] = true
			}
		}
	}
	inTree := func(e *graph.Edge) bool {
		a, b := e.Start.ID, e.End.ID
		return treeEdges[[2]string{a, b}] || (!m.Directed && treeEdges[[2]string{b, a}])
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s G {\n", kind)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=12];\n")
	buf.WriteString("  edge [color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, l := range m.Layers() {
		if opts.Layer >= 0 && l.Index != opts.Layer {
			continue
		}
		indent := "  "
		if opts.Layer < 0 {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", l.Index)
			fmt.Fprintf(&buf, "    label=%q;\n", fmt.Sprintf("layer %d", l.Index))
			indent = "    "
		}
		for _, v := range m.LayerVertices(l.Index) {
			attrs := vertexAttrs(v, roots[v.ID], opts)
			fmt.Fprintf(&buf, "%s%q [%s];\n", indent, v.ID, strings.Join(attrs, ", "))
		}
		if opts.Layer < 0 {
			buf.WriteString("  }\n")
		}
	}

	buf.WriteString("\n")
	for _, e := range m.Edges() {
		if opts.Layer >= 0 && e.Start.Layer != opts.Layer {
			continue
		}
		attrs := edgeAttrs(e, opts)
		if inTree(e) {
			attrs = append(attrs, "penwidth=3", "color=\"#1f77b4\"")
		}
		writeEdge(&buf, e, op, attrs)
	}
	if opts.Layer < 0 {
		for _, e := range m.InterlayerEdges() {
			writeEdge(&buf, e, op, append(edgeAttrs(e, opts), "style=dashed", "color=grey"))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func vertexAttrs(v *graph.Vertex, root bool, opts Options) []string {
	label := v.ID
	if opts.Detailed {
		label = fmt.Sprintf("%s\n(%g, %g)", v.ID, v.Pos.X, v.Pos.Y)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if root {
		attrs = append(attrs, "peripheries=2")
	}
	if opts.Pinned {
		// Graphviz y grows upwards.
		attrs = append(attrs, fmt.Sprintf("pos=\"%g,%g!\"", v.Pos.X, -v.Pos.Y))
	}
	return attrs
}

func edgeAttrs(e *graph.Edge, opts Options) []string {
	if !opts.Detailed {
		return nil
	}
	return []string{fmt.Sprintf("label=%q", strconv.FormatFloat(e.Weight, 'g', -1, 64))}
}

func writeEdge(buf *bytes.Buffer, e *graph.Edge, op string, attrs []string) {
	if len(attrs) == 0 {
		fmt.Fprintf(buf, "  %q %s %q;\n", e.Start.ID, op, e.End.ID)
		return
	}
	fmt.Fprintf(buf, "  %q %s %q [%s];\n", e.Start.ID, op, e.End.ID, strings.Join(attrs, ", "))
}

// RenderSVG renders a DOT graph to SVG using Graphviz with the given layout
// engine. An empty engine uses EngineDot.
func RenderSVG(ctx context.Context, dot, engine string) ([]byte, error) {
	if engine == "" {
		engine = EngineDot
	}
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.Layout(engine))

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot, engine string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot, engine string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot, engine)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

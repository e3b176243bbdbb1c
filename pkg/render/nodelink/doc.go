// Package nodelink renders a layered graph and its spanning trees as a
// node-link diagram.
//
// # Usage
//
// Convert a model to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(m, trees, nodelink.Options{Layer: -1})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineDot)
//
// With Options.Pinned each vertex keeps its model position; render such
// diagrams with [EngineNeato] so Graphviz does not lay them out again.
//
// # Styling
//
// Tree edges are bold and blue, tree roots have a double outline and
// inter-layer edges are dashed. When every layer is drawn, each layer sits
// in its own cluster. Bundled waypoints are not drawn; the diagram shows
// structure only.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

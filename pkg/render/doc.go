// Package render exports layerweave graphs for visual inspection.
//
// The [nodelink] subpackage writes a model and its trees as Graphviz DOT
// and renders that to SVG in-process. [ToPDF] and [ToPNG] convert the SVG
// further with the external rsvg-convert tool (from librsvg).
//
//	dot := nodelink.ToDOT(m, trees, nodelink.Options{Layer: -1})
//	svg, err := nodelink.RenderSVG(ctx, dot, nodelink.EngineDot)
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [nodelink]: github.com/matzehuels/layerweave/pkg/render/nodelink
package render

package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/render"
	"github.com/matzehuels/layerweave/pkg/render/nodelink"
	"github.com/matzehuels/layerweave/pkg/tree"
)

type exportFlags struct {
	format    string
	layer     int
	detailed  bool
	pinned    bool
	engine    string
	algorithm string
	scale     float64
	output    string
}

// exportCommand creates the "export" command.
func (c *CLI) exportCommand() *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "export <graph.json>",
		Short: "Draw the graph as DOT, SVG, PNG or PDF",
		Long: `Draw a graph document as a node-link diagram.

With --tree the edges of a spanning tree over --layer are highlighted.
--pinned keeps the document's coordinates (rendered with neato); otherwise
Graphviz lays the graph out. PNG and PDF need rsvg-convert on PATH.`,
		Example: `  layerweave export graph.json -f dot
  layerweave export graph.json -f svg --tree prims --layer 0 -o tree.svg
  layerweave export graph.json -f png --pinned`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.format, "format", "f", render.FormatSVG, "output format: dot, svg, png or pdf")
	flags.IntVarP(&f.layer, "layer", "l", -1, "draw only this layer (-1 draws all layers)")
	flags.BoolVar(&f.detailed, "detailed", false, "label edges with weights and vertices with coordinates")
	flags.BoolVar(&f.pinned, "pinned", false, "keep vertex coordinates from the document")
	flags.StringVar(&f.engine, "engine", "", "graphviz layout engine (default dot, or neato when pinned)")
	flags.StringVar(&f.algorithm, "tree", "", "highlight a spanning tree built with this algorithm")
	flags.Float64Var(&f.scale, "scale", 2, "PNG scale factor")
	flags.StringVarP(&f.output, "output", "o", "", "output file (default <graph>.<format>, DOT goes to stdout)")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, path string, f exportFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if err := render.ValidateFormat(f.format); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOptions, err, "export")
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	m, hash, err := runner.Load(ctx, path)
	if err != nil {
		return err
	}
	if f.layer >= m.LayerCount() {
		return errors.New(errors.ErrCodeInvalidLayer, "layer %d out of range (graph has %d layers)", f.layer, m.LayerCount())
	}

	var trees []*tree.Result
	if f.algorithm != "" {
		opts := c.baseOptions()
		opts.SkipBundle = true
		opts.Algorithm = f.algorithm
		opts.Layer = max(f.layer, 0)
		if trees, _, err = runner.TreeWithCacheInfo(ctx, m, hash, opts); err != nil {
			return err
		}
	}

	dot := nodelink.ToDOT(m, trees, nodelink.Options{
		Layer:    f.layer,
		Detailed: f.detailed,
		Pinned:   f.pinned,
	})
	if f.format == render.FormatDOT && f.output == "" {
		_, err := stdout.Write([]byte(dot))
		return err
	}

	engine := f.engine
	if engine == "" && f.pinned {
		engine = nodelink.EngineNeato
	}

	prog := newProgress(logger)
	data, err := renderDOT(ctx, dot, f.format, engine, f.scale)
	if err != nil {
		return err
	}
	prog.done("Rendered " + f.format)

	out := f.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + "." + f.format
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", out)
	}
	printSuccess("Exported %s", f.format)
	printFile(out)
	return nil
}

func renderDOT(ctx context.Context, dot, format, engine string, scale float64) ([]byte, error) {
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatPNG:
		return nodelink.RenderPNG(ctx, dot, engine, scale)
	case render.FormatPDF:
		return nodelink.RenderPDF(ctx, dot, engine)
	default:
		return nodelink.RenderSVG(ctx, dot, engine)
	}
}

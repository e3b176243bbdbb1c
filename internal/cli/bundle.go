package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/graph"
)

type bundleFlags struct {
	maxLoops  int
	stiffness float64
	stepSize  float64
	threshold float64
	electro   string
	maxEdges  int
	workers   int
	edges     string
	output    string
	refresh   bool
}

// bundleOutput is the JSON written by `bundle -o`.
type bundleOutput struct {
	GraphHash string          `json:"graph_hash"`
	Stats     bundle.Stats    `json:"stats"`
	Paths     []graph.PathDoc `json:"paths"`
}

// bundleCommand creates the "bundle" command.
func (c *CLI) bundleCommand() *cobra.Command {
	var f bundleFlags

	cmd := &cobra.Command{
		Use:   "bundle <graph.json>",
		Short: "Bundle edges with force-directed edge bundling",
		Long: `Run force-directed edge bundling over a graph document.

By default only the edges between layers are bundled; --edges all bundles
every edge. Each cycle doubles the waypoints of every path, so a path ends
with 2^max-loops+1 points.`,
		Example: `  layerweave bundle graph.json -o paths.json
  layerweave bundle graph.json --max-loops 4 --threshold 0.3 --edges all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBundle(cmd, args[0], f)
		},
	}

	d := bundle.DefaultOptions()
	flags := cmd.Flags()
	flags.IntVar(&f.maxLoops, "max-loops", d.MaxLoops, "subdivide-and-relax cycles")
	flags.Float64Var(&f.stiffness, "stiffness", d.Stiffness, "spring constant")
	flags.Float64Var(&f.stepSize, "step-size", d.StepSize, "initial step size")
	flags.Float64Var(&f.threshold, "threshold", d.CompatThreshold, "minimum compatibility for attraction")
	flags.StringVar(&f.electro, "electro", string(d.Electro), "attraction rule: same-index or legacy-sum")
	flags.IntVar(&f.maxEdges, "max-edges", 0, "reject candidate sets larger than this (0 = unbounded)")
	flags.IntVar(&f.workers, "workers", 0, "compatibility workers (0 = GOMAXPROCS)")
	flags.StringVar(&f.edges, "edges", "", "candidate edges: interlayer or all")
	flags.StringVarP(&f.output, "output", "o", "", "write paths as JSON to this file (- for stdout)")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute even when cached paths exist")

	return cmd
}

func (c *CLI) runBundle(cmd *cobra.Command, path string, f bundleFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts := c.baseOptions()
	opts.SkipTree = true
	opts.Refresh = f.refresh

	changed := cmd.Flags().Changed
	if changed("max-loops") {
		opts.Bundle.MaxLoops = f.maxLoops
	}
	if changed("stiffness") {
		opts.Bundle.Stiffness = f.stiffness
	}
	if changed("step-size") {
		opts.Bundle.StepSize = f.stepSize
	}
	if changed("threshold") {
		opts.Bundle.CompatThreshold = f.threshold
	}
	if changed("electro") {
		opts.Bundle.Electro = bundle.ElectroMode(f.electro)
	}
	if changed("max-edges") {
		opts.Bundle.MaxEdges = f.maxEdges
	}
	if changed("workers") {
		opts.Bundle.Workers = f.workers
	}
	if changed("edges") {
		opts.Edges = f.edges
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
	logger.Debug("graph loaded", "vertices", m.VertexCount(), "edges", m.EdgeCount(), "hash", hash)

	prog := newProgress(logger)
	var spin *Spinner
	if !c.verbose {
		spin = newSpinnerWithContext(ctx, "Bundling edges...")
		spin.Start()
	}
	paths, stats, hit, err := runner.BundleWithCacheInfo(ctx, m, hash, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Bundled %d edges", stats.Edges))

	if f.output != "" {
		return writeJSON(f.output, bundleOutput{GraphHash: hash, Stats: stats, Paths: paths})
	}
	printStats(m.VertexCount(), m.EdgeCount(), hit)
	printBundleStats(stats, hit)
	return nil
}

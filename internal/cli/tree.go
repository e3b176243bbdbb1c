package cli

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/pipeline"
	"github.com/matzehuels/layerweave/pkg/tree"
)

type treeFlags struct {
	algorithm string
	layer     int
	root      string
	strategy  string
	output    string
	refresh   bool
	pick      bool
}

// treeCommand creates the "tree" command.
func (c *CLI) treeCommand() *cobra.Command {
	var f treeFlags

	cmd := &cobra.Command{
		Use:   "tree <graph.json>",
		Short: "Build a spanning tree over one layer",
		Long: `Build a spanning tree over one layer of a graph document.

Algorithms:
  dfs         depth-first, iterative
  bfs         breadth-first (FIFO)
  bfs-legacy  the historical stack-ordered "breadth-first"
  prims       minimum spanning tree (Prim)
  dfs-forest  one depth-first tree per connected component`,
		Example: `  layerweave tree graph.json
  layerweave tree graph.json --algorithm prims --layer 1
  layerweave tree graph.json --root a --pick -o tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.algorithm, "algorithm", "a", string(pipeline.DefaultAlgorithm), "traversal algorithm")
	flags.IntVarP(&f.layer, "layer", "l", 0, "layer index")
	flags.StringVar(&f.root, "root", "", "root vertex id (implies --strategy explicit)")
	flags.StringVar(&f.strategy, "strategy", "", "root strategy: most-connected or explicit")
	flags.StringVarP(&f.output, "output", "o", "", "write the trees as JSON to this file (- for stdout)")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute even when a cached tree exists")
	flags.BoolVar(&f.pick, "pick", false, "choose the layer interactively")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		names := make([]string, 0, len(tree.Algorithms()))
		for _, a := range tree.Algorithms() {
			names = append(names, string(a))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runTree(cmd *cobra.Command, path string, f treeFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts := c.baseOptions()
	opts.SkipBundle = true
	opts.Layer = f.layer
	opts.Root = f.root
	opts.Refresh = f.refresh
	if cmd.Flags().Changed("algorithm") {
		opts.Algorithm = f.algorithm
	}
	if f.root != "" {
		opts.RootStrategy = string(tree.Explicit)
	}
	if cmd.Flags().Changed("strategy") {
		opts.RootStrategy = f.strategy
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	m, hash, err := runner.Load(ctx, path)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded %s", path))

	if f.pick {
		layer, err := pickLayer(m)
		if err != nil {
			return err
		}
		opts.Layer = layer
	}

	prog = newProgress(logger)
	trees, hit, err := runner.TreeWithCacheInfo(ctx, m, hash, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %d tree(s)", len(trees)))

	if f.output != "" {
		return writeJSON(f.output, trees)
	}
	printStats(m.VertexCount(), m.EdgeCount(), hit)
	for _, t := range trees {
		printTree(t)
	}
	return nil
}

// pickLayer runs the interactive layer picker.
func pickLayer(m *graph.Model) (int, error) {
	final, err := tea.NewProgram(NewLayerListModel(m)).Run()
	if err != nil {
		return 0, err
	}
	sel := final.(LayerListModel).Selected
	if sel == nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "no layer selected")
	}
	return *sel, nil
}

// writeJSON writes v as indented JSON to path, or to stdout for "-".
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	printSuccess("Wrote %s", path)
	return nil
}

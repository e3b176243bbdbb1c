package cli

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerweave/internal/metrics"
	"github.com/matzehuels/layerweave/internal/server"
	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/config"
	"github.com/matzehuels/layerweave/pkg/errors"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		maxBody   int64
		maxEdges  int
		maxLoops  int
		timeout   time.Duration
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tree and bundle over HTTP",
		Long: `Serve the tree and bundle operations over HTTP.

  POST /v1/tree     graph document in, trees out
  POST /v1/bundle   {"graph": ..., "options": ...} in, bundled paths out
  GET  /healthz
  GET  /metrics     Prometheus metrics

Bundling parameters in requests override the config file. Workers stay
under server control, requests may not raise max_edges or max_loops above
the server limits, and every request is cancelled after --timeout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()
			if !flags.Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !flags.Changed("max-edges") {
				maxEdges = c.Config.Server.MaxEdges
			}
			if !flags.Changed("max-loops") {
				maxLoops = c.Config.Server.MaxLoops
			}
			if !flags.Changed("timeout") {
				timeout = c.Config.Server.Timeout
			}
			if maxEdges <= 0 || maxLoops < 1 || maxLoops > bundle.MaxLoopsLimit || timeout <= 0 {
				return errors.New(errors.ErrCodeInvalidOptions,
					"server limits need max-edges > 0, max-loops in [1, %d] and timeout > 0", bundle.MaxLoopsLimit)
			}

			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := server.Options{
				Logger:       c.Logger,
				Defaults:     c.baseOptions(),
				MaxBodyBytes: maxBody,
				MaxEdges:     maxEdges,
				MaxLoops:     maxLoops,
				Timeout:      timeout,
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				metrics.New(reg).Install()
				opts.Gatherer = reg
			}

			printInfo("Listening on %s", addr)
			return server.New(runner, opts).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().Int64Var(&maxBody, "max-body", server.DefaultMaxBodyBytes, "maximum request body in bytes")
	cmd.Flags().IntVar(&maxEdges, "max-edges", config.DefaultServerMaxEdges, "maximum candidate edges per bundle request")
	cmd.Flags().IntVar(&maxLoops, "max-loops", config.DefaultServerMaxLoops, "maximum max_loops per bundle request")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultServerTimeout, "per-request compute limit")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics and metric collection")

	return cmd
}

package bundle

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/geom"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/observability"
)

// Stats summarizes one bundling run.
type Stats struct {
	Edges           int           `json:"edges"`
	Pairs           int           `json:"pairs"`
	CompatiblePairs int           `json:"compatible_pairs"`
	Loops           int           `json:"loops"`
	Waypoints       int           `json:"waypoints"`
	Duration        time.Duration `json:"duration_ns"`
}

// Bundler runs force-directed edge bundling with fixed options.
// A Bundler holds no per-run state and may be reused.
type Bundler struct {
	opts   Options
	logger *log.Logger
}

// New validates opts and returns a Bundler.
func New(opts Options) (*Bundler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Bundler{opts: opts, logger: logger}, nil
}

// Options returns the bundler's options.
func (b *Bundler) Options() Options { return b.opts }

// Run bundles the given edges in place.
//
// Every path is first reset to its straight segment. Each cycle c then
// subdivides every path and relaxes interior waypoints with step
// StepSize/2^c. Displacements of a cycle are accumulated for all pairs
// before any waypoint moves, so pair order does not matter. Endpoints never
// move.
//
// Run returns an ErrCodeTooLarge error without touching any path when the
// candidate set exceeds MaxEdges. Cancellation is observed between cycles
// and every relaxCheckEvery pairs within a cycle; the paths are then reset
// to straight segments and ctx's error is returned.
func (b *Bundler) Run(ctx context.Context, edges []*graph.Edge) (Stats, error) {
	stats := Stats{Edges: len(edges), Pairs: len(edges) * (len(edges) - 1) / 2}
	if b.opts.MaxEdges > 0 && len(edges) > b.opts.MaxEdges {
		return stats, errors.New(errors.ErrCodeTooLarge, "%d candidate edges exceed the limit of %d", len(edges), b.opts.MaxEdges)
	}

	hooks := observability.Bundle()
	hooks.OnBundleStart(ctx, len(edges))
	start := time.Now()

	stats, err := b.run(ctx, edges, stats)
	stats.Duration = time.Since(start)
	hooks.OnBundleComplete(ctx, stats.Edges, stats.CompatiblePairs, stats.Loops, stats.Duration, err)
	if err != nil {
		Reset(edges)
		return stats, err
	}

	b.logger.Debug("bundled edges",
		"edges", stats.Edges,
		"compatible_pairs", stats.CompatiblePairs,
		"loops", stats.Loops,
		"waypoints", stats.Waypoints,
		"duration", stats.Duration)
	return stats, nil
}

func (b *Bundler) run(ctx context.Context, edges []*graph.Edge, stats Stats) (Stats, error) {
	Reset(edges)
	stats.Waypoints = 2

	pairs, err := b.compatiblePairs(ctx, edges)
	if err != nil {
		return stats, err
	}
	stats.CompatiblePairs = len(pairs)

	for cycle := 0; cycle < b.opts.MaxLoops; cycle++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		SubdivideAll(edges)
		step := b.opts.StepSize / math.Pow(2, float64(cycle))
		if err := b.relax(ctx, edges, pairs, step); err != nil {
			return stats, err
		}
		stats.Loops++
		stats.Waypoints = 2*stats.Waypoints - 1
	}
	return stats, nil
}

// pair is a compatible edge pair with i < j.
type pair struct {
	i, j   int
	compat float64
}

// compatiblePairs evaluates Compatibility for every unordered pair once.
// Endpoints stay fixed during a run, so the scores hold for every cycle.
// Rows are spread over a bounded worker pool and written to their own slot,
// which keeps the result independent of scheduling.
func (b *Bundler) compatiblePairs(ctx context.Context, edges []*graph.Edge) ([]pair, error) {
	rows := make([][]pair, len(edges))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.workers())
	for i := range edges {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var row []pair
			for j := i + 1; j < len(edges); j++ {
				if c := Compatibility(edges[i], edges[j]); c > b.opts.CompatThreshold {
					row = append(row, pair{i: i, j: j, compat: c})
				}
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []pair
	for _, row := range rows {
		out = append(out, row...)
	}
	return out, nil
}

// relaxCheckEvery is how many pairs relax evaluates between ctx checks. A
// pair costs O(waypoints), which reaches 65537 at MaxLoopsLimit.
const relaxCheckEvery = 16

// relax applies one cycle of attraction. Deltas are buffered per edge and
// per waypoint index and applied after every pair has been evaluated, so a
// cancelled cycle leaves the waypoints untouched.
func (b *Bundler) relax(ctx context.Context, edges []*graph.Edge, pairs []pair, step float64) error {
	deltas := make([][]geom.Point, len(edges))
	for i, e := range edges {
		deltas[i] = make([]geom.Point, len(e.Waypoints))
	}

	mode := b.opts.electro()
	for n, p := range pairs {
		if n%relaxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		e1, e2 := edges[p.i], edges[p.j]
		f1, f2 := Forces(e1, e2, p.compat, b.opts.Stiffness, mode)
		n := min(len(e1.Waypoints), len(e2.Waypoints))
		for k := 1; k < n-1; k++ {
			dir := e2.Waypoints[k].Sub(e1.Waypoints[k]).Normalize()
			deltas[p.i][k] = deltas[p.i][k].Add(dir.Scale(p.compat * f1[k] * step))
			deltas[p.j][k] = deltas[p.j][k].Sub(dir.Scale(p.compat * f2[k] * step))
		}
	}

	for i, e := range edges {
		for k := 1; k < len(e.Waypoints)-1; k++ {
			e.Waypoints[k] = e.Waypoints[k].Add(deltas[i][k])
		}
	}
	return nil
}

// Reset collapses every path to the straight segment between the current
// endpoint positions.
func Reset(edges []*graph.Edge) {
	for _, e := range edges {
		e.ResetWaypoints()
	}
}

// Subdivide inserts the midpoint between every pair of consecutive
// waypoints, turning n points into 2n-1. Existing points keep their
// positions.
func Subdivide(e *graph.Edge) {
	old := e.Waypoints
	if len(old) < 2 {
		e.ResetWaypoints()
		return
	}
	out := make([]geom.Point, 0, 2*len(old)-1)
	for k := 0; k < len(old)-1; k++ {
		out = append(out, old[k], geom.Midpoint(old[k], old[k+1]))
	}
	e.Waypoints = append(out, old[len(old)-1])
}

// SubdivideAll subdivides every edge.
func SubdivideAll(edges []*graph.Edge) {
	for _, e := range edges {
		Subdivide(e)
	}
}

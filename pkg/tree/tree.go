package tree

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/observability"
)

// =============================================================================
// Algorithms & Root Strategies
// =============================================================================

// Algorithm names a traversal strategy.
type Algorithm string

const (
	DFS       Algorithm = "dfs"
	BFS       Algorithm = "bfs"
	BFSLegacy Algorithm = "bfs-legacy"
	Prims     Algorithm = "prims"
	DFSForest Algorithm = "dfs-forest"
)

// Algorithms returns every supported algorithm in display order.
func Algorithms() []Algorithm {
	return []Algorithm{DFS, BFS, BFSLegacy, Prims, DFSForest}
}

// ParseAlgorithm validates an algorithm name. The empty string selects DFS.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return DFS, nil
	}
	a := Algorithm(s)
	if !slices.Contains(Algorithms(), a) {
		return "", errors.New(errors.ErrCodeInvalidAlgorithm, "unknown algorithm %q (want one of %v)", s, Algorithms())
	}
	return a, nil
}

// RootStrategy selects how the traversal root is chosen.
type RootStrategy string

const (
	// MostConnected uses the layer's precomputed root.
	MostConnected RootStrategy = "most-connected"
	// Explicit uses the id supplied by the caller.
	Explicit RootStrategy = "explicit"
)

// =============================================================================
// Results
// =============================================================================

// Pair is one tree edge. The first pair of every tree is (root, root).
type Pair struct {
	Parent string  `json:"parent"`
	Child  string  `json:"child"`
	Weight float64 `json:"weight,omitempty"`
}

// Result is the output of one traversal. Results never share state with the
// builder or with each other.
type Result struct {
	Algorithm Algorithm `json:"algorithm"`
	Layer     int       `json:"layer"`
	Root      string    `json:"root"`
	Pairs     []Pair    `json:"pairs"`
	// Unreached counts layer vertices the traversal could not reach.
	Unreached int `json:"unreached"`
}

// Len returns the number of vertices covered by the tree.
func (r *Result) Len() int { return len(r.Pairs) }

// Complete reports whether the tree spans the whole layer.
func (r *Result) Complete() bool { return r.Unreached == 0 }

// TotalWeight sums the weights of the tree edges.
func (r *Result) TotalWeight() float64 {
	var sum float64
	for _, p := range r.Pairs[min(1, len(r.Pairs)):] {
		sum += p.Weight
	}
	return sum
}

// Children returns the children of parent in emission order.
func (r *Result) Children(parent string) []string {
	var out []string
	for _, p := range r.Pairs {
		if p.Parent == parent && p.Child != parent {
			out = append(out, p.Child)
		}
	}
	return out
}

// =============================================================================
// Builder
// =============================================================================

// Request describes one tree construction.
type Request struct {
	Algorithm Algorithm
	Layer     int
	Strategy  RootStrategy
	// Root is the explicit root id. It is ignored under MostConnected.
	Root string
}

// Builder builds spanning trees over one layer of a model.
type Builder struct {
	Logger *log.Logger
}

// New returns a Builder logging to logger. A nil logger discards output.
func New(logger *log.Logger) *Builder {
	if logger == nil {
		logger = discard
	}
	return &Builder{Logger: logger}
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return discard
	}
	return b.Logger
}

var discard = log.NewWithOptions(io.Discard, log.Options{})

// ResolveRoot returns the traversal root for a layer.
//
// Under MostConnected the layer's stored root is used. Under Explicit the
// caller's id is used and must name a vertex of the layer. An empty strategy
// picks Explicit when root is non-empty. Invalid layers fail with
// ErrCodeInvalidLayer and missing or foreign roots with ErrCodeInvalidRoot.
func ResolveRoot(m *graph.Model, layer int, strategy RootStrategy, root string) (string, error) {
	l, ok := m.Layer(layer)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidLayer, "layer %d out of range [0,%d)", layer, m.LayerCount())
	}
	if strategy == "" {
		strategy = MostConnected
		if root != "" {
			strategy = Explicit
		}
	}

	switch strategy {
	case MostConnected:
		root = l.Root
	case Explicit:
	default:
		return "", errors.New(errors.ErrCodeInvalidOptions, "unknown root strategy %q", strategy)
	}

	if root == "" {
		return "", errors.New(errors.ErrCodeInvalidRoot, "no root for layer %d", layer)
	}
	v, ok := m.Vertex(root)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidRoot, "root %q not found", root)
	}
	if v.Layer != layer {
		return "", errors.New(errors.ErrCodeInvalidRoot, "root %q belongs to layer %d, not %d", root, v.Layer, layer)
	}
	return root, nil
}

// Build resolves the root and dispatches on req.Algorithm. It returns one
// Result, or one per component for DFSForest.
func (b *Builder) Build(ctx context.Context, m *graph.Model, req Request) ([]*Result, error) {
	alg, err := ParseAlgorithm(string(req.Algorithm))
	if err != nil {
		return nil, err
	}
	root, err := ResolveRoot(m, req.Layer, req.Strategy, req.Root)
	if err != nil {
		return nil, err
	}

	var r *Result
	switch alg {
	case DFS:
		r, err = b.DepthFirst(ctx, m, root, req.Layer)
	case BFS:
		r, err = b.BreadthFirst(ctx, m, root, req.Layer)
	case BFSLegacy:
		r, err = b.StackOrder(ctx, m, root, req.Layer)
	case Prims:
		r, err = b.Prims(ctx, m, root, req.Layer)
	case DFSForest:
		return b.DepthFirstForest(ctx, m, root, req.Layer)
	}
	if err != nil {
		return nil, err
	}
	return []*Result{r}, nil
}

// traverse wraps a traversal with root validation, timing, the disconnected
// graph warning and hook reporting.
func (b *Builder) traverse(ctx context.Context, alg Algorithm, m *graph.Model, root string, layer int,
	walk func(root *graph.Vertex, visited map[string]bool) []Pair) (*Result, error) {
	if _, err := ResolveRoot(m, layer, Explicit, root); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l, _ := m.Layer(layer)
	hooks := observability.Tree()
	hooks.OnTreeStart(ctx, string(alg), layer, l.Len())
	start := time.Now()

	v, _ := m.Vertex(root)
	visited := map[string]bool{root: true}
	pairs := walk(v, visited)

	r := &Result{
		Algorithm: alg,
		Layer:     layer,
		Root:      root,
		Pairs:     pairs,
		Unreached: l.Len() - len(pairs),
	}
	if r.Unreached > 0 {
		b.logger().Warn("disconnected graph", "unreached", r.Unreached, "layer", layer, "algorithm", alg)
	}
	b.logger().Debug("built tree", "algorithm", alg, "layer", layer, "root", root, "size", r.Len())
	hooks.OnTreeBuilt(ctx, string(alg), layer, r.Len(), r.Unreached, time.Since(start), nil)
	return r, nil
}

// Package pipeline sequences the layerweave stages so the CLI and the HTTP
// server share one implementation.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a graph document and build its [graph.Model]
//  2. Tree: build spanning trees over one layer ([tree.Builder])
//  3. Bundle: run edge bundling over a candidate edge set ([bundle.Bundler])
//
// The tree and bundle stages are cached. Keys combine the hash of the
// canonical graph document with the parameters that affect the result, so
// an edited graph or a changed parameter never reuses stale output.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.Options{GraphPath: "graph.json", Algorithm: "prims"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range result.Trees {
//	    fmt.Println(t.Root, t.Len())
//	}
//
// Run individual stages:
//
//	m, hash, err := runner.Load(ctx, "graph.json")
//	trees, hit, err := runner.TreeWithCacheInfo(ctx, m, hash, opts)
//	paths, stats, hit, err := runner.BundleWithCacheInfo(ctx, m, hash, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/cache"
	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlgorithm is the tree algorithm used when none is given.
	DefaultAlgorithm = tree.DFS

	// DefaultEdges bundles only the edges between layers.
	DefaultEdges = EdgesInterlayer
)

// Candidate edge subsets for bundling.
const (
	EdgesInterlayer = "interlayer"
	EdgesAll        = "all"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run. It supports JSON
// for API requests.
//
// Bundle should start from bundle.DefaultOptions(): zero MaxLoops and zero
// CompatThreshold are meaningful values and are not replaced by defaults.
type Options struct {
	// Load options
	GraphPath string `json:"graph_path,omitempty"`

	// Tree options
	Algorithm    string `json:"algorithm,omitempty"`
	Layer        int    `json:"layer"`
	RootStrategy string `json:"root_strategy,omitempty"`
	Root         string `json:"root,omitempty"`
	SkipTree     bool   `json:"skip_tree,omitempty"`

	// Bundle options
	Bundle     bundle.Options `json:"bundle"`
	Edges      string         `json:"edges,omitempty"`
	SkipBundle bool           `json:"skip_bundle,omitempty"`

	// Refresh recomputes cached stages and overwrites their entries.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the loaded graph. After the bundle stage its candidate edges
	// carry the bundled waypoints.
	Model *graph.Model

	// GraphHash is the content hash of the canonical graph document.
	GraphHash string

	// Trees holds one result, or one per component for dfs-forest.
	Trees []*tree.Result

	// Paths are the bundled candidate edges.
	Paths []graph.PathDoc

	// Bundle reports the bundling run. It is restored from cache on a hit.
	Bundle bundle.Stats

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Vertices   int
	Edges      int
	LoadTime   time.Duration
	TreeTime   time.Duration
	BundleTime time.Duration
}

// CacheInfo tracks cache hits for each cached stage.
type CacheInfo struct {
	TreeHit   bool
	BundleHit bool
}

// =============================================================================
// Options Methods
// =============================================================================

// SetTreeDefaults fills unset tree options.
func (o *Options) SetTreeDefaults() {
	if o.Algorithm == "" {
		o.Algorithm = string(DefaultAlgorithm)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForTree applies tree defaults and validates them.
func (o *Options) ValidateForTree() error {
	o.SetTreeDefaults()
	if _, err := tree.ParseAlgorithm(o.Algorithm); err != nil {
		return err
	}
	switch tree.RootStrategy(o.RootStrategy) {
	case "", tree.MostConnected, tree.Explicit:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown root strategy %q", o.RootStrategy)
	}
	if o.Layer < 0 {
		return errors.New(errors.ErrCodeInvalidLayer, "layer must be >= 0, got %d", o.Layer)
	}
	return nil
}

// SetBundleDefaults fills unset bundle options. Stiffness and StepSize must
// be positive, so zero means unset for them.
func (o *Options) SetBundleDefaults() {
	if o.Edges == "" {
		o.Edges = DefaultEdges
	}
	if o.Bundle.Stiffness == 0 {
		o.Bundle.Stiffness = bundle.DefaultStiffness
	}
	if o.Bundle.StepSize == 0 {
		o.Bundle.StepSize = bundle.DefaultStepSize
	}
	if o.Bundle.Electro == "" {
		o.Bundle.Electro = bundle.ElectroSameIndex
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Bundle.Logger == nil {
		o.Bundle.Logger = o.Logger
	}
}

// ValidateForBundle applies bundle defaults and validates them.
func (o *Options) ValidateForBundle() error {
	o.SetBundleDefaults()
	switch o.Edges {
	case EdgesInterlayer, EdgesAll:
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "edges must be %q or %q, got %q", EdgesInterlayer, EdgesAll, o.Edges)
	}
	return o.Bundle.Validate()
}

// TreeRequest returns the tree.Request for these options.
func (o *Options) TreeRequest() tree.Request {
	return tree.Request{
		Algorithm: tree.Algorithm(o.Algorithm),
		Layer:     o.Layer,
		Strategy:  tree.RootStrategy(o.RootStrategy),
		Root:      o.Root,
	}
}

// TreeKeyOpts returns cache key options for a tree rooted at root.
func (o *Options) TreeKeyOpts(root string) cache.TreeKeyOpts {
	return cache.TreeKeyOpts{
		Algorithm: o.Algorithm,
		Layer:     o.Layer,
		Root:      root,
	}
}

// BundleKeyOpts returns cache key options for bundling.
func (o *Options) BundleKeyOpts() cache.BundleKeyOpts {
	return cache.BundleKeyOpts{
		MaxLoops:        o.Bundle.MaxLoops,
		Stiffness:       o.Bundle.Stiffness,
		StepSize:        o.Bundle.StepSize,
		CompatThreshold: o.Bundle.CompatThreshold,
		Electro:         string(o.Bundle.Electro),
		Edges:           o.Edges,
	}
}

// Candidates returns the edges of m selected by o.Edges.
func (o *Options) Candidates(m *graph.Model) []*graph.Edge {
	if o.Edges == EdgesAll {
		return m.AllEdges()
	}
	return m.InterlayerEdges()
}

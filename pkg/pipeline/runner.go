package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/cache"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can share a Runner as long as each works on its own Model.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// bundleEntry is the cached form of a bundling run.
type bundleEntry struct {
	Paths []graph.PathDoc `json:"paths"`
	Stats bundle.Stats    `json:"stats"`
}

// Execute runs load → tree → bundle with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.GraphPath == "" {
		return nil, fmt.Errorf("graph path is required")
	}
	r.applyLogger(&opts)

	loadStart := time.Now()
	m, hash, err := r.Load(ctx, opts.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result := &Result{Model: m, GraphHash: hash}
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Vertices = m.VertexCount()
	result.Stats.Edges = m.EdgeCount()

	r.Logger.Info("loaded graph",
		"vertices", m.VertexCount(),
		"edges", m.EdgeCount(),
		"layers", m.LayerCount(),
		"duration", result.Stats.LoadTime)

	if err := r.run(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteModel runs the tree and bundle stages on an already built model.
// The server uses it for graphs posted in request bodies.
func (r *Runner) ExecuteModel(ctx context.Context, m *graph.Model, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	hash, err := GraphHash(m)
	if err != nil {
		return nil, err
	}
	result := &Result{Model: m, GraphHash: hash}
	result.Stats.Vertices = m.VertexCount()
	result.Stats.Edges = m.EdgeCount()
	if err := r.run(ctx, result, opts); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, result *Result, opts Options) error {
	m := result.Model

	if !opts.SkipTree {
		treeStart := time.Now()
		trees, hit, err := r.TreeWithCacheInfo(ctx, m, result.GraphHash, opts)
		if err != nil {
			return fmt.Errorf("tree: %w", err)
		}
		result.Trees = trees
		result.Stats.TreeTime = time.Since(treeStart)
		result.CacheInfo.TreeHit = hit

		r.Logger.Info("built tree",
			"algorithm", opts.Algorithm,
			"trees", len(trees),
			"cached", hit,
			"duration", result.Stats.TreeTime)
	}

	if !opts.SkipBundle {
		bundleStart := time.Now()
		paths, stats, hit, err := r.BundleWithCacheInfo(ctx, m, result.GraphHash, opts)
		if err != nil {
			return fmt.Errorf("bundle: %w", err)
		}
		result.Paths = paths
		result.Bundle = stats
		result.Stats.BundleTime = time.Since(bundleStart)
		result.CacheInfo.BundleHit = hit

		r.Logger.Info("bundled edges",
			"edges", stats.Edges,
			"compatible_pairs", stats.CompatiblePairs,
			"cached", hit,
			"duration", result.Stats.BundleTime)
	}
	return nil
}

// Load reads the document at path, builds its model and returns the model
// with its graph hash.
func (r *Runner) Load(ctx context.Context, path string) (*graph.Model, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	doc, err := graph.ReadDocumentFile(path)
	if err != nil {
		return nil, "", err
	}
	m, err := graph.Build(doc.Input())
	if err != nil {
		return nil, "", err
	}
	hash, err := GraphHash(m)
	if err != nil {
		return nil, "", err
	}
	return m, hash, nil
}

// GraphHash hashes the canonical document of m. Two inputs that build the
// same model hash alike, whatever their edge record order or create flags.
func GraphHash(m *graph.Model) (string, error) {
	data, err := graph.MarshalDocument(graph.FromModel(m))
	if err != nil {
		return "", fmt.Errorf("serialize graph for cache key: %w", err)
	}
	return cache.Hash(data), nil
}

// TreeWithCacheInfo builds the requested tree with caching and returns
// cache hit info.
func (r *Runner) TreeWithCacheInfo(ctx context.Context, m *graph.Model, graphHash string, opts Options) ([]*tree.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForTree(); err != nil {
		return nil, false, err
	}

	req := opts.TreeRequest()
	root, err := tree.ResolveRoot(m, req.Layer, req.Strategy, req.Root)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.TreeKey(graphHash, opts.TreeKeyOpts(root))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached []*tree.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
	}

	trees, err := tree.New(opts.Logger).Build(ctx, m, req)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(trees); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLTree); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}
	return trees, false, nil
}

// Tree is a convenience wrapper that calls TreeWithCacheInfo and discards
// the cache hit info.
func (r *Runner) Tree(ctx context.Context, m *graph.Model, graphHash string, opts Options) ([]*tree.Result, error) {
	trees, _, err := r.TreeWithCacheInfo(ctx, m, graphHash, opts)
	return trees, err
}

// BundleWithCacheInfo bundles the candidate edges of m with caching and
// returns cache hit info. On a hit the cached paths are applied to m, so
// the model looks the same as after a fresh run.
func (r *Runner) BundleWithCacheInfo(ctx context.Context, m *graph.Model, graphHash string, opts Options) ([]graph.PathDoc, bundle.Stats, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForBundle(); err != nil {
		return nil, bundle.Stats{}, false, err
	}

	cacheKey := r.Keyer.BundleKey(graphHash, opts.BundleKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached bundleEntry
			if err := json.Unmarshal(data, &cached); err == nil {
				if err := graph.ApplyPaths(m, cached.Paths); err == nil {
					return cached.Paths, cached.Stats, true, nil
				}
			}
			// If the entry does not fit the model, fall through to recompute
		}
	}

	b, err := bundle.New(opts.Bundle)
	if err != nil {
		return nil, bundle.Stats{}, false, err
	}
	edges := opts.Candidates(m)
	stats, err := b.Run(ctx, edges)
	if err != nil {
		return nil, stats, false, err
	}
	paths := graph.EdgePaths(edges)

	if data, err := json.Marshal(bundleEntry{Paths: paths, Stats: stats}); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLBundle); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}
	return paths, stats, false, nil
}

// Bundle is a convenience wrapper that calls BundleWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Bundle(ctx context.Context, m *graph.Model, graphHash string, opts Options) ([]graph.PathDoc, bundle.Stats, error) {
	paths, stats, _, err := r.BundleWithCacheInfo(ctx, m, graphHash, opts)
	return paths, stats, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

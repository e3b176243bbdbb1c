// Package pkg provides the core libraries of layerweave.
//
// # Overview
//
// Layerweave works on layered graphs: the vertex set is partitioned into
// layers, edges inside a layer carry weights, and a separate set of edges
// connects layers. Two operations run over such a graph:
//
//  1. Spanning trees over one layer (depth-first, breadth-first, Prim's
//     minimum spanning tree, or one depth-first tree per component)
//  2. Force-directed edge bundling, which bends a candidate edge set into
//     bundles by subdividing every edge and relaxing its waypoints
//
// # Architecture
//
//	graph document (JSON)
//	         ↓
//	    [graph] package (validate, build the Model)
//	         ↓
//	    [tree] package          [bundle] package
//	         ↓                        ↓
//	    parent/child pairs      bundled paths
//	         ↓                        ↓
//	    [render/nodelink]       JSON / HTTP
//
// [pipeline] sequences these stages for the CLI and the HTTP server and
// caches their results through [cache].
//
// # Quick Start
//
//	m, _ := graph.LoadFile("graph.json")
//
//	trees, _ := tree.New(nil).Build(ctx, m, tree.Request{Algorithm: tree.Prims})
//	fmt.Println(trees[0].Pairs)
//
//	b, _ := bundle.New(bundle.DefaultOptions())
//	stats, _ := b.Run(ctx, m.InterlayerEdges())
//	paths := graph.EdgePaths(m.InterlayerEdges())
//
// # Main Packages
//
// [geom] - 2-D points and the vector helpers the bundler needs.
//
// [graph] - The layered graph model, its builder and the JSON document
// format.
//
// [tree] - Spanning tree construction and root selection.
//
// [bundle] - Force-directed edge bundling: compatibility measures, the force
// rule and the subdivide-and-relax schedule.
//
// [pipeline] - Load, tree and bundle stages with content-addressed caching.
//
// [cache] - Cache backends (file, Redis, MongoDB, null) and key derivation.
//
// [config] - TOML configuration.
//
// [render/nodelink] - Graphviz node-link diagrams with tree highlighting.
//
// [render] - SVG to PDF/PNG conversion.
//
// [errors] - Coded errors shared by every package and mapped to HTTP
// statuses by the server.
//
// [observability] - Hook interfaces for metrics; the Prometheus
// implementation lives in internal/metrics.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test ./pkg/bundle/...             # Specific package
//	go test -short ./...                 # Skip Graphviz rendering
//
// Redis and MongoDB cache tests run when LAYERWEAVE_REDIS_ADDR or
// LAYERWEAVE_MONGO_URI is set.
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/geom
// [graph]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/graph
// [tree]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/tree
// [bundle]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/bundle
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/config
// [render]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/render/nodelink
// [errors]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/layerweave/pkg/observability
package pkg

// Package tree builds spanning trees over one layer of a layered graph.
//
// A [Builder] offers depth-first, breadth-first and Prim traversals plus an
// exhaustive depth-first forest. Every traversal starts at a root inside the
// requested layer, follows only intra-layer incidences and returns a fresh
// [Result]: an ordered list of (parent, child) pairs whose first entry is
// (root, root).
//
// # Algorithms
//
//   - [DFS]: pre-order depth-first search in incidence order
//   - [BFS]: breadth-first search with a FIFO queue
//   - [BFSLegacy]: the historical stack-ordered variant, kept for comparing
//     against old output
//   - [Prims]: minimum spanning tree with a linear-scan frontier
//   - [DFSForest]: repeated DFS until every vertex is covered
//
// # Disconnected Layers
//
// Unreachable vertices are not an error. The Result reports how many were
// missed in Unreached, the builder logs a "disconnected graph" warning and
// the tree hooks in pkg/observability receive the count.
//
// # Usage
//
//	b := tree.New(logger)
//	results, err := b.Build(ctx, model, tree.Request{
//	    Algorithm: tree.Prims,
//	    Layer:     0,
//	    Strategy:  tree.MostConnected,
//	})
package tree

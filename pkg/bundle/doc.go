// Package bundle implements force-directed edge bundling.
//
// Candidate edges (by default the inter-layer edges of a model) are drawn
// towards compatible neighbors so that edges running in similar directions
// merge into visual bundles. The routed shape is stored in each edge's
// waypoint list; vertex positions are never modified.
//
// # Algorithm
//
// A run resets every candidate path to its straight segment and then repeats
// MaxLoops cycles of:
//
//  1. Subdivide: insert a midpoint between consecutive waypoints (n → 2n-1)
//  2. Relax: for every pair whose [Compatibility] exceeds CompatThreshold,
//     move each interior waypoint towards the waypoint with the same index
//     on the other edge, scaled by the compatibility, the [Forces] magnitude
//     and a step that halves every cycle
//
// Displacements of one cycle are buffered and applied together, so the
// result does not depend on the order in which pairs are evaluated.
//
// # Compatibility
//
// Compatibility is the product of [AngleCompat], [DistanceCompat] and
// [VisibilityCompat], each computed from the fixed endpoint positions only.
// [ScaleCompat] is available but not part of the product. Scores are
// computed once per run by a bounded worker pool.
//
// # Usage
//
//	b, err := bundle.New(bundle.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	stats, err := b.Run(ctx, model.InterlayerEdges())
package bundle

// Package graph provides the layered graph model shared by the tree builder
// and the edge bundler, together with its JSON wire format.
//
// # Model
//
// A [Model] partitions its vertices into layers. Each layer has a "most
// connected" root used as the default traversal start. Edges are either
// intra-layer (both endpoints in the same layer) or inter-layer; the latter
// are the default candidates for edge bundling.
//
// Every edge is recorded in the incidence lists of both endpoints, in
// creation order, so traversals see a symmetric adjacency regardless of how
// the input listed it. Each edge also carries a waypoint path: at least two
// points whose first and last entries follow the live endpoint positions.
//
// # Construction
//
// Models are built from adjacency input with [Build]:
//
//	m, err := graph.Build(graph.Input{
//	    Layers: []graph.Adjacency{{
//	        {ID: "a", Entries: []graph.AdjacencyEntry{{To: "b", Create: true, Weight: 1}}},
//	        {ID: "b", Entries: []graph.AdjacencyEntry{{To: "a", Weight: 1}}},
//	    }},
//	})
//
// Only entries with Create set produce an edge. Hosts that list both
// directions of an undirected edge mark the mirrored record with Create false.
//
// # Documents
//
// [Document] is the JSON form read by the CLI and the HTTP API:
//
//	{
//	  "directed": false,
//	  "layers": [
//	    {"root": "a", "vertices": [
//	      {"id": "a", "x": 0, "y": 0, "edges": [{"to": "b", "weight": 1}]},
//	      {"id": "b", "x": 10, "y": 0}
//	    ]}
//	  ],
//	  "interlayer": [{"id": "a", "edges": [{"to": "c", "weight": 1}]}]
//	}
//
// Use [ReadDocumentFile] or [LoadFile] to read one, [EdgePaths] to serialize
// routed edges and [ApplyPaths] to restore them.
package graph

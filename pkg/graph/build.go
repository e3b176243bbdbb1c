package graph

import (
	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/geom"
)

// AdjacencyEntry is one neighbor record of an adjacency list.
// Only entries with Create set produce an edge; the mirrored record of an
// undirected edge is usually listed with Create false.
type AdjacencyEntry struct {
	To     string
	Create bool
	Weight float64
}

// AdjacencyList holds the neighbor records of one vertex.
type AdjacencyList struct {
	ID      string
	Entries []AdjacencyEntry
}

// Adjacency maps vertex ids to neighbor records. It is a slice rather than a
// map so that vertex order, and with it traversal order, is reproducible.
type Adjacency []AdjacencyList

// Input is everything Build needs to construct a Model.
type Input struct {
	// Layers holds one adjacency per layer. The vertex set of layer i is the
	// set of ids listed in Layers[i].
	Layers []Adjacency

	// Interlayer holds edges between layers. Its ids must already be
	// declared by some layer.
	Interlayer Adjacency

	// Roots optionally supplies the "most connected" vertex per layer. Empty
	// or missing entries are computed from intra-layer degree.
	Roots []string

	// Positions are the coordinates produced by the external layout
	// generator. Vertices without an entry start at the origin.
	Positions map[string]geom.Point

	Directed bool
}

// Build constructs a Model from adjacency input.
//
// Vertices are created layer by layer in input order, then intra-layer edges,
// then inter-layer edges. Build returns an ErrCodeInvalidGraph error when an
// id is empty, declared twice, or referenced by an edge without being
// declared, when an intra-layer edge leaves its layer, or when a weight is
// not finite.
func Build(in Input) (*Model, error) {
	m := newModel(in.Directed, len(in.Layers))

	for li, adj := range in.Layers {
		for _, list := range adj {
			if err := m.addVertex(list.ID, li, in.Positions[list.ID]); err != nil {
				return nil, err
			}
		}
	}

	for li, adj := range in.Layers {
		for _, list := range adj {
			start := m.vertices[list.ID]
			for _, entry := range list.Entries {
				if !entry.Create {
					continue
				}
				end, err := m.endpoint(list.ID, entry)
				if err != nil {
					return nil, err
				}
				if end.Layer != li {
					return nil, errors.New(errors.ErrCodeInvalidGraph,
						"edge %s->%s leaves layer %d; declare it as inter-layer", list.ID, entry.To, li)
				}
				m.addEdge(start, end, entry.Weight, false)
			}
		}
	}

	for _, list := range in.Interlayer {
		start, ok := m.vertices[list.ID]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidGraph, "inter-layer vertex %q is not declared by any layer", list.ID)
		}
		for _, entry := range list.Entries {
			if !entry.Create {
				continue
			}
			end, err := m.endpoint(list.ID, entry)
			if err != nil {
				return nil, err
			}
			m.addEdge(start, end, entry.Weight, true)
		}
	}

	for i, l := range m.layers {
		if i < len(in.Roots) && in.Roots[i] != "" {
			v, ok := m.vertices[in.Roots[i]]
			if !ok || v.Layer != i {
				return nil, errors.New(errors.ErrCodeInvalidRoot, "root %q is not a vertex of layer %d", in.Roots[i], i)
			}
			l.Root = in.Roots[i]
			continue
		}
		l.Root = m.MostConnected(i)
	}

	return m, nil
}

func (m *Model) endpoint(from string, entry AdjacencyEntry) (*Vertex, error) {
	if err := errors.ValidateWeight(entry.Weight); err != nil {
		return nil, err
	}
	end, ok := m.vertices[entry.To]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "edge %s->%s references an unknown vertex", from, entry.To)
	}
	return end, nil
}

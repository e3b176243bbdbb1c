package tree

import (
	"context"
	"slices"

	"github.com/matzehuels/layerweave/pkg/graph"
)

// candidate is a frontier entry: the cheapest known edge from the tree to v.
type candidate struct {
	v      *graph.Vertex
	parent string
	weight float64
}

// frontier keeps candidates in insertion order so that ties resolve to the
// candidate discovered first.
type frontier struct {
	items []candidate
	index map[string]int
}

func newFrontier() *frontier {
	return &frontier{index: make(map[string]int)}
}

// offer records an edge into v unless a strictly cheaper or equal one is
// already known. The entry keeps its original position when improved.
func (f *frontier) offer(v *graph.Vertex, parent string, weight float64) {
	if i, ok := f.index[v.ID]; ok {
		if weight < f.items[i].weight {
			f.items[i].parent = parent
			f.items[i].weight = weight
		}
		return
	}
	f.index[v.ID] = len(f.items)
	f.items = append(f.items, candidate{v: v, parent: parent, weight: weight})
}

// pop removes and returns the cheapest candidate found by a linear scan.
func (f *frontier) pop() candidate {
	best := 0
	for i := 1; i < len(f.items); i++ {
		if f.items[i].weight < f.items[best].weight {
			best = i
		}
	}
	c := f.items[best]
	f.items = slices.Delete(f.items, best, best+1)
	delete(f.index, c.v.ID)
	for i := best; i < len(f.items); i++ {
		f.index[f.items[i].v.ID] = i
	}
	return c
}

func (f *frontier) empty() bool { return len(f.items) == 0 }

// Prims grows a minimum spanning tree from root.
//
// The frontier is scanned linearly for its cheapest entry; on ties the entry
// inserted first wins. A frontier entry is only replaced by a strictly
// cheaper edge and visited vertices are never re-offered. If the frontier
// empties before the layer is covered the tree is returned partial and a
// warning is logged.
func (b *Builder) Prims(ctx context.Context, m *graph.Model, root string, layer int) (*Result, error) {
	size := len(m.LayerVertices(layer))
	return b.traverse(ctx, Prims, m, root, layer, func(v *graph.Vertex, visited map[string]bool) []Pair {
		pairs := []Pair{{Parent: v.ID, Child: v.ID}}
		f := newFrontier()
		expand := func(from *graph.Vertex) {
			for _, inc := range from.LayerIncidences() {
				if !visited[inc.Neighbor.ID] {
					f.offer(inc.Neighbor, from.ID, inc.Edge.Weight)
				}
			}
		}

		expand(v)
		for len(pairs) < size && !f.empty() {
			c := f.pop()
			visited[c.v.ID] = true
			pairs = append(pairs, Pair{Parent: c.parent, Child: c.v.ID, Weight: c.weight})
			expand(c.v)
		}
		return pairs
	})
}

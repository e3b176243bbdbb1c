package tree

import (
	"context"
	"time"

	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/observability"
)

// DepthFirst builds a pre-order depth-first tree from root. Before
// descending into a neighbor it emits (current, neighbor), and neighbors are
// tried in incidence order. An explicit stack keeps deep layers from
// exhausting the goroutine stack; the order matches the recursive
// formulation.
func (b *Builder) DepthFirst(ctx context.Context, m *graph.Model, root string, layer int) (*Result, error) {
	return b.traverse(ctx, DFS, m, root, layer, depthFirst)
}

// BreadthFirst builds a breadth-first tree from root using a FIFO queue.
func (b *Builder) BreadthFirst(ctx context.Context, m *graph.Model, root string, layer int) (*Result, error) {
	return b.traverse(ctx, BFS, m, root, layer, func(v *graph.Vertex, visited map[string]bool) []Pair {
		return queueOrder(v, visited, true)
	})
}

// StackOrder reproduces the historical "breadth-first" search that popped
// from the same end it pushed to. The result is a valid spanning tree but
// not a breadth-first one. Only use it to compare against old output.
func (b *Builder) StackOrder(ctx context.Context, m *graph.Model, root string, layer int) (*Result, error) {
	return b.traverse(ctx, BFSLegacy, m, root, layer, func(v *graph.Vertex, visited map[string]bool) []Pair {
		return queueOrder(v, visited, false)
	})
}

// DepthFirstForest runs DepthFirst from root, then again from the first
// unvisited vertex in layer order, until every vertex of the layer belongs to
// some tree. It returns one Result per connected component.
func (b *Builder) DepthFirstForest(ctx context.Context, m *graph.Model, root string, layer int) ([]*Result, error) {
	if _, err := ResolveRoot(m, layer, Explicit, root); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vertices := m.LayerVertices(layer)
	hooks := observability.Tree()
	hooks.OnTreeStart(ctx, string(DFSForest), layer, len(vertices))
	start := time.Now()

	visited := make(map[string]bool, len(vertices))
	next, _ := m.Vertex(root)
	var forest []*Result
	covered := 0
	for next != nil {
		visited[next.ID] = true
		pairs := depthFirst(next, visited)
		covered += len(pairs)
		forest = append(forest, &Result{
			Algorithm: DFSForest,
			Layer:     layer,
			Root:      next.ID,
			Pairs:     pairs,
		})

		next = nil
		for _, v := range vertices {
			if !visited[v.ID] {
				next = v
				break
			}
		}
	}

	b.logger().Debug("built forest", "layer", layer, "root", root, "components", len(forest), "size", covered)
	hooks.OnTreeBuilt(ctx, string(DFSForest), layer, covered, 0, time.Since(start), nil)
	return forest, nil
}

type frame struct {
	v    *graph.Vertex
	incs []graph.Incidence
	next int
}

func depthFirst(root *graph.Vertex, visited map[string]bool) []Pair {
	pairs := []Pair{{Parent: root.ID, Child: root.ID}}
	stack := []*frame{{v: root, incs: root.LayerIncidences()}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.incs) {
			stack = stack[:len(stack)-1]
			continue
		}
		inc := top.incs[top.next]
		top.next++
		if visited[inc.Neighbor.ID] {
			continue
		}
		visited[inc.Neighbor.ID] = true
		pairs = append(pairs, Pair{Parent: top.v.ID, Child: inc.Neighbor.ID, Weight: inc.Edge.Weight})
		stack = append(stack, &frame{v: inc.Neighbor, incs: inc.Neighbor.LayerIncidences()})
	}
	return pairs
}

type pending struct {
	v      *graph.Vertex
	parent string
	weight float64
}

// queueOrder visits vertices in FIFO order when fifo is set and in LIFO
// order otherwise. Vertices are marked when enqueued so each appears once.
func queueOrder(root *graph.Vertex, visited map[string]bool, fifo bool) []Pair {
	var pairs []Pair
	queue := []pending{{v: root, parent: root.ID}}
	for len(queue) > 0 {
		var cur pending
		if fifo {
			cur, queue = queue[0], queue[1:]
		} else {
			cur, queue = queue[len(queue)-1], queue[:len(queue)-1]
		}
		pairs = append(pairs, Pair{Parent: cur.parent, Child: cur.v.ID, Weight: cur.weight})
		for _, inc := range cur.v.LayerIncidences() {
			if visited[inc.Neighbor.ID] {
				continue
			}
			visited[inc.Neighbor.ID] = true
			queue = append(queue, pending{v: inc.Neighbor, parent: cur.v.ID, weight: inc.Edge.Weight})
		}
	}
	return pairs
}

package graph

import (
	"slices"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/geom"
)

// =============================================================================
// Vertex
// =============================================================================

// Incidence pairs an edge with the vertex at its other end.
type Incidence struct {
	Edge     *Edge
	Neighbor *Vertex
}

// Vertex is a node of the layered graph.
//
// Incidences are recorded in edge creation order and every edge appears in
// the incidence list of both of its endpoints. Traversals visit neighbors in
// this order.
type Vertex struct {
	ID         string
	Layer      int
	Pos        geom.Point
	Incidences []Incidence
}

// Degree returns the number of incident edges, inter-layer edges included.
func (v *Vertex) Degree() int { return len(v.Incidences) }

// LayerIncidences returns the incidences whose edge stays inside v's layer.
// The returned slice is freshly allocated and preserves incidence order.
func (v *Vertex) LayerIncidences() []Incidence {
	out := make([]Incidence, 0, len(v.Incidences))
	for _, inc := range v.Incidences {
		if !inc.Edge.Interlayer && inc.Neighbor.Layer == v.Layer {
			out = append(out, inc)
		}
	}
	return out
}

// =============================================================================
// Edge
// =============================================================================

// EdgeKey identifies an edge by its endpoint ids and weight.
// Two edges with the same key are indistinguishable to the viewer.
type EdgeKey struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Weight float64 `json:"weight"`
}

// Edge connects two vertices and carries the routed waypoint path.
//
// Waypoints always has at least two points. The first and last points track
// the live positions of Start and End; only the edge bundler moves interior
// points.
type Edge struct {
	Start      *Vertex
	End        *Vertex
	Weight     float64
	Directed   bool
	Interlayer bool
	Waypoints  []geom.Point
}

// Key returns the identity of the edge.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Start: e.Start.ID, End: e.End.ID, Weight: e.Weight}
}

// Vector returns the direction vector from Start to End.
func (e *Edge) Vector() geom.Point { return e.End.Pos.Sub(e.Start.Pos) }

// Length returns the straight-line distance between the endpoints.
func (e *Edge) Length() float64 { return geom.Dist(e.Start.Pos, e.End.Pos) }

// Midpoint returns the midpoint of the straight segment between the endpoints.
func (e *Edge) Midpoint() geom.Point { return geom.Midpoint(e.Start.Pos, e.End.Pos) }

// Other returns the endpoint opposite to v, or nil if v is not an endpoint.
func (e *Edge) Other(v *Vertex) *Vertex {
	switch v {
	case e.Start:
		return e.End
	case e.End:
		return e.Start
	}
	return nil
}

// ResetWaypoints collapses the path to the straight segment between the
// current endpoint positions.
func (e *Edge) ResetWaypoints() {
	e.Waypoints = append(e.Waypoints[:0], e.Start.Pos, e.End.Pos)
}

// Anchor moves the first and last waypoint onto the current endpoint
// positions without touching interior points.
func (e *Edge) Anchor() {
	if len(e.Waypoints) < 2 {
		e.ResetWaypoints()
		return
	}
	e.Waypoints[0] = e.Start.Pos
	e.Waypoints[len(e.Waypoints)-1] = e.End.Pos
}

// =============================================================================
// Layer
// =============================================================================

// Layer is one partition of the vertex set.
type Layer struct {
	Index int
	// IDs lists the layer's vertices in input order.
	IDs []string
	// Root is the "most connected" vertex used as the default traversal root.
	Root string
}

// Len returns the number of vertices in the layer.
func (l *Layer) Len() int { return len(l.IDs) }

// =============================================================================
// Model
// =============================================================================

// Model is the layered graph consumed by the tree builder and the edge
// bundler. It is pure data: apart from SetPosition nothing mutates it after
// Build returns, and the bundler only writes edge waypoints.
//
// A Model is not safe for concurrent mutation. Readers may share it as long
// as no goroutine bundles or moves vertices at the same time.
type Model struct {
	Directed bool

	vertices   map[string]*Vertex
	layers     []*Layer
	edges      []*Edge
	interlayer []*Edge
	byKey      map[EdgeKey][]*Edge
}

func newModel(directed bool, layerCount int) *Model {
	m := &Model{
		Directed: directed,
		vertices: make(map[string]*Vertex),
		layers:   make([]*Layer, layerCount),
		byKey:    make(map[EdgeKey][]*Edge),
	}
	for i := range m.layers {
		m.layers[i] = &Layer{Index: i}
	}
	return m
}

// Vertex returns the vertex with the given id.
func (m *Model) Vertex(id string) (*Vertex, bool) {
	v, ok := m.vertices[id]
	return v, ok
}

// VertexCount returns the number of vertices across all layers.
func (m *Model) VertexCount() int { return len(m.vertices) }

// LayerCount returns the number of layers.
func (m *Model) LayerCount() int { return len(m.layers) }

// Layer returns the layer with the given index.
func (m *Model) Layer(i int) (*Layer, bool) {
	if i < 0 || i >= len(m.layers) {
		return nil, false
	}
	return m.layers[i], true
}

// Layers returns all layers in index order.
func (m *Model) Layers() []*Layer { return slices.Clone(m.layers) }

// LayerVertices returns the vertices of layer i in input order.
func (m *Model) LayerVertices(i int) []*Vertex {
	l, ok := m.Layer(i)
	if !ok {
		return nil
	}
	out := make([]*Vertex, len(l.IDs))
	for j, id := range l.IDs {
		out[j] = m.vertices[id]
	}
	return out
}

// Edges returns the intra-layer edges in creation order.
func (m *Model) Edges() []*Edge { return slices.Clone(m.edges) }

// InterlayerEdges returns the edges recorded from the inter-layer adjacency,
// the default bundling candidates.
func (m *Model) InterlayerEdges() []*Edge { return slices.Clone(m.interlayer) }

// AllEdges returns intra-layer edges followed by inter-layer edges.
func (m *Model) AllEdges() []*Edge {
	out := make([]*Edge, 0, len(m.edges)+len(m.interlayer))
	out = append(out, m.edges...)
	return append(out, m.interlayer...)
}

// EdgeCount returns the number of edges of both kinds.
func (m *Model) EdgeCount() int { return len(m.edges) + len(m.interlayer) }

// EdgeByKey looks an edge up by its identity. Of several parallel edges with
// the same key it returns the first one added.
func (m *Model) EdgeByKey(k EdgeKey) (*Edge, bool) {
	if es := m.byKey[k]; len(es) > 0 {
		return es[0], true
	}
	return nil, false
}

// EdgesByKey returns every edge with key k in the order they were added.
func (m *Model) EdgesByKey(k EdgeKey) []*Edge { return m.byKey[k] }

// MostConnected returns the vertex of layer i with the most intra-layer
// incidences. The first vertex in layer order wins ties. It returns "" for an
// empty or unknown layer.
func (m *Model) MostConnected(i int) string {
	best, bestDeg := "", -1
	for _, v := range m.LayerVertices(i) {
		if d := len(v.LayerIncidences()); d > bestDeg {
			best, bestDeg = v.ID, d
		}
	}
	return best
}

// SetPosition moves a vertex and re-anchors the endpoints of every incident
// edge path. Interior waypoints are left alone until the next bundling pass.
func (m *Model) SetPosition(id string, p geom.Point) error {
	v, ok := m.vertices[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "vertex %q not found", id)
	}
	v.Pos = p
	for _, inc := range v.Incidences {
		inc.Edge.Anchor()
	}
	return nil
}

func (m *Model) addVertex(id string, layer int, pos geom.Point) error {
	if err := errors.ValidateVertexID(id); err != nil {
		return err
	}
	if prev, exists := m.vertices[id]; exists {
		return errors.New(errors.ErrCodeInvalidGraph, "vertex %q appears in layers %d and %d", id, prev.Layer, layer)
	}
	m.vertices[id] = &Vertex{ID: id, Layer: layer, Pos: pos}
	m.layers[layer].IDs = append(m.layers[layer].IDs, id)
	return nil
}

func (m *Model) addEdge(start, end *Vertex, weight float64, interlayer bool) *Edge {
	e := &Edge{
		Start:      start,
		End:        end,
		Weight:     weight,
		Directed:   m.Directed,
		Interlayer: interlayer,
	}
	e.ResetWaypoints()
	start.Incidences = append(start.Incidences, Incidence{Edge: e, Neighbor: end})
	if end != start {
		end.Incidences = append(end.Incidences, Incidence{Edge: e, Neighbor: start})
	}
	if interlayer {
		m.interlayer = append(m.interlayer, e)
	} else {
		m.edges = append(m.edges, e)
	}
	m.byKey[e.Key()] = append(m.byKey[e.Key()], e)
	return e
}

package graph

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/geom"
)

// =============================================================================
// Document Types
// =============================================================================

// Document is the JSON wire form of a layered graph.
//
// Vertices are listed as arrays rather than objects keyed by id so that the
// decoded order, which drives traversal order, matches the file.
type Document struct {
	Directed   bool        `json:"directed"`
	Layers     []LayerDoc  `json:"layers"`
	Interlayer []VertexDoc `json:"interlayer,omitempty"`
}

// LayerDoc is one layer of a Document.
type LayerDoc struct {
	Root     string      `json:"root,omitempty"`
	Vertices []VertexDoc `json:"vertices"`
}

// VertexDoc is a vertex with its position and adjacency records.
// Inter-layer entries only use ID and Edges.
type VertexDoc struct {
	ID    string    `json:"id"`
	X     float64   `json:"x,omitempty"`
	Y     float64   `json:"y,omitempty"`
	Edges []EdgeDoc `json:"edges,omitempty"`
}

// EdgeDoc is one adjacency record. Create defaults to true when omitted.
type EdgeDoc struct {
	To     string  `json:"to"`
	Create *bool   `json:"create,omitempty"`
	Weight float64 `json:"weight"`
}

// PathDoc is the serialized routed path of one edge.
type PathDoc struct {
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Weight    float64      `json:"weight"`
	Waypoints [][2]float64 `json:"waypoints"`
}

// =============================================================================
// Document API
// =============================================================================

// ReadDocumentFile reads and decodes a graph document from path.
func ReadDocumentFile(path string) (*Document, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return ReadDocument(f)
}

// ReadDocument decodes a graph document from r. It does not close r.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph document")
	}
	return &doc, nil
}

// WriteDocument encodes doc as indented JSON to w.
func WriteDocument(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph document")
	}
	return nil
}

// MarshalDocument converts doc to JSON bytes.
func MarshalDocument(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadFile reads the document at path and builds its Model.
func LoadFile(path string) (*Model, error) {
	doc, err := ReadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return Build(doc.Input())
}

// Input converts the document to builder input.
func (d *Document) Input() Input {
	in := Input{
		Directed:  d.Directed,
		Layers:    make([]Adjacency, len(d.Layers)),
		Roots:     make([]string, len(d.Layers)),
		Positions: make(map[string]geom.Point),
	}
	for i, l := range d.Layers {
		in.Roots[i] = l.Root
		adj := make(Adjacency, len(l.Vertices))
		for j, v := range l.Vertices {
			in.Positions[v.ID] = geom.Pt(v.X, v.Y)
			adj[j] = v.list()
		}
		in.Layers[i] = adj
	}
	for _, v := range d.Interlayer {
		in.Interlayer = append(in.Interlayer, v.list())
	}
	return in
}

func (v VertexDoc) list() AdjacencyList {
	entries := make([]AdjacencyEntry, len(v.Edges))
	for i, e := range v.Edges {
		entries[i] = AdjacencyEntry{To: e.To, Create: e.Create == nil || *e.Create, Weight: e.Weight}
	}
	return AdjacencyList{ID: v.ID, Entries: entries}
}

// FromModel converts m back into a document. Every edge is written once,
// as a created record on its start vertex, and vertex positions are the
// current ones.
func FromModel(m *Model) *Document {
	doc := &Document{Directed: m.Directed, Layers: make([]LayerDoc, m.LayerCount())}
	for i, l := range m.layers {
		ld := LayerDoc{Root: l.Root, Vertices: make([]VertexDoc, 0, l.Len())}
		for _, v := range m.LayerVertices(i) {
			vd := VertexDoc{ID: v.ID, X: v.Pos.X, Y: v.Pos.Y}
			for _, inc := range v.Incidences {
				if inc.Edge.Interlayer || inc.Edge.Start != v {
					continue
				}
				vd.Edges = append(vd.Edges, EdgeDoc{To: inc.Neighbor.ID, Weight: inc.Edge.Weight})
			}
			ld.Vertices = append(ld.Vertices, vd)
		}
		doc.Layers[i] = ld
	}

	index := make(map[string]int)
	for _, e := range m.interlayer {
		i, ok := index[e.Start.ID]
		if !ok {
			i = len(doc.Interlayer)
			index[e.Start.ID] = i
			doc.Interlayer = append(doc.Interlayer, VertexDoc{ID: e.Start.ID})
		}
		doc.Interlayer[i].Edges = append(doc.Interlayer[i].Edges, EdgeDoc{To: e.End.ID, Weight: e.Weight})
	}
	return doc
}

// =============================================================================
// Paths
// =============================================================================

// EdgePaths serializes the current waypoint paths of edges.
func EdgePaths(edges []*Edge) []PathDoc {
	out := make([]PathDoc, len(edges))
	for i, e := range edges {
		wps := make([][2]float64, len(e.Waypoints))
		for j, p := range e.Waypoints {
			wps[j] = [2]float64{p.X, p.Y}
		}
		out[i] = PathDoc{Start: e.Start.ID, End: e.End.ID, Weight: e.Weight, Waypoints: wps}
	}
	return out
}

// ApplyPaths copies serialized paths back onto the matching edges of m, for
// example when a cached bundling result is restored. Endpoints are
// re-anchored to the live vertex positions. Paths that share a key go to
// the parallel edges with that key in insertion order, which is the order
// EdgePaths writes them in.
func ApplyPaths(m *Model, paths []PathDoc) error {
	seen := make(map[EdgeKey]int)
	for _, p := range paths {
		k := EdgeKey{Start: p.Start, End: p.End, Weight: p.Weight}
		es := m.EdgesByKey(k)
		if seen[k] >= len(es) {
			return errors.New(errors.ErrCodeNotFound, "no edge %s->%s with weight %v (occurrence %d)", p.Start, p.End, p.Weight, seen[k]+1)
		}
		e := es[seen[k]]
		seen[k]++
		if len(p.Waypoints) < 2 {
			return errors.New(errors.ErrCodeInvalidFormat, "path %s->%s has %d waypoints, need at least 2", p.Start, p.End, len(p.Waypoints))
		}
		e.Waypoints = e.Waypoints[:0]
		for _, wp := range p.Waypoints {
			e.Waypoints = append(e.Waypoints, geom.Pt(wp[0], wp[1]))
		}
		e.Anchor()
	}
	return nil
}

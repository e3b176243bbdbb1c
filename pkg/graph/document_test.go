package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/geom"
)

const sampleDoc = `{
  "directed": false,
  "layers": [
    {"root": "a", "vertices": [
      {"id": "a", "x": 0, "y": 0, "edges": [{"to": "b", "create": true, "weight": 1}]},
      {"id": "b", "x": 10, "y": 0, "edges": [{"to": "a", "create": false, "weight": 1}]}
    ]},
    {"vertices": [
      {"id": "c", "x": 0, "y": 20},
      {"id": "d", "x": 10, "y": 20, "edges": [{"to": "c", "weight": 3}]}
    ]}
  ],
  "interlayer": [{"id": "a", "edges": [{"to": "c", "create": true, "weight": 1}]}]
}`

func TestReadDocument(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if len(doc.Layers) != 2 {
		t.Fatalf("len(Layers) = %d, want 2", len(doc.Layers))
	}

	m, err := Build(doc.Input())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// The mirrored record of a-b must not create a second edge; the
	// omitted create flag of d-c defaults to true.
	if got := len(m.Edges()); got != 2 {
		t.Errorf("len(Edges()) = %d, want 2", got)
	}
	if _, ok := m.EdgeByKey(EdgeKey{Start: "d", End: "c", Weight: 3}); !ok {
		t.Error("edge d->c not created")
	}
	if got := len(m.InterlayerEdges()); got != 1 {
		t.Errorf("len(InterlayerEdges()) = %d, want 1", got)
	}

	l1, _ := m.Layer(1)
	if l1.Root != "c" && l1.Root != "d" {
		t.Errorf("layer 1 root = %q, want a layer 1 vertex", l1.Root)
	}
	d, _ := m.Vertex("d")
	if d.Pos != geom.Pt(10, 20) {
		t.Errorf("d.Pos = %v, want (10,20)", d.Pos)
	}
}

func TestReadDocumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"malformed", `{"layers": [`},
		{"unknown field", `{"layers": [], "nodes": []}`},
		{"wrong type", `{"layers": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadDocument() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestReadDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if m.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, want 4", m.VertexCount())
	}

	_, err = ReadDocumentFile(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadDocumentFile(missing) error = %v, want FILE_NOT_FOUND", err)
	}

	_, err = ReadDocumentFile("")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("ReadDocumentFile(\"\") error = %v, want INVALID_PATH", err)
	}
}

func TestFromModelRebuilds(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Build(doc.Input())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteDocument(FromModel(m), &buf); err != nil {
		t.Fatalf("WriteDocument() error = %v", err)
	}
	again, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	m2, err := Build(again.Input())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if m2.VertexCount() != m.VertexCount() || m2.EdgeCount() != m.EdgeCount() {
		t.Errorf("rebuilt model has %d vertices/%d edges, want %d/%d",
			m2.VertexCount(), m2.EdgeCount(), m.VertexCount(), m.EdgeCount())
	}
	for _, e := range m.AllEdges() {
		if _, ok := m2.EdgeByKey(e.Key()); !ok {
			t.Errorf("edge %v lost", e.Key())
		}
	}
}

func TestApplyPaths(t *testing.T) {
	doc, _ := ReadDocument(strings.NewReader(sampleDoc))
	m, err := Build(doc.Input())
	if err != nil {
		t.Fatal(err)
	}

	e, _ := m.EdgeByKey(EdgeKey{Start: "a", End: "c", Weight: 1})
	e.Waypoints = []geom.Point{e.Start.Pos, {X: 3, Y: 10}, e.End.Pos}
	paths := EdgePaths([]*Edge{e})
	if got := paths[0].Waypoints[1]; got != [2]float64{3, 10} {
		t.Errorf("serialized waypoint = %v, want [3 10]", got)
	}

	e.ResetWaypoints()
	if err := ApplyPaths(m, paths); err != nil {
		t.Fatalf("ApplyPaths() error = %v", err)
	}
	if len(e.Waypoints) != 3 || e.Waypoints[1] != geom.Pt(3, 10) {
		t.Errorf("Waypoints = %v, want restored path", e.Waypoints)
	}

	bad := []PathDoc{{Start: "a", End: "zzz", Weight: 1, Waypoints: [][2]float64{{0, 0}, {1, 1}}}}
	if err := ApplyPaths(m, bad); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ApplyPaths(unknown) error = %v, want NOT_FOUND", err)
	}
	short := []PathDoc{{Start: "a", End: "c", Weight: 1, Waypoints: [][2]float64{{0, 0}}}}
	if err := ApplyPaths(m, short); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ApplyPaths(short) error = %v, want INVALID_FORMAT", err)
	}
}

func TestApplyPathsParallelEdges(t *testing.T) {
	m, err := Build(Input{
		Layers: []Adjacency{{{ID: "a"}}, {{ID: "c"}}},
		Interlayer: Adjacency{{ID: "a", Entries: []AdjacencyEntry{
			{To: "c", Create: true, Weight: 1},
			{To: "c", Create: true, Weight: 1},
		}}},
		Positions: map[string]geom.Point{"a": geom.Pt(0, 0), "c": geom.Pt(0, 20)},
	})
	if err != nil {
		t.Fatal(err)
	}
	edges := m.InterlayerEdges()
	if len(edges) != 2 || len(m.EdgesByKey(edges[0].Key())) != 2 {
		t.Fatalf("want two parallel edges, got %d", len(edges))
	}

	edges[0].Waypoints = []geom.Point{edges[0].Start.Pos, {X: -4, Y: 10}, edges[0].End.Pos}
	edges[1].Waypoints = []geom.Point{edges[1].Start.Pos, {X: 4, Y: 10}, edges[1].End.Pos}
	paths := EdgePaths(edges)
	for _, e := range edges {
		e.ResetWaypoints()
	}

	if err := ApplyPaths(m, paths); err != nil {
		t.Fatalf("ApplyPaths() error = %v", err)
	}
	for i, want := range []geom.Point{{X: -4, Y: 10}, {X: 4, Y: 10}} {
		if got := edges[i].Waypoints; len(got) != 3 || got[1] != want {
			t.Errorf("edge %d waypoints = %v, want middle %v", i, got, want)
		}
	}

	extra := append(paths, paths[0])
	if err := ApplyPaths(m, extra); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("ApplyPaths(three paths, two edges) error = %v, want NOT_FOUND", err)
	}
}

func TestExampleDocuments(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "graphs", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example graphs")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			m, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if m.LayerCount() == 0 || len(m.InterlayerEdges()) == 0 {
				t.Errorf("%s: %d layers, %d interlayer edges", path, m.LayerCount(), len(m.InterlayerEdges()))
			}
		})
	}
}

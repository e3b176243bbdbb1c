package nodelink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/layerweave/pkg/geom"
	"github.com/matzehuels/layerweave/pkg/graph"
	"github.com/matzehuels/layerweave/pkg/tree"
)

func testModel(t *testing.T) *graph.Model {
	t.Helper()
	m, err := graph.Build(graph.Input{
		Layers: []graph.Adjacency{
			{
				{ID: "a", Entries: []graph.AdjacencyEntry{{To: "b", Create: true, Weight: 1}, {To: "c", Create: true, Weight: 2}}},
				{ID: "b", Entries: []graph.AdjacencyEntry{{To: "c", Create: true, Weight: 5}}},
				{ID: "c"},
			},
			{
				{ID: "d"},
			},
		},
		Interlayer: graph.Adjacency{
			{ID: "a", Entries: []graph.AdjacencyEntry{{To: "d", Create: true, Weight: 1}}},
		},
		Positions: map[string]geom.Point{"b": geom.Pt(10, 0), "c": geom.Pt(0, 10), "d": geom.Pt(0, 50)},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestToDOT(t *testing.T) {
	m := testModel(t)
	trees := []*tree.Result{{
		Root:  "a",
		Pairs: []tree.Pair{{Parent: "a", Child: "a"}, {Parent: "a", Child: "b"}, {Parent: "a", Child: "c"}},
	}}

	dot := ToDOT(m, trees, Options{Layer: -1})

	for _, want := range []string{
		"graph G {",
		"subgraph cluster_0 {",
		"subgraph cluster_1 {",
		`"a" [label="a", peripheries=2];`,
		`"a" -- "b" [penwidth=3`,
		`"a" -- "c" [penwidth=3`,
		`"b" -- "c";`,
		`"a" -- "d" [style=dashed`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTSingleLayer(t *testing.T) {
	m := testModel(t)
	dot := ToDOT(m, nil, Options{Layer: 1, Detailed: true, Pinned: true})

	if strings.Contains(dot, "cluster_") {
		t.Error("single layer diagram should not use clusters")
	}
	if strings.Contains(dot, `"a"`) {
		t.Error("vertices of other layers should be left out")
	}
	if !strings.Contains(dot, `pos="0,-50!"`) {
		t.Errorf("pinned position missing:\n%s", dot)
	}
	if strings.Contains(dot, "--") {
		t.Error("inter-layer edges should be left out of a single layer diagram")
	}
}

func TestRenderSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering in short mode")
	}
	dot := ToDOT(testModel(t), nil, Options{Layer: -1})
	svg, err := RenderSVG(context.Background(), dot, EngineDot)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 10.00 20.00" width="10" height="20"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}

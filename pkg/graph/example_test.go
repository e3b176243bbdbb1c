package graph_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/layerweave/pkg/graph"
)

func ExampleBuild() {
	m, err := graph.Build(graph.Input{
		Layers: []graph.Adjacency{{
			{ID: "hub", Entries: []graph.AdjacencyEntry{
				{To: "left", Create: true, Weight: 1},
				{To: "right", Create: true, Weight: 1},
			}},
			{ID: "left", Entries: []graph.AdjacencyEntry{{To: "hub", Weight: 1}}},
			{ID: "right", Entries: []graph.AdjacencyEntry{{To: "hub", Weight: 1}}},
		}},
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	l, _ := m.Layer(0)
	fmt.Println("vertices:", m.VertexCount())
	fmt.Println("edges:", m.EdgeCount())
	fmt.Println("root:", l.Root)
	// Output:
	// vertices: 3
	// edges: 2
	// root: hub
}

func ExampleReadDocument() {
	doc, err := graph.ReadDocument(strings.NewReader(`{
	  "layers": [{"vertices": [
	    {"id": "a", "x": 0, "y": 0, "edges": [{"to": "b", "weight": 2}]},
	    {"id": "b", "x": 4, "y": 3}
	  ]}]
	}`))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	m, err := graph.Build(doc.Input())
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	e := m.Edges()[0]
	fmt.Printf("%s-%s length %.0f\n", e.Start.ID, e.End.ID, e.Length())
	// Output:
	// a-b length 5
}

package bundle

import (
	"github.com/matzehuels/layerweave/pkg/geom"
	"github.com/matzehuels/layerweave/pkg/graph"
)

// Forces returns the force magnitude at every waypoint of e1 and e2 for a
// pair with the given compatibility.
//
// At interior index k the force is
//
//	kp·(|w[k]-w[k-1]| + |w[k]-w[k+1]|) + electro(k)
//
// with kp = stiffness / (edge length / waypoint count). Endpoint forces are
// always 0. The electro term depends on mode; coincident waypoints add
// nothing.
func Forces(e1, e2 *graph.Edge, compat, stiffness float64, mode ElectroMode) (f1, f2 []float64) {
	n := min(len(e1.Waypoints), len(e2.Waypoints))
	electro := electroTerms(e1.Waypoints[:n], e2.Waypoints[:n], compat, mode)
	return springForces(e1, stiffness, electro), springForces(e2, stiffness, electro)
}

// electroTerms returns the attraction per index. Indices beyond the shorter
// path get none.
func electroTerms(w1, w2 []geom.Point, compat float64, mode ElectroMode) []float64 {
	out := make([]float64, len(w1))
	if mode == ElectroLegacySum {
		var sum float64
		for k := range w1 {
			if d := geom.Dist(w1[k], w2[k]); d != 0 {
				sum += compat / d
			}
		}
		for k := range out {
			out[k] = sum
		}
		return out
	}
	for k := range w1 {
		if d := geom.Dist(w1[k], w2[k]); d != 0 {
			out[k] = compat / d
		}
	}
	return out
}

func springForces(e *graph.Edge, stiffness float64, electro []float64) []float64 {
	w := e.Waypoints
	f := make([]float64, len(w))
	if len(w) < 3 {
		return f
	}
	var kp float64
	if segment := e.Length() / float64(len(w)); segment > 0 {
		kp = stiffness / segment
	}
	for k := 1; k < len(w)-1; k++ {
		f[k] = kp * (geom.Dist(w[k], w[k-1]) + geom.Dist(w[k], w[k+1]))
		if k < len(electro) {
			f[k] += electro[k]
		}
	}
	return f
}

package bundle

import (
	"math"

	"github.com/matzehuels/layerweave/pkg/geom"
	"github.com/matzehuels/layerweave/pkg/graph"
)

// =============================================================================
// Compatibility Metrics
// =============================================================================
//
// All metrics read only the fixed endpoint positions of the edges, never the
// interior waypoints. Degenerate geometry yields 0 rather than NaN.

// AngleCompat returns |cos θ| for the angle θ between the edge directions.
// Anti-parallel edges score like parallel ones. A zero-length edge scores 0.
func AngleCompat(e1, e2 *graph.Edge) float64 {
	p, q := e1.Vector(), e2.Vector()
	den := p.Len() * q.Len()
	if den == 0 {
		return 0
	}
	return math.Min(1, math.Abs(p.Dot(q)/den))
}

// ScaleCompat returns 2 / (l_avg·l_min + l_max/l_avg).
// It is not part of Compatibility. Two zero-length edges score 0.
func ScaleCompat(e1, e2 *graph.Edge) float64 {
	l1, l2 := e1.Length(), e2.Length()
	avg := (l1 + l2) / 2
	if avg == 0 {
		return 0
	}
	return 2 / (avg*math.Min(l1, l2) + math.Max(l1, l2)/avg)
}

// DistanceCompat returns l_avg / (l_avg + |m1 - m2|) where m1, m2 are the
// edge midpoints. It is 1 for coinciding midpoints and decays towards 0 as
// they separate. Two zero-length edges score 0.
func DistanceCompat(e1, e2 *graph.Edge) float64 {
	avg := (e1.Length() + e2.Length()) / 2
	if avg == 0 {
		return 0
	}
	return avg / (avg + geom.Dist(e1.Midpoint(), e2.Midpoint()))
}

// Visibility measures how much of segment q is visible from segment p.
//
// q0 and q1 are projected onto the line through p0 and p1, giving i0 and
// i1. The result is max(0, 1 - 2|Pm-Im|/|i0-i1|) where Pm and Im are the
// midpoints of p and of the projection. It is 0 when p has zero length or
// q projects onto a single point.
func Visibility(p0, p1, q0, q1 geom.Point) float64 {
	i0, ok := geom.Project(q0, p0, p1)
	if !ok {
		return 0
	}
	i1, _ := geom.Project(q1, p0, p1)
	span := geom.Dist(i0, i1)
	if span == 0 {
		return 0
	}
	v := 1 - 2*geom.Dist(geom.Midpoint(p0, p1), geom.Midpoint(i0, i1))/span
	return math.Max(0, v)
}

// VisibilityCompat is the smaller of the two directed visibilities, which
// makes it symmetric.
func VisibilityCompat(e1, e2 *graph.Edge) float64 {
	a := Visibility(e1.Start.Pos, e1.End.Pos, e2.Start.Pos, e2.End.Pos)
	b := Visibility(e2.Start.Pos, e2.End.Pos, e1.Start.Pos, e1.End.Pos)
	return math.Min(a, b)
}

// Compatibility is the product of angle, distance and visibility
// compatibility, a score in [0, 1].
func Compatibility(e1, e2 *graph.Edge) float64 {
	a := AngleCompat(e1, e2)
	if a == 0 {
		return 0
	}
	return a * DistanceCompat(e1, e2) * VisibilityCompat(e1, e2)
}

package bundle

import (
	"math"
	"testing"

	"github.com/matzehuels/layerweave/pkg/geom"
	"github.com/matzehuels/layerweave/pkg/graph"
)

// seg builds a detached edge between two points.
func seg(x0, y0, x1, y1 float64) *graph.Edge {
	e := &graph.Edge{
		Start: &graph.Vertex{ID: "s", Pos: geom.Pt(x0, y0)},
		End:   &graph.Vertex{ID: "t", Pos: geom.Pt(x1, y1)},
	}
	e.ResetWaypoints()
	return e
}

func TestVisibilityRegression(t *testing.T) {
	tests := []struct {
		name           string
		p0, p1, q0, q1 geom.Point
		want           float64
	}{
		{"parallel offset", geom.Pt(0, 0), geom.Pt(0, 10), geom.Pt(10, 0), geom.Pt(10, 10), 1.0},
		{"half overlap", geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(0.5, 1), geom.Pt(1.5, 1), 0},
		{"shifted by half", geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 10), geom.Pt(15, 10), 0},
		{"zero length p", geom.Pt(3, 3), geom.Pt(3, 3), geom.Pt(0, 0), geom.Pt(10, 0), 0},
		{"perpendicular q", geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(5, 1), geom.Pt(5, 9), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visibility(tt.p0, tt.p1, tt.q0, tt.q1)
			if got != tt.want {
				t.Errorf("Visibility() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompatSymmetry(t *testing.T) {
	edges := []*graph.Edge{
		seg(0, 0, 10, 0),
		seg(1, 2, 12, 3),
		seg(5, -4, 5, 6),
		seg(-3, 7, 9, 1),
		seg(0, 0, 0, 0),
		seg(10, 0, 0, 0),
	}

	metrics := map[string]func(a, b *graph.Edge) float64{
		"angle":      AngleCompat,
		"distance":   DistanceCompat,
		"visibility": VisibilityCompat,
		"scale":      ScaleCompat,
		"total":      Compatibility,
	}

	for name, fn := range metrics {
		for i, a := range edges {
			for j, b := range edges {
				ab, ba := fn(a, b), fn(b, a)
				if ab != ba {
					t.Errorf("%s(%d,%d) = %v but %s(%d,%d) = %v", name, i, j, ab, name, j, i, ba)
				}
				if math.IsNaN(ab) || ab < 0 {
					t.Errorf("%s(%d,%d) = %v, want a non-negative number", name, i, j, ab)
				}
			}
		}
	}
}

func TestAngleCompat(t *testing.T) {
	tests := []struct {
		name string
		a, b *graph.Edge
		want float64
	}{
		{"parallel", seg(0, 0, 10, 0), seg(0, 5, 3, 5), 1},
		{"anti-parallel", seg(0, 0, 10, 0), seg(3, 5, 0, 5), 1},
		{"perpendicular", seg(0, 0, 10, 0), seg(0, 0, 0, 10), 0},
		{"zero length", seg(0, 0, 10, 0), seg(2, 2, 2, 2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleCompat(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AngleCompat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceCompat(t *testing.T) {
	if got := DistanceCompat(seg(0, 0, 10, 0), seg(0, 0, 10, 0)); got != 1 {
		t.Errorf("coinciding midpoints = %v, want 1", got)
	}
	// l_avg = 10, midpoints 10 apart.
	if got := DistanceCompat(seg(0, 0, 10, 0), seg(0, 10, 10, 10)); got != 0.5 {
		t.Errorf("offset edges = %v, want 0.5", got)
	}
	if got := DistanceCompat(seg(1, 1, 1, 1), seg(4, 4, 4, 4)); got != 0 {
		t.Errorf("two points = %v, want 0", got)
	}
}

func TestScaleCompat(t *testing.T) {
	// l1 = l2 = 2: 2 / (2*2 + 2/2) = 0.4
	if got := ScaleCompat(seg(0, 0, 2, 0), seg(0, 1, 2, 1)); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("ScaleCompat() = %v, want 0.4", got)
	}
	if got := ScaleCompat(seg(0, 0, 0, 0), seg(1, 1, 1, 1)); got != 0 {
		t.Errorf("ScaleCompat(points) = %v, want 0", got)
	}
}

func TestCompatibilityExcludesScale(t *testing.T) {
	a, b := seg(0, 0, 0, 10), seg(10, 0, 10, 10)
	want := AngleCompat(a, b) * DistanceCompat(a, b) * VisibilityCompat(a, b)
	if got := Compatibility(a, b); got != want {
		t.Errorf("Compatibility() = %v, want %v", got, want)
	}
	if got := Compatibility(a, b); got <= 0 || got > 1 {
		t.Errorf("Compatibility() = %v, want a score in (0,1]", got)
	}
}

func TestForces(t *testing.T) {
	a, b := seg(0, 0, 0, 100), seg(10, 0, 10, 100)
	Subdivide(a)
	Subdivide(b)

	f1, f2 := Forces(a, b, 0.5, 0.5, ElectroSameIndex)
	if f1[0] != 0 || f1[2] != 0 || f2[0] != 0 || f2[2] != 0 {
		t.Errorf("endpoint forces = %v %v, want zeros at the ends", f1, f2)
	}
	// kp = 0.5/(100/3) = 0.015, spring = kp*(50+50) = 1.5, electro = 0.5/10.
	want := 1.5 + 0.05
	if math.Abs(f1[1]-want) > 1e-9 || math.Abs(f2[1]-want) > 1e-9 {
		t.Errorf("interior forces = %v, %v, want %v", f1[1], f2[1], want)
	}

	// Endpoints are 10 apart too, so the legacy sum is three times the term.
	l1, _ := Forces(a, b, 0.5, 0.5, ElectroLegacySum)
	if math.Abs(l1[1]-(1.5+0.15)) > 1e-9 {
		t.Errorf("legacy interior force = %v, want %v", l1[1], 1.5+0.15)
	}
}

func TestForcesCoincidentWaypoints(t *testing.T) {
	a, b := seg(0, 0, 0, 10), seg(0, 0, 0, 10)
	Subdivide(a)
	Subdivide(b)

	for _, mode := range []ElectroMode{ElectroSameIndex, ElectroLegacySum} {
		f1, _ := Forces(a, b, 1, 0.5, mode)
		for k, f := range f1 {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				t.Errorf("%s force[%d] = %v, want finite", mode, k, f)
			}
		}
	}
}

// TestLegacySumMatchesPerIndexSum checks the hoisted legacy sum against the
// direct form, which re-sums compat/|p_j - q_j| over every index j for each
// interior k.
func TestLegacySumMatchesPerIndexSum(t *testing.T) {
	a, b := seg(0, 0, 5, 120), seg(14, -3, 22, 110)
	for range 3 {
		Subdivide(a)
		Subdivide(b)
	}
	for k := 1; k < len(a.Waypoints)-1; k++ {
		a.Waypoints[k] = a.Waypoints[k].Add(geom.Pt(float64(k%3), -float64(k%2)))
		b.Waypoints[k] = b.Waypoints[k].Add(geom.Pt(-float64(k%4), float64(k%5)/2))
	}

	const compat, stiffness = 0.7, 0.3
	direct := func(e *graph.Edge) []float64 {
		w := e.Waypoints
		kp := stiffness / (e.Length() / float64(len(w)))
		out := make([]float64, len(w))
		for k := 1; k < len(w)-1; k++ {
			var electro float64
			for j := range a.Waypoints {
				electro += compat / geom.Dist(a.Waypoints[j], b.Waypoints[j])
			}
			out[k] = kp*(geom.Dist(w[k], w[k-1])+geom.Dist(w[k], w[k+1])) + electro
		}
		return out
	}

	f1, f2 := Forces(a, b, compat, stiffness, ElectroLegacySum)
	want1, want2 := direct(a), direct(b)
	for k := range f1 {
		if math.Abs(f1[k]-want1[k]) > 1e-9 || math.Abs(f2[k]-want2[k]) > 1e-9 {
			t.Errorf("k=%d: forces = (%v, %v), want (%v, %v)", k, f1[k], f2[k], want1[k], want2[k])
		}
	}
}

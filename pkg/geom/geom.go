// Package geom provides the small set of 2D vector operations shared by the
// graph model and the edge bundler.
//
// All functions are pure and operate on values; none of them allocate.
package geom

import "math"

// Point is a position or a vector in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p multiplied by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Normalize returns p scaled to unit length.
// The zero vector is returned unchanged.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return Point{p.X / l, p.Y / l}
}

// Dist returns the Euclidean distance between p and q.
func Dist(p, q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }

// Project returns the orthogonal projection of q onto the infinite line
// through a and b. The second result is false when a and b coincide and the
// line is undefined.
func Project(q, a, b Point) (Point, bool) {
	ab := b.Sub(a)
	den := ab.Dot(ab)
	if den == 0 {
		return Point{}, false
	}
	t := q.Sub(a).Dot(ab) / den
	return a.Add(ab.Scale(t)), true
}

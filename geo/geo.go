// Package geo is the opaque 2D geometry library every other package
// treats as an external collaborator: points, vectors, polylines with
// cumulative arc length, and the handful of operations lanes and
// prototypes need (intersection, projection, offsetting).
package geo

import "math"

// Point is a 2D position in world space.
type Point struct {
	X, Y float64
}

// Vector is a 2D displacement or direction.
type Vector struct {
	X, Y float64
}

func (p Point) Add(v Vector) Point   { return Point{p.X + v.X, p.Y + v.Y} }
func (p Point) Sub(o Point) Vector   { return Vector{p.X - o.X, p.Y - o.Y} }
func (p Point) DistanceTo(o Point) float64 {
	return p.Sub(o).Length()
}

func (v Vector) Length() float64 { return math.Hypot(v.X, v.Y) }
func (v Vector) Scaled(s float64) Vector { return Vector{v.X * s, v.Y * s} }
func (v Vector) Normalized() Vector {
	l := v.Length()
	if l == 0 {
		return Vector{}
	}
	return Vector{v.X / l, v.Y / l}
}

// Perpendicular returns v rotated 90 degrees counter-clockwise.
func (v Vector) Perpendicular() Vector { return Vector{-v.Y, v.X} }

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y }

// LinePath is a polyline with precomputed cumulative arc length at
// each vertex, the representation every Lane path uses (spec §3
// "path (polyline with cumulative arc length)").
type LinePath struct {
	points []Point
	cumLen []float64
}

// NewLinePath builds a LinePath from raw points, degenerate (fewer
// than two distinct points) paths are rejected by the caller.
func NewLinePath(points []Point) LinePath {
	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cum[i] = cum[i-1] + points[i].DistanceTo(points[i-1])
	}
	return LinePath{points: points, cumLen: cum}
}

func (p LinePath) Points() []Point { return p.points }

// Length is the total arc length of the path.
func (p LinePath) Length() float64 {
	if len(p.cumLen) == 0 {
		return 0
	}
	return p.cumLen[len(p.cumLen)-1]
}

// Start and End return the path's first and last points.
func (p LinePath) Start() Point { return p.points[0] }
func (p LinePath) End() Point    { return p.points[len(p.points)-1] }

// AlongWhere returns the point and direction at arc-length distance
// along the path, clamped to [0, Length()].
func (p LinePath) AlongWhere(distance float64) (Point, Vector) {
	if distance <= 0 {
		return p.points[0], p.segmentDirection(0)
	}
	if distance >= p.Length() {
		n := len(p.points)
		return p.points[n-1], p.segmentDirection(n - 2)
	}
	for i := 1; i < len(p.cumLen); i++ {
		if p.cumLen[i] >= distance {
			segLen := p.cumLen[i] - p.cumLen[i-1]
			t := 0.0
			if segLen > 0 {
				t = (distance - p.cumLen[i-1]) / segLen
			}
			a, b := p.points[i-1], p.points[i]
			pt := Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
			return pt, p.segmentDirection(i - 1)
		}
	}
	n := len(p.points)
	return p.points[n-1], p.segmentDirection(n - 2)
}

func (p LinePath) segmentDirection(i int) Vector {
	if i < 0 {
		i = 0
	}
	if i >= len(p.points)-1 {
		i = len(p.points) - 2
	}
	return p.points[i+1].Sub(p.points[i]).Normalized()
}

// Reversed returns the path walked back to front, used to project a
// car's position when a partner lane runs the opposite direction.
func (p LinePath) Reversed() LinePath {
	rev := make([]Point, len(p.points))
	for i, pt := range p.points {
		rev[len(p.points)-1-i] = pt
	}
	return NewLinePath(rev)
}

// Subsection returns the portion of the path between two arc-length
// offsets, used when trimming strokes at intersection boundaries.
func (p LinePath) Subsection(from, to float64) LinePath {
	if from > to {
		from, to = to, from
	}
	var pts []Point
	start, _ := p.AlongWhere(from)
	pts = append(pts, start)
	for i, d := range p.cumLen {
		if d > from && d < to {
			pts = append(pts, p.points[i])
		}
	}
	end, _ := p.AlongWhere(to)
	pts = append(pts, end)
	return NewLinePath(pts)
}

// Area is a closed polygon, used for intersection convex hulls.
type Area struct {
	Boundary []Point
}

// Intersect reports the single-point intersections between two line
// segments of a and b (a coarse grained stand-in for full polyline
// intersection: each path is walked segment by segment).
func Intersect(a, b LinePath) []Point {
	var hits []Point
	for i := 0; i+1 < len(a.points); i++ {
		for j := 0; j+1 < len(b.points); j++ {
			if pt, ok := segmentIntersect(a.points[i], a.points[i+1], b.points[j], b.points[j+1]); ok {
				hits = append(hits, pt)
			}
		}
	}
	return hits
}

func segmentIntersect(p1, p2, p3, p4 Point) (Point, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-12 {
		return Point{}, false
	}
	diff := p3.Sub(p1)
	t := (diff.X*d2.Y - diff.Y*d2.X) / denom
	u := (diff.X*d1.Y - diff.Y*d1.X) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Point{}, false
	}
	return p1.Add(d1.Scaled(t)), true
}

// Project returns the arc-length distance along path closest to pt, the
// operation lanes use to convert a neighbor's car position into their
// own coordinate system (spec §4.8 "propagate obstacles").
func Project(path LinePath, pt Point) float64 {
	best := 0.0
	bestDist := math.Inf(1)
	for i := 0; i+1 < len(path.points); i++ {
		a, b := path.points[i], path.points[i+1]
		seg := b.Sub(a)
		segLen := seg.Length()
		if segLen == 0 {
			continue
		}
		t := pt.Sub(a).Dot(seg) / (segLen * segLen)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		proj := a.Add(seg.Scaled(t))
		d := proj.DistanceTo(pt)
		if d < bestDist {
			bestDist = d
			best = path.cumLen[i] + segLen*t
		}
	}
	return best
}

// Smoothed returns a coarser, rounded approximation of a raw gesture
// stroke (Catmull-Rom-ish midpoint smoothing), standing in for the
// planning layer's curve fitting over control points.
func Smoothed(points []Point) LinePath {
	if len(points) < 3 {
		return NewLinePath(points)
	}
	out := []Point{points[0]}
	for i := 1; i < len(points)-1; i++ {
		prev, cur, next := points[i-1], points[i], points[i+1]
		mid1 := Point{(prev.X + cur.X) / 2, (prev.Y + cur.Y) / 2}
		mid2 := Point{(cur.X + next.X) / 2, (cur.Y + next.Y) / 2}
		out = append(out, mid1, cur, mid2)
	}
	out = append(out, points[len(points)-1])
	return NewLinePath(out)
}

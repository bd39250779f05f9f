package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinePathLengthAndEndpoints(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}})
	require.Equal(t, 11.0, p.Length())
	require.Equal(t, Point{X: 0, Y: 0}, p.Start())
	require.Equal(t, Point{X: 3, Y: 10}, p.End())
}

func TestAlongWhereClampsToEnds(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}})

	pt, _ := p.AlongWhere(-5)
	require.Equal(t, Point{X: 0, Y: 0}, pt)

	pt, _ = p.AlongWhere(100)
	require.Equal(t, Point{X: 10, Y: 0}, pt)

	pt, dir := p.AlongWhere(5)
	require.Equal(t, Point{X: 5, Y: 0}, pt)
	require.Equal(t, Vector{X: 1, Y: 0}, dir)
}

func TestReversedFlipsOrderAndPreservesLength(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}})
	rev := p.Reversed()

	require.Equal(t, p.End(), rev.Start())
	require.Equal(t, p.Start(), rev.End())
	require.Equal(t, p.Length(), rev.Length())
}

func TestSubsectionTrimsBothEnds(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 20, Y: 0}})
	sub := p.Subsection(5, 15)

	require.Equal(t, Point{X: 5, Y: 0}, sub.Start())
	require.Equal(t, Point{X: 15, Y: 0}, sub.End())
	require.InDelta(t, 10.0, sub.Length(), 1e-9)
}

func TestIntersectFindsPerpendicularCrossing(t *testing.T) {
	a := NewLinePath([]Point{{X: 0, Y: 5}, {X: 10, Y: 5}})
	b := NewLinePath([]Point{{X: 5, Y: 0}, {X: 5, Y: 10}})

	hits := Intersect(a, b)
	require.Len(t, hits, 1)
	require.Equal(t, Point{X: 5, Y: 5}, hits[0])
}

func TestIntersectReportsNothingForParallelLines(t *testing.T) {
	a := NewLinePath([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	b := NewLinePath([]Point{{X: 0, Y: 5}, {X: 10, Y: 5}})
	require.Empty(t, Intersect(a, b))
}

func TestProjectFindsClosestArcLengthOffset(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.InDelta(t, 4.0, Project(p, Point{X: 4, Y: 3}), 1e-9)
}

func TestProjectClampsOffPathEnds(t *testing.T) {
	p := NewLinePath([]Point{{X: 0, Y: 0}, {X: 10, Y: 0}})
	require.InDelta(t, 0.0, Project(p, Point{X: -5, Y: 0}), 1e-9)
	require.InDelta(t, 10.0, Project(p, Point{X: 15, Y: 0}), 1e-9)
}

func TestSmoothedKeepsEndpointsAndInsertsMidpoints(t *testing.T) {
	raw := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	smoothed := Smoothed(raw)

	require.Equal(t, raw[0], smoothed.Start())
	require.Equal(t, raw[len(raw)-1], smoothed.End())
	require.Greater(t, len(smoothed.Points()), len(raw), "smoothing inserts midpoints around interior vertices")
}

func TestSmoothedLeavesTwoPointPathsUntouched(t *testing.T) {
	raw := []Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
	require.Equal(t, raw, Smoothed(raw).Points())
}

func TestVectorDotAndNormalized(t *testing.T) {
	v := Vector{X: 3, Y: 4}
	require.Equal(t, 5.0, v.Length())
	require.InDelta(t, 1.0, v.Normalized().Length(), 1e-9)
	require.Equal(t, 25.0, v.Dot(v))
}

func TestPerpendicularRotatesCounterClockwise(t *testing.T) {
	v := Vector{X: 1, Y: 0}
	require.Equal(t, Vector{X: 0, Y: 1}, v.Perpendicular())
}

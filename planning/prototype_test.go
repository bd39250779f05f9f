package planning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citybound/citybound/geo"
)

func crossingPlan() Plan {
	return Plan{
		"A": {Points: []geo.Point{{X: 0, Y: 0}, {X: 20, Y: 0}}, Intent: IntentRoad},
		"B": {Points: []geo.Point{{X: 10, Y: -10}, {X: 10, Y: 10}}, Intent: IntentRoad},
	}
}

func countKind(result PlanResult, kind PrototypeKind) int {
	n := 0
	for _, p := range result {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

// TestCompileCrossingRoadsProducesIntersectionAndLanes exercises steps
// 1-4 of spec.md §4.11's generator pipeline on two gestures crossing at
// a single point.
func TestCompileCrossingRoadsProducesIntersectionAndLanes(t *testing.T) {
	result := Compile(crossingPlan())

	require.Equal(t, 1, countKind(result, KindIntersection))

	var trimmed, connectors int
	for _, p := range result {
		if p.Kind != KindLane {
			continue
		}
		if p.HasParent {
			connectors++
		} else {
			trimmed++
		}
	}
	require.Equal(t, 4, trimmed, "2 trimmed segments per gesture x 2 gestures")
	require.Equal(t, 4, connectors, "every incoming trimmed lane connects to every outgoing trimmed lane")
}

// TestCompileIsDeterministic covers spec.md §8 "determinism": compiling
// the same plan twice produces identical PrototypeIDs.
func TestCompileIsDeterministic(t *testing.T) {
	plan := crossingPlan()
	first := Compile(plan)
	second := Compile(plan.Clone())

	require.Equal(t, len(first), len(second))
	for id := range first {
		_, ok := second[id]
		require.True(t, ok, "id %v present in first compile but missing from second", id)
	}
}

func TestCompileSkipsDeletedAndZoneGestures(t *testing.T) {
	plan := Plan{
		"deleted": {Points: []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Intent: IntentRoad, Deleted: true},
		"zone":    {Points: []geo.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, Intent: IntentZone},
	}
	result := Compile(plan)
	require.Empty(t, result)
}

func TestComputeIDIgnoresInfluenceOrder(t *testing.T) {
	a := computeID(KindIntersection, []GestureID{"X", "Y"})
	b := computeID(KindIntersection, []GestureID{"Y", "X"})
	require.Equal(t, a, b)
}

func TestComputeIDDiffersByKind(t *testing.T) {
	a := computeID(KindLane, []GestureID{"X"})
	b := computeID(KindIntersection, []GestureID{"X"})
	require.NotEqual(t, a, b)
}

package planning

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citybound/citybound/geo"
)

func straightGesture(x0 float64) Gesture {
	return Gesture{Points: []geo.Point{{X: x0, Y: 0}, {X: x0 + 10, Y: 0}}, Intent: IntentRoad}
}

// TestMergeIsIdempotent covers spec.md §8 "Idempotent merge":
// merge(plan, Ø) == plan and merge(plan, plan) == plan.
func TestMergeIsIdempotent(t *testing.T) {
	plan := Plan{"g1": straightGesture(0), "g2": straightGesture(20)}

	require.True(t, Merge(plan, Plan{}).Equal(plan))
	require.True(t, Merge(plan, plan).Equal(plan))
}

func TestMergeLastWriteWins(t *testing.T) {
	base := Plan{"g1": straightGesture(0)}
	overlay := Plan{"g1": straightGesture(100)}

	merged := Merge(base, overlay)
	require.Equal(t, overlay["g1"], merged["g1"])
}

func TestMergeIsAssociativeOverDistinctKeys(t *testing.T) {
	a := Plan{"g1": straightGesture(0)}
	b := Plan{"g2": straightGesture(10)}
	c := Plan{"g3": straightGesture(20)}

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))
	require.True(t, left.Equal(right))
}

func TestCloneIsIndependent(t *testing.T) {
	plan := Plan{"g1": straightGesture(0)}
	clone := plan.Clone()
	clone["g1"] = straightGesture(50)

	require.NotEqual(t, plan["g1"], clone["g1"])
}

package actor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citybound/citybound/id"
)

// testActor is a minimal actor state: compact until spill is set, at
// which point it reports a larger footprint so a resize moves it into
// a larger bin. It carries its own id plus a counter used to assert
// handlers ran exactly once.
type testActor struct {
	id    id.ID
	Seen  int
	spill bool
}

func (a *testActor) ActorID() id.ID     { return a.id }
func (a *testActor) SetActorID(v id.ID) { a.id = v }
func (a *testActor) DynamicSizeBytes() int {
	if a.spill {
		return 64
	}
	return 0
}
func (a *testActor) IsStillCompact() bool { return !a.spill }

func TestSwarmSpawnAtRemove(t *testing.T) {
	sw := NewSwarm[testActor](1, 0, 8)
	aid := sw.Spawn(testActor{})

	state, ok := sw.At(aid)
	require.True(t, ok)
	require.Equal(t, aid, state.ActorID())

	sw.remove(aid)
	_, ok = sw.At(aid)
	require.False(t, ok, "at() must fail after removal (version mismatch)")
}

func TestSwarmReusedInstanceIDGetsNewVersion(t *testing.T) {
	sw := NewSwarm[testActor](1, 0, 8)
	first := sw.Spawn(testActor{})
	sw.remove(first)
	second := sw.Spawn(testActor{})

	require.Equal(t, first.Instance, second.Instance, "slot should be recycled")
	require.NotEqual(t, first.VersionTag, second.VersionTag, "recycled slot must bump version")
	require.NotEqual(t, first, second)
}

// TestBroadcastDuringRemoval is end-to-end scenario 5 from spec.md §8:
// a swarm of 3 actors receives a broadcast whose handler deletes actor
// index 1. All three handlers must run exactly once; afterwards the
// swarm has length 2.
func TestBroadcastDuringRemoval(t *testing.T) {
	sw := NewSwarm[testActor](1, 0, 8)
	var ids [3]id.ID
	for i := range ids {
		ids[i] = sw.Spawn(testActor{})
	}

	visits := map[uint32]int{}
	sw.DispatchBroadcast(struct{}{}, nil, func(_ any, self *testActor, _ any) Fate {
		visits[self.ActorID().Instance]++
		if self.ActorID() == ids[1] {
			return Die
		}
		return Live
	})

	for _, aid := range ids {
		require.Equal(t, 1, visits[aid.Instance], "every original recipient must be visited exactly once")
	}
	require.Equal(t, 2, sw.InstanceCount())
}

// TestBroadcastAdversarial exercises the hardest invariant called out
// in spec.md's Design Notes: handlers that delete self, insert a new
// actor, and resize to a larger bin, all within the same broadcast.
func TestBroadcastAdversarial(t *testing.T) {
	sw := NewSwarm[testActor](1, 0, 4)
	var ids []id.ID
	for i := 0; i < 6; i++ {
		ids = append(ids, sw.Spawn(testActor{}))
	}

	// keyed by the full id: a mid-broadcast spawn may recycle a removed
	// actor's instance number under a bumped version.
	visits := map[id.ID]int{}
	var spawned []id.ID
	sw.DispatchBroadcast(struct{}{}, nil, func(_ any, self *testActor, _ any) Fate {
		visits[self.ActorID()]++
		switch self.ActorID().Instance {
		case ids[0].Instance:
			return Die
		case ids[2].Instance:
			// force a resize into a larger bin
			self.spill = true
			return Live
		case ids[4].Instance:
			newID := sw.Spawn(testActor{})
			spawned = append(spawned, newID)
			return Live
		default:
			return Live
		}
	})

	for _, aid := range ids {
		require.Equalf(t, 1, visits[aid], "original recipient %v visited exactly once", aid)
	}
	for _, aid := range spawned {
		require.Equal(t, 0, visits[aid], "actors created mid-broadcast must not receive it")
	}
	require.Equal(t, 5+len(spawned), sw.InstanceCount())
}

func TestEachVisitsEveryLiveInstance(t *testing.T) {
	sw := NewSwarm[testActor](1, 0, 8)
	var ids []id.ID
	for i := 0; i < 4; i++ {
		ids = append(ids, sw.Spawn(testActor{}))
	}
	sw.remove(ids[1])

	seen := map[uint32]bool{}
	sw.Each(func(aid id.ID, _ *testActor) { seen[aid.Instance] = true })
	require.Len(t, seen, 3)
	require.False(t, seen[ids[1].Instance])
}

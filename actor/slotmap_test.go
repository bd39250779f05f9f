package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotMapAllocateResolveFree(t *testing.T) {
	var sm slotMap
	instance, version := sm.allocateID()
	require.Equal(t, uint32(0), instance)
	require.Equal(t, version, sm.entries[0].version)

	sm.updateLocation(instance, 2, 5)
	bin, slot, ok := sm.resolve(instance, version)
	require.True(t, ok)
	require.Equal(t, 2, bin)
	require.Equal(t, 5, slot)

	require.True(t, sm.free(instance, version))
	_, _, ok = sm.resolve(instance, version)
	require.False(t, ok)
}

func TestSlotMapRecyclesFreedSlotsWithBumpedVersion(t *testing.T) {
	var sm slotMap
	a, va := sm.allocateID()
	sm.free(a, va)
	b, vb := sm.allocateID()

	require.Equal(t, a, b)
	require.NotEqual(t, va, vb)
}

func TestSlotMapDoubleFreeIsRejected(t *testing.T) {
	var sm slotMap
	a, va := sm.allocateID()
	require.True(t, sm.free(a, va))
	require.False(t, sm.free(a, va), "freeing an already-free slot must fail")
}

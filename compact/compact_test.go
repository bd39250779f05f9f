package compact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCVecPushPopMatchesReferenceSlice(t *testing.T) {
	var ref []int
	v := NewCVec[int](4)

	ops := []int{1, 2, 3, 4, 5, 6}
	for _, x := range ops {
		v.Push(x)
		ref = append(ref, x)
		require.Equal(t, ref, v.Slice())
	}

	for len(ref) > 0 {
		want := ref[len(ref)-1]
		ref = ref[:len(ref)-1]
		got, ok := v.Pop()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := v.Pop()
	require.False(t, ok)
}

func TestCVecSwapRemove(t *testing.T) {
	v := OfCVec(10, 20, 30, 40)
	ok := v.SwapRemove(1)
	require.True(t, ok)
	require.Equal(t, []int{10, 40, 30}, v.Slice())
}

func TestCVecSpillsPastInlineCapacity(t *testing.T) {
	v := NewCVec[int](2)
	require.True(t, v.IsStillCompact())
	v.Push(1)
	v.Push(2)
	require.True(t, v.IsStillCompact())
	v.Push(3)
	require.False(t, v.IsStillCompact())
	require.Equal(t, 0, v.DynamicSizeBytes())
}

func TestCDictInsertGetRemove(t *testing.T) {
	d := NewCDict[string, int](8)
	d.Insert("a", 1)
	d.Insert("b", 2)

	v, ok := d.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	d.Remove("a")
	_, ok = d.Get("a")
	require.False(t, ok)
	require.Equal(t, 1, d.Len())
}

func TestCOptionSomeNone(t *testing.T) {
	none := None[int]()
	require.True(t, none.IsNone())

	some := Some(42)
	require.True(t, some.IsSome())
	v, ok := some.Get()
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestCOptionUnwrapPanicsOnNone(t *testing.T) {
	require.Panics(t, func() {
		None[int]().Unwrap()
	})
}

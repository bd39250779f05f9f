package compact

import "unsafe"

// CVec is a compact vector: while spilled is false its backing array
// lives inline in the owner's trailer (conceptually — in Go we just
// track a bool instead of tagging a pointer's low bit); once a push
// would outgrow that space it reallocates on the normal Go heap and
// spilled flips to true, mirroring the "Failure mode" in spec.md §4.1.
type CVec[T any] struct {
	data    []T
	spilled bool
}

// NewCVec returns an empty compact vector with inline capacity cap.
// The inline capacity is a bookkeeping hint only — Go slices do not
// distinguish arena-backed storage from heap storage, so capacity is
// tracked purely to decide when IsStillCompact flips false.
func NewCVec[T any](capacity int) CVec[T] {
	return CVec[T]{data: make([]T, 0, capacity)}
}

// OfCVec builds a compact vector from existing elements.
func OfCVec[T any](elts ...T) CVec[T] {
	v := NewCVec[T](len(elts))
	v.data = append(v.data, elts...)
	return v
}

func (v *CVec[T]) Push(elt T) {
	if len(v.data) == cap(v.data) {
		v.spilled = true
	}
	v.data = append(v.data, elt)
}

func (v *CVec[T]) Pop() (T, bool) {
	var zero T
	if len(v.data) == 0 {
		return zero, false
	}
	last := v.data[len(v.data)-1]
	v.data = v.data[:len(v.data)-1]
	return last, true
}

// SwapRemove removes the element at i by moving the last element into
// its place, matching the arena's swap-remove discipline (§4.2). It
// returns false if i is out of bounds.
func (v *CVec[T]) SwapRemove(i int) bool {
	n := len(v.data)
	if i < 0 || i >= n {
		return false
	}
	v.data[i] = v.data[n-1]
	v.data = v.data[:n-1]
	return true
}

func (v *CVec[T]) Len() int       { return len(v.data) }
func (v *CVec[T]) At(i int) T     { return v.data[i] }
func (v *CVec[T]) Set(i int, x T) { v.data[i] = x }
func (v *CVec[T]) Slice() []T     { return v.data }

// DynamicSizeBytes reports the trailer bytes this vector currently
// needs, 0 once it has spilled to the heap (a spilled container no
// longer needs trailer space — its storage lives outside the owner).
func (v *CVec[T]) DynamicSizeBytes() int {
	if v.spilled {
		return 0
	}
	var zero T
	return cap(v.data) * sizeOf(zero)
}

func (v *CVec[T]) IsStillCompact() bool { return !v.spilled }

// compactInto is invoked by Compact via the optional interface hook;
// for this Go rendition compacting a vector simply asserts it has not
// spilled, since there is no literal byte trailer to relocate into —
// the equivalence with the source's "copy into the trailer" step is
// conceptual rather than bitwise (see DESIGN.md for why bitwise
// relocation is not reproduced faithfully here).
func (v *CVec[T]) compactInto(t *Trailer) {
	if v.spilled {
		return
	}
	_ = t.Reserve(0)
}

func sizeOf[T any](zero T) int {
	return int(unsafe.Sizeof(zero))
}

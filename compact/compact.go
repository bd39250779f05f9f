// Package compact defines the memory discipline shared by every actor
// state and message in this module: values with a fixed inline
// footprint plus an optional dynamic part whose size they report.
//
// Go has no user-level pointer tagging and no manual drop glue, so the
// "low bit of the pointer word" trick from the source is reinterpreted
// as an explicit spilled flag per container (see CVec, CDict and
// CString below). Container contents stay in ordinary Go-managed
// storage; nothing in this package lays a value out as one contiguous
// byte range, so a value is not relocatable by copying its bytes.
package compact

// Compactable is implemented by any type that can report how much
// dynamic storage it needs beyond its inline footprint, and whether
// that storage currently still fits behind the owner.
type Compactable interface {
	// DynamicSizeBytes returns the number of bytes needed in the
	// trailer beyond the type's inline footprint.
	DynamicSizeBytes() int
	// IsStillCompact reports whether the value's dynamic part still
	// fits behind its owner, i.e. no container has spilled to the
	// heap.
	IsStillCompact() bool
}

// Trailer is an append-only cursor into a byte buffer used while
// compacting a value graph. Each container compacts its elements in
// sequence, advancing the cursor.
type Trailer struct {
	buf []byte
	off int
}

// NewTrailer wraps buf for writing starting at offset 0.
func NewTrailer(buf []byte) *Trailer {
	return &Trailer{buf: buf}
}

// Reserve claims n bytes from the trailer and returns a slice view onto
// them. Panics if the trailer buffer is too small — callers must size
// it via DynamicSizeBytes first, exactly as the source requires the
// destination slot to already be large enough before compacting into
// it.
func (t *Trailer) Reserve(n int) []byte {
	if t.off+n > len(t.buf) {
		panic("compact: trailer buffer too small")
	}
	s := t.buf[t.off : t.off+n]
	t.off += n
	return s
}

// Offset returns how many trailer bytes have been claimed so far.
func (t *Trailer) Offset() int { return t.off }

// Compact assigns src to dst (an ordinary Go value copy) and then calls
// dst's compactInto hook if it has one. The container hooks claim no
// trailer bytes: their backing arrays and maps stay where the Go
// runtime allocated them, so dst plus the trailer is not a
// self-contained byte range and copying those bytes does not relocate
// the value.
func Compact[T Compactable](src T, dst *T, trailer *Trailer) {
	*dst = src
	if c, ok := any(dst).(interface{ compactInto(*Trailer) }); ok {
		c.compactInto(trailer)
	}
}

// Decompact produces an owned, heap-backed copy of a compact value
// without mutating or freeing the source.
func Decompact[T Compactable](src T) T {
	if d, ok := any(&src).(interface{ decompactInPlace() }); ok {
		d.decompactInPlace()
	}
	return src
}

// DynamicSizeOf returns the dynamic byte footprint of v, 0 for
// primitives and recursively summed for compositions.
func DynamicSizeOf(v Compactable) int {
	return v.DynamicSizeBytes()
}

package actor

// chunkCapacity is the number of elements held by one on-demand
// allocated chunk within a bin. Real chunk sizes in the source are
// tuned to the host's page size (see kay/src/chunked.rs's MemChunker);
// Go's allocator and GC make that tuning unnecessary, so a fixed,
// modest constant is used instead.
const chunkCapacity = 1024

// bin is a dense, append-only-with-swap-remove store of one size
// class's worth of actor instances (spec.md §4.2's SizedChunkedArena).
// It never leaves holes: removal always swaps the tail element into
// the vacated slot, and trailing chunks that become entirely unused
// are freed.
type bin[T any] struct {
	chunks [][]T
	count  int
}

func (b *bin[T]) len() int { return b.count }

// push appends v and returns its slot index within the bin.
func (b *bin[T]) push(v T) int {
	slot := b.count
	chunkIdx := slot / chunkCapacity
	offset := slot % chunkCapacity
	if chunkIdx == len(b.chunks) {
		b.chunks = append(b.chunks, make([]T, chunkCapacity))
	}
	b.chunks[chunkIdx][offset] = v
	b.count++
	return slot
}

func (b *bin[T]) at(slot int) *T {
	return &b.chunks[slot/chunkCapacity][slot%chunkCapacity]
}

// swapRemove removes the element at slot, moving the tail element (if
// any, and if different from slot) into its place. It reports whether
// a different element was moved into slot, so the caller can fix up
// any external index (e.g. a slot map entry) that pointed at the old
// tail position.
func (b *bin[T]) swapRemove(slot int) (moved bool) {
	last := b.count - 1
	if slot < 0 || slot > last {
		return false
	}
	if slot != last {
		*b.at(slot) = *b.at(last)
		moved = true
	}
	var zero T
	*b.at(last) = zero
	b.count--

	neededChunks := (b.count + chunkCapacity - 1) / chunkCapacity
	if neededChunks < len(b.chunks) {
		b.chunks = b.chunks[:neededChunks]
	}
	return moved
}

// multiSized is a size-classed collection of bins: bin 0 holds
// elements whose dynamic footprint was at most baseSize at insertion
// time, and bin k > 0 those in (baseSize*2^(k-1), baseSize*2^k]
// (spec.md §4.2's MultiSized).
type multiSized[T any] struct {
	baseSize int
	bins     []*bin[T]
}

func newMultiSized[T any](baseSize int) *multiSized[T] {
	if baseSize <= 0 {
		baseSize = 1
	}
	return &multiSized[T]{baseSize: baseSize}
}

func (m *multiSized[T]) binIndexForSize(size int) int {
	k := 0
	capacity := m.baseSize
	for capacity < size {
		capacity *= 2
		k++
	}
	return k
}

func (m *multiSized[T]) binCount() int { return len(m.bins) }

func (m *multiSized[T]) binAt(k int) *bin[T] {
	for len(m.bins) <= k {
		m.bins = append(m.bins, &bin[T]{})
	}
	return m.bins[k]
}

// push selects a bin for size (the value's dynamic footprint) and
// inserts v, returning (bin index, slot index).
func (m *multiSized[T]) push(v T, size int) (binIdx, slot int) {
	binIdx = m.binIndexForSize(size)
	slot = m.binAt(binIdx).push(v)
	return binIdx, slot
}

func (m *multiSized[T]) at(binIdx, slot int) *T {
	return m.bins[binIdx].at(slot)
}

func (m *multiSized[T]) swapRemove(binIdx, slot int) (moved bool) {
	return m.bins[binIdx].swapRemove(slot)
}

package compact

// CDict is a compact associative map. Like CVec it tracks whether it
// has spilled off its inline allotment onto the normal heap allocator;
// a plain Go map is used as backing storage in both states since Go's
// map implementation already allocates outside any caller-supplied
// arena — the inline/spilled distinction here is purely a bookkeeping
// signal for IsStillCompact, not a change of backing data structure.
type CDict[K comparable, V any] struct {
	data     map[K]V
	inlineCap int
	spilled  bool
}

func NewCDict[K comparable, V any](capacity int) CDict[K, V] {
	return CDict[K, V]{data: make(map[K]V, capacity), inlineCap: capacity}
}

func (d *CDict[K, V]) Insert(k K, v V) {
	if d.data == nil {
		d.data = make(map[K]V)
	}
	if _, exists := d.data[k]; !exists && len(d.data) >= d.inlineCap {
		d.spilled = true
	}
	d.data[k] = v
}

func (d *CDict[K, V]) Get(k K) (V, bool) {
	v, ok := d.data[k]
	return v, ok
}

func (d *CDict[K, V]) Remove(k K) {
	delete(d.data, k)
}

func (d *CDict[K, V]) Len() int { return len(d.data) }

func (d *CDict[K, V]) Keys() []K {
	keys := make([]K, 0, len(d.data))
	for k := range d.data {
		keys = append(keys, k)
	}
	return keys
}

// Range iterates the dict in unspecified order, matching the source's
// HashMap semantics (no ordering guarantee).
func (d *CDict[K, V]) Range(fn func(K, V) bool) {
	for k, v := range d.data {
		if !fn(k, v) {
			return
		}
	}
}

func (d *CDict[K, V]) DynamicSizeBytes() int {
	if d.spilled {
		return 0
	}
	var zk K
	var zv V
	return d.inlineCap * (sizeOf(zk) + sizeOf(zv))
}

func (d *CDict[K, V]) IsStillCompact() bool { return !d.spilled }

func (d *CDict[K, V]) compactInto(t *Trailer) {
	if d.spilled {
		return
	}
	_ = t.Reserve(0)
}

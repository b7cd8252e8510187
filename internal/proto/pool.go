package proto

// recordPool hands out pre-sized record slices, reset by index each frame so
// steady-state encoding allocates nothing. Pools grow when a frame's count
// exceeds the current size and never shrink mid-session.
type recordPool[T any] struct {
	records []T
	used    int
}

func newRecordPool[T any](size int) recordPool[T] {
	return recordPool[T]{records: make([]T, size)}
}

// take returns a zeroed record from the pool, growing it on exhaustion.
func (p *recordPool[T]) take() *T {
	if p.used == len(p.records) {
		grown := len(p.records) * 2
		if grown == 0 {
			grown = 16
		}
		next := make([]T, grown)
		copy(next, p.records)
		p.records = next
	}
	rec := &p.records[p.used]
	var zero T
	*rec = zero
	p.used++
	return rec
}

// takeSlice reserves n contiguous records and returns a capacity-capped
// subslice so later appends cannot bleed into neighboring reservations.
func (p *recordPool[T]) takeSlice(n int) []T {
	if n == 0 {
		return nil
	}
	for p.used+n > len(p.records) {
		grown := len(p.records) * 2
		if grown == 0 {
			grown = 16
		}
		next := make([]T, grown)
		copy(next, p.records)
		p.records = next
	}
	out := p.records[p.used : p.used+n : p.used+n]
	for i := range out {
		var zero T
		out[i] = zero
	}
	p.used += n
	return out
}

// reset makes every record reusable without releasing memory.
func (p *recordPool[T]) reset() { p.used = 0 }

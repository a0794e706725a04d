package repository

// ring is a fixed-capacity buffer that overwrites its oldest entry.
type ring[T any] struct {
	buf   []T
	start int
	size  int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// at returns the i-th oldest entry.
func (r *ring[T]) at(i int) T {
	return r.buf[(r.start+i)%len(r.buf)]
}

// tail returns up to n newest entries, oldest first.
func (r *ring[T]) tail(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n <= 0 {
		return []T{}
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = r.at(r.size - n + i)
	}
	return out
}

func (r *ring[T]) last() (T, bool) {
	if r.size == 0 {
		var zero T
		return zero, false
	}
	return r.at(r.size - 1), true
}

func (r *ring[T]) reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.size = 0, 0
}

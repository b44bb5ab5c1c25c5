package seq

// GrowthFactor is the multiplier applied to the capacity when a Sequence is full.
const GrowthFactor = 2

// Sequence is a growable ring buffer of T.
type Sequence[T any] struct {
	data  []T
	start int
	size  int
	pos   int
}

// New creates an empty Sequence with the given initial capacity.
// Capacities below 1 are raised to 1.
func New[T any](capacity int) *Sequence[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Sequence[T]{data: make([]T, capacity)}
}

// From creates a Sequence holding a copy of items, in order.
func From[T any](items ...T) *Sequence[T] {
	s := New[T](len(items))
	for _, item := range items {
		s.Append(item)
	}
	return s
}

// Len returns the number of positions in use (including gaps left by InsertAt).
func (s *Sequence[T]) Len() int { return s.size }

// Cap returns the current capacity.
func (s *Sequence[T]) Cap() int { return len(s.data) }

// Append adds v at the back, growing the backing store if needed.
func (s *Sequence[T]) Append(v T) {
	if s.size == len(s.data) {
		s.grow(len(s.data) * GrowthFactor)
	}
	s.data[s.index(s.size)] = v
	s.size++
}

// PopFront removes and returns the front element.
// It returns false if the sequence is empty.
func (s *Sequence[T]) PopFront() (T, bool) {
	var zero T
	if s.size == 0 {
		return zero, false
	}
	v := s.data[s.start]
	s.data[s.start] = zero
	s.start = (s.start + 1) % len(s.data)
	s.size--
	if s.pos > 0 {
		s.pos--
	}
	return v, true
}

// At returns the element at position i.
func (s *Sequence[T]) At(i int) (T, bool) {
	if i < 0 || i >= s.size {
		var zero T
		return zero, false
	}
	return s.data[s.index(i)], true
}

// Set overwrites the element at position i. It returns false if i is out of range.
func (s *Sequence[T]) Set(i int, v T) bool {
	if i < 0 || i >= s.size {
		return false
	}
	s.data[s.index(i)] = v
	return true
}

// InsertAt stores v at position i, growing the sequence when i is beyond the
// end. Positions skipped over hold the zero value of T.
func (s *Sequence[T]) InsertAt(i int, v T) {
	if i < 0 {
		return
	}
	if i >= len(s.data) {
		c := len(s.data)
		for c <= i {
			c *= GrowthFactor
		}
		s.grow(c)
	}
	if i >= s.size {
		s.size = i + 1
	}
	s.data[s.index(i)] = v
}

// Reset moves the iteration cursor back to the front.
func (s *Sequence[T]) Reset() { s.pos = 0 }

// Next returns the element under the cursor and advances it.
// It returns false once the cursor has passed the last element.
func (s *Sequence[T]) Next() (T, bool) {
	if s.pos >= s.size {
		var zero T
		return zero, false
	}
	v := s.data[s.index(s.pos)]
	s.pos++
	return v, true
}

// Reverse returns a new Sequence with the elements in reverse order.
func (s *Sequence[T]) Reverse() *Sequence[T] {
	r := New[T](len(s.data))
	for i := s.size - 1; i >= 0; i-- {
		r.Append(s.data[s.index(i)])
	}
	return r
}

// Values returns a copy of the elements, front to back.
func (s *Sequence[T]) Values() []T {
	out := make([]T, s.size)
	for i := range out {
		out[i] = s.data[s.index(i)]
	}
	return out
}

func (s *Sequence[T]) index(i int) int {
	return (s.start + i) % len(s.data)
}

// grow re-packs the elements at the start of a larger backing array.
func (s *Sequence[T]) grow(capacity int) {
	data := make([]T, capacity)
	for i := 0; i < s.size; i++ {
		data[i] = s.data[s.index(i)]
	}
	s.data = data
	s.start = 0
}

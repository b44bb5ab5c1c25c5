// Package seq provides a generic growable sequence backed by a ring buffer.
//
// A Sequence is usable as a FIFO queue (Append / PopFront), as a randomly
// indexable store (At / Set / InsertAt) and as a forward iterator with a
// resettable cursor (Reset / Next). Capacity grows by GrowthFactor when full
// and never shrinks.
//
// Sequence is not safe for concurrent use; callers bring their own locking.
//
//	s := seq.New[string](4)
//	s.Append("a")
//	s.Append("b")
//	front, _ := s.PopFront() // "a"
package seq

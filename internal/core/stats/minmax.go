package stats

import (
	"cmp"
	"iter"
)

// MinMax tracks the smallest and largest observed values.
// The zero value has seen nothing.
type MinMax[T cmp.Ordered] struct {
	min, max TotalOrder[T]
	n        uint64
}

func NewMinMax[T cmp.Ordered]() *MinMax[T] { return &MinMax[T]{} }

// MinMaxOf tracks every value of seq.
func MinMaxOf[T cmp.Ordered](seq iter.Seq[T]) *MinMax[T] {
	m := NewMinMax[T]()
	for v := range seq {
		m.Add(v)
	}
	return m
}

func (m *MinMax[T]) Add(v T) {
	t := Totalize(v)
	if m.n == 0 {
		m.min, m.max = t, t
	} else {
		if t.Less(m.min) {
			m.min = t
		}
		if m.max.Less(t) {
			m.max = t
		}
	}
	m.n++
}

// Min returns the smallest value, or false if nothing was observed.
func (m *MinMax[T]) Min() (T, bool) {
	if m.n == 0 {
		var zero T
		return zero, false
	}
	return m.min.V, true
}

// Max returns the largest value, or false if nothing was observed.
func (m *MinMax[T]) Max() (T, bool) {
	if m.n == 0 {
		var zero T
		return zero, false
	}
	return m.max.V, true
}

func (m *MinMax[T]) Len() uint64 { return m.n }

func (m *MinMax[T]) Merge(other *MinMax[T]) {
	if other == nil || other.n == 0 {
		return
	}
	if m.n == 0 {
		*m = *other
		return
	}
	if other.min.Less(m.min) {
		m.min = other.min
	}
	if m.max.Less(other.max) {
		m.max = other.max
	}
	m.n += other.n
}

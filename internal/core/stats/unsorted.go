package stats

import (
	"cmp"
	"iter"
	"slices"
)

// Unsorted collects raw samples in arrival order. Order statistics are
// computed on demand from a sorted copy; queries never reorder the
// samples held by u.
type Unsorted[T cmp.Ordered] struct {
	data []T
}

func NewUnsorted[T cmp.Ordered]() *Unsorted[T] { return &Unsorted[T]{} }

// UnsortedOf collects every value of seq.
func UnsortedOf[T cmp.Ordered](seq iter.Seq[T]) *Unsorted[T] {
	return &Unsorted[T]{data: slices.Collect(seq)}
}

func (u *Unsorted[T]) Add(v T) { u.data = append(u.data, v) }

func (u *Unsorted[T]) Len() int { return len(u.data) }

// Values yields the samples in arrival order.
func (u *Unsorted[T]) Values() iter.Seq[T] { return slices.Values(u.data) }

// Sorted builds a sorted multiset of the samples.
func (u *Unsorted[T]) Sorted() *Sorted[T] {
	return SortedOf(slices.Values(u.data))
}

// Middle returns the two central values of the sorted samples.
func (u *Unsorted[T]) Middle() (lo, hi T, ok bool) {
	n := len(u.data)
	if n == 0 {
		return lo, hi, false
	}
	sorted := slices.Clone(u.data)
	slices.SortFunc(sorted, compareTotal[T])
	hi = sorted[n/2]
	if n%2 == 1 {
		return hi, hi, true
	}
	return sorted[n/2-1], hi, true
}

// Mode returns the most frequent sample; ties go to the smallest value.
func (u *Unsorted[T]) Mode() (T, bool) { return u.Sorted().Mode() }

func (u *Unsorted[T]) Modes() []T { return u.Sorted().Modes() }

// Merge appends the samples of other.
func (u *Unsorted[T]) Merge(other *Unsorted[T]) {
	if other == nil {
		return
	}
	u.data = append(u.data, other.data...)
}

// Middler is implemented by Sorted and Unsorted.
type Middler[T any] interface {
	Middle() (lo, hi T, ok bool)
}

// Median returns the middle value, or the midpoint of the two central
// values for an even count.
func Median[T Number](m Middler[T]) (float64, bool) {
	lo, hi, ok := m.Middle()
	if !ok {
		return 0, false
	}
	return Midpoint(lo, hi), true
}

// Midpoint returns lo + (hi-lo)/2 computed in float64.
func Midpoint[T Number](lo, hi T) float64 {
	l, h := float64(lo), float64(hi)
	return l + (h-l)/2
}

// MedianOf returns the median of seq.
func MedianOf[T Number](seq iter.Seq[T]) (float64, bool) {
	return Median[T](UnsortedOf(seq))
}

// ModeOf returns the most frequent value of seq.
func ModeOf[T cmp.Ordered](seq iter.Seq[T]) (T, bool) {
	return SortedOf(seq).Mode()
}

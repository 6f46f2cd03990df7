package stats

import (
	"cmp"
	"iter"

	"github.com/google/btree"
)

const sortedDegree = 32

type bucket[T cmp.Ordered] struct {
	key   TotalOrder[T]
	count uint64
}

func bucketLess[T cmp.Ordered](a, b *bucket[T]) bool {
	return a.key.Less(b.key)
}

// Sorted is an ordered multiset. Equal values share one bucket with a
// multiplicity, so memory grows with the number of distinct values.
// The zero value is empty and ready to use.
type Sorted[T cmp.Ordered] struct {
	tree *btree.BTreeG[*bucket[T]]
	n    uint64
}

func NewSorted[T cmp.Ordered]() *Sorted[T] {
	s := &Sorted[T]{}
	s.init()
	return s
}

// SortedOf inserts every value of seq.
func SortedOf[T cmp.Ordered](seq iter.Seq[T]) *Sorted[T] {
	s := NewSorted[T]()
	for v := range seq {
		s.Add(v)
	}
	return s
}

func (s *Sorted[T]) init() {
	if s.tree == nil {
		s.tree = btree.NewG(sortedDegree, bucketLess[T])
	}
}

func (s *Sorted[T]) Add(v T) { s.AddN(v, 1) }

// AddN inserts n copies of v.
func (s *Sorted[T]) AddN(v T, n uint64) {
	if n == 0 {
		return
	}
	s.init()
	probe := &bucket[T]{key: Totalize(v)}
	if b, ok := s.tree.Get(probe); ok {
		b.count += n
	} else {
		probe.count = n
		s.tree.ReplaceOrInsert(probe)
	}
	s.n += n
}

// Len returns the number of values, duplicates included.
func (s *Sorted[T]) Len() uint64 { return s.n }

// Distinct returns the number of distinct values.
func (s *Sorted[T]) Distinct() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

func (s *Sorted[T]) Min() (T, bool) {
	if s.n == 0 {
		var zero T
		return zero, false
	}
	b, _ := s.tree.Min()
	return b.key.V, true
}

func (s *Sorted[T]) Max() (T, bool) {
	if s.n == 0 {
		var zero T
		return zero, false
	}
	b, _ := s.tree.Max()
	return b.key.V, true
}

// Select returns the k-th smallest value (0-based), duplicates included.
func (s *Sorted[T]) Select(k uint64) (T, bool) {
	var out T
	if k >= s.n {
		return out, false
	}
	var seen uint64
	s.tree.Ascend(func(b *bucket[T]) bool {
		seen += b.count
		if k < seen {
			out = b.key.V
			return false
		}
		return true
	})
	return out, true
}

// Quantile returns the value at rank floor(p*(n-1)) for p in [0, 1].
func (s *Sorted[T]) Quantile(p float64) (T, bool) {
	if s.n == 0 || !(p >= 0 && p <= 1) {
		var zero T
		return zero, false
	}
	return s.Select(uint64(p * float64(s.n-1)))
}

// Middle returns the two central values. For an odd count both are the
// same element.
func (s *Sorted[T]) Middle() (lo, hi T, ok bool) {
	if s.n == 0 {
		return lo, hi, false
	}
	hi, _ = s.Select(s.n / 2)
	if s.n%2 == 1 {
		return hi, hi, true
	}
	lo, _ = s.Select(s.n/2 - 1)
	return lo, hi, true
}

// Mode returns the most frequent value. Ties go to the smallest value.
func (s *Sorted[T]) Mode() (T, bool) {
	var (
		best  T
		count uint64
	)
	if s.n == 0 {
		return best, false
	}
	s.tree.Ascend(func(b *bucket[T]) bool {
		if b.count > count {
			best, count = b.key.V, b.count
		}
		return true
	})
	return best, true
}

// Modes returns every value sharing the highest multiplicity, ascending.
func (s *Sorted[T]) Modes() []T {
	if s.n == 0 {
		return nil
	}
	var (
		out   []T
		count uint64
	)
	s.tree.Ascend(func(b *bucket[T]) bool {
		switch {
		case b.count > count:
			out, count = append(out[:0], b.key.V), b.count
		case b.count == count:
			out = append(out, b.key.V)
		}
		return true
	})
	return out
}

// All yields every value in ascending order, repeating duplicates.
func (s *Sorted[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s.tree == nil {
			return
		}
		s.tree.Ascend(func(b *bucket[T]) bool {
			for range b.count {
				if !yield(b.key.V) {
					return false
				}
			}
			return true
		})
	}
}

// Merge adds every value of other, summing multiplicities.
func (s *Sorted[T]) Merge(other *Sorted[T]) {
	if other == nil || other.n == 0 {
		return
	}
	other.tree.Ascend(func(b *bucket[T]) bool {
		s.AddN(b.key.V, b.count)
		return true
	})
}

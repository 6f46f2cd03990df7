package stats

import "cmp"

// Number is the set of element types that convert to float64 for moment
// and median computations.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// TotalOrder wraps a value whose natural comparison may leave some pairs
// unordered (floating-point NaN) and gives it a total order suitable for
// sorting and ordered containers.
//
// When the natural comparison is undefined, the unordered value is treated
// as less than the other one, and two unordered values compare equal. The
// resulting order is only meaningful where the natural order is defined.
// Equality and conversion go straight to the wrapped value.
type TotalOrder[T cmp.Ordered] struct {
	V T
}

// Totalize wraps v.
func Totalize[T cmp.Ordered](v T) TotalOrder[T] {
	return TotalOrder[T]{V: v}
}

// Value returns the wrapped value.
func (t TotalOrder[T]) Value() T { return t.V }

// Compare returns -1, 0 or +1.
func (t TotalOrder[T]) Compare(o TotalOrder[T]) int {
	switch {
	case t.V < o.V:
		return -1
	case t.V > o.V:
		return 1
	case t.V == o.V:
		return 0
	}

	tu, ou := unordered(t.V), unordered(o.V)
	switch {
	case tu && ou:
		return 0
	case tu:
		return -1
	default:
		return 1
	}
}

// Less reports whether t sorts before o.
func (t TotalOrder[T]) Less(o TotalOrder[T]) bool { return t.Compare(o) < 0 }

// Equal uses the wrapped type's ==, so NaN is not Equal to itself even
// though Compare places two NaNs together.
func (t TotalOrder[T]) Equal(o TotalOrder[T]) bool { return t.V == o.V }

// MinOf returns the lesser of a and b under the total order, preferring a
// on ties.
func MinOf[T cmp.Ordered](a, b T) T {
	if Totalize(b).Less(Totalize(a)) {
		return b
	}
	return a
}

// MaxOf returns the greater of a and b under the total order, preferring a
// on ties.
func MaxOf[T cmp.Ordered](a, b T) T {
	if Totalize(a).Less(Totalize(b)) {
		return b
	}
	return a
}

func compareTotal[T cmp.Ordered](a, b T) int {
	return Totalize(a).Compare(Totalize(b))
}

// unordered is only true for NaN.
func unordered[T cmp.Ordered](v T) bool {
	return v != v
}

package stats

import (
	"fmt"
	"iter"
)

// Commuter is implemented by statistics that can be combined. Merge folds
// other into the receiver; other must not be used afterwards.
//
// Implementations guarantee that merging is associative and commutative
// and that the zero value (an empty statistic) is an identity on both
// sides. Merging a nil pointer is a no-op.
type Commuter[T any] interface {
	Merge(other T)
}

// Consume merges every value of others into dst, in sequence order.
func Consume[T Commuter[T]](dst T, others iter.Seq[T]) {
	for v := range others {
		dst.Merge(v)
	}
}

// MergeAll returns the first value of seq with every following value
// merged into it. It returns false if seq is empty.
func MergeAll[T Commuter[T]](seq iter.Seq[T]) (T, bool) {
	var (
		acc   T
		found bool
	)
	for v := range seq {
		if !found {
			acc, found = v, true
			continue
		}
		acc.Merge(v)
	}
	return acc, found
}

// Option is a statistic that may be absent. An absent option is the merge
// identity.
type Option[T Commuter[T]] struct {
	v  T
	ok bool
}

// Some returns a present option holding v.
func Some[T Commuter[T]](v T) *Option[T] {
	return &Option[T]{v: v, ok: true}
}

// None returns an absent option.
func None[T Commuter[T]]() *Option[T] {
	return &Option[T]{}
}

// Get returns the held value and whether it is present.
func (o *Option[T]) Get() (T, bool) {
	return o.v, o.ok
}

func (o *Option[T]) IsSome() bool { return o.ok }

func (o *Option[T]) Merge(other *Option[T]) {
	if other == nil || !other.ok {
		return
	}
	if !o.ok {
		o.v, o.ok = other.v, true
		return
	}
	o.v.Merge(other.v)
}

// Result is a statistic that may have failed to build. Once a result holds
// an error it stays failed.
//
// Callers must order merges so that failures only flow into successful
// results: merging a successful result into a failed one panics with
// ErrResultOrder. The zero Result holds neither value nor error and is the
// merge identity.
type Result[T Commuter[T]] struct {
	v   T
	ok  bool
	err error
}

func Ok[T Commuter[T]](v T) *Result[T] {
	return &Result[T]{v: v, ok: true}
}

func Err[T Commuter[T]](err error) *Result[T] {
	return &Result[T]{err: err}
}

// Get returns the value and the error, if any.
func (r *Result[T]) Get() (T, error) {
	return r.v, r.err
}

func (r *Result[T]) Err() error { return r.err }

func (r *Result[T]) Merge(other *Result[T]) {
	if other == nil || (!other.ok && other.err == nil) {
		return
	}
	if !r.ok && r.err == nil {
		*r = *other
		return
	}

	switch {
	case r.err == nil && other.err != nil:
		var zero T
		r.v, r.ok, r.err = zero, false, other.err
	case r.err != nil && other.err == nil:
		panic(fmt.Errorf("%w: left error: %v", ErrResultOrder, r.err))
	case r.err != nil:
		// Both failed: the left error wins.
	default:
		r.v.Merge(other.v)
	}
}

// Vec merges fixed-length sequences index by index. An empty Vec is the
// merge identity; two non-empty Vecs of different lengths panic with
// ErrLengthMismatch.
type Vec[T Commuter[T]] []T

func (v *Vec[T]) Merge(other *Vec[T]) {
	if other == nil || len(*other) == 0 {
		return
	}
	if len(*v) == 0 {
		*v = append(*v, (*other)...)
		return
	}
	if len(*v) != len(*other) {
		panic(fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(*v), len(*other)))
	}
	for i, o := range *other {
		(*v)[i].Merge(o)
	}
}

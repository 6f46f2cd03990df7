package stats

import (
	"iter"
	"math"
)

// OnlineStats keeps a running count, mean and sum of squared deviations
// (Welford). Variance is reported with the population divisor n;
// SampleVariance uses n-1.
type OnlineStats[T Number] struct {
	n    uint64
	mean float64
	m2   float64
}

func NewOnlineStats[T Number]() *OnlineStats[T] { return &OnlineStats[T]{} }

// OnlineStatsOf feeds every value of seq.
func OnlineStatsOf[T Number](seq iter.Seq[T]) *OnlineStats[T] {
	s := NewOnlineStats[T]()
	for v := range seq {
		s.Add(v)
	}
	return s
}

func (s *OnlineStats[T]) Add(v T) { s.AddFloat64(float64(v)) }

func (s *OnlineStats[T]) AddFloat64(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

func (s *OnlineStats[T]) Len() uint64 { return s.n }

func (s *OnlineStats[T]) Mean() (float64, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.mean, true
}

// Variance returns the population variance M2/n.
func (s *OnlineStats[T]) Variance() (float64, bool) {
	if s.n == 0 {
		return 0, false
	}
	return s.m2 / float64(s.n), true
}

// SampleVariance returns M2/(n-1); it needs at least two observations.
func (s *OnlineStats[T]) SampleVariance() (float64, bool) {
	if s.n < 2 {
		return 0, false
	}
	return s.m2 / float64(s.n-1), true
}

// Stddev is the square root of Variance.
func (s *OnlineStats[T]) Stddev() (float64, bool) {
	v, ok := s.Variance()
	if !ok {
		return 0, false
	}
	return math.Sqrt(v), true
}

// Merge combines two independently accumulated estimators (Chan et al.):
//
//	n     = n1 + n2
//	delta = mean2 - mean1
//	mean  = mean1 + delta*n2/n
//	M2    = M2a + M2b + delta^2*n1*n2/n
func (s *OnlineStats[T]) Merge(other *OnlineStats[T]) {
	if other == nil || other.n == 0 {
		return
	}
	if s.n == 0 {
		*s = *other
		return
	}
	n1, n2 := float64(s.n), float64(other.n)
	n := n1 + n2
	delta := other.mean - s.mean
	s.mean += delta * n2 / n
	s.m2 += other.m2 + delta*delta*n1*n2/n
	s.n += other.n
}

// MeanOf returns the mean of seq.
func MeanOf[T Number](seq iter.Seq[T]) (float64, bool) {
	return OnlineStatsOf(seq).Mean()
}

// VarianceOf returns the population variance of seq.
func VarianceOf[T Number](seq iter.Seq[T]) (float64, bool) {
	return OnlineStatsOf(seq).Variance()
}

// StddevOf returns the population standard deviation of seq.
func StddevOf[T Number](seq iter.Seq[T]) (float64, bool) {
	return OnlineStatsOf(seq).Stddev()
}

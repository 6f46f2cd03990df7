package stats

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Frequencies counts occurrences of each observed value.
// The zero value is empty and ready to use.
type Frequencies[K comparable] struct {
	counts map[K]uint64
	total  uint64
}

// Frequency is one entry of a Frequencies table.
type Frequency[K comparable] struct {
	Value K
	Count uint64
}

func NewFrequencies[K comparable]() *Frequencies[K] {
	return &Frequencies[K]{counts: make(map[K]uint64)}
}

// FrequenciesOf counts every value of seq.
func FrequenciesOf[K comparable](seq iter.Seq[K]) *Frequencies[K] {
	f := NewFrequencies[K]()
	for v := range seq {
		f.Add(v)
	}
	return f
}

func (f *Frequencies[K]) Add(v K) { f.AddN(v, 1) }

// AddN records n occurrences of v.
func (f *Frequencies[K]) AddN(v K, n uint64) {
	if n == 0 {
		return
	}
	if f.counts == nil {
		f.counts = make(map[K]uint64)
	}
	f.counts[v] += n
	f.total += n
}

// Count returns the number of times v was observed, zero if never.
func (f *Frequencies[K]) Count(v K) uint64 { return f.counts[v] }

// Total returns the number of observations.
func (f *Frequencies[K]) Total() uint64 { return f.total }

// Len returns the number of distinct values.
func (f *Frequencies[K]) Len() int { return len(f.counts) }

// Keys yields the distinct values in no particular order.
func (f *Frequencies[K]) Keys() iter.Seq[K] { return maps.Keys(f.counts) }

// MostFrequent returns every entry ordered by descending count. The order
// of entries with equal counts is unspecified.
func (f *Frequencies[K]) MostFrequent() []Frequency[K] {
	out := f.entries()
	slices.SortStableFunc(out, func(a, b Frequency[K]) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// LeastFrequent returns every entry ordered by ascending count.
func (f *Frequencies[K]) LeastFrequent() []Frequency[K] {
	out := f.entries()
	slices.SortStableFunc(out, func(a, b Frequency[K]) int { return cmp.Compare(a.Count, b.Count) })
	return out
}

func (f *Frequencies[K]) entries() []Frequency[K] {
	out := make([]Frequency[K], 0, len(f.counts))
	for v, c := range f.counts {
		out = append(out, Frequency[K]{Value: v, Count: c})
	}
	return out
}

// Merge adds every count of other into f.
func (f *Frequencies[K]) Merge(other *Frequencies[K]) {
	if other == nil {
		return
	}
	for v, c := range other.counts {
		f.AddN(v, c)
	}
}

package stats

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// statistic bundles every statistic that can be fed with ints.
type statistic struct {
	freq   *Frequencies[int]
	mm     *MinMax[int]
	online *OnlineStats[int]
	sorted *Sorted[int]
	raw    *Unsorted[int]
}

func newStatistic(data []int) *statistic {
	s := &statistic{
		freq:   NewFrequencies[int](),
		mm:     NewMinMax[int](),
		online: NewOnlineStats[int](),
		sorted: NewSorted[int](),
		raw:    NewUnsorted[int](),
	}
	for _, v := range data {
		s.freq.Add(v)
		s.mm.Add(v)
		s.online.Add(v)
		s.sorted.Add(v)
		s.raw.Add(v)
	}
	return s
}

func (s *statistic) Merge(o *statistic) {
	s.freq.Merge(o.freq)
	s.mm.Merge(o.mm)
	s.online.Merge(o.online)
	s.sorted.Merge(o.sorted)
	s.raw.Merge(o.raw)
}

func requireEquivalent(t *testing.T, want, got *statistic) {
	t.Helper()

	require.Equal(t, want.freq.Total(), got.freq.Total())
	for k := range want.freq.Keys() {
		require.Equal(t, want.freq.Count(k), got.freq.Count(k), "count(%d)", k)
	}
	require.Equal(t, want.freq.Len(), got.freq.Len())

	wantMin, wantOK := want.mm.Min()
	gotMin, gotOK := got.mm.Min()
	require.Equal(t, wantOK, gotOK)
	require.Equal(t, wantMin, gotMin)
	wantMax, _ := want.mm.Max()
	gotMax, _ := got.mm.Max()
	require.Equal(t, wantMax, gotMax)

	require.Equal(t, want.online.Len(), got.online.Len())
	wantMean, _ := want.online.Mean()
	gotMean, _ := got.online.Mean()
	require.InDelta(t, wantMean, gotMean, 1e-9)
	wantVar, _ := want.online.Variance()
	gotVar, _ := got.online.Variance()
	require.InDelta(t, wantVar, gotVar, 1e-6)

	require.Equal(t, slices.Collect(want.sorted.All()), slices.Collect(got.sorted.All()))
	wantMode, _ := want.sorted.Mode()
	gotMode, _ := got.sorted.Mode()
	require.Equal(t, wantMode, gotMode)

	wantMedian, wantOK := Median[int](want.raw)
	gotMedian, gotOK := Median[int](got.raw)
	require.Equal(t, wantOK, gotOK)
	require.Equal(t, wantMedian, gotMedian)
	gotRawMode, _ := got.raw.Mode()
	require.Equal(t, wantMode, gotRawMode)
}

func randomData(r *rand.Rand, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = r.IntN(50) - 10
	}
	return out
}

// shard splits data into k contiguous pieces at random cut points;
// pieces may be empty.
func shard(r *rand.Rand, data []int, k int) [][]int {
	cuts := make([]int, k-1)
	for i := range cuts {
		cuts[i] = r.IntN(len(data) + 1)
	}
	slices.Sort(cuts)

	out := make([][]int, 0, k)
	prev := 0
	for _, c := range cuts {
		out = append(out, data[prev:c])
		prev = c
	}
	return append(out, data[prev:])
}

func TestMerge_SinglePassEquivalence(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 50; trial++ {
		data := randomData(r, 1+r.IntN(200))
		want := newStatistic(data)

		parts := shard(r, data, 1+r.IntN(6))
		r.Shuffle(len(parts), func(i, j int) { parts[i], parts[j] = parts[j], parts[i] })

		stats := make([]*statistic, len(parts))
		for i, p := range parts {
			stats[i] = newStatistic(p)
		}
		got, ok := MergeAll(slices.Values(stats))
		require.True(t, ok)
		requireEquivalent(t, want, got)
	}
}

func TestMerge_AssociativeAndCommutative(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 30; trial++ {
		a, b, c := randomData(r, r.IntN(40)), randomData(r, r.IntN(40)), randomData(r, r.IntN(40))

		// (A+B)+C
		left := newStatistic(a)
		left.Merge(newStatistic(b))
		left.Merge(newStatistic(c))

		// A+(B+C)
		bc := newStatistic(b)
		bc.Merge(newStatistic(c))
		right := newStatistic(a)
		right.Merge(bc)

		// B+(A+C)
		ac := newStatistic(a)
		ac.Merge(newStatistic(c))
		swapped := newStatistic(b)
		swapped.Merge(ac)

		requireEquivalent(t, left, right)
		requireEquivalent(t, left, swapped)
	}
}

func TestMerge_Identity(t *testing.T) {
	data := []int{4, 8, 15, 16, 23, 42}

	rightID := newStatistic(data)
	rightID.Merge(newStatistic(nil))
	requireEquivalent(t, newStatistic(data), rightID)

	leftID := newStatistic(nil)
	leftID.Merge(newStatistic(data))
	requireEquivalent(t, newStatistic(data), leftID)
}

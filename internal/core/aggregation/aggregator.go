package aggregation

import (
	"fmt"

	"github.com/aevon-lab/statsum/internal/core/stats"
	"github.com/shopspring/decimal"
)

// Accumulator is the operator-erased view of a mergeable statistic. One
// accumulator exists per aggregate key per shard; shards are combined with
// Merge.
type Accumulator interface {
	Operator() string

	// Observe folds one extracted field value into the accumulator.
	Observe(v decimal.Decimal)

	// Merge folds other into the receiver. other must come from the same
	// operator; anything else is a programming error and panics.
	Merge(other Accumulator)

	// Value returns the current result, or false when the operator has no
	// result for the observations seen so far.
	Value() (float64, bool)

	// Count returns the number of observations.
	Count() uint64
}

// Factory builds an empty accumulator for a rule.
type Factory func(rule AggregationRule) Accumulator

// Operators is the registry of all supported aggregation operators.
// To add a new operator: implement Accumulator and add an entry here.
var Operators = map[string]Factory{
	OpCount:      func(AggregationRule) Accumulator { return &countAcc{} },
	OpSum:        func(AggregationRule) Accumulator { return &sumAcc{} },
	OpMin:        func(AggregationRule) Accumulator { return &extremeAcc{op: OpMin} },
	OpMax:        func(AggregationRule) Accumulator { return &extremeAcc{op: OpMax} },
	OpMean:       func(AggregationRule) Accumulator { return &momentAcc{op: OpMean} },
	OpVariance:   func(AggregationRule) Accumulator { return &momentAcc{op: OpVariance} },
	OpStddev:     func(AggregationRule) Accumulator { return &momentAcc{op: OpStddev} },
	OpMedian:     func(AggregationRule) Accumulator { return &medianAcc{} },
	OpMode:       func(AggregationRule) Accumulator { return &modeAcc{} },
	OpDistinct:   func(AggregationRule) Accumulator { return &distinctAcc{} },
	OpQuantile:   func(r AggregationRule) Accumulator { return &tdigestAcc{q: r.Quantile} },
	OpQuantileDD: func(r AggregationRule) Accumulator { return &ddsketchAcc{q: r.Quantile} },
}

// ValidOperator reports whether op is a registered aggregation operator.
func ValidOperator(op string) bool {
	_, ok := Operators[op]
	return ok
}

// NewAccumulator builds an empty accumulator for rule. It panics on an
// unregistered operator; rules are validated when loaded.
func NewAccumulator(rule AggregationRule) Accumulator {
	f, ok := Operators[rule.Operator]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownOperator, rule.Operator))
	}
	return f(rule)
}

// same returns other as the receiver's concrete type.
func same[A Accumulator](dst A, other Accumulator) A {
	o, ok := other.(A)
	if !ok || o.Operator() != dst.Operator() {
		panic(fmt.Errorf("%w: cannot merge %s into %s", ErrOperatorMismatch, other.Operator(), dst.Operator()))
	}
	return o
}

// countAcc counts events. The incoming value is ignored.
type countAcc struct{ n uint64 }

func (a *countAcc) Operator() string        { return OpCount }
func (a *countAcc) Observe(decimal.Decimal) { a.n++ }
func (a *countAcc) Merge(other Accumulator) { a.n += same(a, other).n }
func (a *countAcc) Value() (float64, bool)  { return float64(a.n), true }
func (a *countAcc) Count() uint64           { return a.n }

// sumAcc keeps an exact decimal sum.
type sumAcc struct{ sum stats.Sum }

func (a *sumAcc) Operator() string          { return OpSum }
func (a *sumAcc) Observe(v decimal.Decimal) { a.sum.Add(v) }
func (a *sumAcc) Merge(other Accumulator)   { a.sum.Merge(&same(a, other).sum) }
func (a *sumAcc) Count() uint64             { return a.sum.Len() }
func (a *sumAcc) Value() (float64, bool) {
	if a.sum.Len() == 0 {
		return 0, false
	}
	return a.sum.Total().InexactFloat64(), true
}

// extremeAcc serves both min and max from one tracker.
type extremeAcc struct {
	op string
	mm stats.MinMax[float64]
}

func (a *extremeAcc) Operator() string          { return a.op }
func (a *extremeAcc) Observe(v decimal.Decimal) { a.mm.Add(v.InexactFloat64()) }
func (a *extremeAcc) Merge(other Accumulator)   { a.mm.Merge(&same(a, other).mm) }
func (a *extremeAcc) Count() uint64             { return a.mm.Len() }
func (a *extremeAcc) Value() (float64, bool) {
	if a.op == OpMin {
		return a.mm.Min()
	}
	return a.mm.Max()
}

// momentAcc serves mean, variance and stddev. Variance is the population
// variance.
type momentAcc struct {
	op     string
	online stats.OnlineStats[float64]
}

func (a *momentAcc) Operator() string          { return a.op }
func (a *momentAcc) Observe(v decimal.Decimal) { a.online.Add(v.InexactFloat64()) }
func (a *momentAcc) Merge(other Accumulator)   { a.online.Merge(&same(a, other).online) }
func (a *momentAcc) Count() uint64             { return a.online.Len() }
func (a *momentAcc) Value() (float64, bool) {
	switch a.op {
	case OpMean:
		return a.online.Mean()
	case OpVariance:
		return a.online.Variance()
	default:
		return a.online.Stddev()
	}
}

type medianAcc struct{ samples stats.Unsorted[float64] }

func (a *medianAcc) Operator() string          { return OpMedian }
func (a *medianAcc) Observe(v decimal.Decimal) { a.samples.Add(v.InexactFloat64()) }
func (a *medianAcc) Merge(other Accumulator)   { a.samples.Merge(&same(a, other).samples) }
func (a *medianAcc) Count() uint64             { return uint64(a.samples.Len()) }
func (a *medianAcc) Value() (float64, bool)    { return stats.Median[float64](&a.samples) }

type modeAcc struct{ sorted stats.Sorted[float64] }

func (a *modeAcc) Operator() string          { return OpMode }
func (a *modeAcc) Observe(v decimal.Decimal) { a.sorted.Add(v.InexactFloat64()) }
func (a *modeAcc) Merge(other Accumulator)   { a.sorted.Merge(&same(a, other).sorted) }
func (a *modeAcc) Count() uint64             { return a.sorted.Len() }
func (a *modeAcc) Value() (float64, bool)    { return a.sorted.Mode() }

// distinctAcc counts distinct values. Values are keyed by their exact
// decimal form, so 1 and 1.0 are the same value.
type distinctAcc struct{ freq stats.Frequencies[string] }

func (a *distinctAcc) Operator() string          { return OpDistinct }
func (a *distinctAcc) Observe(v decimal.Decimal) { a.freq.Add(v.String()) }
func (a *distinctAcc) Merge(other Accumulator)   { a.freq.Merge(&same(a, other).freq) }
func (a *distinctAcc) Count() uint64             { return a.freq.Total() }
func (a *distinctAcc) Value() (float64, bool)    { return float64(a.freq.Len()), true }

type tdigestAcc struct {
	q      float64
	digest stats.TDigest
}

func (a *tdigestAcc) Operator() string          { return OpQuantile }
func (a *tdigestAcc) Observe(v decimal.Decimal) { a.digest.Add(v.InexactFloat64()) }
func (a *tdigestAcc) Merge(other Accumulator)   { a.digest.Merge(&same(a, other).digest) }
func (a *tdigestAcc) Count() uint64             { return a.digest.Len() }
func (a *tdigestAcc) Value() (float64, bool) {
	v, err := a.digest.Quantile(a.q)
	return v, err == nil
}

// ddsketchAcc drops values the sketch cannot index; Count reports only the
// values it kept.
type ddsketchAcc struct {
	q      float64
	sketch stats.DDSketch
}

func (a *ddsketchAcc) Operator() string          { return OpQuantileDD }
func (a *ddsketchAcc) Observe(v decimal.Decimal) { _ = a.sketch.Add(v.InexactFloat64()) }
func (a *ddsketchAcc) Merge(other Accumulator)   { a.sketch.Merge(&same(a, other).sketch) }
func (a *ddsketchAcc) Count() uint64             { return a.sketch.Len() }
func (a *ddsketchAcc) Value() (float64, bool) {
	v, err := a.sketch.Quantile(a.q)
	return v, err == nil
}

package aggregation

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Supported aggregation operators.
const (
	OpCount      = "count"
	OpSum        = "sum"
	OpMin        = "min"
	OpMax        = "max"
	OpMean       = "mean"
	OpVariance   = "variance"
	OpStddev     = "stddev"
	OpMedian     = "median"
	OpMode       = "mode"
	OpDistinct   = "distinct"
	OpQuantile   = "quantile"    // t-digest
	OpQuantileDD = "quantile_dd" // DDSketch
)

var (
	ErrUnknownOperator  = errors.New("unknown aggregation operator")
	ErrOperatorMismatch = errors.New("aggregation operator mismatch")
)

// AggregateKey uniquely identifies one aggregate. Key is empty unless the
// rule groups by record key; WindowStart is zero for rules without a
// window.
type AggregateKey struct {
	RuleName    string
	Key         string
	WindowStart time.Time // UTC, truncated to the window boundary
}

// Table holds the accumulators of one shard, or of several shards once
// merged.
type Table map[AggregateKey]Accumulator

// Merge moves every accumulator of other into t, merging those whose key
// is already present. other must not be used afterwards.
func (t Table) Merge(other Table) {
	for key, acc := range other {
		if cur, ok := t[key]; ok {
			cur.Merge(acc)
			continue
		}
		t[key] = acc
	}
}

// Observe routes one value to the accumulator for key, creating it from
// rule on first use.
func (t Table) Observe(rule AggregationRule, key AggregateKey, v decimal.Decimal) {
	acc, ok := t[key]
	if !ok {
		acc = NewAccumulator(rule)
		t[key] = acc
	}
	acc.Observe(v)
}

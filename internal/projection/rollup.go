package projection

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/aevon-lab/statsum/internal/core/aggregation"
	"gopkg.in/yaml.v3"
)

// ParseGranularity turns a report granularity into a bucket width.
// "window" (or empty) yields 0, meaning no rollup; "total" yields a
// negative width; anything else must be a positive Go duration.
func ParseGranularity(s string) (time.Duration, error) {
	switch s {
	case "", GranularityWindow:
		return 0, nil
	case GranularityTotal:
		return -1, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidGranularity, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidGranularity, s)
	}
	return d, nil
}

// Rollup re-buckets every windowed aggregate into coarser buckets by
// merging accumulators that land in the same bucket. A zero granularity
// returns t unchanged and a negative one collapses all windows.
//
// Accumulators of t are merged in place, so t must not be used afterwards.
func Rollup(t aggregation.Table, granularity time.Duration) aggregation.Table {
	if granularity == 0 {
		return t
	}

	// Merge in a fixed key order so the result does not depend on map
	// iteration for operators whose merge is order-sensitive in floating
	// point.
	keys := sortedKeys(t)
	out := make(aggregation.Table, len(t))
	for _, key := range keys {
		target := key
		if !key.WindowStart.IsZero() {
			if granularity < 0 {
				target.WindowStart = time.Time{}
			} else {
				target.WindowStart = aggregation.BucketFor(key.WindowStart, granularity)
			}
		}
		if cur, ok := out[target]; ok {
			cur.Merge(t[key])
			continue
		}
		out[target] = t[key]
	}
	return out
}

// Rows flattens t into report rows ordered by rule, key and window.
func Rows(t aggregation.Table) []Row {
	keys := sortedKeys(t)
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		acc := t[key]
		row := Row{
			Rule:     key.RuleName,
			Operator: acc.Operator(),
			Key:      key.Key,
			Count:    acc.Count(),
		}
		if !key.WindowStart.IsZero() {
			ws := key.WindowStart
			row.WindowStart = &ws
		}
		if v, ok := acc.Value(); ok {
			row.Value = &v
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteYAML encodes rows as a YAML sequence.
func WriteYAML(w io.Writer, rows []Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	return enc.Close()
}

func sortedKeys(t aggregation.Table) []aggregation.AggregateKey {
	keys := make([]aggregation.AggregateKey, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b aggregation.AggregateKey) int {
		return cmp.Or(
			cmp.Compare(a.RuleName, b.RuleName),
			cmp.Compare(a.Key, b.Key),
			a.WindowStart.Compare(b.WindowStart),
		)
	})
	return keys
}

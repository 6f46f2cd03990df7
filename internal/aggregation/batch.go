package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	v1 "github.com/aevon-lab/statsum/internal/api/v1"
	"github.com/aevon-lab/statsum/internal/core/aggregation"
	"github.com/aevon-lab/statsum/internal/core/partition"
	"github.com/aevon-lab/statsum/internal/core/stats"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkerCount = 4

	// ctxCheckInterval is how many records a shard feeds between
	// cancellation checks.
	ctxCheckInterval = 4096
)

// Reduce strategies for combining shard tables.
const (
	ReduceFold = "fold" // sequential MergeAll over the shard tables
	ReduceTree = "tree" // parallel pairwise reduction
)

// Partitioning strategies for assigning records to shards.
const (
	PartitionByKey      = "key"         // equal keys share a shard
	PartitionRoundRobin = "round_robin" // spread evenly regardless of key
)

// Options controls sharding and reduction for a run.
type Options struct {
	Shards       int
	WorkerCount  int
	Reduce       string
	Partitioning string
}

// DefaultOptions returns safe defaults.
func DefaultOptions() Options {
	return Options{
		Shards:       partition.DefaultCount,
		WorkerCount:  defaultWorkerCount,
		Reduce:       ReduceFold,
		Partitioning: PartitionByKey,
	}
}

func (o Options) normalized() Options {
	n := o
	if n.Shards <= 0 {
		n.Shards = partition.DefaultCount
	}
	if n.WorkerCount <= 0 {
		n.WorkerCount = defaultWorkerCount
	}
	if n.Reduce == "" {
		n.Reduce = ReduceFold
	}
	if n.Partitioning == "" {
		n.Partitioning = PartitionByKey
	}
	return n
}

// Validate rejects unknown strategies.
func (o Options) Validate() error {
	switch o.Reduce {
	case "", ReduceFold, ReduceTree:
	default:
		return fmt.Errorf("unknown reduce strategy %q", o.Reduce)
	}
	switch o.Partitioning {
	case "", PartitionByKey, PartitionRoundRobin:
	default:
		return fmt.Errorf("unknown partitioning %q", o.Partitioning)
	}
	return nil
}

// Run splits records into shards, aggregates every shard independently on
// up to WorkerCount goroutines, and merges the shard tables into one.
// The result does not depend on the shard count or reduce strategy beyond
// floating-point rounding.
func Run(
	ctx context.Context,
	records []*v1.Record,
	rules []aggregation.AggregationRule,
	opts Options,
) (aggregation.Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized()

	slog.Info("[BatchJob] Starting aggregation",
		"records", len(records),
		"rules", len(rules),
		"shards", opts.Shards,
		"workers", opts.WorkerCount,
		"reduce", opts.Reduce,
		"partitioning", opts.Partitioning,
	)

	shards := splitShards(records, opts)
	tables := make([]aggregation.Table, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.WorkerCount)
	for i, shard := range shards {
		g.Go(func() error {
			table := make(aggregation.Table)
			for j, rec := range shard {
				if j%ctxCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				observeRecord(table, rec, rules)
			}
			tables[i] = table
			slog.Debug("[BatchJob] Shard complete", "shard", i, "records", len(shard), "aggregates", len(table))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate shards: %w", err)
	}

	var (
		merged aggregation.Table
		err    error
	)
	switch opts.Reduce {
	case ReduceTree:
		merged, err = reduceTree(ctx, tables, opts.WorkerCount)
		if err != nil {
			return nil, fmt.Errorf("reduce shards: %w", err)
		}
	default:
		var ok bool
		merged, ok = stats.MergeAll(slices.Values(tables))
		if !ok {
			merged = aggregation.Table{}
		}
	}

	slog.Info("[BatchJob] Aggregation complete",
		"records", len(records),
		"aggregates", len(merged),
	)
	return merged, nil
}

func splitShards(records []*v1.Record, opts Options) [][]*v1.Record {
	shards := make([][]*v1.Record, opts.Shards)
	for i, rec := range records {
		var idx int
		if opts.Partitioning == PartitionRoundRobin {
			idx = i % opts.Shards
		} else {
			idx = partition.For(rec.Key, opts.Shards)
		}
		shards[idx] = append(shards[idx], rec)
	}
	return shards
}

func observeRecord(table aggregation.Table, rec *v1.Record, rules []aggregation.AggregationRule) {
	for _, rule := range rules {
		if !rule.Matches(rec.Type) {
			continue
		}

		value, ok := aggregation.ExtractDecimal(rec.Data, rule.Field)
		if !ok && rule.NeedsField() {
			continue
		}

		key := aggregation.AggregateKey{RuleName: rule.Name}
		if rule.GroupByKey {
			key.Key = rec.Key
		}
		if rule.Window > 0 {
			if rec.OccurredAt.IsZero() {
				continue
			}
			key.WindowStart = aggregation.BucketFor(rec.OccurredAt, rule.Window)
		}

		table.Observe(rule, key, value)
	}
}

// reduceTree merges neighbouring tables level by level until one is left.
// Each merge within a level touches a disjoint pair, so a level runs in
// parallel.
func reduceTree(ctx context.Context, tables []aggregation.Table, workers int) (aggregation.Table, error) {
	if len(tables) == 0 {
		return aggregation.Table{}, nil
	}
	for len(tables) > 1 {
		next := make([]aggregation.Table, (len(tables)+1)/2)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range next {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				left := tables[2*i]
				if 2*i+1 < len(tables) {
					left.Merge(tables[2*i+1])
				}
				next[i] = left
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		tables = next
	}
	return tables[0], nil
}

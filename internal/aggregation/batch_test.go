package aggregation

import (
	"context"
	"fmt"
	"testing"
	"time"

	v1 "github.com/aevon-lab/statsum/internal/api/v1"
	"github.com/aevon-lab/statsum/internal/core/aggregation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testRecords(n int) []*v1.Record {
	records := make([]*v1.Record, 0, n)
	for i := range n {
		records = append(records, &v1.Record{
			ID:         fmt.Sprintf("rec-%d", i),
			Key:        fmt.Sprintf("host-%d", i%7),
			Type:       "api.request",
			OccurredAt: baseTime.Add(time.Duration(i) * time.Minute),
			Data:       map[string]interface{}{"latency": float64(i%50 + 1)},
		})
	}
	return records
}

func testRules() []aggregation.AggregationRule {
	return []aggregation.AggregationRule{
		{Name: "requests", SourceEvent: "api.request", Operator: aggregation.OpCount},
		{Name: "latency_sum", SourceEvent: "api.request", Operator: aggregation.OpSum, Field: "latency", GroupByKey: true},
		{Name: "latency_mean", SourceEvent: "api.request", Operator: aggregation.OpMean, Field: "latency", Window: time.Hour},
		{Name: "latency_max", SourceEvent: "*", Operator: aggregation.OpMax, Field: "latency"},
		{Name: "latency_median", SourceEvent: "api.request", Operator: aggregation.OpMedian, Field: "latency"},
		{Name: "latency_var", SourceEvent: "api.request", Operator: aggregation.OpVariance, Field: "latency", GroupByKey: true},
	}
}

func values(t *testing.T, table aggregation.Table) map[aggregation.AggregateKey]float64 {
	t.Helper()
	out := make(map[aggregation.AggregateKey]float64, len(table))
	for k, acc := range table {
		v, ok := acc.Value()
		require.True(t, ok, "aggregate %v has no value", k)
		out[k] = v
	}
	return out
}

func TestRun_CountAggregation(t *testing.T) {
	rules := []aggregation.AggregationRule{
		{Name: "requests", SourceEvent: "api.request", Operator: aggregation.OpCount},
	}
	records := testRecords(10)
	records = append(records, &v1.Record{ID: "other", Key: "host-1", Type: "api.error"})

	table, err := Run(context.Background(), records, rules, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, table, 1)

	acc := table[aggregation.AggregateKey{RuleName: "requests"}]
	require.NotNil(t, acc)
	v, ok := acc.Value()
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestRun_ShardingDoesNotChangeResult(t *testing.T) {
	records := testRecords(500)
	rules := testRules()

	single, err := Run(context.Background(), records, rules, Options{Shards: 1, WorkerCount: 1})
	require.NoError(t, err)
	want := values(t, single)

	cases := []Options{
		{Shards: 16, WorkerCount: 4, Reduce: ReduceFold},
		{Shards: 16, WorkerCount: 4, Reduce: ReduceTree},
		{Shards: 5, WorkerCount: 2, Reduce: ReduceTree, Partitioning: PartitionRoundRobin},
		{Shards: 3, WorkerCount: 8, Reduce: ReduceFold, Partitioning: PartitionRoundRobin},
	}
	for _, opts := range cases {
		t.Run(fmt.Sprintf("%d/%s/%s", opts.Shards, opts.Reduce, opts.Partitioning), func(t *testing.T) {
			table, err := Run(context.Background(), testRecords(500), rules, opts)
			require.NoError(t, err)
			got := values(t, table)
			require.Len(t, got, len(want))
			for k, v := range want {
				assert.InDelta(t, v, got[k], 1e-9, "aggregate %v", k)
			}
		})
	}
}

func TestRun_WindowedRuleSkipsUntimedRecords(t *testing.T) {
	rules := []aggregation.AggregationRule{
		{Name: "hourly", SourceEvent: "api.request", Operator: aggregation.OpCount, Window: time.Hour},
	}
	records := []*v1.Record{
		{ID: "a", Type: "api.request", OccurredAt: baseTime.Add(10 * time.Minute)},
		{ID: "b", Type: "api.request", OccurredAt: baseTime.Add(70 * time.Minute)},
		{ID: "c", Type: "api.request"},
	}

	table, err := Run(context.Background(), records, rules, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, table, 2)

	first := table[aggregation.AggregateKey{RuleName: "hourly", WindowStart: baseTime}]
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), first.Count())

	second := table[aggregation.AggregateKey{RuleName: "hourly", WindowStart: baseTime.Add(time.Hour)}]
	require.NotNil(t, second)
	assert.Equal(t, uint64(1), second.Count())
}

func TestRun_MissingFieldSkipped(t *testing.T) {
	rules := []aggregation.AggregationRule{
		{Name: "total", SourceEvent: "api.request", Operator: aggregation.OpSum, Field: "bytes"},
	}
	records := []*v1.Record{
		{ID: "a", Type: "api.request", Data: map[string]interface{}{"bytes": 10.0}},
		{ID: "b", Type: "api.request", Data: map[string]interface{}{"other": 5.0}},
		{ID: "c", Type: "api.request", Data: map[string]interface{}{"bytes": "not-a-number"}},
	}

	table, err := Run(context.Background(), records, rules, DefaultOptions())
	require.NoError(t, err)

	acc := table[aggregation.AggregateKey{RuleName: "total"}]
	require.NotNil(t, acc)
	v, ok := acc.Value()
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
	assert.Equal(t, uint64(1), acc.Count())
}

func TestRun_Empty(t *testing.T) {
	for _, reduce := range []string{ReduceFold, ReduceTree} {
		table, err := Run(context.Background(), nil, testRules(), Options{Reduce: reduce})
		require.NoError(t, err)
		assert.Empty(t, table)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testRecords(100), testRules(), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.NoError(t, Options{}.Validate())
	assert.Error(t, Options{Reduce: "random"}.Validate())
	assert.Error(t, Options{Partitioning: "hash"}.Validate())

	_, err := Run(context.Background(), nil, nil, Options{Reduce: "random"})
	assert.Error(t, err)
}

package projection

import (
	"bytes"
	"testing"
	"time"

	coreagg "github.com/aevon-lab/statsum/internal/core/aggregation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var (
	sumRule  = coreagg.AggregationRule{Name: "bytes", Operator: coreagg.OpSum, Field: "bytes", Window: time.Minute}
	meanRule = coreagg.AggregationRule{Name: "latency", Operator: coreagg.OpMean, Field: "latency", Window: time.Minute}
	day      = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func windowedTable() coreagg.Table {
	table := make(coreagg.Table)
	observe := func(rule coreagg.AggregationRule, at time.Time, v int64) {
		key := coreagg.AggregateKey{RuleName: rule.Name, WindowStart: at}
		table.Observe(rule, key, decimal.NewFromInt(v))
	}
	observe(sumRule, day.Add(10*time.Minute), 5)
	observe(sumRule, day.Add(20*time.Minute), 7)
	observe(sumRule, day.Add(70*time.Minute), 1)
	observe(meanRule, day.Add(10*time.Minute), 2)
	observe(meanRule, day.Add(11*time.Minute), 4)
	observe(meanRule, day.Add(90*time.Minute), 9)
	return table
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "window", want: 0},
		{in: "total", want: -1},
		{in: "1h", want: time.Hour},
		{in: "24h", want: 24 * time.Hour},
		{in: "-1h", wantErr: true},
		{in: "weekly", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseGranularity(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidGranularity)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRollup_Hourly(t *testing.T) {
	table := Rollup(windowedTable(), time.Hour)
	require.Len(t, table, 4)

	first := table[coreagg.AggregateKey{RuleName: "bytes", WindowStart: day}]
	require.NotNil(t, first)
	v, ok := first.Value()
	require.True(t, ok)
	require.Equal(t, 12.0, v)
	require.Equal(t, uint64(2), first.Count())

	mean := table[coreagg.AggregateKey{RuleName: "latency", WindowStart: day}]
	require.NotNil(t, mean)
	v, ok = mean.Value()
	require.True(t, ok)
	require.InDelta(t, 3.0, v, 1e-9)
}

func TestRollup_Total(t *testing.T) {
	table := Rollup(windowedTable(), -1)
	require.Len(t, table, 2)

	sum := table[coreagg.AggregateKey{RuleName: "bytes"}]
	require.NotNil(t, sum)
	v, ok := sum.Value()
	require.True(t, ok)
	require.Equal(t, 13.0, v)

	mean := table[coreagg.AggregateKey{RuleName: "latency"}]
	require.NotNil(t, mean)
	v, ok = mean.Value()
	require.True(t, ok)
	require.InDelta(t, 5.0, v, 1e-9)
}

func TestRollup_WindowIsIdentity(t *testing.T) {
	table := windowedTable()
	require.Len(t, Rollup(table, 0), len(table))
}

func TestRows_SortedAndAbsentValues(t *testing.T) {
	table := Rollup(windowedTable(), -1)
	table[coreagg.AggregateKey{RuleName: "empty_max", Key: "host-1"}] =
		coreagg.NewAccumulator(coreagg.AggregationRule{Name: "empty_max", Operator: coreagg.OpMax, Field: "x"})

	rows := Rows(table)
	require.Len(t, rows, 3)
	require.Equal(t, "bytes", rows[0].Rule)
	require.Equal(t, "empty_max", rows[1].Rule)
	require.Equal(t, "latency", rows[2].Rule)

	require.Nil(t, rows[1].Value)
	require.Equal(t, "host-1", rows[1].Key)
	require.NotNil(t, rows[0].Value)
	require.Equal(t, 13.0, *rows[0].Value)
	require.Nil(t, rows[0].WindowStart)
}

func TestWriteYAML(t *testing.T) {
	rows := Rows(Rollup(windowedTable(), time.Hour))

	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, rows))

	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 4)
	require.Equal(t, "bytes", decoded[0]["rule"])
	require.Equal(t, "sum", decoded[0]["operator"])
	require.EqualValues(t, 12, decoded[0]["value"])
	require.NotContains(t, decoded[0], "key")
}

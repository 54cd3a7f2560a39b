package stats

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/avro"
)

func TestColumnCollectorTracksBoundsAndNulls(t *testing.T) {
	c := NewColumnCollector(1, avro.BoundInt64)
	require.NoError(t, c.Observe(int64(10)))
	require.NoError(t, c.Observe(nil))
	require.NoError(t, c.Observe(int64(-5)))
	require.NoError(t, c.Observe(int64(99)))

	assert.Equal(t, int64(3), c.ValueCount)
	assert.Equal(t, int64(1), c.NullCount)

	lower, err := avro.DecodeBound(avro.BoundInt64, c.lower)
	require.NoError(t, err)
	upper, err := avro.DecodeBound(avro.BoundInt64, c.upper)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), lower)
	assert.Equal(t, int64(99), upper)
}

func TestColumnCollectorNaNDoesNotUpdateBounds(t *testing.T) {
	c := NewColumnCollector(1, avro.BoundFloat64)
	require.NoError(t, c.Observe(1.0))
	require.NoError(t, c.Observe(nan()))
	require.NoError(t, c.Observe(2.0))

	assert.Equal(t, int64(2), c.ValueCount)
	assert.Equal(t, int64(1), c.NanCount)

	upper, err := avro.DecodeBound(avro.BoundFloat64, c.upper)
	require.NoError(t, err)
	assert.Equal(t, 2.0, upper)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestFileStatsCollectorIngestRecord(t *testing.T) {
	pool := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	idBuilder := array.NewInt64Builder(pool)
	idBuilder.AppendValues([]int64{1, 2, 3}, nil)
	nameBuilder := array.NewStringBuilder(pool)
	nameBuilder.AppendValues([]string{"a", "", "c"}, []bool{true, false, true})

	rec := array.NewRecord(schema, []arrow.Array{idBuilder.NewArray(), nameBuilder.NewArray()}, 3)
	defer rec.Release()

	collector := NewFileStatsCollector(zerolog.Nop())
	err := collector.IngestRecord(rec, []int{1, 2}, []avro.BoundKind{avro.BoundInt64, avro.BoundString})
	require.NoError(t, err)

	result := collector.Finish()
	assert.Equal(t, int64(3), result.ValueCounts[1])
	assert.Equal(t, int64(2), result.ValueCounts[2])
	assert.Equal(t, int64(1), result.NullValueCounts[2])

	lower, err := avro.DecodeBound(avro.BoundString, result.LowerBounds[2])
	require.NoError(t, err)
	assert.Equal(t, "a", lower)
}

package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/avro"
)

func TestShreddedAllocatorStableAndMonotonic(t *testing.T) {
	a := NewShreddedAllocator(1000)
	id1 := a.FieldIDFor("$payload.typed_value.amount.typed_value")
	id2 := a.FieldIDFor("$payload.typed_value.currency.typed_value")
	id1Again := a.FieldIDFor("$payload.typed_value.amount.typed_value")

	assert.Equal(t, 1000, id1)
	assert.Equal(t, 1001, id2)
	assert.Equal(t, id1, id1Again)
}

func TestMergeStatsSumsCountsAndWidensBounds(t *testing.T) {
	kinds := map[int]avro.BoundKind{1: avro.BoundInt64}
	a := &ComputedFileStats{
		ValueCounts:     map[int]int64{1: 10},
		NullValueCounts: map[int]int64{1: 1},
		NanValueCounts:  map[int]int64{1: 0},
		LowerBounds:     map[int][]byte{1: mustBoundValue(t, avro.BoundInt64, int64(5))},
		UpperBounds:     map[int][]byte{1: mustBoundValue(t, avro.BoundInt64, int64(50))},
	}
	b := &ComputedFileStats{
		ValueCounts:     map[int]int64{1: 20},
		NullValueCounts: map[int]int64{1: 2},
		NanValueCounts:  map[int]int64{1: 0},
		LowerBounds:     map[int][]byte{1: mustBoundValue(t, avro.BoundInt64, int64(-10))},
		UpperBounds:     map[int][]byte{1: mustBoundValue(t, avro.BoundInt64, int64(30))},
	}

	merged, err := MergeStats(a, b, kinds)
	require.NoError(t, err)

	assert.Equal(t, int64(30), merged.ValueCounts[1])
	assert.Equal(t, int64(3), merged.NullValueCounts[1])

	lower, err := avro.DecodeBound(avro.BoundInt64, merged.LowerBounds[1])
	require.NoError(t, err)
	upper, err := avro.DecodeBound(avro.BoundInt64, merged.UpperBounds[1])
	require.NoError(t, err)
	assert.Equal(t, int64(-10), lower)
	assert.Equal(t, int64(50), upper)
}

func mustBoundValue(t *testing.T, kind avro.BoundKind, v any) []byte {
	t.Helper()
	b, err := avro.EncodeBound(kind, v)
	require.NoError(t, err)
	return b
}

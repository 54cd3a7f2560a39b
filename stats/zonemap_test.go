package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/avro"
)

func mustBound(t *testing.T, kind avro.BoundKind, v any) []byte {
	t.Helper()
	b, err := avro.EncodeBound(kind, v)
	require.NoError(t, err)
	return b
}

func TestZoneMapCanPruneOutOfRangeEquality(t *testing.T) {
	z := NewZoneMap(avro.BoundInt64,
		mustBound(t, avro.BoundInt64, int64(10)),
		mustBound(t, avro.BoundInt64, int64(20)),
		false, false)

	prune, err := z.CanPrune(OpEQ, mustBound(t, avro.BoundInt64, int64(5)))
	require.NoError(t, err)
	assert.True(t, prune)

	prune, err = z.CanPrune(OpEQ, mustBound(t, avro.BoundInt64, int64(15)))
	require.NoError(t, err)
	assert.False(t, prune)
}

func TestZoneMapCanPruneRangeOps(t *testing.T) {
	z := NewZoneMap(avro.BoundInt64,
		mustBound(t, avro.BoundInt64, int64(10)),
		mustBound(t, avro.BoundInt64, int64(20)),
		false, false)

	// row < 10 is false for every row in [10,20]
	prune, err := z.CanPrune(OpLT, mustBound(t, avro.BoundInt64, int64(10)))
	require.NoError(t, err)
	assert.True(t, prune)

	// row > 20 is false for every row in [10,20]
	prune, err = z.CanPrune(OpGT, mustBound(t, avro.BoundInt64, int64(20)))
	require.NoError(t, err)
	assert.True(t, prune)

	// row > 5 may be true for rows in [10,20]
	prune, err = z.CanPrune(OpGT, mustBound(t, avro.BoundInt64, int64(5)))
	require.NoError(t, err)
	assert.False(t, prune)
}

func TestZoneMapNoStatsNeverPrunes(t *testing.T) {
	z := NewZoneMap(avro.BoundInt64, nil, nil, true, false)
	prune, err := z.CanPrune(OpEQ, mustBound(t, avro.BoundInt64, int64(1)))
	require.NoError(t, err)
	assert.False(t, prune)
}

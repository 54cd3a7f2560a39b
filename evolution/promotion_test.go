package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icelake-io/iceberg-engine/iceberg"
)

func TestCanPromotePrimitiveWidenings(t *testing.T) {
	assert.True(t, CanPromote(iceberg.Int32(), iceberg.Int64()))
	assert.True(t, CanPromote(iceberg.Float32(), iceberg.Float64()))
	assert.True(t, CanPromote(iceberg.Decimal(9, 2), iceberg.Decimal(18, 2)))
	assert.True(t, CanPromote(iceberg.Fixed(4), iceberg.Binary()))
}

func TestCanPromoteRejectsNarrowingAndScaleChange(t *testing.T) {
	assert.False(t, CanPromote(iceberg.Int64(), iceberg.Int32()))
	assert.False(t, CanPromote(iceberg.Decimal(9, 2), iceberg.Decimal(18, 3)))
	assert.False(t, CanPromote(iceberg.Decimal(18, 2), iceberg.Decimal(9, 2)))
	assert.False(t, CanPromote(iceberg.String(), iceberg.Int64()))
}

func TestCanPromoteListElementRecursively(t *testing.T) {
	from := iceberg.List(iceberg.Int32(), 10, true)
	to := iceberg.List(iceberg.Int64(), 10, true)
	assert.True(t, CanPromote(from, to))
}

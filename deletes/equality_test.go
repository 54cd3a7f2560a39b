package deletes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/iceberg"
)

func equalitySchema(t *testing.T) *iceberg.Schema {
	t.Helper()
	s, err := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()},
		iceberg.NestedField{ID: 2, Name: "name", Required: false, Type: iceberg.String()},
	)
	require.NoError(t, err)
	return s
}

func TestEqualityDeleteBuilderRejectsUnknownField(t *testing.T) {
	_, err := NewEqualityDeleteBuilder(equalitySchema(t), []int{99})
	require.Error(t, err)
}

func TestEqualityDeleteBuilderDedupesIdenticalRows(t *testing.T) {
	b, err := NewEqualityDeleteBuilder(equalitySchema(t), []int{1})
	require.NoError(t, err)

	require.NoError(t, b.Add(map[int]any{1: int64(5)}))
	require.NoError(t, b.Add(map[int]any{1: int64(5)}))
	require.NoError(t, b.Add(map[int]any{1: int64(6)}))

	out := b.Build()
	assert.Len(t, out, 2)
}

func TestEqualityDeleteBuilderRejectsMissingKey(t *testing.T) {
	b, err := NewEqualityDeleteBuilder(equalitySchema(t), []int{1, 2})
	require.NoError(t, err)
	err = b.Add(map[int]any{1: int64(5)})
	require.Error(t, err)
}

func TestCanonicalKeyOrderIndependent(t *testing.T) {
	a := CanonicalKey([]int{2, 1}, map[int]any{1: int64(1), 2: "x"})
	b := CanonicalKey([]int{1, 2}, map[int]any{2: "x", 1: int64(1)})
	assert.Equal(t, a, b)
}

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/manifest"
)

func testSchema(t *testing.T) *iceberg.Schema {
	t.Helper()
	s, err := iceberg.NewSchema(0,
		iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()},
	)
	require.NoError(t, err)
	return s
}

func TestBuilderBuildRequiresSchema(t *testing.T) {
	_, err := NewBuilder(2, "s3://bucket/table").Build()
	require.Error(t, err)
}

func TestBuilderAddSchemaAdvancesLastColumnID(t *testing.T) {
	schema := testSchema(t)
	meta, err := NewBuilder(2, "s3://bucket/table").
		AddSchema(schema).
		SetCurrentSchema(0).
		Build()
	require.NoError(t, err)
	assert.Equal(t, 1, meta.LastColumnID)
	cur, ok := meta.CurrentSchema()
	require.True(t, ok)
	assert.Equal(t, schema.ID, cur.ID)
}

func TestBuilderAddSnapshotUpdatesWatermarksAndRefs(t *testing.T) {
	schema := testSchema(t)
	b := NewBuilder(2, "s3://bucket/table").AddSchema(schema).SetCurrentSchema(0)

	bb, err := b.AddSnapshot(manifest.Snapshot{
		SnapshotID: 1, SequenceNumber: 1, TimestampMs: 1000, ManifestListPath: "metadata/snap-1.avro", SchemaID: 0,
	})
	require.NoError(t, err)

	meta, err := bb.Build()
	require.NoError(t, err)
	require.NotNil(t, meta.CurrentSnapshotID)
	assert.Equal(t, int64(1), *meta.CurrentSnapshotID)
	assert.Equal(t, int64(1), meta.LastSequenceNumber)
	assert.Len(t, meta.SnapshotLog, 1)
	assert.Equal(t, int64(1), meta.Refs["main"].SnapshotID)
}

func TestBuilderAddSnapshotRejectsNonIncreasingSequence(t *testing.T) {
	schema := testSchema(t)
	b := NewBuilder(2, "s3://bucket/table").AddSchema(schema).SetCurrentSchema(0)
	b, err := b.AddSnapshot(manifest.Snapshot{SnapshotID: 1, SequenceNumber: 5, TimestampMs: 1000, SchemaID: 0})
	require.NoError(t, err)

	_, err = b.AddSnapshot(manifest.Snapshot{SnapshotID: 2, SequenceNumber: 5, TimestampMs: 2000, SchemaID: 0})
	require.Error(t, err)
}

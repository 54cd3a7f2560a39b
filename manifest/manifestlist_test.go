package manifest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/avro"
)

func TestManifestListBuilderRoundTrip(t *testing.T) {
	added := int32(2)
	rows := int64(30)
	b := NewManifestListBuilder(avro.V2, zerolog.Nop())
	b.Add(ManifestFileMeta{
		ManifestPath:       "metadata/m1.avro",
		ManifestLength:     123,
		PartitionSpecID:    0,
		SequenceNumber:     1,
		MinSequenceNumber:  1,
		AddedSnapshotID:    42,
		AddedFilesCount:    &added,
		AddedRowsCount:     &rows,
		Partitions: []PartitionFieldSummary{
			{ContainsNull: false, LowerBound: []byte{1, 0, 0, 0}, UpperBound: []byte{10, 0, 0, 0}},
		},
	})

	data, err := b.Build()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	schema := avro.ManifestFileSchema(avro.V2)
	file, err := avro.ReadContainer(data, schema)
	require.NoError(t, err)
	require.Len(t, file.Records, 1)
}

func TestManifestListBuilderV3AddsFirstRowID(t *testing.T) {
	firstRow := int64(1000)
	b := NewManifestListBuilder(avro.V3, zerolog.Nop())
	b.Add(ManifestFileMeta{ManifestPath: "metadata/m1.avro", FirstRowID: &firstRow})

	data, err := b.Build()
	require.NoError(t, err)

	schema := avro.ManifestFileSchema(avro.V3)
	file, err := avro.ReadContainer(data, schema)
	require.NoError(t, err)
	require.Len(t, file.Records, 1)
}

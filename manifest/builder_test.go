package manifest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/iceberg"
)

func testSchema(t *testing.T) *iceberg.Schema {
	t.Helper()
	s, err := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()},
		iceberg.NestedField{ID: 2, Name: "event_date", Required: true, Type: iceberg.Date()},
	)
	require.NoError(t, err)
	return s
}

func testSpec(t *testing.T, schema *iceberg.Schema) *iceberg.PartitionSpec {
	t.Helper()
	spec, err := iceberg.NewPartitionSpec(0, schema, iceberg.PartitionField{
		SourceID: 2, FieldID: 1000, Name: "event_date_day", Transform: iceberg.Day(),
	})
	require.NoError(t, err)
	return spec
}

func dataFile(path string, recordCount int64, day int32) ManifestEntry {
	return ManifestEntry{
		Status: StatusAdded,
		DataFile: DataFile{
			Content:         ContentData,
			FilePath:        path,
			FileFormat:      FormatParquet,
			Partition:       map[string]any{"event_date_day": day},
			RecordCount:     recordCount,
			FileSizeInBytes: recordCount * 100,
			ValueCounts:     map[int]int64{1: recordCount},
			NullValueCounts: map[int]int64{1: 0},
		},
	}
}

func TestManifestBuilderRoundTrip(t *testing.T) {
	schema := testSchema(t)
	spec := testSpec(t, schema)

	b := NewManifestBuilder(schema, spec, avro.V2, ManifestContentData, zerolog.Nop())
	b.Add(dataFile("s3://bucket/data/f1.parquet", 10, 100))
	b.Add(dataFile("s3://bucket/data/f2.parquet", 20, 105))

	built, err := b.Build(5, 999)
	require.NoError(t, err)
	assert.NotEmpty(t, built.Bytes)
	assert.Contains(t, built.Path, "metadata/")
	assert.Equal(t, int32(2), *built.Meta.AddedFilesCount)
	assert.Equal(t, int64(30), *built.Meta.AddedRowsCount)
	require.Len(t, built.Meta.Partitions, 1)
	assert.False(t, built.Meta.Partitions[0].ContainsNull)

	partSchema, err := avro.PartitionSchema(schema, spec)
	require.NoError(t, err)
	entrySchema := avro.ManifestEntrySchema(partSchema, avro.V2)
	file, err := avro.ReadContainer(built.Bytes, entrySchema)
	require.NoError(t, err)
	assert.Len(t, file.Records, 2)
}

func TestManifestBuilderRejectsPartialDeletionVectorFields(t *testing.T) {
	schema := testSchema(t)
	spec := testSpec(t, schema)
	b := NewManifestBuilder(schema, spec, avro.V3, ManifestContentDeletes, zerolog.Nop())

	ref := "s3://bucket/data/f1.parquet"
	entry := dataFile("s3://bucket/deletes/d1.puffin", 1, 100)
	entry.DataFile.Content = ContentPositionDeletes
	entry.DataFile.ReferencedDataFile = &ref

	b.Add(entry)
	_, err := b.Build(1, 1)
	require.Error(t, err)
}

package manifest

import (
	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// ManifestListBuilder rolls up a snapshot's manifests into the
// manifest-list Avro file that a snapshot points to.
type ManifestListBuilder struct {
	version avro.FormatVersion
	rows    []ManifestFileMeta
	logger  zerolog.Logger
}

func NewManifestListBuilder(version avro.FormatVersion, logger zerolog.Logger) *ManifestListBuilder {
	return &ManifestListBuilder{version: version, logger: logger}
}

// Add queues one manifest-list row.
func (b *ManifestListBuilder) Add(meta ManifestFileMeta) {
	b.rows = append(b.rows, meta)
}

// Build renders the manifest-list's Avro bytes.
func (b *ManifestListBuilder) Build() ([]byte, error) {
	schema := avro.ManifestFileSchema(b.version)
	writer, err := avro.NewContainerWriter(schema)
	if err != nil {
		return nil, errors.New(errors.ManifestCode("list_writer_init_failed"), "failed to create manifest-list writer", err)
	}

	for _, row := range b.rows {
		writer.Append(rowToAvroValue(row, b.version))
	}

	data, err := writer.Bytes()
	if err != nil {
		return nil, errors.New(errors.ManifestCode("list_encode_failed"), "failed to encode manifest-list", err)
	}
	b.logger.Debug().Int("manifests", len(b.rows)).Msg("built manifest-list")
	return data, nil
}

func rowToAvroValue(m ManifestFileMeta, version avro.FormatVersion) map[string]any {
	partitions := make([]any, 0, len(m.Partitions))
	for _, p := range m.Partitions {
		partitions = append(partitions, map[string]any{
			"contains_null": p.ContainsNull,
			"contains_nan":  p.ContainsNaN,
			"lower_bound":   bytesOrNil(p.LowerBound),
			"upper_bound":   bytesOrNil(p.UpperBound),
		})
	}

	row := map[string]any{
		"manifest_path":         m.ManifestPath,
		"manifest_length":       m.ManifestLength,
		"partition_spec_id":     int64(m.PartitionSpecID),
		"content":               int64(m.Content),
		"sequence_number":       m.SequenceNumber,
		"min_sequence_number":   m.MinSequenceNumber,
		"added_snapshot_id":     m.AddedSnapshotID,
		"added_files_count":     int32PtrToAvro(m.AddedFilesCount),
		"existing_files_count":  int32PtrToAvro(m.ExistingFilesCount),
		"deleted_files_count":   int32PtrToAvro(m.DeletedFilesCount),
		"added_rows_count":      int64PtrToAvro(m.AddedRowsCount),
		"existing_rows_count":   int64PtrToAvro(m.ExistingRowsCount),
		"deleted_rows_count":    int64PtrToAvro(m.DeletedRowsCount),
		"key_metadata":          bytesOrNil(m.KeyMetadata),
	}
	if len(partitions) > 0 {
		row["partitions"] = partitions
	} else {
		row["partitions"] = nil
	}
	if version == avro.V3 {
		row["first_row_id"] = int64PtrToAvro(m.FirstRowID)
	}
	return row
}

func int32PtrToAvro(p *int32) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

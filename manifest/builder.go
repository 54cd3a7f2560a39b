package manifest

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// BuiltManifest is the output of ManifestBuilder.Build: the serialized
// Avro container, the manifest-list row summarizing it, and a freshly
// generated UUID-named path.
type BuiltManifest struct {
	Bytes []byte
	Meta  ManifestFileMeta
	Path  string
}

// ManifestBuilder accumulates manifest entries for one partition spec
// and one content class, then emits a complete manifest file.
type ManifestBuilder struct {
	schema  *iceberg.Schema
	spec    *iceberg.PartitionSpec
	version avro.FormatVersion
	content ManifestContent
	entries []ManifestEntry
	logger  zerolog.Logger
}

func NewManifestBuilder(schema *iceberg.Schema, spec *iceberg.PartitionSpec, version avro.FormatVersion, content ManifestContent, logger zerolog.Logger) *ManifestBuilder {
	return &ManifestBuilder{schema: schema, spec: spec, version: version, content: content, logger: logger}
}

// Add queues one manifest entry.
func (b *ManifestBuilder) Add(entry ManifestEntry) {
	b.entries = append(b.entries, entry)
}

// Build renders the manifest's Avro bytes, computes the manifest-list
// summary row, and assigns a fresh UUID-named path.
func (b *ManifestBuilder) Build(sequenceNumber, snapshotID int64) (*BuiltManifest, error) {
	partSchema, err := avro.PartitionSchema(b.schema, b.spec)
	if err != nil {
		return nil, errors.New(errors.ManifestCode("partition_schema_failed"), "failed to build partition schema", err)
	}
	entrySchema := avro.ManifestEntrySchema(partSchema, b.version)

	writer, err := avro.NewContainerWriter(entrySchema)
	if err != nil {
		return nil, errors.New(errors.ManifestCode("writer_init_failed"), "failed to create manifest writer", err)
	}
	writer.SetMeta("partition-spec-id", fmt.Sprint(b.spec.ID))
	writer.SetMeta("format-version", fmt.Sprint(int(b.version)))
	writer.SetMeta("content", contentString(b.content))

	for i, e := range b.entries {
		value, err := entryToAvroValue(e, b.spec, b.version)
		if err != nil {
			return nil, errors.AddContext(err, "entry_index", i)
		}
		writer.Append(value)
	}

	data, err := writer.Bytes()
	if err != nil {
		return nil, errors.New(errors.ManifestCode("encode_failed"), "failed to encode manifest", err)
	}

	meta, err := summarize(b.entries, b.spec, b.schema, b.content, sequenceNumber, snapshotID, len(data))
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("metadata/%s.avro", uuid.NewString())
	meta.ManifestPath = path
	b.logger.Debug().Str("path", path).Int("entries", len(b.entries)).Msg("built manifest")

	return &BuiltManifest{Bytes: data, Meta: meta, Path: path}, nil
}

func contentString(c ManifestContent) string {
	if c == ManifestContentDeletes {
		return "deletes"
	}
	return "data"
}

func entryToAvroValue(e ManifestEntry, spec *iceberg.PartitionSpec, version avro.FormatVersion) (map[string]any, error) {
	df := e.DataFile
	dataFile := map[string]any{
		"content":             int64(df.Content),
		"file_path":           df.FilePath,
		"file_format":         string(df.FileFormat),
		"partition":           df.Partition,
		"record_count":        df.RecordCount,
		"file_size_in_bytes":  df.FileSizeInBytes,
		"column_sizes":        intMapToAvro(df.ColumnSizes),
		"value_counts":        intMapToAvro(df.ValueCounts),
		"null_value_counts":   intMapToAvro(df.NullValueCounts),
		"nan_value_counts":    intMapToAvro(df.NanValueCounts),
		"lower_bounds":        bytesMapToAvro(df.LowerBounds),
		"upper_bounds":        bytesMapToAvro(df.UpperBounds),
		"key_metadata":        bytesOrNil(df.KeyMetadata),
		"split_offsets":       int64SliceToAvro(df.SplitOffsets),
		"equality_ids":        intSliceToAvro(df.EqualityIDs),
		"sort_order_id":       intPtrToAvro(df.SortOrderID),
	}
	if version == avro.V3 {
		dataFile["first_row_id"] = int64PtrToAvro(df.FirstRowID)
		dataFile["referenced_data_file"] = stringPtrToAvro(df.ReferencedDataFile)
		dataFile["content_offset"] = int64PtrToAvro(df.ContentOffset)
		dataFile["content_size_in_bytes"] = int64PtrToAvro(df.ContentSizeInBytes)
		if (df.ReferencedDataFile != nil || df.ContentOffset != nil || df.ContentSizeInBytes != nil) &&
			(df.ReferencedDataFile == nil || df.ContentOffset == nil || df.ContentSizeInBytes == nil) {
			return nil, errors.InvalidInput("deletion-vector fields referenced_data_file/content_offset/content_size_in_bytes must all be present together")
		}
	}

	return map[string]any{
		"status":               int64(e.Status),
		"snapshot_id":          int64PtrToAvro(e.SnapshotID),
		"sequence_number":      int64PtrToAvro(e.SequenceNumber),
		"file_sequence_number": int64PtrToAvro(e.FileSequenceNumber),
		"data_file":            dataFile,
	}, nil
}

func intMapToAvro(m map[int]int64) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func bytesMapToAvro(m map[int][]byte) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func int64SliceToAvro(s []int64) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func intSliceToAvro(s []int) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = int64(v)
	}
	return out
}

func bytesOrNil(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func intPtrToAvro(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func int64PtrToAvro(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtrToAvro(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

package avro

import (
	"fmt"

	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// FormatVersion selects which optional fields a manifest schema carries.
type FormatVersion int

const (
	V2 FormatVersion = 2
	V3 FormatVersion = 3
)

// PartitionSchema builds the per-spec partition struct type: one field
// per partition field, named after the partition field and typed by its
// source column's Iceberg type, field-id-annotated with the partition
// field's own id (not the source column's id).
func PartitionSchema(schema *iceberg.Schema, spec *iceberg.PartitionSpec) (*Schema, error) {
	fields := make([]Field, 0, len(spec.Fields))
	for _, pf := range spec.Fields {
		srcField, ok := schema.FindByID(pf.SourceID)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("partition field %q: source-id %d not in schema", pf.Name, pf.SourceID))
		}
		resultType := partitionResultType(srcField.Type, pf.Transform)
		avroType, err := iceType(resultType)
		if err != nil {
			return nil, errors.AddContext(err, "partition_field", pf.Name)
		}
		fields = append(fields, F(pf.Name, pf.FieldID, Nullable(avroType)))
	}
	return Record("r102", fields...), nil
}

// partitionResultType narrows a source column's type to what a given
// transform produces: bucket/year/month/day/hour always produce an
// int32 (identity, truncate and void keep the source type).
func partitionResultType(source iceberg.Type, t iceberg.Transform) iceberg.Type {
	switch t.Kind {
	case iceberg.TransformIdentity, iceberg.TransformTruncate, iceberg.TransformVoid:
		return source
	case iceberg.TransformBucket, iceberg.TransformYear, iceberg.TransformMonth, iceberg.TransformDay, iceberg.TransformHour:
		return iceberg.Int32()
	default:
		return source
	}
}

// iceType maps an Iceberg logical type onto its Avro wire representation.
func iceType(t iceberg.Type) (*Schema, error) {
	switch t.Kind {
	case iceberg.KindBoolean:
		return Boolean(), nil
	case iceberg.KindInt, iceberg.KindDate:
		return Int(), nil
	case iceberg.KindLong, iceberg.KindTime, iceberg.KindTimestamp, iceberg.KindTimestampTz,
		iceberg.KindTimestampNs, iceberg.KindTimestampTzNs:
		return Long(), nil
	case iceberg.KindFloat:
		return Float(), nil
	case iceberg.KindDouble:
		return Double(), nil
	case iceberg.KindDecimal:
		return Fixed(fmt.Sprintf("decimal_%d_%d", t.Precision, t.Scale), decimalWidth(t.Precision)), nil
	case iceberg.KindString, iceberg.KindGeometry, iceberg.KindGeography, iceberg.KindVariant, iceberg.KindUnknown:
		return String(), nil
	case iceberg.KindUUID:
		return Fixed("uuid_fixed", 16), nil
	case iceberg.KindFixed:
		return Fixed(fmt.Sprintf("fixed_%d", t.Length), t.Length), nil
	case iceberg.KindBinary:
		return Bytes(), nil
	case iceberg.KindList:
		elemType, err := iceType(*t.Element)
		if err != nil {
			return nil, err
		}
		if !t.ElementRequired {
			elemType = Nullable(elemType)
		}
		return Array(elemType), nil
	case iceberg.KindMap:
		valType, err := iceType(*t.MapValue)
		if err != nil {
			return nil, err
		}
		if !t.ValueRequired {
			valType = Nullable(valType)
		}
		return Map(valType), nil
	case iceberg.KindStruct:
		fields := make([]Field, 0, len(t.Fields))
		for _, nf := range t.Fields {
			inner, err := iceType(nf.Type)
			if err != nil {
				return nil, err
			}
			if !nf.Required {
				inner = Nullable(inner)
			}
			fields = append(fields, F(nf.Name, nf.ID, inner))
		}
		return Record(fmt.Sprintf("r%d_struct", len(fields)), fields...), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("no Avro representation for type %q", t.String()))
	}
}

func decimalWidth(precision int) int {
	// minimum byte width holding precision decimal digits in two's
	// complement for precisions up to 28; any wider precision uses 16
	// bytes.
	switch {
	case precision <= 2:
		return 1
	case precision <= 4:
		return 2
	case precision <= 6:
		return 3
	case precision <= 9:
		return 4
	case precision <= 11:
		return 5
	case precision <= 14:
		return 6
	case precision <= 16:
		return 7
	case precision <= 18:
		return 8
	case precision <= 21:
		return 9
	case precision <= 23:
		return 10
	case precision <= 26:
		return 11
	case precision <= 28:
		return 12
	default:
		return 16
	}
}

// ManifestEntrySchema builds the manifest_entry record schema: the
// wrapper fields plus a nested data_file record, parameterized by the
// partition struct schema for the spec the manifest was written under
// and the format version (v3 adds first_row_id/referenced_data_file/
// content_offset/content_size_in_bytes to data_file).
func ManifestEntrySchema(partitionSchema *Schema, version FormatVersion) *Schema {
	dataFileFields := []Field{
		F("content", 134, Int()),
		F("file_path", 100, String()),
		F("file_format", 101, String()),
		F("partition", 102, partitionSchema),
		F("record_count", 103, Long()),
		F("file_size_in_bytes", 104, Long()),
		F("column_sizes", 108, Nullable(Map(Long()))),
		F("value_counts", 109, Nullable(Map(Long()))),
		F("null_value_counts", 110, Nullable(Map(Long()))),
		F("nan_value_counts", 137, Nullable(Map(Long()))),
		F("lower_bounds", 125, Nullable(Map(Bytes()))),
		F("upper_bounds", 128, Nullable(Map(Bytes()))),
		F("key_metadata", 131, Nullable(Bytes())),
		F("split_offsets", 132, Nullable(Array(Long()))),
		F("equality_ids", 135, Nullable(Array(Int()))),
		F("sort_order_id", 140, Nullable(Int())),
	}
	if version == V3 {
		dataFileFields = append(dataFileFields,
			F("first_row_id", 142, Nullable(Long())),
			F("referenced_data_file", 143, Nullable(String())),
			F("content_offset", 144, Nullable(Long())),
			F("content_size_in_bytes", 145, Nullable(Long())),
		)
	}
	dataFile := Record("r2", dataFileFields...)

	return Record("manifest_entry",
		F("status", 0, Int()),
		F("snapshot_id", 1, Nullable(Long())),
		F("sequence_number", 3, Nullable(Long())),
		F("file_sequence_number", 4, Nullable(Long())),
		F("data_file", 2, dataFile),
	)
}

// ManifestFileSchema builds the manifest-list row schema: one entry per
// manifest in the snapshot, v3 adding field 519 first_row_id.
func ManifestFileSchema(version FormatVersion) *Schema {
	fields := []Field{
		F("manifest_path", 500, String()),
		F("manifest_length", 501, Long()),
		F("partition_spec_id", 502, Int()),
		F("content", 517, Int()),
		F("sequence_number", 515, Long()),
		F("min_sequence_number", 516, Long()),
		F("added_snapshot_id", 503, Long()),
		F("added_files_count", 504, Nullable(Int())),
		F("existing_files_count", 505, Nullable(Int())),
		F("deleted_files_count", 506, Nullable(Int())),
		F("added_rows_count", 512, Nullable(Long())),
		F("existing_rows_count", 513, Nullable(Long())),
		F("deleted_rows_count", 514, Nullable(Long())),
		F("partitions", 507, Nullable(Array(partitionFieldSummarySchema()))),
	}
	if version == V3 {
		fields = append(fields, F("first_row_id", 519, Nullable(Long())))
	}
	fields = append(fields, F("key_metadata", 520, Nullable(Bytes())))
	return Record("manifest_file", fields...)
}

// BoundKindForType maps an Iceberg logical type onto the BoundKind used
// to canonically encode its values for manifest statistics and
// partition-value summaries.
func BoundKindForType(t iceberg.Type) (BoundKind, error) {
	switch t.Kind {
	case iceberg.KindBoolean:
		return BoundBoolean, nil
	case iceberg.KindInt, iceberg.KindDate:
		return BoundInt32, nil
	case iceberg.KindLong, iceberg.KindTime, iceberg.KindTimestamp, iceberg.KindTimestampTz,
		iceberg.KindTimestampNs, iceberg.KindTimestampTzNs:
		return BoundInt64, nil
	case iceberg.KindFloat:
		return BoundFloat32, nil
	case iceberg.KindDouble:
		return BoundFloat64, nil
	case iceberg.KindDecimal:
		return BoundDecimal, nil
	case iceberg.KindString, iceberg.KindUUID, iceberg.KindGeometry, iceberg.KindGeography,
		iceberg.KindVariant, iceberg.KindUnknown:
		return BoundString, nil
	case iceberg.KindFixed, iceberg.KindBinary:
		return BoundFixedOrBinary, nil
	default:
		return 0, errors.InvalidInput(fmt.Sprintf("no bound kind for type %q", t.String()))
	}
}

func partitionFieldSummarySchema() *Schema {
	return Record("r508",
		F("contains_null", 509, Boolean()),
		F("contains_nan", 518, Nullable(Boolean())),
		F("lower_bound", 510, Nullable(Bytes())),
		F("upper_bound", 511, Nullable(Bytes())),
	)
}

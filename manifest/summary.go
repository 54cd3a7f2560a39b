package manifest

import (
	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// summarize tallies a manifest's entries into the manifest-list row that
// will describe it: file/row counts bucketed by EntryStatus, and one
// PartitionFieldSummary per partition field formed by widening every
// entry's partition value with the same bound comparator the statistics
// layer uses.
func summarize(entries []ManifestEntry, spec *iceberg.PartitionSpec, schema *iceberg.Schema, content ManifestContent, sequenceNumber, snapshotID int64, manifestLength int) (ManifestFileMeta, error) {
	meta := ManifestFileMeta{
		PartitionSpecID:   spec.ID,
		Content:           content,
		SequenceNumber:    sequenceNumber,
		AddedSnapshotID:   snapshotID,
		ManifestLength:    int64(manifestLength),
		MinSequenceNumber: sequenceNumber,
	}

	var added, existing, deleted int32
	var addedRows, existingRows, deletedRows int64
	minSeq := sequenceNumber

	for _, e := range entries {
		switch e.Status {
		case StatusAdded:
			added++
			addedRows += e.DataFile.RecordCount
		case StatusExisting:
			existing++
			existingRows += e.DataFile.RecordCount
		case StatusDeleted:
			deleted++
			deletedRows += e.DataFile.RecordCount
		}
		if e.SequenceNumber != nil && *e.SequenceNumber < minSeq {
			minSeq = *e.SequenceNumber
		}
	}
	meta.AddedFilesCount = &added
	meta.ExistingFilesCount = &existing
	meta.DeletedFilesCount = &deleted
	meta.AddedRowsCount = &addedRows
	meta.ExistingRowsCount = &existingRows
	meta.DeletedRowsCount = &deletedRows
	meta.MinSequenceNumber = minSeq

	summaries, err := partitionSummaries(entries, spec, schema)
	if err != nil {
		return ManifestFileMeta{}, err
	}
	meta.Partitions = summaries

	return meta, nil
}

func partitionSummaries(entries []ManifestEntry, spec *iceberg.PartitionSpec, schema *iceberg.Schema) ([]PartitionFieldSummary, error) {
	if len(spec.Fields) == 0 {
		return nil, nil
	}

	kinds := make([]avro.BoundKind, len(spec.Fields))
	for i, pf := range spec.Fields {
		srcField, ok := schema.FindByID(pf.SourceID)
		if !ok {
			return nil, errors.InvalidInput("partition field source column not found in schema")
		}
		resultType := partitionResultTypeFor(srcField.Type, pf.Transform)
		kind, err := avro.BoundKindForType(resultType)
		if err != nil {
			return nil, errors.AddContext(err, "partition_field", pf.Name)
		}
		kinds[i] = kind
	}

	summaries := make([]PartitionFieldSummary, len(spec.Fields))
	for i, pf := range spec.Fields {
		s := PartitionFieldSummary{}
		for _, e := range entries {
			if e.Status == StatusDeleted {
				continue
			}
			v, ok := e.DataFile.Partition[pf.Name]
			if !ok || v == nil {
				s.ContainsNull = true
				continue
			}
			encoded, err := avro.EncodeBound(kinds[i], v)
			if err != nil {
				return nil, errors.AddContext(err, "partition_field", pf.Name)
			}
			if isNaNValue(v) {
				s.ContainsNaN = true
			}
			if s.LowerBound == nil {
				s.LowerBound = encoded
				s.UpperBound = encoded
				continue
			}
			cmpLower, err := avro.CompareBounds(kinds[i], encoded, s.LowerBound)
			if err != nil {
				return nil, err
			}
			if cmpLower < 0 {
				s.LowerBound = encoded
			}
			cmpUpper, err := avro.CompareBounds(kinds[i], encoded, s.UpperBound)
			if err != nil {
				return nil, err
			}
			if cmpUpper > 0 {
				s.UpperBound = encoded
			}
		}
		summaries[i] = s
	}
	return summaries, nil
}

func isNaNValue(v any) bool {
	switch n := v.(type) {
	case float32:
		return n != n
	case float64:
		return n != n
	default:
		return false
	}
}

// partitionResultTypeFor mirrors avro.partitionResultType without the
// Avro package's internal visibility: the set of transforms that
// collapse a source column's type to int32 is small and fixed, so the
// logic is duplicated rather than exported across a package boundary.
func partitionResultTypeFor(source iceberg.Type, t iceberg.Transform) iceberg.Type {
	switch t.Kind {
	case iceberg.TransformIdentity, iceberg.TransformTruncate, iceberg.TransformVoid:
		return source
	case iceberg.TransformBucket, iceberg.TransformYear, iceberg.TransformMonth, iceberg.TransformDay, iceberg.TransformHour:
		return iceberg.Int32()
	default:
		return source
	}
}

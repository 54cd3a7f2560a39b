// Package metadata implements the table metadata document: the builder
// and mutators that produce each new metadata version, and the
// canonical JSON serialization every commit writes to storage.
package metadata

import (
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/manifest"
)

// SnapshotLogEntry records when "main" pointed at a given snapshot.
type SnapshotLogEntry struct {
	TimestampMs int64
	SnapshotID  int64
}

// MetadataLogEntry records a prior metadata file's location, so readers
// mid-flight against an older version can still be served.
type MetadataLogEntry struct {
	TimestampMs int64
	Path        string
}

// TableMetadata is the complete, versioned description of a table: its
// schema history, partitioning and sort-order history, property bag,
// and full snapshot lineage.
type TableMetadata struct {
	FormatVersion int
	TableUUID     string
	Location      string

	LastSequenceNumber int64
	LastUpdatedMs      int64
	LastColumnID       int

	Schemas         []*iceberg.Schema
	CurrentSchemaID int

	PartitionSpecs   []*iceberg.PartitionSpec
	DefaultSpecID    int
	LastPartitionID  int

	SortOrders         []*iceberg.SortOrder
	DefaultSortOrderID int

	Properties map[string]string

	CurrentSnapshotID *int64
	Snapshots         []manifest.Snapshot
	SnapshotLog       []SnapshotLogEntry
	MetadataLog       []MetadataLogEntry

	Refs map[string]manifest.SnapshotRef
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (m *TableMetadata) CurrentSchema() (*iceberg.Schema, bool) {
	for _, s := range m.Schemas {
		if s.ID == m.CurrentSchemaID {
			return s, true
		}
	}
	return nil, false
}

// CurrentSpec returns the partition spec named by DefaultSpecID.
func (m *TableMetadata) CurrentSpec() (*iceberg.PartitionSpec, bool) {
	for _, s := range m.PartitionSpecs {
		if s.ID == m.DefaultSpecID {
			return s, true
		}
	}
	return nil, false
}

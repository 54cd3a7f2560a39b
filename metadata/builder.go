package metadata

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/icelake-io/iceberg-engine/evolution"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/manifest"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Builder mutates a TableMetadata in place across one commit's worth of
// changes, mirroring the side effects Iceberg requires for each update
// type (e.g. adding a snapshot also updates the snapshot log and
// last-sequence-number watermark).
type Builder struct {
	meta *TableMetadata
}

// NewBuilder starts a fresh table at format version, with an empty
// schema/spec/sort-order history and a freshly generated table UUID.
func NewBuilder(formatVersion int, location string) *Builder {
	return &Builder{meta: &TableMetadata{
		FormatVersion:      formatVersion,
		TableUUID:          uuid.NewString(),
		Location:           location,
		LastSequenceNumber: 0,
		Properties:         map[string]string{},
		Refs:               map[string]manifest.SnapshotRef{},
	}}
}

// FromBase continues mutating an already-built TableMetadata (the
// normal case: every commit after table creation starts from the
// previous version's metadata).
func FromBase(base *TableMetadata) *Builder {
	return &Builder{meta: base}
}

func (b *Builder) Build() (*TableMetadata, error) {
	if len(b.meta.Schemas) == 0 {
		return nil, errors.InvalidInput("table metadata must have at least one schema")
	}
	if _, ok := b.meta.CurrentSchema(); !ok {
		return nil, errors.InvalidInput("current-schema-id does not name a known schema")
	}
	return b.meta, nil
}

// AddSchema appends a new schema version and advances last-column-id to
// at least the schema's own maximum field-id.
func (b *Builder) AddSchema(schema *iceberg.Schema) *Builder {
	b.meta.Schemas = append(b.meta.Schemas, schema)
	if max := iceberg.FindMaxFieldID(schema.Fields); max > b.meta.LastColumnID {
		b.meta.LastColumnID = max
	}
	return b
}

// AddEvolvedSchema builds evo — queued against the schema it was
// constructed from — and appends the result as a new schema version,
// the path every commit_table schema change takes instead of appending
// a hand-built schema directly. Last-column-id advances to at least the
// evolution's own watermark, which only moves forward even across
// column drops.
func (b *Builder) AddEvolvedSchema(evo *evolution.Builder) (*Builder, error) {
	result, err := evo.Build()
	if err != nil {
		return nil, err
	}
	b.meta.Schemas = append(b.meta.Schemas, result.Schema)
	if result.LastColumnID > b.meta.LastColumnID {
		b.meta.LastColumnID = result.LastColumnID
	}
	return b, nil
}

// SetCurrentSchema points current-schema-id at an already-added schema.
func (b *Builder) SetCurrentSchema(schemaID int) *Builder {
	b.meta.CurrentSchemaID = schemaID
	return b
}

func (b *Builder) AddPartitionSpec(spec *iceberg.PartitionSpec, setDefault bool) *Builder {
	b.meta.PartitionSpecs = append(b.meta.PartitionSpecs, spec)
	for _, f := range spec.Fields {
		if f.FieldID > b.meta.LastPartitionID {
			b.meta.LastPartitionID = f.FieldID
		}
	}
	if setDefault {
		b.meta.DefaultSpecID = spec.ID
	}
	return b
}

func (b *Builder) AddSortOrder(order *iceberg.SortOrder, setDefault bool) *Builder {
	b.meta.SortOrders = append(b.meta.SortOrders, order)
	if setDefault {
		b.meta.DefaultSortOrderID = order.ID
	}
	return b
}

// SetDefaultSpecID points default-spec-id at an already-added spec,
// without adding a new one — the "set-default-spec" update in the
// commit_table algebra, distinct from "add-spec".
func (b *Builder) SetDefaultSpecID(specID int) (*Builder, error) {
	for _, s := range b.meta.PartitionSpecs {
		if s.ID == specID {
			b.meta.DefaultSpecID = specID
			return b, nil
		}
	}
	return nil, errors.NotFound("cannot set default-spec-id to an unknown partition spec")
}

// SetDefaultSortOrderID points default-sort-order-id at an
// already-added sort order.
func (b *Builder) SetDefaultSortOrderID(orderID int) (*Builder, error) {
	if orderID == iceberg.UnsortedOrderID {
		b.meta.DefaultSortOrderID = orderID
		return b, nil
	}
	for _, s := range b.meta.SortOrders {
		if s.ID == orderID {
			b.meta.DefaultSortOrderID = orderID
			return b, nil
		}
	}
	return nil, errors.NotFound("cannot set default-sort-order-id to an unknown sort order")
}

// SetLocation updates the table's root location.
func (b *Builder) SetLocation(location string) *Builder {
	b.meta.Location = location
	return b
}

// SetProperties merges updates into the property bag.
func (b *Builder) SetProperties(updates map[string]string) *Builder {
	for k, v := range updates {
		b.meta.Properties[k] = v
	}
	return b
}

// RemoveProperties deletes keys from the property bag; removing a key
// that isn't set is a no-op.
func (b *Builder) RemoveProperties(keys ...string) *Builder {
	for _, k := range keys {
		delete(b.meta.Properties, k)
	}
	return b
}

// AddSnapshot records a new snapshot, advances last-sequence-number and
// current-snapshot-id, and appends to the snapshot log — the full set
// of side effects a single "add-snapshot" update carries in a real commit.
func (b *Builder) AddSnapshot(s manifest.Snapshot) (*Builder, error) {
	if s.SequenceNumber <= b.meta.LastSequenceNumber && len(b.meta.Snapshots) > 0 {
		return nil, errors.Conflict(fmt.Sprintf(
			"snapshot sequence-number %d does not advance past last-sequence-number %d", s.SequenceNumber, b.meta.LastSequenceNumber))
	}
	b.meta.Snapshots = append(b.meta.Snapshots, s)
	if s.SequenceNumber > b.meta.LastSequenceNumber {
		b.meta.LastSequenceNumber = s.SequenceNumber
	}
	id := s.SnapshotID
	b.meta.CurrentSnapshotID = &id
	b.meta.LastUpdatedMs = s.TimestampMs
	b.meta.SnapshotLog = append(b.meta.SnapshotLog, SnapshotLogEntry{TimestampMs: s.TimestampMs, SnapshotID: s.SnapshotID})
	b.meta.Refs["main"] = manifest.SnapshotRef{Name: "main", Type: manifest.RefBranch, SnapshotID: s.SnapshotID}
	return b, nil
}

// SetSnapshotRef points name at an existing snapshot id.
func (b *Builder) SetSnapshotRef(name string, snapshotID int64, refType manifest.RefType) (*Builder, error) {
	found := false
	for _, s := range b.meta.Snapshots {
		if s.SnapshotID == snapshotID {
			found = true
			break
		}
	}
	if !found {
		return nil, errors.NotFound("cannot set ref to unknown snapshot id")
	}
	b.meta.Refs[name] = manifest.SnapshotRef{Name: name, Type: refType, SnapshotID: snapshotID}
	if name == "main" {
		id := snapshotID
		b.meta.CurrentSnapshotID = &id
	}
	return b, nil
}

// RemoveSnapshots drops snapshots by id from history. A ref still
// pointing at a removed id is left as-is — callers issue a matching
// remove-snapshot-ref update for that case.
func (b *Builder) RemoveSnapshots(ids []int64) *Builder {
	if len(ids) == 0 {
		return b
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := b.meta.Snapshots[:0]
	for _, s := range b.meta.Snapshots {
		if !drop[s.SnapshotID] {
			kept = append(kept, s)
		}
	}
	b.meta.Snapshots = kept
	return b
}

// RemoveSnapshotRef deletes a named ref, clearing current-snapshot-id
// if it was "main".
func (b *Builder) RemoveSnapshotRef(name string) *Builder {
	delete(b.meta.Refs, name)
	if name == "main" {
		b.meta.CurrentSnapshotID = nil
	}
	return b
}

// AddMetadataLogEntry records the path the metadata file held
// immediately before this commit, so the previous version stays
// discoverable to a reader racing the commit.
func (b *Builder) AddMetadataLogEntry(timestampMs int64, path string) *Builder {
	b.meta.MetadataLog = append(b.meta.MetadataLog, MetadataLogEntry{TimestampMs: timestampMs, Path: path})
	return b
}

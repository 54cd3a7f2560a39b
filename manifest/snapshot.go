package manifest

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// SnapshotBuilder assembles one Snapshot from a manifest-list build and
// the running counters a commit accumulates while it plans a change.
type SnapshotBuilder struct {
	parentID       *int64
	sequenceNumber int64
	timestampMs    int64
	manifestList   string
	operation      SnapshotOperation
	schemaID       int
	summary        SnapshotSummary
	firstRowID     *int64
	addedRows      *int64
}

func NewSnapshotBuilder(sequenceNumber, timestampMs int64, manifestListPath string, operation SnapshotOperation, schemaID int) *SnapshotBuilder {
	return &SnapshotBuilder{
		sequenceNumber: sequenceNumber,
		timestampMs:    timestampMs,
		manifestList:   manifestListPath,
		operation:      operation,
		schemaID:       schemaID,
		summary:        SnapshotSummary{Operation: operation},
	}
}

func (b *SnapshotBuilder) WithParent(id int64) *SnapshotBuilder {
	b.parentID = &id
	return b
}

func (b *SnapshotBuilder) WithSummary(s SnapshotSummary) *SnapshotBuilder {
	s.Operation = b.operation
	b.summary = s
	return b
}

func (b *SnapshotBuilder) WithRowLineage(firstRowID, addedRows int64) *SnapshotBuilder {
	b.firstRowID = &firstRowID
	b.addedRows = &addedRows
	return b
}

// Build assigns a fresh random snapshot id and returns the completed
// Snapshot. Iceberg only requires snapshot ids to be unique within a
// table's history, so a random 63-bit positive value is sufficient
// without a central allocator.
func (b *SnapshotBuilder) Build() (Snapshot, error) {
	id, err := randomSnapshotID()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		SnapshotID:       id,
		ParentSnapshotID: b.parentID,
		SequenceNumber:   b.sequenceNumber,
		TimestampMs:      b.timestampMs,
		ManifestListPath: b.manifestList,
		Summary:          b.summary,
		SchemaID:         b.schemaID,
		FirstRowID:       b.firstRowID,
		AddedRows:        b.addedRows,
	}, nil
}

func randomSnapshotID() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, errors.New(errors.ManifestCode("snapshot_id_generation_failed"), "failed to generate snapshot id", err)
	}
	id := int64(binary.BigEndian.Uint64(buf[:]) & math.MaxInt64)
	if id == 0 {
		id = 1
	}
	return id, nil
}

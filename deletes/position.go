// Package deletes implements the row-level delete engine: position
// deletes, equality deletes, their application order against a data
// file's sequence number, and the merge/compaction primitive that keeps
// delete files from fragmenting without bound.
package deletes

import (
	"sort"

	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Reserved field-ids for the fixed position-delete schema; these never
// collide with a table's data field-ids because they sit at the top of
// the int32 range, far above any id a real column uses.
const (
	PositionDeleteFilePathFieldID = 2147483546
	PositionDeletePosFieldID      = 2147483545
)

// PositionDeleteSchema is the fixed {file_path, pos} record every
// position-delete file shares, independent of the table schema.
func PositionDeleteSchema() *avro.Schema {
	return avro.Record("position_delete",
		avro.F("file_path", PositionDeleteFilePathFieldID, avro.String()),
		avro.F("pos", PositionDeletePosFieldID, avro.Long()),
	)
}

// PositionDelete marks one row dead by its file and ordinal position
// within that file.
type PositionDelete struct {
	FilePath string
	Position int64
}

// PositionDeleteBuilder accumulates position deletes for one delete
// file, producing them sorted by (file_path, pos) as the format requires.
type PositionDeleteBuilder struct {
	entries []PositionDelete
}

func NewPositionDeleteBuilder() *PositionDeleteBuilder {
	return &PositionDeleteBuilder{}
}

// Add queues one deleted position. Negative positions are rejected: a
// position identifies a row's ordinal offset within a file and cannot
// be negative.
func (b *PositionDeleteBuilder) Add(filePath string, position int64) error {
	if position < 0 {
		return errors.InvalidInput("position-delete: position cannot be negative")
	}
	b.entries = append(b.entries, PositionDelete{FilePath: filePath, Position: position})
	return nil
}

// Build returns the accumulated deletes sorted by (file_path, pos).
func (b *PositionDeleteBuilder) Build() []PositionDelete {
	out := make([]PositionDelete, len(b.entries))
	copy(out, b.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].Position < out[j].Position
	})
	return out
}

// ToAvroValues converts a built, sorted list into the generic
// map[string]any shape the Avro encoder expects, one per record.
func ToAvroValues(deletes []PositionDelete) []map[string]any {
	out := make([]map[string]any, len(deletes))
	for i, d := range deletes {
		out[i] = map[string]any{"file_path": d.FilePath, "pos": d.Position}
	}
	return out
}

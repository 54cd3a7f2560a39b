package deletes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// EqualityDelete is one row of equal-values-match-and-die: Values is
// keyed by the schema field-ids named in the delete file's equality-ids.
type EqualityDelete struct {
	Values map[int]any
}

// EqualityDeleteBuilder accumulates equality deletes for one delete
// file, resolving each one's keys against the table schema's equality
// field-ids before accepting it.
type EqualityDeleteBuilder struct {
	schema      *iceberg.Schema
	equalityIDs []int
	entries     []EqualityDelete
	seen        map[string]bool
}

func NewEqualityDeleteBuilder(schema *iceberg.Schema, equalityIDs []int) (*EqualityDeleteBuilder, error) {
	if len(equalityIDs) == 0 {
		return nil, errors.InvalidInput("equality delete: at least one equality-id is required")
	}
	for _, id := range equalityIDs {
		if _, ok := schema.FindByID(id); !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("equality delete: field-id %d not found in schema", id))
		}
	}
	return &EqualityDeleteBuilder{schema: schema, equalityIDs: equalityIDs, seen: map[string]bool{}}, nil
}

// Add queues one equality delete row. values must carry exactly the
// builder's equality-ids; duplicate rows (same key set, same values)
// collapse to a single entry.
func (b *EqualityDeleteBuilder) Add(values map[int]any) error {
	for _, id := range b.equalityIDs {
		if _, ok := values[id]; !ok {
			return errors.InvalidInput(fmt.Sprintf("equality delete: missing value for equality-id %d", id))
		}
	}
	if len(values) != len(b.equalityIDs) {
		return errors.InvalidInput("equality delete: values must contain exactly the declared equality-ids")
	}
	key := CanonicalKey(b.equalityIDs, values)
	if b.seen[key] {
		return nil
	}
	b.seen[key] = true
	b.entries = append(b.entries, EqualityDelete{Values: values})
	return nil
}

func (b *EqualityDeleteBuilder) Build() []EqualityDelete {
	out := make([]EqualityDelete, len(b.entries))
	copy(out, b.entries)
	return out
}

// CanonicalKey renders an equality delete's key columns into a
// deterministic string, used to dedupe identical delete rows
// independent of map iteration order.
func CanonicalKey(equalityIDs []int, values map[int]any) string {
	ids := make([]int, len(equalityIDs))
	copy(ids, equalityIDs)
	sort.Ints(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		fmt.Fprintf(&b, "%d=%v", id, values[id])
	}
	return b.String()
}

package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icelake-io/iceberg-engine/iceberg"
)

// JSON renders the metadata document in the same hand-rolled,
// key-ordered style as the schema/type encoders: deterministic output
// makes metadata files byte-comparable across identical commits, which
// a map-driven encoding/json pass cannot guarantee for the properties
// and refs bags.
func (m *TableMetadata) JSON() string {
	var b strings.Builder
	b.WriteString("{")
	fmt.Fprintf(&b, `"format-version":%d,`, m.FormatVersion)
	fmt.Fprintf(&b, `"table-uuid":%q,`, m.TableUUID)
	fmt.Fprintf(&b, `"location":%q,`, m.Location)
	fmt.Fprintf(&b, `"last-sequence-number":%d,`, m.LastSequenceNumber)
	fmt.Fprintf(&b, `"last-updated-ms":%d,`, m.LastUpdatedMs)
	fmt.Fprintf(&b, `"last-column-id":%d,`, m.LastColumnID)

	b.WriteString(`"schemas":[`)
	for i, s := range m.Schemas {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(s.JSON())
	}
	b.WriteString("],")
	fmt.Fprintf(&b, `"current-schema-id":%d,`, m.CurrentSchemaID)

	b.WriteString(`"partition-specs":[`)
	for i, spec := range m.PartitionSpecs {
		if i > 0 {
			b.WriteString(",")
		}
		writePartitionSpec(&b, spec)
	}
	b.WriteString("],")
	fmt.Fprintf(&b, `"default-spec-id":%d,`, m.DefaultSpecID)
	fmt.Fprintf(&b, `"last-partition-id":%d,`, m.LastPartitionID)

	b.WriteString(`"sort-orders":[`)
	for i, order := range m.SortOrders {
		if i > 0 {
			b.WriteString(",")
		}
		writeSortOrder(&b, order)
	}
	b.WriteString("],")
	fmt.Fprintf(&b, `"default-sort-order-id":%d,`, m.DefaultSortOrderID)

	b.WriteString(`"properties":{`)
	writeStringMap(&b, m.Properties)
	b.WriteString("},")

	if m.CurrentSnapshotID != nil {
		fmt.Fprintf(&b, `"current-snapshot-id":%d,`, *m.CurrentSnapshotID)
	} else {
		b.WriteString(`"current-snapshot-id":null,`)
	}

	b.WriteString(`"snapshots":[`)
	for i, s := range m.Snapshots {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"snapshot-id":%d,"sequence-number":%d,"timestamp-ms":%d,"manifest-list":%q,"schema-id":%d}`,
			s.SnapshotID, s.SequenceNumber, s.TimestampMs, s.ManifestListPath, s.SchemaID)
	}
	b.WriteString("],")

	b.WriteString(`"snapshot-log":[`)
	for i, e := range m.SnapshotLog {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"timestamp-ms":%d,"snapshot-id":%d}`, e.TimestampMs, e.SnapshotID)
	}
	b.WriteString("],")

	b.WriteString(`"metadata-log":[`)
	for i, e := range m.MetadataLog {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"timestamp-ms":%d,"metadata-file":%q}`, e.TimestampMs, e.Path)
	}
	b.WriteString("],")

	b.WriteString(`"refs":{`)
	names := make([]string, 0, len(m.Refs))
	for name := range m.Refs {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		ref := m.Refs[name]
		fmt.Fprintf(&b, `%q:{"snapshot-id":%d,"type":%q}`, name, ref.SnapshotID, string(ref.Type))
	}
	b.WriteString("}")

	b.WriteString("}")
	return b.String()
}

func writeStringMap(b *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(b, "%q:%q", k, m[k])
	}
}

func writePartitionSpec(b *strings.Builder, spec *iceberg.PartitionSpec) {
	fmt.Fprintf(b, `{"spec-id":%d,"fields":[`, spec.ID)
	for i, f := range spec.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(b, `{"source-id":%d,"field-id":%d,"name":%q,"transform":%q}`,
			f.SourceID, f.FieldID, f.Name, f.Transform.String())
	}
	b.WriteString("]}")
}

func writeSortOrder(b *strings.Builder, order *iceberg.SortOrder) {
	fmt.Fprintf(b, `{"order-id":%d,"fields":[`, order.ID)
	for i, f := range order.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		direction := "asc"
		if f.Direction == iceberg.Descending {
			direction = "desc"
		}
		nullOrder := "nulls-first"
		if f.NullOrder == iceberg.NullsLast {
			nullOrder = "nulls-last"
		}
		fmt.Fprintf(b, `{"source-id":%d,"transform":%q,"direction":%q,"null-order":%q}`,
			f.SourceID, f.Transform.String(), direction, nullOrder)
	}
	b.WriteString("]}")
}

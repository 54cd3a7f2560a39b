package iceberg

import (
	"fmt"
	"sort"
	"strings"
)

// JSON renders a type in the canonical Iceberg JSON type representation:
// primitive types as a bare string, nested types as a tagged object.
// This is hand-rolled rather than routed through encoding/json so that
// key order exactly matches what every other Iceberg implementation
// emits, which matters for byte-identical metadata file comparisons.
func (t Type) JSON() string {
	var b strings.Builder
	t.writeJSON(&b)
	return b.String()
}

func (t Type) writeJSON(b *strings.Builder) {
	if t.Kind.IsPrimitive() {
		fmt.Fprintf(b, "%q", t.String())
		return
	}
	switch t.Kind {
	case KindList:
		fmt.Fprintf(b, `{"type":"list","element-id":%d,"element-required":%t,"element":`, t.ElementID, t.ElementRequired)
		t.Element.writeJSON(b)
		b.WriteString("}")
	case KindMap:
		fmt.Fprintf(b, `{"type":"map","key-id":%d,"key":`, t.KeyID)
		t.MapKey.writeJSON(b)
		fmt.Fprintf(b, `,"value-id":%d,"value-required":%t,"value":`, t.ValueID, t.ValueRequired)
		t.MapValue.writeJSON(b)
		b.WriteString("}")
	case KindStruct:
		b.WriteString(`{"type":"struct","fields":[`)
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			f.writeJSON(b)
		}
		b.WriteString("]}")
	}
}

func (f NestedField) writeJSON(b *strings.Builder) {
	fmt.Fprintf(b, `{"id":%d,"name":%q,"required":%t,"type":`, f.ID, f.Name, f.Required)
	f.Type.writeJSON(b)
	if f.Doc != "" {
		fmt.Fprintf(b, `,"doc":%q`, f.Doc)
	}
	b.WriteString("}")
}

// JSON renders the schema in canonical Iceberg JSON form.
func (s *Schema) JSON() string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"type":"struct","schema-id":%d,"fields":[`, s.ID)
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		f.writeJSON(&b)
	}
	b.WriteString("]")
	if len(s.IdentifierFieldIDs) > 0 {
		ids := make([]int, 0, len(s.IdentifierFieldIDs))
		for id := range s.IdentifierFieldIDs {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		b.WriteString(`,"identifier-field-ids":[`)
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%d", id)
		}
		b.WriteString("]")
	}
	b.WriteString("}")
	return b.String()
}

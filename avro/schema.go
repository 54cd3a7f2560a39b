package avro

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags an Avro schema node. The encoder branches on this tag rather
// than using virtual dispatch, so new record shapes are added as data
// (a Schema tree) instead of new Go types.
type Kind int

const (
	KNull Kind = iota
	KBoolean
	KInt
	KLong
	KFloat
	KDouble
	KBytes
	KString
	KArray
	KMap
	KRecord
	KUnion
	KFixed
)

// Field is one record field, carrying the Iceberg field-id annotation
// required on every data-bearing record field.
type Field struct {
	Name    string
	ID      int // meaningful only when HasID is set; 0 is a valid field-id
	HasID   bool
	Type    *Schema
	Default any
}

// Schema is a node in the Avro schema tree used to drive both the
// encoder and decoder generically, without per-message generated code.
type Schema struct {
	Kind Kind

	// record
	Name   string
	Fields []Field

	// array / map
	Items  *Schema
	Values *Schema

	// union
	Branches []*Schema

	// fixed
	Size int
}

func Null() *Schema    { return &Schema{Kind: KNull} }
func Boolean() *Schema { return &Schema{Kind: KBoolean} }
func Int() *Schema     { return &Schema{Kind: KInt} }
func Long() *Schema    { return &Schema{Kind: KLong} }
func Float() *Schema   { return &Schema{Kind: KFloat} }
func Double() *Schema  { return &Schema{Kind: KDouble} }
func Bytes() *Schema   { return &Schema{Kind: KBytes} }
func String() *Schema  { return &Schema{Kind: KString} }
func Fixed(name string, size int) *Schema {
	return &Schema{Kind: KFixed, Name: name, Size: size}
}

func Array(items *Schema) *Schema { return &Schema{Kind: KArray, Items: items} }
func Map(values *Schema) *Schema  { return &Schema{Kind: KMap, Values: values} }
func Union(branches ...*Schema) *Schema {
	return &Schema{Kind: KUnion, Branches: branches}
}

// Nullable wraps inner as a ["null", inner] union, the canonical shape
// for an optional field.
func Nullable(inner *Schema) *Schema { return Union(Null(), inner) }

func Record(name string, fields ...Field) *Schema {
	return &Schema{Kind: KRecord, Name: name, Fields: fields}
}

// F builds a Field with an Iceberg field-id annotation.
func F(name string, id int, typ *Schema) Field {
	return Field{Name: name, ID: id, HasID: true, Type: typ}
}

// FNoID builds a Field without a field-id annotation (synthetic wrapper
// records such as a per-spec partition struct's own record name carry
// ids on their member fields, not on themselves).
func FNoID(name string, typ *Schema) Field {
	return Field{Name: name, Type: typ}
}

// JSON renders the schema as the Avro schema JSON document Iceberg
// stores in the container header's "avro.schema" metadata key,
// including the "field-id" property on every annotated field.
func (s *Schema) JSON() string {
	var b strings.Builder
	s.writeJSON(&b)
	return b.String()
}

func (s *Schema) writeJSON(b *strings.Builder) {
	switch s.Kind {
	case KNull:
		b.WriteString(`"null"`)
	case KBoolean:
		b.WriteString(`"boolean"`)
	case KInt:
		b.WriteString(`"int"`)
	case KLong:
		b.WriteString(`"long"`)
	case KFloat:
		b.WriteString(`"float"`)
	case KDouble:
		b.WriteString(`"double"`)
	case KBytes:
		b.WriteString(`"bytes"`)
	case KString:
		b.WriteString(`"string"`)
	case KFixed:
		fmt.Fprintf(b, `{"type":"fixed","name":%q,"size":%d}`, s.Name, s.Size)
	case KArray:
		b.WriteString(`{"type":"array","items":`)
		s.Items.writeJSON(b)
		b.WriteString(`}`)
	case KMap:
		b.WriteString(`{"type":"map","values":`)
		s.Values.writeJSON(b)
		b.WriteString(`}`)
	case KUnion:
		b.WriteString(`[`)
		for i, br := range s.Branches {
			if i > 0 {
				b.WriteString(",")
			}
			br.writeJSON(b)
		}
		b.WriteString(`]`)
	case KRecord:
		fmt.Fprintf(b, `{"type":"record","name":%q,"fields":[`, s.Name)
		for i, f := range s.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, `{"name":%q,"type":`, f.Name)
			f.Type.writeJSON(b)
			if f.HasID {
				fmt.Fprintf(b, `,"field-id":%d`, f.ID)
			}
			if f.Default != nil {
				defJSON, _ := json.Marshal(f.Default)
				fmt.Fprintf(b, `,"default":%s`, defJSON)
			}
			b.WriteString(`}`)
		}
		b.WriteString(`]}`)
	}
}

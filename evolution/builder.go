package evolution

import (
	"fmt"

	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

type opKind int

const (
	opAddColumn opKind = iota
	opDropColumn
	opRenameColumn
	opUpdateType
	opMakeOptional
	opMakeRequired
	opUpdateDoc
	opMoveFirst
	opMoveBefore
	opMoveAfter
)

type op struct {
	kind     opKind
	name     string
	newName  string
	newType  iceberg.Type
	doc      string
	required bool
	anchor   string // for opMoveBefore/opMoveAfter
}

// Builder accumulates schema changes against a base schema and applies
// them as one atomic batch, the way a single commit's worth of schema
// changes is expressed. Operations address top-level fields by name;
// nested struct evolution is out of scope here and handled by nesting
// another Builder call against the struct's own field list.
type Builder struct {
	base         *iceberg.Schema
	lastColumnID int
	identifiers  map[int]bool
	ops          []op
}

func NewBuilder(base *iceberg.Schema, lastColumnID int, identifierFieldIDs map[int]bool) *Builder {
	ids := make(map[int]bool, len(identifierFieldIDs))
	for k, v := range identifierFieldIDs {
		ids[k] = v
	}
	return &Builder{base: base, lastColumnID: lastColumnID, identifiers: ids}
}

func (b *Builder) AddColumn(name string, typ iceberg.Type, required bool, doc string) *Builder {
	b.ops = append(b.ops, op{kind: opAddColumn, name: name, newType: typ, required: required, doc: doc})
	return b
}

func (b *Builder) DropColumn(name string) *Builder {
	b.ops = append(b.ops, op{kind: opDropColumn, name: name})
	return b
}

func (b *Builder) RenameColumn(name, newName string) *Builder {
	b.ops = append(b.ops, op{kind: opRenameColumn, name: name, newName: newName})
	return b
}

func (b *Builder) UpdateColumnType(name string, newType iceberg.Type) *Builder {
	b.ops = append(b.ops, op{kind: opUpdateType, name: name, newType: newType})
	return b
}

func (b *Builder) MakeOptional(name string) *Builder {
	b.ops = append(b.ops, op{kind: opMakeOptional, name: name})
	return b
}

func (b *Builder) MakeRequired(name string) *Builder {
	b.ops = append(b.ops, op{kind: opMakeRequired, name: name})
	return b
}

func (b *Builder) UpdateColumnDoc(name, doc string) *Builder {
	b.ops = append(b.ops, op{kind: opUpdateDoc, name: name, doc: doc})
	return b
}

func (b *Builder) MoveFirst(name string) *Builder {
	b.ops = append(b.ops, op{kind: opMoveFirst, name: name})
	return b
}

func (b *Builder) MoveAfter(name, after string) *Builder {
	b.ops = append(b.ops, op{kind: opMoveAfter, name: name, anchor: after})
	return b
}

func (b *Builder) MoveBefore(name, before string) *Builder {
	b.ops = append(b.ops, op{kind: opMoveBefore, name: name, anchor: before})
	return b
}

// Result is a built schema plus the updated last-column-id watermark;
// the watermark only advances, never resets, even across drops.
type Result struct {
	Schema       *iceberg.Schema
	LastColumnID int
}

// Build validates every queued operation against the schema produced by
// all operations before it, then returns the fully evolved schema. A
// single invalid operation fails the whole batch; nothing is applied
// partially.
func (b *Builder) Build() (*Result, error) {
	fields := append([]iceberg.NestedField(nil), b.base.Fields...)
	lastID := b.lastColumnID

	for _, o := range b.ops {
		var err error
		fields, lastID, err = applyOp(fields, lastID, b.identifiers, o)
		if err != nil {
			return nil, err
		}
	}

	schema, err := iceberg.NewSchema(b.base.ID+1, fields...)
	if err != nil {
		return nil, err
	}
	schema.IdentifierFieldIDs = b.identifiers
	return &Result{Schema: schema, LastColumnID: lastID}, nil
}

func applyOp(fields []iceberg.NestedField, lastID int, identifiers map[int]bool, o op) ([]iceberg.NestedField, int, error) {
	switch o.kind {
	case opAddColumn:
		for _, f := range fields {
			if f.Name == o.name {
				return nil, lastID, errors.AlreadyExists(fmt.Sprintf("column %q already exists", o.name))
			}
		}
		if o.required {
			return nil, lastID, errors.InvalidInput(fmt.Sprintf("column %q: a required column cannot be added because AddColumn sets no initial-default", o.name))
		}
		lastID++
		fields = append(fields, iceberg.NestedField{
			ID: lastID, Name: o.name, Required: o.required, Type: o.newType, Doc: o.doc,
		})
		return fields, lastID, nil

	case opDropColumn:
		idx, f, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		if identifiers[f.ID] {
			return nil, lastID, errors.IdentifierProtected(fmt.Sprintf("column %q is an identifier field and cannot be dropped", o.name))
		}
		delete(identifiers, f.ID)
		out := append([]iceberg.NestedField(nil), fields[:idx]...)
		out = append(out, fields[idx+1:]...)
		return out, lastID, nil

	case opRenameColumn:
		idx, _, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		for _, f := range fields {
			if f.Name == o.newName {
				return nil, lastID, errors.AlreadyExists(fmt.Sprintf("column %q already exists", o.newName))
			}
		}
		fields[idx].Name = o.newName
		return fields, lastID, nil

	case opUpdateType:
		idx, f, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		if !CanPromote(f.Type, o.newType) {
			return nil, lastID, errors.IncompatibleType(fmt.Sprintf("column %q: %s cannot be promoted to %s", o.name, f.Type.String(), o.newType.String()))
		}
		fields[idx].Type = o.newType
		return fields, lastID, nil

	case opMakeOptional:
		idx, f, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		if identifiers[f.ID] {
			return nil, lastID, errors.IdentifierProtected(fmt.Sprintf("column %q is an identifier field and cannot be made optional", o.name))
		}
		fields[idx].Required = false
		return fields, lastID, nil

	case opMakeRequired:
		idx, _, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		fields[idx].Required = true
		return fields, lastID, nil

	case opUpdateDoc:
		idx, _, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		fields[idx].Doc = o.doc
		return fields, lastID, nil

	case opMoveFirst:
		idx, f, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		out := append([]iceberg.NestedField{f}, removeAt(fields, idx)...)
		return out, lastID, nil

	case opMoveAfter, opMoveBefore:
		if o.name == o.anchor {
			return nil, lastID, errors.InvalidInput(fmt.Sprintf("column %q cannot be moved relative to itself", o.name))
		}
		idx, f, err := findField(fields, o.name)
		if err != nil {
			return nil, lastID, err
		}
		_, _, err = findField(fields, o.anchor)
		if err != nil {
			return nil, lastID, err
		}
		remaining := removeAt(fields, idx)
		anchorIdx := indexOf(remaining, o.anchor)
		insertAt := anchorIdx
		if o.kind == opMoveAfter {
			insertAt++
		}
		out := make([]iceberg.NestedField, 0, len(remaining)+1)
		out = append(out, remaining[:insertAt]...)
		out = append(out, f)
		out = append(out, remaining[insertAt:]...)
		return out, lastID, nil

	default:
		return fields, lastID, nil
	}
}

func findField(fields []iceberg.NestedField, name string) (int, iceberg.NestedField, error) {
	for i, f := range fields {
		if f.Name == name {
			return i, f, nil
		}
	}
	return 0, iceberg.NestedField{}, errors.NotFound(fmt.Sprintf("column %q not found", name))
}

func indexOf(fields []iceberg.NestedField, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func removeAt(fields []iceberg.NestedField, idx int) []iceberg.NestedField {
	out := append([]iceberg.NestedField(nil), fields[:idx]...)
	return append(out, fields[idx+1:]...)
}

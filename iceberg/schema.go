package iceberg

import (
	"fmt"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// NestedField is a single field position inside a schema or struct.
// Every nested position — struct field, list element, map key/value —
// carries a globally unique field-id.
type NestedField struct {
	ID             int
	Name           string
	Required       bool
	Type           Type
	Doc            string
	InitialDefault any // immutable once set
	WriteDefault   any
}

func (f NestedField) equalsIgnoringDoc(other NestedField) bool {
	return f.ID == other.ID && f.Name == other.Name && f.Required == other.Required &&
		f.Type.Equals(other.Type)
}

// Schema is {schema-id, struct-of-fields}.
type Schema struct {
	ID                 int
	Fields             []NestedField
	IdentifierFieldIDs map[int]bool
}

// NewSchema constructs and validates a schema.
func NewSchema(id int, fields ...NestedField) (*Schema, error) {
	s := &Schema{ID: id, Fields: fields, IdentifierFieldIDs: map[int]bool{}}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FindByID returns the field with the given id, searching recursively
// through nested structs/lists/maps, and true if found.
func (s *Schema) FindByID(id int) (NestedField, bool) {
	return findFieldByID(s.Fields, id)
}

func findFieldByID(fields []NestedField, id int) (NestedField, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
		if found, ok := findTypeFieldByID(f.Type, id); ok {
			return found, true
		}
	}
	return NestedField{}, false
}

func findTypeFieldByID(t Type, id int) (NestedField, bool) {
	switch t.Kind {
	case KindStruct:
		return findFieldByID(t.Fields, id)
	case KindList:
		if t.ElementID == id {
			return NestedField{ID: t.ElementID, Name: "element", Required: t.ElementRequired, Type: *t.Element}, true
		}
		return findTypeFieldByID(*t.Element, id)
	case KindMap:
		if t.KeyID == id {
			return NestedField{ID: t.KeyID, Name: "key", Required: true, Type: *t.MapKey}, true
		}
		if t.ValueID == id {
			return NestedField{ID: t.ValueID, Name: "value", Required: t.ValueRequired, Type: *t.MapValue}, true
		}
		if found, ok := findTypeFieldByID(*t.MapKey, id); ok {
			return found, true
		}
		return findTypeFieldByID(*t.MapValue, id)
	default:
		return NestedField{}, false
	}
}

// FindByName returns the top-level field with the given name.
func (s *Schema) FindByName(name string) (NestedField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return NestedField{}, false
}

// FindMaxFieldID recurses into structs, lists and maps to find the
// largest field-id used anywhere in the schema.
func FindMaxFieldID(fields []NestedField) int {
	max := 0
	for _, f := range fields {
		if f.ID > max {
			max = f.ID
		}
		if m := findMaxInType(f.Type); m > max {
			max = m
		}
	}
	return max
}

func findMaxInType(t Type) int {
	max := 0
	switch t.Kind {
	case KindStruct:
		if m := FindMaxFieldID(t.Fields); m > max {
			max = m
		}
	case KindList:
		if t.ElementID > max {
			max = t.ElementID
		}
		if m := findMaxInType(*t.Element); m > max {
			max = m
		}
	case KindMap:
		if t.KeyID > max {
			max = t.KeyID
		}
		if t.ValueID > max {
			max = t.ValueID
		}
		if m := findMaxInType(*t.MapKey); m > max {
			max = m
		}
		if m := findMaxInType(*t.MapValue); m > max {
			max = m
		}
	}
	return max
}

// Validate enforces the schema-tree invariants:
//
//	(i)   field-ids unique across the whole schema tree
//	(iii) variant/geospatial/unknown defaults must be null
//	(iv)  struct defaults must be {} or null
//	(v)   (checked separately at add-column time: evolution.Builder's
//	      AddColumn rejects a required column, since it sets no initial-default)
func (s *Schema) Validate() error {
	seen := map[int]string{}
	var walk func(fields []NestedField, path string) error
	walk = func(fields []NestedField, path string) error {
		for _, f := range fields {
			loc := fmt.Sprintf("%s.%s", path, f.Name)
			if existing, ok := seen[f.ID]; ok {
				return errors.InvalidInput(fmt.Sprintf("duplicate field-id %d used by both %q and %q", f.ID, existing, loc)).
					AddContext("field_id", f.ID)
			}
			seen[f.ID] = loc

			if err := validateDefault(f); err != nil {
				return err
			}
			if f.Type.Kind == KindUnknown && f.Required {
				return errors.InvalidInput(fmt.Sprintf("field %q: unknown-typed fields must be optional", loc))
			}
			if err := walkType(f.Type, loc, seen); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(s.Fields, "")
}

func walkType(t Type, path string, seen map[int]string) error {
	switch t.Kind {
	case KindStruct:
		var err error
		fields := t.Fields
		for _, f := range fields {
			loc := fmt.Sprintf("%s.%s", path, f.Name)
			if existing, ok := seen[f.ID]; ok {
				return errors.InvalidInput(fmt.Sprintf("duplicate field-id %d used by both %q and %q", f.ID, existing, loc))
			}
			seen[f.ID] = loc
			if err = validateDefault(f); err != nil {
				return err
			}
			if err = walkType(f.Type, loc, seen); err != nil {
				return err
			}
		}
		return nil
	case KindList:
		elemLoc := path + ".element"
		if existing, ok := seen[t.ElementID]; ok {
			return errors.InvalidInput(fmt.Sprintf("duplicate field-id %d used by both %q and %q", t.ElementID, existing, elemLoc))
		}
		seen[t.ElementID] = elemLoc
		return walkType(*t.Element, elemLoc, seen)
	case KindMap:
		keyLoc, valLoc := path+".key", path+".value"
		if existing, ok := seen[t.KeyID]; ok {
			return errors.InvalidInput(fmt.Sprintf("duplicate field-id %d used by both %q and %q", t.KeyID, existing, keyLoc))
		}
		seen[t.KeyID] = keyLoc
		if existing, ok := seen[t.ValueID]; ok {
			return errors.InvalidInput(fmt.Sprintf("duplicate field-id %d used by both %q and %q", t.ValueID, existing, valLoc))
		}
		seen[t.ValueID] = valLoc
		if err := walkType(*t.MapKey, keyLoc, seen); err != nil {
			return err
		}
		return walkType(*t.MapValue, valLoc, seen)
	default:
		return nil
	}
}

func validateDefault(f NestedField) error {
	switch f.Type.Kind {
	case KindVariant, KindGeometry, KindGeography, KindUnknown:
		if f.InitialDefault != nil || f.WriteDefault != nil {
			return errors.InvalidInput(fmt.Sprintf("field %q: variant/geospatial/unknown defaults must be null", f.Name))
		}
	case KindStruct:
		if !isEmptyOrNilDefault(f.InitialDefault) || !isEmptyOrNilDefault(f.WriteDefault) {
			return errors.InvalidInput(fmt.Sprintf("field %q: struct defaults must be {} or null", f.Name))
		}
	}
	return nil
}

func isEmptyOrNilDefault(v any) bool {
	if v == nil {
		return true
	}
	if m, ok := v.(map[string]any); ok {
		return len(m) == 0
	}
	return false
}

// Package evolution implements the schema-evolution algebra: a fluent
// builder over add/drop/rename/update-type/optionality/doc/move
// operations, validated as a batch against the promotion rules and
// identifier-field protections before any field-id is allocated.
package evolution

import "github.com/icelake-io/iceberg-engine/iceberg"

// CanPromote reports whether a column may change from `from` to `to`
// without rewriting existing data: widening numeric/decimal/fixed
// promotions, plus structural promotion of the corresponding element,
// key, or value type one level down for list/map/struct.
func CanPromote(from, to iceberg.Type) bool {
	if from.Equals(to) {
		return true
	}
	switch {
	case from.Kind == iceberg.KindInt && to.Kind == iceberg.KindLong:
		return true
	case from.Kind == iceberg.KindFloat && to.Kind == iceberg.KindDouble:
		return true
	case from.Kind == iceberg.KindDecimal && to.Kind == iceberg.KindDecimal:
		return from.Precision <= to.Precision && from.Scale == to.Scale
	case from.Kind == iceberg.KindFixed && to.Kind == iceberg.KindBinary:
		return true
	case from.Kind == iceberg.KindList && to.Kind == iceberg.KindList:
		return from.ElementRequired == to.ElementRequired && CanPromote(*from.Element, *to.Element)
	case from.Kind == iceberg.KindMap && to.Kind == iceberg.KindMap:
		return from.ValueRequired == to.ValueRequired &&
			CanPromote(*from.MapKey, *to.MapKey) && CanPromote(*from.MapValue, *to.MapValue)
	case from.Kind == iceberg.KindStruct && to.Kind == iceberg.KindStruct:
		return canPromoteStruct(from, to)
	default:
		return false
	}
}

func canPromoteStruct(from, to iceberg.Type) bool {
	if len(from.Fields) != len(to.Fields) {
		return false
	}
	byID := make(map[int]iceberg.NestedField, len(to.Fields))
	for _, f := range to.Fields {
		byID[f.ID] = f
	}
	for _, ff := range from.Fields {
		tf, ok := byID[ff.ID]
		if !ok || ff.Required != tf.Required {
			return false
		}
		if !CanPromote(ff.Type, tf.Type) {
			return false
		}
	}
	return true
}

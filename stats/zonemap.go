package stats

import "github.com/icelake-io/iceberg-engine/avro"

// Op is a comparison predicate operator a zone map can prune against.
type Op int

const (
	OpEQ Op = iota
	OpLT
	OpLE
	OpGT
	OpGE
)

// ZoneMap is the post-hoc queryable projection of a column's collected
// bounds, used to answer whether a predicate can be proven false for
// every row of the file without reading it.
type ZoneMap struct {
	Kind         avro.BoundKind
	ContainsNull bool
	ContainsNaN  bool
	Lower        []byte
	Upper        []byte
}

func NewZoneMap(kind avro.BoundKind, lower, upper []byte, containsNull, containsNaN bool) *ZoneMap {
	return &ZoneMap{Kind: kind, Lower: lower, Upper: upper, ContainsNull: containsNull, ContainsNaN: containsNaN}
}

// CanPrune reports whether op(literal) is guaranteed false for every
// row represented by this zone map, by monotone interval arithmetic
// over [Lower, Upper]. A zone map with no bounds (every value was null
// or NaN) never licenses a prune.
func (z *ZoneMap) CanPrune(op Op, literal []byte) (bool, error) {
	if z.Lower == nil || z.Upper == nil {
		return false, nil
	}
	cmpLiteralLower, err := avro.CompareBounds(z.Kind, literal, z.Lower)
	if err != nil {
		return false, err
	}
	cmpLiteralUpper, err := avro.CompareBounds(z.Kind, literal, z.Upper)
	if err != nil {
		return false, err
	}
	switch op {
	case OpEQ:
		return cmpLiteralLower < 0 || cmpLiteralUpper > 0, nil
	case OpLT:
		// row < literal is false for every row when lower >= literal.
		return cmpLiteralLower <= 0, nil
	case OpLE:
		return cmpLiteralLower < 0, nil
	case OpGT:
		// row > literal is false for every row when upper <= literal.
		return cmpLiteralUpper >= 0, nil
	case OpGE:
		return cmpLiteralUpper > 0, nil
	default:
		return false, nil
	}
}

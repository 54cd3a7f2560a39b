// Package iceberg implements the type and schema layer of the table
// metadata engine: primitive and nested types, schema, partition specs,
// sort orders, and the invariants placed on them.
package iceberg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// TypeKind discriminates the primitive and nested type families. Nested
// positions are modeled as tagged variants rather than an inheritance
// hierarchy, so a new kind is a new case, not a new type.
type TypeKind int

const (
	KindBoolean TypeKind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindDecimal
	KindDate
	KindTime
	KindTimestamp
	KindTimestampTz
	KindTimestampNs   // v3
	KindTimestampTzNs // v3
	KindString
	KindUUID
	KindFixed
	KindBinary
	KindVariant
	KindUnknown
	KindGeometry
	KindGeography
	KindList
	KindMap
	KindStruct
)

func (k TypeKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTz:
		return "timestamptz"
	case KindTimestampNs:
		return "timestamp_ns"
	case KindTimestampTzNs:
		return "timestamptz_ns"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	case KindFixed:
		return "fixed"
	case KindBinary:
		return "binary"
	case KindVariant:
		return "variant"
	case KindUnknown:
		return "unknown"
	case KindGeometry:
		return "geometry"
	case KindGeography:
		return "geography"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// IsPrimitive reports whether this TypeKind belongs to the primitive
// family rather than the nested family (list/map/struct).
func (k TypeKind) IsPrimitive() bool {
	switch k {
	case KindList, KindMap, KindStruct:
		return false
	default:
		return true
	}
}

// Type is a tagged-variant representation of an Iceberg type: exactly one
// of the Kind-specific payloads below is meaningful for a given Kind.
type Type struct {
	Kind TypeKind

	// decimal(P,S)
	Precision int
	Scale     int

	// fixed(L)
	Length int

	// geometry(CRS) / geography(CRS, Algorithm)
	CRS       string
	Algorithm string

	// list<Element, element-id>
	Element   *Type
	ElementID int
	ElementRequired bool

	// map<Key, Value, key-id, value-id>
	MapKey       *Type
	MapValue     *Type
	KeyID        int
	ValueID      int
	ValueRequired bool

	// struct{Fields...}
	Fields []NestedField
}

// Default CRS/algorithm values for geospatial types left unparameterized.
const (
	DefaultCRS       = "OGC:CRS84"
	DefaultAlgorithm = "spherical"
)

func Boolean() Type { return Type{Kind: KindBoolean} }
func Int32() Type   { return Type{Kind: KindInt} }
func Int64() Type   { return Type{Kind: KindLong} }
func Float32() Type { return Type{Kind: KindFloat} }
func Float64() Type { return Type{Kind: KindDouble} }
func Decimal(precision, scale int) Type {
	return Type{Kind: KindDecimal, Precision: precision, Scale: scale}
}
func Date() Type          { return Type{Kind: KindDate} }
func Time() Type          { return Type{Kind: KindTime} }
func Timestamp() Type     { return Type{Kind: KindTimestamp} }
func TimestampTz() Type   { return Type{Kind: KindTimestampTz} }
func TimestampNs() Type   { return Type{Kind: KindTimestampNs} }
func TimestampTzNs() Type { return Type{Kind: KindTimestampTzNs} }
func String() Type        { return Type{Kind: KindString} }
func UUID() Type          { return Type{Kind: KindUUID} }
func Fixed(length int) Type {
	return Type{Kind: KindFixed, Length: length}
}
func Binary() Type  { return Type{Kind: KindBinary} }
func Variant() Type { return Type{Kind: KindVariant} }
func Unknown() Type { return Type{Kind: KindUnknown} }

func Geometry(crs string) Type {
	if crs == "" {
		crs = DefaultCRS
	}
	return Type{Kind: KindGeometry, CRS: crs}
}

func Geography(crs, algorithm string) Type {
	if crs == "" {
		crs = DefaultCRS
	}
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}
	return Type{Kind: KindGeography, CRS: crs, Algorithm: algorithm}
}

func List(element Type, elementID int, elementRequired bool) Type {
	e := element
	return Type{Kind: KindList, Element: &e, ElementID: elementID, ElementRequired: elementRequired}
}

func Map(key, value Type, keyID, valueID int, valueRequired bool) Type {
	k, v := key, value
	return Type{Kind: KindMap, MapKey: &k, MapValue: &v, KeyID: keyID, ValueID: valueID, ValueRequired: valueRequired}
}

func Struct(fields ...NestedField) Type {
	return Type{Kind: KindStruct, Fields: fields}
}

// Equals performs a structural comparison of two types, ignoring field
// docs/defaults but not field ids, names, requiredness or nesting.
func (t Type) Equals(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindDecimal:
		return t.Precision == other.Precision && t.Scale == other.Scale
	case KindFixed:
		return t.Length == other.Length
	case KindGeometry:
		return t.CRS == other.CRS
	case KindGeography:
		return t.CRS == other.CRS && t.Algorithm == other.Algorithm
	case KindList:
		return t.ElementID == other.ElementID &&
			t.ElementRequired == other.ElementRequired &&
			t.Element.Equals(*other.Element)
	case KindMap:
		return t.KeyID == other.KeyID && t.ValueID == other.ValueID &&
			t.ValueRequired == other.ValueRequired &&
			t.MapKey.Equals(*other.MapKey) && t.MapValue.Equals(*other.MapValue)
	case KindStruct:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].equalsIgnoringDoc(other.Fields[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the compact form used in schema dumps and error
// messages: "decimal(10,2)", "list<string>", "geometry(EPSG:4326)", etc.
func (t Type) String() string {
	switch t.Kind {
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindFixed:
		return fmt.Sprintf("fixed(%d)", t.Length)
	case KindGeometry:
		if t.CRS == DefaultCRS {
			return "geometry"
		}
		return fmt.Sprintf("geometry(%s)", t.CRS)
	case KindGeography:
		if t.CRS == DefaultCRS && t.Algorithm == DefaultAlgorithm {
			return "geography"
		}
		return fmt.Sprintf("geography(%s, %s)", t.CRS, t.Algorithm)
	case KindList:
		return fmt.Sprintf("list<%s>", t.Element.String())
	case KindMap:
		return fmt.Sprintf("map<%s, %s>", t.MapKey.String(), t.MapValue.String())
	case KindStruct:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = fmt.Sprintf("%d: %s: %s", f.ID, f.Name, f.Type.String())
		}
		return "struct<" + strings.Join(parts, ", ") + ">"
	default:
		return t.Kind.String()
	}
}

// ParseGeospatial parses "geometry(CRS)" or "geography(CRS, Algorithm)"
// compact-or-parameterized type name strings.
func ParseGeospatial(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "geometry":
		return Geometry(""), nil
	case s == "geography":
		return Geography("", ""), nil
	case strings.HasPrefix(s, "geometry(") && strings.HasSuffix(s, ")"):
		inner := s[len("geometry(") : len(s)-1]
		crs := strings.TrimSpace(inner)
		if crs == "" {
			return Type{}, errors.InvalidInput("geometry() requires a CRS argument")
		}
		return Geometry(crs), nil
	case strings.HasPrefix(s, "geography(") && strings.HasSuffix(s, ")"):
		inner := s[len("geography(") : len(s)-1]
		parts := strings.SplitN(inner, ",", 2)
		crs := strings.TrimSpace(parts[0])
		algorithm := DefaultAlgorithm
		if len(parts) == 2 {
			algorithm = strings.TrimSpace(parts[1])
		}
		if crs == "" {
			return Type{}, errors.InvalidInput("geography() requires a CRS argument")
		}
		if !isValidAlgorithm(algorithm) {
			return Type{}, errors.InvalidInput(fmt.Sprintf("invalid geography algorithm %q", algorithm))
		}
		return Geography(crs, algorithm), nil
	default:
		return Type{}, errors.InvalidInput(fmt.Sprintf("not a geospatial type string: %q", s))
	}
}

func isValidAlgorithm(a string) bool {
	switch a {
	case "spherical", "vincenty", "karney", "andoyer", "thomas":
		return true
	default:
		return false
	}
}

// ParsePrimitive parses primitive type strings including parameterized
// forms: "decimal(P,S)", "fixed(L)", "geometry(...)", "geography(...)".
func ParsePrimitive(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "boolean":
		return Boolean(), nil
	case s == "int":
		return Int32(), nil
	case s == "long":
		return Int64(), nil
	case s == "float":
		return Float32(), nil
	case s == "double":
		return Float64(), nil
	case s == "date":
		return Date(), nil
	case s == "time":
		return Time(), nil
	case s == "timestamp":
		return Timestamp(), nil
	case s == "timestamptz":
		return TimestampTz(), nil
	case s == "timestamp_ns":
		return TimestampNs(), nil
	case s == "timestamptz_ns":
		return TimestampTzNs(), nil
	case s == "string":
		return String(), nil
	case s == "uuid":
		return UUID(), nil
	case s == "binary":
		return Binary(), nil
	case s == "variant":
		return Variant(), nil
	case s == "unknown":
		return Unknown(), nil
	case strings.HasPrefix(s, "decimal(") && strings.HasSuffix(s, ")"):
		inner := s[len("decimal(") : len(s)-1]
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return Type{}, errors.InvalidInput(fmt.Sprintf("malformed decimal type: %q", s))
		}
		p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		sc, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return Type{}, errors.InvalidInput(fmt.Sprintf("malformed decimal type: %q", s))
		}
		return Decimal(p, sc), nil
	case strings.HasPrefix(s, "fixed(") && strings.HasSuffix(s, ")"):
		inner := s[len("fixed(") : len(s)-1]
		l, err := strconv.Atoi(strings.TrimSpace(inner))
		if err != nil {
			return Type{}, errors.InvalidInput(fmt.Sprintf("malformed fixed type: %q", s))
		}
		return Fixed(l), nil
	case strings.HasPrefix(s, "geometry") || strings.HasPrefix(s, "geography"):
		return ParseGeospatial(s)
	default:
		return Type{}, errors.InvalidInput(fmt.Sprintf("unknown primitive type: %q", s))
	}
}

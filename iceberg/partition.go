package iceberg

import (
	"fmt"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// TransformKind tags a partition-field transform. Modeled as a tagged
// variant (with an optional parameter N) rather than a class hierarchy,
// so adding a transform is a new case, not a new type.
type TransformKind int

const (
	TransformIdentity TransformKind = iota
	TransformBucket
	TransformTruncate
	TransformYear
	TransformMonth
	TransformDay
	TransformHour
	TransformVoid
)

func (t TransformKind) String() string {
	switch t {
	case TransformIdentity:
		return "identity"
	case TransformBucket:
		return "bucket"
	case TransformTruncate:
		return "truncate"
	case TransformYear:
		return "year"
	case TransformMonth:
		return "month"
	case TransformDay:
		return "day"
	case TransformHour:
		return "hour"
	case TransformVoid:
		return "void"
	default:
		return "unknown"
	}
}

// Transform is the {kind, N} tagged variant applied to a source field.
type Transform struct {
	Kind TransformKind
	N    int // bucket[N] width or truncate[W] width; unused otherwise
}

func Identity() Transform          { return Transform{Kind: TransformIdentity} }
func Bucket(n int) Transform       { return Transform{Kind: TransformBucket, N: n} }
func Truncate(n int) Transform     { return Transform{Kind: TransformTruncate, N: n} }
func Year() Transform              { return Transform{Kind: TransformYear} }
func Month() Transform             { return Transform{Kind: TransformMonth} }
func Day() Transform               { return Transform{Kind: TransformDay} }
func Hour() Transform              { return Transform{Kind: TransformHour} }
func Void() Transform              { return Transform{Kind: TransformVoid} }

func (t Transform) String() string {
	switch t.Kind {
	case TransformBucket:
		return fmt.Sprintf("bucket[%d]", t.N)
	case TransformTruncate:
		return fmt.Sprintf("truncate[%d]", t.N)
	default:
		return t.Kind.String()
	}
}

// PartitionFieldIDBase is the reserved starting point for partition
// field-ids: they must never collide with data field-ids.
const PartitionFieldIDBase = 1000

// PartitionField is one entry of a partition spec.
type PartitionField struct {
	SourceID  int
	SourceIDs []int // bucket-over-multiple-columns style transforms; SourceID is SourceIDs[0] when len==1
	FieldID   int
	Name      string
	Transform Transform
}

// PartitionSpec is {spec-id, fields}.
type PartitionSpec struct {
	ID     int
	Fields []PartitionField
}

// NewPartitionSpec validates that partition field-ids start at the
// reserved base and never collide with the schema's data field-ids, and
// that every source-id resolves to a real schema field.
func NewPartitionSpec(id int, schema *Schema, fields ...PartitionField) (*PartitionSpec, error) {
	dataIDs := map[int]bool{}
	for _, f := range schema.Fields {
		dataIDs[f.ID] = true
	}
	usedPartitionIDs := map[int]bool{}
	for _, f := range fields {
		if f.FieldID < PartitionFieldIDBase {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"partition field %q: field-id %d is below the reserved base %d", f.Name, f.FieldID, PartitionFieldIDBase))
		}
		if _, collides := schema.FindByID(f.FieldID); collides {
			return nil, errors.InvalidInput(fmt.Sprintf(
				"partition field %q: field-id %d collides with a data field-id", f.Name, f.FieldID))
		}
		if usedPartitionIDs[f.FieldID] {
			return nil, errors.InvalidInput(fmt.Sprintf("duplicate partition field-id %d", f.FieldID))
		}
		usedPartitionIDs[f.FieldID] = true

		sourceIDs := f.SourceIDs
		if len(sourceIDs) == 0 {
			sourceIDs = []int{f.SourceID}
		}
		for _, sid := range sourceIDs {
			if _, ok := schema.FindByID(sid); !ok {
				return nil, errors.InvalidInput(fmt.Sprintf("partition field %q: source-id %d not found in schema", f.Name, sid))
			}
		}
		if f.Transform.Kind == TransformVoid {
			// void is valid over any source type
		}
	}
	return &PartitionSpec{ID: id, Fields: fields}, nil
}

// IsUnpartitioned reports whether the spec has no fields.
func (p *PartitionSpec) IsUnpartitioned() bool { return len(p.Fields) == 0 }

// NullOrder controls where nulls sort relative to non-null values.
type NullOrder int

const (
	NullsFirst NullOrder = iota
	NullsLast
)

// SortDirection is ascending or descending.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// SortField is one entry of a sort order.
type SortField struct {
	SourceID  int
	Transform Transform
	Direction SortDirection
	NullOrder NullOrder
}

// SortOrder is {order-id, fields}.
type SortOrder struct {
	ID     int
	Fields []SortField
}

// NewSortOrder validates that every source-id resolves to a schema field.
func NewSortOrder(id int, schema *Schema, fields ...SortField) (*SortOrder, error) {
	for _, f := range fields {
		if _, ok := schema.FindByID(f.SourceID); !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("sort field: source-id %d not found in schema", f.SourceID))
		}
	}
	return &SortOrder{ID: id, Fields: fields}, nil
}

// IsUnsorted reports whether the order has no fields; the order-id is not checked.
func (s *SortOrder) IsUnsorted() bool { return len(s.Fields) == 0 }

// UnsortedOrderID is the well-known id of the "no sort order" sort order.
const UnsortedOrderID = 0

package stats

import "github.com/icelake-io/iceberg-engine/avro"

// ShreddedAllocator assigns stable synthetic field-ids to variant-shredded
// paths like "$col.typed_value.<subfield>.typed_value", starting from a
// caller-supplied base. The same path always maps to the same id for the
// lifetime of the allocator, and ids are handed out in first-seen order
// so two collectors built from the same schema and the same path
// discovery order agree without coordination.
type ShreddedAllocator struct {
	next int
	ids  map[string]int
}

func NewShreddedAllocator(startID int) *ShreddedAllocator {
	return &ShreddedAllocator{next: startID, ids: map[string]int{}}
}

// FieldIDFor returns the synthetic field-id for path, allocating one on
// first use.
func (a *ShreddedAllocator) FieldIDFor(path string) int {
	if id, ok := a.ids[path]; ok {
		return id
	}
	id := a.next
	a.next++
	a.ids[path] = id
	return id
}

// MergeStats combines two ComputedFileStats bundles for the same set of
// field-ids (as happens when shredded-variant subfield stats from
// different files are rolled up): counts sum, bounds widen to the
// enclosing min/max.
func MergeStats(a, b *ComputedFileStats, kinds map[int]avro.BoundKind) (*ComputedFileStats, error) {
	out := &ComputedFileStats{
		ValueCounts:     map[int]int64{},
		NullValueCounts: map[int]int64{},
		NanValueCounts:  map[int]int64{},
		LowerBounds:     map[int][]byte{},
		UpperBounds:     map[int][]byte{},
	}
	ids := map[int]bool{}
	for id := range a.ValueCounts {
		ids[id] = true
	}
	for id := range b.ValueCounts {
		ids[id] = true
	}
	for id := range ids {
		out.ValueCounts[id] = a.ValueCounts[id] + b.ValueCounts[id]
		out.NullValueCounts[id] = a.NullValueCounts[id] + b.NullValueCounts[id]
		out.NanValueCounts[id] = a.NanValueCounts[id] + b.NanValueCounts[id]

		lo, err := mergeBound(kinds[id], a.LowerBounds[id], b.LowerBounds[id], true)
		if err != nil {
			return nil, err
		}
		if lo != nil {
			out.LowerBounds[id] = lo
		}
		hi, err := mergeBound(kinds[id], a.UpperBounds[id], b.UpperBounds[id], false)
		if err != nil {
			return nil, err
		}
		if hi != nil {
			out.UpperBounds[id] = hi
		}
	}
	return out, nil
}

func mergeBound(kind avro.BoundKind, a, b []byte, wantMin bool) ([]byte, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	cmp, err := avro.CompareBounds(kind, a, b)
	if err != nil {
		return nil, err
	}
	if wantMin == (cmp <= 0) {
		return a, nil
	}
	return b, nil
}

// Package stats implements per-column statistics collection for data
// files: value/null/NaN counts and lower/upper bounds keyed by
// field-id, the zone-map projection used for predicate pruning, and
// shredded-variant statistics merging.
package stats

import (
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/rs/zerolog"

	"github.com/icelake-io/iceberg-engine/avro"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// ColumnCollector accumulates {value-count, null-count, nan-count,
// lower, upper} for a single field-id as rows are observed.
type ColumnCollector struct {
	FieldID    int
	Kind       avro.BoundKind
	ValueCount int64
	NullCount  int64
	NanCount   int64
	lower      []byte
	upper      []byte
}

func NewColumnCollector(fieldID int, kind avro.BoundKind) *ColumnCollector {
	return &ColumnCollector{FieldID: fieldID, Kind: kind}
}

// Observe records one value: nil for a SQL-null, a float64/float32 NaN
// counted separately and never updating bounds, anything else encoded
// and folded into the running lower/upper bound.
func (c *ColumnCollector) Observe(value any) error {
	if value == nil {
		c.NullCount++
		return nil
	}
	if f, ok := asFloatIfFloat(value); ok && math.IsNaN(f) {
		c.NanCount++
		return nil
	}
	c.ValueCount++
	encoded, err := avro.EncodeBound(c.Kind, value)
	if err != nil {
		return errors.AddContext(err, "field_id", c.FieldID)
	}
	if c.lower == nil {
		c.lower = encoded
		c.upper = append([]byte(nil), encoded...)
		return nil
	}
	if cmp, err := avro.CompareBounds(c.Kind, encoded, c.lower); err != nil {
		return err
	} else if cmp < 0 {
		c.lower = encoded
	}
	if cmp, err := avro.CompareBounds(c.Kind, encoded, c.upper); err != nil {
		return err
	} else if cmp > 0 {
		c.upper = encoded
	}
	return nil
}

func asFloatIfFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	default:
		return 0, false
	}
}

// HasBounds reports whether at least one non-null, non-NaN value was observed.
func (c *ColumnCollector) HasBounds() bool { return c.lower != nil }

// ComputedFileStats is the finalized bundle of per-field-id statistics
// maps emitted when a data file's statistics collection finishes.
type ComputedFileStats struct {
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NanValueCounts  map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte
}

// FileStatsCollector owns one ColumnCollector per field-id for a single
// data file being written.
type FileStatsCollector struct {
	columns map[int]*ColumnCollector
	logger  zerolog.Logger
}

func NewFileStatsCollector(logger zerolog.Logger) *FileStatsCollector {
	return &FileStatsCollector{columns: map[int]*ColumnCollector{}, logger: logger}
}

// Column returns the collector for fieldID, creating it with kind on
// first use.
func (f *FileStatsCollector) Column(fieldID int, kind avro.BoundKind) *ColumnCollector {
	c, ok := f.columns[fieldID]
	if !ok {
		c = NewColumnCollector(fieldID, kind)
		f.columns[fieldID] = c
	}
	return c
}

// IngestRecord feeds one arrow.Record batch through the collectors —
// the shape a Parquet writer's column-statistics hook would hand the
// engine once a file's row group is complete. fieldIDs and kinds are
// parallel to the record's columns.
func (f *FileStatsCollector) IngestRecord(rec arrow.Record, fieldIDs []int, kinds []avro.BoundKind) error {
	if len(fieldIDs) != int(rec.NumCols()) || len(kinds) != int(rec.NumCols()) {
		return errors.InvalidInput("fieldIDs/kinds length must match record column count")
	}
	for col := 0; col < int(rec.NumCols()); col++ {
		collector := f.Column(fieldIDs[col], kinds[col])
		arr := rec.Column(col)
		for row := 0; row < arr.Len(); row++ {
			value, err := extractValue(arr, row)
			if err != nil {
				return errors.AddContext(err, "column", fieldIDs[col]).AddContext("row", row)
			}
			if err := collector.Observe(value); err != nil {
				return err
			}
		}
	}
	return nil
}

// extractValue reads the Go-native value at row i of an arrow array,
// or nil if the slot is null.
func extractValue(arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.Binary:
		return a.Value(i), nil
	case *array.FixedSizeBinary:
		return a.Value(i), nil
	case *array.Date32:
		return int64(a.Value(i)), nil
	case *array.Timestamp:
		return int64(a.Value(i)), nil
	default:
		return nil, errors.New(errors.StatsCode("unsupported_arrow_type"),
			"no statistics support for this Arrow array type", nil)
	}
}

// Finish snapshots the accumulated collectors into a ComputedFileStats bundle.
func (f *FileStatsCollector) Finish() *ComputedFileStats {
	out := &ComputedFileStats{
		ValueCounts:     map[int]int64{},
		NullValueCounts: map[int]int64{},
		NanValueCounts:  map[int]int64{},
		LowerBounds:     map[int][]byte{},
		UpperBounds:     map[int][]byte{},
	}
	for id, c := range f.columns {
		out.ValueCounts[id] = c.ValueCount
		out.NullValueCounts[id] = c.NullCount
		out.NanValueCounts[id] = c.NanCount
		if c.HasBounds() {
			out.LowerBounds[id] = c.lower
			out.UpperBounds[id] = c.upper
		}
	}
	return out
}

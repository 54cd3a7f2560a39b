package deletes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsApplicable(t *testing.T) {
	assert.True(t, IsApplicable(5, 3))
	assert.True(t, IsApplicable(5, 5))
	assert.False(t, IsApplicable(5, 6))
}

func TestApplyOrderPositionalBeforeEquality(t *testing.T) {
	order := ApplyOrder([]Kind{KindEquality, KindPosition, KindEquality, KindPosition})
	assert.Equal(t, []int{1, 3, 0, 2}, order)
}

const nameFieldID = 2

func rowsByName(names ...string) []Row {
	rows := make([]Row, len(names))
	for i, n := range names {
		rows[i] = Row{Position: int64(i), Values: map[int]any{1: int64(i + 1), nameFieldID: n}}
	}
	return rows
}

func namesOf(rows []Row) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Values[nameFieldID].(string)
	}
	return names
}

// TestApplyAllRowsPassWhenDeleteOlderThanData mirrors a position-delete
// file whose sequence number is older than the data file it would
// otherwise apply to: nothing is removed.
func TestApplyAllRowsPassWhenDeleteOlderThanData(t *testing.T) {
	rows := make([]Row, 100)
	for i := range rows {
		rows[i] = Row{Position: int64(i)}
	}
	positions := NewPositionDeleteLookup(3, []PositionDelete{
		{FilePath: "part-001.parquet", Position: 0},
		{FilePath: "part-001.parquet", Position: 1},
	})

	passed, positionDeleted, equalityDeleted := Apply("part-001.parquet", 5, rows, []*PositionDeleteLookup{positions}, nil)
	assert.Len(t, passed, 100)
	assert.Equal(t, 0, positionDeleted)
	assert.Equal(t, 0, equalityDeleted)
}

// TestApplyCombinesPositionAndEqualityDeletes mirrors a combined
// position- and equality-delete pass against the same data file.
func TestApplyCombinesPositionAndEqualityDeletes(t *testing.T) {
	rows := rowsByName("Alice", "Bob", "Charlie", "Diana")

	positions := NewPositionDeleteLookup(5, []PositionDelete{
		{FilePath: "part-001.parquet", Position: 0},
	})
	equality := NewEqualityDeleteLookup(5, []int{nameFieldID}, []EqualityDelete{
		{Values: map[int]any{nameFieldID: "Charlie"}},
	})

	passed, positionDeleted, equalityDeleted := Apply(
		"part-001.parquet", 3, rows,
		[]*PositionDeleteLookup{positions}, []*EqualityDeleteLookup{equality},
	)

	assert.Equal(t, []string{"Bob", "Diana"}, namesOf(passed))
	assert.Equal(t, 1, positionDeleted)
	assert.Equal(t, 1, equalityDeleted)
}

// TestApplySkipsLookupsOlderThanData confirms a delete lookup whose own
// sequence number predates the data file is never consulted, even when
// it would otherwise match.
func TestApplySkipsLookupsOlderThanData(t *testing.T) {
	rows := rowsByName("Alice", "Bob")
	positions := NewPositionDeleteLookup(2, []PositionDelete{
		{FilePath: "part-001.parquet", Position: 0},
	})

	passed, positionDeleted, _ := Apply("part-001.parquet", 5, rows, []*PositionDeleteLookup{positions}, nil)
	assert.Equal(t, []string{"Alice", "Bob"}, namesOf(passed))
	assert.Equal(t, 0, positionDeleted)
}

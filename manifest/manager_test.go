package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(id int64, parent *int64, seq, ts int64) Snapshot {
	return Snapshot{SnapshotID: id, ParentSnapshotID: parent, SequenceNumber: seq, TimestampMs: ts}
}

func TestSnapshotManagerCurrentAndByRef(t *testing.T) {
	m := NewSnapshotManager()
	m.AddSnapshot(snap(1, nil, 1, 1000))
	require.NoError(t, m.SetRef("main", 1, RefBranch))

	cur, ok := m.GetCurrent()
	require.True(t, ok)
	assert.Equal(t, int64(1), cur.SnapshotID)

	byRef, ok := m.GetByRef("main")
	require.True(t, ok)
	assert.Equal(t, int64(1), byRef.SnapshotID)

	_, ok = m.GetByRef("nope")
	assert.False(t, ok)
}

func TestSnapshotManagerGetAtTimestampPicksLatestAtOrBefore(t *testing.T) {
	m := NewSnapshotManager()
	m.AddSnapshot(snap(1, nil, 1, 1000))
	p1 := int64(1)
	m.AddSnapshot(snap(2, &p1, 2, 2000))
	p2 := int64(2)
	m.AddSnapshot(snap(3, &p2, 3, 3000))

	s, ok := m.GetAtTimestamp(2500)
	require.True(t, ok)
	assert.Equal(t, int64(2), s.SnapshotID)

	s, ok = m.GetAtTimestamp(500)
	assert.False(t, ok)

	s, ok = m.GetAtTimestamp(5000)
	require.True(t, ok)
	assert.Equal(t, int64(3), s.SnapshotID)
}

func TestSnapshotManagerAncestorChainOldestFirst(t *testing.T) {
	m := NewSnapshotManager()
	m.AddSnapshot(snap(1, nil, 1, 1000))
	p1 := int64(1)
	m.AddSnapshot(snap(2, &p1, 2, 2000))
	p2 := int64(2)
	m.AddSnapshot(snap(3, &p2, 3, 3000))

	chain, err := m.AncestorChain(3)
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{chain[0].SnapshotID, chain[1].SnapshotID, chain[2].SnapshotID})
}

func TestSnapshotManagerNextSequenceNumber(t *testing.T) {
	m := NewSnapshotManager()
	assert.Equal(t, int64(1), m.NextSequenceNumber())
	m.AddSnapshot(snap(1, nil, 5, 1000))
	assert.Equal(t, int64(6), m.NextSequenceNumber())
}

package manifest

import (
	"sync"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// RefType discriminates a named reference's retention semantics.
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// SnapshotRef is a named, mutable (branch) or immutable (tag) pointer at
// a snapshot id.
type SnapshotRef struct {
	Name       string
	Type       RefType
	SnapshotID int64
}

// SnapshotManager holds a table's full snapshot lineage in memory and
// answers the lookups a reader or planner needs: current state, lookup
// by id or ref, time travel, and ancestor walks. It does not persist
// anything itself — callers load it from table metadata and hand it a
// fresh copy on every read of the metadata file.
type SnapshotManager struct {
	mu        sync.RWMutex
	snapshots map[int64]Snapshot
	refs      map[string]SnapshotRef
	currentID *int64
}

func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{
		snapshots: make(map[int64]Snapshot),
		refs:      make(map[string]SnapshotRef),
	}
}

// AddSnapshot records a snapshot that has already been built and
// committed; it does not itself advance "main".
func (m *SnapshotManager) AddSnapshot(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[s.SnapshotID] = s
}

// SetRef points name at id, creating or moving it. Moving a tag is the
// caller's responsibility to forbid; this layer only stores the pointer.
func (m *SnapshotManager) SetRef(name string, id int64, refType RefType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return errors.NotFound("cannot set ref to unknown snapshot id")
	}
	m.refs[name] = SnapshotRef{Name: name, Type: refType, SnapshotID: id}
	if name == "main" {
		m.currentID = &id
	}
	return nil
}

// GetCurrent returns the snapshot "main" currently points at.
func (m *SnapshotManager) GetCurrent() (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.currentID == nil {
		return Snapshot{}, false
	}
	s, ok := m.snapshots[*m.currentID]
	return s, ok
}

// GetByID looks up a snapshot by its id, regardless of ref state.
func (m *SnapshotManager) GetByID(id int64) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[id]
	return s, ok
}

// GetByRef resolves a named branch or tag to its snapshot.
func (m *SnapshotManager) GetByRef(name string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.refs[name]
	if !ok {
		return Snapshot{}, false
	}
	s, ok := m.snapshots[ref.SnapshotID]
	return s, ok
}

// GetAtTimestamp returns the snapshot with the largest timestamp that is
// less than or equal to ms, breaking ties in favor of the larger
// snapshot id (the one committed later in a tied millisecond).
func (m *SnapshotManager) GetAtTimestamp(ms int64) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *Snapshot
	for id, s := range m.snapshots {
		if s.TimestampMs > ms {
			continue
		}
		if best == nil || s.TimestampMs > best.TimestampMs ||
			(s.TimestampMs == best.TimestampMs && id > best.SnapshotID) {
			candidate := s
			best = &candidate
		}
	}
	if best == nil {
		return Snapshot{}, false
	}
	return *best, true
}

// AncestorChain walks parent-snapshot-id links from id back to the
// table's root snapshot, returned oldest-first.
func (m *SnapshotManager) AncestorChain(id int64) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var chain []Snapshot
	seen := make(map[int64]bool)
	cur, ok := m.snapshots[id]
	if !ok {
		return nil, errors.NotFound("snapshot not found")
	}
	for {
		if seen[cur.SnapshotID] {
			return nil, errors.New(errors.ManifestCode("ancestor_cycle"), "snapshot ancestor chain contains a cycle", nil)
		}
		seen[cur.SnapshotID] = true
		chain = append(chain, cur)
		if cur.ParentSnapshotID == nil {
			break
		}
		parent, ok := m.snapshots[*cur.ParentSnapshotID]
		if !ok {
			break
		}
		cur = parent
	}
	reversed := make([]Snapshot, len(chain))
	for i, s := range chain {
		reversed[len(chain)-1-i] = s
	}
	return reversed, nil
}

// NextSequenceNumber allocates the sequence number the next snapshot
// must use: one past the largest sequence number committed so far. This
// is the only place a new sequence number is minted; a snapshot's
// manifests and their entries all freeze on the value handed back here.
func (m *SnapshotManager) NextSequenceNumber() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var max int64
	for _, s := range m.snapshots {
		if s.SequenceNumber > max {
			max = s.SequenceNumber
		}
	}
	return max + 1
}

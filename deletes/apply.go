package deletes

// IsApplicable reports whether a delete committed at deleteSequence
// applies to a data file written at dataSequence: a delete applies to
// every data file whose own sequence number is no newer than the
// delete's, i.e. every row that existed at or before the delete was
// committed. Only rows added in a strictly later snapshot than the
// delete are untouched by it.
func IsApplicable(deleteSequence, dataSequence int64) bool {
	return deleteSequence >= dataSequence
}

// Kind discriminates the two delete mechanisms for ordering purposes.
type Kind int

const (
	KindPosition Kind = iota
	KindEquality
)

// ApplyOrder is the order in which multiple applicable deletes for the
// same data file must be evaluated: positional deletes remove rows by
// physical offset before equality deletes are evaluated against what
// remains, so a position delete can never be "undone" by a later
// equality delete and vice versa is well defined.
func ApplyOrder(kinds []Kind) []int {
	order := make([]int, 0, len(kinds))
	for i, k := range kinds {
		if k == KindPosition {
			order = append(order, i)
		}
	}
	for i, k := range kinds {
		if k == KindEquality {
			order = append(order, i)
		}
	}
	return order
}

// PositionDeleteLookup indexes a built position-delete file by file_path
// for O(1) membership tests during an application pass.
type PositionDeleteLookup struct {
	sequenceNumber int64
	positions      map[string]map[int64]struct{}
}

// NewPositionDeleteLookup indexes deletes committed at sequenceNumber.
func NewPositionDeleteLookup(sequenceNumber int64, deletes []PositionDelete) *PositionDeleteLookup {
	idx := &PositionDeleteLookup{sequenceNumber: sequenceNumber, positions: make(map[string]map[int64]struct{})}
	for _, d := range deletes {
		set, ok := idx.positions[d.FilePath]
		if !ok {
			set = make(map[int64]struct{})
			idx.positions[d.FilePath] = set
		}
		set[d.Position] = struct{}{}
	}
	return idx
}

// SequenceNumber is the sequence number the delete file was committed at.
func (l *PositionDeleteLookup) SequenceNumber() int64 { return l.sequenceNumber }

// IsDeleted reports whether (filePath, pos) is named by this delete file.
func (l *PositionDeleteLookup) IsDeleted(filePath string, pos int64) bool {
	set, ok := l.positions[filePath]
	if !ok {
		return false
	}
	_, deleted := set[pos]
	return deleted
}

// EqualityDeleteLookup indexes a built equality-delete file by the
// canonical key of its equality-field values.
type EqualityDeleteLookup struct {
	sequenceNumber int64
	equalityIDs    []int
	keys           map[string]struct{}
}

// NewEqualityDeleteLookup indexes deletes committed at sequenceNumber,
// each of them a set of values for the given equality-ids.
func NewEqualityDeleteLookup(sequenceNumber int64, equalityIDs []int, deletes []EqualityDelete) *EqualityDeleteLookup {
	idx := &EqualityDeleteLookup{sequenceNumber: sequenceNumber, equalityIDs: equalityIDs, keys: make(map[string]struct{}, len(deletes))}
	for _, d := range deletes {
		idx.keys[CanonicalKey(equalityIDs, d.Values)] = struct{}{}
	}
	return idx
}

// SequenceNumber is the sequence number the delete file was committed at.
func (l *EqualityDeleteLookup) SequenceNumber() int64 { return l.sequenceNumber }

// IsDeleted reports whether rowValues matches one of this delete file's
// equality-field value sets.
func (l *EqualityDeleteLookup) IsDeleted(rowValues map[int]any) bool {
	_, deleted := l.keys[CanonicalKey(l.equalityIDs, rowValues)]
	return deleted
}

// Row is one data-file record presented to the application pass: its
// physical position within the data file (for position-delete matching)
// and its full column values keyed by field-id (for equality-delete
// matching).
type Row struct {
	Position int64
	Values   map[int]any
}

// Apply runs the application pass for a single data file written at
// dataSequence: every row is checked against each applicable position
// lookup before any equality lookup is consulted, so a row removed
// positionally is never charged against equality_deleted too. Only
// lookups whose own sequence number is applicable to dataSequence (per
// IsApplicable) are consulted; older delete files than the data are
// skipped entirely.
func Apply(filePath string, dataSequence int64, rows []Row, positions []*PositionDeleteLookup, equality []*EqualityDeleteLookup) (passed []Row, positionDeleted, equalityDeleted int) {
	applicablePositions := make([]*PositionDeleteLookup, 0, len(positions))
	for _, p := range positions {
		if IsApplicable(p.SequenceNumber(), dataSequence) {
			applicablePositions = append(applicablePositions, p)
		}
	}
	applicableEquality := make([]*EqualityDeleteLookup, 0, len(equality))
	for _, e := range equality {
		if IsApplicable(e.SequenceNumber(), dataSequence) {
			applicableEquality = append(applicableEquality, e)
		}
	}

	for _, row := range rows {
		if isDeletedByPosition(applicablePositions, filePath, row.Position) {
			positionDeleted++
			continue
		}
		if isDeletedByEquality(applicableEquality, row.Values) {
			equalityDeleted++
			continue
		}
		passed = append(passed, row)
	}
	return passed, positionDeleted, equalityDeleted
}

func isDeletedByPosition(lookups []*PositionDeleteLookup, filePath string, pos int64) bool {
	for _, l := range lookups {
		if l.IsDeleted(filePath, pos) {
			return true
		}
	}
	return false
}

func isDeletedByEquality(lookups []*EqualityDeleteLookup, values map[int]any) bool {
	for _, l := range lookups {
		if l.IsDeleted(values) {
			return true
		}
	}
	return false
}

// Package manifest implements the manifest, manifest-list, and snapshot
// layer: building and reading the per-partition-spec manifest files,
// rolling them up into a manifest-list, and the snapshot lineage that
// ties a table's history together.
package manifest

// DataFileContent discriminates what a data file's bytes hold.
type DataFileContent int

const (
	ContentData DataFileContent = iota
	ContentPositionDeletes
	ContentEqualityDeletes
)

// FileFormat is the physical encoding of a data or delete file.
type FileFormat string

const (
	FormatParquet FileFormat = "parquet"
	FormatAvro    FileFormat = "avro"
	FormatORC     FileFormat = "orc"
)

// EntryStatus discriminates a manifest entry's relationship to the
// snapshot that added it.
type EntryStatus int

const (
	StatusExisting EntryStatus = iota
	StatusAdded
	StatusDeleted
)

// ManifestContent discriminates a whole manifest file: does it list
// data files or delete files.
type ManifestContent int

const (
	ManifestContentData ManifestContent = iota
	ManifestContentDeletes
)

// DataFile is the polymorphic {data, position-delete, equality-delete}
// entity: Content is the discriminator, the remaining fields are a flat
// union of every content kind's attributes rather than three distinct
// Go types, matching how the wire format itself is shaped.
type DataFile struct {
	Content         DataFileContent
	FilePath        string
	FileFormat      FileFormat
	Partition       map[string]any // keyed by partition field name
	RecordCount     int64
	FileSizeInBytes int64

	ColumnSizes     map[int]int64
	ValueCounts     map[int]int64
	NullValueCounts map[int]int64
	NanValueCounts  map[int]int64
	LowerBounds     map[int][]byte
	UpperBounds     map[int][]byte

	KeyMetadata   []byte
	SplitOffsets  []int64
	EqualityIDs   []int // v2+, only meaningful for ContentEqualityDeletes
	SortOrderID   *int

	// v3 deletion-vector fields; present together or not at all.
	FirstRowID         *int64
	ReferencedDataFile *string
	ContentOffset      *int64
	ContentSizeInBytes *int64
}

// ManifestEntry wraps a DataFile with the status/lineage fields that
// vary entry-by-entry inside the same manifest.
type ManifestEntry struct {
	Status             EntryStatus
	SnapshotID          *int64
	SequenceNumber      *int64
	FileSequenceNumber *int64
	DataFile           DataFile
}

// PartitionFieldSummary is one column's contribution to a manifest-list
// row's partition summary: whether any entry's value for that field was
// null/NaN, and the union of per-entry lower/upper bounds.
type PartitionFieldSummary struct {
	ContainsNull bool
	ContainsNaN  bool
	LowerBound   []byte
	UpperBound   []byte
}

// ManifestFileMeta is the manifest-list row summarizing one manifest.
type ManifestFileMeta struct {
	ManifestPath       string
	ManifestLength     int64
	PartitionSpecID    int
	Content            ManifestContent
	SequenceNumber     int64
	MinSequenceNumber  int64
	AddedSnapshotID    int64
	AddedFilesCount    *int32
	ExistingFilesCount *int32
	DeletedFilesCount  *int32
	AddedRowsCount     *int64
	ExistingRowsCount  *int64
	DeletedRowsCount   *int64
	Partitions         []PartitionFieldSummary
	KeyMetadata        []byte
	FirstRowID         *int64 // v3
}

// SnapshotOperation classifies what kind of change a snapshot represents.
type SnapshotOperation string

const (
	OperationAppend   SnapshotOperation = "append"
	OperationReplace  SnapshotOperation = "replace"
	OperationOverwrite SnapshotOperation = "overwrite"
	OperationDelete   SnapshotOperation = "delete"
)

// SnapshotSummary carries the operation tag and the counters Iceberg
// readers use to understand a snapshot's shape without scanning manifests.
type SnapshotSummary struct {
	Operation          SnapshotOperation
	AddedDataFiles     int64
	DeletedDataFiles   int64
	AddedRecords       int64
	DeletedRecords     int64
	TotalDataFiles     int64
	TotalRecords       int64
	AddedFileSize      int64
	RemovedFileSize    int64
	TotalFileSize      int64
	Extra              map[string]string
}

// Snapshot is an immutable, point-in-time view of a table.
type Snapshot struct {
	SnapshotID       int64
	ParentSnapshotID *int64
	SequenceNumber   int64
	TimestampMs      int64
	ManifestListPath string
	Summary          SnapshotSummary
	SchemaID         int

	FirstRowID *int64 // v3
	AddedRows  *int64 // v3
	KeyID      *int   // optional even under v3 encryption; never interpreted
}

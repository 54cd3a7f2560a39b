// Package catalog exposes the facade described for a table catalog: a
// set of (namespace, table) -> current-metadata-location mappings plus
// namespace properties, fronting the commit protocol's per-table
// Committer. Three implementations are provided: an in-memory
// reference (memcatalog), an ObjectStore-backed one that persists
// everything through objectstore.ObjectStore (objcatalog), and a
// SQL-backed one for catalogs that prefer a relational pointer table
// (sqlcatalog).
package catalog

import (
	"context"
	"fmt"

	"github.com/icelake-io/iceberg-engine/evolution"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/manifest"
	"github.com/icelake-io/iceberg-engine/metadata"
	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Identifier names a table within a catalog.
type Identifier struct {
	Namespace []string
	Name      string
}

// RequirementKind enumerates the commit_table preconditions a caller
// can assert against the table's current metadata.
type RequirementKind int

const (
	AssertTableUUID RequirementKind = iota
	AssertCurrentSchemaID
	AssertRefSnapshotID
)

// Requirement is one precondition checked against current metadata
// before a commit_table update sequence is applied. A failed
// requirement aborts the commit without writing anything.
type Requirement struct {
	Kind RequirementKind

	UUID string // AssertTableUUID

	SchemaID int // AssertCurrentSchemaID

	RefName    string // AssertRefSnapshotID
	SnapshotID *int64 // AssertRefSnapshotID; nil asserts the ref is unset
}

// Check validates the requirement against current, returning a
// CommonConflict error on mismatch.
func (r Requirement) Check(current *metadata.TableMetadata) error {
	switch r.Kind {
	case AssertTableUUID:
		if current.TableUUID != r.UUID {
			return errors.Conflict(fmt.Sprintf("table-uuid requirement failed: expected %q, found %q", r.UUID, current.TableUUID))
		}
	case AssertCurrentSchemaID:
		if current.CurrentSchemaID != r.SchemaID {
			return errors.Conflict(fmt.Sprintf("current-schema-id requirement failed: expected %d, found %d", r.SchemaID, current.CurrentSchemaID))
		}
	case AssertRefSnapshotID:
		ref, ok := current.Refs[r.RefName]
		if r.SnapshotID == nil {
			if ok {
				return errors.Conflict(fmt.Sprintf("ref %q requirement failed: expected unset, found snapshot %d", r.RefName, ref.SnapshotID))
			}
			return nil
		}
		if !ok || ref.SnapshotID != *r.SnapshotID {
			return errors.Conflict(fmt.Sprintf("ref %q requirement failed: expected snapshot %d", r.RefName, *r.SnapshotID))
		}
	}
	return nil
}

// UpdateKind enumerates the closed algebra of metadata mutations a
// commit_table call may apply, in the order the Iceberg REST/Java
// catalogs define them.
type UpdateKind int

const (
	AssignUUID UpdateKind = iota
	UpgradeFormatVersion
	AddSchema
	SetCurrentSchema
	AddSpec
	SetDefaultSpec
	AddSortOrder
	SetDefaultSortOrder
	AddSnapshot
	SetSnapshotRef
	RemoveSnapshots
	RemoveSnapshotRef
	SetProperties
	RemoveProperties
	SetLocation
)

// Update is one step of a commit_table update sequence. Only the
// fields relevant to Kind are populated; Apply ignores the rest.
type Update struct {
	Kind UpdateKind

	UUID string // AssignUUID

	FormatVersion int // UpgradeFormatVersion

	SchemaEvolution *evolution.Builder     // AddSchema
	SchemaID        int                    // SetCurrentSchema
	Spec            *iceberg.PartitionSpec // AddSpec
	SpecID          int                    // SetDefaultSpec
	Sort            *iceberg.SortOrder     // AddSortOrder
	SortID          int                    // SetDefaultSortOrder

	Snapshot manifest.Snapshot   // AddSnapshot; SetSnapshotRef reads Snapshot.SnapshotID
	RefName  string              // SetSnapshotRef / RemoveSnapshotRef
	RefType  manifest.RefType    // SetSnapshotRef

	SnapshotIDs []int64          // RemoveSnapshots

	Properties map[string]string // SetProperties
	Keys       []string          // RemoveProperties

	Location string // SetLocation
}

// Apply threads a single update through a metadata.Builder, returning
// an error for anything the builder itself rejects (e.g. a
// non-increasing snapshot sequence number).
func (u Update) Apply(b *metadata.Builder) (*metadata.Builder, error) {
	switch u.Kind {
	case AssignUUID:
		return b, nil // table UUID is fixed at creation; re-assigning it here is a no-op.
	case UpgradeFormatVersion:
		return b, nil // validated by the caller before proposing; the builder carries the version from construction.
	case AddSchema:
		return b.AddEvolvedSchema(u.SchemaEvolution)
	case SetCurrentSchema:
		return b.SetCurrentSchema(u.SchemaID), nil
	case AddSpec:
		return b.AddPartitionSpec(u.Spec, false), nil
	case SetDefaultSpec:
		return b.SetDefaultSpecID(u.SpecID)
	case AddSortOrder:
		return b.AddSortOrder(u.Sort, false), nil
	case SetDefaultSortOrder:
		return b.SetDefaultSortOrderID(u.SortID)
	case AddSnapshot:
		return b.AddSnapshot(u.Snapshot)
	case SetSnapshotRef:
		return b.SetSnapshotRef(u.RefName, u.Snapshot.SnapshotID, u.RefType)
	case RemoveSnapshots:
		return b.RemoveSnapshots(u.SnapshotIDs), nil
	case RemoveSnapshotRef:
		return b.RemoveSnapshotRef(u.RefName), nil
	case SetProperties:
		return b.SetProperties(u.Properties), nil
	case RemoveProperties:
		return b.RemoveProperties(u.Keys...), nil
	case SetLocation:
		return b.SetLocation(u.Location), nil
	default:
		return b, nil
	}
}

// Catalog is the facade every backend implements.
type Catalog interface {
	ListNamespaces(ctx context.Context, parent []string) ([][]string, error)
	CreateNamespace(ctx context.Context, path []string, props map[string]string) error
	DropNamespace(ctx context.Context, path []string) error
	NamespaceExists(ctx context.Context, path []string) (bool, error)
	LoadNamespaceProperties(ctx context.Context, path []string) (map[string]string, error)
	UpdateNamespaceProperties(ctx context.Context, path []string, updates map[string]string, removals []string) error

	ListTables(ctx context.Context, namespace []string) ([]string, error)
	CreateTable(ctx context.Context, id Identifier, meta *metadata.TableMetadata) error
	LoadTable(ctx context.Context, id Identifier) (*metadata.TableMetadata, string, error)
	TableExists(ctx context.Context, id Identifier) (bool, error)
	DropTable(ctx context.Context, id Identifier, purge bool) error
	RenameTable(ctx context.Context, from, to Identifier) error
	CommitTable(ctx context.Context, id Identifier, reqs []Requirement, updates []Update) (*metadata.TableMetadata, error)
}

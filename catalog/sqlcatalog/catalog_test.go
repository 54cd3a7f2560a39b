package sqlcatalog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/catalog"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/metadata"
	"github.com/icelake-io/iceberg-engine/objectstore/memory"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	c, err := Open(context.Background(), sqldb, memory.New(), "s3://bucket/warehouse")
	require.NoError(t, err)
	return c
}

func testMeta(t *testing.T, location string) *metadata.TableMetadata {
	t.Helper()
	schema, err := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()})
	require.NoError(t, err)
	m, err := metadata.NewBuilder(2, location).AddSchema(schema).SetCurrentSchema(0).Build()
	require.NoError(t, err)
	return m
}

func TestNamespaceLifecycleSQL(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, map[string]string{"owner": "alice"}))

	exists, err := c.NamespaceExists(ctx, []string{"db"})
	require.NoError(t, err)
	assert.True(t, exists)

	err = c.CreateNamespace(ctx, []string{"db"}, nil)
	require.Error(t, err)

	children, err := c.ListNamespaces(ctx, nil)
	require.NoError(t, err)
	assert.Contains(t, children, []string{"db"})

	require.NoError(t, c.UpdateNamespaceProperties(ctx, []string{"db"}, map[string]string{"team": "x"}, []string{"owner"}))
	props, err := c.LoadNamespaceProperties(ctx, []string{"db"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"team": "x"}, props)

	require.NoError(t, c.DropNamespace(ctx, []string{"db"}))
	exists, _ = c.NamespaceExists(ctx, []string{"db"})
	assert.False(t, exists)
}

func TestDropNamespaceFailsWhenNotEmptySQL(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))
	require.NoError(t, c.CreateTable(ctx, catalog.Identifier{Namespace: []string{"db"}, Name: "t"}, testMeta(t, "loc")))

	err := c.DropNamespace(ctx, []string{"db"})
	require.Error(t, err)
}

func TestTableLifecycleSQL(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))

	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	require.NoError(t, c.CreateTable(ctx, id, testMeta(t, "s3://bucket/warehouse/db/t")))

	exists, err := c.TableExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	_, loc, err := c.LoadTable(ctx, id)
	require.Error(t, err) // metadata decode is unsupported, but the location still comes back
	assert.NotEmpty(t, loc)

	renamed := catalog.Identifier{Namespace: []string{"db"}, Name: "t2"}
	require.NoError(t, c.RenameTable(ctx, id, renamed))
	exists, _ = c.TableExists(ctx, id)
	assert.False(t, exists)
	exists, _ = c.TableExists(ctx, renamed)
	assert.True(t, exists)

	require.NoError(t, c.DropTable(ctx, renamed, false))
	exists, _ = c.TableExists(ctx, renamed)
	assert.False(t, exists)
}

func TestCommitTableWithBaseAppliesUpdates(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))
	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	meta := testMeta(t, "s3://bucket/warehouse/db/t")
	require.NoError(t, c.CreateTable(ctx, id, meta))

	reqs := []catalog.Requirement{{Kind: catalog.AssertCurrentSchemaID, SchemaID: 0}}
	updates := []catalog.Update{{Kind: catalog.SetProperties, Properties: map[string]string{"owner": "bob"}}}

	newMeta, err := CommitTableWithBase(ctx, c, id, meta, reqs, updates)
	require.NoError(t, err)
	assert.Equal(t, "bob", newMeta.Properties["owner"])

	badReqs := []catalog.Requirement{{Kind: catalog.AssertCurrentSchemaID, SchemaID: 99}}
	_, err = CommitTableWithBase(ctx, c, id, meta, badReqs, nil)
	require.Error(t, err)
}

func TestCommitTableRequiresBase(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)
	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	_, err := c.CommitTable(ctx, id, nil, nil)
	require.Error(t, err)
}

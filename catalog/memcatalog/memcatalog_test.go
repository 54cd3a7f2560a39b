package memcatalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/catalog"
	"github.com/icelake-io/iceberg-engine/evolution"
	"github.com/icelake-io/iceberg-engine/iceberg"
	"github.com/icelake-io/iceberg-engine/metadata"
)

func testMeta(t *testing.T, location string) *metadata.TableMetadata {
	t.Helper()
	schema, err := iceberg.NewSchema(0, iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()})
	require.NoError(t, err)
	m, err := metadata.NewBuilder(2, location).AddSchema(schema).SetCurrentSchema(0).Build()
	require.NoError(t, err)
	return m
}

func TestNamespaceLifecycle(t *testing.T) {
	ctx := context.Background()
	c := New()

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

func TestDropNamespaceFailsWhenNotEmpty(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))
	require.NoError(t, c.CreateTable(ctx, catalog.Identifier{Namespace: []string{"db"}, Name: "t"}, testMeta(t, "loc")))

	err := c.DropNamespace(ctx, []string{"db"})
	require.Error(t, err)
}

func TestTableLifecycle(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))

	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	require.NoError(t, c.CreateTable(ctx, id, testMeta(t, "loc")))

	exists, err := c.TableExists(ctx, id)
	require.NoError(t, err)
	assert.True(t, exists)

	meta, loc, err := c.LoadTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "loc", loc)
	assert.Equal(t, 2, meta.FormatVersion)

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

func TestCommitTableAppliesUpdatesAndChecksRequirements(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))
	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	meta := testMeta(t, "loc")
	require.NoError(t, c.CreateTable(ctx, id, meta))

	reqs := []catalog.Requirement{{Kind: catalog.AssertCurrentSchemaID, SchemaID: 0}}
	updates := []catalog.Update{{Kind: catalog.SetProperties, Properties: map[string]string{"owner": "bob"}}}

	newMeta, err := c.CommitTable(ctx, id, reqs, updates)
	require.NoError(t, err)
	assert.Equal(t, "bob", newMeta.Properties["owner"])

	badReqs := []catalog.Requirement{{Kind: catalog.AssertCurrentSchemaID, SchemaID: 99}}
	_, err = c.CommitTable(ctx, id, badReqs, nil)
	require.Error(t, err)
}

// TestCommitTableAddSchemaEvolvesThroughBuilder confirms an AddSchema
// update is routed through an evolution.Builder rather than appending a
// hand-built schema verbatim: the resulting schema-id advances past the
// base schema's.
func TestCommitTableAddSchemaEvolvesThroughBuilder(t *testing.T) {
	ctx := context.Background()
	c := New()
	require.NoError(t, c.CreateNamespace(ctx, []string{"db"}, nil))
	id := catalog.Identifier{Namespace: []string{"db"}, Name: "t"}
	meta := testMeta(t, "loc")
	require.NoError(t, c.CreateTable(ctx, id, meta))

	base, ok := meta.CurrentSchema()
	require.True(t, ok)
	evo := evolution.NewBuilder(base, meta.LastColumnID, base.IdentifierFieldIDs).
		AddColumn("phone", iceberg.String(), false, "")

	updates := []catalog.Update{{Kind: catalog.AddSchema, SchemaEvolution: evo}}
	newMeta, err := c.CommitTable(ctx, id, nil, updates)
	require.NoError(t, err)

	require.Len(t, newMeta.Schemas, 2)
	assert.Equal(t, 1, newMeta.Schemas[1].ID)
	assert.Equal(t, 2, newMeta.LastColumnID)
}

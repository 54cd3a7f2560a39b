package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icelake-io/iceberg-engine/iceberg"
)

func baseSchema(t *testing.T) *iceberg.Schema {
	t.Helper()
	s, err := iceberg.NewSchema(1,
		iceberg.NestedField{ID: 1, Name: "id", Required: true, Type: iceberg.Int64()},
		iceberg.NestedField{ID: 2, Name: "name", Required: false, Type: iceberg.String()},
	)
	require.NoError(t, err)
	return s
}

func TestBuilderAddColumnAllocatesFromLastColumnID(t *testing.T) {
	schema := baseSchema(t)
	res, err := NewBuilder(schema, 2, nil).
		AddColumn("email", iceberg.String(), false, "contact email").
		Build()
	require.NoError(t, err)
	assert.Equal(t, 3, res.LastColumnID)
	f, ok := res.Schema.FindByName("email")
	require.True(t, ok)
	assert.Equal(t, 3, f.ID)
}

func TestBuilderBuildIncrementsSchemaID(t *testing.T) {
	schema := baseSchema(t)
	res, err := NewBuilder(schema, 2, nil).
		AddColumn("phone", iceberg.String(), false, "").
		Build()
	require.NoError(t, err)
	assert.Equal(t, schema.ID+1, res.Schema.ID)
}

func TestBuilderDropColumnProtectsIdentifierFields(t *testing.T) {
	schema := baseSchema(t)
	identifiers := map[int]bool{1: true}
	_, err := NewBuilder(schema, 2, identifiers).DropColumn("id").Build()
	require.Error(t, err)

	res, err := NewBuilder(schema, 2, identifiers).DropColumn("name").Build()
	require.NoError(t, err)
	_, ok := res.Schema.FindByName("name")
	assert.False(t, ok)
}

func TestBuilderUpdateColumnTypeRejectsNarrowing(t *testing.T) {
	schema := baseSchema(t)
	_, err := NewBuilder(schema, 2, nil).UpdateColumnType("id", iceberg.Int32()).Build()
	require.Error(t, err)
}

func TestBuilderRenameAndMove(t *testing.T) {
	schema := baseSchema(t)
	res, err := NewBuilder(schema, 2, nil).
		RenameColumn("name", "full_name").
		MoveFirst("full_name").
		Build()
	require.NoError(t, err)
	assert.Equal(t, "full_name", res.Schema.Fields[0].Name)
	assert.Equal(t, "id", res.Schema.Fields[1].Name)
}

func TestBuilderMoveBeforeSelfRejected(t *testing.T) {
	schema := baseSchema(t)
	_, err := NewBuilder(schema, 2, nil).MoveBefore("name", "name").Build()
	require.Error(t, err)
}

func TestBuilderMoveAfter(t *testing.T) {
	schema := baseSchema(t)
	res, err := NewBuilder(schema, 2, nil).
		AddColumn("email", iceberg.String(), false, "").
		MoveAfter("email", "id").
		Build()
	require.NoError(t, err)
	names := []string{res.Schema.Fields[0].Name, res.Schema.Fields[1].Name, res.Schema.Fields[2].Name}
	assert.Equal(t, []string{"id", "email", "name"}, names)
}

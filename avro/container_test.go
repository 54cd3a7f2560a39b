package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleRecordSchema() *Schema {
	return Record("simple",
		F("id", 1, Long()),
		F("name", 2, Nullable(String())),
	)
}

func TestContainerWriterRoundTrip(t *testing.T) {
	schema := simpleRecordSchema()
	w, err := NewContainerWriter(schema)
	require.NoError(t, err)
	w.SetMeta("manifest.content", "data")

	w.Append(map[string]any{"id": int64(1), "name": "alice"})
	w.Append(map[string]any{"id": int64(2), "name": nil})
	assert.Equal(t, 2, w.Len())

	data, err := w.Bytes()
	require.NoError(t, err)

	cf, err := ReadContainer(data, schema)
	require.NoError(t, err)
	assert.Equal(t, "data", cf.Header["manifest.content"])
	assert.Equal(t, NullCodec, cf.Codec)
	require.Len(t, cf.Records, 2)

	rec0 := cf.Records[0].(map[string]any)
	assert.Equal(t, int64(1), rec0["id"])
	assert.Equal(t, "alice", rec0["name"])

	rec1 := cf.Records[1].(map[string]any)
	assert.Equal(t, int64(2), rec1["id"])
	assert.Nil(t, rec1["name"])
}

func TestContainerEmptyFileHasNoBlocks(t *testing.T) {
	schema := simpleRecordSchema()
	w, err := NewContainerWriter(schema)
	require.NoError(t, err)

	data, err := w.Bytes()
	require.NoError(t, err)

	cf, err := ReadContainer(data, schema)
	require.NoError(t, err)
	assert.Empty(t, cf.Records)
}

func TestReadContainerRejectsBadMagic(t *testing.T) {
	_, err := ReadContainer([]byte("not-avro-at-all"), simpleRecordSchema())
	require.Error(t, err)
}

func TestReadContainerDetectsCorruptSyncMarker(t *testing.T) {
	schema := simpleRecordSchema()
	w, err := NewContainerWriter(schema)
	require.NoError(t, err)
	w.Append(map[string]any{"id": int64(1), "name": "bob"})

	data, err := w.Bytes()
	require.NoError(t, err)

	// flip the final byte of the trailing sync marker.
	data[len(data)-1] ^= 0xff

	_, err = ReadContainer(data, schema)
	require.Error(t, err)
}

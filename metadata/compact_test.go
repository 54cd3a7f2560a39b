package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactLogRetainsMostRecentVersions(t *testing.T) {
	log := []MetadataLogEntry{
		{TimestampMs: 1000, Path: "v1.json"},
		{TimestampMs: 2000, Path: "v2.json"},
		{TimestampMs: 3000, Path: "v3.json"},
	}
	out := CompactLog(log, 2, 0)
	assert.Len(t, out, 2)
	assert.Equal(t, "v2.json", out[0].Path)
	assert.Equal(t, "v3.json", out[1].Path)
}

func TestCompactLogDropsEntriesOlderThanMaxAge(t *testing.T) {
	log := []MetadataLogEntry{
		{TimestampMs: 0, Path: "v1.json"},
		{TimestampMs: 9000, Path: "v2.json"},
		{TimestampMs: 10000, Path: "v3.json"},
	}
	out := CompactLog(log, 0, 5000)
	require.NotEmpty(t, out)
	for _, e := range out {
		assert.GreaterOrEqual(t, e.TimestampMs, int64(5000))
	}
}

func TestCompactLogAlwaysKeepsAtLeastOne(t *testing.T) {
	log := []MetadataLogEntry{{TimestampMs: 0, Path: "v1.json"}}
	out := CompactLog(log, 0, 1)
	assert.Len(t, out, 1)
}

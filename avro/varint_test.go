package avro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZagRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 64, -64, 1 << 40, -(1 << 40)}
	for _, c := range cases {
		encoded := ZigZagEncode(c)
		assert.Equal(t, c, ZigZagDecode(encoded))
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, 128, -128, 1 << 20, -(1 << 20), 1 << 62, -(1 << 62)}
	var buf []byte
	for _, v := range values {
		buf = AppendVarint(buf, v)
	}
	c := &cursor{buf: buf}
	for _, want := range values {
		got, err := c.readVarint()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, len(buf), c.pos)
}

func TestReadVarintTruncatedBuffer(t *testing.T) {
	c := &cursor{buf: []byte{0x80, 0x80, 0x80}}
	_, err := c.readVarint()
	require.Error(t, err)
}

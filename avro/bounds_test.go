package avro

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBoundFixedWidth(t *testing.T) {
	cases := []struct {
		kind  BoundKind
		value any
		want  any
	}{
		{BoundBoolean, true, true},
		{BoundInt32, int64(42), int64(42)},
		{BoundInt32, int64(-1), int64(-1)},
		{BoundDate, int64(19723), int64(19723)},
		{BoundInt64, int64(1 << 40), int64(1 << 40)},
		{BoundFloat32, 1.5, 1.5},
		{BoundFloat64, 2.71828, 2.71828},
	}
	for _, c := range cases {
		encoded, err := EncodeBound(c.kind, c.value)
		require.NoError(t, err)
		decoded, err := DecodeBound(c.kind, encoded)
		require.NoError(t, err)
		assert.Equal(t, c.want, decoded)
	}
}

func TestEncodeDecodeBoundDecimal(t *testing.T) {
	cases := []int64{0, 1, -1, 12345, -12345, 1 << 30, -(1 << 30)}
	for _, c := range cases {
		v := big.NewInt(c)
		encoded, err := EncodeBound(BoundDecimal, v)
		require.NoError(t, err)
		decoded, err := DecodeBound(BoundDecimal, encoded)
		require.NoError(t, err)
		assert.Equal(t, 0, v.Cmp(decoded.(*big.Int)), "want %v got %v", v, decoded)
	}
}

func TestEncodeDecodeBoundStringAndBinary(t *testing.T) {
	encoded, err := EncodeBound(BoundString, "hello")
	require.NoError(t, err)
	decoded, err := DecodeBound(BoundString, encoded)
	require.NoError(t, err)
	assert.Equal(t, "hello", decoded)

	encoded, err = EncodeBound(BoundFixedOrBinary, []byte{0xde, 0xad})
	require.NoError(t, err)
	decoded, err = DecodeBound(BoundFixedOrBinary, encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, decoded)
}

func TestTruncateUpperBoundStringIncrementsLastRune(t *testing.T) {
	assert.Equal(t, "ab", TruncateUpperBoundString("ab", 5))
	assert.Equal(t, "ac", TruncateUpperBoundString("abcdef", 2))
	assert.Equal(t, "b", TruncateUpperBoundString("az", 1))
}

func TestTruncateLowerBoundStringIsPrefix(t *testing.T) {
	assert.Equal(t, "ab", TruncateLowerBoundString("abcdef", 2))
	assert.Equal(t, "abcdef", TruncateLowerBoundString("abcdef", 10))
}

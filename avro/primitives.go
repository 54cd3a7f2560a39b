package avro

import (
	"encoding/binary"
	"math"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// AppendBoolean writes a single 0/1 byte.
func AppendBoolean(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func (c *cursor) readBoolean() (bool, error) {
	b, err := c.readByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// AppendFloat writes a little-endian IEEE-754 single-precision float.
func AppendFloat(buf []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

func (c *cursor) readFloat() (float32, error) {
	b, err := c.readN(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

// AppendDouble writes a little-endian IEEE-754 double-precision float.
func AppendDouble(buf []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(buf, tmp[:]...)
}

func (c *cursor) readDouble() (float64, error) {
	b, err := c.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// AppendBytes writes a zig-zag length prefix followed by the raw bytes.
func AppendBytes(buf []byte, v []byte) []byte {
	buf = AppendVarint(buf, int64(len(v)))
	return append(buf, v...)
}

func (c *cursor) readBytes() ([]byte, error) {
	n, err := c.readVarint()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.InvalidInput("negative bytes length")
	}
	return c.readN(int(n))
}

// AppendString writes a zig-zag length prefix followed by UTF-8 bytes.
func AppendString(buf []byte, v string) []byte {
	return AppendBytes(buf, []byte(v))
}

func (c *cursor) readString() (string, error) {
	b, err := c.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

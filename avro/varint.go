// Package avro implements just enough of the Avro binary encoding to
// round-trip Iceberg's two object types (manifest_entry, manifest_file)
// and their container file framing, hand-rolled rather than built on a
// generic Avro package.
package avro

import (
	"fmt"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// ZigZagEncode maps a signed 64-bit value onto an unsigned one so that
// small-magnitude values (positive or negative) stay small when
// varint-encoded: 0,-1,1,-2,2,... -> 0,1,2,3,4,...
func ZigZagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// ZigZagDecode reverses ZigZagEncode.
func ZigZagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// AppendVarint writes the zig-zag varint encoding of v to buf and
// returns the extended slice. This is Avro's "long"/"int" wire format:
// 7 bits per byte, little-endian, continuation bit set on all but the
// last byte.
func AppendVarint(buf []byte, v int64) []byte {
	u := ZigZagEncode(v)
	for u >= 0x80 {
		buf = append(buf, byte(u)|0x80)
		u >>= 7
	}
	return append(buf, byte(u))
}

// ReadVarint reads a zig-zag varint from buf starting at offset off,
// returning the decoded value and the offset just past it.
func ReadVarint(buf []byte, off int) (int64, int, error) {
	var u uint64
	var shift uint
	start := off
	for {
		if off >= len(buf) {
			return 0, off, errors.New(errors.AvroCode("truncated_varint"), "truncated varint", nil).
				AddContext("start_offset", start)
		}
		b := buf[off]
		off++
		u |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 63 {
			return 0, off, errors.New(errors.AvroCode("varint_overflow"), "varint exceeds 64 bits", nil)
		}
	}
	return ZigZagDecode(u), off, nil
}

// cursor is a small helper for sequential decoding of a byte slice,
// reused across the primitive and value decoders in this package.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int { return len(c.buf) - c.pos }

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, errors.New(errors.AvroCode("truncated_read"), "unexpected end of buffer reading a byte", nil)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readN(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("negative read length %d", n))
	}
	if c.pos+n > len(c.buf) {
		return nil, errors.New(errors.AvroCode("truncated_read"), "unexpected end of buffer", nil).
			AddContext("want", n).AddContext("have", c.remaining())
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

func (c *cursor) readVarint() (int64, error) {
	v, pos, err := ReadVarint(c.buf, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos = pos
	return v, nil
}

package avro

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// BoundKind identifies the primitive family a lower/upper bound byte
// string was encoded from, so the canonical single-value serialization
// used for manifest statistics can pick the right wire shape.
type BoundKind int

const (
	BoundBoolean BoundKind = iota
	BoundInt32
	BoundInt64 // long, timestamp(micros), timestamptz(micros)
	BoundDate  // days, stored as int32
	BoundFloat32
	BoundFloat64
	BoundDecimal
	BoundString
	BoundFixedOrBinary
)

// EncodeBound serializes a single bound value per its canonical form.
func EncodeBound(kind BoundKind, value any) ([]byte, error) {
	switch kind {
	case BoundBoolean:
		v, err := asBool(value)
		if err != nil {
			return nil, err
		}
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case BoundInt32, BoundDate:
		v, err := asInt64(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
		return buf, nil
	case BoundInt64:
		v, err := asInt64(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(v))
		return buf, nil
	case BoundFloat32:
		v, err := asFloat64(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return buf, nil
	case BoundFloat64:
		v, err := asFloat64(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		return buf, nil
	case BoundDecimal:
		bi, ok := value.(*big.Int)
		if !ok {
			return nil, errors.InvalidInput("decimal bound requires *big.Int unscaled value")
		}
		return encodeBigIntTwosComplement(bi), nil
	case BoundString:
		s, err := asString(value)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case BoundFixedOrBinary:
		return asBytes(value)
	default:
		return nil, errors.InvalidInput("unknown bound kind")
	}
}

// DecodeBound is the inverse of EncodeBound for fixed-width kinds;
// string/binary/decimal bounds are typically consumed as raw bytes by
// callers (comparators operate directly on them), so only the
// fixed-width numeric kinds are exposed here.
func DecodeBound(kind BoundKind, data []byte) (any, error) {
	switch kind {
	case BoundBoolean:
		if len(data) != 1 {
			return nil, errors.InvalidInput("boolean bound must be 1 byte")
		}
		return data[0] != 0, nil
	case BoundInt32, BoundDate:
		if len(data) != 4 {
			return nil, errors.InvalidInput("int32 bound must be 4 bytes")
		}
		return int64(int32(binary.LittleEndian.Uint32(data))), nil
	case BoundInt64:
		if len(data) != 8 {
			return nil, errors.InvalidInput("int64 bound must be 8 bytes")
		}
		return int64(binary.LittleEndian.Uint64(data)), nil
	case BoundFloat32:
		if len(data) != 4 {
			return nil, errors.InvalidInput("float32 bound must be 4 bytes")
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data))), nil
	case BoundFloat64:
		if len(data) != 8 {
			return nil, errors.InvalidInput("float64 bound must be 8 bytes")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	case BoundDecimal:
		return decodeBigIntTwosComplement(data), nil
	case BoundString:
		return string(data), nil
	case BoundFixedOrBinary:
		return data, nil
	default:
		return nil, errors.InvalidInput("unknown bound kind")
	}
}

func encodeBigIntTwosComplement(v *big.Int) []byte {
	if v.Sign() >= 0 {
		b := v.Bytes()
		if len(b) == 0 || b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	// two's complement of a negative number: invert bits of (|v|-1).
	abs := new(big.Int).Abs(v)
	abs.Sub(abs, big.NewInt(1))
	b := abs.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	for i := range b {
		b[i] = ^b[i]
	}
	if b[0]&0x80 == 0 {
		b = append([]byte{0xff}, b...)
	}
	return b
}

func decodeBigIntTwosComplement(data []byte) *big.Int {
	if len(data) == 0 {
		return big.NewInt(0)
	}
	if data[0]&0x80 == 0 {
		return new(big.Int).SetBytes(data)
	}
	inv := make([]byte, len(data))
	for i, b := range data {
		inv[i] = ^b
	}
	v := new(big.Int).SetBytes(inv)
	v.Add(v, big.NewInt(1))
	return v.Neg(v)
}

// TruncateUpperBoundString truncates a string upper bound to maxLength
// and rounds the truncated prefix up to the next value
// lexicographically (increment the last Unicode code point; if that
// overflows, shorten by one rune and retry), so the result remains a
// valid (possibly non-tight) upper bound for every value it was
// truncated from. A string no longer than maxLength is returned
// unchanged.
func TruncateUpperBoundString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	truncated := runes[:maxLength]
	for len(truncated) > 0 {
		last := len(truncated) - 1
		if truncated[last] < utf8.MaxRune {
			truncated[last]++
			return string(truncated)
		}
		truncated = truncated[:last]
	}
	// every code point in the prefix was already utf8.MaxRune: no finite
	// ceiling exists shorter than the original string, so there is no
	// safe truncated upper bound — fall back to the untruncated value.
	return s
}

// CompareBounds orders two encoded bound values of the same kind,
// returning -1/0/1. Fixed-width numeric kinds compare by decoded value;
// string and fixed/binary bounds compare byte-for-byte, which is
// correct for UTF-8 lexicographic order and for raw fixed/binary data.
func CompareBounds(kind BoundKind, a, b []byte) (int, error) {
	switch kind {
	case BoundString, BoundFixedOrBinary:
		return compareBytes(a, b), nil
	case BoundDecimal:
		av := decodeBigIntTwosComplement(a)
		bv := decodeBigIntTwosComplement(b)
		return av.Cmp(bv), nil
	default:
		av, err := DecodeBound(kind, a)
		if err != nil {
			return 0, err
		}
		bv, err := DecodeBound(kind, b)
		if err != nil {
			return 0, err
		}
		return compareDecoded(kind, av, bv)
	}
}

func compareDecoded(kind BoundKind, a, b any) (int, error) {
	switch kind {
	case BoundBoolean:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0, nil
		}
		if !ab && bb {
			return -1, nil
		}
		return 1, nil
	case BoundInt32, BoundInt64, BoundDate:
		ai, bi := a.(int64), b.(int64)
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		default:
			return 0, nil
		}
	case BoundFloat32, BoundFloat64:
		af, bf := a.(float64), b.(float64)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, errors.InvalidInput("unsupported bound kind for comparison")
	}
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// TruncateLowerBoundString implements the analogous floor for lower
// bounds: a straightforward prefix truncation is always a valid
// (non-strict) lower bound since it sorts <= any string with that prefix.
func TruncateLowerBoundString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}

package avro

import (
	"fmt"
	"sort"

	"github.com/icelake-io/iceberg-engine/pkg/errors"
)

// Encode serializes a Go-native value (map[string]any for records,
// []any for arrays, map[string]any for maps, nil for null, etc.)
// against the given schema, appending to buf.
func Encode(buf []byte, schema *Schema, value any) ([]byte, error) {
	switch schema.Kind {
	case KNull:
		if value != nil {
			return nil, errors.InvalidInput("expected nil for null schema")
		}
		return buf, nil
	case KBoolean:
		v, err := asBool(value)
		if err != nil {
			return nil, err
		}
		return AppendBoolean(buf, v), nil
	case KInt, KLong:
		v, err := asInt64(value)
		if err != nil {
			return nil, err
		}
		return AppendVarint(buf, v), nil
	case KFloat:
		v, err := asFloat64(value)
		if err != nil {
			return nil, err
		}
		return AppendFloat(buf, float32(v)), nil
	case KDouble:
		v, err := asFloat64(value)
		if err != nil {
			return nil, err
		}
		return AppendDouble(buf, v), nil
	case KBytes:
		v, err := asBytes(value)
		if err != nil {
			return nil, err
		}
		return AppendBytes(buf, v), nil
	case KString:
		v, err := asString(value)
		if err != nil {
			return nil, err
		}
		return AppendString(buf, v), nil
	case KFixed:
		v, err := asBytes(value)
		if err != nil {
			return nil, err
		}
		if len(v) != schema.Size {
			return nil, errors.InvalidInput(fmt.Sprintf("fixed(%s): expected %d bytes, got %d", schema.Name, schema.Size, len(v)))
		}
		return append(buf, v...), nil
	case KArray:
		items, ok := value.([]any)
		if !ok && value != nil {
			return nil, errors.InvalidInput("expected []any for array schema")
		}
		if len(items) > 0 {
			buf = AppendVarint(buf, int64(len(items)))
			var err error
			for _, it := range items {
				buf, err = Encode(buf, schema.Items, it)
				if err != nil {
					return nil, err
				}
			}
		}
		buf = AppendVarint(buf, 0)
		return buf, nil
	case KMap:
		m, ok := value.(map[string]any)
		if !ok && value != nil {
			return nil, errors.InvalidInput("expected map[string]any for map schema")
		}
		if len(m) > 0 {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			buf = AppendVarint(buf, int64(len(m)))
			var err error
			for _, k := range keys {
				buf = AppendString(buf, k)
				buf, err = Encode(buf, schema.Values, m[k])
				if err != nil {
					return nil, err
				}
			}
		}
		buf = AppendVarint(buf, 0)
		return buf, nil
	case KUnion:
		return encodeUnion(buf, schema, value)
	case KRecord:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, errors.InvalidInput(fmt.Sprintf("expected map[string]any for record %q", schema.Name))
		}
		var err error
		for _, f := range schema.Fields {
			buf, err = Encode(buf, f.Type, m[f.Name])
			if err != nil {
				return nil, errors.AddContext(err, "field", f.Name)
			}
		}
		return buf, nil
	default:
		return nil, errors.InvalidInput("unknown schema kind")
	}
}

// encodeUnion picks the first branch the value is compatible with. Nil
// always resolves to a "null" branch if present; nullable fields are
// exactly 2-branch unions [null, T].
func encodeUnion(buf []byte, schema *Schema, value any) ([]byte, error) {
	if value == nil {
		for i, br := range schema.Branches {
			if br.Kind == KNull {
				buf = AppendVarint(buf, int64(i))
				return buf, nil
			}
		}
		return nil, errors.InvalidInput("union has no null branch for nil value")
	}
	for i, br := range schema.Branches {
		if br.Kind == KNull {
			continue
		}
		if compatible(br, value) {
			buf = AppendVarint(buf, int64(i))
			return Encode(buf, br, value)
		}
	}
	return nil, errors.InvalidInput(fmt.Sprintf("no union branch accepts value of type %T", value))
}

func compatible(s *Schema, v any) bool {
	switch s.Kind {
	case KBoolean:
		_, err := asBool(v)
		return err == nil
	case KInt, KLong:
		_, err := asInt64(v)
		return err == nil
	case KFloat, KDouble:
		_, err := asFloat64(v)
		return err == nil
	case KBytes, KFixed:
		_, err := asBytes(v)
		return err == nil
	case KString:
		_, err := asString(v)
		return err == nil
	case KArray:
		_, ok := v.([]any)
		return ok
	case KMap, KRecord:
		_, ok := v.(map[string]any)
		return ok
	default:
		return false
	}
}

// Decode deserializes a value of the given schema starting at offset
// off in buf, returning the decoded Go-native value and the offset
// just past it.
func Decode(buf []byte, schema *Schema, off int) (any, int, error) {
	c := &cursor{buf: buf, pos: off}
	v, err := decodeInto(c, schema)
	return v, c.pos, err
}

func decodeInto(c *cursor, schema *Schema) (any, error) {
	switch schema.Kind {
	case KNull:
		return nil, nil
	case KBoolean:
		return c.readBoolean()
	case KInt, KLong:
		return c.readVarint()
	case KFloat:
		v, err := c.readFloat()
		return float64(v), err
	case KDouble:
		return c.readDouble()
	case KBytes:
		return c.readBytes()
	case KString:
		return c.readString()
	case KFixed:
		return c.readN(schema.Size)
	case KArray:
		var out []any
		for {
			n, err := c.readVarint()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				break
			}
			count := n
			if count < 0 {
				// negative count is followed by a byte-size we don't need.
				if _, err := c.readVarint(); err != nil {
					return nil, err
				}
				count = -count
			}
			for i := int64(0); i < count; i++ {
				item, err := decodeInto(c, schema.Items)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
		}
		return out, nil
	case KMap:
		out := map[string]any{}
		for {
			n, err := c.readVarint()
			if err != nil {
				return nil, err
			}
			if n == 0 {
				break
			}
			count := n
			if count < 0 {
				if _, err := c.readVarint(); err != nil {
					return nil, err
				}
				count = -count
			}
			for i := int64(0); i < count; i++ {
				key, err := c.readString()
				if err != nil {
					return nil, err
				}
				val, err := decodeInto(c, schema.Values)
				if err != nil {
					return nil, err
				}
				out[key] = val
			}
		}
		return out, nil
	case KUnion:
		idx, err := c.readVarint()
		if err != nil {
			return nil, err
		}
		if idx < 0 || int(idx) >= len(schema.Branches) {
			return nil, errors.InvalidInput(fmt.Sprintf("union branch index %d out of range", idx))
		}
		return decodeInto(c, schema.Branches[idx])
	case KRecord:
		out := map[string]any{}
		for _, f := range schema.Fields {
			v, err := decodeInto(c, f.Type)
			if err != nil {
				return nil, errors.AddContext(err, "field", f.Name)
			}
			out[f.Name] = v
		}
		return out, nil
	default:
		return nil, errors.InvalidInput("unknown schema kind")
	}
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.InvalidInput(fmt.Sprintf("expected bool, got %T", v))
	}
	return b, nil
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	default:
		return 0, errors.InvalidInput(fmt.Sprintf("expected integer, got %T", v))
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, errors.InvalidInput(fmt.Sprintf("expected float, got %T", v))
	}
}

func asBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("expected []byte, got %T", v))
	}
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", errors.InvalidInput(fmt.Sprintf("expected string, got %T", v))
	}
}

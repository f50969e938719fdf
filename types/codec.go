package types

import (
	"fmt"
	"math"
	"reflect"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the value encoding. Each value is a single tagged
// protowire field; the field number carries the Go type.
const (
	fieldNil     protowire.Number = 1
	fieldBool    protowire.Number = 2
	fieldInt     protowire.Number = 3
	fieldInt64   protowire.Number = 4
	fieldUint    protowire.Number = 5
	fieldUint64  protowire.Number = 6
	fieldFloat64 protowire.Number = 7
	fieldFloat32 protowire.Number = 8
	fieldString  protowire.Number = 9
	fieldBytes   protowire.Number = 10
	fieldCustom  protowire.Number = 11
)

// Nested field numbers of a custom (registered) value.
const (
	customName    protowire.Number = 1
	customPayload protowire.Number = 2
)

// AppendValue appends an encoded value to the provided buffer. Supported
// values are nil, booleans, int, int64, uint, uint64, floats, strings,
// byte slices, and any type registered with Register.
func AppendValue(b []byte, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		b = protowire.AppendTag(b, fieldNil, protowire.VarintType)
		b = protowire.AppendVarint(b, 0)
	case bool:
		b = protowire.AppendTag(b, fieldBool, protowire.VarintType)
		if x {
			b = protowire.AppendVarint(b, 1)
		} else {
			b = protowire.AppendVarint(b, 0)
		}
	case int:
		b = protowire.AppendTag(b, fieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(x)))
	case int64:
		b = protowire.AppendTag(b, fieldInt64, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(x))
	case uint:
		b = protowire.AppendTag(b, fieldUint, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(x))
	case uint64:
		b = protowire.AppendTag(b, fieldUint64, protowire.VarintType)
		b = protowire.AppendVarint(b, x)
	case float64:
		b = protowire.AppendTag(b, fieldFloat64, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(x))
	case float32:
		b = protowire.AppendTag(b, fieldFloat32, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(x))
	case string:
		b = protowire.AppendTag(b, fieldString, protowire.BytesType)
		b = protowire.AppendString(b, x)
	case []byte:
		b = protowire.AppendTag(b, fieldBytes, protowire.BytesType)
		b = protowire.AppendBytes(b, x)
	default:
		s, ok := v.(Serializable)
		if !ok {
			return nil, fmt.Errorf("unsupported value type %T", v)
		}
		t, ok := typesByReflectType[reflect.TypeOf(v)]
		if !ok {
			return nil, fmt.Errorf("serializable type %T has not been registered", v)
		}
		payload, err := s.MarshalAppend(nil)
		if err != nil {
			return nil, err
		}
		var nested []byte
		nested = protowire.AppendTag(nested, customName, protowire.BytesType)
		nested = protowire.AppendString(nested, t.name)
		nested = protowire.AppendTag(nested, customPayload, protowire.BytesType)
		nested = protowire.AppendBytes(nested, payload)

		b = protowire.AppendTag(b, fieldCustom, protowire.BytesType)
		b = protowire.AppendBytes(b, nested)
	}
	return b, nil
}

// ConsumeValue decodes a value from the beginning of the provided
// buffer, returning the value and the number of bytes that were read.
func ConsumeValue(b []byte) (any, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("invalid value tag: %w", protowire.ParseError(n))
	}
	switch num {
	case fieldNil, fieldBool, fieldInt, fieldInt64, fieldUint, fieldUint64:
		if typ != protowire.VarintType {
			return nil, 0, fmt.Errorf("field %d: unexpected wire type %d", num, typ)
		}
		u, vn := protowire.ConsumeVarint(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		n += vn
		switch num {
		case fieldNil:
			return nil, n, nil
		case fieldBool:
			return u != 0, n, nil
		case fieldInt:
			return int(protowire.DecodeZigZag(u)), n, nil
		case fieldInt64:
			return protowire.DecodeZigZag(u), n, nil
		case fieldUint:
			return uint(u), n, nil
		default:
			return u, n, nil
		}
	case fieldFloat64:
		u, vn := protowire.ConsumeFixed64(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		return math.Float64frombits(u), n + vn, nil
	case fieldFloat32:
		u, vn := protowire.ConsumeFixed32(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		return math.Float32frombits(u), n + vn, nil
	case fieldString:
		s, vn := protowire.ConsumeString(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		return s, n + vn, nil
	case fieldBytes:
		raw, vn := protowire.ConsumeBytes(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, n + vn, nil
	case fieldCustom:
		nested, vn := protowire.ConsumeBytes(b[n:])
		if vn < 0 {
			return nil, 0, fmt.Errorf("field %d: %w", num, protowire.ParseError(vn))
		}
		v, err := consumeCustom(nested)
		if err != nil {
			return nil, 0, err
		}
		return v, n + vn, nil
	default:
		return nil, 0, fmt.Errorf("unknown value field %d", num)
	}
}

func consumeCustom(b []byte) (any, error) {
	var name string
	var payload []byte
	var sawName, sawPayload bool

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("invalid custom value tag: %w", protowire.ParseError(n))
		}
		if typ != protowire.BytesType {
			return nil, fmt.Errorf("custom value field %d: unexpected wire type %d", num, typ)
		}
		raw, vn := protowire.ConsumeBytes(b[n:])
		if vn < 0 {
			return nil, fmt.Errorf("custom value field %d: %w", num, protowire.ParseError(vn))
		}
		switch num {
		case customName:
			name = string(raw)
			sawName = true
		case customPayload:
			payload = raw
			sawPayload = true
		}
		b = b[n+vn:]
	}
	if !sawName || !sawPayload {
		return nil, fmt.Errorf("custom value missing name or payload")
	}
	t, ok := typesByName[name]
	if !ok {
		return nil, fmt.Errorf("serializable type %q not registered", name)
	}
	v, _, err := t.constructor(payload)
	if err != nil {
		return nil, err
	}
	return v, nil
}

package types

import (
	"math"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestValueRoundTrip(t *testing.T) {
	values := []any{
		nil,
		true,
		false,
		int(42),
		int(-42),
		int64(math.MinInt64),
		uint(7),
		uint64(math.MaxUint64),
		float64(3.25),
		float32(-1.5),
		"hello",
		"",
		[]byte{0, 1, 2},
	}

	var b []byte
	for _, v := range values {
		var err error
		b, err = AppendValue(b, v)
		if err != nil {
			t.Fatalf("append %T: %v", v, err)
		}
	}

	for _, want := range values {
		v, n, err := ConsumeValue(b)
		if err != nil {
			t.Fatalf("consume %T: %v", want, err)
		}
		if !reflect.DeepEqual(v, want) {
			t.Errorf("got %#v (%T), expect %#v (%T)", v, v, want, want)
		}
		b = b[n:]
	}
	if len(b) != 0 {
		t.Errorf("%d trailing bytes after consuming all values", len(b))
	}
}

func TestAppendUnsupportedType(t *testing.T) {
	if _, err := AppendValue(nil, struct{ A int }{A: 1}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

type stray struct{}

func (stray) MarshalAppend(b []byte) ([]byte, error) { return b, nil }

func TestAppendUnregisteredSerializable(t *testing.T) {
	if _, err := AppendValue(nil, stray{}); err == nil {
		t.Error("expected error for unregistered serializable")
	}
}

type point struct{ X, Y int64 }

func (p point) MarshalAppend(b []byte) ([]byte, error) {
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(p.X))
	return protowire.AppendVarint(b, protowire.EncodeZigZag(p.Y)), nil
}

func (p *point) Unmarshal(b []byte) (int, error) {
	x, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	y, vn := protowire.ConsumeVarint(b[n:])
	if vn < 0 {
		return 0, protowire.ParseError(vn)
	}
	p.X = protowire.DecodeZigZag(x)
	p.Y = protowire.DecodeZigZag(y)
	return n + vn, nil
}

func init() { Register("types.test.point", point{}) }

func TestCustomRoundTrip(t *testing.T) {
	want := point{X: -3, Y: 9}
	b, err := AppendValue(nil, want)
	if err != nil {
		t.Fatal(err)
	}

	v, n, err := ConsumeValue(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Errorf("consumed %d of %d bytes", n, len(b))
	}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("got %#v, expect %#v", v, want)
	}
}

type label string

func (l label) MarshalAppend(b []byte) ([]byte, error) {
	return protowire.AppendString(b, string(l)), nil
}

func unmarshalLabel(b []byte) (Serializable, int, error) {
	s, n := protowire.ConsumeString(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return label(s), n, nil
}

func init() { RegisterConstructor("types.test.label", label(""), unmarshalLabel) }

func TestCustomConstructorRoundTrip(t *testing.T) {
	b, err := AppendValue(nil, label("abc"))
	if err != nil {
		t.Fatal(err)
	}

	v, n, err := ConsumeValue(b)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(b) {
		t.Errorf("consumed %d of %d bytes", n, len(b))
	}
	if v != label("abc") {
		t.Errorf("got %#v, expect label abc", v)
	}
}

func TestConsumeUnknownCustomName(t *testing.T) {
	var nested []byte
	nested = protowire.AppendTag(nested, customName, protowire.BytesType)
	nested = protowire.AppendString(nested, "types.test.unknown")
	nested = protowire.AppendTag(nested, customPayload, protowire.BytesType)
	nested = protowire.AppendBytes(nested, nil)

	b := protowire.AppendTag(nil, fieldCustom, protowire.BytesType)
	b = protowire.AppendBytes(b, nested)

	if _, _, err := ConsumeValue(b); err == nil {
		t.Error("expected error for unregistered custom name")
	}
}

func TestConsumeCustomMissingPayload(t *testing.T) {
	var nested []byte
	nested = protowire.AppendTag(nested, customName, protowire.BytesType)
	nested = protowire.AppendString(nested, "types.test.point")

	b := protowire.AppendTag(nil, fieldCustom, protowire.BytesType)
	b = protowire.AppendBytes(b, nested)

	if _, _, err := ConsumeValue(b); err == nil {
		t.Error("expected error for custom value without payload")
	}
}

func TestConsumeTruncated(t *testing.T) {
	b, err := AppendValue(nil, "hello")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < len(b); i++ {
		if _, _, err := ConsumeValue(b[:i]); err == nil {
			t.Errorf("no error for a %d byte prefix", i)
		}
	}
}

// Package types provides the wire codec for slot values stored in
// generator frames. Scalar Go values are encoded directly; other types
// must implement Serializable and be registered under a stable name so
// that snapshots can be decoded by a different process.
package types

import (
	"fmt"
	"reflect"
)

// Serializable objects can be serialized to bytes.
type Serializable interface {
	// MarshalAppend marshals the object and appends the resulting bytes to
	// the provided buffer.
	MarshalAppend(b []byte) ([]byte, error)
}

// Deserializable objects can be deserialized from bytes.
type Deserializable interface {
	// Unmarshal unmarshals an object from a buffer. It returns the number of
	// bytes that were read from the buffer in order to reconstruct the object.
	Unmarshal(b []byte) (n int, err error)
}

// Register registers a Serializable type under a name for use with
// AppendValue and ConsumeValue. The name is part of the wire format and
// must be identical in every process that decodes the data; choose
// something package-qualified and keep it stable.
//
// The specified Serializable must implement Deserializable, either
// directly or indirectly (i.e. either s or *s implements Deserializable).
//
// A constructor for the Serializable is generated using reflection and
// passed to RegisterConstructor. It may be more efficient to manually
// generate a constructor and call RegisterConstructor instead.
func Register(name string, s Serializable) {
	reflectType := reflect.TypeOf(s)

	switch {
	case reflectType.Implements(deserializableType):
		RegisterConstructor(name, s, func(b []byte) (Serializable, int, error) {
			v := reflect.Zero(reflectType).Interface()
			n, err := v.(Deserializable).Unmarshal(b)
			return v.(Serializable), n, err
		})
	case reflect.PtrTo(reflectType).Implements(deserializableType):
		RegisterConstructor(name, s, func(b []byte) (Serializable, int, error) {
			p := reflect.New(reflectType)
			n, err := p.Interface().(Deserializable).Unmarshal(b)
			return p.Elem().Interface().(Serializable), n, err
		})
	default:
		panic(fmt.Sprintf("type %T is not Deserializable", s))
	}
}

// RegisterConstructor registers a Serializable type under a name for use
// with AppendValue and ConsumeValue.
//
// The caller is expected to provide a constructor that unmarshals bytes
// into an instance of the specified Serializable.
//
// If the Serializable implements Deserializable, a constructor can
// instead automatically be generated using reflection. See Register.
func RegisterConstructor(name string, s Serializable, constructor UnmarshalFunc) {
	reflectType := reflect.TypeOf(s)
	if _, ok := typesByReflectType[reflectType]; ok {
		panic(fmt.Sprintf("serializable type %T already registered", s))
	}
	if _, ok := typesByName[name]; ok {
		panic(fmt.Sprintf("serializable type name %q already registered", name))
	}

	t := &registeredType{
		name:        name,
		constructor: constructor,
	}
	typesByReflectType[reflectType] = t
	typesByName[name] = t
}

// UnmarshalFunc unmarshals a Serializable object from a buffer. It
// returns the object, and the number of bytes that were read from the
// buffer in order to reconstruct the object.
type UnmarshalFunc func([]byte) (Serializable, int, error)

var typesByReflectType = map[reflect.Type]*registeredType{}
var typesByName = map[string]*registeredType{}

type registeredType struct {
	name        string
	constructor UnmarshalFunc
}

var deserializableType = reflect.TypeOf((*Deserializable)(nil)).Elem()

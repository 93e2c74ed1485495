// Package codec serializes WireValues (nil, bool, int64, float64, string,
// []any, map[string]any) to bytes and back.
//
// Every Serializer hands Unmarshal results back in that same normalized
// shape: integers as int64, floats as float64, objects as map[string]any.
package codec

// Serializer converts a WireValue to bytes and back.
type Serializer interface {
	// ID identifies the serializer inside envelopes. Stable across releases.
	ID() byte
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(b []byte) (any, error)
}

const (
	IDJSON     byte = 1
	IDCBOR     byte = 2
	IDMsgpack  byte = 3
	IDProtobuf byte = 4
)

// Lookup returns the built-in serializer for id.
func Lookup(id byte) (Serializer, bool) {
	switch id {
	case IDJSON:
		return JSON{}, true
	case IDCBOR:
		return defaultCBOR, true
	case IDMsgpack:
		return Msgpack{}, true
	case IDProtobuf:
		return Protobuf{}, true
	}
	return nil, false
}

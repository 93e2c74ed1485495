package codec

import (
	"bytes"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes WireValues with vmihailenco/msgpack/v5.
// The zero value is ready to use. Map keys are sorted so equal values
// produce equal bytes.
type Msgpack struct{}

var _ Serializer = Msgpack{}

func (Msgpack) ID() byte     { return IDMsgpack }
func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack) Unmarshal(b []byte) (any, error) {
	r := bytes.NewReader(b)
	dec := msgpack.NewDecoder(r)
	// int64/uint64/float64 instead of the narrowest wire type, also for
	// nested values
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, err
	}
	if r.Len() > 0 {
		return nil, errors.New("msgpack: trailing data after value")
	}
	return normalize(v)
}

package typewire

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/typewire/codec"
	"github.com/unkn0wn-root/typewire/internal/wire"
)

const defaultMaxDepth = 256

// Options configure a Codec. The zero value is usable.
type Options struct {
	Registry   *Registry        // nil => DefaultRegistry
	Serializer codec.Serializer // nil => codec.JSON{}
	MaxDepth   int              // nesting guard; 0 => 256
	Logger     Logger           // carried for outer layers; nil => NopLogger
}

// Codec converts values to and from WireValues under explicit descriptors,
// and to bytes through its Serializer. It holds no mutable state and is safe
// for concurrent use.
type Codec struct {
	reg      *Registry
	ser      codec.Serializer
	maxDepth int
	log      Logger
}

func New(opts Options) *Codec {
	return &Codec{
		reg:      coalesce[*Registry](opts.Registry, DefaultRegistry),
		ser:      coalesce[codec.Serializer](opts.Serializer, codec.JSON{}),
		maxDepth: coalesce(opts.MaxDepth, defaultMaxDepth),
		log:      coalesce[Logger](opts.Logger, NopLogger{}),
	}
}

// Default uses DefaultRegistry and JSON.
var Default = New(Options{})

func (c *Codec) Registry() *Registry          { return c.reg }
func (c *Codec) Serializer() codec.Serializer { return c.ser }
func (c *Codec) Logger() Logger               { return c.log }

func (c *Codec) walker() *walker { return &walker{reg: c.reg, max: c.maxDepth} }

// Encode converts v to a WireValue following t.
func (c *Codec) Encode(v any, t *Type) (any, error) {
	return c.walker().encode(v, t)
}

// Decode converts a WireValue back to a value following t.
func (c *Codec) Decode(w any, t *Type) (any, error) {
	return c.walker().decode(w, t)
}

// Marshal encodes v and serializes the WireValue.
func (c *Codec) Marshal(v any, t *Type) ([]byte, error) {
	w, err := c.Encode(v, t)
	if err != nil {
		return nil, err
	}
	b, err := c.ser.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("typewire: %s marshal: %w", c.ser.Name(), err)
	}
	return b, nil
}

// Unmarshal deserializes b and decodes it following t.
func (c *Codec) Unmarshal(b []byte, t *Type) (any, error) {
	return c.unmarshalWith(c.ser, b, t)
}

func (c *Codec) unmarshalWith(s codec.Serializer, b []byte, t *Type) (any, error) {
	w, err := s.Unmarshal(b)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Msg: s.Name() + " unmarshal", Err: err}
	}
	return c.Decode(w, t)
}

// MarshalEnvelope is Marshal framed with the serializer id and the
// descriptor fingerprint.
func (c *Codec) MarshalEnvelope(v any, t *Type) ([]byte, error) {
	payload, err := c.Marshal(v, t)
	if err != nil {
		return nil, err
	}
	return wire.EncodeEnvelope(wire.Envelope{
		Serializer:  c.ser.ID(),
		Fingerprint: c.reg.Fingerprint(t),
		Payload:     payload,
	}), nil
}

// UnmarshalEnvelope reads a frame written by MarshalEnvelope. The payload is
// read with the serializer named in the frame; a frame written under another
// descriptor fails with ErrSchemaMismatch.
func (c *Codec) UnmarshalEnvelope(b []byte, t *Type) (any, error) {
	env, err := wire.DecodeEnvelope(b)
	if err != nil {
		return nil, &Error{Kind: ErrDecode, Msg: "envelope", Err: err}
	}
	if want := c.reg.Fingerprint(t); env.Fingerprint != want {
		return nil, &Error{
			Kind: ErrSchemaMismatch,
			Msg:  fmt.Sprintf("envelope fingerprint %016x, descriptor %s has %016x", env.Fingerprint, t, want),
		}
	}
	s := c.ser
	if env.Serializer != s.ID() {
		var ok bool
		if s, ok = codec.Lookup(env.Serializer); !ok {
			return nil, &Error{Kind: ErrDecode, Msg: fmt.Sprintf("unknown serializer id %d", env.Serializer)}
		}
	}
	return c.unmarshalWith(s, env.Payload, t)
}

// DecodeAs decodes w and asserts the result to T.
func DecodeAs[T any](c *Codec, w any, t *Type) (T, error) {
	v, err := c.Decode(w, t)
	return as[T](v, t, err)
}

// UnmarshalAs unmarshals b and asserts the result to T.
func UnmarshalAs[T any](c *Codec, b []byte, t *Type) (T, error) {
	v, err := c.Unmarshal(b, t)
	return as[T](v, t, err)
}

func as[T any](v any, t *Type, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, &Error{Kind: ErrTypeMismatch, Type: t, Value: v, Msg: fmt.Sprintf("decoded value is not %T", zero)}
	}
	return out, nil
}

// Encode uses Default.
func Encode(v any, t *Type) (any, error) { return Default.Encode(v, t) }

// Decode uses Default.
func Decode(w any, t *Type) (any, error) { return Default.Decode(w, t) }

// IsDecodeFailure reports whether err means the wire data does not fit the
// descriptor, as opposed to a configuration problem (ErrUnknownType) or an
// encode-side mismatch.
func IsDecodeFailure(err error) bool {
	for _, k := range []error{ErrDecode, ErrMissingField, ErrUnknownEnumValue, ErrArityMismatch, ErrDepthExceeded, ErrSchemaMismatch} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

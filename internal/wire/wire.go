package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("typewire: corrupt envelope")
	magic4     = [...]byte{'T', 'W', 'I', 'R'}
)

// Envelope frames a serialized payload with the id of the serializer that
// produced it and the fingerprint of the descriptor it was encoded under.
type Envelope struct {
	Serializer  byte
	Fingerprint uint64
	Payload     []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// EncodeEnvelope writes:
// magic(4) | ver(1) | serializer(1) | fingerprint(u64 be) | plen(u32 be) | payload(plen)
func EncodeEnvelope(e Envelope) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(e.Serializer)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Fingerprint)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])

	buf.Write(e.Payload)
	return buf.Bytes()
}

// DecodeEnvelope parses a frame written by EncodeEnvelope. The returned
// Payload aliases b. Trailing bytes after the payload are rejected.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version {
		return Envelope{}, ErrCorrupt
	}

	e := Envelope{Serializer: b[5]}
	off := 6

	// fingerprint
	e.Fingerprint = binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	// plen
	plen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if plen < 0 || plen != len(b)-off {
		return Envelope{}, ErrCorrupt
	}

	e.Payload = b[off : off+plen]
	return e, nil
}

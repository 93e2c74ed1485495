package wire

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func mustDecode(t *testing.T, b []byte) Envelope {
	t.Helper()
	e, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("DecodeEnvelope error: %v", err)
	}
	return e
}

func TestEnvelopeRoundTrip(t *testing.T) {
	cases := []Envelope{
		{Serializer: 1, Fingerprint: 0, Payload: nil},
		{Serializer: 2, Fingerprint: 42, Payload: []byte("hello")},
		{Serializer: 4, Fingerprint: math.MaxUint64, Payload: []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		got := mustDecode(t, EncodeEnvelope(tc))
		if got.Serializer != tc.Serializer {
			t.Fatalf("serializer mismatch: got %d want %d", got.Serializer, tc.Serializer)
		}
		if got.Fingerprint != tc.Fingerprint {
			t.Fatalf("fingerprint mismatch: got %x want %x", got.Fingerprint, tc.Fingerprint)
		}
		if !bytes.Equal(got.Payload, tc.Payload) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestEnvelopeRejectsTrailingBytes(t *testing.T) {
	enc := EncodeEnvelope(Envelope{Serializer: 1, Fingerprint: 7, Payload: []byte("x")})
	enc = append(enc, 0xDE, 0xAD)
	if _, err := DecodeEnvelope(enc); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestEnvelopeCorruptHeadersAndLengths(t *testing.T) {
	enc := EncodeEnvelope(Envelope{Serializer: 1, Fingerprint: 1, Payload: []byte("abc")})

	// bad magic
	badMagic := append([]byte(nil), enc...)
	badMagic[0] = 'X'
	if _, err := DecodeEnvelope(badMagic); err == nil {
		t.Fatalf("expected error on bad magic")
	}

	// wrong version
	badVer := append([]byte(nil), enc...)
	badVer[4] = version + 1
	if _, err := DecodeEnvelope(badVer); err == nil {
		t.Fatalf("expected error on bad version")
	}

	// plen is at offset 14..17 (4 magic +1 ver +1 serializer +8 fingerprint)
	tooLong := append([]byte(nil), enc...)
	binary.BigEndian.PutUint32(tooLong[14:18], uint32(len("abc")+1))
	if _, err := DecodeEnvelope(tooLong); err == nil {
		t.Fatalf("expected error on plen beyond buffer")
	}

	trunc := enc[:len(enc)-1]
	if _, err := DecodeEnvelope(trunc); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}

	if _, err := DecodeEnvelope(enc[:hdrLen-1]); err == nil {
		t.Fatalf("expected error on short header")
	}
}

func TestEnvelopeZeroCopyPayload(t *testing.T) {
	enc := EncodeEnvelope(Envelope{Serializer: 1, Payload: []byte("Z")})
	e := mustDecode(t, enc)
	// mutate payload slice. should mutate underlying enc bytes
	e.Payload[0] = 'Q'
	if mustDecode(t, enc).Payload[0] != 'Q' {
		t.Fatalf("expected zero-copy slice into enc buffer")
	}
}

package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// JSON is the reference textual serializer. Numbers are read with UseNumber
// so integers survive exactly: text without a fraction or exponent becomes
// int64, everything else float64.
type JSON struct{}

var _ Serializer = JSON{}

func (JSON) ID() byte                      { return IDJSON }
func (JSON) Name() string                  { return "json" }
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("json: trailing data after value")
	}
	return normalize(v)
}

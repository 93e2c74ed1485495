package codec

import "fmt"

// Limit wraps another serializer to enforce a maximum allowed payload size
// at Unmarshal time. Marshal is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized/malicious inputs coming from a
// remote peer or a shared store.
type Limit struct {
	// Inner is the underlying serializer being wrapped. It must be set.
	Inner Serializer
	// MaxDecode is the maximum permitted length (in bytes) of the incoming
	// payload for Unmarshal.
	MaxDecode int
}

var _ Serializer = Limit{}

func (c Limit) ID() byte                      { return c.Inner.ID() }
func (c Limit) Name() string                  { return c.Inner.Name() }
func (c Limit) Marshal(v any) ([]byte, error) { return c.Inner.Marshal(v) }

func (c Limit) Unmarshal(b []byte) (any, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		return nil, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Unmarshal(b)
}

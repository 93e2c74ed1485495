package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// maxExactInt is the largest integer a float64 number holds exactly.
const maxExactInt = 1 << 53

// Protobuf serializes WireValues as google.protobuf.Value messages.
//
// protobuf's Value carries every number as a double, so Marshal refuses
// integers outside ±2^53 and Unmarshal reports integral numbers in that
// range as int64. Floats with an integral value (2.0) therefore come back
// as int64; typewire's Float decoding accepts integers.
type Protobuf struct{}

var _ Serializer = Protobuf{}

func (Protobuf) ID() byte     { return IDProtobuf }
func (Protobuf) Name() string { return "protobuf" }

func (Protobuf) Marshal(v any) ([]byte, error) {
	if err := exactInts(v); err != nil {
		return nil, err
	}
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(pv)
}

func (Protobuf) Unmarshal(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return integral(pv.AsInterface()), nil
}

func exactInts(v any) error {
	switch x := v.(type) {
	case int64:
		if x > maxExactInt || x < -maxExactInt {
			return fmt.Errorf("integer %d does not fit a protobuf double", x)
		}
	case []any:
		for _, it := range x {
			if err := exactInts(it); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, it := range x {
			if err := exactInts(it); err != nil {
				return err
			}
		}
	}
	return nil
}

func integral(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= maxExactInt {
			return int64(x)
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = integral(it)
		}
		return x
	case map[string]any:
		for k, it := range x {
			x[k] = integral(it)
		}
		return x
	}
	return v
}

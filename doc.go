// Package typewire is a type-directed structural codec. Given a value and an
// explicit descriptor (*Type) it converts the value to and from a WireValue:
// nil, bool, int64, float64, string, []any and map[string]any. The
// descriptor, never the runtime value, drives traversal in both directions.
//
// Shapes:
//   - primitives: Int, Float, Str, Bool, None
//   - Optional(inner) and ordered Union(branches...)
//   - ResultOf(success, failure): {"tag": "success"|"failure", "payload": ...}
//   - Seq(item) and SeqOf(kind, item) for registered sequence subtypes
//   - TupleOf(items...), Map(key, value), Enum(name, underlying, members...)
//   - Bytes (standard base64), Timestamp (RFC 3339 text)
//   - records, declared once in a Registry and referenced by name with Ref,
//     so self-referential records are finite to declare
//
// Example:
//
//	reg := typewire.NewRegistry()
//	node := reg.Define("Node",
//	    typewire.F("value", typewire.Int()),
//	    typewire.FDefault("node", typewire.Optional(typewire.Ref("Node")), nil),
//	)
//	c := typewire.New(typewire.Options{Registry: reg})
//	b, _ := c.Marshal(typewire.NewRecord("Node", "value", 1, "node", nil), node)
//	v, _ := c.Unmarshal(b, node)
//
// Both ends must use the same descriptor; the wire carries no schema. The
// envelope helpers (MarshalEnvelope) add a fingerprint of the descriptor so a
// mismatch is detected instead of misread.
package typewire

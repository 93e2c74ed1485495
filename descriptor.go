package typewire

import (
	"fmt"
	"strings"
)

// Kind identifies the shape a Type describes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindStr
	KindBool
	KindNone
	KindOptional
	KindUnion
	KindSequence
	KindTuple
	KindMapping
	KindBytes
	KindTimestamp
	KindEnum
	KindRecord
	KindResult
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindInt:       "int",
	KindFloat:     "float",
	KindStr:       "str",
	KindBool:      "bool",
	KindNone:      "none",
	KindOptional:  "optional",
	KindUnion:     "union",
	KindSequence:  "seq",
	KindTuple:     "tuple",
	KindMapping:   "map",
	KindBytes:     "bytes",
	KindTimestamp: "timestamp",
	KindEnum:      "enum",
	KindRecord:    "record",
	KindResult:    "result",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// BaseSequence is the sequence kind every Registry understands.
// It decodes to []any.
const BaseSequence = "list"

// Type is an immutable descriptor of an expected value shape.
// Build it with the constructors below; the zero value is invalid.
//
// Records are referenced by name and resolved against a Registry at use,
// so self-referential and mutually recursive records are finite to declare.
type Type struct {
	kind    Kind
	name    string  // record name, sequence kind or enum name
	elems   []*Type // see accessors
	members []Member
}

var (
	intType       = &Type{kind: KindInt}
	floatType     = &Type{kind: KindFloat}
	strType       = &Type{kind: KindStr}
	boolType      = &Type{kind: KindBool}
	noneType      = &Type{kind: KindNone}
	bytesType     = &Type{kind: KindBytes}
	timestampType = &Type{kind: KindTimestamp}
)

func Int() *Type       { return intType }
func Float() *Type     { return floatType }
func Str() *Type       { return strType }
func Bool() *Type      { return boolType }
func None() *Type      { return noneType }
func Bytes() *Type     { return bytesType }
func Timestamp() *Type { return timestampType }

// Optional describes a value that is either absent (nil) or of type inner.
func Optional(inner *Type) *Type {
	mustType("Optional", inner)
	return &Type{kind: KindOptional, elems: []*Type{inner}}
}

// Union describes a value matching one of branches. Branch order is part of
// the contract: encode and decode both pick the first branch that fits.
// Branches should be distinguishable on the wire (e.g. Timestamp and Str);
// structurally ambiguous unions resolve by declaration order.
func Union(branches ...*Type) *Type {
	if len(branches) == 0 {
		panic("typewire: Union needs at least one branch")
	}
	for _, b := range branches {
		mustType("Union", b)
	}
	return &Type{kind: KindUnion, elems: append([]*Type(nil), branches...)}
}

// Seq describes an ordered homogeneous sequence of the base kind.
func Seq(item *Type) *Type { return SeqOf(BaseSequence, item) }

// SeqOf describes a sequence materialized as the registered kind.
func SeqOf(kind string, item *Type) *Type {
	mustType("Seq", item)
	if kind == "" {
		kind = BaseSequence
	}
	return &Type{kind: KindSequence, name: kind, elems: []*Type{item}}
}

// TupleOf describes a fixed-arity heterogeneous sequence.
func TupleOf(items ...*Type) *Type {
	for _, it := range items {
		mustType("Tuple", it)
	}
	return &Type{kind: KindTuple, elems: append([]*Type(nil), items...)}
}

func Map(key, value *Type) *Type {
	mustType("Map", key)
	mustType("Map", value)
	return &Type{kind: KindMapping, elems: []*Type{key, value}}
}

// Enum describes a closed set of members whose wire form is the member's
// declared value encoded with underlying.
func Enum(name string, underlying *Type, members ...Member) *Type {
	mustType("Enum", underlying)
	if len(members) == 0 {
		panic("typewire: Enum " + name + " has no members")
	}
	return &Type{
		kind:    KindEnum,
		name:    name,
		elems:   []*Type{underlying},
		members: append([]Member(nil), members...),
	}
}

// Ref refers to the record registered under name.
func Ref(name string) *Type {
	if name == "" {
		panic("typewire: Ref with empty name")
	}
	return &Type{kind: KindRecord, name: name}
}

// ResultOf describes the two-variant success/failure sum.
func ResultOf(success, failure *Type) *Type {
	mustType("Result", success)
	mustType("Result", failure)
	return &Type{kind: KindResult, elems: []*Type{success, failure}}
}

func mustType(ctor string, t *Type) {
	if t == nil || t.kind == KindInvalid {
		panic("typewire: " + ctor + " with nil or invalid type")
	}
}

func (t *Type) Kind() Kind {
	if t == nil {
		return KindInvalid
	}
	return t.kind
}

// Name is the record name, sequence kind or enum name; empty otherwise.
func (t *Type) Name() string { return t.name }

// Elem is the inner type of Optional, the item type of a sequence and the
// underlying type of an enum.
func (t *Type) Elem() *Type {
	switch t.kind {
	case KindOptional, KindSequence, KindEnum:
		return t.elems[0]
	}
	return nil
}

// Branches returns union branches in declaration order.
func (t *Type) Branches() []*Type {
	if t.kind != KindUnion {
		return nil
	}
	return append([]*Type(nil), t.elems...)
}

// Items returns tuple item types in position order.
func (t *Type) Items() []*Type {
	if t.kind != KindTuple {
		return nil
	}
	return append([]*Type(nil), t.elems...)
}

func (t *Type) Key() *Type {
	if t.kind != KindMapping {
		return nil
	}
	return t.elems[0]
}

func (t *Type) Value() *Type {
	if t.kind != KindMapping {
		return nil
	}
	return t.elems[1]
}

func (t *Type) Success() *Type {
	if t.kind != KindResult {
		return nil
	}
	return t.elems[0]
}

func (t *Type) Failure() *Type {
	if t.kind != KindResult {
		return nil
	}
	return t.elems[1]
}

func (t *Type) Members() []Member {
	return append([]Member(nil), t.members...)
}

// String returns the canonical text of t. Records print by name.
func (t *Type) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	if t == nil {
		b.WriteString("invalid")
		return
	}
	switch t.kind {
	case KindOptional:
		b.WriteString("optional[")
		t.elems[0].write(b)
		b.WriteByte(']')
	case KindUnion:
		b.WriteString("union[")
		writeList(b, t.elems, " | ")
		b.WriteByte(']')
	case KindSequence:
		if t.name == BaseSequence {
			b.WriteString("list[")
		} else {
			b.WriteString("seq<")
			b.WriteString(t.name)
			b.WriteString(">[")
		}
		t.elems[0].write(b)
		b.WriteByte(']')
	case KindTuple:
		b.WriteString("tuple[")
		writeList(b, t.elems, ", ")
		b.WriteByte(']')
	case KindMapping:
		b.WriteString("map[")
		writeList(b, t.elems, ", ")
		b.WriteByte(']')
	case KindResult:
		b.WriteString("result[")
		writeList(b, t.elems, ", ")
		b.WriteByte(']')
	case KindEnum:
		b.WriteString("enum ")
		b.WriteString(t.name)
		b.WriteByte('(')
		t.elems[0].write(b)
		b.WriteString("){")
		for i, m := range t.members {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(m.Name)
			b.WriteByte('=')
			fmt.Fprintf(b, "%#v", scalar(m.Value))
		}
		b.WriteByte('}')
	case KindRecord:
		b.WriteString("record ")
		b.WriteString(t.name)
	default:
		b.WriteString(t.kind.String())
	}
}

func writeList(b *strings.Builder, ts []*Type, sep string) {
	for i, e := range ts {
		if i > 0 {
			b.WriteString(sep)
		}
		e.write(b)
	}
}

// Field is one declared record field.
type Field struct {
	Name       string
	Type       *Type
	Default    any // used as-is on decode; keep it immutable
	HasDefault bool
}

// F declares a required field.
func F(name string, t *Type) Field {
	mustType("Field "+name, t)
	return Field{Name: name, Type: t}
}

// FDefault declares a field that decodes to def when absent from the wire.
func FDefault(name string, t *Type, def any) Field {
	mustType("Field "+name, t)
	return Field{Name: name, Type: t, Default: def, HasDefault: true}
}

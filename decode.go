package typewire

import (
	"encoding/base64"
	"fmt"
	"reflect"
)

func (w *walker) decodeAt(s segment, v any, t *Type) (any, error) {
	defer w.pop()
	if err := w.push(s); err != nil {
		return nil, err
	}
	return w.decode(v, t)
}

func (w *walker) decode(v any, t *Type) (any, error) {
	switch t.Kind() {
	case KindOptional:
		if v == nil {
			return nil, nil
		}
		return w.decode(v, t.elems[0])

	case KindUnion:
		for _, branch := range t.elems {
			out, err := w.decode(v, branch)
			if err == nil {
				return out, nil
			}
			if fatal(err) {
				return nil, err
			}
		}
		return nil, w.fail(ErrDecode, t, v, "no union branch matches the wire value")

	case KindResult:
		return w.decodeResult(v, t)
	case KindRecord:
		return w.decodeRecord(v, t)
	case KindSequence:
		return w.decodeSequence(v, t)
	case KindTuple:
		return w.decodeTuple(v, t)
	case KindMapping:
		return w.decodeMapping(v, t)
	case KindEnum:
		return w.decodeEnum(v, t)

	case KindTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, w.fail(ErrDecode, t, v, "timestamp must be text")
		}
		tm, err := parseTime(s)
		if err != nil {
			return nil, w.wrap(ErrDecode, t, v, err)
		}
		return tm, nil

	case KindBytes:
		s, ok := v.(string)
		if !ok {
			return nil, w.fail(ErrDecode, t, v, "bytes must be base64 text")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, w.wrap(ErrDecode, t, v, err)
		}
		return b, nil

	case KindInt:
		if _, isFloat := v.(float64); isFloat {
			return nil, w.fail(ErrDecode, t, v, "")
		}
		n, ok := toInt64(v)
		if !ok {
			return nil, w.fail(ErrDecode, t, v, "")
		}
		return n, nil

	case KindFloat:
		if f, ok := v.(float64); ok {
			return f, nil
		}
		if n, ok := toInt64(v); ok {
			return float64(n), nil
		}
		return nil, w.fail(ErrDecode, t, v, "")

	case KindStr:
		s, ok := v.(string)
		if !ok {
			return nil, w.fail(ErrDecode, t, v, "")
		}
		return s, nil

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, w.fail(ErrDecode, t, v, "")
		}
		return b, nil

	case KindNone:
		if v != nil {
			return nil, w.fail(ErrDecode, t, v, "")
		}
		return nil, nil
	}
	return nil, w.fail(ErrUnknownType, t, v, "invalid descriptor")
}

func (w *walker) decodeResult(v any, t *Type) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, w.fail(ErrDecode, t, v, "result must be an object")
	}
	var r Result
	branch := t.elems[0]
	switch tag := m["tag"]; tag {
	case tagSuccess:
		r.OK = true
	case tagFailure:
		branch = t.elems[1]
	default:
		return nil, w.fail(ErrDecode, t, v, fmt.Sprintf("unknown result tag %v", tag))
	}
	payload, err := w.decodeAt(field("payload"), m["payload"], branch)
	if err != nil {
		return nil, err
	}
	r.Value = payload
	return r, nil
}

func (w *walker) decodeRecord(v any, t *Type) (any, error) {
	def, ok := w.reg.record(t.name)
	if !ok {
		return nil, w.fail(ErrUnknownType, t, v, "record "+t.name+" is not defined")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, w.fail(ErrDecode, t, v, "record must be an object")
	}
	values := make(map[string]any, len(def.fields))
	for _, f := range def.fields {
		raw, present := m[f.Name]
		if !present {
			if !f.HasDefault {
				return nil, w.fail(ErrMissingField, t, v, fmt.Sprintf("field %q", f.Name))
			}
			values[f.Name] = f.Default
			continue
		}
		fv, err := w.decodeAt(field(f.Name), raw, f.Type)
		if err != nil {
			return nil, err
		}
		values[f.Name] = fv
	}
	if def.bind == nil {
		return Record{Name: t.name, Values: values}, nil
	}
	out, err := def.bind.New(values)
	if err != nil {
		return nil, w.wrap(ErrDecode, t, v, err)
	}
	return out, nil
}

func (w *walker) decodeSequence(v any, t *Type) (any, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, w.fail(ErrDecode, t, v, "sequence must be an array")
	}
	var sk SequenceKind
	if t.name != BaseSequence {
		if sk, ok = w.reg.sequence(t.name); !ok {
			return nil, w.fail(ErrUnknownType, t, v, "sequence kind "+t.name+" is not defined")
		}
	}
	items := make([]any, len(raw))
	for i, it := range raw {
		dv, err := w.decodeAt(index(i), it, t.elems[0])
		if err != nil {
			return nil, err
		}
		items[i] = dv
	}
	if sk.New == nil {
		return items, nil
	}
	out, err := sk.New(items)
	if err != nil {
		return nil, w.wrap(ErrDecode, t, v, err)
	}
	return out, nil
}

func (w *walker) decodeTuple(v any, t *Type) (any, error) {
	raw, ok := v.([]any)
	if !ok {
		return nil, w.fail(ErrDecode, t, v, "tuple must be an array")
	}
	if len(raw) != len(t.elems) {
		return nil, w.fail(ErrArityMismatch, t, v,
			fmt.Sprintf("wire has %d items, descriptor declares %d", len(raw), len(t.elems)))
	}
	out := make(Tuple, len(raw))
	for i, it := range raw {
		dv, err := w.decodeAt(index(i), it, t.elems[i])
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	return out, nil
}

func (w *walker) decodeMapping(v any, t *Type) (any, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, w.fail(ErrDecode, t, v, "mapping must be an object")
	}
	out := make(map[any]any, len(raw))
	for ks, rv := range raw {
		k, err := w.decodeAt(key(ks), keyWire(ks, t.elems[0]), t.elems[0])
		if err != nil {
			return nil, err
		}
		if k != nil && !reflect.ValueOf(k).Comparable() {
			return nil, w.fail(ErrDecode, t, v, fmt.Sprintf("key %q decodes to unhashable %T", ks, k))
		}
		dv, err := w.decodeAt(key(ks), rv, t.elems[1])
		if err != nil {
			return nil, err
		}
		out[k] = dv
	}
	return out, nil
}

func (w *walker) decodeEnum(v any, t *Type) (any, error) {
	uv, err := w.decode(v, t.elems[0])
	if err != nil {
		return nil, err
	}
	for _, m := range t.members {
		if sameValue(m.Value, uv) {
			return m, nil
		}
	}
	return nil, w.fail(ErrUnknownEnumValue, t, v, fmt.Sprintf("no member of enum %s has value %v", t.name, v))
}

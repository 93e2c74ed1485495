package typewire

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"time"
)

// encodeAt encodes a nested value one level below the current one.
func (w *walker) encodeAt(s segment, v any, t *Type) (any, error) {
	defer w.pop()
	if err := w.push(s); err != nil {
		return nil, err
	}
	return w.encode(v, t)
}

func (w *walker) encode(v any, t *Type) (any, error) {
	v = indirect(v)
	switch t.Kind() {
	case KindOptional:
		if isNil(v) {
			return nil, nil
		}
		return w.encode(v, t.elems[0])

	case KindUnion:
		for _, branch := range t.elems {
			out, err := w.encode(v, branch)
			if err == nil {
				return out, nil
			}
			if fatal(err) {
				return nil, err
			}
		}
		return nil, w.fail(ErrTypeMismatch, t, v, "no union branch accepts the value")

	case KindResult:
		return w.encodeResult(v, t)
	case KindRecord:
		return w.encodeRecord(v, t)
	case KindSequence:
		return w.encodeSequence(v, t)
	case KindTuple:
		return w.encodeTuple(v, t)
	case KindMapping:
		return w.encodeMapping(v, t)
	case KindEnum:
		return w.encodeEnum(v, t)

	case KindTimestamp:
		tm, ok := v.(time.Time)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return formatTime(tm), nil

	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return base64.StdEncoding.EncodeToString(b), nil

	case KindInt:
		n, ok := toInt64(v)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return n, nil

	case KindFloat:
		f, ok := toFloat64(v)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, w.fail(ErrTypeMismatch, t, v, "non-finite float has no wire form")
		}
		return f, nil

	case KindStr:
		s, ok := toString(v)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return s, nil

	case KindBool:
		b, ok := toBool(v)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return b, nil

	case KindNone:
		if !isNil(v) {
			return nil, w.fail(ErrTypeMismatch, t, v, "")
		}
		return nil, nil
	}
	return nil, w.fail(ErrUnknownType, t, v, "invalid descriptor")
}

func (w *walker) encodeResult(v any, t *Type) (any, error) {
	r, ok := v.(Result)
	if !ok {
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	tag, branch := tagSuccess, t.elems[0]
	if !r.OK {
		tag, branch = tagFailure, t.elems[1]
	}
	payload, err := w.encodeAt(field("payload"), r.Value, branch)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tag": tag, "payload": payload}, nil
}

func (w *walker) encodeRecord(v any, t *Type) (any, error) {
	def, ok := w.reg.record(t.name)
	if !ok {
		return nil, w.fail(ErrUnknownType, t, v, "record "+t.name+" is not defined")
	}
	values, ok := recordValues(v, t.name, def)
	if !ok {
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	out := make(map[string]any, len(def.fields))
	for _, f := range def.fields {
		fv, present := values[f.Name]
		if !present {
			return nil, w.fail(ErrTypeMismatch, t, v, fmt.Sprintf("value has no field %q", f.Name))
		}
		enc, err := w.encodeAt(field(f.Name), fv, f.Type)
		if err != nil {
			return nil, err
		}
		out[f.Name] = enc
	}
	return out, nil
}

func recordValues(v any, name string, def *recordDef) (map[string]any, bool) {
	if def.bind != nil {
		if m, ok := def.bind.Fields(v); ok {
			return m, true
		}
	}
	if r, ok := v.(Record); ok {
		return r.Values, r.Name == name
	}
	return nil, false
}

func (w *walker) encodeSequence(v any, t *Type) (any, error) {
	var (
		items []any
		ok    bool
	)
	if t.name == BaseSequence {
		items, ok = sliceItems(v)
	} else {
		sk, found := w.reg.sequence(t.name)
		if !found {
			return nil, w.fail(ErrUnknownType, t, v, "sequence kind "+t.name+" is not defined")
		}
		items, ok = sk.Items(v)
	}
	if !ok {
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	out := make([]any, len(items))
	for i, it := range items {
		enc, err := w.encodeAt(index(i), it, t.elems[0])
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

// sliceItems accepts any slice or array except byte blobs and tuples.
func sliceItems(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case Tuple, []byte, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func (w *walker) encodeTuple(v any, t *Type) (any, error) {
	var items []any
	switch x := v.(type) {
	case Tuple:
		items = x
	case []any:
		items = x
	default:
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	if len(items) != len(t.elems) {
		return nil, w.fail(ErrArityMismatch, t, v,
			fmt.Sprintf("tuple has %d items, descriptor declares %d", len(items), len(t.elems)))
	}
	out := make([]any, len(items))
	for i, it := range items {
		enc, err := w.encodeAt(index(i), it, t.elems[i])
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func (w *walker) encodeMapping(v any, t *Type) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		kv := iter.Key().Interface()
		ks := fmt.Sprint(kv)
		ek, err := w.encodeAt(key(ks), kv, t.elems[0])
		if err != nil {
			return nil, err
		}
		text, ok := keyString(ek)
		if !ok {
			return nil, w.fail(ErrTypeMismatch, t, v, fmt.Sprintf("key %v has no text form", kv))
		}
		if _, dup := out[text]; dup {
			return nil, w.fail(ErrTypeMismatch, t, v, fmt.Sprintf("keys collide on text %q", text))
		}
		ev, err := w.encodeAt(key(text), iter.Value().Interface(), t.elems[1])
		if err != nil {
			return nil, err
		}
		out[text] = ev
	}
	return out, nil
}

func (w *walker) encodeEnum(v any, t *Type) (any, error) {
	m, ok := v.(Member)
	if !ok {
		return nil, w.fail(ErrTypeMismatch, t, v, "")
	}
	for _, decl := range t.members {
		if decl.Name == m.Name && sameValue(decl.Value, m.Value) {
			return w.encode(decl.Value, t.elems[0])
		}
	}
	return nil, w.fail(ErrTypeMismatch, t, v, fmt.Sprintf("%s is not a member of enum %s", m.Name, t.name))
}

package typewire

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// segment is one step of an error path: a field name or an index/key.
type segment struct {
	name  string
	key   string
	isKey bool
	idx   int
}

// walker carries per-call traversal state; it is never shared between calls.
type walker struct {
	reg   *Registry
	max   int
	depth int
	path  []segment
}

func (w *walker) push(s segment) error {
	w.depth++
	w.path = append(w.path, s)
	if w.depth > w.max {
		return w.fail(ErrDepthExceeded, nil, nil, fmt.Sprintf("nesting deeper than %d", w.max))
	}
	return nil
}

func (w *walker) pop() {
	w.depth--
	w.path = w.path[:len(w.path)-1]
}

func (w *walker) where() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, s := range w.path {
		switch {
		case s.name != "":
			b.WriteByte('.')
			b.WriteString(s.name)
		case s.isKey:
			b.WriteString("[")
			b.WriteString(strconv.Quote(s.key))
			b.WriteString("]")
		default:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(s.idx))
			b.WriteString("]")
		}
	}
	return b.String()
}

func (w *walker) fail(kind error, t *Type, v any, msg string) error {
	return &Error{Kind: kind, Path: w.where(), Type: t, Value: v, Msg: msg}
}

func (w *walker) wrap(kind error, t *Type, v any, err error) error {
	return &Error{Kind: kind, Path: w.where(), Type: t, Value: v, Err: err}
}

func field(name string) segment { return segment{name: name} }
func index(i int) segment       { return segment{idx: i} }
func key(k string) segment      { return segment{key: k, isKey: true} }

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// indirect follows non-nil pointers so *string, *time.Time and pointers to
// bound structs encode like their targets. Nil pointers are left for the
// None and Optional checks.
func indirect(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return v
	}
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int8:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint8:
		return int64(n), true
	}
	// named integer types
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k == reflect.Float32 || k == reflect.Float64 {
		return rv.Float(), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

func toBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

// scalar normalizes numeric and string kinds so declared enum values compare
// equal to their decoded form (int 2 == int64 2).
func scalar(v any) any {
	if n, ok := toInt64(v); ok {
		return n
	}
	if f, ok := toFloat64(v); ok {
		return f
	}
	if s, ok := toString(v); ok {
		return s
	}
	if b, ok := toBool(v); ok {
		return b
	}
	return v
}

func sameValue(a, b any) bool {
	a, b = scalar(a), scalar(b)
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.IsValid() && rb.IsValid() && ra.Type() == rb.Type() && ra.Comparable() {
		return ra.Equal(rb)
	}
	return reflect.DeepEqual(a, b)
}

const (
	tagSuccess = "success"
	tagFailure = "failure"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

// parseTime accepts RFC 3339 and the zone-less ISO-8601 forms; zone-less
// text is read as UTC.
func parseTime(s string) (time.Time, error) {
	var first error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if first == nil {
			first = err
		}
	}
	return time.Time{}, first
}

// keyString renders an encoded mapping key as text without a second
// encoding pass.
func keyString(w any) (string, bool) {
	switch k := w.(type) {
	case string:
		return k, true
	case int64:
		return strconv.FormatInt(k, 10), true
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(k), true
	}
	return "", false
}

// keyWire reverses keyString for the key descriptor t. Text that does not
// parse is passed through so the key decode reports the mismatch.
func keyWire(s string, t *Type) any {
	for t != nil && (t.kind == KindOptional || t.kind == KindEnum) {
		t = t.elems[0]
	}
	switch t.Kind() {
	case KindInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case KindBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

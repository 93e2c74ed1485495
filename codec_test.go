package typewire

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCodec(reg *Registry) *Codec { return New(Options{Registry: reg}) }

// roundTrip goes all the way through bytes so the serializer's number
// handling is part of the check.
func roundTrip(t *testing.T, c *Codec, v any, typ *Type) any {
	t.Helper()
	b, err := c.Marshal(v, typ)
	require.NoError(t, err)
	out, err := c.Unmarshal(b, typ)
	require.NoError(t, err, "wire: %s", b)
	return out
}

func definePeople(reg *Registry) *Type {
	reg.Define("Address",
		F("city", Str()),
		F("zip_code", Int()),
	)
	return reg.Define("Person",
		F("name", Str()),
		F("age", Int()),
		F("address", Ref("Address")),
	)
}

func TestRecordRoundTrip(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)

	in := NewRecord("Person",
		"name", "John",
		"age", 30,
		"address", NewRecord("Address", "city", "New York", "zip_code", 10001),
	)
	want := Record{Name: "Person", Values: map[string]any{
		"name": "John",
		"age":  int64(30),
		"address": Record{Name: "Address", Values: map[string]any{
			"city":     "New York",
			"zip_code": int64(10001),
		}},
	}}
	require.Equal(t, want, roundTrip(t, c, in, person))
}

func TestLeafRoundTrips(t *testing.T) {
	c := newTestCodec(NewRegistry())

	ts := time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC)
	got := roundTrip(t, c, ts, Timestamp())
	require.True(t, ts.Equal(got.(time.Time)), "got %v", got)

	withZone := time.Date(2021, 3, 4, 5, 6, 7, 890, time.FixedZone("", 2*3600))
	got = roundTrip(t, c, withZone, Timestamp())
	require.True(t, withZone.Equal(got.(time.Time)), "got %v", got)

	blob := []byte{0x80, 0x81, 0x82}
	w, err := c.Encode(blob, Bytes())
	require.NoError(t, err)
	require.Equal(t, "gIGC", w)
	require.Equal(t, blob, roundTrip(t, c, blob, Bytes()))

	tup := TupleOf(Int(), Float(), Str())
	require.Equal(t, Tuple{int64(1), 2.0, "a"}, roundTrip(t, c, Tuple{1, 2.0, "a"}, tup))

	require.Equal(t, int64(-7), roundTrip(t, c, int8(-7), Int()))
	require.Equal(t, 0.5, roundTrip(t, c, float32(0.5), Float()))
	for _, f := range []float64{1e18, 9.3e18, 1e19, 1e20} {
		require.Equal(t, f, roundTrip(t, c, f, Float()))
	}
	require.Equal(t, true, roundTrip(t, c, true, Bool()))
	require.Equal(t, "héllo", roundTrip(t, c, "héllo", Str()))
	require.Nil(t, roundTrip(t, c, nil, None()))
}

func TestLargeIntegersSurviveJSON(t *testing.T) {
	c := newTestCodec(NewRegistry())
	const big = int64(1<<62 + 1)
	require.Equal(t, big, roundTrip(t, c, big, Int()))
}

func TestRecursiveRecord(t *testing.T) {
	reg := NewRegistry()
	node := reg.Define("Node",
		F("value", Int()),
		F("node", Optional(Ref("Node"))),
	)
	c := newTestCodec(reg)

	in := NewRecord("Node", "value", 1, "node", NewRecord("Node", "value", 2, "node", nil))
	want := Record{Name: "Node", Values: map[string]any{
		"value": int64(1),
		"node":  Record{Name: "Node", Values: map[string]any{"value": int64(2), "node": nil}},
	}}
	require.Equal(t, want, roundTrip(t, c, in, node))
}

func TestMutuallyRecursiveRecordsInMapping(t *testing.T) {
	reg := NewRegistry()
	reg.Define("Dir",
		F("name", Str()),
		F("children", Map(Str(), Ref("Entry"))),
	)
	entry := reg.Define("Entry",
		F("file", Optional(Str())),
		F("dir", Optional(Ref("Dir"))),
	)
	c := newTestCodec(reg)

	in := NewRecord("Entry", "file", nil, "dir", NewRecord("Dir",
		"name", "root",
		"children", map[string]Record{
			"a.txt": NewRecord("Entry", "file", "a.txt", "dir", nil),
		},
	))
	out := roundTrip(t, c, in, entry).(Record)
	dir := out.Get("dir").(Record)
	require.Equal(t, "root", dir.Get("name"))
	child := dir.Get("children").(map[any]any)["a.txt"].(Record)
	require.Equal(t, "a.txt", child.Get("file"))
}

func TestDefaultSubstitution(t *testing.T) {
	reg := NewRegistry()
	lang := reg.Define("Lang",
		F("name", Str()),
		FDefault("fav", Str(), "Python"),
	)
	c := newTestCodec(reg)

	out, err := c.Decode(map[string]any{"name": "foo"}, lang)
	require.NoError(t, err)
	require.Equal(t, "Python", out.(Record).Get("fav"))

	out, err = c.Decode(map[string]any{"name": "foo", "fav": "Go"}, lang)
	require.NoError(t, err)
	require.Equal(t, "Go", out.(Record).Get("fav"))

	_, err = c.Decode(map[string]any{"fav": "Go"}, lang)
	require.ErrorIs(t, err, ErrMissingField)
}

type customList []int64

func TestSequenceSubtypePreserved(t *testing.T) {
	reg := NewRegistry()
	reg.DefineSequence("CustomList", SequenceKind{
		New: func(items []any) (any, error) {
			out := make(customList, len(items))
			for i, it := range items {
				out[i] = it.(int64)
			}
			return out, nil
		},
		Items: func(v any) ([]any, bool) {
			l, ok := v.(customList)
			if !ok {
				return nil, false
			}
			items := make([]any, len(l))
			for i, n := range l {
				items[i] = n
			}
			return items, true
		},
	})
	c := newTestCodec(reg)
	typ := SeqOf("CustomList", Int())

	got := roundTrip(t, c, customList{1, 2}, typ)
	require.IsType(t, customList{}, got)
	require.Equal(t, customList{1, 2}, got)

	// base kind accepts any slice and yields []any
	require.Equal(t, []any{int64(1), int64(2)}, roundTrip(t, c, []int{1, 2}, Seq(Int())))

	_, err := c.Encode([]int64{1}, typ)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = c.Encode(customList{1}, SeqOf("Unregistered", Int()))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestNoneStrictness(t *testing.T) {
	c := newTestCodec(NewRegistry())

	w, err := c.Encode(nil, None())
	require.NoError(t, err)
	require.Nil(t, w)

	_, err = c.Decode("", None())
	require.ErrorIs(t, err, ErrDecode)

	_, err = c.Encode("", None())
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMismatchesAreRejected(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)

	_, err := c.Encode(Tuple{1, 2}, Timestamp())
	require.ErrorIs(t, err, ErrTypeMismatch)

	bad := NewRecord("Person",
		"name", "John",
		"age", "thirty",
		"address", NewRecord("Address", "city", "NY", "zip_code", 1),
	)
	_, err = c.Encode(bad, person)
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = c.Decode([]any{int64(1), int64(2)}, TupleOf(Int(), Int(), Int()))
	require.ErrorIs(t, err, ErrArityMismatch)

	_, err = c.Encode(Tuple{1}, TupleOf(Int(), Int()))
	require.ErrorIs(t, err, ErrArityMismatch)

	_, err = c.Decode(1.5, Int())
	require.ErrorIs(t, err, ErrDecode)

	// past int64 the JSON text reads as a float, which Int refuses
	_, err = c.Unmarshal([]byte(`100000000000000000000`), Int())
	require.ErrorIs(t, err, ErrDecode)

	_, err = c.Decode("2000-13-45", Timestamp())
	require.ErrorIs(t, err, ErrDecode)
	_, err = c.Decode(int64(1), Timestamp())
	require.ErrorIs(t, err, ErrDecode)

	r := ResultOf(Int(), Str())
	_, err = c.Decode("success", r)
	require.ErrorIs(t, err, ErrDecode)
	_, err = c.Decode(map[string]any{"tag": "maybe", "payload": int64(1)}, r)
	require.ErrorIs(t, err, ErrDecode)

	_, err = c.Encode(NewRecord("Address", "city", "NY", "zip_code", 1), person)
	require.ErrorIs(t, err, ErrTypeMismatch, "record name must match")
}

func TestErrorPath(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)

	in := NewRecord("Person",
		"name", "John",
		"age", 30,
		"address", NewRecord("Address", "city", "NY", "zip_code", "10001"),
	)
	_, err := c.Encode(in, person)
	var te *Error
	require.ErrorAs(t, err, &te)
	require.Equal(t, "$.address.zip_code", te.Path)
	require.Equal(t, "10001", te.Value)
	require.Contains(t, err.Error(), "(want int, got string)")

	_, err = c.Decode(map[string]any{"k": []any{"x"}}, Map(Str(), Seq(Int())))
	require.ErrorAs(t, err, &te)
	require.Equal(t, `$["k"][0]`, te.Path)
}

func TestUnionPrecedence(t *testing.T) {
	c := newTestCodec(NewRegistry())
	u := Union(Timestamp(), Str())

	got, err := c.Decode("2000-12-31T00:00:00", u)
	require.NoError(t, err)
	require.Equal(t, time.Date(2000, 12, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = c.Decode("hello", u)
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	w, err := c.Encode("hello", u)
	require.NoError(t, err)
	require.Equal(t, "hello", w)

	_, err = c.Decode(int64(1), u)
	require.ErrorIs(t, err, ErrDecode)
	_, err = c.Encode(3.5, u)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestOptionalAndNullableUnions(t *testing.T) {
	c := newTestCodec(NewRegistry())

	ob := Optional(Bytes())
	require.Nil(t, roundTrip(t, c, nil, ob))
	require.Nil(t, roundTrip(t, c, []byte(nil), ob))
	require.Equal(t, []byte("hi"), roundTrip(t, c, []byte("hi"), ob))

	u := Union(Str(), Bytes(), None())
	for _, v := range []any{"text", []byte{1, 2}, nil} {
		_, err := c.Encode(v, u)
		require.NoError(t, err, "%#v", v)
	}
	w, err := c.Encode([]byte{1, 2}, u)
	require.NoError(t, err)
	require.Equal(t, "AQI=", w)
	require.Nil(t, roundTrip(t, c, nil, u))
}

func TestResult(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)
	r := ResultOf(person, Str())

	ok := Success(NewRecord("Person",
		"name", "Ann",
		"age", 41,
		"address", NewRecord("Address", "city", "Oslo", "zip_code", 150),
	))
	w, err := c.Encode(ok, r)
	require.NoError(t, err)
	require.Equal(t, "success", w.(map[string]any)["tag"])

	got := roundTrip(t, c, ok, r).(Result)
	require.True(t, got.OK)
	require.Equal(t, "Ann", got.Value.(Record).Get("name"))

	fail := Failure("not found")
	w, err = c.Encode(fail, r)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"tag": "failure", "payload": "not found"}, w)
	require.Equal(t, fail, roundTrip(t, c, fail, r))

	_, err = c.Decode(map[string]any{"tag": "maybe", "payload": "x"}, r)
	require.ErrorIs(t, err, ErrDecode)

	_, err = c.Encode(Failure(42), r)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestEnums(t *testing.T) {
	c := newTestCodec(NewRegistry())
	color := Enum("Color", Int(), Member{"RED", 1}, Member{"GREEN", 2})
	mode := Enum("Mode", Str(), Member{"READ", "r"}, Member{"WRITE", "w"})

	w, err := c.Encode(Member{"GREEN", 2}, color)
	require.NoError(t, err)
	require.Equal(t, int64(2), w)
	require.Equal(t, Member{"GREEN", 2}, roundTrip(t, c, Member{"GREEN", 2}, color))
	require.Equal(t, Member{"WRITE", "w"}, roundTrip(t, c, Member{"WRITE", "w"}, mode))

	_, err = c.Decode(int64(9), color)
	require.ErrorIs(t, err, ErrUnknownEnumValue)
	_, err = c.Decode("x", mode)
	require.ErrorIs(t, err, ErrUnknownEnumValue)

	_, err = c.Encode(Member{"BLUE", 3}, color)
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, err = c.Encode(2, color)
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMappings(t *testing.T) {
	c := newTestCodec(NewRegistry())

	require.Equal(t,
		map[any]any{"a": int64(1), "b": int64(2)},
		roundTrip(t, c, map[string]int{"a": 1, "b": 2}, Map(Str(), Int())))

	// non-text keys use their text form directly
	w, err := c.Encode(map[int]string{1: "x", 20: "y"}, Map(Int(), Str()))
	require.NoError(t, err)
	require.Equal(t, map[string]any{"1": "x", "20": "y"}, w)
	require.Equal(t,
		map[any]any{int64(1): "x", int64(20): "y"},
		roundTrip(t, c, map[int]string{1: "x", 20: "y"}, Map(Int(), Str())))

	require.Equal(t,
		map[any]any{true: 1.5},
		roundTrip(t, c, map[bool]float64{true: 1.5}, Map(Bool(), Float())))

	_, err = c.Decode(map[string]any{"x": "v"}, Map(Int(), Str()))
	require.ErrorIs(t, err, ErrDecode)

	_, err = c.Encode(map[string]int{"a": 1}, Map(Seq(Int()), Int()))
	require.ErrorIs(t, err, ErrTypeMismatch)

	// 1 and "1" share a text form
	_, err = c.Encode(map[any]int{1: 1, "1": 2}, Map(Union(Int(), Str()), Int()))
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.ErrorContains(t, err, `keys collide on text "1"`)
}

func TestDepthExceeded(t *testing.T) {
	reg := NewRegistry()
	node := reg.Define("Node",
		F("value", Int()),
		F("node", Optional(Ref("Node"))),
	)
	c := New(Options{Registry: reg, MaxDepth: 8})

	var deep any
	for i := 0; i < 20; i++ {
		deep = NewRecord("Node", "value", i, "node", deep)
	}
	_, err := c.Encode(deep, node)
	require.ErrorIs(t, err, ErrDepthExceeded)

	// a union branch must not hide the guard
	_, err = c.Encode(deep, Union(node, Str()))
	require.ErrorIs(t, err, ErrDepthExceeded)

	var wire any = []any{}
	for i := 0; i < 20; i++ {
		wire = []any{wire}
	}
	var nested *Type = Seq(Int())
	for i := 0; i < 20; i++ {
		nested = Seq(nested)
	}
	_, err = c.Decode(wire, nested)
	require.ErrorIs(t, err, ErrDepthExceeded)
	require.True(t, IsDecodeFailure(err))
}

func TestUnknownTypeIsNotSwallowedByUnion(t *testing.T) {
	c := newTestCodec(NewRegistry())
	_, err := c.Decode("x", Union(Ref("Ghost"), Str()))
	require.ErrorIs(t, err, ErrUnknownType)
	require.False(t, IsDecodeFailure(err))
}

func TestEncodeIsDeterministic(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)

	in := NewRecord("Person",
		"name", "John",
		"age", 30,
		"address", NewRecord("Address", "city", "New York", "zip_code", 10001),
	)
	w1, err := c.Encode(in, person)
	require.NoError(t, err)
	w2, err := c.Encode(in, person)
	require.NoError(t, err)
	require.Equal(t, w1, w2)

	b1, err := c.Marshal(in, person)
	require.NoError(t, err)
	b2, err := c.Marshal(in, person)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
}

func TestConcurrentUse(t *testing.T) {
	reg := NewRegistry()
	person := definePeople(reg)
	c := newTestCodec(reg)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := NewRecord("Person",
				"name", "n",
				"age", i,
				"address", NewRecord("Address", "city", "c", "zip_code", i),
			)
			b, err := c.Marshal(in, person)
			if err == nil {
				_, err = c.Unmarshal(b, person)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestDecodeAs(t *testing.T) {
	c := newTestCodec(NewRegistry())

	n, err := DecodeAs[int64](c, int64(5), Int())
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	_, err = DecodeAs[string](c, int64(5), Int())
	require.ErrorIs(t, err, ErrTypeMismatch)

	s, err := UnmarshalAs[string](c, []byte(`"x"`), Str())
	require.NoError(t, err)
	require.Equal(t, "x", s)

	_, err = c.Unmarshal([]byte(`{"a":`), Str())
	require.ErrorIs(t, err, ErrDecode)
}

func TestErrorsUnwrapCause(t *testing.T) {
	c := newTestCodec(NewRegistry())
	_, err := c.Decode("%%%", Bytes())
	var te *Error
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, ErrDecode)
	require.NotNil(t, te.Err)
	require.True(t, errors.Is(err, te.Err))
}

package typewire

// Tuple is the value form of a TupleOf descriptor.
type Tuple []any

// Record is the generic value form of a record. Values is keyed by declared
// field name.
type Record struct {
	Name   string
	Values map[string]any
}

// NewRecord builds a Record from alternating name/value pairs.
// It panics on an odd count or a non-string name.
func NewRecord(name string, kv ...any) Record {
	if len(kv)%2 != 0 {
		panic("typewire: NewRecord needs name/value pairs")
	}
	r := Record{Name: name, Values: make(map[string]any, len(kv)/2)}
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("typewire: NewRecord field name must be a string")
		}
		r.Values[k] = kv[i+1]
	}
	return r
}

func (r Record) Get(field string) any { return r.Values[field] }

// Result is the value form of ResultOf: OK selects the success branch.
type Result struct {
	OK    bool
	Value any
}

func Success(v any) Result { return Result{OK: true, Value: v} }
func Failure(v any) Result { return Result{OK: false, Value: v} }

// Member is one enum member. Value is the declared underlying value.
type Member struct {
	Name  string
	Value any
}

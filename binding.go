package typewire

import (
	"fmt"
	"reflect"
)

// StructBinding derives a Binding for the struct type T. Each exported field
// maps to the record field named by its `wire:"name"` tag, or by the Go field
// name when untagged; `wire:"-"` skips the field. Decoded values are assigned
// with numeric conversion, pointer wrapping and element-wise slice and map
// conversion.
func StructBinding[T any]() Binding {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		panic("typewire: StructBinding needs a struct type, got " + rt.String())
	}
	index := structFields(rt)

	return Binding{
		Fields: func(v any) (map[string]any, bool) {
			rv := reflect.ValueOf(v)
			if !rv.IsValid() {
				return nil, false
			}
			if rv.Kind() == reflect.Pointer && rv.Type().Elem() == rt {
				if rv.IsNil() {
					return nil, false
				}
				rv = rv.Elem()
			}
			if rv.Type() != rt {
				return nil, false
			}
			out := make(map[string]any, len(index))
			for name, i := range index {
				out[name] = rv.Field(i).Interface()
			}
			return out, true
		},
		New: func(values map[string]any) (any, error) {
			var t T
			rv := reflect.ValueOf(&t).Elem()
			for name, val := range values {
				i, ok := index[name]
				if !ok {
					continue
				}
				if err := assign(rv.Field(i), val); err != nil {
					return nil, fmt.Errorf("field %s: %w", name, err)
				}
			}
			return t, nil
		},
	}
}

// MustBind attaches StructBinding[T] to the record name already defined in r.
// It panics if the record is not defined.
func MustBind[T any](r *Registry, name string) {
	if err := r.Bind(name, StructBinding[T]()); err != nil {
		panic(err)
	}
}

func structFields(rt reflect.Type) map[string]int {
	index := make(map[string]int, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("wire"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		index[name] = i
	}
	return index
}

// assign stores a decoded value into dst.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	dt := dst.Type()

	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}
	switch {
	case dt.Kind() == reflect.Pointer:
		p := reflect.New(dt.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil

	case isNumber(dt.Kind()) && isNumber(src.Kind()),
		dt.Kind() == reflect.String && src.Kind() == reflect.String,
		dt.Kind() == reflect.Bool && src.Kind() == reflect.Bool:
		if overflows(dst, src) {
			return fmt.Errorf("%v overflows %s", v, dt)
		}
		dst.Set(src.Convert(dt))
		return nil

	case dt.Kind() == reflect.Slice && src.Kind() == reflect.Slice:
		out := reflect.MakeSlice(dt, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assign(out.Index(i), src.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case dt.Kind() == reflect.Array && src.Kind() == reflect.Slice:
		if src.Len() != dt.Len() {
			return fmt.Errorf("cannot assign %d items to %s", src.Len(), dt)
		}
		for i := 0; i < src.Len(); i++ {
			if err := assign(dst.Index(i), src.Index(i).Interface()); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil

	case dt.Kind() == reflect.Map && src.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(dt, src.Len())
		iter := src.MapRange()
		for iter.Next() {
			k := reflect.New(dt.Key()).Elem()
			if err := assign(k, iter.Key().Interface()); err != nil {
				return fmt.Errorf("key %v: %w", iter.Key(), err)
			}
			val := reflect.New(dt.Elem()).Elem()
			if err := assign(val, iter.Value().Interface()); err != nil {
				return fmt.Errorf("[%v]: %w", iter.Key(), err)
			}
			out.SetMapIndex(k, val)
		}
		dst.Set(out)
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", src.Type(), dt)
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func overflows(dst, src reflect.Value) bool {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return dst.OverflowInt(src.Int())
		case reflect.Float32, reflect.Float64:
			return true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch src.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return src.Int() < 0 || dst.OverflowUint(uint64(src.Int()))
		case reflect.Float32, reflect.Float64:
			return true
		}
	}
	return false
}

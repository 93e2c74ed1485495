package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/typewire"
)

type Param struct {
	Name string
	Type *typewire.Type
}

// Func is a remotely callable function. Call receives the arguments already
// decoded under Params, in declaration order.
type Func struct {
	Name   string
	Params []Param
	Result *typewire.Type // nil => None
	Call   func(ctx context.Context, args []any) (any, error)
}

// Signature renders the declaration, e.g. "(a: int, b: float) -> str".
func (f *Func) Signature() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	b.WriteString(") -> ")
	b.WriteString(f.result().String())
	return b.String()
}

func (f *Func) result() *typewire.Type {
	if f.Result == nil {
		return typewire.None()
	}
	return f.Result
}

// args is the descriptor of the positional argument list.
func (f *Func) args() *typewire.Type {
	ts := make([]*typewire.Type, len(f.Params))
	for i, p := range f.Params {
		ts[i] = p.Type
	}
	return typewire.TupleOf(ts...)
}

// Module groups functions under a dotted name such as "app.calc".
type Module struct {
	Name   string
	funcs  []*Func
	byName map[string]*Func
}

// NewModule panics on an empty name, a nil or duplicate function, or a
// function without Call.
func NewModule(name string, funcs ...*Func) *Module {
	if name == "" {
		panic("rpc: NewModule with empty name")
	}
	m := &Module{Name: name, byName: make(map[string]*Func, len(funcs))}
	for _, f := range funcs {
		if f == nil || f.Name == "" || f.Call == nil {
			panic(fmt.Sprintf("rpc: module %q: function needs a name and Call", name))
		}
		if _, dup := m.byName[f.Name]; dup {
			panic(fmt.Sprintf("rpc: module %q: duplicate function %q", name, f.Name))
		}
		m.funcs = append(m.funcs, f)
		m.byName[f.Name] = f
	}
	return m
}

func (m *Module) Func(name string) (*Func, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Funcs returns the functions in declaration order.
func (m *Module) Funcs() []*Func { return append([]*Func(nil), m.funcs...) }

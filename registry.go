package typewire

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// SequenceKind materializes a user-declared sequence subtype.
// New builds the subtype from decoded items; Items exposes the items of a
// value for encoding and reports false when the value is not of the kind.
type SequenceKind struct {
	New   func(items []any) (any, error)
	Items func(v any) ([]any, bool)
}

// Binding maps a Go type onto a record so the engine accepts and produces it
// instead of the generic Record.
type Binding struct {
	// Fields returns the value's fields keyed by declared name, or false when
	// v is not of the bound type.
	Fields func(v any) (map[string]any, bool)
	// New builds an instance from decoded field values keyed by declared name.
	New func(values map[string]any) (any, error)
}

type recordDef struct {
	fields []Field
	bind   *Binding
}

// Registry resolves record names and sequence kinds.
// Safe for concurrent use; definitions usually happen once at init.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*recordDef
	seqs    map[string]SequenceKind
}

func NewRegistry() *Registry {
	return &Registry{
		records: make(map[string]*recordDef),
		seqs:    make(map[string]SequenceKind),
	}
}

// DefaultRegistry backs the package-level Encode and Decode.
var DefaultRegistry = NewRegistry()

// Define registers (or replaces) the record name with fields in construction
// order and returns a reference to it. Field types may reference records that
// are defined later, including name itself.
func (r *Registry) Define(name string, fields ...Field) *Type {
	if name == "" {
		panic("typewire: Define with empty record name")
	}
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			panic("typewire: record " + name + " has a field with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			panic("typewire: record " + name + " declares field " + f.Name + " twice")
		}
		seen[f.Name] = struct{}{}
		mustType("Field "+f.Name, f.Type)
	}

	r.mu.Lock()
	def := &recordDef{fields: append([]Field(nil), fields...)}
	if old, ok := r.records[name]; ok {
		def.bind = old.bind
	}
	r.records[name] = def
	r.mu.Unlock()
	return Ref(name)
}

// DefineSequence registers a sequence subtype usable through SeqOf(kind, ...).
func (r *Registry) DefineSequence(kind string, sk SequenceKind) {
	if kind == "" || kind == BaseSequence {
		panic("typewire: DefineSequence needs a non-base kind name")
	}
	if sk.New == nil || sk.Items == nil {
		panic("typewire: sequence kind " + kind + " needs New and Items")
	}
	r.mu.Lock()
	r.seqs[kind] = sk
	r.mu.Unlock()
}

// Bind attaches b to the already defined record name.
func (r *Registry) Bind(name string, b Binding) error {
	if b.Fields == nil || b.New == nil {
		return fmt.Errorf("typewire: binding for %s needs Fields and New", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.records[name]
	if !ok {
		return &Error{Kind: ErrUnknownType, Msg: "record " + name + " is not defined"}
	}
	r.records[name] = &recordDef{fields: def.fields, bind: &b}
	return nil
}

// Fields returns a copy of the declared fields of record name.
func (r *Registry) Fields(name string) ([]Field, bool) {
	def, ok := r.record(name)
	if !ok {
		return nil, false
	}
	return append([]Field(nil), def.fields...), true
}

func (r *Registry) record(name string) (*recordDef, bool) {
	r.mu.RLock()
	def, ok := r.records[name]
	r.mu.RUnlock()
	return def, ok
}

func (r *Registry) sequence(kind string) (SequenceKind, bool) {
	r.mu.RLock()
	sk, ok := r.seqs[kind]
	r.mu.RUnlock()
	return sk, ok
}

// Describe returns the canonical text of t followed by the definition of
// every record reachable from it, each written once in first-seen order.
// Both ends of a connection agree on a schema iff their descriptions match.
func (r *Registry) Describe(t *Type) string {
	var b strings.Builder
	t.write(&b)

	var (
		queue []string
		seen  = map[string]bool{}
	)
	var collect func(*Type)
	collect = func(x *Type) {
		if x == nil {
			return
		}
		if x.kind == KindRecord {
			if !seen[x.name] {
				seen[x.name] = true
				queue = append(queue, x.name)
			}
			return
		}
		for _, e := range x.elems {
			collect(e)
		}
	}
	collect(t)

	for i := 0; i < len(queue); i++ {
		name := queue[i]
		b.WriteString("; record ")
		b.WriteString(name)
		def, ok := r.record(name)
		if !ok {
			b.WriteString(" undefined")
			continue
		}
		b.WriteByte('{')
		for j, f := range def.fields {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			if f.HasDefault {
				b.WriteByte('?')
			}
			b.WriteString(": ")
			f.Type.write(&b)
			collect(f.Type)
		}
		b.WriteByte('}')
	}
	return b.String()
}

// Fingerprint hashes Describe(t). Envelopes carry it so a reader can detect
// that it holds a different descriptor than the writer.
func (r *Registry) Fingerprint(t *Type) uint64 {
	return xxhash.Sum64String(r.Describe(t))
}

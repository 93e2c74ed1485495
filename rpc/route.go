package rpc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/unkn0wn-root/typewire"
)

const defaultMaxRequest = 1 << 20

type Options struct {
	// Codec reads requests and writes responses; nil => typewire.Default.
	Codec *typewire.Codec
	// Logger; nil => the Codec's logger.
	Logger typewire.Logger
	// MaxRequest caps the body ServeHTTP reads; 0 => 1 MiB.
	MaxRequest int64
}

// Route serves the modules registered on it at Path.
type Route struct {
	Path string

	codec  *typewire.Codec
	log    typewire.Logger
	maxReq int64

	mu      sync.RWMutex
	modules map[string]*Module
	allowed map[string]bool
}

func NewRoute(path string, opts Options) *Route {
	r := &Route{
		Path:    path,
		codec:   opts.Codec,
		log:     opts.Logger,
		maxReq:  opts.MaxRequest,
		modules: make(map[string]*Module),
		allowed: make(map[string]bool),
	}
	if r.codec == nil {
		r.codec = typewire.Default
	}
	if r.log == nil {
		r.log = r.codec.Logger()
	}
	if r.maxReq <= 0 {
		r.maxReq = defaultMaxRequest
	}
	return r
}

// Register makes m known to the route. It stays unreachable until allowed.
// Panics on a duplicate module name.
func (r *Route) Register(m *Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.modules[m.Name]; exists {
		panic(fmt.Sprintf("rpc: route %s: duplicate module %q", r.Path, m.Name))
	}
	r.modules[m.Name] = m
}

// Allow opens module name for calls. Allowing a name that is never
// registered is not an error; Find keeps returning false for it.
func (r *Route) Allow(name string) {
	r.mu.Lock()
	r.allowed[name] = true
	r.mu.Unlock()
}

// Find returns the module only when it is registered and allowed.
func (r *Route) Find(name string) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.allowed[name] {
		return nil, false
	}
	m, ok := r.modules[name]
	return m, ok
}

// Modules returns the reachable modules.
func (r *Route) Modules() []*Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Module, 0, len(r.modules))
	for name, m := range r.modules {
		if r.allowed[name] {
			out = append(out, m)
		}
	}
	return out
}

// Handle answers one serialized request. It never fails: every problem is
// reported in the response's exception field.
func (r *Route) Handle(ctx context.Context, body []byte) []byte {
	req, err := parseRequest(r.codec, body)
	if err != nil {
		r.log.Warn("rpc: invalid request", typewire.Fields{"route": r.Path, "err": err})
		return r.respond(nil, fmt.Sprintf("invalid request: %v", err))
	}
	fields := typewire.Fields{"route": r.Path, "module": req.module, "func": req.fn}

	result, err := r.dispatch(ctx, req)
	if err != nil {
		fields["err"] = err
		r.log.Warn("rpc: call failed", fields)
		return r.respond(nil, err.Error())
	}
	r.log.Debug("rpc: call ok", fields)
	return r.respond(result, "")
}

func (r *Route) dispatch(ctx context.Context, req request) (any, error) {
	m, ok := r.Find(req.module)
	if !ok {
		return nil, fmt.Errorf("module %q is not available", req.module)
	}
	f, ok := m.Func(req.fn)
	if !ok {
		return nil, fmt.Errorf("module %q has no function %q", req.module, req.fn)
	}
	args, err := r.codec.Decode(req.args, f.args())
	if err != nil {
		return nil, fmt.Errorf("arguments of %s%s: %w", f.Name, f.Signature(), err)
	}
	out, err := invoke(ctx, f, args.(typewire.Tuple))
	if err != nil {
		return nil, err
	}
	w, err := r.codec.Encode(out, f.result())
	if err != nil {
		return nil, fmt.Errorf("result of %s: %w", f.Name, err)
	}
	return w, nil
}

func invoke(ctx context.Context, f *Func, args []any) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", f.Name, p, debug.Stack())
		}
	}()
	return f.Call(ctx, args)
}

func (r *Route) respond(result any, exception string) []byte {
	resp := map[string]any{"result": result, "exception": nil}
	if exception != "" {
		resp["exception"] = exception
	}
	b, err := r.codec.Serializer().Marshal(resp)
	if err == nil {
		return b
	}
	r.log.Error("rpc: marshal response", typewire.Fields{"route": r.Path, "err": err})
	b, _ = r.codec.Serializer().Marshal(map[string]any{
		"result":    nil,
		"exception": "marshal response: " + err.Error(),
	})
	return b
}

// ServeHTTP accepts POST bodies of at most MaxRequest bytes and answers
// with Handle's response.
func (r *Route) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, r.maxReq+1))
	if err != nil {
		http.Error(w, "reading request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if int64(len(body)) > r.maxReq {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}
	resp := r.Handle(req.Context(), body)
	w.Header().Set("Content-Type", contentType(r.codec.Serializer().Name()))
	_, _ = w.Write(resp)
}

func contentType(serializer string) string {
	switch serializer {
	case "json":
		return "application/json"
	case "cbor":
		return "application/cbor"
	case "msgpack":
		return "application/msgpack"
	case "protobuf":
		return "application/x-protobuf"
	}
	return "application/octet-stream"
}

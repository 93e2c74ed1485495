package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/unkn0wn-root/typewire"
)

// Transport moves one request body to the route at path and returns the
// response body.
type Transport interface {
	Do(ctx context.Context, path string, body []byte) ([]byte, error)
}

type TransportFunc func(ctx context.Context, path string, body []byte) ([]byte, error)

func (f TransportFunc) Do(ctx context.Context, path string, body []byte) ([]byte, error) {
	return f(ctx, path, body)
}

// Local calls a Route in-process.
func Local(r *Route) Transport {
	return TransportFunc(func(ctx context.Context, _ string, body []byte) ([]byte, error) {
		return r.Handle(ctx, body), nil
	})
}

// HTTP posts to BaseURL+path.
type HTTP struct {
	BaseURL string
	Client  *http.Client // nil => http.DefaultClient
	// MaxResponse caps the body read; 0 => 1 MiB.
	MaxResponse int64
}

func (h HTTP) Do(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(h.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	hc := h.Client
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := h.MaxResponse
	if limit <= 0 {
		limit = defaultMaxRequest
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s: %s", url, resp.Status, bytes.TrimSpace(b))
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%s: response larger than %d bytes", url, limit)
	}
	return b, nil
}

// Client calls functions behind a Route. Codec must match the route's
// serializer and registry.
type Client struct {
	Codec     *typewire.Codec // nil => typewire.Default
	Transport Transport
	Path      string
}

// Call encodes args under f's parameters, sends them and decodes the result
// under f.Result. An exception from the server is returned as *RemoteError.
func (c *Client) Call(ctx context.Context, module string, f *Func, args ...any) (any, error) {
	tc := c.Codec
	if tc == nil {
		tc = typewire.Default
	}
	if args == nil {
		args = []any{}
	}
	wargs, err := tc.Encode(typewire.Tuple(args), f.args())
	if err != nil {
		return nil, fmt.Errorf("rpc: arguments of %s.%s: %w", module, f.Name, err)
	}
	body, err := tc.Serializer().Marshal(map[string]any{
		"module": module,
		"func":   f.Name,
		"args":   wargs,
	})
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal request: %w", err)
	}

	raw, err := c.Transport.Do(ctx, c.Path, body)
	if err != nil {
		return nil, fmt.Errorf("rpc: calling %s.%s on %s: %w", module, f.Name, c.Path, err)
	}
	resp, err := parseResponse(tc, raw)
	if err != nil {
		return nil, fmt.Errorf("rpc: reading response of %s.%s: %w", module, f.Name, err)
	}
	if resp.exception != "" {
		return nil, &RemoteError{Module: module, Func: f.Name, Message: resp.exception}
	}
	out, err := tc.Decode(resp.result, f.result())
	if err != nil {
		return nil, fmt.Errorf("rpc: result of %s.%s: %w", module, f.Name, err)
	}
	return out, nil
}

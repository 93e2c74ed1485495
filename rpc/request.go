package rpc

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/typewire"
)

type request struct {
	module string
	fn     string
	args   []any
}

func parseRequest(c *typewire.Codec, body []byte) (request, error) {
	w, err := c.Serializer().Unmarshal(body)
	if err != nil {
		return request{}, err
	}
	m, ok := w.(map[string]any)
	if !ok {
		return request{}, errors.New("body is not an object")
	}
	var req request
	if req.module, ok = m["module"].(string); !ok || req.module == "" {
		return request{}, errors.New(`missing "module"`)
	}
	if req.fn, ok = m["func"].(string); !ok || req.fn == "" {
		return request{}, errors.New(`missing "func"`)
	}
	switch a := m["args"].(type) {
	case nil:
		req.args = []any{}
	case []any:
		req.args = a
	default:
		return request{}, fmt.Errorf(`"args" must be an array, got %T`, a)
	}
	return req, nil
}

type response struct {
	result    any
	exception string
}

func parseResponse(c *typewire.Codec, body []byte) (response, error) {
	w, err := c.Serializer().Unmarshal(body)
	if err != nil {
		return response{}, err
	}
	m, ok := w.(map[string]any)
	if !ok {
		return response{}, errors.New("body is not an object")
	}
	resp := response{result: m["result"]}
	switch e := m["exception"].(type) {
	case nil:
	case string:
		resp.exception = e
	default:
		return response{}, fmt.Errorf(`"exception" must be text, got %T`, e)
	}
	return resp, nil
}

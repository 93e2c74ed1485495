// Package rpc dispatches remote calls whose arguments and results travel as
// typewire WireValues.
//
// A Func declares its parameters and result with typewire descriptors; the
// same declaration drives both sides of a call. Client.Call encodes the
// arguments as a tuple of the parameter descriptors, and Route.Handle decodes
// them with it, invokes the function and encodes the result.
//
// Request and response bodies are serialized maps:
//
//	request:  {"module": "calc", "func": "add", "args": [1, 2]}
//	response: {"result": 3, "exception": null}
//
// A module is reachable only when it is both registered and allowed on the
// Route. Every failure on the serving side, including panics, is returned to
// the caller as a response with "exception" set; Client.Call turns it into a
// *RemoteError.
package rpc

package rpc

import "fmt"

// RemoteError is returned by Client.Call when the server answered with an
// exception. Transport and encoding failures are plain errors.
type RemoteError struct {
	Module  string
	Func    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc: %s.%s: %s", e.Module, e.Func, e.Message)
}

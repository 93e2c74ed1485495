package typewire

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTypeMismatch     = errors.New("typewire: type mismatch")
	ErrArityMismatch    = errors.New("typewire: arity mismatch")
	ErrMissingField     = errors.New("typewire: missing field")
	ErrUnknownEnumValue = errors.New("typewire: unknown enum value")
	ErrDecode           = errors.New("typewire: decode error")
	ErrDepthExceeded    = errors.New("typewire: depth exceeded")
	ErrUnknownType      = errors.New("typewire: unknown type")
	ErrSchemaMismatch   = errors.New("typewire: schema mismatch")
)

// Error describes a failed encode or decode. Kind is one of the Err*
// sentinels; errors.Is matches both Kind and the wrapped cause.
type Error struct {
	Kind  error
	Path  string // e.g. $.address.zip_code or $[2]
	Type  *Type
	Value any
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("typewire: error")
	}
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Type != nil {
		fmt.Fprintf(&b, " (want %s, got %T)", e.Type, e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// fatal reports errors a union must not swallow while trying branches.
func fatal(err error) bool {
	return errors.Is(err, ErrDepthExceeded) || errors.Is(err, ErrUnknownType)
}

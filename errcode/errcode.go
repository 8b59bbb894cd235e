package errcode

import (
	"errors"

	"copro-go/drivers/rp2040"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK            Code = "ok"
	Busy          Code = "busy"
	Unsupported   Code = "unsupported"
	InvalidParams Code = "invalid_params"
	UnknownVerb   Code = "unknown_verb"
	NotReady      Code = "not_ready"
	Timeout       Code = "timeout"

	Error Code = "error" // generic fallback
)

// E keeps an operation name and a cause alongside the code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps companion driver errors to a Code.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, rp2040.ErrTimeout):
		return Timeout
	case errors.Is(err, rp2040.ErrUnsupported):
		return Unsupported
	case errors.Is(err, rp2040.ErrOutOfRange):
		return InvalidParams
	case errors.Is(err, rp2040.ErrVersion):
		return NotReady
	default:
		return Error
	}
}

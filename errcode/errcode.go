package errcode

import (
	"context"
	"errors"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Driver result kinds (short, stable).
const (
	OK             Code = "ok"
	NotInitialized Code = "not_initialized"
	InvalidConfig  Code = "invalid_config"
	BusError       Code = "bus_error"
	Timeout        Code = "timeout"
	InvalidParams  Code = "invalid_params"
	DeviceNotFound Code = "device_not_found"
	NotReady       Code = "not_ready"
	Busy           Code = "busy"
	InProgress     Code = "in_progress"
)

// Service/control plane.
const (
	InvalidPayload Code = "invalid_payload"
	Unsupported    Code = "unsupported"

	Error Code = "error" // generic fallback
)

// IsValidation reports whether c is a precondition failure raised before
// any bus traffic. Such results never count against device health.
func (c Code) IsValidation() bool {
	return c == InvalidConfig || c == InvalidParams
}

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
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

// MapDriverErr maps a low-level transport error to a Code.
// Errors that already carry a Code keep it; deadline expiry maps to
// Timeout; anything else is a bus failure.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	if c := Of(err); c != Error {
		return c
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	return BusError
}

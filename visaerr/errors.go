// Package visaerr defines the tagged error variants of spec §7, generalized
// from the teacher's errcode package (a Code string newtype plus an *E
// wrapper carrying Unwrap). Every variant here carries enough context for
// diagnostic logging: resource name, session id, attempted op, status, and
// (for I/O) byte counts, per spec §7's "user-visible failure behavior".
package visaerr

import "fmt"

// Code is a stable, comparable error identifier, same shape as the
// teacher's errcode.Code.
type Code string

func (c Code) Error() string { return string(c) }

const (
	CodeParseError           Code = "parse_error"
	CodeInvalidSession       Code = "invalid_session"
	CodeTimeout              Code = "timeout"
	CodeResourceNotFound     Code = "resource_not_found"
	CodeResourceBusy         Code = "resource_busy"
	CodeAccessDenied         Code = "access_denied"
	CodeIOError              Code = "io_error"
	CodeProtocolError        Code = "protocol_error"
	CodeUnsupportedOperation Code = "unsupported_operation"
	CodeEncodingError        Code = "encoding_error"
	CodeHandlerError         Code = "handler_error"
)

// coder is implemented by every variant below so Of can recover a Code from
// an arbitrary error value without a long type switch.
type coder interface{ Code() Code }

// ParseError: malformed resource name (spec §4.B, §7).
type ParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d in %q: %s", e.Pos, e.Input, e.Reason)
}
func (e *ParseError) Code() Code { return CodeParseError }

// InvalidSession: operation on a closed or never-opened session.
type InvalidSession struct {
	Resource string
	Session  uint64
	Op       string
}

func (e *InvalidSession) Error() string {
	return fmt.Sprintf("%s: invalid session %d on %q", e.Op, e.Session, e.Resource)
}
func (e *InvalidSession) Code() Code { return CodeInvalidSession }

// Timeout: a blocking operation exceeded its deadline. Distinct from
// event-wait timeouts, which are a boolean WaitResponse field, not an error.
type Timeout struct {
	Op        string
	Resource  string
	TimeoutMS int64
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("%s timed out on %q after %dms", e.Op, e.Resource, e.TimeoutMS)
}
func (e *Timeout) Code() Code { return CodeTimeout }

// ResourceNotFound: backend could not locate a matching resource.
type ResourceNotFound struct {
	Pattern string
}

func (e *ResourceNotFound) Error() string { return fmt.Sprintf("no resource matches %q", e.Pattern) }
func (e *ResourceNotFound) Code() Code    { return CodeResourceNotFound }

// ResourceBusy: backend reports the resource is already locked elsewhere.
type ResourceBusy struct {
	Resource string
}

func (e *ResourceBusy) Error() string { return fmt.Sprintf("%q is busy", e.Resource) }
func (e *ResourceBusy) Code() Code    { return CodeResourceBusy }

// AccessDenied: backend refused the requested access mode or lock.
type AccessDenied struct {
	Resource string
	Op       string
}

func (e *AccessDenied) Error() string {
	return fmt.Sprintf("%s denied on %q", e.Op, e.Resource)
}
func (e *AccessDenied) Code() Code { return CodeAccessDenied }

// IOError: generic backend-status failure tagged with the attempted op.
type IOError struct {
	Op       string
	Resource string
	Status   int32
	Bytes    int
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s on %q failed: status=%d bytes=%d", e.Op, e.Resource, e.Status, e.Bytes)
}
func (e *IOError) Code() Code { return CodeIOError }

// ProtocolError: malformed binary block header, missing sentinel within the
// scan window, declared length mismatch, bad HP length bytes (spec §4.C).
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }
func (e *ProtocolError) Code() Code    { return CodeProtocolError }

// UnsupportedOperation: capability absent on this resource subclass/backend.
type UnsupportedOperation struct {
	Op           string
	ResourceKind string
}

func (e *UnsupportedOperation) Error() string {
	return fmt.Sprintf("%s unsupported on %s", e.Op, e.ResourceKind)
}
func (e *UnsupportedOperation) Code() Code { return CodeUnsupportedOperation }

// EncodingError: decode failure on a text read; partial bytes already
// consumed are not recoverable (spec §4.G "read").
type EncodingError struct {
	Encoding string
	Offset   int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error (%s) at offset %d", e.Encoding, e.Offset)
}
func (e *EncodingError) Code() Code { return CodeEncodingError }

// HandlerError: wraps a user event-handler panic/error; never propagated to
// the backend, only logged (spec §4.H, §7).
type HandlerError struct {
	EventType string
	Cause     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler error for %s: %v", e.EventType, e.Cause)
}
func (e *HandlerError) Unwrap() error { return e.Cause }
func (e *HandlerError) Code() Code    { return CodeHandlerError }

// Of extracts a Code from an arbitrary error, defaulting to CodeIOError
// when the error carries no recognizable tag — mirrors the teacher's
// errcode.Of, generalized to a non-empty default since govisa never
// fabricates a bare "ok" code for a non-nil error.
func Of(err error) Code {
	if err == nil {
		return ""
	}
	if c, ok := err.(Code); ok {
		return c
	}
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return CodeIOError
}

// Package plcerr defines the error taxonomy shared across the session,
// client, pool, I/O runtime, and orchestrator packages.
package plcerr

import (
	"fmt"

	"github.com/carun/eipsession/internal/cip"
)

// ConnectionError is raised when a socket-level or session-level connection
// fails: dial failure, premature close, or read/write timeout.
type ConnectionError struct {
	msg string
	err error
}

func NewConnectionError(msg string) *ConnectionError {
	return &ConnectionError{msg: msg}
}

func WrapConnectionError(msg string, err error) *ConnectionError {
	return &ConnectionError{msg: msg, err: err}
}

func (e *ConnectionError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("plc connection: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("plc connection: %s", e.msg)
}

func (e *ConnectionError) Unwrap() error { return e.err }

// CommunicationError is raised when encoding or decoding a CIP/ENIP message
// fails independently of the socket itself.
type CommunicationError struct {
	msg string
	err error
}

func NewCommunicationError(msg string) *CommunicationError {
	return &CommunicationError{msg: msg}
}

func WrapCommunicationError(msg string, err error) *CommunicationError {
	return &CommunicationError{msg: msg, err: err}
}

func (e *CommunicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("plc communication: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("plc communication: %s", e.msg)
}

func (e *CommunicationError) Unwrap() error { return e.err }

// ResponseError is raised when a PLC returns an unexpected or failing CIP
// response. It carries the Status that triggered it, when one is known.
type ResponseError struct {
	msg    string
	Status *cip.Status
}

func NewResponseError(msg string) *ResponseError {
	return &ResponseError{msg: msg}
}

func NewResponseErrorWithStatus(msg string, status cip.Status) *ResponseError {
	return &ResponseError{msg: msg, Status: &status}
}

func (e *ResponseError) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("plc response: %s (%s)", e.msg, e.Status.String())
	}
	return fmt.Sprintf("plc response: %s", e.msg)
}

// RuntimeError is the base of the I/O runtime's assembly-level errors.
type RuntimeError struct {
	msg string
}

func NewRuntimeError(msg string) *RuntimeError { return &RuntimeError{msg: msg} }

func (e *RuntimeError) Error() string { return fmt.Sprintf("io runtime: %s", e.msg) }

// RuntimeDirectionError is raised when an operation is incompatible with an
// assembly's configured direction (e.g. queuing output to an input assembly).
type RuntimeDirectionError struct {
	*RuntimeError
}

func NewRuntimeDirectionError(msg string) *RuntimeDirectionError {
	return &RuntimeDirectionError{RuntimeError: NewRuntimeError(msg)}
}

// RuntimeNotRegisteredError is raised when an alias references an assembly
// that was never loaded into the runtime.
type RuntimeNotRegisteredError struct {
	*RuntimeError
	Alias string
}

func NewRuntimeNotRegisteredError(alias string) *RuntimeNotRegisteredError {
	return &RuntimeNotRegisteredError{
		RuntimeError: NewRuntimeError(fmt.Sprintf("assembly %q is not registered in the runtime", alias)),
		Alias:        alias,
	}
}

// ManagerError is the base of the session manager's pool- and
// orchestration-level errors (e.g. pool exhaustion, unknown session id).
type ManagerError struct {
	msg string
	err error
}

func NewManagerError(msg string) *ManagerError {
	return &ManagerError{msg: msg}
}

func WrapManagerError(msg string, err error) *ManagerError {
	return &ManagerError{msg: msg, err: err}
}

func (e *ManagerError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("plc manager: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("plc manager: %s", e.msg)
}

func (e *ManagerError) Unwrap() error { return e.err }

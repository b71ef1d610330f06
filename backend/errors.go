package backend

import (
	"errors"
	"fmt"
)

// Common errors for backend operations.
var (
	ErrDuplicateBackend = errors.New("backend already registered")
	ErrUnknownKind      = errors.New("no connector for backend kind")
	ErrConnection       = errors.New("backend connection failed")
	ErrNotConnected     = errors.New("backend not connected")
	ErrUnknownTool      = errors.New("tool not found in backend")
	ErrTransport        = errors.New("backend transport failure")
)

// ConnectionError reports a failed connect. The orchestrator treats it as
// "zero tools from this backend", never as fatal.
type ConnectionError struct {
	// Backend is the descriptor name.
	Backend string

	// Op is the step that failed: "spawn", "handshake" or "list_tools".
	Op string

	// Err is the underlying cause.
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("connect %s: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("connect %s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is matches ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// Reason classifies an InvocationError.
type Reason string

// Invocation failure reasons.
const (
	ReasonNotConnected     Reason = "NotConnected"
	ReasonUnknownTool      Reason = "UnknownTool"
	ReasonTransportFailure Reason = "TransportFailure"
)

// InvocationError reports a failed tool invocation on a session.
type InvocationError struct {
	Backend string
	Tool    string
	Reason  Reason
	Err     error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("invoke %s/%s: %s", e.Backend, e.Tool, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel that corresponds to the reason.
func (e *InvocationError) Is(target error) bool {
	switch e.Reason {
	case ReasonNotConnected:
		return target == ErrNotConnected
	case ReasonUnknownTool:
		return target == ErrUnknownTool
	case ReasonTransportFailure:
		return target == ErrTransport
	}
	return false
}

// NotConnected builds the error returned when a session is not usable.
func NotConnected(backend, tool string) error {
	return &InvocationError{Backend: backend, Tool: tool, Reason: ReasonNotConnected}
}

// UnknownTool builds the error returned for a tool the backend did not
// advertise.
func UnknownTool(backend, tool string) error {
	return &InvocationError{Backend: backend, Tool: tool, Reason: ReasonUnknownTool}
}

// TransportFailure wraps a transport-level cause.
func TransportFailure(backend, tool string, err error) error {
	return &InvocationError{Backend: backend, Tool: tool, Reason: ReasonTransportFailure, Err: err}
}

package flow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Session errors.
var (
	ErrBusy         = errors.New("flow: request in progress")
	ErrClosed       = errors.New("flow: session closed")
	ErrNoPicker     = errors.New("flow: no flow picker shown")
	ErrWrongStep    = errors.New("flow: operation not valid for current step")
	ErrInvalidInput = errors.New("flow: invalid input")
)

// ValidationError carries inline, per-field errors. The session stays on the
// same step.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for name, msg := range e.Errors {
		fields = append(fields, name+": "+msg)
	}
	sort.Strings(fields)
	return "flow: validation failed (" + strings.Join(fields, ", ") + ")"
}

// Unwrap returns ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// TransportError wraps a failed API call. It ends the session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flow: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a step that violates the step contract.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "flow: protocol error: " + e.Reason
}

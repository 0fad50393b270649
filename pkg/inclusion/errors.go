package inclusion

import (
	"errors"
	"fmt"
)

// Controller errors.
var (
	ErrNotOpen         = errors.New("inclusion: dialog not open")
	ErrAlreadyOpen     = errors.New("inclusion: dialog already open")
	ErrClosed          = errors.New("inclusion: dialog closed")
	ErrWrongState      = errors.New("inclusion: operation not valid in current state")
	ErrScanInProgress  = errors.New("inclusion: scan already in progress")
	ErrInvalidStrategy = errors.New("inclusion: invalid strategy")
	ErrUnsupportedCode = errors.New("inclusion: unsupported code")
)

// ValidationError is an inline, recoverable error. The status is unchanged.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("inclusion: invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failed service call.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inclusion: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError reports an event or response that breaks the contract.
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	return "inclusion: protocol error: " + e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

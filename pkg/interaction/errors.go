package interaction

import (
	"errors"
	"fmt"

	"github.com/meshpair/meshpair-go/pkg/wire"
)

// Client errors.
var (
	ErrRequestTimeout  = errors.New("request timed out")
	ErrClientClosed    = errors.New("client is closed")
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// StatusError is a non-success response from the hub.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status, e.Message)
	}
	return e.Status.String()
}

// NewStatusError creates a StatusError. Handlers return it to choose the
// response status.
func NewStatusError(status wire.Status, format string, args ...any) *StatusError {
	return &StatusError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// IsStatus reports whether err is a StatusError with the given status.
func IsStatus(err error, status wire.Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

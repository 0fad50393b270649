package wire

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the command completed successfully.
	StatusSuccess Status = 0

	// StatusInvalidCommand indicates the command is not known to the hub.
	StatusInvalidCommand Status = 1

	// StatusInvalidParameter indicates a malformed or rejected parameter.
	StatusInvalidParameter Status = 2

	// StatusNotFound indicates the addressed flow, entry or subscription
	// doesn't exist.
	StatusNotFound Status = 3

	// StatusBusy indicates the hub is busy; try again later.
	StatusBusy Status = 4

	// StatusUnsupported indicates the operation is not supported.
	StatusUnsupported Status = 5

	// StatusFailure indicates a generic server-side failure.
	StatusFailure Status = 6

	// StatusTimeout indicates the operation timed out on the hub.
	StatusTimeout Status = 7
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInvalidCommand:
		return "INVALID_COMMAND"
	case StatusInvalidParameter:
		return "INVALID_PARAMETER"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusBusy:
		return "BUSY"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusFailure:
		return "FAILURE"
	case StatusTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}

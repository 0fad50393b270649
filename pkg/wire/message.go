package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys for message encoding.
const (
	KeyKind = 1

	KeyMessageID = 2
	KeyCommand   = 3 // Request
	KeyStatus    = 3 // Response
	KeyPayload   = 4
	KeyMessage   = 5 // Response error message

	KeySubscriptionID = 2 // Event
	KeyEventName      = 3 // Event
)

// Envelope errors.
var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrWrongKind   = errors.New("unexpected message kind")
)

// Kind identifies the type of a message envelope.
type Kind uint8

const (
	KindUnknown  Kind = 0
	KindRequest  Kind = 1
	KindResponse Kind = 2
	KindEvent    Kind = 3
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "REQUEST"
	case KindResponse:
		return "RESPONSE"
	case KindEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k >= KindRequest && k <= KindEvent
}

// Request represents a command sent from a client to the hub.
//
// CBOR encoding:
//
//	{
//	  1: 1,            // kind
//	  2: messageId,    // uint32, never 0
//	  3: command,      // string, e.g. "flow/create"
//	  4: payload       // command-specific, raw CBOR
//	}
type Request struct {
	MessageID uint32          `cbor:"2,keyasint"`
	Command   Command         `cbor:"3,keyasint"`
	Payload   cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.MessageID == 0 {
		return fmt.Errorf("messageId 0 is reserved")
	}
	if r.Command == "" {
		return fmt.Errorf("command is required")
	}
	return nil
}

// Response represents the hub's answer to a request.
//
// CBOR encoding:
//
//	{
//	  1: 2,            // kind
//	  2: messageId,    // uint32: matches request
//	  3: status,       // uint8: 0=success, or error code
//	  4: payload,      // command-specific result (if success)
//	  5: message       // string: human-readable error (if failure)
//	}
type Response struct {
	MessageID uint32          `cbor:"2,keyasint"`
	Status    Status          `cbor:"3,keyasint"`
	Payload   cbor.RawMessage `cbor:"4,keyasint,omitempty"`
	Message   string          `cbor:"5,keyasint,omitempty"`
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// Event represents a push event delivered on a subscription.
//
// CBOR encoding:
//
//	{
//	  1: 3,                // kind
//	  2: subscriptionId,   // uint32, never 0
//	  3: name,             // string, e.g. "node added"
//	  4: payload           // event-specific, raw CBOR
//	}
type Event struct {
	SubscriptionID uint32          `cbor:"2,keyasint"`
	Name           string          `cbor:"3,keyasint"`
	Payload        cbor.RawMessage `cbor:"4,keyasint,omitempty"`
}

type requestFrame struct {
	Kind Kind `cbor:"1,keyasint"`
	Request
}

type responseFrame struct {
	Kind Kind `cbor:"1,keyasint"`
	Response
}

type eventFrame struct {
	Kind Kind `cbor:"1,keyasint"`
	Event
}

// SubscribeResponsePayload is returned by every command that opens a
// subscription.
type SubscribeResponsePayload struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
}

// UnsubscribePayload is the payload of the unsubscribe command.
type UnsubscribePayload struct {
	SubscriptionID uint32 `cbor:"1,keyasint"`
}

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for hub messages.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for hub messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	// Lenient decoding for forward compatibility: unknown keys are ignored,
	// duplicate keys resolve to the last value.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a value.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a new CBOR encoder that writes to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a new CBOR decoder that reads from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// MarshalPayload encodes v as a raw payload. A nil v yields a nil payload.
func MarshalPayload(v any) (cbor.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(cbor.RawMessage); ok {
		return raw, nil
	}
	data, err := Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return cbor.RawMessage(data), nil
}

// UnmarshalPayload decodes a raw payload into v. An empty payload leaves v
// untouched.
func UnmarshalPayload(raw cbor.RawMessage, v any) error {
	if len(raw) == 0 || v == nil {
		return nil
	}
	if err := Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// EncodeRequest encodes a request message to CBOR bytes.
func EncodeRequest(req *Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return Marshal(requestFrame{Kind: KindRequest, Request: *req})
}

// DecodeRequest decodes CBOR bytes into a request message.
func DecodeRequest(data []byte) (*Request, error) {
	var f requestFrame
	if err := Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if f.Kind != KindRequest {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongKind, f.Kind, KindRequest)
	}
	req := f.Request
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response message to CBOR bytes.
func EncodeResponse(resp *Response) ([]byte, error) {
	return Marshal(responseFrame{Kind: KindResponse, Response: *resp})
}

// DecodeResponse decodes CBOR bytes into a response message.
func DecodeResponse(data []byte) (*Response, error) {
	var f responseFrame
	if err := Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if f.Kind != KindResponse {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongKind, f.Kind, KindResponse)
	}
	resp := f.Response
	return &resp, nil
}

// EncodeEvent encodes a push event to CBOR bytes.
func EncodeEvent(ev *Event) ([]byte, error) {
	if ev.SubscriptionID == 0 {
		return nil, fmt.Errorf("invalid event: subscriptionId 0 is reserved")
	}
	return Marshal(eventFrame{Kind: KindEvent, Event: *ev})
}

// DecodeEvent decodes CBOR bytes into a push event.
func DecodeEvent(data []byte) (*Event, error) {
	var f eventFrame
	if err := Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	if f.Kind != KindEvent {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongKind, f.Kind, KindEvent)
	}
	ev := f.Event
	return &ev, nil
}

// PeekKind examines CBOR data to determine the message kind without decoding
// the payload.
func PeekKind(data []byte) (Kind, error) {
	var peek struct {
		Kind Kind `cbor:"1,keyasint"`
	}
	if err := Unmarshal(data, &peek); err != nil {
		return KindUnknown, fmt.Errorf("failed to peek message: %w", err)
	}
	if !peek.Kind.IsValid() {
		return KindUnknown, fmt.Errorf("%w: %d", ErrUnknownKind, peek.Kind)
	}
	return peek.Kind, nil
}

// Equal compares two values by their CBOR encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}

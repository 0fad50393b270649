package inclusion

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/wire"
)

// Event names pushed on an add_node subscription.
const (
	EventInclusionStarted        = "inclusion started"
	EventInclusionFailed         = "inclusion failed"
	EventInclusionStopped        = "inclusion stopped"
	EventValidateDSKAndEnterPIN  = "validate dsk and enter pin"
	EventGrantSecurityClasses    = "grant security classes"
	EventDeviceRegistered        = "device registered"
	EventNodeAdded               = "node added"
	EventInterviewStageCompleted = "interview stage completed"
	EventInterviewCompleted      = "interview completed"
)

// Event is a decoded inclusion push event. The set is closed: every
// implementation lives in this package.
type Event interface {
	Name() string
	inclusionEvent()
}

type InclusionStarted struct{}

type InclusionFailed struct {
	Reason string `cbor:"1,keyasint,omitempty"`
}

type InclusionStopped struct{}

type ValidateDSK struct {
	DSK string `cbor:"1,keyasint"`
}

type GrantRequested struct {
	RequestedGrant security.Grant `cbor:"1,keyasint"`
}

type DeviceRegistered struct {
	Device Device `cbor:"1,keyasint"`
}

// NodeInfo describes an added node.
type NodeInfo struct {
	NodeID      uint16 `cbor:"1,keyasint"`
	LowSecurity bool   `cbor:"2,keyasint"`
}

type NodeAdded struct {
	Node NodeInfo `cbor:"1,keyasint"`
}

type InterviewStageCompleted struct {
	Stage string `cbor:"1,keyasint"`
}

type InterviewCompleted struct{}

// Malformed stands in for an event that could not be decoded.
type Malformed struct {
	EventName string
	Err       error
}

func (*InclusionStarted) Name() string        { return EventInclusionStarted }
func (*InclusionFailed) Name() string         { return EventInclusionFailed }
func (*InclusionStopped) Name() string        { return EventInclusionStopped }
func (*ValidateDSK) Name() string             { return EventValidateDSKAndEnterPIN }
func (*GrantRequested) Name() string          { return EventGrantSecurityClasses }
func (*DeviceRegistered) Name() string        { return EventDeviceRegistered }
func (*NodeAdded) Name() string               { return EventNodeAdded }
func (*InterviewStageCompleted) Name() string { return EventInterviewStageCompleted }
func (*InterviewCompleted) Name() string      { return EventInterviewCompleted }
func (m *Malformed) Name() string             { return m.EventName }

func (*InclusionStarted) inclusionEvent()        {}
func (*InclusionFailed) inclusionEvent()         {}
func (*InclusionStopped) inclusionEvent()        {}
func (*ValidateDSK) inclusionEvent()             {}
func (*GrantRequested) inclusionEvent()          {}
func (*DeviceRegistered) inclusionEvent()        {}
func (*NodeAdded) inclusionEvent()               {}
func (*InterviewStageCompleted) inclusionEvent() {}
func (*InterviewCompleted) inclusionEvent()      {}
func (*Malformed) inclusionEvent()               {}

// DecodeEvent decodes a named push event. Unknown names and undecodable
// payloads yield a *Malformed event together with the error.
func DecodeEvent(name string, payload cbor.RawMessage) (Event, error) {
	var ev Event
	switch name {
	case EventInclusionStarted:
		ev = &InclusionStarted{}
	case EventInclusionFailed:
		ev = &InclusionFailed{}
	case EventInclusionStopped:
		ev = &InclusionStopped{}
	case EventValidateDSKAndEnterPIN:
		ev = &ValidateDSK{}
	case EventGrantSecurityClasses:
		ev = &GrantRequested{}
	case EventDeviceRegistered:
		ev = &DeviceRegistered{}
	case EventNodeAdded:
		ev = &NodeAdded{}
	case EventInterviewStageCompleted:
		ev = &InterviewStageCompleted{}
	case EventInterviewCompleted:
		ev = &InterviewCompleted{}
	default:
		err := &ProtocolError{Reason: fmt.Sprintf("unknown event %q", name)}
		return &Malformed{EventName: name, Err: err}, err
	}

	if err := wire.UnmarshalPayload(payload, ev); err != nil {
		perr := &ProtocolError{Reason: fmt.Sprintf("event %q: %v", name, err)}
		return &Malformed{EventName: name, Err: perr}, perr
	}
	return ev, nil
}

package flow

// Request and event payloads exchanged with the hub.

// HandlerRequest names a flow handler.
type HandlerRequest struct {
	Handler string `cbor:"1,keyasint"`
}

// FlowRequest names a flow.
type FlowRequest struct {
	FlowID string `cbor:"1,keyasint"`
}

// StepRequest submits user input for the current step of a flow.
type StepRequest struct {
	FlowID  string `cbor:"1,keyasint"`
	Payload Values `cbor:"2,keyasint,omitempty"`
}

// InProgressResponse lists the flows the hub tracks for a handler.
type InProgressResponse struct {
	Flows []InProgressFlow `cbor:"1,keyasint"`
}

// ProgressedEvent is the payload of data_entry_flow_progressed.
type ProgressedEvent struct {
	FlowID string `cbor:"1,keyasint"`
}

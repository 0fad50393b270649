package flow

import "context"

// API is the server side of the flow protocol.
type API interface {
	CreateFlow(ctx context.Context, handler string) (*Step, error)
	FetchFlow(ctx context.Context, flowID string) (*Step, error)
	HandleFlowStep(ctx context.Context, flowID string, payload Values) (*Step, error)
	DeleteFlow(ctx context.Context, flowID string) error
	InProgress(ctx context.Context, handler string) ([]InProgressFlow, error)

	// SubscribeProgressed delivers data_entry_flow_progressed events for
	// flowID until the subscription is released.
	SubscribeProgressed(ctx context.Context, flowID string, fn func(flowID string)) (Subscription, error)
}

// Subscription is an owned push-event handle.
type Subscription interface {
	Release()
}

// Host renders a session. Methods are called without session locks held
// and may call back into the session.
type Host interface {
	ShowLoading()
	ShowStep(step *Step)
	ShowPicker(handler string, flows []InProgressFlow)
	Alert(err error)
	Closed(result CloseResult)
}

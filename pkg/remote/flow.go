package remote

import (
	"context"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshpair/meshpair-go/pkg/flow"
	"github.com/meshpair/meshpair-go/pkg/wire"
)

// FlowAPI implements flow.API over the hub protocol.
type FlowAPI struct {
	rpc Caller
}

var _ flow.API = (*FlowAPI)(nil)

// NewFlowAPI creates a flow API on rpc.
func NewFlowAPI(rpc Caller) *FlowAPI {
	return &FlowAPI{rpc: rpc}
}

func (a *FlowAPI) CreateFlow(ctx context.Context, handler string) (*flow.Step, error) {
	return a.step(ctx, wire.CmdFlowCreate, &flow.HandlerRequest{Handler: handler})
}

func (a *FlowAPI) FetchFlow(ctx context.Context, flowID string) (*flow.Step, error) {
	return a.step(ctx, wire.CmdFlowFetch, &flow.FlowRequest{FlowID: flowID})
}

func (a *FlowAPI) HandleFlowStep(ctx context.Context, flowID string, payload flow.Values) (*flow.Step, error) {
	return a.step(ctx, wire.CmdFlowStep, &flow.StepRequest{FlowID: flowID, Payload: payload})
}

func (a *FlowAPI) DeleteFlow(ctx context.Context, flowID string) error {
	return a.rpc.Call(ctx, wire.CmdFlowDelete, &flow.FlowRequest{FlowID: flowID}, nil)
}

func (a *FlowAPI) InProgress(ctx context.Context, handler string) ([]flow.InProgressFlow, error) {
	var resp flow.InProgressResponse
	if err := a.rpc.Call(ctx, wire.CmdFlowInProgress, &flow.HandlerRequest{Handler: handler}, &resp); err != nil {
		return nil, err
	}
	return resp.Flows, nil
}

// SubscribeProgressed subscribes to data_entry_flow_progressed for flowID.
// Other event names on the stream are ignored.
func (a *FlowAPI) SubscribeProgressed(ctx context.Context, flowID string, fn func(flowID string)) (flow.Subscription, error) {
	sub, err := a.rpc.Subscribe(ctx, wire.CmdFlowSubscribeProgressed, &flow.FlowRequest{FlowID: flowID},
		func(name string, payload cbor.RawMessage) {
			if name != wire.EventFlowProgressed {
				return
			}
			var ev flow.ProgressedEvent
			if err := wire.UnmarshalPayload(payload, &ev); err != nil {
				return
			}
			fn(ev.FlowID)
		})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (a *FlowAPI) step(ctx context.Context, command wire.Command, params any) (*flow.Step, error) {
	var step flow.Step
	if err := a.rpc.Call(ctx, command, params, &step); err != nil {
		return nil, err
	}
	return &step, nil
}

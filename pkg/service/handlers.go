package service

import (
	"context"
	"errors"

	"github.com/meshpair/meshpair-go/pkg/flow"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/interaction"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"go.uber.org/zap"
)

// registerHandlers wires the hub commands to the flow manager and the
// inclusion simulator.
func (h *Hub) registerHandlers(srv *interaction.Server) {
	srv.Handle(wire.CmdFlowCreate, h.handleFlowCreate)
	srv.Handle(wire.CmdFlowFetch, h.handleFlowFetch)
	srv.Handle(wire.CmdFlowStep, h.handleFlowStep)
	srv.Handle(wire.CmdFlowDelete, h.handleFlowDelete)
	srv.Handle(wire.CmdFlowInProgress, h.handleFlowInProgress)
	srv.HandleStream(wire.CmdFlowSubscribeProgressed, h.handleFlowSubscribe)

	srv.HandleStream(wire.CmdAddNode, h.handleAddNode)
	srv.Handle(wire.CmdStopInclusion, h.handleStopInclusion)
	srv.Handle(wire.CmdValidateDSKAndEnterPIN, h.handleValidatePIN)
	srv.Handle(wire.CmdGrantSecurityClasses, h.handleGrant)
	srv.Handle(wire.CmdProvisionSmartStartNode, h.handleProvision)
	srv.Handle(wire.CmdParseQRCodeString, h.handleParseQR)
	srv.Handle(wire.CmdSupportsFeature, h.handleSupportsFeature)
}

func (h *Hub) handleFlowCreate(_ context.Context, req *interaction.Request) (any, error) {
	var p flow.HandlerRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	step, err := h.flows.Create(p.Handler)
	if err != nil {
		return nil, statusError(err)
	}
	h.logger.Debug("flow created", connField(req), zap.String("handler", p.Handler), zap.String("flow_id", step.FlowID))
	return step, nil
}

func (h *Hub) handleFlowFetch(_ context.Context, req *interaction.Request) (any, error) {
	var p flow.FlowRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	step, err := h.flows.Fetch(p.FlowID)
	return step, statusError(err)
}

func (h *Hub) handleFlowStep(_ context.Context, req *interaction.Request) (any, error) {
	var p flow.StepRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	step, err := h.flows.Step(p.FlowID, p.Payload)
	return step, statusError(err)
}

func (h *Hub) handleFlowDelete(_ context.Context, req *interaction.Request) (any, error) {
	var p flow.FlowRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return nil, statusError(h.flows.Delete(p.FlowID))
}

func (h *Hub) handleFlowInProgress(_ context.Context, req *interaction.Request) (any, error) {
	var p flow.HandlerRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return &flow.InProgressResponse{Flows: h.flows.InProgress(p.Handler)}, nil
}

func (h *Hub) handleFlowSubscribe(_ context.Context, req *interaction.Request, st *interaction.Stream) error {
	var p flow.FlowRequest
	if err := req.Decode(&p); err != nil {
		return err
	}
	cancel, err := h.flows.Watch(p.FlowID, func(flowID string) {
		st.Emit(wire.EventFlowProgressed, &flow.ProgressedEvent{FlowID: flowID})
	})
	if err != nil {
		return statusError(err)
	}
	go func() {
		<-st.Done()
		cancel()
	}()
	return nil
}

func (h *Hub) handleAddNode(_ context.Context, req *interaction.Request, st *interaction.Stream) error {
	var p inclusion.AddNodeRequest
	if err := req.Decode(&p); err != nil {
		return err
	}
	h.logger.Debug("add node", connField(req), zap.String("entry_id", p.EntryID), zap.Uint32("subscription_id", st.ID()))
	return statusError(h.inclusion.AddNode(p.EntryID, p.Options, st))
}

func (h *Hub) handleStopInclusion(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.EntryRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return nil, statusError(h.inclusion.StopInclusion(p.EntryID))
}

func (h *Hub) handleValidatePIN(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.PINRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return nil, statusError(h.inclusion.ValidateDSKAndEnterPIN(p.EntryID, p.PIN))
}

func (h *Hub) handleGrant(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.GrantRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return nil, statusError(h.inclusion.GrantSecurityClasses(p.EntryID, p.Grant))
}

func (h *Hub) handleProvision(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.ProvisionRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	return nil, statusError(h.inclusion.ProvisionSmartStartNode(p.EntryID, p.Options))
}

func (h *Hub) handleParseQR(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.ParseQRRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	info, err := h.inclusion.ParseQRCodeString(p.EntryID, p.QRCodeString)
	if err != nil {
		return nil, statusError(err)
	}
	return info, nil
}

func (h *Hub) handleSupportsFeature(_ context.Context, req *interaction.Request) (any, error) {
	var p inclusion.SupportsFeatureRequest
	if err := req.Decode(&p); err != nil {
		return nil, err
	}
	ok, err := h.inclusion.SupportsFeature(p.EntryID, p.Feature)
	if err != nil {
		return nil, statusError(err)
	}
	return &inclusion.SupportsFeatureResponse{Supported: ok}, nil
}

// statusError maps service errors to response statuses.
func statusError(err error) error {
	if err == nil {
		return nil
	}
	var status wire.Status
	switch {
	case errors.Is(err, ErrFlowNotFound), errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrUnknownHandler):
		status = wire.StatusNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrWrongPIN):
		status = wire.StatusInvalidParameter
	case errors.Is(err, ErrUnsupported):
		status = wire.StatusUnsupported
	case errors.Is(err, ErrWrongState):
		status = wire.StatusBusy
	default:
		status = wire.StatusFailure
	}
	return interaction.NewStatusError(status, "%v", err)
}

func connField(req *interaction.Request) zap.Field {
	return zap.String("conn_id", req.Session.ConnID())
}

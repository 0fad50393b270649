package remote

import (
	"context"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"go.uber.org/zap"
)

// InclusionService implements inclusion.Service over the hub protocol.
type InclusionService struct {
	rpc    Caller
	logger *zap.Logger
}

var _ inclusion.Service = (*InclusionService)(nil)

// NewInclusionService creates an inclusion service on rpc.
func NewInclusionService(rpc Caller, logger *zap.Logger) *InclusionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InclusionService{rpc: rpc, logger: logger}
}

// AddNode starts an inclusion attempt. Events that cannot be decoded are
// delivered as *inclusion.Malformed so the controller can fail the attempt.
func (s *InclusionService) AddNode(ctx context.Context, entryID string, opts inclusion.AddNodeOptions, fn func(inclusion.Event)) (inclusion.Subscription, error) {
	req := &inclusion.AddNodeRequest{EntryID: entryID, Options: opts}
	sub, err := s.rpc.Subscribe(ctx, wire.CmdAddNode, req, func(name string, payload cbor.RawMessage) {
		ev, err := inclusion.DecodeEvent(name, payload)
		if err != nil {
			s.logger.Warn("malformed inclusion event",
				zap.String("entry_id", entryID), zap.String("event", name), zap.Error(err))
		}
		fn(ev)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *InclusionService) StopInclusion(ctx context.Context, entryID string) error {
	return s.rpc.Call(ctx, wire.CmdStopInclusion, &inclusion.EntryRequest{EntryID: entryID}, nil)
}

func (s *InclusionService) ValidateDSKAndEnterPIN(ctx context.Context, entryID string, pin string) error {
	return s.rpc.Call(ctx, wire.CmdValidateDSKAndEnterPIN, &inclusion.PINRequest{EntryID: entryID, PIN: pin}, nil)
}

func (s *InclusionService) GrantSecurityClasses(ctx context.Context, entryID string, grant security.Grant) error {
	return s.rpc.Call(ctx, wire.CmdGrantSecurityClasses, &inclusion.GrantRequest{EntryID: entryID, Grant: grant}, nil)
}

func (s *InclusionService) ProvisionSmartStartNode(ctx context.Context, entryID string, opts inclusion.ProvisionOptions) error {
	return s.rpc.Call(ctx, wire.CmdProvisionSmartStartNode, &inclusion.ProvisionRequest{EntryID: entryID, Options: opts}, nil)
}

func (s *InclusionService) ParseQRCodeString(ctx context.Context, entryID string, code string) (*qrcode.ProvisioningInfo, error) {
	var info qrcode.ProvisioningInfo
	req := &inclusion.ParseQRRequest{EntryID: entryID, QRCodeString: code}
	if err := s.rpc.Call(ctx, wire.CmdParseQRCodeString, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *InclusionService) SupportsFeature(ctx context.Context, entryID string, feature inclusion.Feature) (bool, error) {
	var resp inclusion.SupportsFeatureResponse
	req := &inclusion.SupportsFeatureRequest{EntryID: entryID, Feature: feature}
	if err := s.rpc.Call(ctx, wire.CmdSupportsFeature, req, &resp); err != nil {
		return false, err
	}
	return resp.Supported, nil
}

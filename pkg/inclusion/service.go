package inclusion

import (
	"context"

	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
)

// Service is the mesh controller the dialog talks to.
type Service interface {
	// AddNode starts an inclusion attempt. fn receives the attempt's events
	// in order until the subscription is released.
	AddNode(ctx context.Context, entryID string, opts AddNodeOptions, fn func(Event)) (Subscription, error)
	StopInclusion(ctx context.Context, entryID string) error
	ValidateDSKAndEnterPIN(ctx context.Context, entryID string, pin string) error
	GrantSecurityClasses(ctx context.Context, entryID string, grant security.Grant) error
	ProvisionSmartStartNode(ctx context.Context, entryID string, opts ProvisionOptions) error
	ParseQRCodeString(ctx context.Context, entryID string, code string) (*qrcode.ProvisioningInfo, error)
	SupportsFeature(ctx context.Context, entryID string, feature Feature) (bool, error)
}

// Subscription is an owned push-event handle.
type Subscription interface {
	Release()
}

package inclusion

import (
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
)

// ProvisioningStatus marks whether a planned entry is active.
type ProvisioningStatus uint8

const (
	ProvisioningActive   ProvisioningStatus = 0
	ProvisioningInactive ProvisioningStatus = 1
)

// PlannedProvisioningEntry is a SmartStart provisioning list entry.
type PlannedProvisioningEntry struct {
	DSK             string             `cbor:"1,keyasint"`
	SecurityClasses []security.Class   `cbor:"2,keyasint"`
	Status          ProvisioningStatus `cbor:"3,keyasint"`
}

// AddNodeOptions parameterize an add_node attempt.
type AddNodeOptions struct {
	Strategy                  Strategy                  `cbor:"1,keyasint"`
	QRCodeString              string                    `cbor:"2,keyasint,omitempty"`
	QRProvisioningInformation *qrcode.ProvisioningInfo  `cbor:"3,keyasint,omitempty"`
	PlannedProvisioningEntry  *PlannedProvisioningEntry `cbor:"4,keyasint,omitempty"`
}

// ProvisionOptions parameterize provision_smart_start_node.
type ProvisionOptions struct {
	QRCodeString              string                    `cbor:"1,keyasint,omitempty"`
	QRProvisioningInformation *qrcode.ProvisioningInfo  `cbor:"2,keyasint,omitempty"`
	PlannedProvisioningEntry  *PlannedProvisioningEntry `cbor:"3,keyasint,omitempty"`
}

// Request payloads.

type EntryRequest struct {
	EntryID string `cbor:"1,keyasint"`
}

type AddNodeRequest struct {
	EntryID string         `cbor:"1,keyasint"`
	Options AddNodeOptions `cbor:"2,keyasint"`
}

type PINRequest struct {
	EntryID string `cbor:"1,keyasint"`
	PIN     string `cbor:"2,keyasint"`
}

type GrantRequest struct {
	EntryID string         `cbor:"1,keyasint"`
	Grant   security.Grant `cbor:"2,keyasint"`
}

type ProvisionRequest struct {
	EntryID string           `cbor:"1,keyasint"`
	Options ProvisionOptions `cbor:"2,keyasint"`
}

type ParseQRRequest struct {
	EntryID      string `cbor:"1,keyasint"`
	QRCodeString string `cbor:"2,keyasint"`
}

type SupportsFeatureRequest struct {
	EntryID string  `cbor:"1,keyasint"`
	Feature Feature `cbor:"2,keyasint"`
}

type SupportsFeatureResponse struct {
	Supported bool `cbor:"1,keyasint"`
}

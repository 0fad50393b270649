package inclusion

import (
	"fmt"
	"strings"

	"github.com/meshpair/meshpair-go/pkg/security"
)

// Status is the dialog status.
type Status uint8

const (
	StatusIdle Status = iota
	StatusChooseStrategy
	StatusQRScan
	StatusValidateDSKEnterPIN
	StatusGrantSecurityClasses
	StatusStarted
	StatusStartedSpecific
	StatusInterviewing
	StatusFailed
	StatusFinished
	StatusProvisioned
	StatusTimedOut
	StatusLoading
)

var statusNames = [...]string{
	StatusIdle:                 "idle",
	StatusChooseStrategy:       "choose_strategy",
	StatusQRScan:               "qr_scan",
	StatusValidateDSKEnterPIN:  "validate_dsk_enter_pin",
	StatusGrantSecurityClasses: "grant_security_classes",
	StatusStarted:              "started",
	StatusStartedSpecific:      "started_specific",
	StatusInterviewing:         "interviewing",
	StatusFailed:               "failed",
	StatusFinished:             "finished",
	StatusProvisioned:          "provisioned",
	StatusTimedOut:             "timed_out",
	StatusLoading:              "loading",
}

// String returns the status name.
func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// IsTerminal reports whether the attempt has ended.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFailed, StatusFinished, StatusProvisioned, StatusTimedOut:
		return true
	}
	return false
}

// Strategy selects how a node is included.
type Strategy uint8

const (
	StrategyDefault    Strategy = 0
	StrategySmartStart Strategy = 1
	StrategyInsecure   Strategy = 2
	StrategySecurityS0 Strategy = 3
	StrategySecurityS2 Strategy = 4
)

var strategyNames = map[Strategy]string{
	StrategyDefault:    "default",
	StrategySmartStart: "smart_start",
	StrategyInsecure:   "insecure",
	StrategySecurityS0: "security_s0",
	StrategySecurityS2: "security_s2",
}

// String returns the strategy name.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// IsValid reports whether s is a known strategy.
func (s Strategy) IsValid() bool {
	_, ok := strategyNames[s]
	return ok
}

// ParseStrategy parses a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	switch name {
	case "s0":
		return StrategySecurityS0, nil
	case "s2":
		return StrategySecurityS2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, name)
}

// Feature is an optional controller capability.
type Feature uint8

const (
	FeatureSmartStart Feature = 0
)

// String returns the feature name.
func (f Feature) String() string {
	switch f {
	case FeatureSmartStart:
		return "smart_start"
	default:
		return fmt.Sprintf("Feature(%d)", uint8(f))
	}
}

// Device is the registry entry created for an included node.
type Device struct {
	ID           string `cbor:"1,keyasint"`
	Name         string `cbor:"2,keyasint,omitempty"`
	Manufacturer string `cbor:"3,keyasint,omitempty"`
	Model        string `cbor:"4,keyasint,omitempty"`
	NodeID       uint16 `cbor:"5,keyasint,omitempty"`
}

// Snapshot is a copy of the dialog state handed to observers.
type Snapshot struct {
	EntryID            string
	Status             Status
	Device             *Device
	Stages             []string
	Strategy           Strategy
	StrategyChosen     bool
	DSK                string
	RequestedGrant     *security.Grant
	SecurityClasses    security.ClassSet
	LowSecurity        bool
	SupportsSmartStart *bool
	Error              string
}

func (s Snapshot) clone() Snapshot {
	c := s
	if s.Device != nil {
		d := *s.Device
		c.Device = &d
	}
	if s.Stages != nil {
		c.Stages = append([]string(nil), s.Stages...)
	}
	if s.RequestedGrant != nil {
		g := *s.RequestedGrant
		g.SecurityClasses = append([]security.Class(nil), s.RequestedGrant.SecurityClasses...)
		c.RequestedGrant = &g
	}
	if s.SupportsSmartStart != nil {
		v := *s.SupportsSmartStart
		c.SupportsSmartStart = &v
	}
	return c
}

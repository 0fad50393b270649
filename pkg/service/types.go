package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/meshpair/meshpair-go/pkg/discovery"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/transport"
	"go.uber.org/zap"
)

// Service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrAlreadyStarted = errors.New("service already started")
	ErrInvalidConfig  = errors.New("invalid configuration")

	ErrUnknownHandler = errors.New("unknown flow handler")
	ErrFlowNotFound   = errors.New("flow not found")
	ErrEntryNotFound  = errors.New("entry not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrWrongPIN       = errors.New("wrong PIN")
	ErrWrongState     = errors.New("operation not valid now")
	ErrUnsupported    = errors.New("not supported")
)

// ServiceState represents the service state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - service is opening its listener.
	StateStarting

	// StateRunning - service is accepting connections.
	StateRunning

	// StateStopping - service is shutting down.
	StateStopping

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Advertiser publishes the hub on the network.
type Advertiser interface {
	Advertise(info discovery.HubInfo) error
	Stop()
}

// Config configures a Hub.
type Config struct {
	// ListenAddress is the address to listen on (e.g., ":8445").
	ListenAddress string

	// HubID identifies the hub in discovery. Empty uses the scenario's id or
	// a random one.
	HubID string

	// HubName is the advertised name. Empty uses the scenario's name.
	HubName string

	// FlowIdleTimeout drops flows nobody touched for this long.
	FlowIdleTimeout time.Duration

	// MaxMessageSize is the maximum frame size.
	MaxMessageSize uint32

	// Advertiser publishes the hub once it listens. Optional.
	Advertiser Advertiser

	// Logger is the operational logger. Nil disables logging.
	Logger *zap.Logger

	// ProtocolLogger captures frames and messages. Optional.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   fmt.Sprintf(":%d", transport.DefaultPort),
		FlowIdleTimeout: 30 * time.Minute,
		MaxMessageSize:  transport.DefaultMaxMessageSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	}
	if c.FlowIdleTimeout <= 0 {
		return fmt.Errorf("%w: flow idle timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

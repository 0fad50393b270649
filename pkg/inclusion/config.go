package inclusion

import (
	"errors"
	"time"

	"github.com/meshpair/meshpair-go/pkg/log"
	"go.uber.org/zap"
)

// DefaultInclusionTimeout bounds one inclusion attempt.
const DefaultInclusionTimeout = 90 * time.Second

// Config configures a Controller.
type Config struct {
	// InclusionTimeout is the watchdog duration armed for every attempt.
	InclusionTimeout time.Duration

	// RequestTimeout bounds calls the controller makes on its own behalf
	// (auto-grant, stop on teardown).
	RequestTimeout time.Duration

	// AutoGrant accepts the proposed security classes without asking the
	// user when no strategy was chosen explicitly.
	AutoGrant bool

	// Logger receives operational logs. Nil disables them.
	Logger *zap.Logger

	// ProtocolLogger receives status transitions as state events.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		InclusionTimeout: DefaultInclusionTimeout,
		RequestTimeout:   30 * time.Second,
		AutoGrant:        true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.InclusionTimeout <= 0 {
		return errors.New("inclusion: timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("inclusion: request timeout must be positive")
	}
	return nil
}

package flow

import (
	"errors"
	"time"

	"github.com/meshpair/meshpair-go/pkg/log"
	"go.uber.org/zap"
)

// Config configures a Session.
type Config struct {
	// RequestTimeout bounds calls the session makes on its own behalf
	// (re-fetch on progress, delete on close).
	RequestTimeout time.Duration

	// Logger receives operational logs. Nil disables them.
	Logger *zap.Logger

	// ProtocolLogger receives step transitions as state events.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return errors.New("flow: request timeout must be positive")
	}
	return nil
}

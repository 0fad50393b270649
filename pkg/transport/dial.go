package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/meshpair/meshpair-go/pkg/log"
)

// DialConfig configures an outgoing connection to a hub.
type DialConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout bounds each connection attempt (default: 10s).
	ConnectTimeout time.Duration

	// Retries is the number of additional attempts after the first failure.
	Retries int

	// RetryInterval is the constant delay between attempts (default: 1s).
	RetryInterval time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// DefaultDialConfig returns the default dial configuration.
func DefaultDialConfig() DialConfig {
	return DialConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		ConnectTimeout: 10 * time.Second,
		Retries:        3,
		RetryInterval:  time.Second,
	}
}

// Dial connects to address, retrying with a constant backoff. Cancelling
// ctx aborts the remaining attempts.
func Dial(ctx context.Context, address string, config DialConfig) (*Conn, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	if config.RetryInterval == 0 {
		config.RetryInterval = time.Second
	}
	if config.Retries < 0 {
		config.Retries = 0
	}

	var nc net.Conn
	attempt := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		dialer := &net.Dialer{Timeout: config.ConnectTimeout}
		c, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return err
		}
		nc = c
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(config.RetryInterval), uint64(config.Retries)),
		ctx,
	)
	if err := backoff.Retry(attempt, b); err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	return NewConn(nc, config.MaxMessageSize, config.Logger), nil
}

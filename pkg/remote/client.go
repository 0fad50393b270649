package remote

import (
	"context"
	"time"

	"github.com/meshpair/meshpair-go/pkg/interaction"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/transport"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"go.uber.org/zap"
)

// Caller is the part of *interaction.Client the adapters use.
type Caller interface {
	Call(ctx context.Context, command wire.Command, params any, result any) error
	Subscribe(ctx context.Context, command wire.Command, params any, handler interaction.EventHandler) (*interaction.Subscription, error)
}

// Config configures a hub client.
type Config struct {
	Dial transport.DialConfig

	// RequestTimeout bounds calls whose context has no deadline.
	RequestTimeout time.Duration

	Logger         *zap.Logger
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		Dial:           transport.DefaultDialConfig(),
		RequestTimeout: interaction.DefaultRequestTimeout,
	}
}

// Client is a connection to a hub.
type Client struct {
	conn   *transport.Conn
	rpc    *interaction.Client
	logger *zap.Logger

	flows     *FlowAPI
	inclusion *InclusionService

	done chan struct{}
	err  error
}

// Dial connects to the hub at address.
func Dial(ctx context.Context, address string, config Config) (*Client, error) {
	if config.Dial.Logger == nil {
		config.Dial.Logger = config.ProtocolLogger
	}
	conn, err := transport.Dial(ctx, address, config.Dial)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, config), nil
}

// NewClient starts serving an established connection.
func NewClient(conn *transport.Conn, config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("remote")

	rpc := interaction.NewClient(conn)
	if config.RequestTimeout > 0 {
		rpc.SetTimeout(config.RequestTimeout)
	}
	if config.ProtocolLogger != nil {
		rpc.SetProtocolLogger(config.ProtocolLogger, conn.ID())
	}

	c := &Client{
		conn:      conn,
		rpc:       rpc,
		logger:    logger,
		flows:     NewFlowAPI(rpc),
		inclusion: NewInclusionService(rpc, logger),
		done:      make(chan struct{}),
	}
	go c.serve()
	return c
}

func (c *Client) serve() {
	defer close(c.done)

	c.err = c.conn.Serve(c.rpc.HandleFrame)
	if c.err != nil {
		c.logger.Warn("hub connection failed", zap.String("conn_id", c.conn.ID()), zap.Error(c.err))
	} else {
		c.logger.Debug("hub connection closed", zap.String("conn_id", c.conn.ID()))
	}
	c.rpc.Close()
}

// Flows returns the flow API of the hub.
func (c *Client) Flows() *FlowAPI {
	return c.flows
}

// Inclusion returns the inclusion service of the hub.
func (c *Client) Inclusion() *InclusionService {
	return c.inclusion
}

// RPC returns the underlying interaction client.
func (c *Client) RPC() *interaction.Client {
	return c.rpc
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the read error that ended the connection, if any. Only
// meaningful after Done is closed.
func (c *Client) Err() error {
	return c.err
}

// Close closes the connection and fails everything pending on it.
func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

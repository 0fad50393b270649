package transport

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/meshpair/meshpair-go/pkg/log"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
)

// Conn is a framed connection. Frames are sent with Send and delivered to the
// handler passed to Serve, one at a time and in arrival order.
type Conn struct {
	conn   net.Conn
	framer *Framer
	id     string

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewConn wraps an established network connection. A fresh uuid identifies
// the connection in protocol logs.
func NewConn(nc net.Conn, maxMessageSize uint32, logger log.Logger) *Conn {
	c := &Conn{
		conn:    nc,
		framer:  NewFramer(nc, maxMessageSize),
		id:      uuid.New().String(),
		closeCh: make(chan struct{}),
	}
	if logger != nil {
		c.framer.SetLogger(logger, c.id)
	}
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send writes one message frame. Safe for concurrent use.
func (c *Conn) Send(data []byte) error {
	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(data)
}

// Serve reads frames until the connection fails or is closed, passing each
// frame to handler. It returns nil after Close or a clean EOF.
func (c *Conn) Serve(handler func(data []byte)) error {
	defer c.Close()

	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			select {
			case <-c.closeCh:
				return nil
			default:
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		handler(data)
	}
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.closeCh
}

// Close closes the connection. Safe to call multiple times.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}

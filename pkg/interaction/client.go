package interaction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/wire"
)

// DefaultRequestTimeout bounds a call when the context has no deadline.
const DefaultRequestTimeout = 30 * time.Second

// Sender sends one encoded message.
type Sender interface {
	Send(data []byte) error
}

// EventHandler receives the events of one subscription.
type EventHandler func(name string, payload cbor.RawMessage)

type pendingCall struct {
	ch  chan *wire.Response
	sub *Subscription
}

// Client issues requests to the hub and dispatches push events.
type Client struct {
	mu sync.RWMutex

	sender  Sender
	timeout time.Duration
	closed  bool

	protoLog log.Logger
	connID   string

	nextMsgID uint32

	pending   map[uint32]*pendingCall
	pendingMu sync.Mutex

	subs   map[uint32]*Subscription
	subsMu sync.RWMutex

	events *eventQueue
}

// NewClient creates a client that sends over sender. The caller feeds
// received frames to HandleFrame.
func NewClient(sender Sender) *Client {
	c := &Client{
		sender:   sender,
		timeout:  DefaultRequestTimeout,
		protoLog: log.NoopLogger{},
		pending:  make(map[uint32]*pendingCall),
		subs:     make(map[uint32]*Subscription),
		events:   newEventQueue(),
	}
	go c.dispatchLoop()
	return c
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// SetProtocolLogger enables wire-layer capture of requests, responses and
// events.
func (c *Client) SetProtocolLogger(logger log.Logger, connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protoLog = log.OrNoop(logger)
	c.connID = connID
}

// Close fails all pending calls, releases all subscriptions and stops the
// dispatcher.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pendingMu.Lock()
	for id, pc := range c.pending {
		close(pc.ch)
		delete(c.pending, id)
	}
	c.pendingMu.Unlock()

	c.subsMu.Lock()
	for id, sub := range c.subs {
		sub.released.Store(true)
		delete(c.subs, id)
	}
	c.subsMu.Unlock()

	c.events.close()
	return nil
}

// Call sends a command and decodes the response payload into result (which
// may be nil). Non-success responses are returned as *StatusError.
func (c *Client) Call(ctx context.Context, command wire.Command, params any, result any) error {
	resp, err := c.roundTrip(ctx, command, params, nil)
	if err != nil {
		return err
	}
	return wire.UnmarshalPayload(resp.Payload, result)
}

// Subscribe sends a subscribing command. handler receives every event of the
// subscription until it is released. Events that arrive right after the
// response are never lost: the subscription is registered on the read path
// before the response is handed back.
func (c *Client) Subscribe(ctx context.Context, command wire.Command, params any, handler EventHandler) (*Subscription, error) {
	if handler == nil {
		handler = func(string, cbor.RawMessage) {}
	}
	sub := &Subscription{client: c, command: command, handler: handler}
	if _, err := c.roundTrip(ctx, command, params, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Client) nextMessageID() uint32 {
	for {
		id := atomic.AddUint32(&c.nextMsgID, 1)
		if id != 0 {
			return id
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, command wire.Command, params any, sub *Subscription) (*wire.Response, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	timeout := c.timeout
	c.mu.RUnlock()

	payload, err := wire.MarshalPayload(params)
	if err != nil {
		return nil, err
	}
	req := &wire.Request{
		MessageID: c.nextMessageID(),
		Command:   command,
		Payload:   payload,
	}

	data, err := wire.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	pc := &pendingCall{ch: make(chan *wire.Response, 1), sub: sub}
	c.pendingMu.Lock()
	c.pending[req.MessageID] = pc
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, req.MessageID)
		c.pendingMu.Unlock()
	}()

	c.logMessage(log.DirectionOut, &log.MessageEvent{
		Kind:      wire.KindRequest,
		MessageID: req.MessageID,
		Command:   command,
		Payload:   payload,
	})

	if err := c.sender.Send(data); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrRequestTimeout
	case resp, ok := <-pc.ch:
		if !ok {
			return nil, ErrClientClosed
		}
		if !resp.IsSuccess() {
			return nil, &StatusError{Status: resp.Status, Message: resp.Message}
		}
		return resp, nil
	}
}

// HandleFrame routes one received frame. It must be called from a single
// goroutine (the connection read loop).
func (c *Client) HandleFrame(data []byte) {
	kind, err := wire.PeekKind(data)
	if err != nil {
		c.logError("peek", err)
		return
	}

	switch kind {
	case wire.KindResponse:
		resp, err := wire.DecodeResponse(data)
		if err != nil {
			c.logError("decode response", err)
			return
		}
		_ = c.HandleResponse(resp)
	case wire.KindEvent:
		ev, err := wire.DecodeEvent(data)
		if err != nil {
			c.logError("decode event", err)
			return
		}
		c.HandleEvent(ev)
	default:
		c.logError("route", ErrUnexpectedReply)
	}
}

// HandleResponse completes the pending call with the response's id.
func (c *Client) HandleResponse(resp *wire.Response) error {
	status := resp.Status
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Kind:      wire.KindResponse,
		MessageID: resp.MessageID,
		Status:    &status,
		Payload:   resp.Payload,
	})

	c.pendingMu.Lock()
	pc, exists := c.pending[resp.MessageID]
	c.pendingMu.Unlock()
	if !exists {
		return ErrUnexpectedReply
	}

	if pc.sub != nil && resp.IsSuccess() {
		var sr wire.SubscribeResponsePayload
		if err := wire.UnmarshalPayload(resp.Payload, &sr); err != nil || sr.SubscriptionID == 0 {
			resp = &wire.Response{
				MessageID: resp.MessageID,
				Status:    wire.StatusFailure,
				Message:   "subscribe response without subscription id",
			}
		} else {
			pc.sub.id = sr.SubscriptionID
			c.subsMu.Lock()
			c.subs[sr.SubscriptionID] = pc.sub
			c.subsMu.Unlock()
		}
	}

	select {
	case pc.ch <- resp:
	default:
	}
	return nil
}

// HandleEvent queues an event for in-order dispatch.
func (c *Client) HandleEvent(ev *wire.Event) {
	subID := ev.SubscriptionID
	c.logMessage(log.DirectionIn, &log.MessageEvent{
		Kind:           wire.KindEvent,
		SubscriptionID: &subID,
		EventName:      ev.Name,
		Payload:        ev.Payload,
	})
	c.events.push(ev)
}

func (c *Client) dispatchLoop() {
	for {
		ev, ok := c.events.pop()
		if !ok {
			return
		}

		c.subsMu.RLock()
		sub := c.subs[ev.SubscriptionID]
		c.subsMu.RUnlock()

		if sub == nil || sub.released.Load() {
			continue
		}
		sub.handler(ev.Name, ev.Payload)
	}
}

func (c *Client) unsubscribe(sub *Subscription) {
	c.subsMu.Lock()
	_, live := c.subs[sub.id]
	delete(c.subs, sub.id)
	c.subsMu.Unlock()

	if !live {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Call(ctx, wire.CmdUnsubscribe, &wire.UnsubscribePayload{SubscriptionID: sub.id}, nil)
	}()
}

func (c *Client) logMessage(direction log.Direction, msg *log.MessageEvent) {
	c.mu.RLock()
	logger, connID := c.protoLog, c.connID
	c.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleClient,
		Message:      msg,
	})
}

func (c *Client) logError(op string, err error) {
	c.mu.RLock()
	logger, connID := c.protoLog, c.connID
	c.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		LocalRole:    log.RoleClient,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: op,
		},
	})
}

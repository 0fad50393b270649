package interaction

import (
	"context"
	"errors"
	"sync"

	"github.com/meshpair/meshpair-go/pkg/wire"
)

// ErrStreamClosed is returned by Emit after the stream was closed.
var ErrStreamClosed = errors.New("stream closed")

// Session holds the per-connection subscription registry.
type Session struct {
	conn   Connection
	server *Server

	mu        sync.Mutex
	nextSubID uint32
	streams   map[uint32]*Stream
	closed    bool
}

// ConnID returns the id of the underlying connection.
func (s *Session) ConnID() string {
	return s.conn.ID()
}

// StreamCount returns the number of open streams.
func (s *Session) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}

func (s *Session) openStream(parent context.Context, command wire.Command) *Stream {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	ctx, cancel := context.WithCancel(parent)
	st := &Stream{
		id:      s.nextSubID,
		command: command,
		session: s,
		ctx:     ctx,
		cancel:  cancel,
	}
	if s.closed {
		st.closed = true
		cancel()
		return st
	}
	s.streams[st.id] = st
	return st
}

func (s *Session) closeStream(id uint32) bool {
	s.mu.Lock()
	st, ok := s.streams[id]
	delete(s.streams, id)
	s.mu.Unlock()

	if ok {
		st.Close()
	}
	return ok
}

func (s *Session) closeAll() {
	s.mu.Lock()
	s.closed = true
	streams := s.streams
	s.streams = make(map[uint32]*Stream)
	s.mu.Unlock()

	for _, st := range streams {
		st.Close()
	}
}

// Stream is the hub side of one subscription.
type Stream struct {
	id      uint32
	command wire.Command
	session *Session
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	active  bool
	closed  bool
	backlog []*wire.Event
}

// ID returns the subscription id.
func (st *Stream) ID() uint32 {
	return st.id
}

// Done is closed when the client unsubscribes or disconnects.
func (st *Stream) Done() <-chan struct{} {
	return st.ctx.Done()
}

// Context returns a context cancelled together with the stream.
func (st *Stream) Context() context.Context {
	return st.ctx
}

// Emit pushes a named event with an optional payload.
func (st *Stream) Emit(name string, payload any) error {
	raw, err := wire.MarshalPayload(payload)
	if err != nil {
		return err
	}
	ev := &wire.Event{SubscriptionID: st.id, Name: name, Payload: raw}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return ErrStreamClosed
	}
	if !st.active {
		st.backlog = append(st.backlog, ev)
		return nil
	}
	return st.session.server.sendEvent(st.session, ev)
}

// Close ends the stream. Later Emit calls fail with ErrStreamClosed.
func (st *Stream) Close() {
	st.mu.Lock()
	st.closed = true
	st.backlog = nil
	st.mu.Unlock()
	st.cancel()
}

func (st *Stream) activate() {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return
	}
	st.active = true
	for _, ev := range st.backlog {
		if err := st.session.server.sendEvent(st.session, ev); err != nil {
			break
		}
	}
	st.backlog = nil
}

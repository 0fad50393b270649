package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"go.uber.org/zap"
)

// Request is a decoded command as seen by a handler.
type Request struct {
	Command wire.Command
	Payload cbor.RawMessage
	Session *Session
}

// Decode decodes the request payload into v. A malformed payload yields an
// INVALID_PARAMETER status error.
func (r *Request) Decode(v any) error {
	if err := wire.UnmarshalPayload(r.Payload, v); err != nil {
		return NewStatusError(wire.StatusInvalidParameter, "%v", err)
	}
	return nil
}

// HandlerFunc answers a plain command. The returned value becomes the
// response payload.
type HandlerFunc func(ctx context.Context, req *Request) (any, error)

// StreamHandlerFunc answers a subscribing command. Events emitted on stream
// before the handler returns are held back until the response carrying the
// subscription id has been sent.
type StreamHandlerFunc func(ctx context.Context, req *Request, stream *Stream) error

// Connection is the server's view of a transport connection.
type Connection interface {
	ID() string
	Send(data []byte) error
}

// Server routes hub commands to handlers and owns per-connection
// subscriptions.
type Server struct {
	mu sync.RWMutex

	handlers       map[wire.Command]HandlerFunc
	streamHandlers map[wire.Command]StreamHandlerFunc

	logger   *zap.Logger
	protoLog log.Logger
}

// NewServer creates a server. A nil logger disables operational logging.
func NewServer(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		handlers:       make(map[wire.Command]HandlerFunc),
		streamHandlers: make(map[wire.Command]StreamHandlerFunc),
		logger:         logger.Named("interaction"),
		protoLog:       log.NoopLogger{},
	}
}

// SetProtocolLogger enables wire-layer capture.
func (s *Server) SetProtocolLogger(logger log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protoLog = log.OrNoop(logger)
}

// Handle registers a plain command handler.
func (s *Server) Handle(command wire.Command, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[command] = h
}

// HandleStream registers a subscribing command handler.
func (s *Server) HandleStream(command wire.Command, h StreamHandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamHandlers[command] = h
}

// Attach creates the session state for a new connection.
func (s *Server) Attach(conn Connection) *Session {
	return &Session{
		conn:    conn,
		server:  s,
		streams: make(map[uint32]*Stream),
	}
}

// Detach closes every stream of the session. Call it when the connection
// goes away.
func (s *Server) Detach(session *Session) {
	session.closeAll()
}

// HandleFrame decodes and answers one request frame. Requests of a session
// are handled one at a time, in order.
func (s *Server) HandleFrame(ctx context.Context, session *Session, data []byte) {
	started := time.Now()

	req, err := wire.DecodeRequest(data)
	if err != nil {
		s.logger.Warn("dropping malformed request",
			zap.String("conn_id", session.conn.ID()), zap.Error(err))
		return
	}
	s.logMessage(session, log.DirectionIn, &log.MessageEvent{
		Kind:      wire.KindRequest,
		MessageID: req.MessageID,
		Command:   req.Command,
		Payload:   req.Payload,
	})

	r := &Request{Command: req.Command, Payload: req.Payload, Session: session}

	s.mu.RLock()
	handler := s.handlers[req.Command]
	streamHandler := s.streamHandlers[req.Command]
	s.mu.RUnlock()

	switch {
	case req.Command == wire.CmdUnsubscribe:
		result, err := s.handleUnsubscribe(r)
		s.respond(session, req.MessageID, result, err, started)

	case streamHandler != nil:
		stream := session.openStream(ctx, req.Command)
		if err := streamHandler(stream.ctx, r, stream); err != nil {
			session.closeStream(stream.id)
			s.respond(session, req.MessageID, nil, err, started)
			return
		}
		s.respond(session, req.MessageID, &wire.SubscribeResponsePayload{SubscriptionID: stream.id}, nil, started)
		stream.activate()

	case handler != nil:
		result, err := handler(ctx, r)
		s.respond(session, req.MessageID, result, err, started)

	default:
		s.respond(session, req.MessageID, nil,
			NewStatusError(wire.StatusInvalidCommand, "unknown command %q", req.Command), started)
	}
}

func (s *Server) handleUnsubscribe(r *Request) (any, error) {
	var p wire.UnsubscribePayload
	if err := r.Decode(&p); err != nil {
		return nil, err
	}
	if !r.Session.closeStream(p.SubscriptionID) {
		return nil, NewStatusError(wire.StatusNotFound, "subscription %d not found", p.SubscriptionID)
	}
	return nil, nil
}

func (s *Server) respond(session *Session, msgID uint32, result any, err error, started time.Time) {
	resp := &wire.Response{MessageID: msgID}

	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			resp.Status = se.Status
			resp.Message = se.Message
		} else {
			resp.Status = wire.StatusFailure
			resp.Message = err.Error()
		}
	} else if result != nil {
		payload, perr := wire.MarshalPayload(result)
		if perr != nil {
			resp.Status = wire.StatusFailure
			resp.Message = perr.Error()
		} else {
			resp.Payload = payload
		}
	}

	data, encErr := wire.EncodeResponse(resp)
	if encErr != nil {
		s.logger.Error("failed to encode response", zap.Error(encErr))
		return
	}

	elapsed := time.Since(started)
	status := resp.Status
	s.logMessage(session, log.DirectionOut, &log.MessageEvent{
		Kind:           wire.KindResponse,
		MessageID:      msgID,
		Status:         &status,
		Payload:        resp.Payload,
		ProcessingTime: &elapsed,
	})

	if err := session.conn.Send(data); err != nil {
		s.logger.Debug("failed to send response",
			zap.String("conn_id", session.conn.ID()), zap.Error(err))
	}
}

func (s *Server) sendEvent(session *Session, ev *wire.Event) error {
	data, err := wire.EncodeEvent(ev)
	if err != nil {
		return err
	}

	subID := ev.SubscriptionID
	s.logMessage(session, log.DirectionOut, &log.MessageEvent{
		Kind:           wire.KindEvent,
		SubscriptionID: &subID,
		EventName:      ev.Name,
		Payload:        ev.Payload,
	})
	return session.conn.Send(data)
}

func (s *Server) logMessage(session *Session, direction log.Direction, msg *log.MessageEvent) {
	s.mu.RLock()
	logger := s.protoLog
	s.mu.RUnlock()

	logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: session.conn.ID(),
		Direction:    direction,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		LocalRole:    log.RoleHub,
		Message:      msg,
	})
}

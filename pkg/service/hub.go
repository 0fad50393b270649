package service

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/meshpair/meshpair-go/pkg/discovery"
	"github.com/meshpair/meshpair-go/pkg/interaction"
	"github.com/meshpair/meshpair-go/pkg/transport"
	"go.uber.org/zap"
)

// Feature names advertised in discovery.
const (
	FeatureFlows      = "flows"
	FeatureInclusion  = "inclusion"
	FeatureSmartStart = "smart_start"
)

// Hub serves flows and inclusion to remote clients.
type Hub struct {
	mu sync.RWMutex

	config   Config
	scenario *Scenario
	state    ServiceState
	hubID    string
	logger   *zap.Logger

	flows     *FlowManager
	inclusion *InclusionSimulator
	rpc       *interaction.Server
	server    *transport.Server

	sessionsMu sync.Mutex
	sessions   map[*transport.Conn]*interaction.Session

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub playing scenario.
func NewHub(scenario *Scenario, config Config) (*Hub, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if scenario == nil {
		scenario = DefaultScenario()
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hubID := config.HubID
	if hubID == "" {
		hubID = scenario.Hub.ID
	}
	if hubID == "" {
		hubID = uuid.NewString()
	}

	h := &Hub{
		config:    config,
		scenario:  scenario,
		state:     StateIdle,
		hubID:     hubID,
		logger:    logger.Named("hub"),
		flows:     NewFlowManager(scenario.Flows, config.FlowIdleTimeout, logger),
		inclusion: NewInclusionSimulator(scenario.Entries, logger),
		rpc:       interaction.NewServer(logger),
		sessions:  make(map[*transport.Conn]*interaction.Session),
	}
	h.rpc.SetProtocolLogger(config.ProtocolLogger)
	h.flows.OnEntryCreated(h.entryCreated)
	h.registerHandlers(h.rpc)
	return h, nil
}

// Start opens the listener and, with an advertiser configured, publishes the
// hub.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.state != StateIdle {
		h.mu.Unlock()
		return ErrAlreadyStarted
	}
	h.state = StateStarting
	h.mu.Unlock()

	h.ctx, h.cancel = context.WithCancel(ctx)

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:        h.config.ListenAddress,
		MaxMessageSize: h.config.MaxMessageSize,
		Logger:         h.config.ProtocolLogger,
		OnConnect:      h.connected,
		OnDisconnect:   h.disconnected,
		OnMessage:      h.message,
		OnError: func(conn *transport.Conn, err error) {
			h.logger.Debug("transport error", zap.Error(err))
		},
	})
	if err == nil {
		err = srv.Start(h.ctx)
	}
	if err != nil {
		h.cancel()
		h.mu.Lock()
		h.state = StateIdle
		h.mu.Unlock()
		return err
	}

	h.mu.Lock()
	h.server = srv
	h.state = StateRunning
	h.mu.Unlock()

	h.logger.Info("hub listening", zap.String("hub_id", h.hubID), zap.Stringer("addr", srv.Addr()))

	if h.config.Advertiser != nil {
		info := h.info()
		if err := h.config.Advertiser.Advertise(info); err != nil {
			// The hub stays reachable by address.
			h.logger.Warn("advertising failed", zap.Error(err))
		} else {
			h.logger.Info("hub advertised", zap.String("name", info.Name), zap.Strings("features", info.Features))
		}
	}
	return nil
}

// Stop closes every connection and withdraws the advertisement.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if h.state != StateRunning {
		h.mu.Unlock()
		return ErrNotStarted
	}
	h.state = StateStopping
	srv := h.server
	h.mu.Unlock()

	if h.config.Advertiser != nil {
		h.config.Advertiser.Stop()
	}
	h.cancel()
	err := srv.Stop()

	h.mu.Lock()
	h.state = StateStopped
	h.mu.Unlock()

	h.logger.Info("hub stopped")
	return err
}

// State returns the lifecycle state.
func (h *Hub) State() ServiceState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Addr returns the listen address, nil before Start.
func (h *Hub) Addr() net.Addr {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.server == nil {
		return nil
	}
	return h.server.Addr()
}

// ID returns the hub id.
func (h *Hub) ID() string {
	return h.hubID
}

// Flows returns the flow manager.
func (h *Hub) Flows() *FlowManager {
	return h.flows
}

// Inclusion returns the inclusion simulator.
func (h *Hub) Inclusion() *InclusionSimulator {
	return h.inclusion
}

// Features returns the advertised feature names.
func (h *Hub) Features() []string {
	features := []string{FeatureFlows, FeatureInclusion}
	if h.inclusion.SmartStartCapable() {
		features = append(features, FeatureSmartStart)
	}
	return features
}

// ConnectionCount returns the number of connected clients.
func (h *Hub) ConnectionCount() int {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	return len(h.sessions)
}

func (h *Hub) info() discovery.HubInfo {
	name := h.config.HubName
	if name == "" {
		name = h.scenario.Hub.Name
	}
	if name == "" {
		name = "meshpair-" + h.hubID[:min(8, len(h.hubID))]
	}
	port := uint16(transport.DefaultPort)
	if addr, ok := h.Addr().(*net.TCPAddr); ok {
		port = uint16(addr.Port)
	}
	return discovery.HubInfo{
		ID:       h.hubID,
		Name:     name,
		Version:  discovery.ProtocolVersion,
		Features: h.Features(),
		Port:     port,
	}
}

func (h *Hub) connected(conn *transport.Conn) {
	session := h.rpc.Attach(conn)

	h.sessionsMu.Lock()
	h.sessions[conn] = session
	h.sessionsMu.Unlock()

	h.logger.Debug("client connected", zap.String("conn_id", conn.ID()), zap.Stringer("remote", conn.RemoteAddr()))
}

func (h *Hub) disconnected(conn *transport.Conn) {
	h.sessionsMu.Lock()
	session := h.sessions[conn]
	delete(h.sessions, conn)
	h.sessionsMu.Unlock()

	if session != nil {
		h.rpc.Detach(session)
	}
	h.logger.Debug("client disconnected", zap.String("conn_id", conn.ID()))
}

func (h *Hub) message(conn *transport.Conn, data []byte) {
	h.sessionsMu.Lock()
	session := h.sessions[conn]
	h.sessionsMu.Unlock()

	if session == nil {
		return
	}
	h.rpc.HandleFrame(h.ctx, session, data)
}

// entryCreated gives every controller entry created by a flow its own
// inclusion controller.
func (h *Hub) entryCreated(def *FlowDefinition, entryID, title string) {
	if !def.CreatesController {
		return
	}
	h.inclusion.AddEntry(h.scenario.EntryTemplate.withID(entryID))
	h.logger.Info("controller entry created", zap.String("entry_id", entryID),
		zap.String("handler", def.Handler), zap.String("title", title))
}

package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
	"go.uber.org/zap"
)

// Emitter is the push side of an add_node subscription.
type Emitter interface {
	Emit(name string, payload any) error
	Done() <-chan struct{}
}

// InclusionSimulator simulates one mesh controller per entry.
type InclusionSimulator struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries map[string]*simEntry
}

type simEntry struct {
	cfg *EntryConfig

	attempt     *attempt
	nextAttempt uint64
	nextNodeID  uint16
	provisioned map[string]inclusion.PlannedProvisioningEntry
}

type waitFor uint8

const (
	waitNone waitFor = iota
	waitPIN
	waitGrant
)

// attempt is one running add_node script.
type attempt struct {
	id       uint64
	entryID  string
	strategy inclusion.Strategy
	qrDSK    string
	cfg      *EntryConfig
	out      Emitter

	// emitMu orders script events against the stop event.
	emitMu  sync.Mutex
	stopped bool
	cancel  chan struct{}

	// Guarded by the simulator lock.
	waiting waitFor
	pin     string

	pinOK   chan struct{}
	grantCh chan security.Grant
}

// NewInclusionSimulator creates a simulator with the given entries.
func NewInclusionSimulator(entries []*EntryConfig, logger *zap.Logger) *InclusionSimulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InclusionSimulator{
		logger:  logger.Named("inclusion"),
		entries: make(map[string]*simEntry),
	}
	for _, e := range entries {
		s.AddEntry(e)
	}
	return s
}

// AddEntry registers a controller entry. An existing entry with the same id
// is replaced.
func (s *InclusionSimulator) AddEntry(cfg *EntryConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[cfg.ID] = &simEntry{
		cfg:         cfg,
		nextNodeID:  2,
		provisioned: make(map[string]inclusion.PlannedProvisioningEntry),
	}
	s.logger.Debug("entry added", zap.String("entry_id", cfg.ID), zap.Bool("smart_start", cfg.SmartStart))
}

// Entries returns the entry ids, sorted.
func (s *InclusionSimulator) Entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SmartStartCapable reports whether any entry supports SmartStart.
func (s *InclusionSimulator) SmartStartCapable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.cfg.SmartStart {
			return true
		}
	}
	return false
}

// AddNode starts an inclusion attempt that streams its events to out. A
// running attempt of the entry is superseded without further events.
func (s *InclusionSimulator) AddNode(entryID string, opts inclusion.AddNodeOptions, out Emitter) error {
	switch {
	case !opts.Strategy.IsValid():
		return fmt.Errorf("%w: strategy %d", ErrInvalidInput, opts.Strategy)
	case opts.Strategy == inclusion.StrategySmartStart:
		return fmt.Errorf("%w: SmartStart nodes are provisioned, not added", ErrUnsupported)
	}

	var qrDSK string
	switch {
	case opts.QRProvisioningInformation != nil:
		qrDSK = opts.QRProvisioningInformation.DSK
	case opts.QRCodeString != "":
		info, err := qrcode.Parse(opts.QRCodeString)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		qrDSK = info.DSK
	case opts.PlannedProvisioningEntry != nil:
		qrDSK = opts.PlannedProvisioningEntry.DSK
	}

	s.mu.Lock()
	e, err := s.entryLocked(entryID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	prev := e.attempt
	e.nextAttempt++
	a := &attempt{
		id:       e.nextAttempt,
		entryID:  entryID,
		strategy: opts.Strategy,
		qrDSK:    qrDSK,
		cfg:      e.cfg,
		out:      out,
		cancel:   make(chan struct{}),
		pinOK:    make(chan struct{}),
		grantCh:  make(chan security.Grant, 1),
	}
	e.attempt = a
	s.mu.Unlock()

	if prev != nil {
		prev.stop(false)
		s.logger.Debug("attempt superseded", zap.String("entry_id", entryID), zap.Uint64("attempt", prev.id))
	}

	s.logger.Info("inclusion started", zap.String("entry_id", entryID),
		zap.Uint64("attempt", a.id), zap.Stringer("strategy", opts.Strategy))
	go s.run(e, a)
	return nil
}

// StopInclusion stops the running attempt, which reports inclusion stopped.
// Stopping an idle entry is not an error.
func (s *InclusionSimulator) StopInclusion(entryID string) error {
	s.mu.Lock()
	e, err := s.entryLocked(entryID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	a := e.attempt
	e.attempt = nil
	s.mu.Unlock()

	if a != nil {
		a.stop(true)
		s.logger.Info("inclusion stopped", zap.String("entry_id", entryID), zap.Uint64("attempt", a.id))
	}
	return nil
}

// ValidateDSKAndEnterPIN checks the PIN of the attempt waiting for one.
func (s *InclusionSimulator) ValidateDSKAndEnterPIN(entryID, pin string) error {
	if err := security.ValidatePIN(pin); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(entryID)
	if err != nil {
		return err
	}
	a := e.attempt
	if a == nil || a.waiting != waitPIN {
		return fmt.Errorf("%w: no inclusion waiting for a PIN", ErrWrongState)
	}
	if pin != a.pin {
		s.logger.Debug("wrong PIN", zap.String("entry_id", entryID))
		return ErrWrongPIN
	}
	a.waiting = waitNone
	close(a.pinOK)
	return nil
}

// GrantSecurityClasses hands the grant to the attempt waiting for one.
func (s *InclusionSimulator) GrantSecurityClasses(entryID string, grant security.Grant) error {
	for _, c := range grant.SecurityClasses {
		if !c.IsValid() {
			return fmt.Errorf("%w: security class %d", ErrInvalidInput, c)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(entryID)
	if err != nil {
		return err
	}
	a := e.attempt
	if a == nil || a.waiting != waitGrant {
		return fmt.Errorf("%w: no inclusion waiting for a grant", ErrWrongState)
	}
	a.waiting = waitNone
	a.grantCh <- grant
	return nil
}

// ProvisionSmartStartNode adds a node to the provisioning list of an entry.
func (s *InclusionSimulator) ProvisionSmartStartNode(entryID string, opts inclusion.ProvisionOptions) error {
	planned := opts.PlannedProvisioningEntry
	if planned == nil {
		info := opts.QRProvisioningInformation
		if info == nil && opts.QRCodeString != "" {
			parsed, err := qrcode.Parse(opts.QRCodeString)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			info = parsed
		}
		if info == nil {
			return fmt.Errorf("%w: nothing to provision", ErrInvalidInput)
		}
		planned = &inclusion.PlannedProvisioningEntry{
			DSK:             info.DSK,
			SecurityClasses: info.RequestedSecurityClasses,
			Status:          inclusion.ProvisioningActive,
		}
	}
	if _, err := security.ParseDSK(planned.DSK); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(entryID)
	if err != nil {
		return err
	}
	if !e.cfg.SmartStart {
		return fmt.Errorf("%w: SmartStart", ErrUnsupported)
	}
	e.provisioned[planned.DSK] = *planned
	s.logger.Info("node provisioned", zap.String("entry_id", entryID), zap.String("dsk", planned.DSK))
	return nil
}

// ProvisioningList returns the provisioned nodes of an entry, by DSK.
func (s *InclusionSimulator) ProvisioningList(entryID string) ([]inclusion.PlannedProvisioningEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(entryID)
	if err != nil {
		return nil, err
	}
	list := make([]inclusion.PlannedProvisioningEntry, 0, len(e.provisioned))
	for _, p := range e.provisioned {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DSK < list[j].DSK })
	return list, nil
}

// ParseQRCodeString decodes a provisioning QR code.
func (s *InclusionSimulator) ParseQRCodeString(entryID, code string) (*qrcode.ProvisioningInfo, error) {
	s.mu.Lock()
	_, err := s.entryLocked(entryID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	info, err := qrcode.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return info, nil
}

// SupportsFeature reports an optional controller capability.
func (s *InclusionSimulator) SupportsFeature(entryID string, feature inclusion.Feature) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.entryLocked(entryID)
	if err != nil {
		return false, err
	}
	switch feature {
	case inclusion.FeatureSmartStart:
		return e.cfg.SmartStart, nil
	default:
		return false, nil
	}
}

func (s *InclusionSimulator) entryLocked(entryID string) (*simEntry, error) {
	e, ok := s.entries[entryID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return e, nil
}

// run plays the event script of one attempt.
func (s *InclusionSimulator) run(e *simEntry, a *attempt) {
	defer s.finish(e, a)

	if !a.step(inclusion.EventInclusionStarted, nil) {
		return
	}

	var granted []security.Class
	lowSecurity := false

	switch a.strategy {
	case inclusion.StrategyDefault, inclusion.StrategySecurityS2:
		if a.qrDSK == "" {
			kp, err := security.GenerateKeyPair()
			if err != nil {
				a.fail(fmt.Sprintf("key generation failed: %v", err))
				return
			}
			dsk := kp.DSK()
			pin, _ := security.PIN(dsk)

			s.mu.Lock()
			a.pin = pin
			a.waiting = waitPIN
			s.mu.Unlock()

			if !a.step(inclusion.EventValidateDSKAndEnterPIN, &inclusion.ValidateDSK{DSK: dsk}) {
				return
			}
			if !a.wait(a.pinOK) {
				return
			}
		}

		s.mu.Lock()
		a.waiting = waitGrant
		s.mu.Unlock()

		requested := security.Grant{SecurityClasses: a.cfg.requested, ClientSideAuth: a.cfg.ClientSideAuth}
		if !a.step(inclusion.EventGrantSecurityClasses, &inclusion.GrantRequested{RequestedGrant: requested}) {
			return
		}
		grant, ok := a.waitGrant()
		if !ok {
			return
		}
		granted = grant.SecurityClasses
		lowSecurity = len(granted) == 0

	case inclusion.StrategySecurityS0:
		granted = []security.Class{security.S0Legacy}

	case inclusion.StrategyInsecure:
		lowSecurity = true
	}

	s.mu.Lock()
	nodeID := e.nextNodeID
	e.nextNodeID++
	s.mu.Unlock()

	device := inclusion.Device{
		ID:           uuid.NewString(),
		Name:         a.cfg.Device.Name,
		Manufacturer: a.cfg.Device.Manufacturer,
		Model:        a.cfg.Device.Model,
		NodeID:       nodeID,
	}
	if !a.step(inclusion.EventDeviceRegistered, &inclusion.DeviceRegistered{Device: device}) {
		return
	}
	if !a.step(inclusion.EventNodeAdded, &inclusion.NodeAdded{Node: inclusion.NodeInfo{NodeID: nodeID, LowSecurity: lowSecurity}}) {
		return
	}
	for _, stage := range a.cfg.Stages {
		if !a.step(inclusion.EventInterviewStageCompleted, &inclusion.InterviewStageCompleted{Stage: stage}) {
			return
		}
	}
	if !a.step(inclusion.EventInterviewCompleted, nil) {
		return
	}

	s.logger.Info("node included", zap.String("entry_id", a.entryID), zap.Uint16("node_id", nodeID),
		zap.Stringer("granted", security.NewClassSet(granted...)), zap.Bool("low_security", lowSecurity))
}

func (s *InclusionSimulator) finish(e *simEntry, a *attempt) {
	s.mu.Lock()
	if e.attempt == a {
		e.attempt = nil
	}
	s.mu.Unlock()
}

// step waits the configured delay and emits one event. It reports false
// when the script must end.
func (a *attempt) step(name string, payload any) bool {
	if !a.sleep() {
		return false
	}

	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	if a.stopped {
		return false
	}
	if err := a.out.Emit(name, payload); err != nil {
		return false
	}
	if a.cfg.FailAfter != name {
		return true
	}

	reason := a.cfg.FailReason
	if reason == "" {
		reason = "simulated failure after " + name
	}
	a.out.Emit(inclusion.EventInclusionFailed, &inclusion.InclusionFailed{Reason: reason})
	a.stopped = true
	return false
}

func (a *attempt) fail(reason string) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()
	if !a.stopped {
		a.out.Emit(inclusion.EventInclusionFailed, &inclusion.InclusionFailed{Reason: reason})
		a.stopped = true
	}
}

// stop ends the script. With notify, inclusion stopped is the last event.
func (a *attempt) stop(notify bool) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	if a.stopped {
		return
	}
	a.stopped = true
	close(a.cancel)
	if notify {
		a.out.Emit(inclusion.EventInclusionStopped, nil)
	}
}

func (a *attempt) sleep() bool {
	if a.cfg.StepDelay <= 0 {
		return a.alive()
	}
	t := time.NewTimer(a.cfg.StepDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-a.cancel:
	case <-a.out.Done():
	}
	return false
}

func (a *attempt) alive() bool {
	select {
	case <-a.cancel:
		return false
	case <-a.out.Done():
		return false
	default:
		return true
	}
}

func (a *attempt) wait(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-a.cancel:
	case <-a.out.Done():
	}
	return false
}

func (a *attempt) waitGrant() (security.Grant, bool) {
	select {
	case g := <-a.grantCh:
		return g, true
	case <-a.cancel:
	case <-a.out.Done():
	}
	return security.Grant{}, false
}

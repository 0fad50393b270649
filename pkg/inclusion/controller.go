package inclusion

import (
	"context"
	"fmt"
	"sync"

	"github.com/meshpair/meshpair-go/pkg/log"
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/watchdog"
	"go.uber.org/zap"
)

// Params are supplied when the dialog opens.
type Params struct {
	EntryID string

	// AddedCallback runs once after a device was added or provisioned.
	AddedCallback func()
}

// Controller runs the inclusion dialog for one controller entry.
type Controller struct {
	svc      Service
	config   Config
	logger   *zap.Logger
	protoLog log.Logger

	mu sync.Mutex

	// gen identifies the current attempt. It is bumped whenever an attempt
	// ends or is abandoned.
	gen uint64

	open     bool
	params   Params
	snap     Snapshot
	sub      Subscription
	timer    watchdog.Timer
	lastOpts AddNodeOptions
	directed bool
	scanning bool

	deviceRegistered bool
	addedNotified    bool

	onChange []func(Snapshot)
	onClosed []func()
}

// NewController creates a controller. The dialog starts with Open.
func NewController(svc Service, config Config) *Controller {
	defaults := DefaultConfig()
	if config.InclusionTimeout <= 0 {
		config.InclusionTimeout = defaults.InclusionTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		svc:      svc,
		config:   config,
		logger:   logger.Named("inclusion"),
		protoLog: log.OrNoop(config.ProtocolLogger),
	}
}

// OnChange registers an observer for state changes.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

// OnClosed registers an observer for dialog teardown.
func (c *Controller) OnClosed(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClosed = append(c.onClosed, fn)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// Armed reports whether the watchdog is running.
func (c *Controller) Armed() bool {
	return c.timer.Armed()
}

// Open opens the dialog: it probes SmartStart support and starts a
// default-strategy attempt.
func (c *Controller) Open(ctx context.Context, params Params) error {
	c.mu.Lock()
	if c.open {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.open = true
	c.params = params
	c.snap = Snapshot{EntryID: params.EntryID, Status: StatusLoading}
	c.deviceRegistered = false
	c.addedNotified = false
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.changed(StatusIdle)

	supported, err := c.svc.SupportsFeature(ctx, params.EntryID, FeatureSmartStart)
	if err != nil {
		c.logger.Warn("smart start probe failed", zap.String("entry_id", params.EntryID), zap.Error(err))
		supported = false
	}

	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	c.snap.SupportsSmartStart = &supported
	c.mu.Unlock()

	return c.startAttempt(ctx, AddNodeOptions{Strategy: StrategyDefault}, false)
}

// ChooseStrategy abandons the running attempt and lets the user pick a
// strategy.
func (c *Controller) ChooseStrategy(ctx context.Context) error {
	return c.abandon(ctx, StatusChooseStrategy)
}

// SelectStrategy records the user's pick. Nothing is sent until
// ConfirmStrategy.
func (c *Controller) SelectStrategy(strategy Strategy) error {
	if !strategy.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidStrategy, strategy)
	}

	c.mu.Lock()
	if err := c.expectLocked(StatusChooseStrategy); err != nil {
		c.mu.Unlock()
		return err
	}
	old := c.snap.Status
	c.snap.Strategy = strategy
	c.mu.Unlock()

	c.changed(old)
	return nil
}

// ConfirmStrategy starts a fresh attempt with the selected strategy.
// SmartStart continues with QR scanning instead.
func (c *Controller) ConfirmStrategy(ctx context.Context) error {
	c.mu.Lock()
	if err := c.expectLocked(StatusChooseStrategy); err != nil {
		c.mu.Unlock()
		return err
	}
	strategy := c.snap.Strategy
	c.snap.StrategyChosen = true
	c.mu.Unlock()

	if strategy == StrategySmartStart {
		return c.abandon(ctx, StatusQRScan)
	}
	return c.startAttempt(ctx, AddNodeOptions{Strategy: strategy}, false)
}

// ScanQRCode abandons the running attempt and waits for a scanned code.
func (c *Controller) ScanQRCode(ctx context.Context) error {
	return c.abandon(ctx, StatusQRScan)
}

// HandleScanned processes a scanned QR code. A scan arriving while a previous
// one is still being handled is dropped with ErrScanInProgress.
func (c *Controller) HandleScanned(ctx context.Context, value string) error {
	c.mu.Lock()
	if err := c.expectLocked(StatusQRScan); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.scanning {
		c.mu.Unlock()
		c.logger.Debug("dropping scan, previous scan in progress")
		return ErrScanInProgress
	}
	if err := qrcode.Validate(value); err != nil {
		c.snap.Error = err.Error()
		c.mu.Unlock()
		c.changed(StatusQRScan)
		return &ValidationError{Field: "qr_code", Err: err}
	}
	c.scanning = true
	c.snap.Error = ""
	gen, entryID := c.gen, c.params.EntryID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()
	}()

	info, err := c.svc.ParseQRCodeString(ctx, entryID, value)
	if err != nil {
		return c.failAttempt(gen, &TransportError{Op: "parse_qr_code_string", Err: err})
	}

	switch info.Version {
	case qrcode.VersionSmartStart:
		return c.provision(ctx, gen, entryID, value, info)

	case qrcode.VersionS2:
		c.mu.Lock()
		if gen != c.gen || !c.open {
			c.mu.Unlock()
			return ErrClosed
		}
		c.snap.Strategy = StrategySecurityS2
		c.snap.StrategyChosen = true
		c.mu.Unlock()

		return c.startAttempt(ctx, AddNodeOptions{
			Strategy:                  StrategySecurityS2,
			QRCodeString:              value,
			QRProvisioningInformation: info,
		}, true)

	default:
		return c.failAttempt(gen, &ProtocolError{
			Reason: fmt.Sprintf("unsupported code version %d", info.Version),
			Err:    ErrUnsupportedCode,
		})
	}
}

func (c *Controller) provision(ctx context.Context, gen uint64, entryID, value string, info *qrcode.ProvisioningInfo) error {
	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	err := c.svc.ProvisionSmartStartNode(ctx, entryID, ProvisionOptions{
		QRCodeString:              value,
		QRProvisioningInformation: info,
		PlannedProvisioningEntry: &PlannedProvisioningEntry{
			DSK:             info.DSK,
			SecurityClasses: info.RequestedSecurityClasses,
			Status:          ProvisioningActive,
		},
	})
	if err != nil {
		return c.failAttempt(gen, &TransportError{Op: "provision_smart_start_node", Err: err})
	}

	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	old := c.snap.Status
	c.snap.Status = StatusProvisioned
	c.snap.DSK = info.DSK
	callback := c.takeAddedLocked()
	c.mu.Unlock()

	c.changed(old)
	if callback != nil {
		callback()
	}
	return nil
}

// ValidateDSKAndEnterPIN submits the PIN for the DSK shown to the user. A
// rejection is reported inline; success waits for the next event.
func (c *Controller) ValidateDSKAndEnterPIN(ctx context.Context, pin string) error {
	c.mu.Lock()
	if err := c.expectLocked(StatusValidateDSKEnterPIN); err != nil {
		c.mu.Unlock()
		return err
	}
	gen, entryID := c.gen, c.params.EntryID
	c.mu.Unlock()

	if err := security.ValidatePIN(pin); err != nil {
		c.inlineError(gen, err)
		return &ValidationError{Field: "pin", Err: err}
	}
	if err := c.svc.ValidateDSKAndEnterPIN(ctx, entryID, pin); err != nil {
		c.inlineError(gen, err)
		return &ValidationError{Field: "pin", Err: err}
	}
	return nil
}

// ToggleSecurityClass edits the classes that GrantSecurityClasses submits.
func (c *Controller) ToggleSecurityClass(class security.Class, on bool) error {
	c.mu.Lock()
	if err := c.expectLocked(StatusGrantSecurityClasses); err != nil {
		c.mu.Unlock()
		return err
	}
	c.snap.SecurityClasses = c.snap.SecurityClasses.Toggle(class, on)
	c.mu.Unlock()

	c.changed(StatusGrantSecurityClasses)
	return nil
}

// GrantSecurityClasses submits the selected classes. A rejection is reported
// inline; success waits for the next event.
func (c *Controller) GrantSecurityClasses(ctx context.Context) error {
	c.mu.Lock()
	if err := c.expectLocked(StatusGrantSecurityClasses); err != nil {
		c.mu.Unlock()
		return err
	}
	grant := security.Grant{SecurityClasses: c.snap.SecurityClasses.List()}
	if c.snap.RequestedGrant != nil {
		grant.ClientSideAuth = c.snap.RequestedGrant.ClientSideAuth
	}
	gen, entryID := c.gen, c.params.EntryID
	c.mu.Unlock()

	if err := c.svc.GrantSecurityClasses(ctx, entryID, grant); err != nil {
		c.inlineError(gen, err)
		return &ValidationError{Field: "security_classes", Err: err}
	}
	return nil
}

// Stop ends the running attempt and returns to Idle.
func (c *Controller) Stop(ctx context.Context) error {
	return c.abandon(ctx, StatusIdle)
}

// Retry starts a fresh attempt after a failure or timeout, reusing the
// previous attempt's options.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNotOpen
	}
	if s := c.snap.Status; s != StatusFailed && s != StatusTimedOut {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrWrongState, s)
	}
	opts, directed := c.lastOpts, c.directed
	c.mu.Unlock()

	return c.startAttempt(ctx, opts, directed)
}

// Close tears the dialog down from any state. If a device was registered
// and the added callback has not run yet, it runs now. Close is idempotent.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return
	}
	c.open = false
	release := c.endAttemptLocked()
	old := c.snap.Status
	entryID := c.params.EntryID

	var callback func()
	if c.deviceRegistered {
		callback = c.takeAddedLocked()
	}
	c.snap = Snapshot{Status: StatusIdle}
	c.params = Params{}
	c.lastOpts = AddNodeOptions{}
	c.directed = false
	c.deviceRegistered = false
	closed := append([]func(){}, c.onClosed...)
	c.mu.Unlock()

	if release != nil {
		release.Release()
	}
	c.stopInclusion(ctx, entryID)
	c.logStatus(entryID, old, StatusIdle, "closed")

	if callback != nil {
		callback()
	}
	for _, fn := range closed {
		fn()
	}
}

func (c *Controller) startAttempt(ctx context.Context, opts AddNodeOptions, directed bool) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	prev := c.endAttemptLocked()
	gen := c.gen
	old := c.snap.Status

	c.lastOpts = opts
	c.directed = directed
	c.snap.Status = StatusLoading
	c.snap.Strategy = opts.Strategy
	c.snap.Stages = nil
	c.snap.DSK = ""
	c.snap.RequestedGrant = nil
	c.snap.SecurityClasses = 0
	c.snap.LowSecurity = false
	c.snap.Error = ""
	entryID := c.params.EntryID
	c.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
	c.changed(old)

	sub, err := c.svc.AddNode(ctx, entryID, opts, func(ev Event) {
		c.handleEvent(gen, ev)
	})

	c.mu.Lock()
	if gen != c.gen || !c.open {
		// Ended by an event that arrived before the response, abandoned, or
		// closed.
		open := c.open
		c.mu.Unlock()
		if sub != nil {
			sub.Release()
		}
		if !open {
			return ErrClosed
		}
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		// The hub may have started the attempt even though the call failed.
		c.stopInclusion(ctx, entryID)
		return c.failAttempt(gen, &TransportError{Op: "add_node", Err: err})
	}
	c.sub = sub
	c.timer.Arm(c.config.InclusionTimeout, func() { c.timedOut(gen) })
	c.mu.Unlock()

	c.logger.Debug("inclusion attempt started",
		zap.String("entry_id", entryID), zap.Stringer("strategy", opts.Strategy), zap.Bool("directed", directed))
	return nil
}

// handleEvent applies one push event of attempt gen.
func (c *Controller) handleEvent(gen uint64, ev Event) {
	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		c.logger.Debug("dropping stale event", zap.String("event", ev.Name()))
		return
	}

	old := c.snap.Status
	var (
		release   Subscription
		autoGrant *security.Grant
		callback  func()
	)

	switch e := ev.(type) {
	case *InclusionStarted:
		if c.directed {
			c.snap.Status = StatusStartedSpecific
		} else {
			c.snap.Status = StatusStarted
		}

	case *InclusionFailed:
		release = c.endAttemptLocked()
		c.snap.Status = StatusFailed
		c.snap.Error = e.Reason
		if c.snap.Error == "" {
			c.snap.Error = "inclusion failed"
		}

	case *InclusionStopped:
		c.timer.Stop()

	case *ValidateDSK:
		c.snap.DSK = e.DSK
		c.snap.Status = StatusValidateDSKEnterPIN

	case *GrantRequested:
		if !c.snap.StrategyChosen && c.config.AutoGrant {
			g := e.RequestedGrant
			autoGrant = &g
		} else {
			g := e.RequestedGrant
			c.snap.RequestedGrant = &g
			c.snap.SecurityClasses = g.Set()
			c.snap.Status = StatusGrantSecurityClasses
		}

	case *DeviceRegistered:
		d := e.Device
		c.snap.Device = &d
		c.deviceRegistered = true

	case *NodeAdded:
		c.snap.LowSecurity = e.Node.LowSecurity
		c.snap.Status = StatusInterviewing

	case *InterviewStageCompleted:
		c.snap.Stages = append(c.snap.Stages, e.Stage)

	case *InterviewCompleted:
		release = c.endAttemptLocked()
		c.snap.Status = StatusFinished
		callback = c.takeAddedLocked()

	case *Malformed:
		release = c.endAttemptLocked()
		c.snap.Status = StatusFailed
		c.snap.Error = (&ProtocolError{Reason: "malformed event " + e.EventName, Err: e.Err}).Error()
	}
	entryID := c.params.EntryID
	c.mu.Unlock()

	if release != nil {
		release.Release()
	}
	c.changed(old)

	if autoGrant != nil {
		c.autoGrant(gen, entryID, *autoGrant)
	}
	if callback != nil {
		callback()
	}
}

func (c *Controller) autoGrant(gen uint64, entryID string, grant security.Grant) {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()

	c.logger.Debug("granting requested security classes",
		zap.String("entry_id", entryID), zap.Stringer("classes", grant.Set()))
	if err := c.svc.GrantSecurityClasses(ctx, entryID, grant); err != nil {
		c.logger.Warn("auto grant failed", zap.String("entry_id", entryID), zap.Error(err))
		c.inlineError(gen, err)
	}
}

func (c *Controller) timedOut(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return
	}
	release := c.endAttemptLocked()
	old := c.snap.Status
	c.snap.Status = StatusTimedOut
	entryID := c.params.EntryID
	c.mu.Unlock()

	if release != nil {
		release.Release()
	}
	c.logger.Info("inclusion timed out", zap.String("entry_id", entryID))
	c.stopInclusion(context.Background(), entryID)
	c.changed(old)
}

// abandon ends the running attempt and moves to status.
func (c *Controller) abandon(ctx context.Context, status Status) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return ErrNotOpen
	}
	release := c.endAttemptLocked()
	old := c.snap.Status
	c.snap.Status = status
	c.snap.Error = ""
	entryID := c.params.EntryID
	c.mu.Unlock()

	if release != nil {
		release.Release()
		c.stopInclusion(ctx, entryID)
	}
	c.changed(old)
	return nil
}

func (c *Controller) failAttempt(gen uint64, err error) error {
	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return ErrClosed
	}
	release := c.endAttemptLocked()
	old := c.snap.Status
	c.snap.Status = StatusFailed
	c.snap.Error = err.Error()
	c.mu.Unlock()

	if release != nil {
		release.Release()
	}
	c.logger.Warn("inclusion failed", zap.Error(err))
	c.changed(old)
	return err
}

func (c *Controller) inlineError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen || !c.open {
		c.mu.Unlock()
		return
	}
	c.snap.Error = err.Error()
	status := c.snap.Status
	c.mu.Unlock()

	c.changed(status)
}

// endAttemptLocked detaches the subscription, stops the watchdog and
// invalidates everything the attempt still has in flight.
func (c *Controller) endAttemptLocked() Subscription {
	sub := c.sub
	c.sub = nil
	c.timer.Stop()
	c.gen++
	return sub
}

func (c *Controller) takeAddedLocked() func() {
	if c.addedNotified {
		return nil
	}
	c.addedNotified = true
	return c.params.AddedCallback
}

func (c *Controller) expectLocked(status Status) error {
	if !c.open {
		return ErrNotOpen
	}
	if c.snap.Status != status {
		return fmt.Errorf("%w: %s, want %s", ErrWrongState, c.snap.Status, status)
	}
	return nil
}

func (c *Controller) stopInclusion(ctx context.Context, entryID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.RequestTimeout)
	defer cancel()

	if err := c.svc.StopInclusion(ctx, entryID); err != nil {
		c.logger.Warn("failed to stop inclusion", zap.String("entry_id", entryID), zap.Error(err))
	}
}

// changed notifies observers. It must be called without the lock held.
func (c *Controller) changed(old Status) {
	c.mu.Lock()
	snap := c.snap.clone()
	observers := append([]func(Snapshot){}, c.onChange...)
	c.mu.Unlock()

	if old != snap.Status {
		c.logStatus(snap.EntryID, old, snap.Status, snap.Error)
	}
	for _, fn := range observers {
		fn(snap)
	}
}

func (c *Controller) logStatus(entryID string, old, status Status, reason string) {
	c.logger.Debug("inclusion status", zap.String("entry_id", entryID),
		zap.Stringer("from", old), zap.Stringer("to", status))

	ev := log.NewStateEvent(log.StateEntityInclusion, old.String(), status.String(), reason)
	ev.EntryID = entryID
	c.protoLog.Log(ev)
}

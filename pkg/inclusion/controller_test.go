package inclusion_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/inclusion/mocks"
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	entryID = "entry-1"
	testDSK = "11111-22222-33333-44444-55555-06666-07777-08888"
)

type attempt struct {
	sub  *mocks.MockSubscription
	opts inclusion.AddNodeOptions
	emit func(inclusion.Event)
}

type harness struct {
	t    *testing.T
	svc  *mocks.MockService
	ctrl *inclusion.Controller

	mu       sync.Mutex
	statuses []inclusion.Status
	added    int
	closed   int
}

func newHarness(t *testing.T, mutate func(*inclusion.Config)) *harness {
	t.Helper()
	cfg := inclusion.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	h := &harness{t: t, svc: mocks.NewMockService(t)}
	h.ctrl = inclusion.NewController(h.svc, cfg)
	h.ctrl.OnChange(func(s inclusion.Snapshot) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if n := len(h.statuses); n == 0 || h.statuses[n-1] != s.Status {
			h.statuses = append(h.statuses, s.Status)
		}
	})
	h.ctrl.OnClosed(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.closed++
	})
	return h
}

func (h *harness) onAdded() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added++
}

func (h *harness) addedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.added
}

func (h *harness) closedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *harness) visited(s inclusion.Status) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.statuses {
		if v == s {
			return true
		}
	}
	return false
}

func (h *harness) status() inclusion.Status {
	return h.ctrl.Snapshot().Status
}

func (h *harness) expectAttempt(match interface{}) *attempt {
	a := &attempt{sub: mocks.NewMockSubscription(h.t)}
	h.svc.EXPECT().AddNode(mock.Anything, entryID, match, mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, opts inclusion.AddNodeOptions, fn func(inclusion.Event)) (inclusion.Subscription, error) {
			a.opts = opts
			a.emit = fn
			return a.sub, nil
		}).Once()
	return a
}

func (h *harness) open() *attempt {
	h.t.Helper()
	h.svc.EXPECT().SupportsFeature(mock.Anything, entryID, inclusion.FeatureSmartStart).Return(true, nil).Once()
	a := h.expectAttempt(mock.Anything)
	require.NoError(h.t, h.ctrl.Open(context.Background(), inclusion.Params{EntryID: entryID, AddedCallback: h.onAdded}))
	require.NotNil(h.t, a.emit)
	return a
}

func (h *harness) expectStop() *mocks.MockService_StopInclusion_Call {
	return h.svc.EXPECT().StopInclusion(mock.Anything, entryID).Return(nil)
}

func strategy(s inclusion.Strategy) interface{} {
	return mock.MatchedBy(func(o inclusion.AddNodeOptions) bool { return o.Strategy == s })
}

func TestOpenStartsDefaultAttempt(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()

	snap := h.ctrl.Snapshot()
	assert.Equal(t, entryID, snap.EntryID)
	assert.Equal(t, inclusion.StatusLoading, snap.Status)
	require.NotNil(t, snap.SupportsSmartStart)
	assert.True(t, *snap.SupportsSmartStart)
	assert.Equal(t, inclusion.StrategyDefault, a.opts.Strategy)
	assert.True(t, h.ctrl.Armed())

	a.emit(&inclusion.InclusionStarted{})
	assert.Equal(t, inclusion.StatusStarted, h.status())

	assert.ErrorIs(t, h.ctrl.Open(context.Background(), inclusion.Params{EntryID: entryID}), inclusion.ErrAlreadyOpen)
}

func TestProbeFailureDoesNotBlockOpen(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.EXPECT().SupportsFeature(mock.Anything, entryID, inclusion.FeatureSmartStart).Return(false, errors.New("unsupported command")).Once()
	h.expectAttempt(strategy(inclusion.StrategyDefault))

	require.NoError(t, h.ctrl.Open(context.Background(), inclusion.Params{EntryID: entryID}))
	snap := h.ctrl.Snapshot()
	require.NotNil(t, snap.SupportsSmartStart)
	assert.False(t, *snap.SupportsSmartStart)
}

func TestPINScenario(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()
	ctx := context.Background()

	a.emit(&inclusion.InclusionStarted{})
	a.emit(&inclusion.ValidateDSK{DSK: testDSK})
	require.Equal(t, inclusion.StatusValidateDSKEnterPIN, h.status())
	assert.Equal(t, testDSK, h.ctrl.Snapshot().DSK)

	h.svc.EXPECT().ValidateDSKAndEnterPIN(mock.Anything, entryID, "12345").Return(nil).Once()
	before := h.ctrl.Snapshot()
	require.NoError(t, h.ctrl.ValidateDSKAndEnterPIN(ctx, "12345"))
	assert.Equal(t, before, h.ctrl.Snapshot())

	// No explicit strategy: the proposed grant is accepted without asking.
	grant := security.Grant{SecurityClasses: []security.Class{security.S2Authenticated, security.S2Unauthenticated}, ClientSideAuth: false}
	h.svc.EXPECT().GrantSecurityClasses(mock.Anything, entryID, grant).Return(nil).Once()
	a.emit(&inclusion.GrantRequested{RequestedGrant: grant})
	assert.Equal(t, inclusion.StatusValidateDSKEnterPIN, h.status())

	a.emit(&inclusion.DeviceRegistered{Device: inclusion.Device{ID: "dev-1", Name: "Door Sensor"}})
	a.emit(&inclusion.NodeAdded{Node: inclusion.NodeInfo{NodeID: 7, LowSecurity: false}})
	assert.Equal(t, inclusion.StatusInterviewing, h.status())

	a.emit(&inclusion.InterviewStageCompleted{Stage: "ProtocolInfo"})
	a.emit(&inclusion.InterviewStageCompleted{Stage: "CommandClasses"})

	a.sub.EXPECT().Release().Return().Once()
	a.emit(&inclusion.InterviewCompleted{})

	snap := h.ctrl.Snapshot()
	assert.Equal(t, inclusion.StatusFinished, snap.Status)
	assert.Equal(t, []string{"ProtocolInfo", "CommandClasses"}, snap.Stages)
	require.NotNil(t, snap.Device)
	assert.Equal(t, "dev-1", snap.Device.ID)
	assert.Equal(t, 1, h.addedCount())
	assert.False(t, h.ctrl.Armed())

	h.expectStop().Once()
	h.ctrl.Close(ctx)
	h.ctrl.Close(ctx)
	assert.Equal(t, 1, h.addedCount())
	assert.Equal(t, 1, h.closedCount())
	assert.Equal(t, inclusion.StatusIdle, h.status())
}

func TestWrongPINIsInline(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()
	ctx := context.Background()

	a.emit(&inclusion.ValidateDSK{DSK: testDSK})

	var verr *inclusion.ValidationError
	require.ErrorAs(t, h.ctrl.ValidateDSKAndEnterPIN(ctx, "12a"), &verr)
	assert.ErrorIs(t, verr, security.ErrInvalidPIN)

	rejected := errors.New("INVALID_PARAMETER: wrong PIN")
	h.svc.EXPECT().ValidateDSKAndEnterPIN(mock.Anything, entryID, "54321").Return(rejected).Once()
	require.ErrorAs(t, h.ctrl.ValidateDSKAndEnterPIN(ctx, "54321"), &verr)
	assert.Equal(t, "pin", verr.Field)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, inclusion.StatusValidateDSKEnterPIN, snap.Status)
	assert.Equal(t, rejected.Error(), snap.Error)
	assert.True(t, h.ctrl.Armed())
}

func TestExplicitStrategyAsksForGrant(t *testing.T) {
	h := newHarness(t, nil)
	first := h.open()
	ctx := context.Background()

	first.sub.EXPECT().Release().Return().Once()
	h.expectStop().Once()
	require.NoError(t, h.ctrl.ChooseStrategy(ctx))
	assert.Equal(t, inclusion.StatusChooseStrategy, h.status())
	assert.False(t, h.ctrl.Armed())

	assert.ErrorIs(t, h.ctrl.SelectStrategy(inclusion.Strategy(42)), inclusion.ErrInvalidStrategy)
	require.NoError(t, h.ctrl.SelectStrategy(inclusion.StrategySecurityS2))

	second := h.expectAttempt(strategy(inclusion.StrategySecurityS2))
	require.NoError(t, h.ctrl.ConfirmStrategy(ctx))
	assert.True(t, h.ctrl.Armed())
	assert.True(t, h.ctrl.Snapshot().StrategyChosen)

	// Events of the abandoned attempt are ignored.
	first.emit(&inclusion.InclusionFailed{})
	assert.Equal(t, inclusion.StatusLoading, h.status())

	second.emit(&inclusion.InclusionStarted{})
	second.emit(&inclusion.GrantRequested{RequestedGrant: security.Grant{
		SecurityClasses: []security.Class{security.S2Unauthenticated, security.S2Authenticated},
		ClientSideAuth:  true,
	}})
	snap := h.ctrl.Snapshot()
	require.Equal(t, inclusion.StatusGrantSecurityClasses, snap.Status)
	assert.Equal(t, security.NewClassSet(security.S2Unauthenticated, security.S2Authenticated), snap.SecurityClasses)

	require.NoError(t, h.ctrl.ToggleSecurityClass(security.S2Unauthenticated, false))

	want := security.Grant{SecurityClasses: []security.Class{security.S2Authenticated}, ClientSideAuth: true}
	h.svc.EXPECT().GrantSecurityClasses(mock.Anything, entryID, want).Return(errors.New("busy")).Once()
	var verr *inclusion.ValidationError
	require.ErrorAs(t, h.ctrl.GrantSecurityClasses(ctx), &verr)
	assert.Equal(t, inclusion.StatusGrantSecurityClasses, h.status())

	h.svc.EXPECT().GrantSecurityClasses(mock.Anything, entryID, want).Return(nil).Once()
	require.NoError(t, h.ctrl.GrantSecurityClasses(ctx))
	assert.Equal(t, inclusion.StatusGrantSecurityClasses, h.status())
}

func TestAutoGrantDisabled(t *testing.T) {
	h := newHarness(t, func(c *inclusion.Config) { c.AutoGrant = false })
	a := h.open()

	a.emit(&inclusion.GrantRequested{RequestedGrant: security.Grant{SecurityClasses: []security.Class{security.S0Legacy}}})
	assert.Equal(t, inclusion.StatusGrantSecurityClasses, h.status())
	h.svc.AssertNotCalled(t, "GrantSecurityClasses", mock.Anything, mock.Anything, mock.Anything)
}

func TestSmartStartStrategyGoesToScan(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()
	ctx := context.Background()

	a.sub.EXPECT().Release().Return().Once()
	h.expectStop().Once()
	require.NoError(t, h.ctrl.ChooseStrategy(ctx))
	require.NoError(t, h.ctrl.SelectStrategy(inclusion.StrategySmartStart))
	require.NoError(t, h.ctrl.ConfirmStrategy(ctx))
	assert.Equal(t, inclusion.StatusQRScan, h.status())
}

func scanState(t *testing.T) (*harness, *attempt) {
	t.Helper()
	h := newHarness(t, nil)
	a := h.open()
	a.sub.EXPECT().Release().Return().Once()
	h.expectStop().Once()
	require.NoError(t, h.ctrl.ScanQRCode(context.Background()))
	require.Equal(t, inclusion.StatusQRScan, h.status())
	return h, a
}

func testCode(t *testing.T, v qrcode.Version) (string, *qrcode.ProvisioningInfo) {
	t.Helper()
	info := &qrcode.ProvisioningInfo{
		Version:                  v,
		DSK:                      testDSK,
		RequestedSecurityClasses: []security.Class{security.S2Authenticated},
		ApplicationVersion:       "1.0",
	}
	code, err := qrcode.Format(info)
	require.NoError(t, err)
	return code, info
}

func TestScanValidationMakesNoCalls(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()

	for _, code := range []string{
		"",
		"90",
		"90" + strings.Repeat("1", 40),
		"12" + strings.Repeat("1", 60),
	} {
		err := h.ctrl.HandleScanned(ctx, code)
		var verr *inclusion.ValidationError
		require.ErrorAs(t, err, &verr, "code %q", code)
		assert.Equal(t, inclusion.StatusQRScan, h.status())
	}
	assert.NotEmpty(t, h.ctrl.Snapshot().Error)
	h.svc.AssertNotCalled(t, "ParseQRCodeString", mock.Anything, mock.Anything, mock.Anything)
	h.svc.AssertNotCalled(t, "AddNode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScanSmartStartProvisions(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()
	code, info := testCode(t, qrcode.VersionSmartStart)

	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).Return(info, nil).Once()
	h.svc.EXPECT().ProvisionSmartStartNode(mock.Anything, entryID, mock.MatchedBy(func(o inclusion.ProvisionOptions) bool {
		return o.QRCodeString == code && o.PlannedProvisioningEntry != nil && o.PlannedProvisioningEntry.DSK == testDSK
	})).Return(nil).Once()

	require.NoError(t, h.ctrl.HandleScanned(ctx, code))
	assert.Equal(t, inclusion.StatusProvisioned, h.status())
	assert.Equal(t, 1, h.addedCount())
	assert.False(t, h.visited(inclusion.StatusStarted))
	assert.False(t, h.visited(inclusion.StatusInterviewing))
	assert.False(t, h.ctrl.Armed())
}

func TestScanS2StartsDirectedAttempt(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()
	code, info := testCode(t, qrcode.VersionS2)

	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).Return(info, nil).Once()
	a := h.expectAttempt(mock.MatchedBy(func(o inclusion.AddNodeOptions) bool {
		return o.Strategy == inclusion.StrategySecurityS2 && o.QRCodeString == code && o.QRProvisioningInformation != nil
	}))

	require.NoError(t, h.ctrl.HandleScanned(ctx, code))
	assert.True(t, h.ctrl.Armed())

	a.emit(&inclusion.InclusionStarted{})
	assert.Equal(t, inclusion.StatusStartedSpecific, h.status())
	assert.Equal(t, inclusion.StrategySecurityS2, h.ctrl.Snapshot().Strategy)
}

func TestScanUnsupportedVersionFails(t *testing.T) {
	h, _ := scanState(t)
	code, info := testCode(t, qrcode.Version(2))

	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).Return(info, nil).Once()

	err := h.ctrl.HandleScanned(context.Background(), code)
	assert.ErrorIs(t, err, inclusion.ErrUnsupportedCode)
	var perr *inclusion.ProtocolError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, inclusion.StatusFailed, h.status())
}

func TestScanParseErrorFails(t *testing.T) {
	h, _ := scanState(t)
	code, _ := testCode(t, qrcode.VersionS2)

	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).Return(nil, errors.New("checksum mismatch")).Once()

	var terr *inclusion.TransportError
	assert.ErrorAs(t, h.ctrl.HandleScanned(context.Background(), code), &terr)
	assert.Equal(t, inclusion.StatusFailed, h.status())
}

func TestSecondScanDropped(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()
	code, info := testCode(t, qrcode.VersionSmartStart)

	started := make(chan struct{})
	unblock := make(chan struct{})
	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).
		RunAndReturn(func(context.Context, string, string) (*qrcode.ProvisioningInfo, error) {
			close(started)
			<-unblock
			return info, nil
		}).Once()
	h.svc.EXPECT().ProvisionSmartStartNode(mock.Anything, entryID, mock.Anything).Return(nil).Once()

	done := make(chan error, 1)
	go func() { done <- h.ctrl.HandleScanned(ctx, code) }()
	<-started

	assert.ErrorIs(t, h.ctrl.HandleScanned(ctx, code), inclusion.ErrScanInProgress)
	close(unblock)
	require.NoError(t, <-done)
	assert.Equal(t, inclusion.StatusProvisioned, h.status())
}

func TestScanResolvedAfterCloseDoesNotProvision(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()
	code, info := testCode(t, qrcode.VersionSmartStart)

	started := make(chan struct{})
	unblock := make(chan struct{})
	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).
		RunAndReturn(func(context.Context, string, string) (*qrcode.ProvisioningInfo, error) {
			close(started)
			<-unblock
			return info, nil
		}).Once()

	done := make(chan error, 1)
	go func() { done <- h.ctrl.HandleScanned(ctx, code) }()
	<-started

	h.expectStop().Once()
	h.ctrl.Close(ctx)
	close(unblock)

	assert.ErrorIs(t, <-done, inclusion.ErrClosed)
	h.svc.AssertNotCalled(t, "ProvisionSmartStartNode", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, h.addedCount())
}

func TestScanResolvedAfterChooseStrategyDoesNotProvision(t *testing.T) {
	h, _ := scanState(t)
	ctx := context.Background()
	code, info := testCode(t, qrcode.VersionSmartStart)

	started := make(chan struct{})
	unblock := make(chan struct{})
	h.svc.EXPECT().ParseQRCodeString(mock.Anything, entryID, code).
		RunAndReturn(func(context.Context, string, string) (*qrcode.ProvisioningInfo, error) {
			close(started)
			<-unblock
			return info, nil
		}).Once()

	done := make(chan error, 1)
	go func() { done <- h.ctrl.HandleScanned(ctx, code) }()
	<-started

	require.NoError(t, h.ctrl.ChooseStrategy(ctx))
	close(unblock)

	assert.ErrorIs(t, <-done, inclusion.ErrClosed)
	h.svc.AssertNotCalled(t, "ProvisionSmartStartNode", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, inclusion.StatusChooseStrategy, h.status())
}

func TestTimeout(t *testing.T) {
	h := newHarness(t, func(c *inclusion.Config) { c.InclusionTimeout = 30 * time.Millisecond })
	a := h.open()

	a.sub.EXPECT().Release().Return().Once()
	h.expectStop()

	assert.Eventually(t, func() bool { return h.status() == inclusion.StatusTimedOut }, time.Second, 5*time.Millisecond)
	assert.False(t, h.ctrl.Armed())

	// Late events of the timed-out attempt change nothing.
	a.emit(&inclusion.InclusionStarted{})
	assert.Equal(t, inclusion.StatusTimedOut, h.status())

	retry := h.expectAttempt(strategy(inclusion.StrategyDefault))
	require.NoError(t, h.ctrl.Retry(context.Background()))
	assert.Equal(t, inclusion.StatusLoading, h.status())
	assert.True(t, h.ctrl.Armed())

	retry.emit(&inclusion.InclusionStarted{})
	assert.Contains(t, []inclusion.Status{inclusion.StatusStarted, inclusion.StatusTimedOut}, h.status())

	retry.sub.EXPECT().Release().Return().Once()
	h.ctrl.Close(context.Background())
	assert.False(t, h.ctrl.Armed())
}

func TestTerminalEventDisarmsTimer(t *testing.T) {
	h := newHarness(t, func(c *inclusion.Config) { c.InclusionTimeout = 40 * time.Millisecond })
	a := h.open()

	a.sub.EXPECT().Release().Return().Once()
	a.emit(&inclusion.InclusionFailed{Reason: "node did not respond"})
	assert.Equal(t, inclusion.StatusFailed, h.status())
	assert.Equal(t, "node did not respond", h.ctrl.Snapshot().Error)
	assert.False(t, h.ctrl.Armed())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, inclusion.StatusFailed, h.status())
	assert.False(t, h.visited(inclusion.StatusTimedOut))

	// No event is processed after unsubscribe.
	a.emit(&inclusion.NodeAdded{})
	assert.Equal(t, inclusion.StatusFailed, h.status())
}

func TestInclusionStoppedClearsTimerOnly(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()

	a.emit(&inclusion.InclusionStarted{})
	a.emit(&inclusion.InclusionStopped{})
	assert.Equal(t, inclusion.StatusStarted, h.status())
	assert.False(t, h.ctrl.Armed())

	// Still subscribed.
	a.emit(&inclusion.NodeAdded{Node: inclusion.NodeInfo{LowSecurity: true}})
	assert.Equal(t, inclusion.StatusInterviewing, h.status())
	assert.True(t, h.ctrl.Snapshot().LowSecurity)
}

func TestUnknownEventFails(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()

	ev, err := inclusion.DecodeEvent("firmware update", nil)
	require.Error(t, err)

	a.sub.EXPECT().Release().Return().Once()
	a.emit(ev)
	assert.Equal(t, inclusion.StatusFailed, h.status())
	assert.Contains(t, h.ctrl.Snapshot().Error, "firmware update")
}

func TestEventBeforeAddNodeResponse(t *testing.T) {
	h := newHarness(t, nil)
	sub := mocks.NewMockSubscription(t)
	sub.EXPECT().Release().Return().Once()

	h.svc.EXPECT().SupportsFeature(mock.Anything, entryID, inclusion.FeatureSmartStart).Return(false, nil).Once()
	h.svc.EXPECT().AddNode(mock.Anything, entryID, mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, _ string, _ inclusion.AddNodeOptions, fn func(inclusion.Event)) (inclusion.Subscription, error) {
			fn(&inclusion.InclusionFailed{Reason: "controller busy"})
			return sub, nil
		}).Once()

	require.NoError(t, h.ctrl.Open(context.Background(), inclusion.Params{EntryID: entryID}))
	assert.Equal(t, inclusion.StatusFailed, h.status())
	assert.False(t, h.ctrl.Armed())
}

func TestAddNodeErrorFails(t *testing.T) {
	h := newHarness(t, nil)
	h.svc.EXPECT().SupportsFeature(mock.Anything, entryID, inclusion.FeatureSmartStart).Return(true, nil).Once()
	h.svc.EXPECT().AddNode(mock.Anything, entryID, mock.Anything, mock.Anything).Return(nil, errors.New("BUSY")).Once()
	h.expectStop().Once()

	var terr *inclusion.TransportError
	require.ErrorAs(t, h.ctrl.Open(context.Background(), inclusion.Params{EntryID: entryID}), &terr)
	assert.Equal(t, "add_node", terr.Op)
	assert.Equal(t, inclusion.StatusFailed, h.status())
	assert.False(t, h.ctrl.Armed())
}

func TestStop(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()

	a.sub.EXPECT().Release().Return().Once()
	h.expectStop().Return(errors.New("not running")).Once()
	require.NoError(t, h.ctrl.Stop(context.Background()))
	assert.Equal(t, inclusion.StatusIdle, h.status())
	assert.False(t, h.ctrl.Armed())

	assert.ErrorIs(t, h.ctrl.Retry(context.Background()), inclusion.ErrWrongState)
}

func TestCloseFiresCallbackForRegisteredDevice(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()
	ctx := context.Background()

	a.emit(&inclusion.DeviceRegistered{Device: inclusion.Device{ID: "dev-2"}})

	a.sub.EXPECT().Release().Return().Once()
	h.expectStop().Return(errors.New("connection lost")).Once()
	h.ctrl.Close(ctx)
	h.ctrl.Close(ctx)

	assert.Equal(t, 1, h.addedCount())
	assert.Equal(t, 1, h.closedCount())
	assert.False(t, h.ctrl.Armed())
	assert.Equal(t, inclusion.Snapshot{Status: inclusion.StatusIdle}, h.ctrl.Snapshot())

	// Late events after close are dropped.
	a.emit(&inclusion.InterviewCompleted{})
	assert.Equal(t, 1, h.addedCount())

	assert.ErrorIs(t, h.ctrl.ScanQRCode(ctx), inclusion.ErrNotOpen)
}

func TestCloseWithoutDeviceSkipsCallback(t *testing.T) {
	h := newHarness(t, nil)
	a := h.open()

	a.sub.EXPECT().Release().Return().Once()
	h.expectStop().Once()
	h.ctrl.Close(context.Background())
	assert.Equal(t, 0, h.addedCount())
	assert.Equal(t, 1, h.closedCount())
}

func TestOperationsRequireState(t *testing.T) {
	h := newHarness(t, nil)
	h.open()
	ctx := context.Background()

	assert.ErrorIs(t, h.ctrl.ValidateDSKAndEnterPIN(ctx, "12345"), inclusion.ErrWrongState)
	assert.ErrorIs(t, h.ctrl.GrantSecurityClasses(ctx), inclusion.ErrWrongState)
	assert.ErrorIs(t, h.ctrl.ToggleSecurityClass(security.S0Legacy, true), inclusion.ErrWrongState)
	assert.ErrorIs(t, h.ctrl.HandleScanned(ctx, "90"), inclusion.ErrWrongState)
	assert.ErrorIs(t, h.ctrl.ConfirmStrategy(ctx), inclusion.ErrWrongState)
}

func (h *harness) history() []inclusion.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]inclusion.Status(nil), h.statuses...)
}

// eventModel walks the event table: it returns the statuses an attempt
// passes through and the interview stages recorded before it ends.
func eventModel(events []inclusion.Event, autoGrant bool) ([]inclusion.Status, int) {
	status := inclusion.StatusLoading
	seen := []inclusion.Status{status}
	stages := 0
	for _, ev := range events {
		next := status
		ended := false
		switch ev.(type) {
		case *inclusion.InclusionStarted:
			next = inclusion.StatusStarted
		case *inclusion.InclusionFailed, *inclusion.Malformed:
			next = inclusion.StatusFailed
			ended = true
		case *inclusion.ValidateDSK:
			next = inclusion.StatusValidateDSKEnterPIN
		case *inclusion.GrantRequested:
			if !autoGrant {
				next = inclusion.StatusGrantSecurityClasses
			}
		case *inclusion.NodeAdded:
			next = inclusion.StatusInterviewing
		case *inclusion.InterviewStageCompleted:
			stages++
		case *inclusion.InterviewCompleted:
			next = inclusion.StatusFinished
			ended = true
		}
		if next != status {
			seen = append(seen, next)
			status = next
		}
		if ended {
			break
		}
	}
	return seen, stages
}

func TestEventSequencesFollowEventTable(t *testing.T) {
	alphabet := []inclusion.Event{
		&inclusion.InclusionStarted{},
		&inclusion.InclusionFailed{Reason: "controller busy"},
		&inclusion.InclusionStopped{},
		&inclusion.ValidateDSK{DSK: testDSK},
		&inclusion.GrantRequested{RequestedGrant: security.Grant{SecurityClasses: []security.Class{security.S2Authenticated}}},
		&inclusion.DeviceRegistered{Device: inclusion.Device{ID: "dev-1"}},
		&inclusion.NodeAdded{Node: inclusion.NodeInfo{NodeID: 7}},
		&inclusion.InterviewStageCompleted{Stage: "NodeInfo"},
		&inclusion.InterviewCompleted{},
		&inclusion.Malformed{EventName: "node exploded", Err: errors.New("unknown event")},
	}

	var sequences [][]inclusion.Event
	for _, a := range alphabet {
		for _, b := range alphabet {
			for _, c := range alphabet {
				sequences = append(sequences, []inclusion.Event{a, b, c})
			}
		}
	}

	for _, autoGrant := range []bool{true, false} {
		for _, seq := range sequences {
			names := make([]string, len(seq))
			for i, ev := range seq {
				names[i] = ev.Name()
			}
			name := strings.Join(names, ",")
			if !autoGrant {
				name = "manual/" + name
			}

			t.Run(name, func(t *testing.T) {
				h := newHarness(t, func(c *inclusion.Config) { c.AutoGrant = autoGrant })
				h.svc.EXPECT().GrantSecurityClasses(mock.Anything, entryID, mock.Anything).Return(nil).Maybe()
				a := h.open()
				a.sub.EXPECT().Release().Return().Once()

				for _, ev := range seq {
					a.emit(ev)
				}

				wantStatuses, wantStages := eventModel(seq, autoGrant)
				assert.Equal(t, wantStatuses, h.history())
				assert.Len(t, h.ctrl.Snapshot().Stages, wantStages)

				h.expectStop().Once()
				h.ctrl.Close(context.Background())
			})
		}
	}
}

package service

import (
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/qrcode"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simDSK = "11111-22222-33333-44444-55555-06666-07777-08888"

type emitted struct {
	name    string
	payload any
}

// recorder is an Emitter that queues events for the test.
type recorder struct {
	events chan emitted
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{events: make(chan emitted, 32), done: make(chan struct{})}
}

func (r *recorder) Emit(name string, payload any) error {
	r.events <- emitted{name, payload}
	return nil
}

func (r *recorder) Done() <-chan struct{} { return r.done }

func (r *recorder) next(t *testing.T) emitted {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return emitted{}
	}
}

func (r *recorder) expect(t *testing.T, names ...string) []emitted {
	t.Helper()
	var got []emitted
	for _, want := range names {
		ev := r.next(t)
		require.Equal(t, want, ev.name)
		got = append(got, ev)
	}
	return got
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("unexpected event %q", ev.name)
	case <-time.After(50 * time.Millisecond):
	}
}

func newSim(t *testing.T, entries ...*EntryConfig) *InclusionSimulator {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, e.Validate())
	}
	return NewInclusionSimulator(entries, nil)
}

func tail(stages int) []string {
	names := []string{inclusion.EventDeviceRegistered, inclusion.EventNodeAdded}
	for i := 0; i < stages; i++ {
		names = append(names, inclusion.EventInterviewStageCompleted)
	}
	return append(names, inclusion.EventInterviewCompleted)
}

func TestSimulatorS2WithPIN(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1", Device: DeviceTemplate{Name: "Plug"}})
	rec := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{}, rec))
	rec.expect(t, inclusion.EventInclusionStarted)

	ev := rec.expect(t, inclusion.EventValidateDSKAndEnterPIN)[0]
	dsk := ev.payload.(*inclusion.ValidateDSK).DSK
	pin, err := security.PIN(dsk)
	require.NoError(t, err)

	assert.ErrorIs(t, sim.GrantSecurityClasses("c1", security.Grant{}), ErrWrongState)
	assert.ErrorIs(t, sim.ValidateDSKAndEnterPIN("c1", "12"), ErrInvalidInput)

	wrong := "00000"
	if pin == wrong {
		wrong = "00001"
	}
	assert.ErrorIs(t, sim.ValidateDSKAndEnterPIN("c1", wrong), ErrWrongPIN)
	require.NoError(t, sim.ValidateDSKAndEnterPIN("c1", pin))
	assert.ErrorIs(t, sim.ValidateDSKAndEnterPIN("c1", pin), ErrWrongState)

	ev = rec.expect(t, inclusion.EventGrantSecurityClasses)[0]
	requested := ev.payload.(*inclusion.GrantRequested).RequestedGrant
	assert.Equal(t, []security.Class{security.S2Authenticated, security.S2Unauthenticated}, requested.SecurityClasses)

	require.NoError(t, sim.GrantSecurityClasses("c1", security.Grant{SecurityClasses: []security.Class{security.S2Authenticated}}))

	events := rec.expect(t, tail(3)...)
	device := events[0].payload.(*inclusion.DeviceRegistered).Device
	assert.Equal(t, "Plug", device.Name)
	assert.NotEmpty(t, device.ID)
	assert.Equal(t, uint16(2), device.NodeID)

	node := events[1].payload.(*inclusion.NodeAdded).Node
	assert.Equal(t, uint16(2), node.NodeID)
	assert.False(t, node.LowSecurity)
	assert.Equal(t, "ProtocolInfo", events[2].payload.(*inclusion.InterviewStageCompleted).Stage)
	rec.quiet(t)
}

func TestSimulatorQRSkipsPIN(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1"})
	rec := newRecorder()

	opts := inclusion.AddNodeOptions{
		Strategy:                  inclusion.StrategySecurityS2,
		QRProvisioningInformation: &qrcode.ProvisioningInfo{DSK: simDSK},
	}
	require.NoError(t, sim.AddNode("c1", opts, rec))
	rec.expect(t, inclusion.EventInclusionStarted, inclusion.EventGrantSecurityClasses)

	// An empty grant includes the node with low security.
	require.NoError(t, sim.GrantSecurityClasses("c1", security.Grant{}))
	events := rec.expect(t, tail(3)...)
	assert.True(t, events[1].payload.(*inclusion.NodeAdded).Node.LowSecurity)
}

func TestSimulatorStrategies(t *testing.T) {
	tests := []struct {
		name        string
		strategy    inclusion.Strategy
		lowSecurity bool
	}{
		{"S0", inclusion.StrategySecurityS0, false},
		{"insecure", inclusion.StrategyInsecure, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSim(t, &EntryConfig{ID: "c1", Stages: []string{"NodeInfo"}})
			rec := newRecorder()

			require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{Strategy: tt.strategy}, rec))
			events := rec.expect(t, append([]string{inclusion.EventInclusionStarted}, tail(1)...)...)
			if got := events[2].payload.(*inclusion.NodeAdded).Node.LowSecurity; got != tt.lowSecurity {
				t.Errorf("LowSecurity = %v, want %v", got, tt.lowSecurity)
			}
		})
	}
}

func TestSimulatorNodeIDsIncrement(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1", Stages: []string{"NodeInfo"}})

	for want := uint16(2); want <= 3; want++ {
		rec := newRecorder()
		require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{Strategy: inclusion.StrategyInsecure}, rec))
		events := rec.expect(t, append([]string{inclusion.EventInclusionStarted}, tail(1)...)...)
		assert.Equal(t, want, events[2].payload.(*inclusion.NodeAdded).Node.NodeID)
	}
}

func TestSimulatorFailAfter(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1", FailAfter: inclusion.EventNodeAdded, FailReason: "jammed"})
	rec := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{Strategy: inclusion.StrategyInsecure}, rec))
	events := rec.expect(t, inclusion.EventInclusionStarted, inclusion.EventDeviceRegistered,
		inclusion.EventNodeAdded, inclusion.EventInclusionFailed)
	assert.Equal(t, "jammed", events[3].payload.(*inclusion.InclusionFailed).Reason)
	rec.quiet(t)
}

func TestSimulatorStop(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1"})
	rec := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{}, rec))
	rec.expect(t, inclusion.EventInclusionStarted, inclusion.EventValidateDSKAndEnterPIN)

	require.NoError(t, sim.StopInclusion("c1"))
	rec.expect(t, inclusion.EventInclusionStopped)
	rec.quiet(t)

	assert.ErrorIs(t, sim.ValidateDSKAndEnterPIN("c1", "12345"), ErrWrongState)
	// Stopping an idle entry is fine.
	assert.NoError(t, sim.StopInclusion("c1"))
}

func TestSimulatorStopDuringDelay(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1", StepDelay: time.Hour})
	rec := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{}, rec))
	require.NoError(t, sim.StopInclusion("c1"))
	rec.expect(t, inclusion.EventInclusionStopped)
	rec.quiet(t)
}

func TestSimulatorSupersede(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1"})
	first := newRecorder()
	second := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{}, first))
	first.expect(t, inclusion.EventInclusionStarted, inclusion.EventValidateDSKAndEnterPIN)

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{Strategy: inclusion.StrategyInsecure}, second))
	second.expect(t, append([]string{inclusion.EventInclusionStarted}, tail(3)...)...)
	first.quiet(t)
}

func TestSimulatorSubscriberGone(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1", StepDelay: 50 * time.Millisecond})
	rec := newRecorder()

	require.NoError(t, sim.AddNode("c1", inclusion.AddNodeOptions{Strategy: inclusion.StrategyInsecure}, rec))
	rec.expect(t, inclusion.EventInclusionStarted)
	close(rec.done)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.events)
}

func TestSimulatorAddNodeErrors(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "c1"})

	tests := []struct {
		name    string
		entryID string
		opts    inclusion.AddNodeOptions
		want    error
	}{
		{"unknown entry", "c9", inclusion.AddNodeOptions{}, ErrEntryNotFound},
		{"unknown strategy", "c1", inclusion.AddNodeOptions{Strategy: 42}, ErrInvalidInput},
		{"smart start", "c1", inclusion.AddNodeOptions{Strategy: inclusion.StrategySmartStart}, ErrUnsupported},
		{"bad qr", "c1", inclusion.AddNodeOptions{QRCodeString: "90"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sim.AddNode(tt.entryID, tt.opts, newRecorder())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSimulatorProvisioning(t *testing.T) {
	sim := newSim(t,
		&EntryConfig{ID: "plain"},
		&EntryConfig{ID: "smart", SmartStart: true},
	)
	code, err := qrcode.Format(&qrcode.ProvisioningInfo{
		Version:                  qrcode.VersionSmartStart,
		DSK:                      simDSK,
		RequestedSecurityClasses: []security.Class{security.S2Authenticated},
		ApplicationVersion:       "1.0",
	})
	require.NoError(t, err)

	err = sim.ProvisionSmartStartNode("plain", inclusion.ProvisionOptions{QRCodeString: code})
	assert.ErrorIs(t, err, ErrUnsupported)
	err = sim.ProvisionSmartStartNode("smart", inclusion.ProvisionOptions{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	err = sim.ProvisionSmartStartNode("smart", inclusion.ProvisionOptions{
		PlannedProvisioningEntry: &inclusion.PlannedProvisioningEntry{DSK: "1-2-3"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, sim.ProvisionSmartStartNode("smart", inclusion.ProvisionOptions{QRCodeString: code}))
	// Provisioning the same DSK again replaces the entry.
	require.NoError(t, sim.ProvisionSmartStartNode("smart", inclusion.ProvisionOptions{QRCodeString: code}))

	list, err := sim.ProvisioningList("smart")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, simDSK, list[0].DSK)
	assert.Equal(t, []security.Class{security.S2Authenticated}, list[0].SecurityClasses)
	assert.Equal(t, inclusion.ProvisioningActive, list[0].Status)
}

func TestSimulatorQueries(t *testing.T) {
	sim := newSim(t, &EntryConfig{ID: "b"}, &EntryConfig{ID: "a", SmartStart: true})

	assert.Equal(t, []string{"a", "b"}, sim.Entries())
	assert.True(t, sim.SmartStartCapable())

	ok, err := sim.SupportsFeature("a", inclusion.FeatureSmartStart)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = sim.SupportsFeature("b", inclusion.FeatureSmartStart)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = sim.SupportsFeature("z", inclusion.FeatureSmartStart)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	code, err := qrcode.Format(&qrcode.ProvisioningInfo{Version: qrcode.VersionS2, DSK: simDSK, ApplicationVersion: "1.0"})
	require.NoError(t, err)
	info, err := sim.ParseQRCodeString("a", code)
	require.NoError(t, err)
	assert.Equal(t, simDSK, info.DSK)

	_, err = sim.ParseQRCodeString("a", "nonsense")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = sim.ParseQRCodeString("z", code)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

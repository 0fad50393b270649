package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/discovery"
	"github.com/meshpair/meshpair-go/pkg/flow"
	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/interaction"
	"github.com/meshpair/meshpair-go/pkg/remote"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/service"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hubScenario = `
hub:
  id: hub-1
  name: test hub
flows:
  - handler: setup
    creates_controller: true
    steps:
      - id: user
        type: form
        fields:
          - name: name
            type: string
            required: true
        next: method
      - id: method
        type: menu
        options: [scan]
      - id: scan
        type: progress
        progress_action: scanning
        delay: 200ms
        next: done
      - id: done
        type: create_entry
        title: "{name}"
entries:
  - id: stick
    smart_start: true
    stages: [NodeInfo]
entry_template:
  stages: [ProtocolInfo, NodeInfo]
`

type fakeAdvertiser struct {
	infos   chan discovery.HubInfo
	stopped chan struct{}
}

func (a *fakeAdvertiser) Advertise(info discovery.HubInfo) error {
	a.infos <- info
	return nil
}

func (a *fakeAdvertiser) Stop() { close(a.stopped) }

func startHub(t *testing.T, adv service.Advertiser) *service.Hub {
	t.Helper()
	scenario, err := service.ParseScenario([]byte(hubScenario))
	require.NoError(t, err)

	cfg := service.DefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.Advertiser = adv
	hub, err := service.NewHub(scenario, cfg)
	require.NoError(t, err)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })
	return hub
}

func dial(t *testing.T, hub *service.Hub) *remote.Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := remote.Dial(ctx, hub.Addr().String(), remote.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// chanHost forwards session callbacks to channels.
type chanHost struct {
	steps  chan *flow.Step
	alerts chan error
	closed chan flow.CloseResult
}

func newChanHost() *chanHost {
	return &chanHost{
		steps:  make(chan *flow.Step, 16),
		alerts: make(chan error, 4),
		closed: make(chan flow.CloseResult, 1),
	}
}

func (h *chanHost) ShowLoading()                             {}
func (h *chanHost) ShowStep(step *flow.Step)                 { h.steps <- step }
func (h *chanHost) ShowPicker(string, []flow.InProgressFlow) {}
func (h *chanHost) Alert(err error)                          { h.alerts <- err }
func (h *chanHost) Closed(result flow.CloseResult)           { h.closed <- result }

func (h *chanHost) waitStep(t *testing.T, typ flow.StepType) *flow.Step {
	t.Helper()
	for {
		select {
		case step := <-h.steps:
			if step.Type == typ {
				return step
			}
		case err := <-h.alerts:
			t.Fatalf("alert: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatalf("no %s step", typ)
		}
	}
}

func waitStatus(t *testing.T, ch <-chan inclusion.Snapshot, want inclusion.Status) inclusion.Snapshot {
	t.Helper()
	for {
		select {
		case s := <-ch:
			if s.Status == want {
				return s
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("status %s not reached", want)
		}
	}
}

func TestHubLifecycle(t *testing.T) {
	adv := &fakeAdvertiser{infos: make(chan discovery.HubInfo, 1), stopped: make(chan struct{})}
	hub := startHub(t, adv)

	assert.Equal(t, service.StateRunning, hub.State())
	assert.ErrorIs(t, hub.Start(context.Background()), service.ErrAlreadyStarted)

	info := <-adv.infos
	assert.Equal(t, "hub-1", info.ID)
	assert.Equal(t, "test hub", info.Name)
	assert.Equal(t, []string{service.FeatureFlows, service.FeatureInclusion, service.FeatureSmartStart}, info.Features)
	assert.NotZero(t, info.Port)

	require.NoError(t, hub.Stop())
	assert.Equal(t, service.StateStopped, hub.State())
	assert.ErrorIs(t, hub.Stop(), service.ErrNotStarted)

	select {
	case <-adv.stopped:
	default:
		t.Error("advertiser not stopped")
	}
}

func TestHubFlowCreatesController(t *testing.T) {
	hub := startHub(t, nil)
	client := dial(t, hub)
	ctx := context.Background()

	host := newChanHost()
	session := flow.NewSession(client.Flows(), host, flow.DefaultConfig())

	require.NoError(t, session.Start(ctx, "setup"))
	host.waitStep(t, flow.StepForm)

	require.NoError(t, session.Submit(ctx, flow.Values{"name": "hallway"}))
	host.waitStep(t, flow.StepMenu)

	require.NoError(t, session.SelectMenu(ctx, "scan"))
	host.waitStep(t, flow.StepProgress)

	// The hub advances the progress step and the session re-fetches it.
	done := host.waitStep(t, flow.StepCreateEntry)
	require.NotNil(t, done.Result)
	assert.Equal(t, "hallway", done.Result.Title)

	session.Close(ctx)
	result := <-host.closed
	assert.True(t, result.FlowFinished)
	assert.Equal(t, done.Result.EntryID, result.EntryID)

	assert.Contains(t, hub.Inclusion().Entries(), result.EntryID)
	assert.Empty(t, hub.Flows().InProgress("setup"))
}

const quickProgressScenario = `
hub:
  id: hub-quick
flows:
  - handler: quick
    steps:
      - id: method
        type: menu
        options: [scan]
      - id: scan
        type: progress
        progress_action: scanning
        delay: 1us
        next: done
      - id: done
        type: create_entry
        title: quick
`

func TestHubFlowProgressBeforeSubscribe(t *testing.T) {
	scenario, err := service.ParseScenario([]byte(quickProgressScenario))
	require.NoError(t, err)
	cfg := service.DefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	hub, err := service.NewHub(scenario, cfg)
	require.NoError(t, err)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })

	client := dial(t, hub)
	ctx := context.Background()

	host := newChanHost()
	session := flow.NewSession(client.Flows(), host, flow.DefaultConfig())
	require.NoError(t, session.Start(ctx, "quick"))
	host.waitStep(t, flow.StepMenu)

	// The progress step advances before the session can subscribe to it.
	require.NoError(t, session.SelectMenu(ctx, "scan"))
	done := host.waitStep(t, flow.StepCreateEntry)
	assert.Equal(t, "quick", done.Result.Title)

	session.Close(ctx)
	result := <-host.closed
	assert.True(t, result.FlowFinished)
}

func TestHubCloseDeletesFlow(t *testing.T) {
	hub := startHub(t, nil)
	client := dial(t, hub)
	ctx := context.Background()

	host := newChanHost()
	session := flow.NewSession(client.Flows(), host, flow.DefaultConfig())
	require.NoError(t, session.Start(ctx, "setup"))
	host.waitStep(t, flow.StepForm)
	require.Len(t, hub.Flows().InProgress("setup"), 1)

	session.Close(ctx)
	result := <-host.closed
	assert.False(t, result.FlowFinished)
	assert.Empty(t, hub.Flows().InProgress("setup"))
}

func TestHubInclusion(t *testing.T) {
	hub := startHub(t, nil)
	client := dial(t, hub)
	ctx := context.Background()

	ctrl := inclusion.NewController(client.Inclusion(), inclusion.DefaultConfig())
	snaps := make(chan inclusion.Snapshot, 64)
	ctrl.OnChange(func(s inclusion.Snapshot) { snaps <- s })
	added := make(chan struct{}, 1)

	require.NoError(t, ctrl.Open(ctx, inclusion.Params{
		EntryID:       "stick",
		AddedCallback: func() { added <- struct{}{} },
	}))

	snap := waitStatus(t, snaps, inclusion.StatusValidateDSKEnterPIN)
	require.NotNil(t, snap.SupportsSmartStart)
	assert.True(t, *snap.SupportsSmartStart)

	pin, err := security.PIN(snap.DSK)
	require.NoError(t, err)
	require.NoError(t, ctrl.ValidateDSKAndEnterPIN(ctx, pin))

	// The requested classes are granted without asking.
	snap = waitStatus(t, snaps, inclusion.StatusFinished)
	require.NotNil(t, snap.Device)
	assert.Equal(t, uint16(2), snap.Device.NodeID)
	assert.Equal(t, []string{"NodeInfo"}, snap.Stages)
	assert.False(t, snap.LowSecurity)

	select {
	case <-added:
	case <-time.After(time.Second):
		t.Fatal("added callback not called")
	}
	ctrl.Close(ctx)
}

func TestHubStatusErrors(t *testing.T) {
	hub := startHub(t, nil)
	client := dial(t, hub)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want wire.Status
	}{
		{"unknown handler", func() error {
			_, err := client.Flows().CreateFlow(ctx, "missing")
			return err
		}, wire.StatusNotFound},
		{"unknown flow", func() error {
			_, err := client.Flows().FetchFlow(ctx, "missing")
			return err
		}, wire.StatusNotFound},
		{"unknown entry", func() error {
			return client.Inclusion().StopInclusion(ctx, "missing")
		}, wire.StatusNotFound},
		{"pin not awaited", func() error {
			return client.Inclusion().ValidateDSKAndEnterPIN(ctx, "stick", "12345")
		}, wire.StatusBusy},
		{"bad qr", func() error {
			_, err := client.Inclusion().ParseQRCodeString(ctx, "stick", "90")
			return err
		}, wire.StatusInvalidParameter},
		{"nothing to provision", func() error {
			return client.Inclusion().ProvisionSmartStartNode(ctx, "stick", inclusion.ProvisionOptions{})
		}, wire.StatusInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !interaction.IsStatus(err, tt.want) {
				t.Errorf("error = %v, want status %s", err, tt.want)
			}
		})
	}
}

func TestHubDisconnectEndsSubscriptions(t *testing.T) {
	hub := startHub(t, nil)
	client := dial(t, hub)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, client.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

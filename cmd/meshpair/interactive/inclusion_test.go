package interactive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/meshpair/meshpair-go/pkg/inclusion"
	"github.com/meshpair/meshpair-go/pkg/remote"
	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const consoleScenario = `
hub:
  id: console-hub
entries:
  - id: stick
    stages: [ProtocolInfo, NodeInfo]
    step_delay: 10ms
`

func newInclusionConsole(t *testing.T, config inclusion.Config) (*InclusionConsole, *syncBuffer) {
	t.Helper()
	scenario, err := service.ParseScenario([]byte(consoleScenario))
	require.NoError(t, err)

	cfg := service.DefaultConfig()
	cfg.ListenAddress = "127.0.0.1:0"
	hub, err := service.NewHub(scenario, cfg)
	require.NoError(t, err)
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Stop() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := remote.Dial(ctx, hub.Addr().String(), remote.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	out := &syncBuffer{}
	return NewInclusionConsole(client.Inclusion(), config, out), out
}

func waitFor(t *testing.T, c *InclusionConsole, status inclusion.Status) inclusion.Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Controller().Snapshot().Status == status
	}, 3*time.Second, 10*time.Millisecond, "status %s not reached", status)
	return c.Controller().Snapshot()
}

func eventuallyContains(t *testing.T, out *syncBuffer, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), want)
	}, time.Second, 10*time.Millisecond, "output misses %q:\n%s", want, out)
}

func TestInclusionConsoleS2(t *testing.T) {
	c, out := newInclusionConsole(t, inclusion.DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, "stick"))
	snap := waitFor(t, c, inclusion.StatusValidateDSKEnterPIN)
	eventuallyContains(t, out, "DSK: xxxxx-"+snap.DSK[6:])

	_, err := c.Exec(ctx, "pin 1")
	assert.Error(t, err)
	_, err = c.Exec(ctx, "toggle S2A on")
	assert.ErrorIs(t, err, inclusion.ErrWrongState)

	pin, err := security.PIN(snap.DSK)
	require.NoError(t, err)
	_, err = c.Exec(ctx, "pin "+pin)
	require.NoError(t, err)

	select {
	case <-c.Added():
	case <-time.After(3 * time.Second):
		t.Fatal("device not added")
	}
	waitFor(t, c, inclusion.StatusFinished)
	assert.Contains(t, out.String(), "Device added to stick.")
	assert.Contains(t, out.String(), "Interview: ProtocolInfo, NodeInfo")
	assert.NotContains(t, out.String(), "without full security")

	quit, err := c.Exec(ctx, "quit")
	require.NoError(t, err)
	assert.True(t, quit)
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("dialog not closed")
	}
}

func TestInclusionConsoleInsecureStrategy(t *testing.T) {
	c, out := newInclusionConsole(t, inclusion.DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, "stick"))
	waitFor(t, c, inclusion.StatusValidateDSKEnterPIN)

	_, err := c.Exec(ctx, "strategy bogus")
	assert.ErrorIs(t, err, inclusion.ErrInvalidStrategy)

	_, err = c.Exec(ctx, "strategy insecure")
	require.NoError(t, err)

	snap := waitFor(t, c, inclusion.StatusFinished)
	assert.True(t, snap.LowSecurity)
	assert.Equal(t, inclusion.StrategyInsecure, snap.Strategy)
	eventuallyContains(t, out, "(strategy insecure)")
	eventuallyContains(t, out, "without full security")
	c.Controller().Close(ctx)
}

func TestInclusionConsoleManualGrant(t *testing.T) {
	config := inclusion.DefaultConfig()
	config.AutoGrant = false
	c, out := newInclusionConsole(t, config)
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, "stick"))
	snap := waitFor(t, c, inclusion.StatusValidateDSKEnterPIN)
	pin, err := security.PIN(snap.DSK)
	require.NoError(t, err)
	_, err = c.Exec(ctx, "pin "+pin)
	require.NoError(t, err)

	waitFor(t, c, inclusion.StatusGrantSecurityClasses)
	eventuallyContains(t, out, "Adjust with 'toggle', then 'grant'.")

	_, err = c.Exec(ctx, "toggle S2A maybe")
	assert.Error(t, err)
	_, err = c.Exec(ctx, "toggle S0 off")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "grant")
	require.NoError(t, err)

	waitFor(t, c, inclusion.StatusFinished)
	c.Controller().Close(ctx)
}

func TestInclusionConsoleStop(t *testing.T) {
	c, _ := newInclusionConsole(t, inclusion.DefaultConfig())
	ctx := context.Background()

	require.NoError(t, c.Open(ctx, "stick"))
	waitFor(t, c, inclusion.StatusValidateDSKEnterPIN)

	_, err := c.Exec(ctx, "stop")
	require.NoError(t, err)
	waitFor(t, c, inclusion.StatusIdle)

	_, err = c.Exec(ctx, "retry")
	assert.ErrorIs(t, err, inclusion.ErrWrongState)
	_, err = c.Exec(ctx, "frobnicate")
	assert.Error(t, err)
	c.Controller().Close(ctx)
}

func TestMaskDSK(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"11111-22222-33333", "xxxxx-22222-33333"},
		{"123", "123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := maskDSK(tt.in); got != tt.want {
			t.Errorf("maskDSK(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

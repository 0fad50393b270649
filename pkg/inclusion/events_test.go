package inclusion

import (
	"errors"
	"testing"

	"github.com/meshpair/meshpair-go/pkg/security"
	"github.com/meshpair/meshpair-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	payload, err := wire.MarshalPayload(&GrantRequested{RequestedGrant: security.Grant{
		SecurityClasses: []security.Class{security.S2AccessControl},
		ClientSideAuth:  true,
	}})
	require.NoError(t, err)

	ev, err := DecodeEvent(EventGrantSecurityClasses, payload)
	require.NoError(t, err)
	grant, ok := ev.(*GrantRequested)
	require.True(t, ok)
	assert.Equal(t, []security.Class{security.S2AccessControl}, grant.RequestedGrant.SecurityClasses)
	assert.True(t, grant.RequestedGrant.ClientSideAuth)
	assert.Equal(t, EventGrantSecurityClasses, ev.Name())
}

func TestDecodeEventWithoutPayload(t *testing.T) {
	for _, name := range []string{EventInclusionStarted, EventInclusionStopped, EventInterviewCompleted} {
		ev, err := DecodeEvent(name, nil)
		require.NoError(t, err)
		assert.Equal(t, name, ev.Name())
	}
}

func TestDecodeEventUnknown(t *testing.T) {
	ev, err := DecodeEvent("node removed", nil)
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))

	m, ok := ev.(*Malformed)
	require.True(t, ok)
	assert.Equal(t, "node removed", m.Name())
}

func TestDecodeEventBadPayload(t *testing.T) {
	_, err := DecodeEvent(EventNodeAdded, []byte{0x63, 'a', 'b', 'c'})
	var perr *ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"default", StrategyDefault},
		{"Smart_Start", StrategySmartStart},
		{"insecure", StrategyInsecure},
		{"s0", StrategySecurityS0},
		{"security_s2", StrategySecurityS2},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	_, err := ParseStrategy("s3")
	assert.ErrorIs(t, err, ErrInvalidStrategy)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "validate_dsk_enter_pin", StatusValidateDSKEnterPIN.String())
	assert.Equal(t, "Status(99)", Status(99).String())
	assert.True(t, StatusTimedOut.IsTerminal())
	assert.False(t, StatusInterviewing.IsTerminal())
}

package idp_test

import (
	"testing"

	idp "github.com/goliatone/go-idp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeFlowTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    idp.ChallengeState
		to      idp.ChallengeState
		wantErr error
	}{
		{"credentials to challenge", idp.StateAwaitingCredentials, idp.StateChallengeRequired, nil},
		{"credentials to authenticated", idp.StateAwaitingCredentials, idp.StateAuthenticated, nil},
		{"credentials to failed", idp.StateAwaitingCredentials, idp.StateFailed, nil},
		{"challenge to authenticated", idp.StateChallengeRequired, idp.StateAuthenticated, nil},
		{"challenge to failed", idp.StateChallengeRequired, idp.StateFailed, nil},
		{"challenge back to credentials", idp.StateChallengeRequired, idp.StateAwaitingCredentials, idp.ErrInvalidTransition},
		{"authenticated is terminal", idp.StateAuthenticated, idp.StateFailed, idp.ErrTerminalState},
		{"failed is terminal", idp.StateFailed, idp.StateAuthenticated, idp.ErrTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := idp.ResumeChallengeFlow(tt.from)
			err := flow.Advance(tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, flow.State())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, flow.State())
		})
	}
}

func TestChallengeFlowTerminal(t *testing.T) {
	assert.False(t, idp.NewChallengeFlow().Terminal())
	assert.False(t, idp.ResumeChallengeFlow(idp.StateChallengeRequired).Terminal())
	assert.True(t, idp.ResumeChallengeFlow(idp.StateAuthenticated).Terminal())
	assert.True(t, idp.ResumeChallengeFlow(idp.StateFailed).Terminal())
}

func TestChallengeFlowApplyOutcome(t *testing.T) {
	t.Run("tokens issued", func(t *testing.T) {
		flow := idp.NewChallengeFlow()
		err := flow.ApplyOutcome(&idp.AuthOutput{Tokens: &idp.TokenSet{AccessToken: "at"}})
		require.NoError(t, err)
		assert.Equal(t, idp.StateAuthenticated, flow.State())
	})

	t.Run("password rotation demanded", func(t *testing.T) {
		flow := idp.NewChallengeFlow()
		err := flow.ApplyOutcome(&idp.AuthOutput{
			ChallengeName: idp.ChallengeNewPasswordRequired,
			Session:       "session-token",
		})
		require.NoError(t, err)
		assert.Equal(t, idp.StateChallengeRequired, flow.State())
	})

	t.Run("nil outcome fails the handshake", func(t *testing.T) {
		flow := idp.NewChallengeFlow()
		require.NoError(t, flow.ApplyOutcome(nil))
		assert.Equal(t, idp.StateFailed, flow.State())
	})

	t.Run("unknown challenge fails the handshake", func(t *testing.T) {
		flow := idp.NewChallengeFlow()
		err := flow.ApplyOutcome(&idp.AuthOutput{ChallengeName: "SMS_MFA"})
		require.Error(t, err)
		assert.Equal(t, idp.StateFailed, flow.State())
	})
}

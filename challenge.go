package idp

import (
	goerrors "github.com/goliatone/go-errors"
)

// ChallengeState models where a single authentication handshake stands.
// State lives only for the duration of one request; the backend session
// token is the sole cross-request correlation and is never stored or
// inspected here.
type ChallengeState string

const (
	// StateAwaitingCredentials is the entry state before the first
	// credential submission.
	StateAwaitingCredentials ChallengeState = "awaiting_credentials"
	// StateChallengeRequired means the backend demands a password
	// rotation before issuing tokens.
	StateChallengeRequired ChallengeState = "challenge_required"
	// StateAuthenticated is terminal: tokens were issued.
	StateAuthenticated ChallengeState = "authenticated"
	// StateFailed is terminal and reachable from any state.
	StateFailed ChallengeState = "failed"
)

// ChallengeNewPasswordRequired is the backend's name for the mandatory
// password-rotation challenge.
const ChallengeNewPasswordRequired = "NEW_PASSWORD_REQUIRED"

const (
	textCodeInvalidTransition = "INVALID_CHALLENGE_TRANSITION"
	textCodeTerminalState     = "TERMINAL_CHALLENGE_STATE"
)

// ErrInvalidTransition is returned when a handshake step is not allowed
// from the current state.
var ErrInvalidTransition = goerrors.New("invalid challenge state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from a
// terminal state.
var ErrTerminalState = goerrors.New("challenge state is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalState).
	WithCode(goerrors.CodeConflict)

var challengeTransitions = map[ChallengeState]map[ChallengeState]struct{}{
	StateAwaitingCredentials: {
		StateChallengeRequired: {},
		StateAuthenticated:     {},
		StateFailed:            {},
	},
	StateChallengeRequired: {
		StateAuthenticated: {},
		StateFailed:        {},
	},
}

// ChallengeFlow tracks one handshake through the challenge graph.
type ChallengeFlow struct {
	state ChallengeState
}

// NewChallengeFlow starts a handshake at the entry state.
func NewChallengeFlow() *ChallengeFlow {
	return &ChallengeFlow{state: StateAwaitingCredentials}
}

// ResumeChallengeFlow continues a handshake at a known state, e.g. when a
// caller answers a previously issued challenge in a separate request.
func ResumeChallengeFlow(state ChallengeState) *ChallengeFlow {
	return &ChallengeFlow{state: state}
}

// State returns the current state.
func (f *ChallengeFlow) State() ChallengeState {
	return f.state
}

// Terminal reports whether the handshake can advance no further.
func (f *ChallengeFlow) Terminal() bool {
	return f.state == StateAuthenticated || f.state == StateFailed
}

// Advance moves the handshake to target, rejecting transitions the
// challenge graph does not allow.
func (f *ChallengeFlow) Advance(target ChallengeState) error {
	if f.Terminal() {
		return ErrTerminalState
	}
	allowed, ok := challengeTransitions[f.state]
	if !ok {
		return ErrInvalidTransition
	}
	if _, ok := allowed[target]; !ok {
		return ErrInvalidTransition
	}
	f.state = target
	return nil
}

// ApplyOutcome advances the flow according to a backend auth exchange:
// a challenge outcome moves to StateChallengeRequired, token issuance to
// StateAuthenticated. Unknown challenge names fail the handshake.
func (f *ChallengeFlow) ApplyOutcome(out *AuthOutput) error {
	switch {
	case out == nil:
		return f.Advance(StateFailed)
	case out.ChallengeName == "":
		return f.Advance(StateAuthenticated)
	case out.ChallengeName == ChallengeNewPasswordRequired:
		return f.Advance(StateChallengeRequired)
	default:
		if err := f.Advance(StateFailed); err != nil {
			return err
		}
		return goerrors.New("unsupported challenge requested by backend", goerrors.CategoryOperation).
			WithMetadata(map[string]any{"challenge": out.ChallengeName})
	}
}

package idp

import (
	"context"
	"fmt"
)

// Auther orchestrates the credential exchanges against the backend. It
// holds no cross-request state: challenge sessions and tokens live with
// the backend, and the request signature is recomputed per call because
// it binds the caller's username.
type Auther struct {
	backend      CredentialBackend
	clientID     string
	clientSecret string
	logger       Logger
}

// NewAuthenticator returns an Auther over the given backend.
func NewAuthenticator(backend CredentialBackend, cfg Config) *Auther {
	return &Auther{
		backend:      backend,
		clientID:     cfg.GetClientID(),
		clientSecret: cfg.GetClientSecret(),
		logger:       defLogger{},
	}
}

// WithLogger overrides the default logger.
func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// secretHash signs the request for confidential clients. Public clients
// (no secret configured) skip signing entirely.
func (s *Auther) secretHash(username string) string {
	if s.clientSecret == "" {
		return ""
	}
	return ComputeSecretHash(username, s.clientID, s.clientSecret)
}

// Authenticate performs the password-grant exchange. A principal in a
// forced password-rotation state yields challenge metadata and no token
// material; rejected credentials yield ErrNotAuthorized.
func (s *Auther) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	flow := NewChallengeFlow()

	out, err := s.backend.InitiateAuth(ctx, AuthInput{
		Username:   username,
		Password:   password,
		SecretHash: s.secretHash(username),
	})
	if err != nil {
		_ = flow.Advance(StateFailed)
		if IsNotAuthorized(err) {
			s.logger.Debug("authentication rejected for %q", username)
			return nil, err
		}
		return nil, err
	}

	if err := flow.ApplyOutcome(out); err != nil {
		return nil, err
	}

	if flow.State() == StateChallengeRequired {
		s.logger.Info("password rotation required for %q", username)
		return &AuthResult{
			ChallengeName: out.ChallengeName,
			Session:       out.Session,
		}, nil
	}

	return &AuthResult{Tokens: out.Tokens}, nil
}

// RespondToNewPasswordChallenge completes a pending challenge by setting
// a new password. The session token is forwarded opaque; the backend is
// the sole judge of its validity and expiry.
func (s *Auther) RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*AuthResult, error) {
	flow := ResumeChallengeFlow(StateChallengeRequired)

	out, err := s.backend.RespondToChallenge(ctx, ChallengeInput{
		Username:    username,
		NewPassword: newPassword,
		Session:     session,
		SecretHash:  s.secretHash(username),
	})
	if err != nil {
		_ = flow.Advance(StateFailed)
		return nil, err
	}

	if err := flow.Advance(StateAuthenticated); err != nil {
		return nil, err
	}

	return &AuthResult{Tokens: out.Tokens}, nil
}

// RefreshToken exchanges a refresh token for a fresh TokenSet. Not part
// of the challenge graph.
func (s *Auther) RefreshToken(ctx context.Context, username, refreshToken string) (*AuthResult, error) {
	out, err := s.backend.Refresh(ctx, RefreshInput{
		Username:     username,
		RefreshToken: refreshToken,
		SecretHash:   s.secretHash(username),
	})
	if err != nil {
		if IsNotAuthorized(err) {
			s.logger.Debug("token refresh rejected for %q", username)
		}
		return nil, err
	}
	return &AuthResult{Tokens: out.Tokens}, nil
}

// SignUp registers a new principal with email as its only attribute. The
// registration is durable on the backend even if the caller retries, so
// callers must not treat this as retry-safe. Email verification happens
// in ConfirmSignUp.
func (s *Auther) SignUp(ctx context.Context, username, email, password string) (*SignUpResult, error) {
	out, err := s.backend.SignUp(ctx, SignUpInput{
		Username:   username,
		Email:      email,
		Password:   password,
		SecretHash: s.secretHash(username),
	})
	if err != nil {
		return nil, err
	}

	return &SignUpResult{
		ExternalID: out.ExternalID,
		Confirmed:  out.Confirmed,
		Delivery:   describeDelivery(out.Delivery),
	}, nil
}

// ConfirmSignUp exchanges a confirmation code for account activation.
// Alias collisions and expired or mismatched codes come back classified;
// anything else is a backend fault.
func (s *Auther) ConfirmSignUp(ctx context.Context, username, code string) error {
	return s.backend.ConfirmSignUp(ctx, ConfirmInput{
		Username:   username,
		Code:       code,
		SecretHash: s.secretHash(username),
	})
}

// ResendConfirmation re-triggers confirmation code delivery.
func (s *Auther) ResendConfirmation(ctx context.Context, username string) (*CodeDelivery, error) {
	return s.backend.ResendConfirmation(ctx, ResendInput{
		Username:   username,
		SecretHash: s.secretHash(username),
	})
}

// describeDelivery renders the delivery channel for humans, e.g.
// "confirmation code sent via EMAIL to b***@x***.com".
func describeDelivery(d *CodeDelivery) string {
	if d == nil {
		return "confirmation code sent"
	}
	return fmt.Sprintf("confirmation code sent via %s to %s", d.Medium, d.Destination)
}

var _ Authenticator = (*Auther)(nil)

package idp

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. The default
// implementation prints to stdout; wire a real logger in production.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config supplies the backend client settings components need at
// construction time. Values are opaque strings and are never reloaded.
type Config interface {
	GetRegion() string
	GetUserPoolID() string
	GetClientID() string
	GetClientSecret() string
}

// Well-known principal attribute names used by admin lookups.
const (
	AttributeSub   = "sub"
	AttributeEmail = "email"
)

// TokenSet is the triple issued by the backend on successful
// authentication. Tokens are opaque here; nothing in this package parses
// or validates them.
type TokenSet struct {
	AccessToken   string `json:"access_token"`
	IdentityToken string `json:"id_token"`
	RefreshToken  string `json:"refresh_token"`
}

// CodeDelivery describes where a confirmation code was sent. Destination
// is masked by the backend.
type CodeDelivery struct {
	Destination   string `json:"destination"`
	Medium        string `json:"medium"`
	AttributeName string `json:"attribute_name"`
}

// AuthResult is the outcome of an authentication step: either a TokenSet,
// or challenge metadata with no token material.
type AuthResult struct {
	Tokens        *TokenSet `json:"tokens,omitempty"`
	ChallengeName string    `json:"challenge_name,omitempty"`
	Session       string    `json:"session,omitempty"`
}

// SignUpResult carries the backend-assigned external identifier for a new
// principal and a human-readable description of the code delivery.
type SignUpResult struct {
	ExternalID string `json:"user_id"`
	Confirmed  bool   `json:"confirmed"`
	Delivery   string `json:"code_delivery_details"`
}

// CreatedUser is the result of an admin-provisioned principal.
type CreatedUser struct {
	ExternalID string `json:"user_id"`
	Status     string `json:"status"`
}

// PrincipalRecord is a read-only projection of a backend user record as
// returned by filtered listings.
type PrincipalRecord struct {
	Username   string
	ExternalID string
	Email      string
	Status     string
	Enabled    bool
}

// AuthInput is a password-grant exchange request.
type AuthInput struct {
	Username   string
	Password   string
	SecretHash string
}

// ChallengeInput answers a pending NEW_PASSWORD_REQUIRED challenge.
type ChallengeInput struct {
	Username    string
	NewPassword string
	Session     string
	SecretHash  string
}

// RefreshInput exchanges a refresh token for a fresh TokenSet.
type RefreshInput struct {
	Username     string
	RefreshToken string
	SecretHash   string
}

// SignUpInput registers a new principal. Email is the only attribute set;
// verification happens in a separate confirmation step.
type SignUpInput struct {
	Username   string
	Email      string
	Password   string
	SecretHash string
}

// ConfirmInput exchanges a confirmation code for account activation.
type ConfirmInput struct {
	Username   string
	Code       string
	SecretHash string
}

// ResendInput re-triggers confirmation code delivery.
type ResendInput struct {
	Username   string
	SecretHash string
}

// CreateUserInput provisions a principal through the privileged API.
type CreateUserInput struct {
	Username          string
	Email             string
	TemporaryPassword string
	EmailVerified     bool
	SuppressDelivery  bool
}

// SetPasswordInput force-sets a principal's password. Permanent skips the
// forced rotation challenge on next login.
type SetPasswordInput struct {
	Username  string
	Password  string
	Permanent bool
}

// AuthOutput is the backend's answer to an authentication exchange.
// Either Tokens is set, or ChallengeName/Session are.
type AuthOutput struct {
	Tokens        *TokenSet
	ChallengeName string
	Session       string
}

// SignUpOutput is the backend's answer to a self-service registration.
type SignUpOutput struct {
	ExternalID string
	Confirmed  bool
	Delivery   *CodeDelivery
}

// CredentialBackend is the external identity service that owns principal
// records, credential verification and token issuance. Implementations
// classify their vendor errors into this package's taxonomy (errors.go)
// and wrap everything else as a backend fault.
type CredentialBackend interface {
	InitiateAuth(ctx context.Context, in AuthInput) (*AuthOutput, error)
	RespondToChallenge(ctx context.Context, in ChallengeInput) (*AuthOutput, error)
	Refresh(ctx context.Context, in RefreshInput) (*AuthOutput, error)
	SignUp(ctx context.Context, in SignUpInput) (*SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, in ConfirmInput) error
	ResendConfirmation(ctx context.Context, in ResendInput) (*CodeDelivery, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*CreatedUser, error)
	SetPassword(ctx context.Context, in SetPasswordInput) error
	DisableUser(ctx context.Context, username string) error
	ListUsersByAttribute(ctx context.Context, name, value string) ([]PrincipalRecord, error)
	DescribePasswordPolicy(ctx context.Context) (*PasswordPolicy, error)
}

// Authenticator holds the end-user credential exchange operations.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*AuthResult, error)
	RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*AuthResult, error)
	RefreshToken(ctx context.Context, username, refreshToken string) (*AuthResult, error)
	SignUp(ctx context.Context, username, email, password string) (*SignUpResult, error)
	ConfirmSignUp(ctx context.Context, username, code string) error
	ResendConfirmation(ctx context.Context, username string) (*CodeDelivery, error)
}

// AdminLifecycle holds the privileged user-lifecycle operations.
type AdminLifecycle interface {
	CreateUser(ctx context.Context, username, email, temporaryPassword string) (*CreatedUser, error)
	ResetPassword(ctx context.Context, externalID, newPassword string) error
	DisableUser(ctx context.Context, externalID string) error
	EmailExists(ctx context.Context, email string) (bool, error)
	PasswordPolicy(ctx context.Context) (*PasswordPolicy, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDP "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

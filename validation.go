package idp

import (
	"context"
	"errors"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// PolicySource yields the current password policy. The Administrator is
// the canonical source; wrap it in a CachedPolicySource to avoid paying a
// backend round trip on every validating request.
type PolicySource interface {
	PasswordPolicy(ctx context.Context) (*PasswordPolicy, error)
}

// EmailChecker answers whether an email is already claimed by a
// registered principal.
type EmailChecker interface {
	EmailExists(ctx context.Context, email string) (bool, error)
}

// FieldErrors maps a request field to the messages of every rule it
// violated. It is the error form of a validation failure: always
// recoverable, never a fault.
type FieldErrors map[string][]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msgs := range e {
		for _, m := range msgs {
			parts = append(parts, field+": "+m)
		}
	}
	// order is map-random; callers wanting determinism read the map
	if len(parts) == 0 {
		return "validation failed"
	}
	return "validation failed: " + parts[0]
}

// IsValidationError reports whether err carries per-field violations.
func IsValidationError(err error) bool {
	var fe FieldErrors
	return errors.As(err, &fe)
}

// AsFieldErrors extracts the per-field violations from err, if any.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// fieldErrorsFrom flattens an ozzo validation result, expanding policy
// violations into one message per violated rule.
func fieldErrorsFrom(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validation.Errors)
	if !ok {
		return err
	}
	out := FieldErrors{}
	for field, ferr := range verrs {
		var violations PolicyViolations
		if errors.As(ferr, &violations) {
			out[field] = append(out[field], violations...)
			continue
		}
		out[field] = append(out[field], ferr.Error())
	}
	return out
}

// TokenRequest is a password-grant exchange payload.
type TokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r TokenRequest) Validate() error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	))
}

// RefreshTokenRequest exchanges a refresh token for fresh tokens.
type RefreshTokenRequest struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshTokenRequest) Validate() error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.RefreshToken, validation.Required.Error("Refresh token is required")),
	))
}

// NewPasswordRequest answers a forced password-rotation challenge.
type NewPasswordRequest struct {
	Username    string `json:"username" form:"username"`
	NewPassword string `json:"new_password" form:"new_password"`
	Session     string `json:"session" form:"session"`
}

func (r NewPasswordRequest) validateWithPolicy(policy *PasswordPolicy) error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Session, validation.Required.Error("Session is required")),
		validation.Field(&r.NewPassword, PolicyRule(policy)),
	))
}

// SignupRequest registers a new principal.
type SignupRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	ConfirmationPassword string `json:"confirmation_password"`
}

func (r SignupRequest) validateWithPolicy(policy *PasswordPolicy) error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email is invalid"),
		),
		validation.Field(&r.Password, PolicyRule(policy)),
		validation.Field(&r.ConfirmationPassword,
			validation.Required.Error("Confirmation password is required"),
			validation.By(equals(r.Password, "Passwords do not match")),
		),
	))
}

// ConfirmSignupRequest exchanges a confirmation code for activation.
type ConfirmSignupRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

func (r ConfirmSignupRequest) Validate() error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Code, validation.Required.Error("Code is required")),
	))
}

// ResendConfirmationRequest re-triggers confirmation code delivery.
type ResendConfirmationRequest struct {
	Username string `json:"username"`
}

func (r ResendConfirmationRequest) Validate() error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
	))
}

// CreateUserRequest provisions a principal through the admin API.
type CreateUserRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password"`
}

func (r CreateUserRequest) validateWithPolicy(policy *PasswordPolicy) error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required.Error("Username is required")),
		validation.Field(&r.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Email is invalid"),
		),
		validation.Field(&r.TemporaryPassword, PolicyRule(policy)),
	))
}

// ResetPasswordRequest force-sets a password for a resolved principal.
// UserID comes from the route, not the body.
type ResetPasswordRequest struct {
	UserID   string `json:"-"`
	Password string `json:"password"`
}

func (r ResetPasswordRequest) validateWithPolicy(policy *PasswordPolicy) error {
	return fieldErrorsFrom(validation.ValidateStruct(&r,
		validation.Field(&r.UserID,
			validation.Required.Error("UserId is required"),
			validation.By(validExternalID),
		),
		validation.Field(&r.Password, PolicyRule(policy)),
	))
}

// validExternalID checks the route identifier parses as a UUID, the form
// the backend assigns to the sub attribute.
func validExternalID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("UserId must be a valid UUID")
	}
	return nil
}

func equals(expected, msg string) validation.RuleFunc {
	return func(value any) error {
		if s, _ := value.(string); s != expected {
			return errors.New(msg)
		}
		return nil
	}
}

// Pipeline gates every mutating operation: structural checks first, then
// policy evaluation for password-bearing payloads, then cross-principal
// checks (email uniqueness) that need a backend read.
type Pipeline struct {
	policies PolicySource
	emails   EmailChecker
	logger   Logger
}

// NewPipeline builds a validation pipeline over the given policy source.
func NewPipeline(policies PolicySource) *Pipeline {
	return &Pipeline{policies: policies, logger: defLogger{}}
}

// WithEmailChecker enables the signup email-uniqueness check.
func (p *Pipeline) WithEmailChecker(emails EmailChecker) *Pipeline {
	p.emails = emails
	return p
}

// WithLogger overrides the default logger.
func (p *Pipeline) WithLogger(logger Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

func (p *Pipeline) policy(ctx context.Context) (*PasswordPolicy, error) {
	policy, err := p.policies.PasswordPolicy(ctx)
	if err != nil {
		return nil, BackendFault(err, "failed to fetch password policy")
	}
	return policy, nil
}

func (p *Pipeline) ValidateToken(req TokenRequest) error {
	return req.Validate()
}

func (p *Pipeline) ValidateRefresh(req RefreshTokenRequest) error {
	return req.Validate()
}

func (p *Pipeline) ValidateNewPassword(ctx context.Context, req NewPasswordRequest) error {
	policy, err := p.policy(ctx)
	if err != nil {
		return err
	}
	return req.validateWithPolicy(policy)
}

func (p *Pipeline) ValidateSignup(ctx context.Context, req SignupRequest) error {
	policy, err := p.policy(ctx)
	if err != nil {
		return err
	}
	if err := req.validateWithPolicy(policy); err != nil {
		return err
	}
	if p.emails == nil {
		return nil
	}
	exists, err := p.emails.EmailExists(ctx, req.Email)
	if err != nil {
		return BackendFault(err, "failed to check email availability")
	}
	if exists {
		return FieldErrors{"email": {"Email is already in use"}}
	}
	return nil
}

func (p *Pipeline) ValidateConfirmSignup(req ConfirmSignupRequest) error {
	return req.Validate()
}

func (p *Pipeline) ValidateResendConfirmation(req ResendConfirmationRequest) error {
	return req.Validate()
}

func (p *Pipeline) ValidateCreateUser(ctx context.Context, req CreateUserRequest) error {
	policy, err := p.policy(ctx)
	if err != nil {
		return err
	}
	return req.validateWithPolicy(policy)
}

func (p *Pipeline) ValidateResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	policy, err := p.policy(ctx)
	if err != nil {
		return err
	}
	return req.validateWithPolicy(policy)
}

// CachedPolicyOption customizes the cached policy source.
type CachedPolicyOption func(*CachedPolicySource)

// WithPolicyClock injects a custom clock (useful for tests).
func WithPolicyClock(clock func() time.Time) CachedPolicyOption {
	return func(c *CachedPolicySource) {
		if clock != nil {
			c.now = clock
		}
	}
}

// CachedPolicySource is a read-through TTL cache over a PolicySource.
// The policy changes rarely and the fetch is a pure read, so validating
// requests share one cached descriptor instead of each paying a round
// trip. Invalidate on explicit configuration change.
type CachedPolicySource struct {
	source    PolicySource
	ttl       time.Duration
	now       func() time.Time
	mu        sync.Mutex
	policy    *PasswordPolicy
	fetchedAt time.Time
}

// NewCachedPolicySource wraps source with a TTL cache.
func NewCachedPolicySource(source PolicySource, ttl time.Duration, opts ...CachedPolicyOption) *CachedPolicySource {
	c := &CachedPolicySource{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PasswordPolicy returns the cached policy, fetching through on a miss or
// after the TTL elapses. Concurrent callers serialize on the fetch.
func (c *CachedPolicySource) PasswordPolicy(ctx context.Context) (*PasswordPolicy, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.policy != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		cached := *c.policy
		return &cached, nil
	}

	policy, err := c.source.PasswordPolicy(ctx)
	if err != nil {
		return nil, err
	}

	c.policy = policy
	c.fetchedAt = c.now()

	cached := *policy
	return &cached, nil
}

// Invalidate drops the cached policy so the next read fetches fresh.
func (c *CachedPolicySource) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = nil
}

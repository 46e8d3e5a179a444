package idp

import (
	"context"
)

// Administrator performs the privileged user-lifecycle operations. Its
// backend calls are already privileged, so no request signature is
// computed here.
type Administrator struct {
	backend CredentialBackend
	logger  Logger
}

// NewAdministrator returns an Administrator over the given backend.
func NewAdministrator(backend CredentialBackend) *Administrator {
	return &Administrator{backend: backend, logger: defLogger{}}
}

// WithLogger overrides the default logger.
func (a *Administrator) WithLogger(logger Logger) *Administrator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// ResolvedPrincipal is the intermediate result of mapping an opaque
// external identifier to the backend-native username. Admin mutations are
// a two-step operation, resolve then mutate, so the two failure modes
// stay distinct.
type ResolvedPrincipal struct {
	ExternalID string
	Username   string
}

// resolvePrincipal maps an external identifier to a username via a
// filtered backend listing. No match is a structured ErrUserNotFound,
// never a silent success: mutating the wrong (or no) principal on a
// stale identifier is a security problem for the caller to notice.
func (a *Administrator) resolvePrincipal(ctx context.Context, externalID string) (*ResolvedPrincipal, error) {
	records, err := a.backend.ListUsersByAttribute(ctx, AttributeSub, externalID)
	if err != nil {
		return nil, BackendFault(err, "user lookup by external id failed")
	}
	if len(records) == 0 {
		a.logger.Debug("no principal for external id %q", externalID)
		return nil, ErrUserNotFound
	}
	return &ResolvedPrincipal{
		ExternalID: externalID,
		Username:   records[0].Username,
	}, nil
}

// CreateUser provisions a principal with email pre-verified and message
// delivery suppressed; the caller informs the user of the temporary
// password out-of-band.
func (a *Administrator) CreateUser(ctx context.Context, username, email, temporaryPassword string) (*CreatedUser, error) {
	created, err := a.backend.CreateUser(ctx, CreateUserInput{
		Username:          username,
		Email:             email,
		TemporaryPassword: temporaryPassword,
		EmailVerified:     true,
		SuppressDelivery:  true,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info("created user %q (%s)", username, created.Status)
	return created, nil
}

// ResetPassword resolves the external identifier and force-sets the
// password as permanent, so the next login completes without a rotation
// challenge. An unresolvable identifier returns ErrUserNotFound before
// any mutation is attempted.
func (a *Administrator) ResetPassword(ctx context.Context, externalID, newPassword string) error {
	principal, err := a.resolvePrincipal(ctx, externalID)
	if err != nil {
		return err
	}
	return a.backend.SetPassword(ctx, SetPasswordInput{
		Username:  principal.Username,
		Password:  newPassword,
		Permanent: true,
	})
}

// DisableUser resolves the external identifier and disables the
// principal. Disabling an already-disabled principal still reports
// success; idempotence is the backend's contract, only forwarded here.
func (a *Administrator) DisableUser(ctx context.Context, externalID string) error {
	principal, err := a.resolvePrincipal(ctx, externalID)
	if err != nil {
		return err
	}
	return a.backend.DisableUser(ctx, principal.Username)
}

// EmailExists reports whether any principal has claimed the email.
func (a *Administrator) EmailExists(ctx context.Context, email string) (bool, error) {
	records, err := a.backend.ListUsersByAttribute(ctx, AttributeEmail, email)
	if err != nil {
		return false, BackendFault(err, "user lookup by email failed")
	}
	return len(records) != 0, nil
}

// PasswordPolicy fetches the pool password policy fresh from the backend.
// Callers that validate per request should wrap the Administrator in a
// CachedPolicySource instead of hitting this on every call.
func (a *Administrator) PasswordPolicy(ctx context.Context) (*PasswordPolicy, error) {
	return a.backend.DescribePasswordPolicy(ctx)
}

var _ AdminLifecycle = (*Administrator)(nil)
var _ PolicySource = (*Administrator)(nil)
var _ EmailChecker = (*Administrator)(nil)

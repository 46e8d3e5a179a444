package idp_test

import (
	"context"

	idp "github.com/goliatone/go-idp"
	"github.com/stretchr/testify/mock"
)

// MockBackend implements idp.CredentialBackend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) InitiateAuth(ctx context.Context, in idp.AuthInput) (*idp.AuthOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) RespondToChallenge(ctx context.Context, in idp.ChallengeInput) (*idp.AuthOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) Refresh(ctx context.Context, in idp.RefreshInput) (*idp.AuthOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) SignUp(ctx context.Context, in idp.SignUpInput) (*idp.SignUpOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.SignUpOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) ConfirmSignUp(ctx context.Context, in idp.ConfirmInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockBackend) ResendConfirmation(ctx context.Context, in idp.ResendInput) (*idp.CodeDelivery, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.CodeDelivery), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) CreateUser(ctx context.Context, in idp.CreateUserInput) (*idp.CreatedUser, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*idp.CreatedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) SetPassword(ctx context.Context, in idp.SetPasswordInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}

func (m *MockBackend) DisableUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

func (m *MockBackend) ListUsersByAttribute(ctx context.Context, name, value string) ([]idp.PrincipalRecord, error) {
	args := m.Called(ctx, name, value)
	if out := args.Get(0); out != nil {
		return out.([]idp.PrincipalRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBackend) DescribePasswordPolicy(ctx context.Context) (*idp.PasswordPolicy, error) {
	args := m.Called(ctx)
	if out := args.Get(0); out != nil {
		return out.(*idp.PasswordPolicy), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAuthenticator implements idp.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*idp.AuthResult, error) {
	args := m.Called(ctx, username, password)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) RespondToNewPasswordChallenge(ctx context.Context, username, newPassword, session string) (*idp.AuthResult, error) {
	args := m.Called(ctx, username, newPassword, session)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) RefreshToken(ctx context.Context, username, refreshToken string) (*idp.AuthResult, error) {
	args := m.Called(ctx, username, refreshToken)
	if out := args.Get(0); out != nil {
		return out.(*idp.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) SignUp(ctx context.Context, username, email, password string) (*idp.SignUpResult, error) {
	args := m.Called(ctx, username, email, password)
	if out := args.Get(0); out != nil {
		return out.(*idp.SignUpResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthenticator) ConfirmSignUp(ctx context.Context, username, code string) error {
	args := m.Called(ctx, username, code)
	return args.Error(0)
}

func (m *MockAuthenticator) ResendConfirmation(ctx context.Context, username string) (*idp.CodeDelivery, error) {
	args := m.Called(ctx, username)
	if out := args.Get(0); out != nil {
		return out.(*idp.CodeDelivery), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockAdmin implements idp.AdminLifecycle
type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) CreateUser(ctx context.Context, username, email, temporaryPassword string) (*idp.CreatedUser, error) {
	args := m.Called(ctx, username, email, temporaryPassword)
	if out := args.Get(0); out != nil {
		return out.(*idp.CreatedUser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAdmin) ResetPassword(ctx context.Context, externalID, newPassword string) error {
	args := m.Called(ctx, externalID, newPassword)
	return args.Error(0)
}

func (m *MockAdmin) DisableUser(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

func (m *MockAdmin) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdmin) PasswordPolicy(ctx context.Context) (*idp.PasswordPolicy, error) {
	args := m.Called(ctx)
	if out := args.Get(0); out != nil {
		return out.(*idp.PasswordPolicy), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPolicySource implements idp.PolicySource
type MockPolicySource struct {
	mock.Mock
}

func (m *MockPolicySource) PasswordPolicy(ctx context.Context) (*idp.PasswordPolicy, error) {
	args := m.Called(ctx)
	if out := args.Get(0); out != nil {
		return out.(*idp.PasswordPolicy), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEmailChecker implements idp.EmailChecker
type MockEmailChecker struct {
	mock.Mock
}

func (m *MockEmailChecker) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// staticPolicySource returns a fixed policy with no backend involved.
type staticPolicySource struct {
	policy idp.PasswordPolicy
}

func (s staticPolicySource) PasswordPolicy(ctx context.Context) (*idp.PasswordPolicy, error) {
	policy := s.policy
	return &policy, nil
}

// testConfig implements idp.Config
type testConfig struct {
	region       string
	userPoolID   string
	clientID     string
	clientSecret string
}

func (c testConfig) GetRegion() string       { return c.region }
func (c testConfig) GetUserPoolID() string   { return c.userPoolID }
func (c testConfig) GetClientID() string     { return c.clientID }
func (c testConfig) GetClientSecret() string { return c.clientSecret }

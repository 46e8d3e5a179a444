package cognito

import (
	"context"
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/goliatone/go-idp"
)

// Auth parameter and challenge-response keys defined by the Cognito API.
const (
	paramUsername     = "USERNAME"
	paramPassword     = "PASSWORD"
	paramSecretHash   = "SECRET_HASH"
	paramRefreshToken = "REFRESH_TOKEN"
	paramNewPassword  = "NEW_PASSWORD"
)

// api is the slice of the Cognito SDK surface the backend uses.
type api interface {
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	RespondToAuthChallenge(ctx context.Context, params *cip.RespondToAuthChallengeInput, optFns ...func(*cip.Options)) (*cip.RespondToAuthChallengeOutput, error)
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	ConfirmSignUp(ctx context.Context, params *cip.ConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error)
	ResendConfirmationCode(ctx context.Context, params *cip.ResendConfirmationCodeInput, optFns ...func(*cip.Options)) (*cip.ResendConfirmationCodeOutput, error)
	AdminCreateUser(ctx context.Context, params *cip.AdminCreateUserInput, optFns ...func(*cip.Options)) (*cip.AdminCreateUserOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminDisableUser(ctx context.Context, params *cip.AdminDisableUserInput, optFns ...func(*cip.Options)) (*cip.AdminDisableUserOutput, error)
	ListUsers(ctx context.Context, params *cip.ListUsersInput, optFns ...func(*cip.Options)) (*cip.ListUsersOutput, error)
	DescribeUserPool(ctx context.Context, params *cip.DescribeUserPoolInput, optFns ...func(*cip.Options)) (*cip.DescribeUserPoolOutput, error)
}

// Backend implements idp.CredentialBackend against a Cognito user pool.
type Backend struct {
	client api
	config Config
}

// New builds a Backend using the SDK default credential chain, or static
// keys when the config carries them.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, idp.BackendFault(err, "cognito: failed to load AWS configuration")
	}

	return &Backend{
		client: cip.NewFromConfig(awsCfg),
		config: cfg,
	}, nil
}

// newWithClient injects a client, used by tests.
func newWithClient(client api, cfg Config) *Backend {
	return &Backend{client: client, config: cfg}
}

// Config exposes the backend settings, e.g. for middleware wiring.
func (b *Backend) Config() Config {
	return b.config
}

// InitiateAuth performs the USER_PASSWORD_AUTH exchange.
func (b *Backend) InitiateAuth(ctx context.Context, in idp.AuthInput) (*idp.AuthOutput, error) {
	params := map[string]string{
		paramUsername: in.Username,
		paramPassword: in.Password,
	}
	if in.SecretHash != "" {
		params[paramSecretHash] = in.SecretHash
	}

	out, err := b.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeUserPasswordAuth,
		ClientId:       aws.String(b.config.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, classify(err)
	}

	if out.ChallengeName != "" {
		return &idp.AuthOutput{
			ChallengeName: string(out.ChallengeName),
			Session:       aws.ToString(out.Session),
		}, nil
	}

	return &idp.AuthOutput{Tokens: tokensFrom(out.AuthenticationResult)}, nil
}

// RespondToChallenge answers a NEW_PASSWORD_REQUIRED challenge.
func (b *Backend) RespondToChallenge(ctx context.Context, in idp.ChallengeInput) (*idp.AuthOutput, error) {
	responses := map[string]string{
		paramUsername:    in.Username,
		paramNewPassword: in.NewPassword,
	}
	if in.SecretHash != "" {
		responses[paramSecretHash] = in.SecretHash
	}

	out, err := b.client.RespondToAuthChallenge(ctx, &cip.RespondToAuthChallengeInput{
		ChallengeName:      types.ChallengeNameTypeNewPasswordRequired,
		ClientId:           aws.String(b.config.ClientID),
		Session:            aws.String(in.Session),
		ChallengeResponses: responses,
	})
	if err != nil {
		return nil, classify(err)
	}

	return &idp.AuthOutput{Tokens: tokensFrom(out.AuthenticationResult)}, nil
}

// Refresh performs the REFRESH_TOKEN_AUTH exchange. Cognito does not
// rotate the refresh token on this flow, so the result carries only the
// access and identity tokens.
func (b *Backend) Refresh(ctx context.Context, in idp.RefreshInput) (*idp.AuthOutput, error) {
	params := map[string]string{
		paramRefreshToken: in.RefreshToken,
	}
	if in.SecretHash != "" {
		params[paramSecretHash] = in.SecretHash
	}

	out, err := b.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       types.AuthFlowTypeRefreshTokenAuth,
		ClientId:       aws.String(b.config.ClientID),
		AuthParameters: params,
	})
	if err != nil {
		return nil, classify(err)
	}

	return &idp.AuthOutput{Tokens: tokensFrom(out.AuthenticationResult)}, nil
}

// SignUp registers a principal with email as its only attribute.
func (b *Backend) SignUp(ctx context.Context, in idp.SignUpInput) (*idp.SignUpOutput, error) {
	input := &cip.SignUpInput{
		ClientId: aws.String(b.config.ClientID),
		Username: aws.String(in.Username),
		Password: aws.String(in.Password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String(idp.AttributeEmail), Value: aws.String(in.Email)},
		},
	}
	if in.SecretHash != "" {
		input.SecretHash = aws.String(in.SecretHash)
	}

	out, err := b.client.SignUp(ctx, input)
	if err != nil {
		return nil, classify(err)
	}

	return &idp.SignUpOutput{
		ExternalID: aws.ToString(out.UserSub),
		Confirmed:  out.UserConfirmed,
		Delivery:   deliveryFrom(out.CodeDeliveryDetails),
	}, nil
}

// ConfirmSignUp exchanges a confirmation code for activation.
func (b *Backend) ConfirmSignUp(ctx context.Context, in idp.ConfirmInput) error {
	input := &cip.ConfirmSignUpInput{
		ClientId:         aws.String(b.config.ClientID),
		Username:         aws.String(in.Username),
		ConfirmationCode: aws.String(in.Code),
	}
	if in.SecretHash != "" {
		input.SecretHash = aws.String(in.SecretHash)
	}

	if _, err := b.client.ConfirmSignUp(ctx, input); err != nil {
		return classify(err)
	}
	return nil
}

// ResendConfirmation re-triggers confirmation code delivery.
func (b *Backend) ResendConfirmation(ctx context.Context, in idp.ResendInput) (*idp.CodeDelivery, error) {
	input := &cip.ResendConfirmationCodeInput{
		ClientId: aws.String(b.config.ClientID),
		Username: aws.String(in.Username),
	}
	if in.SecretHash != "" {
		input.SecretHash = aws.String(in.SecretHash)
	}

	out, err := b.client.ResendConfirmationCode(ctx, input)
	if err != nil {
		return nil, classify(err)
	}
	return deliveryFrom(out.CodeDeliveryDetails), nil
}

// CreateUser provisions a principal through the privileged API.
func (b *Backend) CreateUser(ctx context.Context, in idp.CreateUserInput) (*idp.CreatedUser, error) {
	attrs := []types.AttributeType{
		{Name: aws.String(idp.AttributeEmail), Value: aws.String(in.Email)},
	}
	if in.EmailVerified {
		attrs = append(attrs, types.AttributeType{
			Name:  aws.String("email_verified"),
			Value: aws.String("True"),
		})
	}

	input := &cip.AdminCreateUserInput{
		UserPoolId:        aws.String(b.config.UserPoolID),
		Username:          aws.String(in.Username),
		TemporaryPassword: aws.String(in.TemporaryPassword),
		UserAttributes:    attrs,
	}
	if in.SuppressDelivery {
		input.MessageAction = types.MessageActionTypeSuppress
	}

	out, err := b.client.AdminCreateUser(ctx, input)
	if err != nil {
		return nil, classify(err)
	}
	if out.User == nil {
		return nil, idp.BackendFault(stderrors.New("empty user in response"), "cognito: create user returned no record")
	}

	return &idp.CreatedUser{
		ExternalID: attributeValue(out.User.Attributes, idp.AttributeSub),
		Status:     string(out.User.UserStatus),
	}, nil
}

// SetPassword force-sets a principal's password.
func (b *Backend) SetPassword(ctx context.Context, in idp.SetPasswordInput) error {
	_, err := b.client.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: aws.String(b.config.UserPoolID),
		Username:   aws.String(in.Username),
		Password:   aws.String(in.Password),
		Permanent:  in.Permanent,
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// DisableUser disables a principal by username.
func (b *Backend) DisableUser(ctx context.Context, username string) error {
	_, err := b.client.AdminDisableUser(ctx, &cip.AdminDisableUserInput{
		UserPoolId: aws.String(b.config.UserPoolID),
		Username:   aws.String(username),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// ListUsersByAttribute lists principals whose attribute equals value,
// e.g. `sub = "…"` or `email = "…"`.
func (b *Backend) ListUsersByAttribute(ctx context.Context, name, value string) ([]idp.PrincipalRecord, error) {
	out, err := b.client.ListUsers(ctx, &cip.ListUsersInput{
		UserPoolId: aws.String(b.config.UserPoolID),
		Filter:     aws.String(name + ` = "` + value + `"`),
	})
	if err != nil {
		return nil, classify(err)
	}

	records := make([]idp.PrincipalRecord, 0, len(out.Users))
	for _, u := range out.Users {
		records = append(records, idp.PrincipalRecord{
			Username:   aws.ToString(u.Username),
			ExternalID: attributeValue(u.Attributes, idp.AttributeSub),
			Email:      attributeValue(u.Attributes, idp.AttributeEmail),
			Status:     string(u.UserStatus),
			Enabled:    u.Enabled,
		})
	}
	return records, nil
}

// DescribePasswordPolicy reads the pool's password policy.
func (b *Backend) DescribePasswordPolicy(ctx context.Context) (*idp.PasswordPolicy, error) {
	out, err := b.client.DescribeUserPool(ctx, &cip.DescribeUserPoolInput{
		UserPoolId: aws.String(b.config.UserPoolID),
	})
	if err != nil {
		return nil, classify(err)
	}
	if out.UserPool == nil || out.UserPool.Policies == nil || out.UserPool.Policies.PasswordPolicy == nil {
		return nil, idp.BackendFault(stderrors.New("empty policy in response"), "cognito: pool has no password policy")
	}

	p := out.UserPool.Policies.PasswordPolicy
	return &idp.PasswordPolicy{
		MinimumLength:                 int(aws.ToInt32(p.MinimumLength)),
		RequireLowercase:              p.RequireLowercase,
		RequireNumbers:                p.RequireNumbers,
		RequireSymbols:                p.RequireSymbols,
		RequireUppercase:              p.RequireUppercase,
		TemporaryPasswordValidityDays: int(p.TemporaryPasswordValidityDays),
	}, nil
}

func tokensFrom(result *types.AuthenticationResultType) *idp.TokenSet {
	if result == nil {
		return nil
	}
	return &idp.TokenSet{
		AccessToken:   aws.ToString(result.AccessToken),
		IdentityToken: aws.ToString(result.IdToken),
		RefreshToken:  aws.ToString(result.RefreshToken),
	}
}

func deliveryFrom(details *types.CodeDeliveryDetailsType) *idp.CodeDelivery {
	if details == nil {
		return nil
	}
	return &idp.CodeDelivery{
		Destination:   aws.ToString(details.Destination),
		Medium:        string(details.DeliveryMedium),
		AttributeName: aws.ToString(details.AttributeName),
	}
}

func attributeValue(attrs []types.AttributeType, name string) string {
	for _, a := range attrs {
		if aws.ToString(a.Name) == name {
			return aws.ToString(a.Value)
		}
	}
	return ""
}

var _ idp.CredentialBackend = (*Backend)(nil)

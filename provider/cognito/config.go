package cognito

import (
	"fmt"
	"strings"
)

// Config holds the user-pool settings for one backend client. Each
// component receives its backend at construction; there is no shared
// registry of named clients.
type Config struct {
	// Region is the AWS region hosting the user pool.
	Region string

	// UserPoolID identifies the pool, e.g. "us-east-1_Ab129faBb".
	UserPoolID string

	// ClientID is the app client id requests are issued for.
	ClientID string

	// ClientSecret enables request signing. Empty for public clients.
	ClientSecret string

	// AccessKey/SecretKey are optional static credentials for the
	// privileged calls. When empty the SDK default chain is used.
	AccessKey string
	SecretKey string
}

// Validate checks the settings required for any backend call.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Region) == "" {
		return fmt.Errorf("cognito: region is required")
	}
	if strings.TrimSpace(c.UserPoolID) == "" {
		return fmt.Errorf("cognito: user pool id is required")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("cognito: client id is required")
	}
	return nil
}

// IssuerURL is the token issuer for this pool, used by bearer-token
// validation middleware.
func (c Config) IssuerURL() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL is the pool's JSON Web Key Set endpoint.
func (c Config) JWKSURL() string {
	return c.IssuerURL() + "/.well-known/jwks.json"
}

func (c Config) GetRegion() string       { return c.Region }
func (c Config) GetUserPoolID() string   { return c.UserPoolID }
func (c Config) GetClientID() string     { return c.ClientID }
func (c Config) GetClientSecret() string { return c.ClientSecret }

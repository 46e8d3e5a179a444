package idp

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvSettings is the environment-backed configuration for a deployed
// server. Values are read once at startup; nothing reloads at runtime.
type EnvSettings struct {
	Address string `env:"SERVER_ADDRESS" envDefault:":8080"`

	Region       string `env:"AWS_REGION" envDefault:"us-east-1"`
	UserPoolID   string `env:"USER_POOL_ID,required"`
	ClientID     string `env:"CLIENT_ID,required"`
	ClientSecret string `env:"CLIENT_SECRET"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY"`

	AdminGroup     string        `env:"ADMIN_GROUP" envDefault:"administrators"`
	PolicyCacheTTL time.Duration `env:"POLICY_CACHE_TTL" envDefault:"5m"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadSettings parses settings from the environment.
func LoadSettings() (*EnvSettings, error) {
	settings := &EnvSettings{}
	if err := env.Parse(settings); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return settings, nil
}

func (s *EnvSettings) GetRegion() string       { return s.Region }
func (s *EnvSettings) GetUserPoolID() string   { return s.UserPoolID }
func (s *EnvSettings) GetClientID() string     { return s.ClientID }
func (s *EnvSettings) GetClientSecret() string { return s.ClientSecret }

var _ Config = (*EnvSettings)(nil)

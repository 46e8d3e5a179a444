// Package jwtware validates backend-issued bearer tokens against the
// user pool's JWKS and gates routes on group membership. Tokens are
// minted and owned by the identity backend; this middleware only checks
// signature, issuer, audience and groups before letting a request
// through.
package jwtware

import (
	"errors"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrJWTMissingOrMalformed is returned when no usable token is found
	// in the configured lookup sources.
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
	// ErrMissingGroup is returned when the token lacks the required group.
	ErrMissingGroup = errors.New("token does not grant the required group")
	// ErrAudienceMismatch is returned when neither the aud claim nor the
	// client_id claim matches the configured audience.
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// Config controls token extraction and validation.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// ErrorHandler converts validation failures into responses.
	ErrorHandler func(*fiber.Ctx, error) error

	// KeyFunc resolves the verification key. Built from JWKSetURLs when
	// not provided.
	KeyFunc jwt.Keyfunc

	// JWKSetURLs are the JWKS endpoints of the issuing pool. Keys are
	// cached and refreshed by the keyfunc provider.
	JWKSetURLs []string

	// Issuer, when set, must match the iss claim exactly.
	Issuer string

	// Audience, when set, must match either the aud claim (identity
	// tokens) or the client_id claim (access tokens).
	Audience string

	// RequiredGroup, when set, must appear in the groups claim.
	RequiredGroup string

	// GroupsClaim names the claim carrying group membership.
	// Default: "cognito:groups".
	GroupsClaim string

	// ContextKey is where validated claims are stored on the request.
	// Default: "user".
	ContextKey string

	// TokenLookup is a comma-separated list of "source:name" entries,
	// e.g. "header:Authorization,cookie:token". Default: the
	// Authorization header.
	TokenLookup string

	// AuthScheme is the prefix stripped from header values.
	// Default: "Bearer".
	AuthScheme string
}

// New returns a fiber middleware enforcing the given config.
func New(config ...Config) fiber.Handler {
	cfg := defaults(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractToken(c, cfg)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		opts := []jwt.ParserOption{}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}

		token, err := jwt.Parse(raw, cfg.KeyFunc, opts...)
		if err != nil || !token.Valid {
			if err == nil {
				err = ErrJWTMissingOrMalformed
			}
			return cfg.ErrorHandler(c, err)
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return cfg.ErrorHandler(c, ErrJWTMissingOrMalformed)
		}

		if err := checkAudience(claims, cfg.Audience); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		if err := checkGroup(claims, cfg.GroupsClaim, cfg.RequiredGroup); err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, map[string]any(claims))
		return c.Next()
	}
}

func defaults(config ...Config) Config {
	cfg := Config{}
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}
	if cfg.TokenLookup == "" {
		cfg.TokenLookup = "header:" + fiber.HeaderAuthorization
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.GroupsClaim == "" {
		cfg.GroupsClaim = "cognito:groups"
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.KeyFunc == nil {
		if len(cfg.JWKSetURLs) == 0 {
			panic("jwtware: KeyFunc or JWKSetURLs required")
		}
		cfg.KeyFunc = jwksKeyfunc(cfg.JWKSetURLs)
	}

	return cfg
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	if errors.Is(err, ErrMissingGroup) {
		status = fiber.StatusForbidden
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": err.Error(),
	})
}

func jwksKeyfunc(urls []string) jwt.Keyfunc {
	if len(urls) == 1 {
		jwks, err := keyfunc.Get(urls[0], keyfunc.Options{})
		if err != nil {
			panic("jwtware: failed to create keyfunc from JWK Set URL: " + err.Error())
		}
		return jwks.Keyfunc
	}

	opts := make(map[string]keyfunc.Options, len(urls))
	for _, u := range urls {
		opts[u] = keyfunc.Options{}
	}
	multi, err := keyfunc.GetMultiple(opts, keyfunc.MultipleOptions{})
	if err != nil {
		panic("jwtware: failed to create keyfunc from JWK Set URLs: " + err.Error())
	}
	return multi.Keyfunc
}

// extractToken walks the lookup sources in order and returns the first
// non-empty candidate.
func extractToken(c *fiber.Ctx, cfg Config) (string, error) {
	for _, lookup := range strings.Split(cfg.TokenLookup, ",") {
		source, name, found := strings.Cut(strings.TrimSpace(lookup), ":")
		if !found {
			continue
		}

		var candidate string
		switch source {
		case "header":
			candidate = fromHeader(c.Get(name), cfg.AuthScheme)
		case "cookie":
			candidate = c.Cookies(name)
		case "query":
			candidate = c.Query(name)
		}

		if candidate != "" {
			return candidate, nil
		}
	}
	return "", ErrJWTMissingOrMalformed
}

func fromHeader(value, scheme string) string {
	if value == "" {
		return ""
	}
	if scheme == "" {
		return value
	}
	prefix := scheme + " "
	if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
		return value[len(prefix):]
	}
	return ""
}

func checkAudience(claims jwt.MapClaims, audience string) error {
	if audience == "" {
		return nil
	}

	if aud, err := claims.GetAudience(); err == nil {
		for _, a := range aud {
			if a == audience {
				return nil
			}
		}
	}

	// access tokens carry the app client in client_id instead of aud
	if clientID, ok := claims["client_id"].(string); ok && clientID == audience {
		return nil
	}

	return ErrAudienceMismatch
}

func checkGroup(claims jwt.MapClaims, groupsClaim, required string) error {
	if required == "" {
		return nil
	}

	groups, ok := claims[groupsClaim].([]any)
	if !ok {
		return ErrMissingGroup
	}
	for _, g := range groups {
		if name, ok := g.(string); ok && name == required {
			return nil
		}
	}
	return ErrMissingGroup
}

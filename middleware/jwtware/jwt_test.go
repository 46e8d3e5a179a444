package jwtware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-idp/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

func hs256KeyFunc(t *jwt.Token) (any, error) {
	return signingKey, nil
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return raw
}

func newGuardedApp(cfg jwtware.Config) *fiber.App {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = hs256KeyFunc
	}

	app := fiber.New()
	app.Use(jwtware.New(cfg))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims, _ := c.Locals("user").(map[string]any)
		return c.JSON(fiber.Map{"sub": claims["sub"]})
	})
	return app
}

func baseClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub": "ext-id",
		"iss": "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_abc123",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestMissingToken(t *testing.T) {
	app := newGuardedApp(jwtware.Config{})

	res, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	app := newGuardedApp(jwtware.Config{})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Basic not-a-jwt")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestValidToken(t *testing.T) {
	app := newGuardedApp(jwtware.Config{})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, baseClaims()))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestExpiredToken(t *testing.T) {
	app := newGuardedApp(jwtware.Config{})

	claims := baseClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestIssuerCheck(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		Issuer: "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_abc123",
	})

	t.Run("matching issuer passes", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, baseClaims()))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		claims := baseClaims()
		claims["iss"] = "https://evil.example.com"

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})
}

func TestAudienceCheck(t *testing.T) {
	app := newGuardedApp(jwtware.Config{Audience: "client-id"})

	t.Run("aud claim matches", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "client-id"

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("client_id claim matches for access tokens", func(t *testing.T) {
		claims := baseClaims()
		claims["client_id"] = "client-id"

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("neither claim matches", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "other-client"

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})
}

func TestGroupCheck(t *testing.T) {
	app := newGuardedApp(jwtware.Config{RequiredGroup: "administrators"})

	t.Run("member of the required group", func(t *testing.T) {
		claims := baseClaims()
		claims["cognito:groups"] = []string{"administrators", "auditors"}

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("missing the required group is forbidden", func(t *testing.T) {
		claims := baseClaims()
		claims["cognito:groups"] = []string{"auditors"}

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, claims))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	})

	t.Run("no groups claim at all is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, baseClaims()))

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, res.StatusCode)
	})
}

func TestClaimsStoredInContext(t *testing.T) {
	app := fiber.New()
	app.Use(jwtware.New(jwtware.Config{KeyFunc: hs256KeyFunc, ContextKey: "claims"}))
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims, ok := c.Locals("claims").(map[string]any)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"sub": claims["sub"]})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signedToken(t, baseClaims()))

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestFilterSkipsMiddleware(t *testing.T) {
	app := newGuardedApp(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool {
			return c.Query("skip") == "1"
		},
	})

	res, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/protected?skip=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestTokenLookupSources(t *testing.T) {
	t.Run("cookie", func(t *testing.T) {
		app := newGuardedApp(jwtware.Config{TokenLookup: "cookie:token"})

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: signedToken(t, baseClaims())})

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("query", func(t *testing.T) {
		app := newGuardedApp(jwtware.Config{TokenLookup: "query:access_token"})

		req := httptest.NewRequest(fiber.MethodGet, "/protected?access_token="+signedToken(t, baseClaims()), nil)
		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("header then cookie fallback", func(t *testing.T) {
		app := newGuardedApp(jwtware.Config{TokenLookup: "header:Authorization,cookie:token"})

		req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: signedToken(t, baseClaims())})

		res, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	idp "github.com/goliatone/go-idp"
	"github.com/goliatone/go-idp/middleware/jwtware"
	"github.com/goliatone/go-idp/provider/cognito"
	"go.uber.org/zap"
)

// zapLogger adapts a sugared zap logger to the idp.Logger surface.
type zapLogger struct {
	log *zap.SugaredLogger
}

func (z zapLogger) Debug(format string, args ...any) { z.log.Debugf(format, args...) }
func (z zapLogger) Info(format string, args ...any)  { z.log.Infof(format, args...) }
func (z zapLogger) Error(format string, args ...any) { z.log.Errorf(format, args...) }

func newZap(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}

func main() {
	settings, err := idp.LoadSettings()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	zl, err := newZap(settings.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer zl.Sync()

	logger := zapLogger{log: zl.Sugar()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, logger); err != nil {
		logger.Error("server exited: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settings *idp.EnvSettings, logger idp.Logger) error {
	backendCfg := cognito.Config{
		Region:       settings.Region,
		UserPoolID:   settings.UserPoolID,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		AccessKey:    settings.AccessKey,
		SecretKey:    settings.SecretKey,
	}

	backend, err := cognito.New(ctx, backendCfg)
	if err != nil {
		return err
	}

	admin := idp.NewAdministrator(backend).WithLogger(logger)
	auther := idp.NewAuthenticator(backend, settings).WithLogger(logger)

	policies := idp.NewCachedPolicySource(admin, settings.PolicyCacheTTL)
	pipeline := idp.NewPipeline(policies).
		WithEmailChecker(admin).
		WithLogger(logger)

	authGuard := jwtware.New(jwtware.Config{
		JWKSetURLs: []string{backendCfg.JWKSURL()},
		Issuer:     backendCfg.IssuerURL(),
		Audience:   settings.ClientID,
	})
	adminGuard := jwtware.New(jwtware.Config{
		JWKSetURLs:    []string{backendCfg.JWKSURL()},
		Issuer:        backendCfg.IssuerURL(),
		Audience:      settings.ClientID,
		RequiredGroup: settings.AdminGroup,
	})

	app := fiber.New(fiber.Config{
		AppName: "go-idp",
	})
	app.Use(recover.New())

	app.Use(csrf.New(csrf.Config{
		ContextKey: "antiforgery",
		Next: func(c *fiber.Ctx) bool {
			// browser-less API clients authenticate with bearer tokens
			return c.Get(fiber.HeaderAuthorization) != ""
		},
	}))
	app.Get("/antiforgery-token", func(c *fiber.Ctx) error {
		token, _ := c.Locals("antiforgery").(string)
		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"token": token},
		})
	})

	idp.RegisterRoutes(app, idp.RouterOptions{
		Auth:       idp.NewAuthController(auther, pipeline).WithLogger(logger),
		Admin:      idp.NewAdminController(admin, pipeline).WithLogger(logger),
		ClaimsKey:  "user",
		AuthGuard:  authGuard,
		AdminGuard: adminGuard,
	})

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening on %s", settings.Address)
		errc <- app.Listen(settings.Address)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return app.Shutdown()
	}
}

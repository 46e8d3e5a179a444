package idp

import (
	"github.com/gofiber/fiber/v2"
)

// APIResponse is the uniform envelope for every operation exposed over
// HTTP. Success=false implies Data is absent.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// ValidationProblem is the envelope for requests rejected by the
// validation pipeline: one message per violated rule, keyed by field.
type ValidationProblem struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Errors  FieldErrors `json:"errors"`
}

func respond[T any](c *fiber.Ctx, status int, message string, data T) error {
	return c.Status(status).JSON(APIResponse[T]{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse[any]{
		Success: false,
		Message: message,
	})
}

// respondError maps the error taxonomy onto transport status codes.
// Recoverable kinds surface their message; anything else is a fault and
// leaks no internal detail.
func respondError(c *fiber.Ctx, logger Logger, err error) error {
	switch {
	case IsValidationError(err):
		fields, _ := AsFieldErrors(err)
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationProblem{
			Success: false,
			Message: "Validation failed",
			Errors:  fields,
		})
	case IsNotAuthorized(err):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case IsUserNotFound(err):
		return fail(c, fiber.StatusNotFound, err.Error())
	case IsAliasExists(err):
		return fail(c, fiber.StatusConflict, err.Error())
	case IsCodeInvalid(err):
		return fail(c, fiber.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed: %v", err)
		return fail(c, fiber.StatusInternalServerError, "internal server error")
	}
}

// AuthController serves the end-user credential exchange endpoints.
type AuthController struct {
	Logger   Logger
	Auth     Authenticator
	Pipeline *Pipeline
}

// NewAuthController builds the auth controller.
func NewAuthController(auth Authenticator, pipeline *Pipeline) *AuthController {
	return &AuthController{
		Logger:   defLogger{},
		Auth:     auth,
		Pipeline: pipeline,
	}
}

// WithLogger overrides the default logger.
func (a *AuthController) WithLogger(logger Logger) *AuthController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// Token handles the password-grant exchange.
func (a *AuthController) Token(c *fiber.Ctx) error {
	var req TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateToken(req); err != nil {
		return respondError(c, a.Logger, err)
	}

	result, err := a.Auth.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusOK, "Tokens generated", result)
}

// RefreshToken exchanges a refresh token for a fresh token set.
func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	var req RefreshTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateRefresh(req); err != nil {
		return respondError(c, a.Logger, err)
	}

	result, err := a.Auth.RefreshToken(c.UserContext(), req.Username, req.RefreshToken)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusOK, "Tokens generated", result)
}

// NewPassword answers a forced password-rotation challenge.
func (a *AuthController) NewPassword(c *fiber.Ctx) error {
	var req NewPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateNewPassword(c.UserContext(), req); err != nil {
		return respondError(c, a.Logger, err)
	}

	result, err := a.Auth.RespondToNewPasswordChallenge(c.UserContext(), req.Username, req.NewPassword, req.Session)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusOK, "Password set", result)
}

// Signup registers a new principal.
func (a *AuthController) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateSignup(c.UserContext(), req); err != nil {
		return respondError(c, a.Logger, err)
	}

	result, err := a.Auth.SignUp(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusOK, "User signed up", result)
}

// ConfirmSignup exchanges a confirmation code for activation.
func (a *AuthController) ConfirmSignup(c *fiber.Ctx) error {
	var req ConfirmSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateConfirmSignup(req); err != nil {
		return respondError(c, a.Logger, err)
	}

	if err := a.Auth.ConfirmSignUp(c.UserContext(), req.Username, req.Code); err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond[any](c, fiber.StatusOK, "User confirmed", nil)
}

// ResendConfirmation re-triggers confirmation code delivery.
func (a *AuthController) ResendConfirmation(c *fiber.Ctx) error {
	var req ResendConfirmationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateResendConfirmation(req); err != nil {
		return respondError(c, a.Logger, err)
	}

	delivery, err := a.Auth.ResendConfirmation(c.UserContext(), req.Username)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusOK, "Confirmation code resent", describeDelivery(delivery))
}

// AdminController serves the privileged user-lifecycle endpoints. Route
// protection (bearer validation, group membership) is middleware's job;
// handlers assume it already happened.
type AdminController struct {
	Logger   Logger
	Admin    AdminLifecycle
	Pipeline *Pipeline
}

// NewAdminController builds the admin controller.
func NewAdminController(admin AdminLifecycle, pipeline *Pipeline) *AdminController {
	return &AdminController{
		Logger:   defLogger{},
		Admin:    admin,
		Pipeline: pipeline,
	}
}

// WithLogger overrides the default logger.
func (a *AdminController) WithLogger(logger Logger) *AdminController {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// CreateUser provisions a principal with a temporary password.
func (a *AdminController) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := a.Pipeline.ValidateCreateUser(c.UserContext(), req); err != nil {
		return respondError(c, a.Logger, err)
	}

	created, err := a.Admin.CreateUser(c.UserContext(), req.Username, req.Email, req.TemporaryPassword)
	if err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond(c, fiber.StatusCreated, "User created", created)
}

// ResetPassword force-sets the password of the principal identified by
// the :userId route parameter.
func (a *AdminController) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.UserID = c.Params("userId")

	if err := a.Pipeline.ValidateResetPassword(c.UserContext(), req); err != nil {
		return respondError(c, a.Logger, err)
	}

	if err := a.Admin.ResetPassword(c.UserContext(), req.UserID, req.Password); err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond[any](c, fiber.StatusOK, "Password updated successfully.", nil)
}

// DisableUser disables the principal identified by the :userId route
// parameter.
func (a *AdminController) DisableUser(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := validExternalID(userID); err != nil {
		return respondError(c, a.Logger, FieldErrors{"userId": {err.Error()}})
	}
	if userID == "" {
		return respondError(c, a.Logger, FieldErrors{"userId": {"UserId is required"}})
	}

	if err := a.Admin.DisableUser(c.UserContext(), userID); err != nil {
		return respondError(c, a.Logger, err)
	}
	return respond[any](c, fiber.StatusOK, "User disabled successfully.", nil)
}

// ProfileHandler echoes the validated claims the auth middleware stored
// under contextKey. Token validation itself happens upstream.
func ProfileHandler(contextKey string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(contextKey).(map[string]any)
		if !ok {
			return fail(c, fiber.StatusUnauthorized, "no session")
		}
		return respond(c, fiber.StatusOK, "Profile retrieved", claims)
	}
}

// RouterOptions wires controllers and guards into a fiber router.
type RouterOptions struct {
	Auth      *AuthController
	Admin     *AdminController
	ClaimsKey string
	// AuthGuard protects authenticated routes; AdminGuard additionally
	// enforces the administrators group.
	AuthGuard  fiber.Handler
	AdminGuard fiber.Handler
}

// RegisterRoutes mounts the API onto app.
func RegisterRoutes(app fiber.Router, opts RouterOptions) {
	app.Post("/token", opts.Auth.Token)
	app.Post("/refresh-token", opts.Auth.RefreshToken)
	app.Post("/new-password", opts.Auth.NewPassword)

	app.Post("/signup", opts.Auth.Signup)
	app.Post("/confirm-signup", opts.Auth.ConfirmSignup)
	app.Post("/resend-confirmation", opts.Auth.ResendConfirmation)

	if opts.AuthGuard != nil {
		app.Get("/profile", opts.AuthGuard, ProfileHandler(opts.ClaimsKey))
	}

	admin := app.Group("/admin")
	if opts.AdminGuard != nil {
		admin.Use(opts.AdminGuard)
	}
	admin.Post("/create-user", opts.Admin.CreateUser)
	admin.Post("/reset-password/:userId", opts.Admin.ResetPassword)
	admin.Post("/disable-user/:userId", opts.Admin.DisableUser)
}

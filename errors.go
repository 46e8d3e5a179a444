package idp

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to classified errors so transports and callers can
// branch without string matching.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeAliasExists        = "ALIAS_EXISTS"
	TextCodeExpiredCode        = "EXPIRED_CODE"
	TextCodeCodeMismatch       = "CODE_MISMATCH"
)

// ErrNotAuthorized is returned when the backend rejects the presented
// credentials. Recoverable; never logged as a fault.
var ErrNotAuthorized = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when an admin lookup by external identifier
// finds no matching principal.
var ErrUserNotFound = goerrors.New("no user matches the given identifier", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAliasExists is returned when a signup or confirmation collides with
// an identity attribute already verified for another principal.
var ErrAliasExists = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAliasExists).
	WithCode(goerrors.CodeConflict)

// ErrCodeExpired is returned when the confirmation code window has passed.
var ErrCodeExpired = goerrors.New("confirmation code has expired", goerrors.CategoryBadInput).
	WithTextCode(TextCodeExpiredCode).
	WithCode(goerrors.CodeBadRequest)

// ErrCodeMismatch is returned when the confirmation code does not match.
var ErrCodeMismatch = goerrors.New("confirmation code is invalid", goerrors.CategoryBadInput).
	WithTextCode(TextCodeCodeMismatch).
	WithCode(goerrors.CodeBadRequest)

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

// IsNotAuthorized reports whether err is a rejected-credentials outcome.
func IsNotAuthorized(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsUserNotFound reports whether err is a failed identifier resolution.
func IsUserNotFound(err error) bool {
	return hasTextCode(err, TextCodeUserNotFound)
}

// IsAliasExists reports whether err is an identity attribute collision.
func IsAliasExists(err error) bool {
	return hasTextCode(err, TextCodeAliasExists)
}

// IsCodeInvalid reports whether err is an expired or mismatched
// confirmation code.
func IsCodeInvalid(err error) bool {
	return hasTextCode(err, TextCodeExpiredCode) || hasTextCode(err, TextCodeCodeMismatch)
}

// BackendFault wraps an unclassified backend failure. The transport maps
// these to a generic response with no internal detail.
func BackendFault(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msg)
}

// IsBackendFault reports whether err is an unclassified backend failure.
func IsBackendFault(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryInternal
}

package cognito

import (
	stderrors "errors"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/goliatone/go-idp"
)

// classify maps Cognito's typed errors onto the core taxonomy. Anything
// unrecognized wraps as a backend fault and propagates unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		notAuthorized *types.NotAuthorizedException
		userNotFound  *types.UserNotFoundException
		aliasExists   *types.AliasExistsException
		expiredCode   *types.ExpiredCodeException
		codeMismatch  *types.CodeMismatchException
	)

	switch {
	case stderrors.As(err, &notAuthorized):
		return idp.ErrNotAuthorized
	case stderrors.As(err, &userNotFound):
		return idp.ErrUserNotFound
	case stderrors.As(err, &aliasExists):
		return idp.ErrAliasExists
	case stderrors.As(err, &expiredCode):
		return idp.ErrCodeExpired
	case stderrors.As(err, &codeMismatch):
		return idp.ErrCodeMismatch
	default:
		return idp.BackendFault(err, "cognito: request failed")
	}
}

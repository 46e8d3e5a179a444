// Package cognito implements idp.CredentialBackend on top of the AWS
// Cognito user-pools API. It owns the vendor SDK surface, classifies
// Cognito's typed errors into the core taxonomy, and derives the token
// issuer and JWKS endpoints middleware needs.
package cognito

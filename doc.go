// Package idp fronts a managed identity backend (AWS Cognito) with a
// credential-exchange and user-lifecycle API: multi-step login with a
// forced password-rotation challenge, deterministic request signing,
// policy-driven password validation, and privileged admin operations
// that resolve opaque user identifiers to backend usernames.
//
// The package holds no state of its own; every principal record, session
// token and password policy is owned by the backend, reached through the
// CredentialBackend interface (see provider/cognito for the AWS
// implementation).
package idp

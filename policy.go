package idp

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// PasswordPolicy is the pool-wide password policy descriptor fetched from
// the backend. Validation is a pure predicate over a supplied policy; the
// fetch lives with the admin lifecycle and the validation pipeline.
type PasswordPolicy struct {
	MinimumLength                 int  `json:"minimum_length"`
	RequireLowercase              bool `json:"require_lowercase"`
	RequireNumbers                bool `json:"require_numbers"`
	RequireSymbols                bool `json:"require_symbols"`
	RequireUppercase              bool `json:"require_uppercase"`
	TemporaryPasswordValidityDays int  `json:"temporary_password_validity_days"`
}

// PolicyViolations lists every rule a candidate password failed. It
// implements error so it can travel through validation results intact.
type PolicyViolations []string

func (v PolicyViolations) Error() string {
	return strings.Join(v, "; ")
}

// Validate evaluates candidate against the policy and returns one message
// per violated rule. Rules run in a fixed order and are never
// short-circuited, so a caller sees every violation at once. No I/O.
func (p PasswordPolicy) Validate(candidate string) []string {
	var violations []string

	if candidate == "" {
		violations = append(violations, "Password is required.")
	}
	if len(candidate) < p.MinimumLength {
		violations = append(violations, fmt.Sprintf("Password must be at least %d characters long.", p.MinimumLength))
	}
	if p.RequireNumbers && !strings.ContainsFunc(candidate, isDigit) {
		violations = append(violations, "Password must contain at least one numeric character.")
	}
	if p.RequireLowercase && !strings.ContainsFunc(candidate, isLower) {
		violations = append(violations, "Password must contain at least one lowercase letter.")
	}
	if p.RequireUppercase && !strings.ContainsFunc(candidate, isUpper) {
		violations = append(violations, "Password must contain at least one uppercase letter.")
	}
	if p.RequireSymbols && !strings.ContainsFunc(candidate, isSymbol) {
		violations = append(violations, "Password must contain at least one special character.")
	}

	return violations
}

// PolicyRule bridges the policy engine into ozzo rule chains. Unlike a
// chain of individual rules it reports every violation in one error.
func PolicyRule(policy *PasswordPolicy) validation.Rule {
	return validation.By(func(value any) error {
		candidate, _ := value.(string)
		if violations := policy.Validate(candidate); len(violations) > 0 {
			return PolicyViolations(violations)
		}
		return nil
	})
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

// The backend treats anything outside the ASCII alphanumeric set as a
// symbol, including spaces and non-ASCII letters.
func isSymbol(r rune) bool {
	return !isDigit(r) && !isLower(r) && !isUpper(r)
}

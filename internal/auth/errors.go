// Package auth provides authentication and authorization for certvault.
package auth

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password and disabled accounts alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for expired, malformed, forged or mistyped tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrDuplicateEmail is returned when registering an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInstitutionNotFound is returned when registration names an unknown institution.
	ErrInstitutionNotFound = errors.New("institution not found")
	// ErrInvalidRole is returned for a role outside the known set.
	ErrInvalidRole = errors.New("invalid role")
	// ErrForbidden is returned when a role may not perform an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrLoginRateLimited is returned when too many failed logins were recorded.
	ErrLoginRateLimited = errors.New("too many login attempts")
	// ErrThrottleUnavailable is returned when the throttle backend cannot be reached.
	ErrThrottleUnavailable = errors.New("login throttle unavailable")
)

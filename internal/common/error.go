// Package common defines shared constants and sentinel errors used across
// client and server layers of cashcare. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrStorageConflict = errors.New("storage conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal    = errors.New("internal error")
	ErrorValidation  = errors.New("validation error")
	ErrorRateLimited = errors.New("too many attempts")

	// Login errors. Unknown principal and wrong password are not told apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access token errors.
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")

	// Refresh token lifecycle errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrTokenReuseDetected  = errors.New("refresh token reuse detected")
)

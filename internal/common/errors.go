// Package common defines shared constants and sentinel errors used across
// client and server layers of PasteKeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrAccessDenied is returned by the paste store when an unlock attempt
	// carries a wrong passphrase or the caller has no access to a protected
	// paste. It deliberately carries no detail beyond the denial itself.
	ErrAccessDenied = errors.New("access denied")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

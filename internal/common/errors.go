// Package common defines shared constants and sentinel errors used across
// client and server layers of VeriStamp. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation / creation-specific errors.
	ErrorIncorrectInput   = errors.New("incorrect input")
	ErrNoContent          = errors.New("no content supplied")
	ErrContentTooLarge    = errors.New("content exceeds size limit")
	ErrInvalidDigest      = errors.New("invalid digest")
	ErrAlreadyAttested    = errors.New("content already attested")
	ErrEmailTaken         = errors.New("email already registered")
	ErrIntegrityViolation = errors.New("data integrity violation")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

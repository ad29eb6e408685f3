// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Uniqueness conflicts reported by the credential store.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")

	// Registration flow errors.
	ErrDeliveryFailed = errors.New("verification email delivery failed")

	// Email verification errors.
	ErrOtpMismatch = errors.New("otp mismatch")

	// Authentication errors.
	ErrNotVerified = errors.New("email not verified")
	ErrBadPassword = errors.New("incorrect password")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

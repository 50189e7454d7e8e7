// Package common defines shared sentinel errors used across the minipost
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Credential errors. A failed password check and an unknown email
	// both map here so the two cases stay indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authorization errors.
	ErrForbidden = errors.New("forbidden")

	// Token lifecycle errors. ErrSubjectGone covers tokens whose subject
	// account no longer exists; the auth gate logs it but reports the same
	// uniform rejection as the others.
	ErrMissingToken = errors.New("missing token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
	ErrSubjectGone  = errors.New("token subject no longer exists")
)

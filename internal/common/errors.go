// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal      = errors.New("internal error")
	ErrorUnauthorized  = errors.New("invalid credentials")
	ErrorForbidden     = errors.New("forbidden")
	ErrorMissingParams = errors.New("missing parameters")
	ErrorValidation    = errors.New("validation error")

	// Session errors.
	ErrInvalidToken   = errors.New("invalid token")
	ErrSessionExpired = errors.New("session expired")

	// Remote directory errors. The wrapped message carries the underlying cause.
	ErrRemoteUnavailable  = errors.New("remote unavailable")
	ErrRemoteUserCreation = errors.New("error creating user")
)

package domain

import "errors"

var (
	ErrSecretNotFound = errors.New("secret not found")

	// ErrUnauthorized matches any 401 returned by a remote endpoint.
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrNoRefreshToken    = errors.New("no refresh token stored")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionSuperseded = errors.New("session changed while the request was in flight")

	ErrEnvironmentNotFound = errors.New("environment not found")
	ErrInvalidInput        = errors.New("invalid input")
)

package auth

import "errors"

var (
	// ErrAuthentication covers rejected credentials and invalid or missing
	// refresh tokens. Recoverable by logging in again.
	ErrAuthentication = errors.New("authentication failed")

	// ErrConflict is returned when registering an already-taken email.
	ErrConflict = errors.New("email already registered")
)

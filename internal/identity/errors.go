package identity

import "errors"

var (
	// ErrDuplicateEmail is returned when another identity already uses the email,
	// compared case-insensitively.
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong secret.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound means the catalog has no identity with the requested id.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidProfile flags missing or malformed profile fields.
	ErrInvalidProfile = errors.New("invalid profile")
)

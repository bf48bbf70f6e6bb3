package ledger

import "errors"

var (
	// ErrUnauthenticated is returned by every mutator called without a signed-in session.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrNotFound means the record is absent from the owner's collection.
	ErrNotFound = errors.New("record not found")

	// ErrInvalid flags malformed input such as an unknown kind or a zero amount.
	ErrInvalid = errors.New("invalid input")
)

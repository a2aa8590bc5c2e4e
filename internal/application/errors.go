package application

import "errors"

var (
	// ErrBlankToken is returned by SessionStore.Save for an empty or whitespace token.
	ErrBlankToken = errors.New("session token must not be blank")

	// ErrInvalidInput wraps validation failures on user-supplied fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSessionExpired is returned when the API rejected the stored session.
	// The session has already been cleared when this is returned.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNotLoggedIn is returned by operations that need a session when none is stored.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoPendingMFA is returned by VerifyMFA when no login is waiting for a code.
	ErrNoPendingMFA = errors.New("no login is waiting for an MFA code")

	// ErrMFARejected is returned when the API did not accept the MFA code.
	ErrMFARejected = errors.New("mfa code rejected")
)

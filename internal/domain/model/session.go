package model

import "time"

// SessionState classifies what durable storage holds for the current session.
// Only SessionPresent yields a usable token; every other state reads as logged out.
type SessionState string

const (
	SessionAbsent         SessionState = "absent"
	SessionPresent        SessionState = "present"
	SessionPartial        SessionState = "partial"
	SessionMalformed      SessionState = "malformed"
	SessionTampered       SessionState = "tampered"
	SessionKeyUnavailable SessionState = "key_unavailable"
	SessionStorageError   SessionState = "storage_error"
)

// LoggedIn reports whether the state carries a usable token.
func (s SessionState) LoggedIn() bool {
	return s == SessionPresent
}

// EncryptedRecord is the persisted form of a session token. Both fields are
// base64 text and are always written and removed together.
type EncryptedRecord struct {
	Ciphertext string
	Nonce      string
}

// Complete returns true when both halves of the record are present.
func (r EncryptedRecord) Complete() bool {
	return r.Ciphertext != "" && r.Nonce != ""
}

// SessionInfo describes the current session for display. Subject and ExpiresAt
// are read from the token without verification and are zero when the token is
// not a JWT.
type SessionInfo struct {
	State     SessionState
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has already passed.
func (i SessionInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

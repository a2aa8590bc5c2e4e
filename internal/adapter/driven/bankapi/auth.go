package bankapi

import "net/http"

// TokenSource supplies the current session token. Current must not block on
// storage; it is called for every outgoing request.
type TokenSource interface {
	Current() (token string, ok bool)
}

// BearerTransport attaches "Authorization: Bearer <token>" to outgoing
// requests when a session token is available. Requests without a token, and
// requests that already set Authorization, pass through unchanged.
type BearerTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
}

// RoundTrip implements http.RoundTripper. It never fails on its own account.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Authorization") == "" && t.Tokens != nil {
		if token, ok := t.Tokens.Current(); ok {
			// RoundTrippers must not modify the caller's request.
			req = req.Clone(req.Context())
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return t.base().RoundTrip(req)
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

package bankapi

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// throttleTransport spaces out requests so a burst of commands cannot trip the
// server's login lockout or rate limits.
type throttleTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttleTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for request slot: %w", err)
	}
	return t.base.RoundTrip(req)
}

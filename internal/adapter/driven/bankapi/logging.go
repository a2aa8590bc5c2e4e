package bankapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader correlates a request with server-side logs.
const RequestIDHeader = "X-Request-ID"

// loggingTransport tags each request with a request ID and logs its outcome
// at debug level. Headers are never logged.
type loggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	if err != nil {
		t.logger.Debug("api request failed",
			"request_id", id,
			"method", req.Method,
			"path", req.URL.Path,
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	t.logger.Debug("api request",
		"request_id", id,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"cached", resp.Header.Get("X-From-Cache") == "1",
		"duration", elapsed,
	)
	return resp, nil
}

package bankapi

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"
)

// TransportOptions tunes the HTTP stack built by NewHTTPClient. Zero values
// disable the corresponding limit.
type TransportOptions struct {
	ConnectTimeout time.Duration // dial and TLS handshake
	ReadTimeout    time.Duration // waiting for response headers
	RequestTimeout time.Duration // whole request, including body
	MaxRPS         float64       // client-side request rate
	Burst          int

	// Base replaces the network transport. Tests point it at httptest servers.
	Base http.RoundTripper
}

// NewHTTPClient builds the client used for all API traffic. Outermost first:
//  1. BearerTransport (session token from tokens)
//  2. request ID tagging and debug logging
//  3. client-side throttle (x/time/rate), when MaxRPS > 0
//  4. go-github-ratelimit (sleeps through server rate-limit responses)
//  5. httpcache (ETag-based conditional request caching)
//  6. network transport with connect and read timeouts
func NewHTTPClient(tokens TokenSource, opts TransportOptions, logger *slog.Logger) *http.Client {
	base := opts.Base
	if base == nil {
		base = newNetworkTransport(opts)
	}

	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = base
	cache.MarkCachedResponses = true

	var rt http.RoundTripper = github_ratelimit.NewClient(cache).Transport

	if opts.MaxRPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		rt = &throttleTransport{base: rt, limiter: rate.NewLimiter(rate.Limit(opts.MaxRPS), burst)}
	}

	rt = &loggingTransport{base: rt, logger: logger}
	rt = &BearerTransport{Base: rt, Tokens: tokens}

	return &http.Client{Transport: rt, Timeout: opts.RequestTimeout}
}

func newNetworkTransport(opts TransportOptions) *http.Transport {
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
	}
}

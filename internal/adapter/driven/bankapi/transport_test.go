package bankapi_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/vaultpay/internal/adapter/driven/bankapi"
)

type staticTokens struct {
	mu    sync.Mutex
	token string
}

func (s *staticTokens) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *staticTokens) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// recordingTransport captures the request handed to it.
type recordingTransport struct {
	got *http.Request
}

func (r *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r.got = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBearerTransport_AttachesToken(t *testing.T) {
	rec := &recordingTransport{}
	rt := &bankapi.BearerTransport{Base: rec, Tokens: &staticTokens{token: "tok-abc123"}}

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/users/profile", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-abc123", rec.got.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("Authorization"), "caller's request must not be modified")
}

func TestBearerTransport_NoTokenPassesThrough(t *testing.T) {
	rec := &recordingTransport{}
	rt := &bankapi.BearerTransport{Base: rec, Tokens: &staticTokens{}}

	req := httptest.NewRequest(http.MethodGet, "https://api.example.com/auth/login", nil)
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Same(t, req, rec.got)
	assert.Empty(t, rec.got.Header.Get("Authorization"))
}

func TestBearerTransport_NilTokenSource(t *testing.T) {
	rec := &recordingTransport{}
	rt := &bankapi.BearerTransport{Base: rec}

	_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://api.example.com/", nil))
	require.NoError(t, err)
	assert.Empty(t, rec.got.Header.Get("Authorization"))
}

func TestBearerTransport_KeepsExplicitAuthorization(t *testing.T) {
	rec := &recordingTransport{}
	rt := &bankapi.BearerTransport{Base: rec, Tokens: &staticTokens{token: "tok-stored"}}

	req := httptest.NewRequest(http.MethodPost, "https://api.example.com/auth/mfa/verify", nil)
	req.Header.Set("Authorization", "Bearer tok-pending")
	_, err := rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-pending", rec.got.Header.Get("Authorization"))
}

func TestBearerTransport_FollowsTokenChanges(t *testing.T) {
	rec := &recordingTransport{}
	tokens := &staticTokens{token: "tok-A"}
	rt := &bankapi.BearerTransport{Base: rec, Tokens: tokens}

	send := func() string {
		_, err := rt.RoundTrip(httptest.NewRequest(http.MethodGet, "https://api.example.com/", nil))
		require.NoError(t, err)
		return rec.got.Header.Get("Authorization")
	}

	assert.Equal(t, "Bearer tok-A", send())
	tokens.set("tok-B")
	assert.Equal(t, "Bearer tok-B", send())
	tokens.set("")
	assert.Empty(t, send())
}

func TestNewHTTPClient_Stack(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(bankapi.RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":7,"email":"ana@example.com"}`)
	}))
	defer srv.Close()

	httpClient := bankapi.NewHTTPClient(&staticTokens{token: "tok-abc123"}, bankapi.TransportOptions{
		RequestTimeout: 5 * time.Second,
		Base:           srv.Client().Transport,
	}, discardLogger())
	client, err := bankapi.NewClient(httpClient, srv.URL)
	require.NoError(t, err)

	user, err := client.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, user.ID)
	assert.Equal(t, "Bearer tok-abc123", gotAuth)
	assert.Len(t, gotRequestID, 36, "request id is a uuid")
}

func TestNewHTTPClient_RevalidatesWithETag(t *testing.T) {
	var hits, notModified int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("ETag", `"v1"`)
		if r.Header.Get("If-None-Match") == `"v1"` {
			notModified++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":7,"email":"ana@example.com"}`)
	}))
	defer srv.Close()

	httpClient := bankapi.NewHTTPClient(&staticTokens{token: "tok-abc123"}, bankapi.TransportOptions{
		Base: srv.Client().Transport,
	}, discardLogger())
	client, err := bankapi.NewClient(httpClient, srv.URL)
	require.NoError(t, err)

	for range 2 {
		user, err := client.Profile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", user.Email)
	}

	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, notModified, "second read is served from cache after revalidation")
}

func TestNewHTTPClient_ThrottleHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	httpClient := bankapi.NewHTTPClient(nil, bankapi.TransportOptions{
		MaxRPS: 0.001,
		Burst:  1,
		Base:   srv.Client().Transport,
	}, discardLogger())
	client, err := bankapi.NewClient(httpClient, srv.URL)
	require.NoError(t, err)

	_, err = client.Logout(context.Background())
	require.NoError(t, err, "first request uses the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Logout(ctx)
	assert.ErrorContains(t, err, "waiting for request slot")
}

func TestNewHTTPClient_HoldsBackAfterServerRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(3*time.Second).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"message":"Too many requests"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	httpClient := bankapi.NewHTTPClient(nil, bankapi.TransportOptions{
		Base: srv.Client().Transport,
	}, discardLogger())
	client, err := bankapi.NewClient(httpClient, srv.URL)
	require.NoError(t, err)

	for range 2 {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		_, err := client.Logout(ctx)
		cancel()
		assert.Error(t, err)
	}

	assert.Equal(t, int32(1), hits.Load(), "no request reaches the server before the reset time")
}

// Package bankapi implements the BankAPI port over the VaultPay JSON API and
// builds the HTTP transport stack that carries the session token.
package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// maxResponseBytes caps how much of a response body is decoded.
const maxResponseBytes = 1 << 20

// Compile-time interface satisfaction check.
var _ driven.BankAPI = (*Client)(nil)

// Client implements the driven.BankAPI port. Authentication is the transport's
// job: build the http.Client with NewHTTPClient so requests carry the token.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parsing base URL: unsupported scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, baseURL: u}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type mfaVerifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type mfaEnableResponse struct {
	Message     string   `json:"message"`
	BackupCodes []string `json:"backupCodes"`
}

type updateProfileResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) (model.Registration, error) {
	var out model.Registration
	err := c.do(ctx, http.MethodPost, "auth/register", nil, nil, credentialsRequest{Email: email, Password: password}, &out)
	return out, err
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (driven.LoginResponse, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", nil, nil, credentialsRequest{Email: email, Password: password}, &out); err != nil {
		return driven.LoginResponse{}, err
	}
	return driven.LoginResponse{AccessToken: out.AccessToken, User: out.User}, nil
}

// VerifyEmail confirms an address with the token from the verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodGet, "auth/verify-email", url.Values{"token": {token}}, nil, nil, &out)
	return out.Message, err
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "auth/forgot-password", nil, nil, emailRequest{Email: email}, &out)
	return out.Message, err
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "auth/reset-password", nil, nil, resetPasswordRequest{Token: token, Password: password}, &out)
	return out.Message, err
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "auth/logout", nil, nil, nil, &out)
	return out.Message, err
}

// VerifyMFA sends the code with pendingToken as its bearer token. The
// transport leaves an explicit Authorization header untouched.
func (c *Client) VerifyMFA(ctx context.Context, pendingToken, code string) (bool, string, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+pendingToken)

	var out mfaVerifyResponse
	if err := c.do(ctx, http.MethodPost, "auth/mfa/verify", nil, header, codeRequest{Code: code}, &out); err != nil {
		return false, "", err
	}
	return out.Success, out.Message, nil
}

// SetupMFA starts MFA enrolment.
func (c *Client) SetupMFA(ctx context.Context) (model.MFASetup, error) {
	var out model.MFASetup
	err := c.do(ctx, http.MethodPost, "auth/mfa/setup", nil, nil, nil, &out)
	return out, err
}

// EnableMFA confirms enrolment and returns the backup codes.
func (c *Client) EnableMFA(ctx context.Context, code string) ([]string, error) {
	var out mfaEnableResponse
	if err := c.do(ctx, http.MethodPost, "auth/mfa/enable", nil, nil, codeRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return out.BackupCodes, nil
}

// DisableMFA turns MFA off.
func (c *Client) DisableMFA(ctx context.Context, password string) (string, error) {
	var out messageResponse
	err := c.do(ctx, http.MethodPost, "auth/mfa/disable", nil, nil, passwordRequest{Password: password}, &out)
	return out.Message, err
}

// AuthProfile returns the user as seen by the auth module.
func (c *Client) AuthProfile(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "auth/profile", nil, nil, nil, &out)
	return out, err
}

// Profile returns the user profile.
func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "users/profile", nil, nil, nil, &out)
	return out, err
}

// UpdateProfile applies a partial profile update and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	var out updateProfileResponse
	if err := c.do(ctx, http.MethodPut, "users/profile", nil, nil, update, &out); err != nil {
		return model.User{}, err
	}
	return out.User, nil
}

// do sends one JSON request and decodes the response into out. Non-2xx
// responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, in, out any) error {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// APIError is a non-2xx answer from the API. A 401 unwraps to
// driven.ErrUnauthorized.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap exposes the port-level sentinel for status codes that have one.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return driven.ErrUnauthorized
	}
	return nil
}

// errorBody covers the error shapes the API produces: message may be a
// string or a list of validation messages.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func newAPIError(method, path string, resp *http.Response) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}

	var body errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err == nil {
		apiErr.Message = decodeMessage(body.Message)
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

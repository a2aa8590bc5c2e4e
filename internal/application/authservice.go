package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// AuthService runs the login, MFA, logout and account recovery flows and keeps
// the session store in step with them.
type AuthService struct {
	api      driven.BankAPI
	sessions driven.SessionStore
	logger   *slog.Logger

	mu      sync.Mutex
	pending string // token from a password login still waiting for its MFA code
}

// NewAuthService creates a new AuthService.
func NewAuthService(api driven.BankAPI, sessions driven.SessionStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
}

// Login authenticates with email and password. Accounts without MFA have the
// returned token persisted immediately. For MFA accounts the token is held in
// memory until VerifyMFA succeeds.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	in := credentialsInput{Email: normalizeEmail(email), Password: password}
	if err := validateInput(in); err != nil {
		return model.LoginResult{}, err
	}

	resp, err := s.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(resp.AccessToken) == "" {
		return model.LoginResult{}, errors.New("login: response carried no access token")
	}

	if resp.User.IsMFAEnabled {
		s.setPending(resp.AccessToken)
		s.logger.Info("login needs mfa", "user_id", resp.User.ID)
		return model.LoginResult{User: resp.User, MFARequired: true}, nil
	}

	s.setPending("")
	if err := s.sessions.Save(ctx, resp.AccessToken); err != nil {
		return model.LoginResult{}, fmt.Errorf("login: %w", err)
	}
	s.logger.Info("logged in", "user_id", resp.User.ID)
	return model.LoginResult{User: resp.User}, nil
}

// HasPendingMFA returns true while a password login waits for its MFA code.
func (s *AuthService) HasPendingMFA() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != ""
}

// VerifyMFA completes a pending login with a 6-digit code and persists the
// pending token once the API accepts it.
func (s *AuthService) VerifyMFA(ctx context.Context, code string) error {
	in := mfaCodeInput{Code: strings.TrimSpace(code)}
	if err := validateInput(in); err != nil {
		return err
	}

	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	if pending == "" {
		return ErrNoPendingMFA
	}

	ok, message, err := s.api.VerifyMFA(ctx, pending, in.Code)
	if errors.Is(err, driven.ErrUnauthorized) {
		s.setPending("")
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	if err != nil {
		return fmt.Errorf("verify mfa: %w", err)
	}
	if !ok {
		if message == "" {
			message = "invalid code"
		}
		return fmt.Errorf("%w: %s", ErrMFARejected, message)
	}

	if err := s.sessions.Save(ctx, pending); err != nil {
		return fmt.Errorf("verify mfa: %w", err)
	}
	s.setPending("")
	s.logger.Info("mfa verified, logged in")
	return nil
}

// Logout tells the API the session is over and always clears it locally,
// even when the remote call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	s.setPending("")

	if _, ok := s.sessions.Current(); ok {
		if _, err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("remote logout failed, clearing local session anyway", "error", err)
		}
	}

	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// Register creates an account. The API emails a verification link.
func (s *AuthService) Register(ctx context.Context, email, password string) (model.Registration, error) {
	in := newAccountInput{Email: normalizeEmail(email), Password: password}
	if err := validateInput(in); err != nil {
		return model.Registration{}, err
	}

	reg, err := s.api.Register(ctx, in.Email, in.Password)
	if err != nil {
		return model.Registration{}, fmt.Errorf("register: %w", err)
	}
	return reg, nil
}

// VerifyEmail confirms an address with the token from the verification email.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: token is required", ErrInvalidInput)
	}

	msg, err := s.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}
	return msg, nil
}

// ForgotPassword asks the API to send a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	in := emailInput{Email: normalizeEmail(email)}
	if err := validateInput(in); err != nil {
		return "", err
	}

	msg, err := s.api.ForgotPassword(ctx, in.Email)
	if err != nil {
		return "", fmt.Errorf("forgot password: %w", err)
	}
	return msg, nil
}

// ResetPassword sets a new password using the token from the reset email.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	in := resetPasswordInput{Token: strings.TrimSpace(token), Password: password}
	if err := validateInput(in); err != nil {
		return "", err
	}

	msg, err := s.api.ResetPassword(ctx, in.Token, in.Password)
	if err != nil {
		return "", fmt.Errorf("reset password: %w", err)
	}
	return msg, nil
}

// SetupMFA starts MFA enrolment for the logged-in account.
func (s *AuthService) SetupMFA(ctx context.Context) (model.MFASetup, error) {
	if err := requireSession(s.sessions); err != nil {
		return model.MFASetup{}, err
	}

	setup, err := s.api.SetupMFA(ctx)
	if err != nil {
		return model.MFASetup{}, expireOnUnauthorized(ctx, s.sessions, s.logger, fmt.Errorf("setup mfa: %w", err))
	}
	return setup, nil
}

// EnableMFA confirms enrolment with a code from the authenticator app and
// returns the backup codes.
func (s *AuthService) EnableMFA(ctx context.Context, code string) ([]string, error) {
	in := mfaCodeInput{Code: strings.TrimSpace(code)}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := requireSession(s.sessions); err != nil {
		return nil, err
	}

	codes, err := s.api.EnableMFA(ctx, in.Code)
	if err != nil {
		return nil, expireOnUnauthorized(ctx, s.sessions, s.logger, fmt.Errorf("enable mfa: %w", err))
	}
	return codes, nil
}

// DisableMFA turns MFA off after re-checking the account password.
func (s *AuthService) DisableMFA(ctx context.Context, password string) (string, error) {
	if err := validateInput(passwordInput{Password: password}); err != nil {
		return "", err
	}
	if err := requireSession(s.sessions); err != nil {
		return "", err
	}

	msg, err := s.api.DisableMFA(ctx, password)
	if err != nil {
		return "", expireOnUnauthorized(ctx, s.sessions, s.logger, fmt.Errorf("disable mfa: %w", err))
	}
	return msg, nil
}

// Status describes the stored session. Token claims are filled in only when
// a usable token is present and is a JWT.
func (s *AuthService) Status(ctx context.Context) model.SessionInfo {
	token, state := s.sessions.Load(ctx)
	info := model.SessionInfo{State: state}
	if state.LoggedIn() {
		info.Subject, info.ExpiresAt = DescribeToken(token)
	}
	return info
}

func (s *AuthService) setPending(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = token
}

func requireSession(sessions driven.SessionStore) error {
	if _, ok := sessions.Current(); !ok {
		return ErrNotLoggedIn
	}
	return nil
}

// expireOnUnauthorized clears the session when err is a 401 from the API, so
// the next command starts logged out.
func expireOnUnauthorized(ctx context.Context, sessions driven.SessionStore, logger *slog.Logger, err error) error {
	if !errors.Is(err, driven.ErrUnauthorized) {
		return err
	}

	if clearErr := sessions.Clear(ctx); clearErr != nil {
		logger.Error("clear rejected session", "error", clearErr)
	}
	logger.Info("session rejected by api, cleared")
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ericfisherdev/vaultpay/internal/application"
	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Durable state and key store fakes ---

type memPrefs struct {
	mu     sync.Mutex
	data   map[string]map[string]string
	gets   int
	sets   int
	getErr error
}

func newMemPrefs() *memPrefs {
	return &memPrefs{data: make(map[string]map[string]string)}
}

func (m *memPrefs) GetValues(_ context.Context, namespace string, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.data[namespace][k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memPrefs) SetValues(_ context.Context, namespace string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.data[namespace] == nil {
		m.data[namespace] = make(map[string]string)
	}
	for k, v := range values {
		m.data[namespace][k] = v
	}
	return nil
}

func (m *memPrefs) DeleteValues(_ context.Context, namespace string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data[namespace], k)
	}
	return nil
}

func (m *memPrefs) field(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[application.SessionNamespace][key]
}

func (m *memPrefs) setField(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[application.SessionNamespace] == nil {
		m.data[application.SessionNamespace] = make(map[string]string)
	}
	m.data[application.SessionNamespace][key] = value
}

func (m *memPrefs) getCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

type memKeyStore struct {
	mu      sync.Mutex
	keys    map[string][]byte
	loadErr error
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: make(map[string][]byte)}
}

func (s *memKeyStore) LoadKey(alias string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	key, ok := s.keys[alias]
	if !ok {
		return nil, driven.ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

func (s *memKeyStore) StoreKey(alias string, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[alias] = append([]byte(nil), key...)
	return nil
}

// --- Session store fake for service tests ---

type fakeSessionStore struct {
	mu     sync.Mutex
	token  string
	saves  []string
	clears int
}

func (f *fakeSessionStore) Save(_ context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return application.ErrBlankToken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.saves = append(f.saves, token)
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context) (string, bool) {
	return f.Current()
}

func (f *fakeSessionStore) Load(_ context.Context) (string, model.SessionState) {
	if token, ok := f.Current(); ok {
		return token, model.SessionPresent
	}
	return "", model.SessionAbsent
}

func (f *fakeSessionStore) Current() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.token != ""
}

func (f *fakeSessionStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.clears++
	return nil
}

func (f *fakeSessionStore) Inspect(_ context.Context) model.SessionState {
	if _, ok := f.Current(); ok {
		return model.SessionPresent
	}
	return model.SessionAbsent
}

// --- BankAPI mock ---

// mockBankAPI returns zero values for every call without a configured func.
type mockBankAPI struct {
	login         func(ctx context.Context, email, password string) (driven.LoginResponse, error)
	verifyMFA     func(ctx context.Context, pendingToken, code string) (bool, string, error)
	logout        func(ctx context.Context) (string, error)
	register      func(ctx context.Context, email, password string) (model.Registration, error)
	setupMFA      func(ctx context.Context) (model.MFASetup, error)
	profile       func(ctx context.Context) (model.User, error)
	updateProfile func(ctx context.Context, update model.ProfileUpdate) (model.User, error)

	calls []string
}

func (m *mockBankAPI) Register(ctx context.Context, email, password string) (model.Registration, error) {
	m.calls = append(m.calls, "register")
	if m.register != nil {
		return m.register(ctx, email, password)
	}
	return model.Registration{}, nil
}

func (m *mockBankAPI) Login(ctx context.Context, email, password string) (driven.LoginResponse, error) {
	m.calls = append(m.calls, "login")
	if m.login != nil {
		return m.login(ctx, email, password)
	}
	return driven.LoginResponse{}, nil
}

func (m *mockBankAPI) VerifyEmail(_ context.Context, _ string) (string, error) {
	m.calls = append(m.calls, "verify-email")
	return "verified", nil
}

func (m *mockBankAPI) ForgotPassword(_ context.Context, _ string) (string, error) {
	m.calls = append(m.calls, "forgot-password")
	return "sent", nil
}

func (m *mockBankAPI) ResetPassword(_ context.Context, _, _ string) (string, error) {
	m.calls = append(m.calls, "reset-password")
	return "reset", nil
}

func (m *mockBankAPI) Logout(ctx context.Context) (string, error) {
	m.calls = append(m.calls, "logout")
	if m.logout != nil {
		return m.logout(ctx)
	}
	return "bye", nil
}

func (m *mockBankAPI) VerifyMFA(ctx context.Context, pendingToken, code string) (bool, string, error) {
	m.calls = append(m.calls, "verify-mfa")
	if m.verifyMFA != nil {
		return m.verifyMFA(ctx, pendingToken, code)
	}
	return true, "", nil
}

func (m *mockBankAPI) SetupMFA(ctx context.Context) (model.MFASetup, error) {
	m.calls = append(m.calls, "setup-mfa")
	if m.setupMFA != nil {
		return m.setupMFA(ctx)
	}
	return model.MFASetup{}, nil
}

func (m *mockBankAPI) EnableMFA(_ context.Context, _ string) ([]string, error) {
	m.calls = append(m.calls, "enable-mfa")
	return []string{"backup-1"}, nil
}

func (m *mockBankAPI) DisableMFA(_ context.Context, _ string) (string, error) {
	m.calls = append(m.calls, "disable-mfa")
	return "disabled", nil
}

func (m *mockBankAPI) AuthProfile(ctx context.Context) (model.User, error) {
	m.calls = append(m.calls, "auth-profile")
	return m.Profile(ctx)
}

func (m *mockBankAPI) Profile(ctx context.Context) (model.User, error) {
	m.calls = append(m.calls, "profile")
	if m.profile != nil {
		return m.profile(ctx)
	}
	return model.User{}, nil
}

func (m *mockBankAPI) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	m.calls = append(m.calls, "update-profile")
	if m.updateProfile != nil {
		return m.updateProfile(ctx, update)
	}
	return model.User{}, nil
}

// unauthorizedErr mimics the adapter's 401 error.
var unauthorizedErr = errors.Join(errors.New("api: 401 token expired"), driven.ErrUnauthorized)

package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
)

// ErrUnauthorized is wrapped by BankAPI errors for 401 responses: the session
// token was missing, invalid or expired.
var ErrUnauthorized = errors.New("unauthorized")

// LoginResponse is the API's answer to a password login.
type LoginResponse struct {
	AccessToken string
	User        model.User
}

// BankAPI defines the driven port for the remote VaultPay API. Calls that need
// authentication rely on the HTTP client attaching the session token.
type BankAPI interface {
	Register(ctx context.Context, email, password string) (model.Registration, error)
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) (string, error)
	Logout(ctx context.Context) (string, error)

	// VerifyMFA sends code authenticated with pendingToken rather than the
	// stored session, which does not exist yet during an MFA login.
	// Returns the API's success flag and message.
	VerifyMFA(ctx context.Context, pendingToken, code string) (bool, string, error)
	SetupMFA(ctx context.Context) (model.MFASetup, error)
	EnableMFA(ctx context.Context, code string) ([]string, error)
	DisableMFA(ctx context.Context, password string) (string, error)

	AuthProfile(ctx context.Context) (model.User, error)
	Profile(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error)
}

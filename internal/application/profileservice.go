package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/vaultpay/internal/domain/model"
	"github.com/ericfisherdev/vaultpay/internal/domain/port/driven"
)

// ProfileService reads and edits the logged-in user's profile.
type ProfileService struct {
	api      driven.BankAPI
	sessions driven.SessionStore
	logger   *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(api driven.BankAPI, sessions driven.SessionStore, logger *slog.Logger) *ProfileService {
	return &ProfileService{api: api, sessions: sessions, logger: logger}
}

// Profile returns the current user's profile.
func (s *ProfileService) Profile(ctx context.Context) (model.User, error) {
	if err := requireSession(s.sessions); err != nil {
		return model.User{}, err
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		return model.User{}, expireOnUnauthorized(ctx, s.sessions, s.logger, fmt.Errorf("get profile: %w", err))
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of update.
func (s *ProfileService) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (model.User, error) {
	if update.Empty() {
		return model.User{}, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if err := validateInput(update); err != nil {
		return model.User{}, err
	}
	if err := requireSession(s.sessions); err != nil {
		return model.User{}, err
	}

	user, err := s.api.UpdateProfile(ctx, update)
	if err != nil {
		return model.User{}, expireOnUnauthorized(ctx, s.sessions, s.logger, fmt.Errorf("update profile: %w", err))
	}
	s.logger.Info("profile updated", "user_id", user.ID)
	return user, nil
}

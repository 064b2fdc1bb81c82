package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/validation"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService exposes the profile fields the backend owns: language, push
// registration and notification preference.
type UserService interface {
	GetUserProfile(ctx context.Context, userID string) (*types.UserProfileResponse, error)
	UpdateDevice(ctx context.Context, userID, email string, params types.UpdateDeviceRequest) (*types.UserProfileResponse, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   Repository
}

func NewUserService(repo Repository, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func profileOf(u *types.User) *types.UserProfileResponse {
	return &types.UserProfileResponse{User: *u, HasPushToken: u.PushToken != nil && *u.PushToken != ""}
}

// GetUserProfile retrieves a user's profile by ID.
func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID string) (*types.UserProfileResponse, error) {
	l := s.logger.With(slog.String("method", "GetUserProfile"), slog.String("userID", userID))
	l.DebugContext(ctx, "Fetching user profile")

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, &api.NotFoundError{Message: "User not found"}
		}
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		return nil, &api.InternalError{Message: "Failed to retrieve user profile", Err: err}
	}
	return profileOf(u), nil
}

// UpdateDevice stores the device settings, creating the profile if needed.
func (s *UserServiceImpl) UpdateDevice(ctx context.Context, userID, email string, params types.UpdateDeviceRequest) (*types.UserProfileResponse, error) {
	l := s.logger.With(slog.String("method", "UpdateDevice"), slog.String("userID", userID))

	if err := validation.Struct(params); err != nil {
		return nil, err
	}
	u, err := s.repo.UpdateDevice(ctx, userID, email, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update device settings", slog.Any("error", err))
		return nil, &api.InternalError{Message: "Failed to update user profile", Err: err}
	}
	l.InfoContext(ctx, "Device settings updated",
		slog.Bool("notifications_enabled", u.NotificationsEnabled),
		slog.Bool("push_token_set", u.PushToken != nil))
	return profileOf(u), nil
}

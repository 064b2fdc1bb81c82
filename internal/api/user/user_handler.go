package user

import (
	"log/slog"
	"net/http"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	if logger == nil {
		panic("PANIC: Attempting to create HandlerImpl with nil logger!")
	}
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// GetUserProfile godoc
// @Summary      Get User Profile
// @Description  Retrieves the authenticated user's profile information.
// @Tags         User
// @Accept       json
// @Produce      json
// @Success      200 {object} types.UserProfileResponse "User Profile"
// @Failure      401 {object} api.PlatformErrorResponse "Unauthorized"
// @Failure      404 {object} api.PlatformErrorResponse "User Not Found"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/users/me [get]
func (h *HandlerImpl) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		api.WritePlatformError(w, r, &api.AuthenticationError{Message: "Authentication required"})
		return
	}

	profile, err := h.userService.GetUserProfile(ctx, userID)
	if err != nil {
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// UpdateDevice godoc
// @Summary      Update Device
// @Description  Registers the push token and notification settings of the caller's device.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        device body types.UpdateDeviceRequest true "Device Settings"
// @Success      200 {object} types.UserProfileResponse "Updated Profile"
// @Failure      400 {object} api.PlatformErrorResponse "Invalid Input"
// @Failure      401 {object} api.PlatformErrorResponse "Unauthorized"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/users/me/device [put]
func (h *HandlerImpl) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateDevice"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		api.WritePlatformError(w, r, &api.AuthenticationError{Message: "Authentication required"})
		return
	}
	email, _ := auth.GetUserEmailFromContext(ctx)

	var params types.UpdateDeviceRequest
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
		return
	}

	profile, err := h.userService.UpdateDevice(ctx, userID, email, params)
	if err != nil {
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

package user

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

var (
	userColumnNames = []string{"id", "email", "display_name", "language_selected", "notifications_enabled", "push_token", "created_at"}
	createdAt       = time.Date(2025, 5, 30, 8, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func setupUserTest(t *testing.T) (pgxmock.PgxPoolIface, *HandlerImpl) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	svc := NewUserService(NewPostgresUserRepo(mockPool, logger), logger)
	return mockPool, NewHandlerImpl(svc, logger)
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &types.Claims{UserID: "user-1", Email: "sara@example.com"}))
}

func TestPostgresUserRepo_GetUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		repo := h.userService.(*UserServiceImpl).repo
		mockPool.ExpectQuery("SELECT id, email, display_name").WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows(userColumnNames).AddRow(
				"user-1", ptr("sara@example.com"), (*string)(nil), ptr("ja"), true, ptr("device-token"), createdAt))

		u, err := repo.GetUser(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "ja", *u.LanguageSelected)
		assert.True(t, u.NotificationsEnabled)
		assert.Equal(t, "device-token", *u.PushToken)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		repo := h.userService.(*UserServiceImpl).repo
		mockPool.ExpectQuery("FROM users").WithArgs("ghost").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUser(context.Background(), "ghost")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestHandlerImpl_GetUserProfile(t *testing.T) {
	t.Run("hides the push token", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		mockPool.ExpectQuery("FROM users").WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows(userColumnNames).AddRow(
				"user-1", ptr("sara@example.com"), ptr("Sara"), (*string)(nil), false, ptr("device-token"), createdAt))

		rr := httptest.NewRecorder()
		h.GetUserProfile(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "device-token")
		var out map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.Equal(t, true, out["has_push_token"])
		assert.Equal(t, false, out["notifications_enabled"])
	})

	t.Run("not found", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		mockPool.ExpectQuery("FROM users").WithArgs(pgxmock.AnyArg()).WillReturnError(pgx.ErrNoRows)

		rr := httptest.NewRecorder()
		h.GetUserProfile(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "User not found")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, h := setupUserTest(t)
		rr := httptest.NewRecorder()
		h.GetUserProfile(rr, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandlerImpl_UpdateDevice(t *testing.T) {
	t.Run("registers the token", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs("user-1", "sara@example.com", (*string)(nil), ptr("ko"), ptr(true), ptr("device-token")).
			WillReturnRows(pgxmock.NewRows(userColumnNames).AddRow(
				"user-1", ptr("sara@example.com"), (*string)(nil), ptr("ko"), true, ptr("device-token"), createdAt))

		body := `{"language":"ko","notificationsEnabled":true,"pushToken":"device-token"}`
		rr := httptest.NewRecorder()
		h.UpdateDevice(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/device", strings.NewReader(body))))

		require.Equal(t, http.StatusOK, rr.Code)
		var out types.UserProfileResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
		assert.True(t, out.HasPushToken)
		assert.Equal(t, "ko", *out.LanguageSelected)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, h := setupUserTest(t)
		rr := httptest.NewRecorder()
		h.UpdateDevice(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/device",
			strings.NewReader(`{"language":"fr"}`))))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp api.PlatformErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid request: Language must be one of: ar, en, ja, ko", resp.Error.Message)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, h := setupUserTest(t)
		rr := httptest.NewRecorder()
		h.UpdateDevice(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/device",
			strings.NewReader(`{"fcmToken":"x"}`))))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("db failure", func(t *testing.T) {
		mockPool, h := setupUserTest(t)
		mockPool.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection refused"))

		rr := httptest.NewRecorder()
		h.UpdateDevice(rr, withUser(httptest.NewRequest(http.MethodPut, "/api/v1/users/me/device",
			strings.NewReader(`{"notificationsEnabled":false}`))))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Contains(t, rr.Body.String(), "Failed to update user profile")
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}

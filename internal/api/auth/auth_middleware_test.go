package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
)

func setupAuthTest() (*slog.Logger, config.JWTConfig) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return logger, config.JWTConfig{SecretKey: "test-secret", Issuer: "flaia", Audience: "flaia-app"}
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := GetUserIDFromContext(r.Context())
		_, _ = w.Write([]byte(uid))
	})
}

func TestAuthenticate(t *testing.T) {
	logger, cfg := setupAuthTest()
	h := Authenticate(logger, cfg, api.WriteEnvelopeError)(echoUser())

	t.Run("valid token", func(t *testing.T) {
		token, err := SignToken(cfg, "u1", "u1@example.com", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "u1", rr.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var env api.Envelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
		assert.False(t, env.Success)
		require.NotNil(t, env.Error)
		assert.Equal(t, api.CodeUnauthenticated, env.Error.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := SignToken(cfg, "u1", "", -time.Minute)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Token has expired")
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := cfg
		other.Issuer = "someone-else"
		token, err := SignToken(other, "u1", "", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := cfg
		other.SecretKey = "another-secret"
		token, err := SignToken(other, "u1", "", time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid token signature")
	})
}

func TestOptionalAuthenticate(t *testing.T) {
	logger, cfg := setupAuthTest()
	h := OptionalAuthenticate(logger, cfg)(echoUser())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())

	token, err := SignToken(cfg, "u9", "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "u9", rr.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	logger, cfg := setupAuthTest()
	h := Authenticate(logger, cfg, api.WritePlatformError)(
		RequireAdmin(logger, []string{" Admin@Flaia.app "}, api.WritePlatformError)(echoUser()),
	)

	cases := []struct {
		name   string
		email  string
		status int
	}{
		{"allowlisted email any case", "admin@FLAIA.app", http.StatusOK},
		{"other email", "user@flaia.app", http.StatusForbidden},
		{"no email", "", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := SignToken(cfg, "admin-1", tc.email, time.Hour)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
			if tc.status == http.StatusForbidden {
				var resp api.PlatformErrorResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, api.PlatformPermissionDenied, resp.Error.Status)
			}
		})
	}
}

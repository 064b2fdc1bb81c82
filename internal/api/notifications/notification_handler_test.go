package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func asCaller(r *http.Request, subject string) *http.Request {
	return r.WithContext(auth.WithClaims(r.Context(), &types.Claims{UserID: subject}))
}

func sendRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/notifications/send", strings.NewReader(body))
}

func TestHandler_SendScheduled(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		m, svc := setupServiceTest(t)
		m.users.On("GetUser", mock.Anything, "user-1").Return(activeUser("en"), nil).Once()
		m.pusher.On("Push", mock.Anything, mock.Anything).Return("msg-1", nil).Once()
		m.repo.On("InsertLog", mock.Anything, mock.Anything).Return(nil).Once()
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.SendScheduled(rr, asCaller(sendRequest(`{"userId":"user-1","language":"en","type":"day1"}`), SchedulerSubject))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true,"messageId":"msg-1"}`, rr.Body.String())
	})

	t.Run("skip is plain text", func(t *testing.T) {
		m, svc := setupServiceTest(t)
		m.users.On("GetUser", mock.Anything, "user-1").Return(nil, types.ErrNotFound).Once()
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.SendScheduled(rr, asCaller(sendRequest(`{"userId":"user-1","type":"day1"}`), SchedulerSubject))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "User not found - skipped", rr.Body.String())
		assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
	})

	t.Run("delivery failure", func(t *testing.T) {
		m, svc := setupServiceTest(t)
		m.users.On("GetUser", mock.Anything, "user-1").Return(activeUser("en"), nil).Once()
		m.pusher.On("Push", mock.Anything, mock.Anything).Return("", errors.New("broker timeout")).Once()
		m.repo.On("InsertLog", mock.Anything, mock.Anything).Return(nil).Once()
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.SendScheduled(rr, asCaller(sendRequest(`{"userId":"user-1","type":"day2"}`), SchedulerSubject))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"success":false,"error":"broker timeout"}`, rr.Body.String())
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, svc := setupServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.SendScheduled(rr, asCaller(sendRequest(`{"userId":"user-1","type":"weekly"}`), SchedulerSubject))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("app users cannot trigger sends", func(t *testing.T) {
		_, svc := setupServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.SendScheduled(rr, asCaller(sendRequest(`{"userId":"user-1","type":"day1"}`), "user-1"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		var resp api.PlatformErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, api.PlatformPermissionDenied, resp.Error.Status)
	})
}

func TestPostOnly(t *testing.T) {
	called := false
	h := PostOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/notifications/send", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method Not Allowed\n", rr.Body.String())
	assert.False(t, called)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notifications/send", nil))
	assert.True(t, called)
}

func TestHandler_ScheduleOnboarding(t *testing.T) {
	t.Run("scheduled", func(t *testing.T) {
		m, svc := setupServiceTest(t)
		m.users.On("GetUser", mock.Anything, "user-1").Return(activeUser("en"), nil).Once()
		m.repo.On("EnqueueTask", mock.Anything, mock.Anything).Return("task-1", nil).Once()
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/onboarding", nil)
		h.ScheduleOnboarding(rr, asCaller(req, "user-1"))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp types.ScheduleOnboardingResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Scheduled)
		assert.Equal(t, "2025-06-02T22:00:00Z", resp.RunAt.Format("2006-01-02T15:04:05Z07:00"))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		_, svc := setupServiceTest(t)
		h := NewHandler(svc, svc.logger)

		rr := httptest.NewRecorder()
		h.ScheduleOnboarding(rr, httptest.NewRequest(http.MethodPost, "/api/v1/notifications/onboarding", nil).
			WithContext(context.Background()))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

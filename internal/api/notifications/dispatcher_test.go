package notifications

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

var testJWT = config.JWTConfig{SecretKey: "dispatcher-test-secret", Issuer: "flaia"}

type callbackRecorder struct {
	mu       sync.Mutex
	bodies   []string
	callers  []string
	status   int
	response string
}

func (c *callbackRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		caller, _ := auth.GetUserIDFromContext(r.Context())
		c.mu.Lock()
		c.bodies = append(c.bodies, string(body))
		c.callers = append(c.callers, caller)
		c.mu.Unlock()
		w.WriteHeader(c.status)
		_, _ = w.Write([]byte(c.response))
	})
	srv := httptest.NewServer(auth.Authenticate(logger, testJWT, api.WritePlatformError)(inner))
	t.Cleanup(srv.Close)
	return srv
}

func setupDispatcherTest(t *testing.T) (*MockRepository, *Dispatcher) {
	t.Helper()
	repo := new(MockRepository)
	t.Cleanup(func() { repo.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	d := NewDispatcher(repo, config.NotificationsConfig{
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 40 * time.Millisecond,
		BatchSize:       20,
		MaxAttempts:     5,
	}, testJWT, logger)
	d.now = func() time.Time { return fixedNow }
	return repo, d
}

func claimed(url string, attempts int) []types.ScheduledTask {
	return []types.ScheduledTask{{
		ID:        "task-1",
		Kind:      types.TaskKindNotification,
		TargetURL: url,
		Payload:   []byte(`{"userId":"user-1","language":"en","type":"trial_reminder"}`),
		RunAt:     fixedNow.Add(taskLease),
		Attempts:  attempts,
	}}
}

func TestDispatcher_RunOnce(t *testing.T) {
	t.Run("delivers with a scheduler token", func(t *testing.T) {
		cb := &callbackRecorder{status: http.StatusOK, response: `{"success":true}`}
		srv := cb.server(t)
		repo, d := setupDispatcherTest(t)
		repo.On("ClaimDueTasks", mock.Anything, fixedNow, 20, fixedNow.Add(taskLease)).Return(claimed(srv.URL, 1), nil).Once()
		repo.On("CompleteTask", mock.Anything, "task-1").Return(nil).Once()

		n, err := d.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{`{"userId":"user-1","language":"en","type":"trial_reminder"}`}, cb.bodies)
		assert.Equal(t, []string{SchedulerSubject}, cb.callers)
	})

	t.Run("server error is retried with backoff", func(t *testing.T) {
		cb := &callbackRecorder{status: http.StatusInternalServerError, response: `{"success":false,"error":"broker timeout"}`}
		srv := cb.server(t)
		repo, d := setupDispatcherTest(t)
		repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(claimed(srv.URL, 2), nil).Once()
		wantRetry := fixedNow.Add(2 * time.Minute)
		repo.On("FailTask", mock.Anything, "task-1", mock.MatchedBy(func(msg string) bool {
			return msg == `callback returned 500: {"success":false,"error":"broker timeout"}`
		}), &wantRetry).Return(nil).Once()

		_, err := d.RunOnce(context.Background())
		require.NoError(t, err)
	})

	t.Run("last attempt fails the task", func(t *testing.T) {
		cb := &callbackRecorder{status: http.StatusBadGateway}
		srv := cb.server(t)
		repo, d := setupDispatcherTest(t)
		repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(claimed(srv.URL, 5), nil).Once()
		repo.On("FailTask", mock.Anything, "task-1", "callback returned 502: ", (*time.Time)(nil)).Return(nil).Once()

		_, err := d.RunOnce(context.Background())
		require.NoError(t, err)
	})

	t.Run("client error is not retried", func(t *testing.T) {
		cb := &callbackRecorder{status: http.StatusBadRequest}
		srv := cb.server(t)
		repo, d := setupDispatcherTest(t)
		repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(claimed(srv.URL, 1), nil).Once()
		repo.On("FailTask", mock.Anything, "task-1", "callback rejected with status 400", (*time.Time)(nil)).Return(nil).Once()

		_, err := d.RunOnce(context.Background())
		require.NoError(t, err)
	})

	t.Run("wrong signing key is rejected by the callback", func(t *testing.T) {
		cb := &callbackRecorder{status: http.StatusOK}
		srv := cb.server(t)
		repo, d := setupDispatcherTest(t)
		d.jwtCfg.SecretKey = "another-secret"
		repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(claimed(srv.URL, 1), nil).Once()
		repo.On("FailTask", mock.Anything, "task-1", "callback rejected with status 401", (*time.Time)(nil)).Return(nil).Once()

		_, err := d.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Empty(t, cb.bodies)
	})

	t.Run("nothing due", func(t *testing.T) {
		repo, d := setupDispatcherTest(t)
		repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]types.ScheduledTask{}, nil).Once()

		n, err := d.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	repo, d := setupDispatcherTest(t)
	repo.On("ClaimDueTasks", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]types.ScheduledTask{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
	assert.GreaterOrEqual(t, len(repo.Calls), 2)
}

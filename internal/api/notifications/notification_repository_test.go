package notifications

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func setupRepoTest(t *testing.T) (pgxmock.PgxPoolIface, *RepositoryImpl) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return mockPool, NewRepositoryImpl(mockPool, logger)
}

func TestRepositoryImpl_EnqueueTask(t *testing.T) {
	task := types.ScheduledTask{
		Kind:      types.TaskKindNotification,
		TargetURL: "http://localhost:8000/notifications/send",
		Payload:   []byte(`{"userId":"user-1"}`),
		RunAt:     fixedNow,
		DedupeKey: "trial_reminder:user-1",
	}

	t.Run("inserted", func(t *testing.T) {
		mockPool, repo := setupRepoTest(t)
		key := task.DedupeKey
		mockPool.ExpectQuery("INSERT INTO scheduled_tasks").
			WithArgs(task.Kind, task.TargetURL, task.Payload, fixedNow, &key).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("7d1c2b4a-0000-4000-8000-000000000001"))

		id, err := repo.EnqueueTask(context.Background(), task)
		require.NoError(t, err)
		assert.Equal(t, "7d1c2b4a-0000-4000-8000-000000000001", id)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("duplicate key", func(t *testing.T) {
		mockPool, repo := setupRepoTest(t)
		mockPool.ExpectQuery("ON CONFLICT \\(dedupe_key\\) DO NOTHING").WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnError(pgx.ErrNoRows)

		_, err := repo.EnqueueTask(context.Background(), task)
		assert.ErrorIs(t, err, types.ErrConflict)
	})
}

func TestRepositoryImpl_ClaimDueTasks(t *testing.T) {
	mockPool, repo := setupRepoTest(t)
	lease := fixedNow.Add(taskLease)
	mockPool.ExpectQuery("FOR UPDATE SKIP LOCKED").
		WithArgs(fixedNow, 20, lease).
		WillReturnRows(pgxmock.NewRows([]string{"id", "kind", "target_url", "payload", "run_at", "attempts"}).
			AddRow("task-1", "notification", "http://cb/1", []byte(`{"a":1}`), lease, 1).
			AddRow("task-2", "notification", "http://cb/2", []byte(`{"b":2}`), lease, 3))

	tasks, err := repo.ClaimDueTasks(context.Background(), fixedNow, 20, lease)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-2", tasks[1].ID)
	assert.Equal(t, 3, tasks[1].Attempts)
	assert.Equal(t, []byte(`{"a":1}`), tasks[0].Payload)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryImpl_FailTask(t *testing.T) {
	t.Run("retry", func(t *testing.T) {
		mockPool, repo := setupRepoTest(t)
		retryAt := fixedNow.Add(time.Minute)
		mockPool.ExpectExec("UPDATE scheduled_tasks").
			WithArgs("task-1", "callback returned 503: ", &retryAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.FailTask(context.Background(), "task-1", "callback returned 503: ", &retryAt))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("final", func(t *testing.T) {
		mockPool, repo := setupRepoTest(t)
		mockPool.ExpectExec("UPDATE scheduled_tasks").
			WithArgs("task-1", "callback rejected with status 400", (*time.Time)(nil)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.FailTask(context.Background(), "task-1", "callback rejected with status 400", nil))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_CompleteTask(t *testing.T) {
	mockPool, repo := setupRepoTest(t)
	mockPool.ExpectExec("SET status = 'done'").WithArgs("task-1").
		WillReturnError(errors.New("conn closed"))

	err := repo.CompleteTask(context.Background(), "task-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to complete task task-1")
}

func TestRepositoryImpl_InsertLog(t *testing.T) {
	mockPool, repo := setupRepoTest(t)
	sentAt := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("JST", 9*3600))
	title, body, lang, msgID := "Title", "Body", "ja", "msg-1"
	mockPool.ExpectExec("INSERT INTO notification_logs").
		WithArgs("user-1", "day1_onboarding", &title, &body, &lang, true, &msgID, (*string)(nil),
			int64(42), "2025-06-01", sentAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.InsertLog(context.Background(), types.NotificationLog{
		UserID:         "user-1",
		Type:           "day1_onboarding",
		Title:          title,
		Body:           body,
		Language:       lang,
		Success:        true,
		MessageID:      msgID,
		ProcessingTime: 42,
		SentAt:         sentAt,
	})
	require.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

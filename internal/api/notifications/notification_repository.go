package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/flaia-functions/app/db"
	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository persists the task queue and the delivery log.
type Repository interface {
	// EnqueueTask returns types.ErrConflict when a task with the same dedupe
	// key already exists.
	EnqueueTask(ctx context.Context, task types.ScheduledTask) (string, error)
	// ClaimDueTasks leases up to limit due tasks until leaseUntil. A task whose
	// worker dies becomes due again once the lease passes.
	ClaimDueTasks(ctx context.Context, now time.Time, limit int, leaseUntil time.Time) ([]types.ScheduledTask, error)
	CompleteTask(ctx context.Context, id string) error
	// FailTask records lastErr. A nil retryAt marks the task failed for good.
	FailTask(ctx context.Context, id, lastErr string, retryAt *time.Time) error
	InsertLog(ctx context.Context, entry types.NotificationLog) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepositoryImpl(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func startSpan(ctx context.Context, name, op, table string) (context.Context, trace.Span) {
	return otel.Tracer("NotificationRepo").Start(ctx, name, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", op),
		attribute.String("db.sql.table", table),
	))
}

func (r *RepositoryImpl) EnqueueTask(ctx context.Context, task types.ScheduledTask) (string, error) {
	ctx, span := startSpan(ctx, "EnqueueTask", "INSERT", "scheduled_tasks")
	defer span.End()

	query := `
		INSERT INTO scheduled_tasks (kind, target_url, payload, run_at, dedupe_key)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dedupe_key) DO NOTHING
		RETURNING id`

	var id string
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query,
		task.Kind, task.TargetURL, task.Payload, task.RunAt, nullable(task.DedupeKey)).Scan(&id)
	metrics.ObserveQuery(ctx, "scheduled_tasks", "INSERT", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		span.SetStatus(codes.Ok, "Task already queued")
		return "", fmt.Errorf("task %s: %w", task.DedupeKey, types.ErrConflict)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to enqueue task", slog.Any("error", err), slog.String("kind", task.Kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}
	span.SetAttributes(attribute.String("task.id", id))
	span.SetStatus(codes.Ok, "Task enqueued")
	return id, nil
}

func (r *RepositoryImpl) ClaimDueTasks(ctx context.Context, now time.Time, limit int, leaseUntil time.Time) ([]types.ScheduledTask, error) {
	ctx, span := startSpan(ctx, "ClaimDueTasks", "UPDATE", "scheduled_tasks")
	defer span.End()

	query := `
		UPDATE scheduled_tasks
		SET attempts = attempts + 1, run_at = $3, updated_at = NOW()
		WHERE id IN (
			SELECT id FROM scheduled_tasks
			WHERE status = 'pending' AND run_at <= $1
			ORDER BY run_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, target_url, payload, run_at, attempts`

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, now, limit, leaseUntil)
	if err != nil {
		metrics.ObserveQuery(ctx, "scheduled_tasks", "CLAIM", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("failed to claim tasks: %w", err)
	}
	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.ScheduledTask, error) {
		var t types.ScheduledTask
		err := row.Scan(&t.ID, &t.Kind, &t.TargetURL, &t.Payload, &t.RunAt, &t.Attempts)
		return t, err
	})
	metrics.ObserveQuery(ctx, "scheduled_tasks", "CLAIM", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return nil, fmt.Errorf("failed to scan claimed tasks: %w", err)
	}
	span.SetAttributes(attribute.Int("tasks.claimed", len(tasks)))
	span.SetStatus(codes.Ok, "Tasks claimed")
	return tasks, nil
}

func (r *RepositoryImpl) CompleteTask(ctx context.Context, id string) error {
	ctx, span := startSpan(ctx, "CompleteTask", "UPDATE", "scheduled_tasks")
	defer span.End()

	start := time.Now()
	_, err := r.pgpool.Exec(ctx,
		`UPDATE scheduled_tasks SET status = 'done', last_error = NULL, updated_at = NOW() WHERE id = $1`, id)
	metrics.ObserveQuery(ctx, "scheduled_tasks", "UPDATE", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("failed to complete task %s: %w", id, err)
	}
	span.SetStatus(codes.Ok, "Task done")
	return nil
}

func (r *RepositoryImpl) FailTask(ctx context.Context, id, lastErr string, retryAt *time.Time) error {
	ctx, span := startSpan(ctx, "FailTask", "UPDATE", "scheduled_tasks")
	defer span.End()

	query := `
		UPDATE scheduled_tasks
		SET status = CASE WHEN $3::timestamptz IS NULL THEN 'failed' ELSE 'pending' END,
			run_at = COALESCE($3::timestamptz, run_at),
			last_error = $2,
			updated_at = NOW()
		WHERE id = $1`

	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query, id, lastErr, retryAt)
	metrics.ObserveQuery(ctx, "scheduled_tasks", "UPDATE", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("failed to record task failure %s: %w", id, err)
	}
	span.SetStatus(codes.Ok, "Task failure recorded")
	return nil
}

func (r *RepositoryImpl) InsertLog(ctx context.Context, entry types.NotificationLog) error {
	ctx, span := startSpan(ctx, "InsertLog", "INSERT", "notification_logs")
	defer span.End()

	query := `
		INSERT INTO notification_logs
			(user_id, type, title, body, language, success, message_id, error, processing_time, sent_date, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query,
		entry.UserID, entry.Type,
		nullable(entry.Title), nullable(entry.Body), nullable(entry.Language),
		entry.Success, nullable(entry.MessageID), nullable(entry.Error),
		entry.ProcessingTime, entry.SentAt.UTC().Format("2006-01-02"), entry.SentAt,
	)
	metrics.ObserveQuery(ctx, "notification_logs", "INSERT", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to write notification log", slog.Any("error", err), slog.String("userID", entry.UserID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	span.SetStatus(codes.Ok, "Log written")
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

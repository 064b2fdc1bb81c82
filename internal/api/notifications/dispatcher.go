package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// SchedulerSubject is the token subject the dispatcher calls back with.
const SchedulerSubject = "flaia-scheduler"

const (
	taskLease      = 5 * time.Minute
	requestTimeout = 30 * time.Second
	maxInFlight    = 4
)

// permanentError marks a task that is not retried.
type permanentError struct{ msg string }

func (e *permanentError) Error() string { return e.msg }

// Dispatcher drains scheduled_tasks, POSTing each payload to its target URL.
type Dispatcher struct {
	repo   Repository
	client *http.Client
	jwtCfg config.JWTConfig
	cfg    config.NotificationsConfig
	logger *slog.Logger
	now    func() time.Time

	idle  *backoff.Backoff
	retry *backoff.Backoff
}

func NewDispatcher(repo Repository, cfg config.NotificationsConfig, jwtCfg config.JWTConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		client: &http.Client{Timeout: requestTimeout},
		jwtCfg: jwtCfg,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "dispatcher")),
		now:    time.Now,
		idle: &backoff.Backoff{
			Min:    cfg.PollInterval,
			Max:    cfg.MaxPollInterval,
			Factor: 2,
			Jitter: true,
		},
		retry: &backoff.Backoff{
			Min:    30 * time.Second,
			Max:    time.Hour,
			Factor: 4,
		},
	}
}

// Run polls until ctx is cancelled. Idle polls back off from PollInterval
// up to MaxPollInterval; any claimed task resets the interval.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "Task dispatcher started",
		slog.Duration("poll_interval", d.cfg.PollInterval),
		slog.Int("batch_size", d.cfg.BatchSize))
	for {
		n, err := d.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			d.logger.ErrorContext(ctx, "Dispatch cycle failed", slog.Any("error", err))
		}
		if n > 0 {
			d.idle.Reset()
		}
		timer := time.NewTimer(d.idle.Duration())
		select {
		case <-ctx.Done():
			timer.Stop()
			d.logger.Info("Task dispatcher stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce claims one batch of due tasks and delivers them. It returns the
// number of tasks claimed.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now()
	tasks, err := d.repo.ClaimDueTasks(ctx, now, d.cfg.BatchSize, now.Add(taskLease))
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	g.SetLimit(maxInFlight)
	for _, task := range tasks {
		g.Go(func() error {
			return d.settle(ctx, task, d.deliver(ctx, task))
		})
	}
	return len(tasks), g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, task types.ScheduledTask) error {
	token, err := auth.SignToken(d.jwtCfg, SchedulerSubject, "", taskLease)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, task.TargetURL, bytes.NewReader(task.Payload))
	if err != nil {
		return &permanentError{msg: fmt.Sprintf("invalid target url: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		d.logger.WarnContext(ctx, "Callback rejected task", slog.String("task_id", task.ID),
			slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return &permanentError{msg: fmt.Sprintf("callback rejected with status %d", resp.StatusCode)}
	default:
		return fmt.Errorf("callback returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

// settle records the outcome of one delivery attempt.
func (d *Dispatcher) settle(ctx context.Context, task types.ScheduledTask, cause error) error {
	l := d.logger.With(slog.String("task_id", task.ID), slog.String("kind", task.Kind), slog.Int("attempt", task.Attempts))
	// the outcome is written even when shutdown cancels the delivery
	ctx = context.WithoutCancel(ctx)

	if cause == nil {
		metrics.Get().ScheduledTasksTotal.Add(ctx, 1, metrics.Outcome("done", attribute.String("kind", task.Kind)))
		l.InfoContext(ctx, "Task delivered")
		return d.repo.CompleteTask(ctx, task.ID)
	}

	var perm *permanentError
	if errors.As(cause, &perm) || task.Attempts >= d.cfg.MaxAttempts {
		metrics.Get().ScheduledTasksTotal.Add(ctx, 1, metrics.Outcome("failed", attribute.String("kind", task.Kind)))
		l.ErrorContext(ctx, "Task failed permanently", slog.Any("error", cause))
		return d.repo.FailTask(ctx, task.ID, cause.Error(), nil)
	}

	retryAt := d.now().Add(d.retry.ForAttempt(float64(task.Attempts - 1)))
	metrics.Get().ScheduledTasksTotal.Add(ctx, 1, metrics.Outcome("retry", attribute.String("kind", task.Kind)))
	l.WarnContext(ctx, "Task delivery failed, will retry", slog.Any("error", cause), slog.Time("retry_at", retryAt))
	return d.repo.FailTask(ctx, task.ID, cause.Error(), &retryAt)
}

// Package notifications schedules the onboarding reminders and delivers them
// to devices when the dispatcher calls back.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	skipUserNotFound = "User not found - skipped"
	skipDisabled     = "Notifications disabled - skipped"
	skipNoToken      = "No push token - skipped"
)

// UserReader loads the profile fields delivery depends on.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (*types.User, error)
}

// SendResult is either a skip reason or the id of the published message.
type SendResult struct {
	Skipped   string
	MessageID string
}

// DeliveryError is a send that reached the delivery step and failed. It is
// logged to notification_logs before being returned.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

type Service interface {
	ScheduleOnboarding(ctx context.Context, userID string) (*types.ScheduleOnboardingResponse, error)
	Send(ctx context.Context, payload types.NotificationPayload) (*SendResult, error)
}

var _ Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	users  UserReader
	repo   Repository
	pusher Pusher
	cfg    config.NotificationsConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewServiceImpl(users UserReader, repo Repository, pusher Pusher, cfg config.NotificationsConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		users:  users,
		repo:   repo,
		pusher: pusher,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ScheduleOnboarding queues the trial reminder for a newly created profile.
// Users that are missing or opted out are skipped, and a second call for
// the same user is a no-op.
func (s *ServiceImpl) ScheduleOnboarding(ctx context.Context, userID string) (*types.ScheduleOnboardingResponse, error) {
	l := s.logger.With(slog.String("method", "ScheduleOnboarding"), slog.String("userID", userID))

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "User document not found - skipping scheduling")
			return &types.ScheduleOnboardingResponse{Reason: "User not found"}, nil
		}
		return nil, &api.InternalError{Message: "Failed to schedule notification", Err: err}
	}
	if !user.NotificationsEnabled {
		l.InfoContext(ctx, "Notifications disabled - skipping scheduling")
		return &types.ScheduleOnboardingResponse{Reason: "Notifications disabled"}, nil
	}

	language := "en"
	if user.LanguageSelected != nil && *user.LanguageSelected != "" {
		language = *user.LanguageSelected
	}
	payload, err := json.Marshal(types.NotificationPayload{UserID: userID, Language: language, Type: KindTrialReminder})
	if err != nil {
		return nil, &api.InternalError{Message: "Failed to schedule notification", Err: err}
	}

	runAt := s.now().UTC().Add(time.Duration(s.cfg.TrialReminderHours) * time.Hour)
	id, err := s.repo.EnqueueTask(ctx, types.ScheduledTask{
		Kind:      types.TaskKindNotification,
		TargetURL: s.cfg.NotificationTargetURL(),
		Payload:   payload,
		RunAt:     runAt,
		DedupeKey: KindTrialReminder + ":" + userID,
	})
	if errors.Is(err, types.ErrConflict) {
		l.InfoContext(ctx, "Trial reminder already scheduled")
		return &types.ScheduleOnboardingResponse{Reason: "Already scheduled"}, nil
	}
	if err != nil {
		return nil, &api.InternalError{Message: "Failed to schedule notification", Err: err}
	}

	l.InfoContext(ctx, "Scheduled trial reminder notification",
		slog.String("task_id", id),
		slog.String("language", language),
		slog.Time("run_at", runAt),
		slog.Bool("has_push_token", user.PushToken != nil))
	return &types.ScheduleOnboardingResponse{Scheduled: true, TaskID: id, RunAt: &runAt}, nil
}

// Send delivers one onboarding notification and records the attempt.
func (s *ServiceImpl) Send(ctx context.Context, payload types.NotificationPayload) (*SendResult, error) {
	start := s.now()
	kind := payload.Kind()
	l := s.logger.With(slog.String("method", "Send"), slog.String("userID", payload.UserID), slog.String("kind", kind))

	if payload.UserID == "" {
		return nil, api.NewValidationError("userId", "User ID is required")
	}
	if _, ok := MessageFor(kind, "en"); !ok {
		return nil, api.NewValidationError("type", fmt.Sprintf("Unknown notification type: %q", kind))
	}
	logType := kind + "_onboarding"
	l.InfoContext(ctx, "Processing scheduled notification")

	user, err := s.users.GetUser(ctx, payload.UserID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return s.skip(ctx, l, kind, skipUserNotFound), nil
	case err != nil:
		return nil, s.fail(ctx, l, kind, types.NotificationLog{UserID: payload.UserID, Type: logType}, start, err)
	case !user.NotificationsEnabled:
		return s.skip(ctx, l, kind, skipDisabled), nil
	case user.PushToken == nil || *user.PushToken == "":
		return s.skip(ctx, l, kind, skipNoToken), nil
	}

	language := ValidateLanguage(payload.Language)
	msg, _ := MessageFor(kind, language)
	entry := types.NotificationLog{
		UserID:   payload.UserID,
		Type:     logType,
		Title:    msg.Title,
		Body:     msg.Body,
		Language: language,
	}

	messageID, err := s.pusher.Push(ctx, types.PushMessage{
		Token:        *user.PushToken,
		Notification: msg,
		Data:         map[string]string{"type": logType, "userId": payload.UserID},
		Android:      types.AndroidOptions{Priority: "high", Icon: "notification_icon", Color: "#FF6B35", Sound: "default"},
		APNS:         types.APNSOptions{Sound: "default", Badge: 1},
	})
	if err != nil {
		return nil, s.fail(ctx, l, kind, entry, start, err)
	}

	entry.Success = true
	entry.MessageID = messageID
	entry.SentAt = s.now()
	entry.ProcessingTime = entry.SentAt.Sub(start).Milliseconds()
	// a failed log write does not fail a delivered message
	if err := s.repo.InsertLog(ctx, entry); err != nil {
		l.WarnContext(ctx, "Failed to record sent notification", slog.Any("error", err))
	}
	metrics.Get().NotificationsSentTotal.Add(ctx, 1, metrics.Outcome("sent", attribute.String("kind", kind)))
	l.InfoContext(ctx, "Successfully sent notification",
		slog.String("message_id", messageID),
		slog.String("language", language),
		slog.Int64("duration_ms", entry.ProcessingTime))
	return &SendResult{MessageID: messageID}, nil
}

func (s *ServiceImpl) skip(ctx context.Context, l *slog.Logger, kind, reason string) *SendResult {
	l.InfoContext(ctx, "Skipping notification", slog.String("reason", reason))
	metrics.Get().NotificationsSentTotal.Add(ctx, 1, metrics.Outcome("skipped", attribute.String("kind", kind)))
	return &SendResult{Skipped: reason}
}

func (s *ServiceImpl) fail(ctx context.Context, l *slog.Logger, kind string, entry types.NotificationLog, start time.Time, cause error) error {
	entry.Success = false
	entry.Error = cause.Error()
	entry.SentAt = s.now()
	entry.ProcessingTime = entry.SentAt.Sub(start).Milliseconds()
	l.ErrorContext(ctx, "Failed to send notification", slog.Any("error", cause), slog.Int64("duration_ms", entry.ProcessingTime))
	if err := s.repo.InsertLog(ctx, entry); err != nil {
		l.WarnContext(ctx, "Failed to record notification failure", slog.Any("error", err))
	}
	metrics.Get().NotificationsSentTotal.Add(ctx, 1, metrics.Outcome("failed", attribute.String("kind", kind)))
	return &DeliveryError{Err: cause}
}

package notifications

import (
	"errors"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/auth"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// PostOnly answers anything but POST with a plain 405.
func PostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ScheduleOnboarding godoc
// @Summary      Schedule Onboarding Reminder
// @Description  Queues the trial reminder notification for the caller.
// @Tags         Notifications
// @Accept       json
// @Produce      json
// @Success      200 {object} types.ScheduleOnboardingResponse "Reminder Scheduled"
// @Failure      401 {object} api.PlatformErrorResponse "Unauthorized"
// @Failure      404 {object} api.PlatformErrorResponse "User Not Found"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/notifications/onboarding [post]
func (h *Handler) ScheduleOnboarding(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationHandler").Start(r.Context(), "ScheduleOnboarding", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/notifications/onboarding"),
	))
	defer span.End()

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		api.WritePlatformError(w, r, &api.AuthenticationError{Message: "User must be authenticated"})
		return
	}
	span.SetAttributes(semconv.EnduserIDKey.String(userID))

	resp, err := h.service.ScheduleOnboarding(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to schedule onboarding", slog.Any("error", err), slog.String("userID", userID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "schedule failed")
		api.WritePlatformError(w, r, err)
		return
	}
	span.SetStatus(codes.Ok, "ok")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// SendScheduled godoc
// @Summary      Send Scheduled Notification
// @Description  Delivers a due notification. Called by the dispatcher with its own token.
// @Tags         Notifications
// @Accept       json
// @Produce      json
// @Param        payload body types.NotificationPayload true "Notification Payload"
// @Success      200 {object} types.SendNotificationResponse "Sent Or Skipped"
// @Failure      401 {object} api.PlatformErrorResponse "Unauthorized"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      500 {object} types.SendNotificationResponse "Delivery Failed"
// @Security     BearerAuth
// @Router       /notifications/send [post]
func (h *Handler) SendScheduled(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("NotificationHandler").Start(r.Context(), "SendScheduled", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/notifications/send"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SendScheduled"))

	if caller, _ := auth.GetUserIDFromContext(ctx); caller != SchedulerSubject {
		api.WritePlatformError(w, r, &api.PermissionError{Message: "Only the scheduler may send notifications"})
		return
	}

	var payload types.NotificationPayload
	if err := api.DecodeJSONBodyLenient(w, r, &payload); err != nil {
		l.WarnContext(ctx, "Failed to decode notification payload", slog.Any("error", err))
		api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
		return
	}

	result, err := h.service.Send(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		var de *DeliveryError
		if errors.As(err, &de) {
			api.WriteJSONResponse(w, r, http.StatusInternalServerError,
				types.SendNotificationResponse{Success: false, Error: de.Error()})
			return
		}
		api.WritePlatformError(w, r, err)
		return
	}
	span.SetStatus(codes.Ok, "ok")

	if result.Skipped != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(result.Skipped))
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.SendNotificationResponse{Success: true, MessageID: result.MessageID})
}

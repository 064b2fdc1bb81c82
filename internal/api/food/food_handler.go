package food

import (
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

type callFunc[T, R any] func(h *Handler, r *http.Request, userID string, req T) (R, error)

// serve decodes T, runs call for the authenticated user and writes the
// result or a platform error.
func serve[T, R any](h *Handler, name, route string, status int, call callFunc[T, R]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("FoodHandler").Start(r.Context(), name, trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
		))
		defer span.End()
		l := h.logger.With(slog.String("handler", name))

		userID, ok := auth.GetUserIDFromContext(ctx)
		if !ok {
			api.WritePlatformError(w, r, &api.AuthenticationError{Message: "User must be authenticated"})
			return
		}
		span.SetAttributes(semconv.EnduserIDKey.String(userID))

		var req T
		if err := api.DecodeJSONBodyLenient(w, r, &req); err != nil {
			l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
			api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
			return
		}

		out, err := call(h, r.WithContext(ctx), userID, req)
		if err != nil {
			l.ErrorContext(ctx, "Food request failed", slog.Any("error", err), slog.String("userID", userID))
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			api.WritePlatformError(w, r, err)
			return
		}
		span.SetStatus(codes.Ok, "ok")
		api.WriteJSONResponse(w, r, status, out)
	}
}

// AnalyzeMealImage godoc
// @Summary      Analyze Meal Image
// @Description  Estimates the nutrition of a meal from a photo.
// @Tags         Food
// @Accept       json
// @Produce      json
// @Param        request body types.FoodImageRequest true "Meal Image"
// @Success      200 {object} types.FoodAnalysis "Meal Analysis"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/food/meal-image [post]
func (h *Handler) AnalyzeMealImage() http.HandlerFunc {
	return serve(h, "AnalyzeMealImage", "/api/v1/food/meal-image", http.StatusOK,
		func(h *Handler, r *http.Request, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error) {
			return h.service.AnalyzeMealImage(r.Context(), userID, req)
		})
}

// AnalyzeLabelImage godoc
// @Summary      Analyze Nutrition Label
// @Description  Reads a nutrition label from a photo.
// @Tags         Food
// @Accept       json
// @Produce      json
// @Param        request body types.FoodImageRequest true "Label Image"
// @Success      200 {object} types.FoodAnalysis "Label Analysis"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/food/label-image [post]
func (h *Handler) AnalyzeLabelImage() http.HandlerFunc {
	return serve(h, "AnalyzeLabelImage", "/api/v1/food/label-image", http.StatusOK,
		func(h *Handler, r *http.Request, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error) {
			return h.service.AnalyzeLabelImage(r.Context(), userID, req)
		})
}

// AnalyzeMealText godoc
// @Summary      Analyze Meal Description
// @Description  Estimates the nutrition of a meal from a text description.
// @Tags         Food
// @Accept       json
// @Produce      json
// @Param        request body types.FoodTextRequest true "Meal Description"
// @Success      200 {object} types.FoodAnalysis "Meal Analysis"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/food/meal-text [post]
func (h *Handler) AnalyzeMealText() http.HandlerFunc {
	return serve(h, "AnalyzeMealText", "/api/v1/food/meal-text", http.StatusOK,
		func(h *Handler, r *http.Request, userID string, req types.FoodTextRequest) (*types.FoodAnalysis, error) {
			return h.service.AnalyzeMealText(r.Context(), userID, req)
		})
}

// SaveMealEntry godoc
// @Summary      Save Meal Entry
// @Description  Stores a meal in the authenticated user's food log.
// @Tags         Food
// @Accept       json
// @Produce      json
// @Param        meal body types.SaveMealRequest true "Meal Entry"
// @Success      201 {object} types.SaveMealResponse "Meal Saved"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/food/meals [post]
func (h *Handler) SaveMealEntry() http.HandlerFunc {
	return serve(h, "SaveMealEntry", "/api/v1/food/meals", http.StatusCreated,
		func(h *Handler, r *http.Request, userID string, req types.SaveMealRequest) (*types.SaveMealResponse, error) {
			return h.service.SaveMeal(r.Context(), userID, req)
		})
}

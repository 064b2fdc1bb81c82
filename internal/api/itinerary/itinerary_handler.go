package itinerary

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
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

// generateFunc adapts one service operation to a decoded request type.
type generateFunc[T any] func(h *Handler, r *http.Request, userID string, req T) (*types.GeneratedItinerary, error)

func serveGeneration[T any](h *Handler, name, route string, call generateFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), name, trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(route),
		))
		defer span.End()
		l := h.logger.With(slog.String("handler", name))

		userID, ok := auth.GetUserIDFromContext(ctx)
		if !ok {
			api.WriteEnvelopeError(w, r, &api.AuthenticationError{Message: "User must be authenticated"})
			return
		}
		span.SetAttributes(semconv.EnduserIDKey.String(userID))

		var req T
		if err := api.DecodeJSONBodyLenient(w, r, &req); err != nil {
			l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
			api.WriteEnvelopeError(w, r, api.NewValidationError("body", err.Error()))
			return
		}

		out, err := call(h, r.WithContext(ctx), userID, req)
		if err != nil {
			l.ErrorContext(ctx, "Itinerary request failed", slog.Any("error", err), slog.String("userID", userID))
			span.RecordError(err)
			span.SetStatus(codes.Error, "request failed")
			api.WriteEnvelopeError(w, r, err)
			return
		}

		span.SetStatus(codes.Ok, "ok")
		api.WriteJSONResponse(w, r, http.StatusOK, api.Envelope{Success: true, Data: out.Data, Metadata: out.Metadata})
	}
}

// GenerateInitial godoc
// @Summary      Generate Itinerary
// @Description  Generates a day by day itinerary for a destination.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.ItineraryRequest true "Itinerary Parameters"
// @Success      200 {object} api.Envelope{data=types.GeneratedItinerary} "Generated Itinerary"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/itineraries/initial [post]
func (h *Handler) GenerateInitial() http.HandlerFunc {
	return serveGeneration(h, "GenerateInitial", "/api/v1/itineraries/initial",
		func(h *Handler, r *http.Request, userID string, req types.ItineraryRequest) (*types.GeneratedItinerary, error) {
			return h.service.GenerateInitial(r.Context(), userID, req)
		})
}

// GenerateAdvanced godoc
// @Summary      Generate Advanced Itinerary
// @Description  Generates an itinerary using travel style, pace and interest preferences.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.AdvancedItineraryRequest true "Advanced Itinerary Parameters"
// @Success      200 {object} api.Envelope{data=types.GeneratedItinerary} "Generated Itinerary"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/itineraries/advanced [post]
func (h *Handler) GenerateAdvanced() http.HandlerFunc {
	return serveGeneration(h, "GenerateAdvanced", "/api/v1/itineraries/advanced",
		func(h *Handler, r *http.Request, userID string, req types.AdvancedItineraryRequest) (*types.GeneratedItinerary, error) {
			return h.service.GenerateAdvanced(r.Context(), userID, req)
		})
}

// ShuffleActivities godoc
// @Summary      Shuffle Activities
// @Description  Replaces the activities of one day with new suggestions.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.ShuffleActivitiesRequest true "Shuffle Parameters"
// @Success      200 {object} api.Envelope{data=types.GeneratedItinerary} "Shuffled Itinerary"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/itineraries/shuffle [post]
func (h *Handler) ShuffleActivities() http.HandlerFunc {
	return serveGeneration(h, "ShuffleActivities", "/api/v1/itineraries/shuffle",
		func(h *Handler, r *http.Request, userID string, req types.ShuffleActivitiesRequest) (*types.GeneratedItinerary, error) {
			return h.service.ShuffleActivities(r.Context(), userID, req)
		})
}

// EditActivity godoc
// @Summary      Edit Activity
// @Description  Rewrites a single activity following the user's instruction.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        request body types.EditActivityRequest true "Edit Parameters"
// @Success      200 {object} api.Envelope{data=types.GeneratedItinerary} "Edited Itinerary"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      429 {object} api.Envelope "Rate Limited"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Failure      503 {object} api.Envelope "AI Service Unavailable"
// @Security     BearerAuth
// @Router       /api/v1/itineraries/edit [post]
func (h *Handler) EditActivity() http.HandlerFunc {
	return serveGeneration(h, "EditActivity", "/api/v1/itineraries/edit",
		func(h *Handler, r *http.Request, userID string, req types.EditActivityRequest) (*types.GeneratedItinerary, error) {
			return h.service.EditActivity(r.Context(), userID, req)
		})
}

// SaveTrip godoc
// @Summary      Save Trip
// @Description  Stores an itinerary for the authenticated user and returns its id.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        trip body types.SaveTripRequest true "Trip To Save"
// @Success      201 {object} api.Envelope "Trip Saved"
// @Failure      400 {object} api.Envelope "Invalid Input"
// @Failure      401 {object} api.Envelope "Unauthorized"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/trips [post]
func (h *Handler) SaveTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "SaveTrip", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "SaveTrip"))

	userID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		api.WriteEnvelopeError(w, r, &api.AuthenticationError{Message: "User must be authenticated"})
		return
	}

	var req types.SaveTripRequest
	if err := api.DecodeJSONBodyLenient(w, r, &req); err != nil {
		api.WriteEnvelopeError(w, r, api.NewValidationError("body", err.Error()))
		return
	}

	id, err := h.service.SaveTrip(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Failed to save trip", slog.Any("error", err))
		span.SetStatus(codes.Error, "save failed")
		api.WriteEnvelopeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, api.Envelope{Success: true, Data: map[string]string{"id": id}})
}

// GetTripDetails godoc
// @Summary      Get Trip Details
// @Description  Returns a saved trip. Shared trips are readable without authentication.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} api.Envelope "Trip Details"
// @Failure      403 {object} api.Envelope "Forbidden"
// @Failure      404 {object} api.Envelope "Trip Not Found"
// @Failure      500 {object} api.Envelope "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/trips/{tripID} [get]
func (h *Handler) GetTripDetails(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetTripDetails", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/{tripID}"),
	))
	defer span.End()

	var requester *string
	if uid, ok := auth.GetUserIDFromContext(ctx); ok {
		requester = &uid
	}

	details, meta, err := h.service.GetTripDetails(ctx, chi.URLParam(r, "tripID"), requester)
	if err != nil {
		span.SetStatus(codes.Error, "lookup failed")
		api.WriteEnvelopeError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, api.Envelope{Success: true, Data: details, Metadata: meta})
}

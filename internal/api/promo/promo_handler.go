package promo

import (
	"log/slog"
	"net/http"
	"strconv"

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

// RedeemPromoCode godoc
// @Summary      Redeem Promo Code
// @Description  Grants the code's entitlement. Anonymous callers identify themselves with appUserId.
// @Tags         Promo
// @Accept       json
// @Produce      json
// @Param        request body types.RedeemPromoRequest true "Promo Code"
// @Success      200 {object} types.RedeemPromoResponse "Code Redeemed"
// @Failure      400 {object} api.PlatformErrorResponse "Invalid Input"
// @Failure      404 {object} api.PlatformErrorResponse "Invalid Promo Code"
// @Failure      412 {object} api.PlatformErrorResponse "Code Not Redeemable"
// @Failure      429 {object} api.PlatformErrorResponse "Rate Limited"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/promo/redeem [post]
func (h *Handler) RedeemPromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "RedeemPromoCode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/promo/redeem"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "RedeemPromoCode"))

	// Mobile clients add their own keys to the payload.
	var req types.RedeemPromoRequest
	if err := api.DecodeJSONBodyLenient(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
		return
	}

	uid, _ := auth.GetUserIDFromContext(ctx)
	resp, err := h.service.Redeem(ctx, uid, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redeem failed")
		api.WritePlatformError(w, r, err)
		return
	}
	span.SetStatus(codes.Ok, "redeemed")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

func adminFrom(r *http.Request) Admin {
	id, _ := auth.GetUserIDFromContext(r.Context())
	email, _ := auth.GetUserEmailFromContext(r.Context())
	return Admin{ID: id, Email: email}
}

// GeneratePromoCode godoc
// @Summary      Generate Promo Code
// @Description  Creates a new promo code. Admin only.
// @Tags         Promo Admin
// @Accept       json
// @Produce      json
// @Param        request body types.GeneratePromoRequest false "Code Parameters"
// @Success      201 {object} types.PromoCode "Code Created"
// @Failure      400 {object} api.PlatformErrorResponse "Invalid Input"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/admin/promo-codes [post]
func (h *Handler) GeneratePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "GeneratePromoCode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/promo-codes"),
	))
	defer span.End()

	var req types.GeneratePromoRequest
	if r.ContentLength != 0 {
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
			return
		}
	}

	p, err := h.service.Generate(ctx, adminFrom(r), req)
	if err != nil {
		span.SetStatus(codes.Error, "generate failed")
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, p)
}

// ReservePromoCode godoc
// @Summary      Reserve Promo Code
// @Description  Reserves an active code for a recipient. Admin only.
// @Tags         Promo Admin
// @Accept       json
// @Produce      json
// @Param        code path string true "Promo Code"
// @Param        request body types.ReservePromoRequest true "Reservation"
// @Success      200 {object} types.PromoCode "Code Reserved"
// @Failure      400 {object} api.PlatformErrorResponse "Invalid Input"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      404 {object} api.PlatformErrorResponse "Code Not Found"
// @Failure      412 {object} api.PlatformErrorResponse "Code Not Active"
// @Security     BearerAuth
// @Router       /api/v1/admin/promo-codes/{code}/reserve [post]
func (h *Handler) ReservePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "ReservePromoCode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/promo-codes/{code}/reserve"),
	))
	defer span.End()

	var req types.ReservePromoRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.WritePlatformError(w, r, api.NewValidationError("body", err.Error()))
		return
	}
	p, err := h.service.Reserve(ctx, adminFrom(r), chi.URLParam(r, "code"), req)
	if err != nil {
		span.SetStatus(codes.Error, "reserve failed")
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// UnreservePromoCode godoc
// @Summary      Unreserve Promo Code
// @Description  Returns a reserved code to active. Admin only.
// @Tags         Promo Admin
// @Accept       json
// @Produce      json
// @Param        code path string true "Promo Code"
// @Success      200 {object} types.PromoCode "Code Active"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      404 {object} api.PlatformErrorResponse "Code Not Found"
// @Failure      412 {object} api.PlatformErrorResponse "Code Not Reserved"
// @Security     BearerAuth
// @Router       /api/v1/admin/promo-codes/{code}/unreserve [post]
func (h *Handler) UnreservePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "UnreservePromoCode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/promo-codes/{code}/unreserve"),
	))
	defer span.End()

	p, err := h.service.Unreserve(ctx, adminFrom(r), chi.URLParam(r, "code"))
	if err != nil {
		span.SetStatus(codes.Error, "unreserve failed")
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

// ListPromoCodes godoc
// @Summary      List Promo Codes
// @Description  Pages promo codes newest first. Admin only.
// @Tags         Promo Admin
// @Accept       json
// @Produce      json
// @Param        status query string false "Status Filter"
// @Param        limit query int false "Page Size"
// @Param        cursor query string false "Next Page Cursor"
// @Success      200 {object} types.PromoPage "Promo Codes"
// @Failure      400 {object} api.PlatformErrorResponse "Invalid Input"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/admin/promo-codes [get]
func (h *Handler) ListPromoCodes(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "ListPromoCodes", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/promo-codes"),
	))
	defer span.End()

	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			api.WritePlatformError(w, r, api.NewValidationError("limit", "Limit must be a positive integer"))
			return
		}
		limit = n
	}

	page, err := h.service.List(ctx, q.Get("status"), limit, q.Get("cursor"))
	if err != nil {
		span.SetStatus(codes.Error, "list failed")
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, page)
}

// GetPromoCode godoc
// @Summary      Get Promo Code
// @Description  Returns a code with its redemption history. Admin only.
// @Tags         Promo Admin
// @Accept       json
// @Produce      json
// @Param        code path string true "Promo Code"
// @Success      200 {object} types.PromoCode "Promo Code"
// @Failure      403 {object} api.PlatformErrorResponse "Forbidden"
// @Failure      404 {object} api.PlatformErrorResponse "Code Not Found"
// @Failure      500 {object} api.PlatformErrorResponse "Internal Server Error"
// @Security     BearerAuth
// @Router       /api/v1/admin/promo-codes/{code} [get]
func (h *Handler) GetPromoCode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PromoHandler").Start(r.Context(), "GetPromoCode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/promo-codes/{code}"),
	))
	defer span.End()

	p, err := h.service.Get(ctx, chi.URLParam(r, "code"))
	if err != nil {
		span.SetStatus(codes.Error, "get failed")
		api.WritePlatformError(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, p)
}

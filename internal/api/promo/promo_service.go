// Package promo redeems promotional codes and manages them for admins.
package promo

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/validation"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	codeAlphabet      = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength        = 5
	maxCodeAttempts   = 10
	defaultPageSize   = 50
	maxPageSize       = 200
	lifetimeThreshold = 9999
	monthlyThreshold  = 31
)

const (
	msgApplyFailed  = "Failed to apply promo code. Please try again."
	msgRedeemFailed = "Failed to redeem promo code"
)

// errAlreadyRedeemed means the requester's own redemption of the code is
// already committed.
var errAlreadyRedeemed = &api.PreconditionError{Message: "You have already redeemed this code"}

// Admin identifies the operator behind an admin action.
type Admin struct {
	ID    string
	Email string
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Redeem(ctx context.Context, requesterID string, req types.RedeemPromoRequest) (*types.RedeemPromoResponse, error)
	Generate(ctx context.Context, admin Admin, req types.GeneratePromoRequest) (*types.PromoCode, error)
	Reserve(ctx context.Context, admin Admin, code string, req types.ReservePromoRequest) (*types.PromoCode, error)
	Unreserve(ctx context.Context, admin Admin, code string) (*types.PromoCode, error)
	List(ctx context.Context, status string, limit int, cursor string) (*types.PromoPage, error)
	Get(ctx context.Context, code string) (*types.PromoCode, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	granter EntitlementGranter
	cfg     config.PromoConfig
	now     func() time.Time
	newCode func() (string, error)
}

func NewServiceImpl(repo Repository, granter EntitlementGranter, cfg config.PromoConfig, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		repo:    repo,
		granter: granter,
		cfg:     cfg,
		now:     time.Now,
		newCode: generateCode,
	}
}

// NormalizeCode trims and uppercases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DurationFor maps a code's duration in days onto a promotional duration.
func DurationFor(days int) string {
	switch {
	case days >= lifetimeThreshold:
		return DurationLifetime
	case days <= monthlyThreshold:
		return DurationMonthly
	default:
		return DurationYearly
	}
}

// redeemable rejects codes the requester may not redeem and names the status
// the code should move to when the rejection is permanent.
func redeemable(requester string, now time.Time) CheckFunc {
	return func(p *types.PromoCode) (types.PromoStatus, error) {
		if p.Status != types.PromoActive && p.Status != types.PromoReserved {
			if p.Status == types.PromoUsed {
				return "", &api.PreconditionError{Message: "This code has already been used"}
			}
			return "", &api.PreconditionError{Message: "This code is no longer valid"}
		}
		if p.ExpiresAt != nil && p.ExpiresAt.Before(now) {
			return types.PromoExpired, &api.PreconditionError{Message: "This code has expired"}
		}
		if p.UsedCount >= p.MaxUses {
			return types.PromoUsed, &api.PreconditionError{Message: "This code has reached its maximum uses"}
		}
		for _, r := range p.Redemptions {
			if r.Success && r.UsedBy == requester {
				return "", errAlreadyRedeemed
			}
		}
		return "", nil
	}
}

func (s *ServiceImpl) Redeem(ctx context.Context, requesterID string, req types.RedeemPromoRequest) (*types.RedeemPromoResponse, error) {
	ctx, span := otel.Tracer("PromoService").Start(ctx, "Redeem", trace.WithAttributes(
		attribute.Bool("authenticated", requesterID != ""),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Redeem"))

	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, api.NewValidationError("code", "Promo code is required")
	}
	userID := requesterID
	if userID == "" {
		userID = strings.TrimSpace(req.AppUserID)
	}
	if userID == "" {
		return nil, api.NewValidationError("appUserId", "Either authentication or appUserId is required")
	}
	span.SetAttributes(attribute.String("promo.code", code), attribute.String("user.id", userID))
	l = l.With(slog.String("code", code), slog.String("userID", userID))

	p, err := s.repo.Evaluate(ctx, code, redeemable(userID, s.now()))
	if err != nil {
		s.countRedemption(ctx, "rejected")
		span.SetStatus(codes.Error, "pre-check failed")
		return nil, s.redeemError(ctx, l, err)
	}

	duration := DurationFor(p.DurationDays)
	grantID, err := s.granter.Grant(ctx, userID, p.EntitlementID, duration)
	if err != nil {
		l.ErrorContext(ctx, "Entitlement grant failed", slog.Any("error", err))
		msg := err.Error()
		failed := types.Redemption{UsedBy: userID, UsedAt: s.now().UTC(), Success: false, ErrorMessage: &msg}
		if recErr := s.repo.RecordRedemption(context.WithoutCancel(ctx), code, failed); recErr != nil {
			l.ErrorContext(ctx, "Failed to record failed redemption", slog.Any("error", recErr))
		}
		s.countRedemption(ctx, "grant_failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "grant failed")
		return nil, &api.InternalError{Message: msgApplyFailed, Err: err}
	}

	redemption := types.Redemption{UsedBy: userID, UsedAt: s.now().UTC(), Success: true, RevenueCatGrantID: &grantID}
	claimed, err := s.repo.Claim(ctx, code, redeemable(userID, s.now()), redemption)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claim failed")
		// A committed redemption by the same user owns the grant.
		if errors.Is(err, errAlreadyRedeemed) || errors.Is(err, types.ErrConflict) {
			s.countRedemption(ctx, "already_redeemed")
			l.InfoContext(ctx, "Duplicate redemption kept the committed grant")
			return nil, errAlreadyRedeemed
		}
		s.compensate(ctx, l, userID, p.EntitlementID)
		s.countRedemption(ctx, "lost_race")
		return nil, s.redeemError(ctx, l, err)
	}

	s.countRedemption(ctx, "success")
	authType := "anonymous_revenuecat"
	if requesterID != "" {
		authType = "authenticated"
	}
	l.InfoContext(ctx, "Promo code redeemed",
		slog.String("authType", authType),
		slog.String("duration", duration),
		slog.Int("usedCount", claimed.UsedCount),
		slog.String("status", string(claimed.Status)))
	span.SetStatus(codes.Ok, "redeemed")

	return &types.RedeemPromoResponse{
		Success:       true,
		EntitlementID: claimed.EntitlementID,
		DurationDays:  claimed.DurationDays,
	}, nil
}

// compensate revokes a grant whose redemption could not be committed. Revoking
// strips every promotional grant of the entitlement, so it is skipped while the
// user holds another successful redemption of it.
func (s *ServiceImpl) compensate(ctx context.Context, l *slog.Logger, userID, entitlementID string) {
	ctx = context.WithoutCancel(ctx)
	held, err := s.repo.HoldsEntitlement(ctx, userID, entitlementID)
	if err != nil || held {
		if err != nil {
			l.ErrorContext(ctx, "Failed to check held entitlement, keeping grant", slog.Any("error", err))
		} else {
			l.InfoContext(ctx, "Entitlement held through another code, keeping grant", slog.String("entitlementID", entitlementID))
		}
		metrics.Get().PromoCompensationsTotal.Add(ctx, 1, metrics.Outcome("revoke_skipped"))
		return
	}
	result := "revoked"
	if err := s.granter.Revoke(ctx, userID, entitlementID); err != nil {
		result = "revoke_failed"
		l.ErrorContext(ctx, "Failed to revoke promotional grant", slog.Any("error", err), slog.String("entitlementID", entitlementID))
	} else {
		l.WarnContext(ctx, "Promotional grant revoked after failed claim", slog.String("entitlementID", entitlementID))
	}
	metrics.Get().PromoCompensationsTotal.Add(ctx, 1, metrics.Outcome(result))
}

func (s *ServiceImpl) redeemError(ctx context.Context, l *slog.Logger, err error) error {
	var pe *api.PreconditionError
	switch {
	case errors.As(err, &pe):
		l.InfoContext(ctx, "Promo code rejected", slog.String("reason", pe.Message))
		return pe
	case errors.Is(err, types.ErrNotFound):
		return &api.NotFoundError{Message: "Invalid promo code"}
	case errors.Is(err, types.ErrConflict):
		return errAlreadyRedeemed
	default:
		l.ErrorContext(ctx, "Promo redemption failed", slog.Any("error", err))
		return &api.InternalError{Message: msgRedeemFailed, Err: err}
	}
}

func (s *ServiceImpl) countRedemption(ctx context.Context, outcome string) {
	metrics.Get().PromoRedemptionsTotal.Add(ctx, 1, metrics.Outcome(outcome))
}

// randomLimit is the largest multiple of the alphabet size that fits in a
// byte; bytes at or above it are discarded so every symbol is equally likely.
const randomLimit = 256 - 256%len(codeAlphabet)

func generateCode() (string, error) {
	return codeFrom(rand.Reader)
}

func codeFrom(src io.Reader) (string, error) {
	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)
	for len(out) < codeLength {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= randomLimit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}

func (s *ServiceImpl) Generate(ctx context.Context, admin Admin, req types.GeneratePromoRequest) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoService").Start(ctx, "Generate")
	defer span.End()
	l := s.logger.With(slog.String("method", "Generate"), slog.String("adminID", admin.ID))

	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	p := types.PromoCode{
		Type:          req.Type,
		Status:        types.PromoActive,
		MaxUses:       req.MaxUses,
		EntitlementID: strings.TrimSpace(req.EntitlementID),
		DurationDays:  req.DurationDays,
		ExpiresAt:     req.ExpiresAt,
		CreatedBy:     &admin.ID,
		Redemptions:   []types.Redemption{},
	}
	if p.EntitlementID == "" {
		p.EntitlementID = firstNonEmpty(s.cfg.DefaultEntitlement, "Pro")
	}
	if p.DurationDays == 0 {
		p.DurationDays = s.cfg.DefaultDurationDays
		if p.DurationDays == 0 {
			p.DurationDays = 365
		}
	}
	if p.MaxUses == 0 {
		p.MaxUses = 1
	}
	if p.Type == "" {
		p.Type = "single_use"
		if p.MaxUses > 1 {
			p.Type = "multi_use"
		}
	}

	created := false
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, &api.InternalError{Message: "Failed to generate promo code", Err: err}
		}
		p.Code = code
		err = s.repo.Create(ctx, p)
		if err == nil {
			created = true
			break
		}
		if !errors.Is(err, types.ErrConflict) {
			span.RecordError(err)
			return nil, &api.InternalError{Message: "Failed to generate promo code", Err: err}
		}
		l.DebugContext(ctx, "Promo code collision", slog.String("code", code), slog.Int("attempt", attempt+1))
	}
	if !created {
		span.SetStatus(codes.Error, "no unique code")
		return nil, &api.InternalError{Message: "Failed to generate unique code"}
	}

	p.CreatedAt = s.now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.audit(ctx, l, admin, "promo_code_generated", map[string]any{
		"code": p.Code, "entitlementId": p.EntitlementID, "durationDays": p.DurationDays, "maxUses": p.MaxUses,
	})
	l.InfoContext(ctx, "Promo code generated", slog.String("code", p.Code))
	span.SetStatus(codes.Ok, "generated")
	return &p, nil
}

func (s *ServiceImpl) Reserve(ctx context.Context, admin Admin, code string, req types.ReservePromoRequest) (*types.PromoCode, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	reservedFor := strings.TrimSpace(req.ReservedFor)
	if reservedFor == "" {
		return nil, api.NewValidationError("reservedFor", "Reserved for is required")
	}
	return s.transition(ctx, admin, NormalizeCode(code), types.PromoActive, types.PromoReserved, &reservedFor, "Cannot reserve a code with status: %s")
}

func (s *ServiceImpl) Unreserve(ctx context.Context, admin Admin, code string) (*types.PromoCode, error) {
	return s.transition(ctx, admin, NormalizeCode(code), types.PromoReserved, types.PromoActive, nil, "Code is not reserved (status: %s)")
}

func (s *ServiceImpl) transition(ctx context.Context, admin Admin, code string, from, to types.PromoStatus, reservedFor *string, conflictMsg string) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoService").Start(ctx, "Transition", trace.WithAttributes(
		attribute.String("promo.code", code),
		attribute.String("promo.to", string(to)),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Transition"), slog.String("code", code), slog.String("adminID", admin.ID))

	p, err := s.repo.Transition(ctx, code, from, to, reservedFor)
	switch {
	case errors.Is(err, types.ErrNotFound):
		return nil, &api.NotFoundError{Message: "Promo code not found"}
	case errors.Is(err, types.ErrConflict) && p != nil:
		return nil, &api.PreconditionError{Message: fmt.Sprintf(conflictMsg, p.Status)}
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		return nil, &api.InternalError{Message: "Failed to update promo code", Err: err}
	}

	action := "promo_code_reserved"
	details := map[string]any{"code": code}
	if to == types.PromoActive {
		action = "promo_code_unreserved"
	} else if reservedFor != nil {
		details["reservedFor"] = *reservedFor
	}
	s.audit(ctx, l, admin, action, details)
	span.SetStatus(codes.Ok, "transitioned")
	return p, nil
}

func (s *ServiceImpl) audit(ctx context.Context, l *slog.Logger, admin Admin, action string, details map[string]any) {
	err := s.repo.Audit(ctx, types.AdminAuditEntry{Action: action, AdminID: admin.ID, AdminEmail: admin.Email, Details: details})
	if err != nil {
		l.WarnContext(ctx, "Failed to write admin audit entry", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *ServiceImpl) List(ctx context.Context, status string, limit int, cursor string) (*types.PromoPage, error) {
	ctx, span := otel.Tracer("PromoService").Start(ctx, "List")
	defer span.End()

	filter := types.PromoListFilter{Status: types.PromoStatus(status), Limit: limit}
	switch filter.Status {
	case "", types.PromoActive, types.PromoReserved, types.PromoUsed, types.PromoExpired:
	default:
		return nil, api.NewValidationError("status", "Status must be one of active, reserved, used, expired")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	filter.Limit = min(filter.Limit, maxPageSize)
	if cursor != "" {
		at, code, err := decodeCursor(cursor)
		if err != nil {
			return nil, api.NewValidationError("cursor", "Invalid page cursor")
		}
		filter.AfterCreatedAt, filter.AfterCode = &at, code
	}

	want := filter.Limit
	filter.Limit++
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, &api.InternalError{Message: "Failed to list promo codes", Err: err}
	}

	page := &types.PromoPage{Codes: rows}
	if len(rows) > want {
		page.Codes = rows[:want]
		last := page.Codes[want-1]
		next := encodeCursor(last.CreatedAt, last.Code)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *ServiceImpl) Get(ctx context.Context, code string) (*types.PromoCode, error) {
	p, err := s.repo.Get(ctx, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, &api.NotFoundError{Message: "Promo code not found"}
		}
		return nil, &api.InternalError{Message: "Failed to load promo code", Err: err}
	}
	return p, nil
}

func encodeCursor(at time.Time, code string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(at.UTC().Format(time.RFC3339Nano) + "|" + code))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}
	ts, code, ok := strings.Cut(string(raw), "|")
	if !ok || code == "" {
		return time.Time{}, "", errors.New("malformed cursor")
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", err
	}
	return at, code, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

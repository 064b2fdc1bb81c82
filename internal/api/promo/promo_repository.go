package promo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/flaia-functions/app/db"
	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// CheckFunc inspects a locked promo code. A non-empty status is persisted
// before the transaction commits, whether or not an error is returned.
type CheckFunc func(p *types.PromoCode) (types.PromoStatus, error)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// Evaluate locks the code, runs check and commits any status transition.
	Evaluate(ctx context.Context, code string, check CheckFunc) (*types.PromoCode, error)
	// Claim locks the code, re-runs check and on success appends the redemption
	// and increments the use count in the same transaction.
	Claim(ctx context.Context, code string, check CheckFunc, redemption types.Redemption) (*types.PromoCode, error)
	RecordRedemption(ctx context.Context, code string, redemption types.Redemption) error
	// HoldsEntitlement reports whether the user has a successful redemption of
	// any code granting entitlementID.
	HoldsEntitlement(ctx context.Context, userID, entitlementID string) (bool, error)

	Create(ctx context.Context, p types.PromoCode) error
	// Transition moves a code from one status to another; it returns the
	// current code and types.ErrConflict when the code is not in from.
	Transition(ctx context.Context, code string, from, to types.PromoStatus, reservedFor *string) (*types.PromoCode, error)
	Get(ctx context.Context, code string) (*types.PromoCode, error)
	List(ctx context.Context, filter types.PromoListFilter) ([]types.PromoCode, error)
	Audit(ctx context.Context, entry types.AdminAuditEntry) error
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepositoryImpl(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const promoColumns = `code, type, status, max_uses, used_count, entitlement_id, duration_days,
		expires_at, reserved_for, reserved_at, created_by, created_at, updated_at`

func scanPromo(row pgx.Row) (*types.PromoCode, error) {
	var p types.PromoCode
	var status string
	err := row.Scan(&p.Code, &p.Type, &status, &p.MaxUses, &p.UsedCount, &p.EntitlementID, &p.DurationDays,
		&p.ExpiresAt, &p.ReservedFor, &p.ReservedAt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = types.PromoStatus(status)
	p.Redemptions = []types.Redemption{}
	return &p, nil
}

func (r *RepositoryImpl) lock(ctx context.Context, q querier, code string) (*types.PromoCode, error) {
	start := time.Now()
	p, err := scanPromo(q.QueryRow(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1 FOR UPDATE`, code))
	metrics.ObserveQuery(ctx, "promo_codes", "SELECT_FOR_UPDATE", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("promo code %s: %w", code, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock promo code: %w", err)
	}
	if p.Redemptions, err = r.redemptions(ctx, q, code); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *RepositoryImpl) redemptions(ctx context.Context, q querier, code string) ([]types.Redemption, error) {
	query := `
		SELECT used_by, used_at, success, revenuecat_grant_id, error_message
		FROM promo_redemptions
		WHERE code = $1
		ORDER BY id`

	start := time.Now()
	rows, err := q.Query(ctx, query, code)
	if err != nil {
		metrics.ObserveQuery(ctx, "promo_redemptions", "SELECT", start, err)
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	out := []types.Redemption{}
	for rows.Next() {
		var red types.Redemption
		if err := rows.Scan(&red.UsedBy, &red.UsedAt, &red.Success, &red.RevenueCatGrantID, &red.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		out = append(out, red)
	}
	err = rows.Err()
	metrics.ObserveQuery(ctx, "promo_redemptions", "SELECT", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating redemptions: %w", err)
	}
	return out, nil
}

func (r *RepositoryImpl) setStatus(ctx context.Context, q querier, code string, status types.PromoStatus) error {
	start := time.Now()
	_, err := q.Exec(ctx, `UPDATE promo_codes SET status = $2, updated_at = NOW() WHERE code = $1`, code, string(status))
	metrics.ObserveQuery(ctx, "promo_codes", "UPDATE", start, err)
	if err != nil {
		return fmt.Errorf("failed to update promo status: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) insertRedemption(ctx context.Context, q querier, code string, red types.Redemption) error {
	query := `
		INSERT INTO promo_redemptions (code, used_by, used_at, success, revenuecat_grant_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)`

	start := time.Now()
	_, err := q.Exec(ctx, query, code, red.UsedBy, red.UsedAt, red.Success, red.RevenueCatGrantID, red.ErrorMessage)
	metrics.ObserveQuery(ctx, "promo_redemptions", "INSERT", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("duplicate redemption for %s: %w", red.UsedBy, types.ErrConflict)
		}
		return fmt.Errorf("failed to insert redemption: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Evaluate(ctx context.Context, code string, check CheckFunc) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "Evaluate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "promo_codes"),
		attribute.String("promo.code", code),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := r.lock(ctx, tx, code)
	if err != nil {
		span.SetStatus(codes.Error, "lock failed")
		return nil, err
	}

	transition, checkErr := check(p)
	if transition != "" && transition != p.Status {
		if err := r.setStatus(ctx, tx, code, transition); err != nil {
			span.RecordError(err)
			return nil, err
		}
		r.logger.InfoContext(ctx, "Promo code status changed",
			slog.String("code", code), slog.String("from", string(p.Status)), slog.String("to", string(transition)))
		p.Status = transition
	}
	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	if checkErr != nil {
		span.SetStatus(codes.Error, "rejected")
		return p, checkErr
	}
	span.SetStatus(codes.Ok, "evaluated")
	return p, nil
}

func (r *RepositoryImpl) Claim(ctx context.Context, code string, check CheckFunc, redemption types.Redemption) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "Claim", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "promo_codes"),
		attribute.String("promo.code", code),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := r.lock(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	if transition, checkErr := check(p); checkErr != nil {
		if transition != "" && transition != p.Status {
			if err := r.setStatus(ctx, tx, code, transition); err != nil {
				return nil, err
			}
			p.Status = transition
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		span.SetStatus(codes.Error, "rejected on claim")
		return p, checkErr
	}

	if err := r.insertRedemption(ctx, tx, code, redemption); err != nil {
		span.RecordError(err)
		return nil, err
	}

	next := types.PromoActive
	if p.UsedCount+1 >= p.MaxUses {
		next = types.PromoUsed
	}
	start := time.Now()
	_, err = tx.Exec(ctx, `
		UPDATE promo_codes
		SET used_count = used_count + 1, status = $2, updated_at = NOW()
		WHERE code = $1`, code, string(next))
	metrics.ObserveQuery(ctx, "promo_codes", "UPDATE", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to increment promo usage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.UsedCount++
	p.Status = next
	p.Redemptions = append(p.Redemptions, redemption)
	span.SetStatus(codes.Ok, "claimed")
	return p, nil
}

func (r *RepositoryImpl) RecordRedemption(ctx context.Context, code string, redemption types.Redemption) error {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "RecordRedemption", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "promo_redemptions"),
	))
	defer span.End()

	if err := r.insertRedemption(ctx, r.pgpool, code, redemption); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

func (r *RepositoryImpl) HoldsEntitlement(ctx context.Context, userID, entitlementID string) (bool, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "HoldsEntitlement", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "promo_redemptions"),
	))
	defer span.End()

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM promo_redemptions r
			JOIN promo_codes c ON c.code = r.code
			WHERE r.used_by = $1 AND r.success AND c.entitlement_id = $2
		)`

	start := time.Now()
	var held bool
	err := r.pgpool.QueryRow(ctx, query, userID, entitlementID).Scan(&held)
	metrics.ObserveQuery(ctx, "promo_redemptions", "SELECT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return false, fmt.Errorf("failed to check held entitlement: %w", err)
	}
	return held, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, p types.PromoCode) error {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "promo_codes"),
	))
	defer span.End()

	query := `
		INSERT INTO promo_codes (code, type, status, max_uses, used_count, entitlement_id, duration_days, expires_at, created_by)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8)`

	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query,
		p.Code, p.Type, string(p.Status), p.MaxUses, p.EntitlementID, p.DurationDays, p.ExpiresAt, p.CreatedBy)
	metrics.ObserveQuery(ctx, "promo_codes", "INSERT", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("promo code %s exists: %w", p.Code, types.ErrConflict)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("failed to insert promo code: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) Transition(ctx context.Context, code string, from, to types.PromoStatus, reservedFor *string) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "Transition", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("promo.code", code),
		attribute.String("promo.to", string(to)),
	))
	defer span.End()

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := r.lock(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if p.Status != from {
		return p, fmt.Errorf("promo code %s is %s: %w", code, p.Status, types.ErrConflict)
	}

	query := `
		UPDATE promo_codes
		SET status = $2,
		    reserved_for = $3,
		    reserved_at = CASE WHEN $3::text IS NULL THEN NULL ELSE NOW() END,
		    updated_at = NOW()
		WHERE code = $1
		RETURNING ` + promoColumns

	start := time.Now()
	updated, err := scanPromo(tx.QueryRow(ctx, query, code, string(to), reservedFor))
	metrics.ObserveQuery(ctx, "promo_codes", "UPDATE", start, err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update promo code: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	updated.Redemptions = p.Redemptions
	span.SetStatus(codes.Ok, "transitioned")
	return updated, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, code string) (*types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "Get", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("promo.code", code),
	))
	defer span.End()

	start := time.Now()
	p, err := scanPromo(r.pgpool.QueryRow(ctx, `SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code))
	metrics.ObserveQuery(ctx, "promo_codes", "SELECT", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("promo code %s: %w", code, types.ErrNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("database error fetching promo code: %w", err)
	}
	if p.Redemptions, err = r.redemptions(ctx, r.pgpool, code); err != nil {
		return nil, err
	}
	return p, nil
}

// List pages newest first with a (created_at, code) keyset cursor.
func (r *RepositoryImpl) List(ctx context.Context, filter types.PromoListFilter) ([]types.PromoCode, error) {
	ctx, span := otel.Tracer("PromoRepo").Start(ctx, "List", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("promo.status", string(filter.Status)),
		attribute.Int("limit", filter.Limit),
	))
	defer span.End()

	query := `
		SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE ($1 = '' OR status = $1)
		  AND ($2::timestamptz IS NULL OR (created_at, code) < ($2::timestamptz, $3))
		ORDER BY created_at DESC, code DESC
		LIMIT $4`

	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, string(filter.Status), filter.AfterCreatedAt, filter.AfterCode, filter.Limit)
	if err != nil {
		metrics.ObserveQuery(ctx, "promo_codes", "SELECT", start, err)
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	out := []types.PromoCode{}
	for rows.Next() {
		p, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		out = append(out, *p)
	}
	err = rows.Err()
	metrics.ObserveQuery(ctx, "promo_codes", "SELECT", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating promo codes: %w", err)
	}
	return out, nil
}

func (r *RepositoryImpl) Audit(ctx context.Context, entry types.AdminAuditEntry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	start := time.Now()
	_, err = r.pgpool.Exec(ctx,
		`INSERT INTO admin_audit_log (action, admin_id, admin_email, details) VALUES ($1, $2, $3, $4)`,
		entry.Action, entry.AdminID, entry.AdminEmail, details)
	metrics.ObserveQuery(ctx, "admin_audit_log", "INSERT", start, err)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

package user

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

var _ Repository = (*PostgresUserRepo)(nil)

type Repository interface {
	GetUser(ctx context.Context, userID string) (*types.User, error)
	// UpdateDevice creates the profile row on first use.
	UpdateDevice(ctx context.Context, userID, email string, params types.UpdateDeviceRequest) (*types.User, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresUserRepo(pgpool database.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, email, display_name, language_selected, notifications_enabled, push_token, created_at`

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.LanguageSelected,
		&u.NotificationsEnabled, &u.PushToken, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) GetUser(ctx context.Context, userID string) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	start := time.Now()
	u, err := scanUser(r.pgpool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	metrics.ObserveQuery(ctx, "users", "SELECT", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err), slog.String("userID", userID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	span.SetStatus(codes.Ok, "User fetched")
	return u, nil
}

func (r *PostgresUserRepo) UpdateDevice(ctx context.Context, userID, email string, params types.UpdateDeviceRequest) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateDevice", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	query := `
		INSERT INTO users (id, email, display_name, language_selected, notifications_enabled, push_token)
		VALUES ($1, NULLIF($2, ''), $3, $4, COALESCE($5::boolean, TRUE), NULLIF($6, ''))
		ON CONFLICT (id) DO UPDATE SET
			email = COALESCE(EXCLUDED.email, users.email),
			display_name = COALESCE($3, users.display_name),
			language_selected = COALESCE($4, users.language_selected),
			notifications_enabled = COALESCE($5::boolean, users.notifications_enabled),
			push_token = CASE WHEN $6::text IS NULL THEN users.push_token ELSE NULLIF($6, '') END,
			updated_at = NOW()
		RETURNING ` + userColumns

	start := time.Now()
	u, err := scanUser(r.pgpool.QueryRow(ctx, query,
		userID, email, params.DisplayName, params.Language, params.NotificationsEnabled, params.PushToken))
	metrics.ObserveQuery(ctx, "users", "UPSERT", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update device settings", slog.Any("error", err), slog.String("userID", userID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return nil, fmt.Errorf("failed to update device settings: %w", err)
	}
	span.SetStatus(codes.Ok, "Device settings updated")
	return u, nil
}

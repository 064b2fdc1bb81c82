package promptLog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/flaia-functions/app/db"
	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
)

var _ Store = (*PostgresStore)(nil)

type PostgresStore struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresStore(pgpool database.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{logger: logger, pgpool: pgpool}
}

func (s *PostgresStore) InsertPromptLog(ctx context.Context, rec Record) (string, error) {
	ctx, span := otel.Tracer("PromptLogRepo").Start(ctx, "InsertPromptLog", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "prompt_logs"),
		attribute.String("prompt.type", rec.PromptType),
	))
	defer span.End()

	tokenUsage, err := json.Marshal(rec.TokenUsage)
	if err != nil {
		return "", fmt.Errorf("failed to encode token usage: %w", err)
	}
	aiConfig, err := json.Marshal(rec.AIConfig)
	if err != nil {
		return "", fmt.Errorf("failed to encode ai config: %w", err)
	}
	performance, err := json.Marshal(rec.Performance)
	if err != nil {
		return "", fmt.Errorf("failed to encode performance: %w", err)
	}
	var metadata []byte
	if rec.Metadata != nil {
		if metadata, err = json.Marshal(rec.Metadata); err != nil {
			return "", fmt.Errorf("failed to encode metadata: %w", err)
		}
	}
	var sessionID *string
	if rec.SessionID != "" {
		sessionID = &rec.SessionID
	}

	query := `
		INSERT INTO prompt_logs (user_id, prompt_type, user_request, prompt_text, llm_response,
		                         token_usage, ai_config, performance, session_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id::text`

	start := time.Now()
	var id string
	err = s.pgpool.QueryRow(ctx, query,
		rec.UserID, rec.PromptType, rec.UserRequestJSON, rec.PromptText, rec.LLMResponseJSON,
		tokenUsage, aiConfig, performance, sessionID, metadata, rec.CreatedAt,
	).Scan(&id)
	metrics.ObserveQuery(ctx, "prompt_logs", "INSERT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return "", fmt.Errorf("failed to insert prompt log: %w", err)
	}
	span.SetStatus(codes.Ok, "Prompt log inserted")
	return id, nil
}

func (s *PostgresStore) UpsertDailyUsage(ctx context.Context, u DailyUsage) error {
	ctx, span := otel.Tracer("PromptLogRepo").Start(ctx, "UpsertDailyUsage", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "daily_usage_stats"),
	))
	defer span.End()

	images := 0
	if u.Image {
		images = 1
	}
	query := `
		INSERT INTO daily_usage_stats (id, user_id, usage_date, request_count, image_count,
		                               prompt_tokens, candidates_tokens, total_tokens, updated_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			request_count     = daily_usage_stats.request_count + 1,
			image_count       = daily_usage_stats.image_count + EXCLUDED.image_count,
			prompt_tokens     = daily_usage_stats.prompt_tokens + EXCLUDED.prompt_tokens,
			candidates_tokens = daily_usage_stats.candidates_tokens + EXCLUDED.candidates_tokens,
			total_tokens      = daily_usage_stats.total_tokens + EXCLUDED.total_tokens,
			updated_at        = NOW()`

	start := time.Now()
	_, err := s.pgpool.Exec(ctx, query, u.ID, u.UserID, u.Date, images,
		int64(u.Usage.PromptTokens), int64(u.Usage.CandidatesTokens), int64(u.Usage.TotalTokens))
	metrics.ObserveQuery(ctx, "daily_usage_stats", "UPSERT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return fmt.Errorf("failed to upsert daily usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertFoodError(ctx context.Context, rec FoodErrorRecord) error {
	ctx, span := otel.Tracer("PromptLogRepo").Start(ctx, "InsertFoodError", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "food_errors"),
		attribute.String("error.code", rec.ErrorCode),
	))
	defer span.End()

	var sessionID *string
	if rec.SessionID != "" {
		sessionID = &rec.SessionID
	}
	query := `
		INSERT INTO food_errors (user_id, prompt_type, session_id, error_code, error_message,
		                         user_request, prompt_text, response_time_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	start := time.Now()
	_, err := s.pgpool.Exec(ctx, query, rec.UserID, rec.PromptType, sessionID, rec.ErrorCode,
		rec.ErrorMessage, rec.UserRequestJSON, rec.PromptText, rec.ResponseTimeMS, rec.CreatedAt)
	metrics.ObserveQuery(ctx, "food_errors", "INSERT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("failed to insert food error: %w", err)
	}
	return nil
}

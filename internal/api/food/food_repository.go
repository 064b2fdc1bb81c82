package food

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
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

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	SaveSession(ctx context.Context, session types.AnalysisSession) error
	// SaveMeal writes the meal, bumps the user's stats and links the analysis
	// session in one transaction. It reports whether a session row was linked.
	SaveMeal(ctx context.Context, meal types.MealEntry) (bool, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepositoryImpl(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{logger: logger, pgpool: pgpool}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *RepositoryImpl) SaveSession(ctx context.Context, session types.AnalysisSession) error {
	ctx, span := otel.Tracer("FoodRepo").Start(ctx, "SaveSession", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "ai_sessions"),
		attribute.String("session.id", session.ID),
	))
	defer span.End()

	result, err := json.Marshal(session.Result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis result: %w", err)
	}

	query := `
		INSERT INTO ai_sessions (id, user_id, mode, storage_path, text_input, result, processing_time, success)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	start := time.Now()
	_, err = r.pgpool.Exec(ctx, query,
		session.ID, session.UserID, session.Mode,
		nullable(session.StoragePath), nullable(session.TextInput),
		result, session.ProcessingTime, session.Success,
	)
	metrics.ObserveQuery(ctx, "ai_sessions", "INSERT", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert analysis session", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return fmt.Errorf("failed to insert analysis session: %w", err)
	}
	span.SetStatus(codes.Ok, "Session saved")
	return nil
}

func (r *RepositoryImpl) SaveMeal(ctx context.Context, meal types.MealEntry) (bool, error) {
	ctx, span := otel.Tracer("FoodRepo").Start(ctx, "SaveMeal", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "meals"),
		attribute.String("meal.id", meal.ID),
		attribute.String("user.id", meal.UserID),
	))
	defer span.End()
	l := r.logger.With(slog.String("method", "SaveMeal"), slog.String("mealID", meal.ID))

	ingredients, err := json.Marshal(meal.Ingredients)
	if err != nil {
		return false, fmt.Errorf("failed to encode ingredients: %w", err)
	}
	nutrition, err := json.Marshal(meal.Nutrition)
	if err != nil {
		return false, fmt.Errorf("failed to encode nutrition: %w", err)
	}

	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to start transaction")
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	calories := *meal.Nutrition.Calories

	insertMeal := `
		INSERT INTO meals (id, user_id, meal_name, meal_type, ingredients, nutrition, confidence,
		                   storage_path, notes, session_id, tags, search_keywords, total_calories, meal_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	start := time.Now()
	_, err = tx.Exec(ctx, insertMeal,
		meal.ID, meal.UserID, meal.MealName, meal.MealType, ingredients, nutrition, meal.Confidence,
		meal.StoragePath, meal.Notes, nullable(meal.SessionID), meal.Tags, meal.SearchKeywords,
		calories, meal.Timestamp.UTC().Format(time.DateOnly),
	)
	metrics.ObserveQuery(ctx, "meals", "INSERT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return false, fmt.Errorf("failed to insert meal: %w", err)
	}

	upsertStats := `
		INSERT INTO user_stats (user_id, total_meals, total_calories, total_protein, total_carbohydrates,
		                        total_fat, meals_by_type, last_meal_at, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, jsonb_build_object($6::text, 1), NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			total_meals = user_stats.total_meals + 1,
			total_calories = user_stats.total_calories + EXCLUDED.total_calories,
			total_protein = user_stats.total_protein + EXCLUDED.total_protein,
			total_carbohydrates = user_stats.total_carbohydrates + EXCLUDED.total_carbohydrates,
			total_fat = user_stats.total_fat + EXCLUDED.total_fat,
			meals_by_type = user_stats.meals_by_type || jsonb_build_object(
				$6::text, COALESCE((user_stats.meals_by_type ->> $6::text)::int, 0) + 1),
			last_meal_at = NOW(),
			updated_at = NOW()`

	start = time.Now()
	_, err = tx.Exec(ctx, upsertStats,
		meal.UserID, calories, *meal.Nutrition.Protein, *meal.Nutrition.Carbohydrates, *meal.Nutrition.Fat, meal.MealType,
	)
	metrics.ObserveQuery(ctx, "user_stats", "UPSERT", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPSERT failed")
		return false, fmt.Errorf("failed to update user stats: %w", err)
	}

	linked := false
	if meal.SessionID != "" {
		start = time.Now()
		tag, err := tx.Exec(ctx, `
			UPDATE ai_sessions
			SET saved = TRUE, meal_id = $2, updated_at = NOW()
			WHERE id = $1 AND user_id = $3`,
			meal.SessionID, meal.ID, meal.UserID,
		)
		metrics.ObserveQuery(ctx, "ai_sessions", "UPDATE", start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB UPDATE failed")
			return false, fmt.Errorf("failed to link analysis session: %w", err)
		}
		linked = tag.RowsAffected() > 0
		if !linked {
			l.WarnContext(ctx, "Analysis session not found, meal saved unlinked", slog.String("sessionID", meal.SessionID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to commit transaction")
		return false, fmt.Errorf("failed to commit meal: %w", err)
	}
	span.SetStatus(codes.Ok, "Meal saved")
	return linked, nil
}

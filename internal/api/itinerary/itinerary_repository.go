package itinerary

import (
	"context"
	"errors"
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
	SaveTrip(ctx context.Context, userID string, req types.SaveTripRequest) (string, error)
	// GetTrip returns types.ErrNotFound when no trip has the id.
	GetTrip(ctx context.Context, tripID string) (*types.StoredTrip, error)
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

func (r *RepositoryImpl) SaveTrip(ctx context.Context, userID string, req types.SaveTripRequest) (string, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "SaveTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "itineraries"),
	))
	defer span.End()

	doc, err := json.Marshal(req.Itinerary)
	if err != nil {
		return "", fmt.Errorf("failed to encode itinerary: %w", err)
	}

	query := `
		INSERT INTO itineraries (user_id, document, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text`

	start := time.Now()
	var id string
	err = r.pgpool.QueryRow(ctx, query, userID, doc, nullable(req.StartDate), nullable(req.EndDate)).Scan(&id)
	metrics.ObserveQuery(ctx, "itineraries", "INSERT", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return "", fmt.Errorf("failed to insert itinerary: %w", err)
	}
	span.SetStatus(codes.Ok, "Itinerary saved")
	return id, nil
}

func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID string) (*types.StoredTrip, error) {
	ctx, span := otel.Tracer("ItineraryRepo").Start(ctx, "GetTrip", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "itineraries"),
		attribute.String("trip.id", tripID),
	))
	defer span.End()

	query := `
		SELECT id::text, user_id, document, COALESCE(start_date, ''), COALESCE(end_date, ''), created_at
		FROM itineraries
		WHERE id = $1`

	start := time.Now()
	var (
		trip types.StoredTrip
		raw  []byte
	)
	err := r.pgpool.QueryRow(ctx, query, tripID).Scan(
		&trip.ID, &trip.UserID, &raw, &trip.StartDate, &trip.EndDate, &trip.CreatedAt,
	)
	metrics.ObserveQuery(ctx, "itineraries", "SELECT", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Trip not found")
			return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		return nil, fmt.Errorf("database error fetching trip: %w", err)
	}
	if err := json.Unmarshal(raw, &trip.Document); err != nil {
		return nil, fmt.Errorf("failed to decode trip document: %w", err)
	}
	span.SetStatus(codes.Ok, "Trip fetched")
	return &trip, nil
}

// Package itinerary generates, edits and stores travel itineraries.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	generativeAI "github.com/FACorreiaa/flaia-functions/internal/api/generative_ai"
	promptLog "github.com/FACorreiaa/flaia-functions/internal/api/prompt_log"
	"github.com/FACorreiaa/flaia-functions/internal/api/prompts"
	"github.com/FACorreiaa/flaia-functions/internal/api/schemas"
	"github.com/FACorreiaa/flaia-functions/internal/api/validation"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	PromptTypeInitial  = "initial_search"
	PromptTypeAdvanced = "advanced_search"
	PromptTypeShuffle  = "shuffle"
	PromptTypeEdit     = "edit"
)

// Generator is the structured-output model call the service depends on.
type Generator interface {
	GenerateJSON(ctx context.Context, inv generativeAI.Invocation) (*generativeAI.Generation, error)
	Config() generativeAI.ModelConfig
}

var _ Generator = (*generativeAI.Invoker)(nil)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GenerateInitial(ctx context.Context, userID string, req types.ItineraryRequest) (*types.GeneratedItinerary, error)
	GenerateAdvanced(ctx context.Context, userID string, req types.AdvancedItineraryRequest) (*types.GeneratedItinerary, error)
	ShuffleActivities(ctx context.Context, userID string, req types.ShuffleActivitiesRequest) (*types.GeneratedItinerary, error)
	EditActivity(ctx context.Context, userID string, req types.EditActivityRequest) (*types.GeneratedItinerary, error)
	SaveTrip(ctx context.Context, userID string, req types.SaveTripRequest) (string, error)
	GetTripDetails(ctx context.Context, tripID string, requester *string) (*types.TripDetails, *types.TripMetadata, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	generator    Generator
	promptLogger promptLog.Logger
	repo         Repository
	trips        *cache.Cache
	shareBaseURL string
	now          func() time.Time
}

func NewServiceImpl(generator Generator, promptLogger promptLog.Logger, repo Repository, trips *cache.Cache, shareBaseURL string, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		generator:    generator,
		promptLogger: promptLogger,
		repo:         repo,
		trips:        trips,
		shareBaseURL: shareBaseURL,
		now:          time.Now,
	}
}

// generation describes one itinerary model call.
type generation struct {
	promptType string
	schema     schemas.Name
	trip       types.ItineraryRequest
	request    any
	prompt     string
}

func (s *ServiceImpl) GenerateInitial(ctx context.Context, userID string, req types.ItineraryRequest) (*types.GeneratedItinerary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.generate(ctx, userID, generation{
		promptType: PromptTypeInitial,
		schema:     schemas.Itinerary,
		trip:       req,
		request:    req,
		prompt:     prompts.BuildQuickItinerary(req),
	})
}

func (s *ServiceImpl) GenerateAdvanced(ctx context.Context, userID string, req types.AdvancedItineraryRequest) (*types.GeneratedItinerary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.generate(ctx, userID, generation{
		promptType: PromptTypeAdvanced,
		schema:     schemas.Itinerary,
		trip:       req.ItineraryRequest,
		request:    req,
		prompt:     prompts.BuildPersonalizedItinerary(req.ItineraryRequest, *req.QuestionnaireAnswers),
	})
}

func (s *ServiceImpl) ShuffleActivities(ctx context.Context, userID string, req types.ShuffleActivitiesRequest) (*types.GeneratedItinerary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	sel := validation.NormalizeShuffle(req)
	gen, err := s.generate(ctx, userID, generation{
		promptType: PromptTypeShuffle,
		schema:     schemas.ActivityShuffle,
		trip:       req.ItineraryRequest,
		request:    req,
		prompt:     prompts.BuildShuffle(req.ItineraryRequest, sel),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Activities shuffled",
		slog.String("userID", userID),
		slog.String("destination", req.Destination),
		slog.Int("replaced", len(sel.ReplaceNames)),
		slog.Any("promptLogID", gen.Metadata.PromptLogDocID))
	return gen, nil
}

func (s *ServiceImpl) EditActivity(ctx context.Context, userID string, req types.EditActivityRequest) (*types.GeneratedItinerary, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.generate(ctx, userID, generation{
		promptType: PromptTypeEdit,
		schema:     schemas.ActivityEdit,
		trip:       req.ItineraryRequest,
		request:    req,
		prompt:     prompts.BuildEdit(req),
	})
}

func (s *ServiceImpl) generate(ctx context.Context, userID string, g generation) (*types.GeneratedItinerary, error) {
	version := g.trip.Version()
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("prompt.type", g.promptType),
		attribute.String("destination", g.trip.Destination),
		attribute.Int("schema.version", version),
		attribute.String("user.id", userID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Generate"), slog.String("promptType", g.promptType), slog.String("userID", userID))

	entry := schemas.Select(g.schema, version)
	out, err := s.generator.GenerateJSON(ctx, generativeAI.TextInvocation(g.promptType, g.prompt, entry))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return nil, err
	}

	logID := s.promptLogger.Log(ctx, types.PromptLog{
		UserID:      userID,
		PromptType:  g.promptType,
		UserRequest: g.request,
		PromptText:  g.prompt,
		LLMResponse: out.Data,
		TokenUsage:  out.Usage,
		AIConfig:    s.generator.Config().Snapshot(),
		Performance: types.Performance{ResponseTimeMS: out.Latency.Milliseconds(), Success: true},
	})

	l.InfoContext(ctx, "Itinerary generated",
		slog.String("destination", g.trip.Destination),
		slog.Int("days", g.trip.NumberOfDays),
		slog.Any("promptLogID", logID))
	span.SetStatus(codes.Ok, "generated")

	return &types.GeneratedItinerary{
		Data: out.Data,
		Metadata: types.GenerationMetadata{
			Model:          out.Model,
			Language:       g.trip.Language,
			SchemaVersion:  version,
			GeneratedAt:    s.now().UTC(),
			UserID:         userID,
			PromptLogDocID: logID,
		},
	}, nil
}

func (s *ServiceImpl) SaveTrip(ctx context.Context, userID string, req types.SaveTripRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", err
	}
	id, err := s.repo.SaveTrip(ctx, userID, req)
	if err != nil {
		return "", &api.InternalError{Message: "Failed to save trip", Err: err}
	}
	return id, nil
}

var errTripNotFound = &api.NotFoundError{Message: "Trip not found. Please check the trip ID."}

func (s *ServiceImpl) GetTripDetails(ctx context.Context, tripID string, requester *string) (*types.TripDetails, *types.TripMetadata, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetTripDetails", trace.WithAttributes(
		attribute.String("trip.id", tripID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "GetTripDetails"), slog.String("tripID", tripID))

	if tripID == "" {
		return nil, nil, api.NewValidationError("tripId", "Trip ID is required")
	}
	meta := &types.TripMetadata{FetchedAt: s.now().UTC(), TripID: tripID, UserID: requester}

	if cached, ok := s.trips.Get(tripID); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.(*types.TripDetails), meta, nil
	}

	if _, err := uuid.Parse(tripID); err != nil {
		l.InfoContext(ctx, "Trip not found")
		return nil, nil, errTripNotFound
	}
	trip, err := s.repo.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.InfoContext(ctx, "Trip not found")
			return nil, nil, errTripNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip lookup failed")
		return nil, nil, &api.InternalError{Message: "Failed to load trip", Err: fmt.Errorf("get trip %s: %w", tripID, err)}
	}

	details := NormalizeTrip(*trip, s.shareBaseURL)
	s.trips.SetDefault(tripID, &details)
	l.InfoContext(ctx, "Trip fetched", slog.String("destination", details.Destination))
	return &details, meta, nil
}

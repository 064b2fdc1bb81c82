// Package food analyzes meal photos, nutrition labels and meal descriptions
// and stores the meals users confirm.
package food

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/flaia-functions/internal/api"
	generativeAI "github.com/FACorreiaa/flaia-functions/internal/api/generative_ai"
	promptLog "github.com/FACorreiaa/flaia-functions/internal/api/prompt_log"
	"github.com/FACorreiaa/flaia-functions/internal/api/prompts"
	"github.com/FACorreiaa/flaia-functions/internal/api/schemas"
	"github.com/FACorreiaa/flaia-functions/internal/api/validation"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	PromptTypeMeal  = "unified_meal_analysis"
	PromptTypeLabel = "label_analysis"
	PromptTypeText  = "text_meal_analysis"

	ModeMeal  = "meal"
	ModeLabel = "label"
	ModeText  = "text"

	// flat token charge Gemini bills per inline image
	imageTokens = 258

	slowAnalysis = 15 * time.Second
)

const (
	msgUnsupportedImage = "Unsupported image format. Please use JPG, PNG, or WebP."
	msgImageNotFound    = "Image not found or inaccessible"
	msgSaveFailed       = "Failed to save meal entry"

	warnNotFood         = "Low confidence this is food. Please ensure you are photographing actual food items."
	warnHighCalories    = "Very high calorie estimate. Please verify portion sizes."
	suggestSlow         = "Analysis took longer than expected. Try taking clearer photos with better lighting."
	suggestMacros       = "Macronutrient ratios may need adjustment. Consider the cooking method and hidden ingredients."
	warnTextLowConf     = "Very low confidence in food recognition. Please provide more specific details."
	suggestTextDetail   = "For better accuracy, include specific foods, quantities, and cooking methods."
	warnTextHighCalorie = "Very high calories detected. Please verify the meal description."
	warnTextLowCalorie  = "Very low calories detected. Please verify the meal description."
)

// Generator is the structured-output model call the service depends on.
type Generator interface {
	GenerateJSON(ctx context.Context, inv generativeAI.Invocation) (*generativeAI.Generation, error)
	Config() generativeAI.ModelConfig
}

var _ Generator = (*generativeAI.Invoker)(nil)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	AnalyzeMealImage(ctx context.Context, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error)
	AnalyzeLabelImage(ctx context.Context, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error)
	AnalyzeMealText(ctx context.Context, userID string, req types.FoodTextRequest) (*types.FoodAnalysis, error)
	SaveMeal(ctx context.Context, userID string, req types.SaveMealRequest) (*types.SaveMealResponse, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	generator    Generator
	promptLogger promptLog.Logger
	repo         Repository
	images       ImageStore
	now          func() time.Time
	newSessionID func() string
}

func NewServiceImpl(generator Generator, promptLogger promptLog.Logger, repo Repository, images ImageStore, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		generator:    generator,
		promptLogger: promptLogger,
		repo:         repo,
		images:       images,
		now:          time.Now,
		newSessionID: prompts.NewSessionID,
	}
}

// analysis describes one food model call.
type analysis struct {
	mode        string
	promptType  string
	errorCode   string
	request     any
	prompt      string
	parts       []*genai.Part
	language    string
	unitSystem  string
	notes       string
	storagePath string
	textInput   string
	imageSize   int
}

func (s *ServiceImpl) AnalyzeMealImage(ctx context.Context, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error) {
	return s.analyzeImage(ctx, userID, req, ModeMeal, PromptTypeMeal, "meal_analysis_failed", prompts.MealImagePrompt)
}

func (s *ServiceImpl) AnalyzeLabelImage(ctx context.Context, userID string, req types.FoodImageRequest) (*types.FoodAnalysis, error) {
	return s.analyzeImage(ctx, userID, req, ModeLabel, PromptTypeLabel, "label_analysis_failed", prompts.LabelImagePrompt)
}

func (s *ServiceImpl) analyzeImage(ctx context.Context, userID string, req types.FoodImageRequest,
	mode, promptType, errorCode string, buildPrompt func(language, unitSystem, notes string) string,
) (*types.FoodAnalysis, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	mime, ok := imageMIMEType(req.StoragePath)
	if !ok {
		return nil, api.NewValidationError("storagePath", msgUnsupportedImage)
	}

	image, err := s.images.Read(ctx, req.StoragePath)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read image",
			slog.String("storagePath", req.StoragePath), slog.Any("error", err))
		return nil, &api.NotFoundError{Message: msgImageNotFound}
	}

	language := prompts.ValidateLanguage(req.Language)
	unitSystem := prompts.ValidateUnitSystem(req.UnitSystem)
	prompt := buildPrompt(language, unitSystem, req.Notes)

	return s.run(ctx, userID, analysis{
		mode:        mode,
		promptType:  promptType,
		errorCode:   errorCode,
		request:     req,
		prompt:      prompt,
		parts:       []*genai.Part{genai.NewPartFromText(prompt), genai.NewPartFromBytes(image, mime)},
		language:    language,
		unitSystem:  unitSystem,
		notes:       req.Notes,
		storagePath: req.StoragePath,
		imageSize:   len(image),
	})
}

func (s *ServiceImpl) AnalyzeMealText(ctx context.Context, userID string, req types.FoodTextRequest) (*types.FoodAnalysis, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	language := prompts.ValidateLanguage(req.Language)
	unitSystem := prompts.ValidateUnitSystem(req.UnitSystem)
	prompt := prompts.MealTextPrompt(req.Text, language, unitSystem, req.Notes)

	return s.run(ctx, userID, analysis{
		mode:       ModeText,
		promptType: PromptTypeText,
		errorCode:  "text_analysis_failed",
		request:    req,
		prompt:     prompt,
		parts:      []*genai.Part{genai.NewPartFromText(prompt)},
		language:   language,
		unitSystem: unitSystem,
		notes:      req.Notes,
		textInput:  req.Text,
	})
}

func (s *ServiceImpl) run(ctx context.Context, userID string, a analysis) (*types.FoodAnalysis, error) {
	sessionID := s.newSessionID()
	ctx, span := otel.Tracer("FoodService").Start(ctx, "Analyze", trace.WithAttributes(
		attribute.String("prompt.type", a.promptType),
		attribute.String("food.mode", a.mode),
		attribute.String("session.id", sessionID),
		attribute.String("user.id", userID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Analyze"), slog.String("mode", a.mode),
		slog.String("userID", userID), slog.String("sessionID", sessionID))

	start := time.Now()
	entry := schemas.Select(schemas.MealAnalysis, schemas.DefaultVersion)
	out, err := s.generator.GenerateJSON(ctx, generativeAI.Invocation{Operation: a.promptType, Parts: a.parts, Entry: entry})
	var result *types.FoodAnalysis
	if err == nil {
		result, err = decodeAnalysis(out.Data)
	}
	if err != nil {
		l.ErrorContext(ctx, "Food analysis failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		s.promptLogger.RecordFoodError(ctx, types.FoodErrorLog{
			UserID:         userID,
			PromptType:     a.promptType,
			SessionID:      sessionID,
			ErrorCode:      a.errorCode,
			ErrorMessage:   err.Error(),
			UserRequest:    a.request,
			PromptText:     a.prompt,
			ResponseTimeMS: time.Since(start).Milliseconds(),
		})
		return nil, &api.InternalError{Message: prompts.ErrorMessage("image_analysis_failed", a.language)}
	}

	result.SessionID = sessionID
	result.Mode = a.mode
	result.ProcessingTime = out.Latency.Milliseconds()
	result.Model = out.Model
	result.Language = a.language
	result.UnitSystem = a.unitSystem
	result.UserNotes = a.notes
	result.TextInput = a.textInput
	result.Success = true
	if a.mode == ModeText {
		adviseText(result)
	} else {
		adviseImage(result, out.Latency)
	}

	usage := out.Usage
	if a.imageSize > 0 {
		usage.ImageTokens = imageTokens
	}
	logID := s.promptLogger.Log(ctx, types.PromptLog{
		UserID:      userID,
		PromptType:  a.promptType,
		UserRequest: a.request,
		PromptText:  a.prompt,
		LLMResponse: result,
		TokenUsage:  usage,
		AIConfig:    s.generator.Config().Snapshot(),
		Performance: types.Performance{
			ResponseTimeMS: out.Latency.Milliseconds(),
			Success:        true,
			Extra: map[string]any{
				"confidence_score":    result.Confidence,
				"food_validity_score": result.FoodValidity.Score,
				"total_calories":      result.Nutrition.Calories,
			},
		},
		SessionID: sessionID,
		Metadata:  map[string]any{"food_metadata": foodMetadata(a, result)},
	})
	s.promptLogger.RecordDailyUsage(ctx, userID, usage)

	if err := s.repo.SaveSession(ctx, types.AnalysisSession{
		ID:             sessionID,
		UserID:         userID,
		Mode:           a.mode,
		StoragePath:    a.storagePath,
		TextInput:      a.textInput,
		Result:         result,
		ProcessingTime: result.ProcessingTime,
		Success:        true,
	}); err != nil {
		l.WarnContext(ctx, "Failed to store analysis session", slog.Any("error", err))
	}

	l.InfoContext(ctx, "Food analysis completed",
		slog.String("mealName", result.MealName),
		slog.Float64("calories", result.Nutrition.Calories),
		slog.Float64("confidence", result.Confidence),
		slog.Int("warnings", len(result.Warnings)),
		slog.Int("tokens", int(usage.TotalTokens)),
		slog.Any("promptLogID", logID))
	span.SetStatus(codes.Ok, "analyzed")
	return result, nil
}

func decodeAnalysis(data map[string]any) (*types.FoodAnalysis, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	var out types.FoodAnalysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &api.ModelServiceError{Err: fmt.Errorf("%w: %v", api.ErrSchemaViolation, err)}
	}
	return &out, nil
}

func foodMetadata(a analysis, result *types.FoodAnalysis) map[string]any {
	meta := map[string]any{
		"meal_name":      result.MealName,
		"language":       a.language,
		"unit_system":    a.unitSystem,
		"mode":           a.mode,
		"has_user_notes": a.notes != "",
	}
	if a.storagePath != "" {
		meta["storage_path"] = a.storagePath
		meta["image_size_bytes"] = a.imageSize
	}
	if a.textInput != "" {
		meta["text_length"] = len(a.textInput)
	}
	return meta
}

// adviseImage adds warnings and suggestions for photo based analyses.
func adviseImage(r *types.FoodAnalysis, latency time.Duration) {
	if r.FoodValidity.Score < 0.25 {
		r.Warnings = append(r.Warnings, warnNotFood)
	}
	if latency > slowAnalysis {
		r.Suggestions = append(r.Suggestions, suggestSlow)
	}
	n := r.Nutrition
	if n.Calories > 2000 {
		r.Warnings = append(r.Warnings, warnHighCalories)
	}
	// protein and carbs are 4 kcal/g, fat 9 kcal/g
	fromMacros := n.Protein*4 + n.Carbs*4 + n.Fat*9
	if math.Abs(n.Calories-fromMacros) > n.Calories*0.2 {
		r.Suggestions = append(r.Suggestions, suggestMacros)
	}
}

// adviseText adds warnings and suggestions for description based analyses.
func adviseText(r *types.FoodAnalysis) {
	if r.Confidence < 0.3 {
		r.Warnings = append(r.Warnings, warnTextLowConf)
	}
	if r.Confidence < 0.6 {
		r.Suggestions = append(r.Suggestions, suggestTextDetail)
	}
	if r.Nutrition.Calories > 3000 {
		r.Warnings = append(r.Warnings, warnTextHighCalorie)
	}
	if r.Nutrition.Calories < 10 && r.Confidence > 0.5 {
		r.Warnings = append(r.Warnings, warnTextLowCalorie)
	}
}

func (s *ServiceImpl) SaveMeal(ctx context.Context, userID string, req types.SaveMealRequest) (*types.SaveMealResponse, error) {
	ctx, span := otel.Tracer("FoodService").Start(ctx, "SaveMeal", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("meal.type", req.MealType),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SaveMeal"), slog.String("userID", userID))

	if err := validation.Struct(req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		return nil, err
	}

	start := time.Now()
	now := s.now().UTC()
	timestamp := now
	if req.Timestamp != nil {
		timestamp = req.Timestamp.UTC()
	}
	confidence := 0.0
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	meal := types.MealEntry{
		ID:             NewMealID(now),
		UserID:         userID,
		MealName:       req.MealName,
		MealType:       req.MealType,
		Ingredients:    req.Ingredients,
		Nutrition:      *req.Nutrition,
		Confidence:     confidence,
		StoragePath:    req.StoragePath,
		Notes:          req.Notes,
		SessionID:      req.SessionID,
		Tags:           MealTags(req.MealName, req.MealType, req.Ingredients),
		SearchKeywords: SearchKeywords(req.MealName, req.Ingredients, req.Notes),
		Timestamp:      timestamp,
	}

	linked, err := s.repo.SaveMeal(ctx, meal)
	if err != nil {
		l.ErrorContext(ctx, "Failed to save meal", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, &api.InternalError{Message: msgSaveFailed, Err: err}
	}

	resp := &types.SaveMealResponse{
		Success: true,
		MealID:  meal.ID,
		Data: types.SavedMeal{
			ID:            meal.ID,
			MealName:      meal.MealName,
			MealType:      meal.MealType,
			TotalCalories: *meal.Nutrition.Calories,
			Timestamp:     timestamp,
			Tags:          meal.Tags,
		},
	}
	resp.Metadata.ProcessingTime = time.Since(start).Milliseconds()
	resp.Metadata.Saved = true

	l.InfoContext(ctx, "Meal entry saved",
		slog.String("mealID", meal.ID),
		slog.String("mealType", meal.MealType),
		slog.Float64("calories", *meal.Nutrition.Calories),
		slog.Bool("sessionLinked", linked))
	span.SetStatus(codes.Ok, "saved")
	return resp, nil
}

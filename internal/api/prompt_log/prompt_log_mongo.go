package promptLog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	promptsCollection    = "prompts"
	usageCollection      = "food_usage_stats"
	foodErrorsCollection = "food_errors"
)

var _ Store = (*MongoStore)(nil)

// MongoStore keeps analytics records as documents, one collection per record kind.
type MongoStore struct {
	logger *slog.Logger
	db     *mongo.Database
}

func NewMongoStore(db *mongo.Database, logger *slog.Logger) *MongoStore {
	return &MongoStore{logger: logger, db: db}
}

// ConnectMongo opens a client and verifies it against the primary.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client.Database(dbName), nil
}

type promptDocument struct {
	ID              string `bson:"_id"`
	types.PromptLog `bson:",inline"`
	UserRequest     string `bson:"user_request"`
	LLMResponse     string `bson:"llm_response"`
}

func (s *MongoStore) InsertPromptLog(ctx context.Context, rec Record) (string, error) {
	doc := promptDocument{
		ID:          uuid.NewString(),
		PromptLog:   rec.PromptLog,
		UserRequest: rec.UserRequestJSON,
		LLMResponse: rec.LLMResponseJSON,
	}
	if _, err := s.db.Collection(promptsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to insert prompt document: %w", err)
	}
	return doc.ID, nil
}

func (s *MongoStore) UpsertDailyUsage(ctx context.Context, u DailyUsage) error {
	images := 0
	if u.Image {
		images = 1
	}
	update := bson.M{
		"$set": bson.M{
			"user_id":    u.UserID,
			"date":       u.Date.UTC().Format(time.DateOnly),
			"updated_at": time.Now().UTC(),
		},
		"$inc": bson.M{
			"total_tokens":         int64(u.Usage.TotalTokens),
			"prompt_tokens":        int64(u.Usage.PromptTokens),
			"completion_tokens":    int64(u.Usage.CandidatesTokens),
			"image_analysis_count": images,
			"request_count":        1,
		},
	}
	_, err := s.db.Collection(usageCollection).UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert usage document: %w", err)
	}
	return nil
}

func (s *MongoStore) InsertFoodError(ctx context.Context, rec FoodErrorRecord) error {
	doc := bson.M{
		"_id":           uuid.NewString(),
		"user_id":       rec.UserID,
		"prompt_type":   rec.PromptType,
		"session_id":    rec.SessionID,
		"error_code":    rec.ErrorCode,
		"error_message": rec.ErrorMessage,
		"user_request":  rec.UserRequestJSON,
		"prompt_text":   rec.PromptText,
		"performance":   bson.M{"response_time_ms": rec.ResponseTimeMS, "success": false},
		"created_at":    rec.CreatedAt,
	}
	if _, err := s.db.Collection(foodErrorsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert food error document: %w", err)
	}
	return nil
}

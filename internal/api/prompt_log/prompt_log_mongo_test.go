package promptLog

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mt.Run("insert prompt log", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewMongoStore(mt.DB, logger)
		rec, err := newRecord(sampleEntry())
		require.NoError(mt, err)

		id, err := store.InsertPromptLog(context.Background(), rec)
		require.NoError(mt, err)
		_, err = uuid.Parse(id)
		assert.NoError(mt, err)
	})

	mt.Run("insert prompt log write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		store := NewMongoStore(mt.DB, logger)
		rec, err := newRecord(sampleEntry())
		require.NoError(mt, err)

		_, err = store.InsertPromptLog(context.Background(), rec)
		assert.ErrorContains(mt, err, "failed to insert prompt document")
	})

	mt.Run("upsert daily usage", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		store := NewMongoStore(mt.DB, logger)

		err := store.UpsertDailyUsage(context.Background(), DailyUsage{
			ID: "u_2025-06-01", UserID: "u", Date: time.Now(),
			Usage: types.TokenUsage{TotalTokens: 5},
		})
		assert.NoError(mt, err)
	})

	mt.Run("insert food error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := NewMongoStore(mt.DB, logger)

		err := store.InsertFoodError(context.Background(), FoodErrorRecord{
			FoodErrorLog:    types.FoodErrorLog{UserID: "u", ErrorCode: "image_quality_poor"},
			UserRequestJSON: "{}",
			CreatedAt:       time.Now(),
		})
		assert.NoError(mt, err)
	})
}

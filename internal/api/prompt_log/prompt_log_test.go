package promptLog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) InsertPromptLog(ctx context.Context, rec Record) (string, error) {
	args := m.Called(ctx, rec)
	return args.String(0), args.Error(1)
}

func (m *MockStore) UpsertDailyUsage(ctx context.Context, usage DailyUsage) error {
	return m.Called(ctx, usage).Error(0)
}

func (m *MockStore) InsertFoodError(ctx context.Context, rec FoodErrorRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func setupPromptLogTest(budget time.Duration) (*MockStore, *BestEffortLogger) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := new(MockStore)
	return store, NewBestEffortLogger(store, budget, time.Second, logger)
}

func sampleEntry() types.PromptLog {
	return types.PromptLog{
		UserID:      "user-1",
		PromptType:  "initial_search",
		UserRequest: map[string]any{"destination": "Paris, France"},
		PromptText:  "prompt",
		LLMResponse: map[string]any{"title": "Paris"},
		TokenUsage:  types.TokenUsage{PromptTokens: 10, CandidatesTokens: 20, TotalTokens: 30},
		Performance: types.Performance{ResponseTimeMS: 1200, Success: true},
	}
}

func TestBestEffortLogger_Log(t *testing.T) {
	t.Run("returns the stored id", func(t *testing.T) {
		store, l := setupPromptLogTest(time.Second)
		store.On("InsertPromptLog", mock.Anything, mock.MatchedBy(func(r Record) bool {
			return r.UserRequestJSON == "{\n  \"destination\": \"Paris, France\"\n}" &&
				r.LLMResponseJSON == "{\n  \"title\": \"Paris\"\n}" &&
				!r.CreatedAt.IsZero()
		})).Return("log-123", nil).Once()

		id := l.Log(context.Background(), sampleEntry())
		require.NotNil(t, id)
		assert.Equal(t, "log-123", *id)
		l.Wait()
		store.AssertExpectations(t)
	})

	t.Run("store failure yields nil", func(t *testing.T) {
		store, l := setupPromptLogTest(time.Second)
		store.On("InsertPromptLog", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()

		assert.Nil(t, l.Log(context.Background(), sampleEntry()))
		l.Wait()
		store.AssertExpectations(t)
	})

	t.Run("panicking store yields nil", func(t *testing.T) {
		store, l := setupPromptLogTest(time.Second)
		store.On("InsertPromptLog", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
			panic("driver bug")
		}).Return("", nil).Once()

		assert.Nil(t, l.Log(context.Background(), sampleEntry()))
		l.Wait()
	})

	t.Run("budget overrun yields nil and write still completes", func(t *testing.T) {
		store, l := setupPromptLogTest(10 * time.Millisecond)
		done := make(chan struct{})
		store.On("InsertPromptLog", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			time.Sleep(100 * time.Millisecond)
			close(done)
		}).Return("late", nil).Once()

		assert.Nil(t, l.Log(context.Background(), sampleEntry()))
		l.Wait()
		select {
		case <-done:
		default:
			t.Fatal("detached write did not finish")
		}
	})

	t.Run("write survives request cancellation", func(t *testing.T) {
		store, l := setupPromptLogTest(time.Second)
		ctx, cancel := context.WithCancel(context.Background())
		store.On("InsertPromptLog", mock.MatchedBy(func(c context.Context) bool {
			cancel()
			return c.Err() == nil
		}), mock.Anything).Return("kept", nil).Once()

		l.Log(ctx, sampleEntry())
		l.Wait()
		store.AssertExpectations(t)
	})

	t.Run("unencodable request yields nil without a write", func(t *testing.T) {
		store, l := setupPromptLogTest(time.Second)
		entry := sampleEntry()
		entry.UserRequest = map[string]any{"ch": make(chan int)}

		assert.Nil(t, l.Log(context.Background(), entry))
		store.AssertNotCalled(t, "InsertPromptLog", mock.Anything, mock.Anything)
	})
}

func TestBestEffortLogger_RecordDailyUsage(t *testing.T) {
	store, l := setupPromptLogTest(time.Second)
	l.now = func() time.Time { return time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC) }

	store.On("UpsertDailyUsage", mock.Anything, DailyUsage{
		ID:     "user-1_2025-06-01",
		UserID: "user-1",
		Date:   time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC),
		Usage:  types.TokenUsage{TotalTokens: 30, ImageTokens: 258},
		Image:  true,
	}).Return(errors.New("ignored")).Once()

	l.RecordDailyUsage(context.Background(), "user-1", types.TokenUsage{TotalTokens: 30, ImageTokens: 258})
	l.Wait()
	store.AssertExpectations(t)
}

func TestBestEffortLogger_RecordFoodError(t *testing.T) {
	store, l := setupPromptLogTest(time.Second)
	store.On("InsertFoodError", mock.Anything, mock.MatchedBy(func(r FoodErrorRecord) bool {
		return r.ErrorCode == "image_analysis_failed" && strings.Contains(r.UserRequestJSON, "meals/u1/a.jpg")
	})).Return(nil).Once()

	l.RecordFoodError(context.Background(), types.FoodErrorLog{
		UserID:      "user-1",
		PromptType:  "unified_meal_analysis",
		ErrorCode:   "image_analysis_failed",
		UserRequest: map[string]string{"storagePath": "meals/u1/a.jpg"},
	})
	l.Wait()
	store.AssertExpectations(t)
}

func TestDailyUsageID(t *testing.T) {
	at := time.Date(2025, 1, 2, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, "u_2025-01-01", DailyUsageID("u", at))
}

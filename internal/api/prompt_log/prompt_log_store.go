package promptLog

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// Store persists analytics records. Implementations must be safe for concurrent use.
type Store interface {
	InsertPromptLog(ctx context.Context, rec Record) (string, error)
	UpsertDailyUsage(ctx context.Context, usage DailyUsage) error
	InsertFoodError(ctx context.Context, rec FoodErrorRecord) error
}

// Record is a prompt log with its request and response rendered as pretty JSON.
type Record struct {
	types.PromptLog
	UserRequestJSON string
	LLMResponseJSON string
}

// DailyUsage is one increment of the per-user per-day usage counters.
type DailyUsage struct {
	ID     string
	UserID string
	Date   time.Time
	Usage  types.TokenUsage
	Image  bool
}

type FoodErrorRecord struct {
	types.FoodErrorLog
	UserRequestJSON string
	CreatedAt       time.Time
}

// DailyUsageID is the document key {userID}_{YYYY-MM-DD} in UTC.
func DailyUsageID(userID string, at time.Time) string {
	return userID + "_" + at.UTC().Format(time.DateOnly)
}

func prettyJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newRecord(entry types.PromptLog) (Record, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	req, err := prettyJSON(entry.UserRequest)
	if err != nil {
		return Record{}, err
	}
	resp, err := prettyJSON(entry.LLMResponse)
	if err != nil {
		return Record{}, err
	}
	return Record{PromptLog: entry, UserRequestJSON: req, LLMResponseJSON: resp}, nil
}

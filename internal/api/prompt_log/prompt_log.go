// Package promptLog records model interactions for analytics without ever
// affecting the request that produced them.
package promptLog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	defaultWaitBudget   = 1500 * time.Millisecond
	defaultWriteTimeout = 5 * time.Second
)

// Logger is the best-effort analytics sink used by the AI endpoints.
type Logger interface {
	// Log stores entry and returns its id, or nil when the write failed or
	// did not finish within the wait budget.
	Log(ctx context.Context, entry types.PromptLog) *string
	RecordDailyUsage(ctx context.Context, userID string, usage types.TokenUsage)
	RecordFoodError(ctx context.Context, entry types.FoodErrorLog)
}

var _ Logger = (*BestEffortLogger)(nil)

// BestEffortLogger runs every write detached from the request context.
type BestEffortLogger struct {
	store        Store
	logger       *slog.Logger
	waitBudget   time.Duration
	writeTimeout time.Duration
	now          func() time.Time
	wg           sync.WaitGroup
}

func NewBestEffortLogger(store Store, waitBudget, writeTimeout time.Duration, logger *slog.Logger) *BestEffortLogger {
	if waitBudget <= 0 {
		waitBudget = defaultWaitBudget
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &BestEffortLogger{
		store:        store,
		logger:       logger,
		waitBudget:   waitBudget,
		writeTimeout: writeTimeout,
		now:          time.Now,
	}
}

func (b *BestEffortLogger) Log(ctx context.Context, entry types.PromptLog) *string {
	ctx, span := otel.Tracer("PromptLog").Start(ctx, "Log", trace.WithAttributes(
		attribute.String("prompt.type", entry.PromptType),
	))
	defer span.End()
	l := b.logger.With(slog.String("method", "Log"), slog.String("userID", entry.UserID), slog.String("promptType", entry.PromptType))

	rec, err := newRecord(entry)
	if err != nil {
		b.failed(ctx, l, "encode", err)
		span.SetStatus(codes.Error, "encode failed")
		return nil
	}

	result := make(chan *string, 1)
	b.detach(ctx, l, "insert", func(wctx context.Context) error {
		var id *string
		defer func() { result <- id }()
		s, err := b.store.InsertPromptLog(wctx, rec)
		if err != nil {
			return err
		}
		id = &s
		return nil
	})

	timer := time.NewTimer(b.waitBudget)
	defer timer.Stop()
	select {
	case id := <-result:
		if id == nil {
			span.SetStatus(codes.Error, "prompt log not written")
			return nil
		}
		l.DebugContext(ctx, "Prompt logged", slog.String("promptLogID", *id),
			slog.Int("totalTokens", int(entry.TokenUsage.TotalTokens)),
			slog.Int64("responseTimeMS", entry.Performance.ResponseTimeMS))
		span.SetStatus(codes.Ok, "Prompt logged")
		return id
	case <-timer.C:
		b.failed(ctx, l, "budget", fmt.Errorf("prompt log id not available within %s", b.waitBudget))
	case <-ctx.Done():
		b.failed(ctx, l, "cancelled", ctx.Err())
	}
	span.SetStatus(codes.Error, "prompt log id unavailable")
	return nil
}

func (b *BestEffortLogger) RecordDailyUsage(ctx context.Context, userID string, usage types.TokenUsage) {
	l := b.logger.With(slog.String("method", "RecordDailyUsage"), slog.String("userID", userID))
	now := b.now()
	u := DailyUsage{
		ID:     DailyUsageID(userID, now),
		UserID: userID,
		Date:   now.UTC(),
		Usage:  usage,
		Image:  usage.ImageTokens > 0,
	}
	b.detach(ctx, l, "usage", func(wctx context.Context) error {
		return b.store.UpsertDailyUsage(wctx, u)
	})
}

func (b *BestEffortLogger) RecordFoodError(ctx context.Context, entry types.FoodErrorLog) {
	l := b.logger.With(slog.String("method", "RecordFoodError"), slog.String("userID", entry.UserID))
	l.ErrorContext(ctx, "Food analysis failed", slog.String("errorCode", entry.ErrorCode), slog.String("error", entry.ErrorMessage))

	req, err := prettyJSON(entry.UserRequest)
	if err != nil {
		b.failed(ctx, l, "encode", err)
		return
	}
	rec := FoodErrorRecord{FoodErrorLog: entry, UserRequestJSON: req, CreatedAt: b.now().UTC()}
	b.detach(ctx, l, "food_error", func(wctx context.Context) error {
		return b.store.InsertFoodError(wctx, rec)
	})
}

// Wait blocks until every detached write has finished.
func (b *BestEffortLogger) Wait() {
	b.wg.Wait()
}

// detach runs write on its own goroutine with a context that outlives the request.
func (b *BestEffortLogger) detach(ctx context.Context, l *slog.Logger, kind string, write func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.failed(bg, l, "panic", fmt.Errorf("%s write panicked: %v", kind, r))
			}
		}()

		wctx, cancel := context.WithTimeout(bg, b.writeTimeout)
		defer cancel()
		if err := write(wctx); err != nil {
			b.failed(bg, l, kind, err)
		}
	}()
}

func (b *BestEffortLogger) failed(ctx context.Context, l *slog.Logger, reason string, err error) {
	l.WarnContext(ctx, "Analytics write failed", slog.String("reason", reason), slog.Any("error", err))
	metrics.Get().PromptLogFailuresTotal.Add(ctx, 1, metrics.Outcome(reason))
}

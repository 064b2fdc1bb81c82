//go:build integration

package promo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/flaia-functions/app/db"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// TEST_DATABASE_URL must point at a disposable database.
func TestRedeem_ConcurrentPostgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	require.NoError(t, database.RunMigrations(dsn, logger))
	pool, err := database.Init(dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	code := fmt.Sprintf("T%04d", time.Now().UnixNano()%10000)
	repo := NewRepositoryImpl(pool, logger)
	require.NoError(t, repo.Create(ctx, types.PromoCode{
		Code: code, Type: "multi_use", Status: types.PromoActive, MaxUses: 3, EntitlementID: "Pro", DurationDays: 30,
	}))

	granter := new(MockGranter)
	granter.On("Grant", mock.Anything, mock.Anything, "Pro", DurationMonthly).Return("g", nil)
	granter.On("Revoke", mock.Anything, mock.Anything, "Pro").Return(nil)
	svc := NewServiceImpl(repo, granter, config.PromoConfig{}, logger)

	const callers = 40
	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Redeem(ctx, fmt.Sprintf("stress-%d", i), types.RedeemPromoRequest{Code: code}); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes.Load())
	p, err := repo.Get(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 3, p.UsedCount)
	assert.Equal(t, types.PromoUsed, p.Status)

	var ok int
	for _, r := range p.Redemptions {
		if r.Success {
			ok++
		}
	}
	assert.Equal(t, 3, ok)
}

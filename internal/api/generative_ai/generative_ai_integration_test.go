//go:build integration

package generativeAI

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api/schemas"
)

func TestMain(m *testing.M) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestInvoker_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := NewAIClient(ctx, os.Getenv("GEMINI_API_KEY"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	inv := NewInvoker(client, NewModelConfig(config.AIConfig{}), logger)

	prompt := "Create a one day itinerary for Lisbon with two activities. Respond in English.\n\nTRIP DETAILS:\nDestination: Lisbon\nDates: 2025-06-01 to 2025-06-02 (1 days)"
	gen, err := inv.GenerateJSON(ctx, TextInvocation("initial_search", prompt, schemas.Select(schemas.Itinerary, 2)))
	require.NoError(t, err)
	assert.NotEmpty(t, gen.Data["title"])
	assert.NotEmpty(t, gen.Data["days"])
	assert.Positive(t, gen.Usage.TotalTokens)
}

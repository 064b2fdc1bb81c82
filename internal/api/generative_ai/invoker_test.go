package generativeAI

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/schemas"
)

type MockModelClient struct {
	mock.Mock
}

func (m *MockModelClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func textResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 80,
			TotalTokenCount:      230,
			ThoughtsTokenCount:   30,
		},
	}
}

func setupInvokerTest() (*MockModelClient, *Invoker) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := new(MockModelClient)
	return client, NewInvoker(client, NewModelConfig(config.AIConfig{IncludeThoughts: true}), logger)
}

func TestInvoker_GenerateJSON(t *testing.T) {
	entry := schemas.Select(schemas.Itinerary, 1)
	ctx := context.Background()

	t.Run("success skips thought parts", func(t *testing.T) {
		client, inv := setupInvokerTest()
		resp := textResponse(
			&genai.Part{Text: "thinking...", Thought: true},
			&genai.Part{Text: `{"title":"Paris trip","destination":"Paris",`},
			&genai.Part{Text: `"days":[{"activities":[]}]}`},
		)
		client.On("GenerateContent", mock.Anything, DefaultModel, mock.Anything, mock.MatchedBy(func(c *genai.GenerateContentConfig) bool {
			return c.ResponseMIMEType == "application/json" && c.ResponseSchema == entry.Schema && *c.Temperature == DefaultTemperature
		})).Return(resp, nil).Once()

		gen, err := inv.GenerateJSON(ctx, TextInvocation("initial_search", "prompt", entry))
		require.NoError(t, err)
		assert.Equal(t, "Paris", gen.Data["destination"])
		assert.Equal(t, int32(230), gen.Usage.TotalTokens)
		assert.Equal(t, int32(30), gen.Usage.ThinkingTokens)
		assert.Equal(t, DefaultModel, gen.Model)
		assert.NotContains(t, gen.Text, "thinking")
		client.AssertExpectations(t)
	})

	tests := []struct {
		name       string
		resp       *genai.GenerateContentResponse
		callErr    error
		wantIs     error
		wantCode   api.ErrorCode
		wantParsed bool
	}{
		{"transport failure", nil, errors.New("quota exceeded"), nil, api.CodeAIService, false},
		{"empty text", textResponse(&genai.Part{Text: "  "}), nil, api.ErrEmptyResponse, api.CodeAIService, false},
		{"no candidates", &genai.GenerateContentResponse{}, nil, api.ErrEmptyResponse, api.CodeAIService, false},
		{"not json", textResponse(&genai.Part{Text: "Sure! Here is"}), nil, api.ErrMalformedResponse, api.CodeResponseParsing, true},
		{"json array", textResponse(&genai.Part{Text: `[1,2]`}), nil, api.ErrMalformedResponse, api.CodeResponseParsing, true},
		{"missing required key", textResponse(&genai.Part{Text: `{"title":"x","destination":"Paris"}`}), nil, api.ErrSchemaViolation, api.CodeResponseParsing, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, inv := setupInvokerTest()
			client.On("GenerateContent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tc.resp, tc.callErr).Once()

			gen, err := inv.GenerateJSON(ctx, TextInvocation("initial_search", "prompt", entry))
			require.Error(t, err)
			assert.Nil(t, gen)

			var me *api.ModelServiceError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tc.wantParsed, me.Parsing())
			if tc.wantIs != nil {
				assert.ErrorIs(t, err, tc.wantIs)
			}
			assert.Equal(t, tc.wantCode, api.EnvelopeCodeOf(err))
			client.AssertNumberOfCalls(t, "GenerateContent", 1)
		})
	}
}

func TestModelConfig(t *testing.T) {
	mc := NewModelConfig(config.AIConfig{})
	assert.Equal(t, DefaultModel, mc.Model())

	c1 := mc.GenerateContentConfig(nil)
	c2 := mc.GenerateContentConfig(nil)
	*c1.Temperature = 1.0
	assert.Equal(t, DefaultTemperature, *c2.Temperature)
	assert.Equal(t, DefaultMaxOutputTokens, c2.MaxOutputTokens)
	assert.Equal(t, DefaultThinkingBudget, *c2.ThinkingConfig.ThinkingBudget)

	snap := mc.Snapshot()
	assert.Equal(t, "application/json", snap.ResponseMIMEType)
	assert.Equal(t, DefaultTemperature, snap.Temperature)
}

package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/FACorreiaa/flaia-functions/app/observability/metrics"
	"github.com/FACorreiaa/flaia-functions/internal/api"
	"github.com/FACorreiaa/flaia-functions/internal/api/schemas"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

// Invocation is one structured-output request.
type Invocation struct {
	Operation string
	Parts     []*genai.Part
	Entry     schemas.Entry
}

// TextInvocation is a prompt-only invocation.
func TextInvocation(operation, prompt string, entry schemas.Entry) Invocation {
	return Invocation{Operation: operation, Parts: []*genai.Part{genai.NewPartFromText(prompt)}, Entry: entry}
}

// Generation is a parsed, checked model answer.
type Generation struct {
	Data    map[string]any
	Text    string
	Usage   types.TokenUsage
	Latency time.Duration
	Model   string
}

// Invoker sends invocations to the model and turns the answer into checked JSON.
// Calls are never retried.
type Invoker struct {
	client ModelClient
	config ModelConfig
	logger *slog.Logger
}

func NewInvoker(client ModelClient, cfg ModelConfig, logger *slog.Logger) *Invoker {
	return &Invoker{client: client, config: cfg, logger: logger}
}

func (i *Invoker) Config() ModelConfig { return i.config }

// GenerateJSON fails with *api.ModelServiceError wrapping ErrEmptyResponse,
// ErrMalformedResponse or ErrSchemaViolation; it never returns partial data.
func (i *Invoker) GenerateJSON(ctx context.Context, inv Invocation) (*Generation, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateJSON", trace.WithAttributes(
		attribute.String("operation", inv.Operation),
		attribute.String("schema.name", string(inv.Entry.Name)),
		attribute.Int("schema.version", inv.Entry.Version),
		attribute.String("model", i.config.Model()),
	))
	defer span.End()
	l := i.logger.With(slog.String("method", "GenerateJSON"), slog.String("operation", inv.Operation))

	contents := []*genai.Content{genai.NewContentFromParts(inv.Parts, genai.RoleUser)}
	start := time.Now()
	resp, err := i.client.GenerateContent(ctx, i.config.Model(), contents, i.config.GenerateContentConfig(inv.Entry.Schema))
	latency := time.Since(start)

	gen, err := i.parse(resp, err, inv.Entry)
	i.observe(ctx, inv.Operation, latency, err)
	if err != nil {
		l.ErrorContext(ctx, "Model invocation failed", slog.Any("error", err), slog.Duration("latency", latency))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Model invocation failed")
		return nil, err
	}

	gen.Latency = latency
	span.SetAttributes(
		attribute.Int("response.length", len(gen.Text)),
		attribute.Int("tokens.total", int(gen.Usage.TotalTokens)),
	)
	span.SetStatus(codes.Ok, "Model invocation succeeded")
	l.DebugContext(ctx, "Model invocation succeeded", slog.Duration("latency", latency), slog.Int("total_tokens", int(gen.Usage.TotalTokens)))
	return gen, nil
}

func (i *Invoker) parse(resp *genai.GenerateContentResponse, callErr error, entry schemas.Entry) (*Generation, error) {
	if callErr != nil {
		return nil, &api.ModelServiceError{Err: fmt.Errorf("model call failed: %w", callErr)}
	}
	text := ResponseText(resp)
	if strings.TrimSpace(text) == "" {
		return nil, &api.ModelServiceError{Err: api.ErrEmptyResponse}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		if err == nil {
			err = errors.New("top level is not an object")
		}
		return nil, &api.ModelServiceError{Err: fmt.Errorf("%w: %v", api.ErrMalformedResponse, err)}
	}
	if entry.Check != nil {
		if err := entry.Check(doc); err != nil {
			return nil, &api.ModelServiceError{Err: fmt.Errorf("%w: %v", api.ErrSchemaViolation, err)}
		}
	}
	return &Generation{
		Data:  doc,
		Text:  text,
		Usage: UsageFromResponse(resp),
		Model: i.config.Model(),
	}, nil
}

func (i *Invoker) observe(ctx context.Context, operation string, latency time.Duration, err error) {
	m := metrics.Get()
	outcome := "success"
	var me *api.ModelServiceError
	if errors.As(err, &me) {
		outcome = "unavailable"
		if me.Parsing() {
			outcome = "parse_error"
		} else if errors.Is(err, api.ErrEmptyResponse) {
			outcome = "empty"
		}
	}
	m.ModelRequestsTotal.Add(ctx, 1, metrics.Outcome(outcome, attribute.String("operation", operation)))
	m.ModelDurationSeconds.Record(ctx, latency.Seconds())
}

// ResponseText concatenates the text parts of the first candidate, skipping thoughts.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// UsageFromResponse extracts the token counters reported by the model.
func UsageFromResponse(resp *genai.GenerateContentResponse) types.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return types.TokenUsage{}
	}
	u := resp.UsageMetadata
	return types.TokenUsage{
		PromptTokens:     u.PromptTokenCount,
		CandidatesTokens: u.CandidatesTokenCount,
		TotalTokens:      u.TotalTokenCount,
		ThinkingTokens:   u.ThoughtsTokenCount,
		CachedTokens:     u.CachedContentTokenCount,
		ToolUseTokens:    u.ToolUsePromptTokenCount,
		TrafficType:      string(u.TrafficType),
	}
}

package generativeAI

import (
	"google.golang.org/genai"

	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/types"
)

const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = float32(0.25)
	DefaultMaxOutputTokens = int32(24000)
	DefaultThinkingBudget  = int32(1250)
	ResponseMIMEType       = "application/json"
)

// ModelConfig is the generation configuration shared by every call. It is built
// once at start-up and passed by value; fields are unexported so it cannot drift.
type ModelConfig struct {
	model           string
	temperature     float32
	maxOutputTokens int32
	thinkingBudget  int32
	includeThoughts bool
}

// NewModelConfig builds a ModelConfig, filling zero values with defaults.
func NewModelConfig(cfg config.AIConfig) ModelConfig {
	mc := ModelConfig{
		model:           cfg.Model,
		temperature:     cfg.Temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
		thinkingBudget:  cfg.ThinkingBudget,
		includeThoughts: cfg.IncludeThoughts,
	}
	if mc.model == "" {
		mc.model = DefaultModel
	}
	if mc.temperature == 0 {
		mc.temperature = DefaultTemperature
	}
	if mc.maxOutputTokens == 0 {
		mc.maxOutputTokens = DefaultMaxOutputTokens
	}
	if mc.thinkingBudget == 0 {
		mc.thinkingBudget = DefaultThinkingBudget
	}
	return mc
}

func (c ModelConfig) Model() string { return c.model }

// GenerateContentConfig returns a fresh request config bound to schema.
func (c ModelConfig) GenerateContentConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		MaxOutputTokens:  c.maxOutputTokens,
		ResponseMIMEType: ResponseMIMEType,
		ResponseSchema:   schema,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: c.includeThoughts,
			ThinkingBudget:  genai.Ptr(c.thinkingBudget),
		},
	}
}

// Snapshot is the config as recorded in prompt logs.
func (c ModelConfig) Snapshot() types.AIConfigSnapshot {
	return types.AIConfigSnapshot{
		Model:            c.model,
		Temperature:      c.temperature,
		MaxOutputTokens:  c.maxOutputTokens,
		ResponseMIMEType: ResponseMIMEType,
		ThinkingBudget:   c.thinkingBudget,
		IncludeThoughts:  c.includeThoughts,
	}
}

package types

import "time"

type TokenUsage struct {
	PromptTokens     int32  `json:"prompt_tokens" bson:"prompt_tokens"`
	CandidatesTokens int32  `json:"candidates_tokens" bson:"candidates_tokens"`
	TotalTokens      int32  `json:"total_tokens" bson:"total_tokens"`
	ThinkingTokens   int32  `json:"thinking_tokens,omitempty" bson:"thinking_tokens,omitempty"`
	CachedTokens     int32  `json:"cached_tokens,omitempty" bson:"cached_tokens,omitempty"`
	ToolUseTokens    int32  `json:"tool_use_tokens,omitempty" bson:"tool_use_tokens,omitempty"`
	TrafficType      string `json:"traffic_type,omitempty" bson:"traffic_type,omitempty"`
	ImageTokens      int32  `json:"image_tokens,omitempty" bson:"image_tokens,omitempty"`
}

// AIConfigSnapshot is the generation config recorded next to each prompt.
type AIConfigSnapshot struct {
	Model            string  `json:"model" bson:"model"`
	Temperature      float32 `json:"temperature" bson:"temperature"`
	MaxOutputTokens  int32   `json:"max_output_tokens" bson:"max_output_tokens"`
	ResponseMIMEType string  `json:"response_mime_type" bson:"response_mime_type"`
	ThinkingBudget   int32   `json:"thinking_budget" bson:"thinking_budget"`
	IncludeThoughts  bool    `json:"include_thoughts" bson:"include_thoughts"`
}

type Performance struct {
	ResponseTimeMS int64          `json:"response_time_ms" bson:"response_time_ms"`
	Success        bool           `json:"success" bson:"success"`
	Extra          map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`
}

// PromptLog is one analytics record of a model interaction.
type PromptLog struct {
	UserID      string           `json:"user_id" bson:"user_id"`
	PromptType  string           `json:"prompt_type" bson:"prompt_type"`
	UserRequest any              `json:"user_request" bson:"-"`
	PromptText  string           `json:"prompt_text" bson:"prompt_text"`
	LLMResponse any              `json:"llm_response" bson:"-"`
	TokenUsage  TokenUsage       `json:"token_usage" bson:"token_usage"`
	AIConfig    AIConfigSnapshot `json:"ai_config" bson:"ai_config"`
	Performance Performance      `json:"performance" bson:"performance"`
	SessionID   string           `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

// FoodErrorLog records a failed food analysis.
type FoodErrorLog struct {
	UserID         string
	PromptType     string
	SessionID      string
	ErrorCode      string
	ErrorMessage   string
	UserRequest    any
	PromptText     string
	ResponseTimeMS int64
}

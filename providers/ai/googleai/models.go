package googleai

import (
	"encoding/json"

	"github.com/leofalp/fireai/providers/ai"
)

/*
	##### REQUEST #####
*/

// GenerateContentRequest is the Gemini Developer API generation request. It
// differs from the canonical request in its safety settings and generation
// config only.
type GenerateContentRequest struct {
	Contents          []ai.Content      `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []SafetySetting   `json:"safetySettings,omitempty"`
	Tools             []ai.Tool         `json:"tools,omitempty"`
	ToolConfig        *ai.ToolConfig    `json:"toolConfig,omitempty"`
	SystemInstruction *ai.Content       `json:"systemInstruction,omitempty"`
}

// GenerationConfig accepts only an integral topK.
type GenerationConfig struct {
	CandidateCount     *int               `json:"candidateCount,omitempty"`
	MaxOutputTokens    *int               `json:"maxOutputTokens,omitempty"`
	Temperature        *float64           `json:"temperature,omitempty"`
	TopP               *float64           `json:"topP,omitempty"`
	TopK               *int               `json:"topK,omitempty"`
	PresencePenalty    *float64           `json:"presencePenalty,omitempty"`
	FrequencyPenalty   *float64           `json:"frequencyPenalty,omitempty"`
	StopSequences      []string           `json:"stopSequences,omitempty"`
	ResponseMimeType   string             `json:"responseMimeType,omitempty"`
	ResponseSchema     *ai.Schema         `json:"responseSchema,omitempty"`
	ResponseModalities []string           `json:"responseModalities,omitempty"`
	ThinkingConfig     *ai.ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// SafetySetting has no method field in this dialect.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// CountTokensRequest wraps a full generation request with its model name.
type CountTokensRequest struct {
	GenerateContentRequest CountTokensGenerateContentRequest `json:"generateContentRequest"`
}

type CountTokensGenerateContentRequest struct {
	Model             string            `json:"model"`
	Contents          []ai.Content      `json:"contents"`
	SystemInstruction *ai.Content       `json:"systemInstruction,omitempty"`
	Tools             []ai.Tool         `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

/*
	##### RESPONSE #####
*/

// GenerateContentResponse is the Gemini Developer API generation response.
type GenerateContentResponse struct {
	Candidates     []Candidate       `json:"candidates,omitempty"`
	PromptFeedback *PromptFeedback   `json:"promptFeedback,omitempty"`
	UsageMetadata  *ai.UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate may omit index when it is zero.
type Candidate struct {
	Index              int                    `json:"index,omitempty"`
	Content            *Content               `json:"content,omitempty"`
	FinishReason       string                 `json:"finishReason,omitempty"`
	FinishMessage      string                 `json:"finishMessage,omitempty"`
	SafetyRatings      []SafetyRating         `json:"safetyRatings,omitempty"`
	CitationMetadata   *CitationMetadata      `json:"citationMetadata,omitempty"`
	GroundingMetadata  *ai.GroundingMetadata  `json:"groundingMetadata,omitempty"`
	URLContextMetadata *ai.URLContextMetadata `json:"urlContextMetadata,omitempty"`
}

// Content keeps its parts raw so that fields the canonical model has no
// place for (videoMetadata) can be detected.
type Content struct {
	Role  string            `json:"role,omitempty"`
	Parts []json.RawMessage `json:"parts"`
}

// SafetyRating leaves severity and scores out when the backend does not
// compute them.
type SafetyRating struct {
	Category         string   `json:"category"`
	Probability      string   `json:"probability"`
	Severity         *string  `json:"severity,omitempty"`
	ProbabilityScore *float64 `json:"probabilityScore,omitempty"`
	SeverityScore    *float64 `json:"severityScore,omitempty"`
	Blocked          bool     `json:"blocked,omitempty"`
}

// CitationMetadata names its list citationSources.
type CitationMetadata struct {
	CitationSources []ai.Citation `json:"citationSources"`
}

type PromptFeedback struct {
	BlockReason        string         `json:"blockReason,omitempty"`
	BlockReasonMessage string         `json:"blockReasonMessage,omitempty"`
	SafetyRatings      []SafetyRating `json:"safetyRatings,omitempty"`
}

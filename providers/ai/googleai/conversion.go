package googleai

import (
	"encoding/json"
	"log/slog"
	"math"

	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
)

// MapGenerateContentRequest converts a canonical request into this dialect.
// A safety setting with a method is rejected as unsupported; a fractional
// topK is rounded with a warning. The input is never modified.
func MapGenerateContentRequest(request ai.GenerateContentRequest) (*GenerateContentRequest, error) {
	safetySettings, err := mapSafetySettings(request.SafetySettings)
	if err != nil {
		return nil, err
	}

	return &GenerateContentRequest{
		Contents:          request.Contents,
		GenerationConfig:  mapGenerationConfig(request.GenerationConfig),
		SafetySettings:    safetySettings,
		Tools:             request.Tools,
		ToolConfig:        request.ToolConfig,
		SystemInstruction: request.SystemInstruction,
	}, nil
}

// MapCountTokensRequest wraps a canonical count request together with the
// normalised model name. Absent optional fields stay absent.
func MapCountTokensRequest(request ai.CountTokensRequest, model string) *CountTokensRequest {
	return &CountTokensRequest{
		GenerateContentRequest: CountTokensGenerateContentRequest{
			Model:             model,
			Contents:          request.Contents,
			SystemInstruction: request.SystemInstruction,
			Tools:             request.Tools,
			GenerationConfig:  mapGenerationConfig(request.GenerationConfig),
		},
	}
}

// MapGenerateContentResponse converts a response of this dialect into the
// canonical shape: citationSources become citations, missing safety severity
// and scores get their defaults, and a part with videoMetadata is rejected as
// unsupported.
func MapGenerateContentResponse(response GenerateContentResponse) (*ai.GenerateContentResponse, error) {
	mapped := &ai.GenerateContentResponse{UsageMetadata: response.UsageMetadata}

	if response.Candidates != nil {
		candidates, err := mapCandidates(response.Candidates)
		if err != nil {
			return nil, err
		}
		mapped.Candidates = candidates
	}

	if response.PromptFeedback != nil {
		mapped.PromptFeedback = &ai.PromptFeedback{
			BlockReason:        response.PromptFeedback.BlockReason,
			BlockReasonMessage: response.PromptFeedback.BlockReasonMessage,
			SafetyRatings:      mapSafetyRatings(response.PromptFeedback.SafetyRatings),
		}
	}

	return mapped, nil
}

func mapSafetySettings(settings []ai.SafetySetting) ([]SafetySetting, error) {
	if settings == nil {
		return nil, nil
	}
	mapped := make([]SafetySetting, 0, len(settings))
	for _, setting := range settings {
		if setting.Method != "" {
			return nil, ai.NewError(ai.ErrorCodeUnsupported, "SafetySetting.method is not supported in the Gemini Developer API. Please remove this property.")
		}
		mapped = append(mapped, SafetySetting{Category: setting.Category, Threshold: setting.Threshold})
	}
	return mapped, nil
}

func mapGenerationConfig(config *ai.GenerationConfig) *GenerationConfig {
	if config == nil {
		return nil
	}

	mapped := &GenerationConfig{
		CandidateCount:     config.CandidateCount,
		MaxOutputTokens:    config.MaxOutputTokens,
		Temperature:        config.Temperature,
		TopP:               config.TopP,
		PresencePenalty:    config.PresencePenalty,
		FrequencyPenalty:   config.FrequencyPenalty,
		StopSequences:      config.StopSequences,
		ResponseMimeType:   config.ResponseMimeType,
		ResponseSchema:     config.ResponseSchema,
		ResponseModalities: config.ResponseModalities,
		ThinkingConfig:     config.ThinkingConfig,
	}

	if config.TopK != nil {
		rounded := math.Round(*config.TopK)
		if rounded != *config.TopK {
			slog.Warn("topK in GenerationConfig has been rounded to the nearest integer to match the format for requests to the Gemini Developer API.",
				"topK", *config.TopK, "rounded", rounded)
		}
		mapped.TopK = utils.Ptr(int(rounded))
	}

	return mapped
}

func mapCandidates(candidates []Candidate) ([]ai.Candidate, error) {
	mapped := make([]ai.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		content, err := mapContent(candidate.Content)
		if err != nil {
			return nil, err
		}

		var citationMetadata *ai.CitationMetadata
		if candidate.CitationMetadata != nil {
			citationMetadata = &ai.CitationMetadata{Citations: candidate.CitationMetadata.CitationSources}
		}

		mapped = append(mapped, ai.Candidate{
			Index:              candidate.Index,
			Content:            content,
			FinishReason:       candidate.FinishReason,
			FinishMessage:      candidate.FinishMessage,
			SafetyRatings:      mapSafetyRatings(candidate.SafetyRatings),
			CitationMetadata:   citationMetadata,
			GroundingMetadata:  candidate.GroundingMetadata,
			URLContextMetadata: candidate.URLContextMetadata,
		})
	}
	return mapped, nil
}

func mapContent(content *Content) (*ai.Content, error) {
	if content == nil {
		return nil, nil
	}

	mapped := &ai.Content{Role: content.Role}
	if content.Parts == nil {
		return mapped, nil
	}

	mapped.Parts = make(ai.Parts, 0, len(content.Parts))
	for _, raw := range content.Parts {
		var probe struct {
			VideoMetadata json.RawMessage `json:"videoMetadata"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, ai.WrapError(ai.ErrorCodeParseFailed, "failed to parse response part", err)
		}
		if len(probe.VideoMetadata) > 0 {
			return nil, ai.NewError(ai.ErrorCodeUnsupported, "Part.videoMetadata is not supported in the Gemini Developer API. Please remove this property.")
		}

		part, err := ai.UnmarshalPart(raw)
		if err != nil {
			return nil, err
		}
		mapped.Parts = append(mapped.Parts, part)
	}
	return mapped, nil
}

func mapSafetyRatings(ratings []SafetyRating) []ai.SafetyRating {
	if ratings == nil {
		return nil
	}
	mapped := make([]ai.SafetyRating, 0, len(ratings))
	for _, rating := range ratings {
		mapped = append(mapped, ai.SafetyRating{
			Category:         rating.Category,
			Probability:      rating.Probability,
			Severity:         utils.Deref(rating.Severity, ai.HarmSeverityUnsupported),
			ProbabilityScore: utils.Deref(rating.ProbabilityScore, 0),
			SeverityScore:    utils.Deref(rating.SeverityScore, 0),
			Blocked:          rating.Blocked,
		})
	}
	return mapped
}

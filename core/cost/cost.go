package cost

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/leofalp/fireai/providers/ai"
)

// ModelCost represents the pricing structure of a model.
// Costs are expressed in USD per million tokens.
//
// Example usage:
//
//	modelCost := cost.ModelCost{
//	    InputCostPerMillion:       0.30,
//	    OutputCostPerMillion:      2.50,
//	    CachedInputCostPerMillion: 0.075,
//	}
type ModelCost struct {
	// InputCostPerMillion is the cost in USD per 1 million prompt tokens
	InputCostPerMillion float64 `json:"input_cost_per_million"`

	// OutputCostPerMillion is the cost in USD per 1 million candidate tokens
	OutputCostPerMillion float64 `json:"output_cost_per_million"`

	// CachedInputCostPerMillion is the cost in USD per 1 million prompt
	// tokens served from the context cache. Zero means cached tokens are
	// billed at the input rate.
	CachedInputCostPerMillion float64 `json:"cached_input_cost_per_million,omitempty"`

	// ThinkingCostPerMillion is the cost in USD per 1 million thinking
	// tokens. Zero means thinking is billed at the output rate.
	ThinkingCostPerMillion float64 `json:"thinking_cost_per_million,omitempty"`
}

func perMillion(tokens int, rate float64) float64 {
	return (float64(tokens) / 1_000_000.0) * rate
}

// String returns a formatted string representation of the model costs.
func (mc ModelCost) String() string {
	return fmt.Sprintf("Input: $%.6f/M, Output: $%.6f/M",
		mc.InputCostPerMillion, mc.OutputCostPerMillion)
}

// Breakdown is the estimated cost of a single request.
type Breakdown struct {
	Model          string  `json:"model"`
	InputTokens    int     `json:"input_tokens"`
	CachedTokens   int     `json:"cached_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	ThinkingTokens int     `json:"thinking_tokens"`
	InputCost      float64 `json:"input_cost"`
	CachedCost     float64 `json:"cached_cost"`
	OutputCost     float64 `json:"output_cost"`
	ThinkingCost   float64 `json:"thinking_cost"`
	TotalCost      float64 `json:"total_cost"`
}

// String formats the total in USD.
func (b Breakdown) String() string {
	return fmt.Sprintf("$%.6f", b.TotalCost)
}

// Calculate prices a usage report with mc. Prompt tokens served from the
// cache are taken out of the input count and billed at the cached rate.
func (mc ModelCost) Calculate(usage *ai.UsageMetadata) Breakdown {
	if usage == nil {
		return Breakdown{}
	}

	cached := min(usage.CachedContentTokenCount, usage.PromptTokenCount)
	b := Breakdown{
		InputTokens:    usage.PromptTokenCount + usage.ToolUsePromptTokenCount - cached,
		CachedTokens:   cached,
		OutputTokens:   usage.CandidatesTokenCount,
		ThinkingTokens: usage.ThoughtsTokenCount,
	}

	cachedRate := mc.CachedInputCostPerMillion
	if cachedRate == 0 {
		cachedRate = mc.InputCostPerMillion
	}
	thinkingRate := mc.ThinkingCostPerMillion
	if thinkingRate == 0 {
		thinkingRate = mc.OutputCostPerMillion
	}

	b.InputCost = perMillion(b.InputTokens, mc.InputCostPerMillion)
	b.CachedCost = perMillion(b.CachedTokens, cachedRate)
	b.OutputCost = perMillion(b.OutputTokens, mc.OutputCostPerMillion)
	b.ThinkingCost = perMillion(b.ThinkingTokens, thinkingRate)
	b.TotalCost = b.InputCost + b.CachedCost + b.OutputCost + b.ThinkingCost
	return b
}

// Pricing holds the standard-tier rates of the Gemini models, keyed by base
// model name. Cached input is billed at a quarter of the input rate.
var Pricing = map[string]ModelCost{
	"gemini-2.5-pro": {
		InputCostPerMillion:       1.25,
		OutputCostPerMillion:      10.00,
		CachedInputCostPerMillion: 0.31,
	},
	"gemini-2.5-flash": {
		InputCostPerMillion:       0.30,
		OutputCostPerMillion:      2.50,
		CachedInputCostPerMillion: 0.075,
	},
	"gemini-2.5-flash-lite": {
		InputCostPerMillion:       0.10,
		OutputCostPerMillion:      0.40,
		CachedInputCostPerMillion: 0.025,
	},
	"gemini-2.0-flash": {
		InputCostPerMillion:       0.10,
		OutputCostPerMillion:      0.40,
		CachedInputCostPerMillion: 0.025,
	},
	"gemini-2.0-flash-lite": {
		InputCostPerMillion:  0.075,
		OutputCostPerMillion: 0.30,
	},
	"gemini-3-pro-preview": {
		InputCostPerMillion:       2.00,
		OutputCostPerMillion:      12.00,
		CachedInputCostPerMillion: 0.20,
	},
	"gemini-3-flash-preview": {
		InputCostPerMillion:       0.50,
		OutputCostPerMillion:      3.00,
		CachedInputCostPerMillion: 0.05,
	},
}

// versionSuffix matches pinned versions ("-001") and dated previews
// ("-preview-06-17").
var versionSuffix = regexp.MustCompile(`-(\d{3}|latest|exp(-\d{4})?|preview-\d{2}-\d{2})$`)

// NormalizeModelName strips the resource path and version suffix of a model
// name, e.g. "publishers/google/models/gemini-2.5-flash-001" becomes
// "gemini-2.5-flash".
func NormalizeModelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return versionSuffix.ReplaceAllString(model, "")
}

// Lookup returns the rates of model, reporting whether they are known.
func Lookup(model string) (ModelCost, bool) {
	if mc, ok := Pricing[model]; ok {
		return mc, true
	}
	mc, ok := Pricing[NormalizeModelName(model)]
	return mc, ok
}

// Estimate prices usage for model. It reports false when the model has no
// known rates.
func Estimate(model string, usage *ai.UsageMetadata) (Breakdown, bool) {
	mc, ok := Lookup(model)
	if !ok || usage == nil {
		return Breakdown{Model: model}, false
	}
	b := mc.Calculate(usage)
	b.Model = model
	return b, true
}

package cost

import (
	"math"
	"testing"

	"github.com/leofalp/fireai/providers/ai"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestModelCostCalculate verifies the per-category split and the total.
func TestModelCostCalculate(t *testing.T) {
	mc := ModelCost{
		InputCostPerMillion:       2.00,
		OutputCostPerMillion:      10.00,
		CachedInputCostPerMillion: 0.50,
		ThinkingCostPerMillion:    8.00,
	}

	b := mc.Calculate(&ai.UsageMetadata{
		PromptTokenCount:        1_000_000,
		CachedContentTokenCount: 500_000,
		CandidatesTokenCount:    100_000,
		ThoughtsTokenCount:      250_000,
	})

	if b.InputTokens != 500_000 || b.CachedTokens != 500_000 {
		t.Errorf("expected 500k input and 500k cached tokens, got %d and %d", b.InputTokens, b.CachedTokens)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"input", b.InputCost, 1.00},
		{"cached", b.CachedCost, 0.25},
		{"output", b.OutputCost, 1.00},
		{"thinking", b.ThinkingCost, 2.00},
		{"total", b.TotalCost, 4.25},
	}
	for _, check := range checks {
		if !approxEqual(check.got, check.want) {
			t.Errorf("%s: expected %f, got %f", check.name, check.want, check.got)
		}
	}
}

// TestModelCostCalculate_Fallbacks verifies that missing cached and thinking
// rates fall back to the input and output rates.
func TestModelCostCalculate_Fallbacks(t *testing.T) {
	mc := ModelCost{InputCostPerMillion: 1.00, OutputCostPerMillion: 4.00}

	b := mc.Calculate(&ai.UsageMetadata{
		PromptTokenCount:        1_000_000,
		CachedContentTokenCount: 2_000_000,
		ThoughtsTokenCount:      1_000_000,
	})

	if b.CachedTokens != 1_000_000 || b.InputTokens != 0 {
		t.Errorf("expected cached tokens capped at the prompt, got %d cached and %d input", b.CachedTokens, b.InputTokens)
	}
	if !approxEqual(b.TotalCost, 5.00) {
		t.Errorf("expected total 5.00, got %f", b.TotalCost)
	}
}

// TestModelCostCalculate_NilUsage verifies the zero breakdown.
func TestModelCostCalculate_NilUsage(t *testing.T) {
	if b := (ModelCost{InputCostPerMillion: 1}).Calculate(nil); b.TotalCost != 0 {
		t.Errorf("expected zero cost, got %f", b.TotalCost)
	}
}

// TestNormalizeModelName verifies resource paths and version suffixes.
func TestNormalizeModelName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"gemini-2.5-flash", "gemini-2.5-flash"},
		{"gemini-2.0-flash-001", "gemini-2.0-flash"},
		{"gemini-2.5-flash-lite-preview-06-17", "gemini-2.5-flash-lite"},
		{"gemini-2.5-pro-latest", "gemini-2.5-pro"},
		{"publishers/google/models/gemini-2.5-flash", "gemini-2.5-flash"},
		{"models/gemini-2.0-flash-exp", "gemini-2.0-flash"},
		{"gemini-3-pro-preview", "gemini-3-pro-preview"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeModelName(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestEstimate verifies known and unknown models.
func TestEstimate(t *testing.T) {
	usage := &ai.UsageMetadata{PromptTokenCount: 1_000_000, CandidatesTokenCount: 1_000_000}

	b, ok := Estimate("publishers/google/models/gemini-2.5-flash-001", usage)
	if !ok {
		t.Fatal("expected the model to be priced")
	}
	if !approxEqual(b.TotalCost, 2.80) {
		t.Errorf("expected 2.80, got %f", b.TotalCost)
	}
	if b.String() != "$2.800000" {
		t.Errorf("unexpected string %q", b.String())
	}

	if _, ok := Estimate("imagen-3.0-generate-002", usage); ok {
		t.Error("expected imagen to have no token pricing")
	}
	if _, ok := Estimate("gemini-2.5-flash", nil); ok {
		t.Error("expected no estimate without usage")
	}
}

// TestModelCostString verifies the rate summary.
func TestModelCostString(t *testing.T) {
	mc := Pricing["gemini-2.5-pro"]
	if got := mc.String(); got != "Input: $1.250000/M, Output: $10.000000/M" {
		t.Errorf("unexpected string %q", got)
	}
}

// Package cost estimates the price of generation requests from the token
// counts the backend reports in [ai.UsageMetadata].
//
// [ModelCost] holds per-million-token rates, [Pricing] the published rates of
// the Gemini models and [Estimate] turns a usage report into a [Breakdown].
// Estimates use the standard context tier and ignore per-modality rates, so
// they are indicative only.
package cost

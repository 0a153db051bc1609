package ai

import "sort"

// Aggregate merges the partial responses of one stream into a single
// response. Candidates are merged by index: parts are appended in arrival
// order (empty text parts are dropped, adjacent texts are not joined), the
// latest non-empty finish reason, finish message, safety ratings, citation
// and grounding metadata win, and URL context metadata keeps the first
// non-empty value. Prompt feedback and usage keep the latest non-nil value.
func Aggregate(responses []*GenerateContentResponse) *GenerateContentResponse {
	aggregated := &GenerateContentResponse{}
	candidates := map[int]*Candidate{}

	for _, response := range responses {
		if response == nil {
			continue
		}
		if response.PromptFeedback != nil {
			aggregated.PromptFeedback = response.PromptFeedback
		}
		if response.UsageMetadata != nil {
			aggregated.UsageMetadata = response.UsageMetadata
		}

		for _, candidate := range response.Candidates {
			merged, exists := candidates[candidate.Index]
			if !exists {
				merged = &Candidate{Index: candidate.Index}
				candidates[candidate.Index] = merged
			}
			mergeCandidate(merged, candidate)
		}
	}

	if len(candidates) == 0 {
		return aggregated
	}

	indices := make([]int, 0, len(candidates))
	for index := range candidates {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	aggregated.Candidates = make([]Candidate, 0, len(indices))
	for _, index := range indices {
		aggregated.Candidates = append(aggregated.Candidates, *candidates[index])
	}
	return aggregated
}

func mergeCandidate(merged *Candidate, candidate Candidate) {
	if candidate.FinishReason != "" {
		merged.FinishReason = candidate.FinishReason
	}
	if candidate.FinishMessage != "" {
		merged.FinishMessage = candidate.FinishMessage
	}
	if len(candidate.SafetyRatings) > 0 {
		merged.SafetyRatings = candidate.SafetyRatings
	}
	if candidate.CitationMetadata != nil {
		merged.CitationMetadata = candidate.CitationMetadata
	}
	if candidate.GroundingMetadata != nil {
		merged.GroundingMetadata = candidate.GroundingMetadata
	}
	if merged.URLContextMetadata == nil && candidate.URLContextMetadata != nil && len(candidate.URLContextMetadata.URLMetadata) > 0 {
		merged.URLContextMetadata = candidate.URLContextMetadata
	}

	if candidate.Content == nil || candidate.Content.Parts == nil {
		return
	}
	if merged.Content == nil {
		role := candidate.Content.Role
		if role == "" {
			role = RoleUser
		}
		merged.Content = &Content{Role: role, Parts: Parts{}}
	}

	for _, part := range candidate.Content.Parts {
		// Round-tripping an empty text part makes the backend reject the next
		// request, so it never enters the aggregate.
		if text, isText := part.(TextPart); isText && text.Text == "" {
			continue
		}
		merged.Content.Parts = append(merged.Content.Parts, part)
	}
}

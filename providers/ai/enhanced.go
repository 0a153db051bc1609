package ai

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// blockedFinishReasons make the first candidate unusable for accessors.
var blockedFinishReasons = map[string]bool{
	FinishReasonSafety:     true,
	FinishReasonRecitation: true,
}

// EnhancedResponse wraps a decoded [GenerateContentResponse] with accessors
// that read the first candidate and enforce blocking semantics.
type EnhancedResponse struct {
	*GenerateContentResponse

	warnOnce sync.Once
}

// NewEnhancedResponse wraps response. The response is not copied.
func NewEnhancedResponse(response *GenerateContentResponse) *EnhancedResponse {
	if response == nil {
		response = &GenerateContentResponse{}
	}
	return &EnhancedResponse{GenerateContentResponse: response}
}

// Text concatenates the non-thought text parts of the first candidate.
// It returns "" when there are no candidates and no prompt feedback.
func (r *EnhancedResponse) Text() (string, error) {
	ok, err := r.firstCandidateUsable("Text not available.")
	if !ok || err != nil {
		return "", err
	}
	text, _ := collectText(r.Candidates[0], false)
	return text, nil
}

// ThoughtSummary concatenates the thought text parts of the first candidate.
// The boolean is false when the candidate carries no thought parts at all.
func (r *EnhancedResponse) ThoughtSummary() (string, bool, error) {
	ok, err := r.firstCandidateUsable("Thought summary not available.")
	if !ok || err != nil {
		return "", false, err
	}
	summary, found := collectText(r.Candidates[0], true)
	return summary, found, nil
}

// FunctionCalls returns every function call of the first candidate, or nil
// when there is none.
func (r *EnhancedResponse) FunctionCalls() ([]FunctionCall, error) {
	ok, err := r.firstCandidateUsable("Function call not available.")
	if !ok || err != nil {
		return nil, err
	}

	var calls []FunctionCall
	for _, part := range candidateParts(r.Candidates[0]) {
		if call, isCall := part.(FunctionCallPart); isCall {
			calls = append(calls, call.FunctionCall)
		}
	}
	return calls, nil
}

// InlineDataParts returns every inline data part of the first candidate, or
// nil when there is none.
func (r *EnhancedResponse) InlineDataParts() ([]InlineDataPart, error) {
	ok, err := r.firstCandidateUsable("Data not available.")
	if !ok || err != nil {
		return nil, err
	}

	var data []InlineDataPart
	for _, part := range candidateParts(r.Candidates[0]) {
		if inline, isInline := part.(InlineDataPart); isInline {
			data = append(data, inline)
		}
	}
	return data, nil
}

// firstCandidateUsable applies the validity gate shared by all accessors.
// It returns false without error when there is nothing to read.
func (r *EnhancedResponse) firstCandidateUsable(unavailable string) (bool, error) {
	if len(r.Candidates) > 0 {
		if len(r.Candidates) > 1 {
			r.warnOnce.Do(func() {
				slog.Warn(fmt.Sprintf("This response had %d candidates. Returning only the first candidate. Access response.Candidates directly to use the other candidates.", len(r.Candidates)))
			})
		}
		if HadBadFinishReason(r.Candidates[0]) {
			return false, NewErrorWithData(ErrorCodeResponseError,
				fmt.Sprintf("Response error: %s. Response body stored in error.response", FormatBlockErrorMessage(r.GenerateContentResponse)),
				&CustomErrorData{Response: r.GenerateContentResponse})
		}
		return true, nil
	}

	if r.PromptFeedback != nil {
		return false, NewErrorWithData(ErrorCodeResponseError,
			fmt.Sprintf("%s %s", unavailable, FormatBlockErrorMessage(r.GenerateContentResponse)),
			&CustomErrorData{Response: r.GenerateContentResponse})
	}
	return false, nil
}

// HadBadFinishReason reports whether the candidate was blocked.
func HadBadFinishReason(candidate Candidate) bool {
	return blockedFinishReasons[candidate.FinishReason]
}

// FormatBlockErrorMessage explains why a response was blocked, or returns ""
// when it was not.
func FormatBlockErrorMessage(response *GenerateContentResponse) string {
	var message strings.Builder

	if len(response.Candidates) == 0 && response.PromptFeedback != nil {
		message.WriteString("Response was blocked")
		if response.PromptFeedback.BlockReason != "" {
			message.WriteString(" due to " + response.PromptFeedback.BlockReason)
		}
		if response.PromptFeedback.BlockReasonMessage != "" {
			message.WriteString(": " + response.PromptFeedback.BlockReasonMessage)
		}
	} else if len(response.Candidates) > 0 {
		first := response.Candidates[0]
		if HadBadFinishReason(first) {
			message.WriteString("Candidate was blocked due to " + first.FinishReason)
			if first.FinishMessage != "" {
				message.WriteString(": " + first.FinishMessage)
			}
		}
	}

	return message.String()
}

func candidateParts(candidate Candidate) Parts {
	if candidate.Content == nil {
		return nil
	}
	return candidate.Content.Parts
}

// collectText joins the text parts whose thought flag equals thought.
func collectText(candidate Candidate, thought bool) (string, bool) {
	var builder strings.Builder
	found := false
	for _, part := range candidateParts(candidate) {
		text, isText := part.(TextPart)
		if !isText || text.Thought != thought {
			continue
		}
		found = true
		builder.WriteString(text.Text)
	}
	return builder.String(), found
}

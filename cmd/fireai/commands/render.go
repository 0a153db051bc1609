package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/fireai/core/cost"
	"github.com/leofalp/fireai/providers/ai"
)

// renderOptions selects the optional sections printed after the text.
type renderOptions struct {
	thoughts bool
	usage    bool
	// model prices the usage line; unknown models print tokens only.
	model string
}

// renderResponse prints the text of response followed by function calls,
// grounding sources and, on request, the thought summary and usage.
func renderResponse(w io.Writer, response *ai.EnhancedResponse, options renderOptions) error {
	if options.thoughts {
		summary, ok, err := response.ThoughtSummary()
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(summary), "\n", "\n> "))
		}
	}

	text, err := response.Text()
	if err != nil {
		return err
	}
	if text != "" {
		fmt.Fprintln(w, text)
	}

	calls, err := response.FunctionCalls()
	if err != nil {
		return err
	}
	for _, call := range calls {
		fmt.Fprintf(w, "function call: %s(%s)\n", call.Name, compactJSON(call.Args))
	}

	if err := renderGrounding(w, response); err != nil {
		return err
	}
	if options.usage {
		renderUsage(w, options.model, response.UsageMetadata)
	}
	return nil
}

// renderGrounding prints the search suggestions as Markdown and the web
// sources of the first candidate.
func renderGrounding(w io.Writer, response *ai.EnhancedResponse) error {
	if len(response.Candidates) == 0 || response.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	metadata := response.Candidates[0].GroundingMetadata

	if metadata.SearchEntryPoint != nil && metadata.SearchEntryPoint.RenderedContent != "" {
		markdown, err := htmltomarkdown.ConvertString(metadata.SearchEntryPoint.RenderedContent)
		if err != nil {
			return fmt.Errorf("failed to convert search suggestions to Markdown: %w", err)
		}
		if markdown = strings.TrimSpace(markdown); markdown != "" {
			fmt.Fprintf(w, "\n%s\n", markdown)
		}
	}

	var sources []string
	for _, chunk := range metadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = chunk.Web.URI
		}
		sources = append(sources, fmt.Sprintf("%d. [%s](%s)", len(sources)+1, title, chunk.Web.URI))
	}
	if len(sources) > 0 {
		fmt.Fprintf(w, "\nSources:\n%s\n", strings.Join(sources, "\n"))
	}
	return nil
}

func renderUsage(w io.Writer, model string, usage *ai.UsageMetadata) {
	if usage == nil {
		return
	}
	fmt.Fprintf(w, "\ntokens: prompt=%d candidates=%d thoughts=%d total=%d\n",
		usage.PromptTokenCount, usage.CandidatesTokenCount, usage.ThoughtsTokenCount, usage.TotalTokenCount)
	if estimate, ok := cost.Estimate(model, usage); ok {
		fmt.Fprintf(w, "estimated cost: %s\n", estimate)
	}
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

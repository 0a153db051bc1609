package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/internal/utils"
	"github.com/leofalp/fireai/providers/ai"
)

// Flags shared by generate, stream and chat.
type generationFlags struct {
	system      string
	temperature float64
	maxTokens   int
	search      bool
	thoughts    bool
	usage       bool
}

func (f *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.system, "system", "s", "", "System instruction")
	cmd.Flags().Float64Var(&f.temperature, "temperature", -1, "Sampling temperature (negative keeps the model default)")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "Maximum output tokens (0 keeps the model default)")
	cmd.Flags().BoolVar(&f.search, "search", false, "Ground answers with Google Search")
	cmd.Flags().BoolVar(&f.thoughts, "thoughts", false, "Request and print the thought summary")
	cmd.Flags().BoolVar(&f.usage, "usage", false, "Print token usage")
}

// options turns the flags into model options.
func (f *generationFlags) options() []func(*client.ModelOptions) {
	var options []func(*client.ModelOptions)
	if f.system != "" {
		options = append(options, client.WithSystemInstruction(f.system))
	}

	config := ai.GenerationConfig{}
	if f.temperature >= 0 {
		config.Temperature = utils.Ptr(f.temperature)
	}
	if f.maxTokens > 0 {
		config.MaxOutputTokens = utils.Ptr(f.maxTokens)
	}
	if f.thoughts {
		config.ThinkingConfig = &ai.ThinkingConfig{IncludeThoughts: true}
	}
	options = append(options, client.WithGenerationConfig(config))

	if f.search {
		options = append(options, client.WithTools(ai.Tool{GoogleSearch: &ai.GoogleSearch{}}))
	}
	return options
}

func (f *generationFlags) render(model string) renderOptions {
	return renderOptions{thoughts: f.thoughts, usage: f.usage, model: model}
}

var (
	generateFlags generationFlags
	generateRaw   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt...]",
	Short: "Generate a reply to a prompt",
	Long: `Generate a reply to a prompt given as arguments or on stdin.

Examples:
  fireai generate "Write a haiku about Go"
  fireai generate --search "Who won the last Champions League final?"
  echo "Summarise this" | fireai generate --model gemini-2.5-pro`,
	RunE: runGenerate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().BoolVar(&generateRaw, "raw", false, "Print the response as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	prompt, err := promptFrom(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	model, err := rt.client.GenerativeModel(rt.model(), rt.modelOptions(generateFlags.options()...)...)
	if err != nil {
		return err
	}

	response, err := model.GenerateText(commandContext(cmd), prompt)
	if err != nil {
		return err
	}

	if generateRaw {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(response.GenerateContentResponse)
	}
	return renderResponse(cmd.OutOrStdout(), response, generateFlags.render(rt.model()))
}

var streamFlags generationFlags

var streamCmd = &cobra.Command{
	Use:   "stream [prompt...]",
	Short: "Stream a reply to a prompt as it is generated",
	RunE:  runStream,
}

func init() {
	streamFlags.register(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	prompt, err := promptFrom(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	model, err := rt.client.GenerativeModel(rt.model(), rt.modelOptions(streamFlags.options()...)...)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	stream, err := model.GenerateContentStream(ctx, ai.NewTextPart(prompt))
	if err != nil {
		return err
	}
	return printStream(cmd, stream, streamFlags.render(rt.model()))
}

// printStream writes each chunk's text as it arrives, then the grounding
// and usage of the aggregated response.
func printStream(cmd *cobra.Command, stream *ai.GenerateContentStream, options renderOptions) error {
	out := cmd.OutOrStdout()
	for chunk, err := range stream.Iter() {
		if err != nil {
			return err
		}
		text, err := chunk.Text()
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	}
	fmt.Fprintln(out)

	response, err := stream.Response(commandContext(cmd))
	if err != nil {
		return err
	}
	if err := renderGrounding(out, response); err != nil {
		return err
	}
	if options.usage {
		renderUsage(out, options.model, response.UsageMetadata)
	}
	return nil
}

var countTokensCmd = &cobra.Command{
	Use:   "count-tokens [prompt...]",
	Short: "Count the tokens of a prompt",
	RunE:  runCountTokens,
}

func runCountTokens(cmd *cobra.Command, args []string) error {
	prompt, err := promptFrom(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	model, err := rt.client.GenerativeModel(rt.model(), rt.modelOptions()...)
	if err != nil {
		return err
	}

	response, err := model.CountTokens(commandContext(cmd), ai.NewTextPart(prompt))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total tokens: %d\n", response.TotalTokens)
	if response.TotalBillableCharacters > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "billable characters: %d\n", response.TotalBillableCharacters)
	}
	return nil
}

package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/providers/ai"
	"github.com/leofalp/fireai/providers/ai/live"
)

var (
	liveSystem string
	liveVoice  string
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Open a live text session over WebSocket",
	Long: `Open a bidirectional live session. Each line read from stdin is sent as a
complete turn and the model's text is printed until the turn completes.
Function calls requested by the model are printed and answered with an error,
they are not executed.`,
	Args: cobra.NoArgs,
	RunE: runLive,
}

func init() {
	liveCmd.Flags().StringVarP(&liveSystem, "system", "s", "", "System instruction")
	liveCmd.Flags().StringVar(&liveVoice, "voice", "", "Prebuilt voice name (audio models)")
}

func runLive(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	config := live.LiveGenerationConfig{ResponseModalities: []string{ai.ModalityText}}
	if liveVoice != "" {
		config.SpeechConfig = &live.SpeechConfig{VoiceConfig: &live.VoiceConfig{
			PrebuiltVoiceConfig: &live.PrebuiltVoiceConfig{VoiceName: liveVoice},
		}}
	}
	options := []func(*client.ModelOptions){client.WithLiveGenerationConfig(config)}
	if liveSystem != "" {
		options = append(options, client.WithSystemInstruction(liveSystem))
	}

	model, err := rt.client.LiveGenerativeModel(rt.model(), rt.modelOptions(options...)...)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	session, err := model.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			rt.logger.Warn("closing live session failed", "error", err)
		}
	}()

	return liveLoop(ctx, cmd.OutOrStdout(), session, cmd.InOrStdin())
}

// liveLoop sends one turn per input line and prints the reply of each turn.
func liveLoop(ctx context.Context, out io.Writer, session *live.Session, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			return nil
		}

		if err := session.SendText(ctx, line); err != nil {
			return err
		}
		if err := printLiveTurn(ctx, out, session); err != nil {
			return err
		}
	}
}

// printLiveTurn prints server messages until the model turn completes.
func printLiveTurn(ctx context.Context, out io.Writer, session *live.Session) error {
	for message, err := range session.Receive(ctx) {
		if err != nil {
			return err
		}
		switch message := message.(type) {
		case *live.ServerContent:
			if message.ModelTurn != nil {
				for _, part := range message.ModelTurn.Parts {
					if text, ok := part.(ai.TextPart); ok {
						fmt.Fprint(out, text.Text)
					}
				}
			}
			if message.OutputTranscription != nil {
				fmt.Fprint(out, message.OutputTranscription.Text)
			}
			if message.Interrupted {
				fmt.Fprintln(out, " [interrupted]")
			}
			if message.TurnComplete {
				fmt.Fprintln(out)
				return nil
			}
		case *live.ToolCall:
			responses := make([]ai.FunctionResponse, 0, len(message.FunctionCalls))
			for _, call := range message.FunctionCalls {
				fmt.Fprintf(out, "\nfunction call: %s(%s)\n", call.Name, compactJSON(call.Args))
				responses = append(responses, ai.FunctionResponse{
					ID:       call.ID,
					Name:     call.Name,
					Response: json.RawMessage(`{"error":"function calls are not executed by this client"}`),
				})
			}
			if err := session.SendFunctionResponses(ctx, responses); err != nil {
				return err
			}
		case *live.ToolCallCancellation:
			fmt.Fprintf(out, "\ncancelled function calls: %s\n", strings.Join(message.FunctionIDs, ", "))
		}
	}
	// The session ended before the turn completed.
	return nil
}

package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/fireai/core/client"
	"github.com/leofalp/fireai/providers/ai"
)

var chatFlags generationFlags

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive multi-turn chat",
	Long: `Start an interactive chat. Each line read from stdin is sent as a user
turn and the reply is streamed back. Type /history to print the turns so far
and /exit (or end the input) to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatFlags.register(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	model, err := rt.client.GenerativeModel(rt.model(), rt.modelOptions(chatFlags.options()...)...)
	if err != nil {
		return err
	}
	chat, err := model.StartChat()
	if err != nil {
		return err
	}
	return chatLoop(cmd, chat, cmd.InOrStdin(), chatFlags.render(rt.model()))
}

// chatLoop reads one user turn per line until /exit or EOF.
func chatLoop(cmd *cobra.Command, chat *client.ChatSession, in io.Reader, options renderOptions) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			printHistory(out, chat.History())
			continue
		}

		stream, err := chat.SendMessageStream(commandContext(cmd), ai.NewTextPart(line))
		if err != nil {
			return err
		}
		if err := printStream(cmd, stream, options); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
}

func printHistory(w io.Writer, history []ai.Content) {
	for _, content := range history {
		var text strings.Builder
		for _, part := range content.Parts {
			if textPart, ok := part.(ai.TextPart); ok {
				text.WriteString(textPart.Text)
			}
		}
		fmt.Fprintf(w, "[%s] %s\n", content.Role, strings.TrimSpace(text.String()))
	}
}

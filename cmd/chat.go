package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/logging"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions about the Iris dataset interactively",
	Long: `Start an interactive chat session. Every line is sent to the assistant with
the full conversation so far.

Commands:
  /history  show the chat window
  /quit     leave the session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithLogger(cmd.Context(), logger)
		a, err := newAssistant(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		term := newTerminal(out, a.Language())
		session := chat.NewSession()
		logger.Debug("chat session started", "session_id", session.ID)

		term.Title("AI Powered Dashboard")
		fmt.Fprintln(out, "Ask a question about Iris Dataset (/history, /quit)")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				break
			}

			line := scanner.Text()
			switch strings.TrimSpace(line) {
			case "/quit", "/exit":
				return nil
			case "/history":
				term.ChatWindow(session.History.All())
				continue
			}

			term.Outcome(a.Submit(ctx, session, line))
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

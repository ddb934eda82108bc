package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/irisdash/internal/chat"
	"github.com/itsmostafa/irisdash/internal/logging"
)

var askHistory bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question about the Iris dataset",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithLogger(cmd.Context(), logger)
		a, err := newAssistant(ctx)
		if err != nil {
			return err
		}

		term := newTerminal(cmd.OutOrStdout(), a.Language())
		session := chat.NewSession()
		term.Outcome(a.Submit(ctx, session, strings.Join(args, " ")))
		if askHistory {
			term.ChatWindow(session.History.All())
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askHistory, "history", false, "Show the chat window after the answer")
	rootCmd.AddCommand(askCmd)
}

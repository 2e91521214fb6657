package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pet-assistant/backend/internal/engine"
	"github.com/pet-assistant/backend/internal/provider"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			catalog, err := a.loader.Get(ctx)
			if err != nil {
				return err
			}

			entry := a.logger.WithField("component", "chat")
			llm, err := provider.New(a.cfg.LLM, entry)
			if err != nil {
				return err
			}

			eng := engine.NewEngine(a.cfg, entry, catalog, llm)
			return runChat(ctx, eng.NewConversation(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// responder is the part of engine.Conversation the REPL drives.
type responder interface {
	Respond(ctx context.Context, userInput string) (*engine.Turn, error)
}

// runChat reads user lines until exit/quit or EOF. Blank lines are skipped.
// Turn errors are printed and the loop continues.
func runChat(ctx context.Context, conv responder, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Pet Assistant — type 'exit' to quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "User: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if engine.IsExit(input) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		turn, err := conv.Respond(ctx, input)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		if !turn.ToolUsed {
			fmt.Fprintln(out, engine.LocalMatchNotice)
		}
		fmt.Fprintln(out, "\nAssistant:", turn.Reply)
	}
}

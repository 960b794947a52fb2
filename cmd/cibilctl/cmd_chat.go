package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"cibil-store/internal/dispatch"
	"cibil-store/internal/domain/entity"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
)

var conversationID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the finance assistant",
	Long: `Ask the finance assistant a question.

With a message argument, prints one answer. Without one, reads questions
from stdin until EOF or an empty line.`,
	RunE: guarded(runChat),
}

func init() {
	chatCmd.Flags().StringVar(&conversationID, "conversation", "", "Continue an earlier conversation")
}

func runChat(ctx context.Context, cmd *cobra.Command, s *session.Session) error {
	client := dispatch.NewClient(cfg.APIURL)
	ask := func(msg string) error {
		resp, err := client.Chat(ctx, s.AccessToken, entity.ChatRequest{ConversationID: conversationID, Message: msg})
		if err != nil {
			return err
		}
		conversationID = resp.ConversationID
		fmt.Fprintln(cmd.OutOrStdout(), resp.Content)
		return nil
	}

	if args := cmd.Flags().Args(); len(args) > 0 {
		return ask(strings.Join(args, " "))
	}

	lines, scanErr := readLines(ctx, cmd.InOrStdin())
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(cmd.OutOrStdout())
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			select {
			case err := <-scanErr:
				return err
			default:
				return ctx.Err()
			}
		}
		msg := strings.TrimSpace(line)
		if msg == "" {
			return nil
		}
		if err := ask(msg); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Assistant unavailable:", err)
		}
	}
}

// readLines scans r in the background so the caller can stop waiting on
// input when ctx ends. The channel closes at EOF, on a read error (sent on
// the second channel) or once ctx is done.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		in := bufio.NewScanner(r)
		for in.Scan() {
			select {
			case lines <- in.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- in.Err()
	}()
	return lines, errc
}

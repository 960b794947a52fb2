package main

import (
	"context"
	"fmt"

	"cibil-store/internal/session"

	"github.com/spf13/cobra"
)

// guarded wraps a command body so it only runs with a live session and is
// cancelled if the session goes away mid-command.
func guarded(run func(ctx context.Context, cmd *cobra.Command, s *session.Session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}

		var refresher session.Refresher
		if client, err := identityClient(); err == nil {
			refresher = tokenRefresher{client: client}
		}
		provider := session.NewFileProvider(store, refresher, logger)

		redirect := func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "You are not logged in. Run: cibilctl login")
		}
		guard := session.NewGuard(provider, redirect, logger)

		ctx, cancel := commandContext(cmd)
		defer cancel()
		return guard.Run(ctx, func(ctx context.Context, s *session.Session) error {
			return run(ctx, cmd, s)
		})
	}
}

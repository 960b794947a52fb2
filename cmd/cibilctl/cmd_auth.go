package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cibil-store/internal/adapter/auth"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE:  runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	RunE:  runLogout,
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "Full name")
}

func identityClient() (*auth.GoTrueClient, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
		return nil, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY must be set")
	}
	return auth.NewGoTrueClient(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil
}

func sessionFromTokens(t *auth.Tokens, now time.Time) *session.Session {
	return &session.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.Expiry(now).UTC(),
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}
}

// tokenRefresher lets the session provider renew through the identity service.
type tokenRefresher struct {
	client *auth.GoTrueClient
}

func (r tokenRefresher) RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	t, err := r.client.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return sessionFromTokens(t, time.Now()), nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	client, err := identityClient()
	if err != nil {
		return err
	}
	tokens, err := client.SignUp(ctx, authEmail, authPassword, authName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if tokens.AccessToken == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Account created. Confirm your email, then run: cibilctl login")
		return nil
	}
	if err := saveSession(tokens); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account created. Logged in as %s\n", tokens.User.Email)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	client, err := identityClient()
	if err != nil {
		return err
	}
	tokens, err := client.SignIn(ctx, authEmail, authPassword)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveSession(tokens); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", tokens.User.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := sessionStore()
	if err != nil {
		return err
	}
	s, err := store.Load()
	if err != nil {
		return err
	}
	if s != nil {
		if client, err := identityClient(); err == nil {
			if err := client.SignOut(ctx, s.AccessToken); err != nil {
				logger.Warn("remote sign-out failed", zap.Error(err))
			}
		}
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func saveSession(t *auth.Tokens) error {
	store, err := sessionStore()
	if err != nil {
		return err
	}
	return store.Save(sessionFromTokens(t, time.Now()))
}

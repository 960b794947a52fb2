package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cibil-store/internal/config"
	"cibil-store/internal/observability"
	"cibil-store/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose     bool
	apiURL      string
	sessionFile string
	timeout     time.Duration

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cibilctl",
	Short: "AI CIBIL Store from the terminal",
	Long: `cibilctl talks to the AI CIBIL Store API.

Log in once, then predict your CIBIL score, browse past predictions,
manage your profile or ask the finance assistant.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv(".env.dev", ".env")
		cfg = config.Load()
		if apiURL != "" {
			cfg.APIURL = apiURL
		}
		if sessionFile != "" {
			cfg.SessionFile = sessionFile
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = observability.NewLogger("local", level)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (or set CIBIL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Session file (default: ~/.cibil/session.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func sessionStore() (*session.FileStore, error) {
	path := cfg.SessionFile
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return session.NewFileStore(path), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

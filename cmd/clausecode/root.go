package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/clausecode/internal/client"
)

const defaultServer = "http://localhost:8000"

var (
	serverFlag  string
	apiKeyFlag  string
	timeoutFlag time.Duration
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "clausecode",
	Short: "ClauseCode - terms and conditions analysis from the terminal",
	Long: `ClauseCode reads a terms and conditions document and explains it in the voice of a
persona of your choice.

Commands:
  analyze     Analyze a file, URL or pasted text non-interactively
  wizard      Step through the analysis interactively
  history     List, show or delete saved analyses
  personas    Show which persona and analysis type pairs have prompts

The backend address comes from --server or CLAUSECODE_SERVER.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()
		if !cmd.Flags().Changed("server") {
			if v := os.Getenv("CLAUSECODE_SERVER"); v != "" {
				serverFlag = v
			}
		}
		if apiKeyFlag == "" {
			apiKeyFlag = os.Getenv("CLAUSECODE_API_KEY")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", defaultServer, "Backend URL (env CLAUSECODE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key for protected routes (env CLAUSECODE_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", client.DefaultTimeout, "Timeout of a single backend request")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newClient() *client.Client {
	jar, _ := cookiejar.New(nil)
	c := client.New(serverFlag, &http.Client{Timeout: timeoutFlag, Jar: jar})
	c.SetAPIKey(apiKeyFlag)
	return c
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext is cancelled on Ctrl+C so in-flight requests stop.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

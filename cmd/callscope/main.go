package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "1.2.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "callscope",
	Short: "Call-quality analysis for Asterisk AI voice agents",
	Long: `callscope analyzes ai_engine logs for one call and reports streaming
call-quality metrics, format alignment, a 0-100 quality score, and an
optional AI-powered root cause diagnosis.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the CLI logger. Human-readable console output on stderr so
// stdout stays clean for report output (including --json).
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	// Secrets (API keys) come from .env when present; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

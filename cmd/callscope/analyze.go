package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/voicediag/callscope/internal/app"
	"github.com/voicediag/callscope/internal/collect"
	"github.com/voicediag/callscope/internal/llm"
)

var (
	analyzeCallID    string
	analyzeJSON      bool
	analyzeLLM       bool
	analyzeNoLLM     bool
	analyzeBaseline  string
	analyzeContainer string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [call_id]",
	Short: "Post-call quality analysis",
	Long: `Analyze the most recent call (or a specific call ID) and print a call
quality report.

Deep diagnosis runs automatically when the call gates in (errors present,
score below 90, or detected issues) and an LLM API key is configured.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callID := analyzeCallID
		if callID == "" && len(args) == 1 {
			callID = args[0]
		}

		logger := newLogger()

		runner := &app.Runner{
			Source:         collect.New(analyzeContainer, logger),
			BaselineName:   analyzeBaseline,
			ForceDiagnosis: analyzeLLM,
			Log:            logger,
		}
		if !analyzeNoLLM {
			client, err := llm.NewFromEnv()
			if err != nil {
				logger.Debug().Err(err).Msg("deep diagnosis unavailable")
			} else {
				runner.Diagnoser = client
			}
		}

		rep, err := runner.Analyze(cmd.Context(), callID)
		if err != nil {
			return err
		}

		if analyzeJSON {
			return rep.WriteJSON(os.Stdout)
		}
		rep.WriteText(os.Stdout)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCallID, "call", "", "analyze specific call ID (default: most recent)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeLLM, "llm", false, "force deep diagnosis (even for healthy calls)")
	analyzeCmd.Flags().BoolVar(&analyzeNoLLM, "no-llm", false, "disable deep diagnosis even when gated in")
	analyzeCmd.Flags().StringVar(&analyzeBaseline, "baseline", "", "force a baseline profile (default: auto-detect)")
	analyzeCmd.Flags().StringVar(&analyzeContainer, "container", collect.DefaultContainer, "docker container to read logs from")
	rootCmd.AddCommand(analyzeCmd)
}

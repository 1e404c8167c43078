package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicediag/callscope/internal/collect"
)

var (
	listLimit     int
	listContainer string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent calls found in the logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		collector := collect.New(listContainer, logger)

		calls, err := collector.RecentCalls(listLimit)
		if err != nil {
			return err
		}
		if len(calls) == 0 {
			fmt.Println("No calls found in the collection window.")
			fmt.Printf("Window: --since %s (override with CALLSCOPE_LOG_SINCE)\n", collector.Since)
			return nil
		}

		fmt.Printf("Recent calls (%d):\n", len(calls))
		for i, call := range calls {
			fmt.Printf("  %d. %s\n", i+1, call.ID)
		}
		fmt.Println("\nAnalyze one with: callscope analyze <call_id>")
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 10, "maximum calls to list")
	listCmd.Flags().StringVar(&listContainer, "container", collect.DefaultContainer, "docker container to read logs from")
	rootCmd.AddCommand(listCmd)
}

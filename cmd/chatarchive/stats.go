package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/report"
)

var (
	statsProvider   string
	statsInput      string
	statsOutputJSON bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsProvider, "provider", "p", "auto", "provider: claude, chatgpt, or auto")
	statsCmd.Flags().StringVarP(&statsInput, "input", "i", "", "input directory, conversations.json, or .zip export (required)")
	statsCmd.Flags().BoolVar(&statsOutputJSON, "json", false, "Output results as JSON")
	_ = statsCmd.MarkFlagRequired("input")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize an export",
	Long: `Summarize an export without writing anything: conversation and message
counts, date range, top projects, and monthly activity.

stats does not run the tagger, so raw exports carry no tags: the Top Tags
section is omitted and top_tags is empty in --json output. Tags are assigned
by "export --tag".

Examples:
  chatarchive stats --input ~/Downloads/claude-export.zip
  chatarchive stats -p chatgpt -i ./conversations.json --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	data, p, err := loadExport(ctx, statsProvider, statsInput)
	if err != nil {
		return err
	}

	result := p.NormalizeWithErrors(data)
	if result.SkippedCount > 0 {
		appLogger.Warn(ctx, "skipped undecodable records", zap.Int("skipped", result.SkippedCount))
	}
	stats := conversation.CalculateStats(result.Conversations)

	if statsOutputJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.RenderStats(stats))
	return nil
}

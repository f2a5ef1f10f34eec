package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/chatarchive/internal/export"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/provider"
	"github.com/fyrsmithlabs/chatarchive/internal/report"
	"github.com/fyrsmithlabs/chatarchive/internal/tagging"
)

var (
	exportProvider string
	exportInput    string
	exportOutput   string
	exportTag      bool
	exportNoTag    bool
	exportRedact   bool
	exportNoRedact bool
)

// newTaggingLoader builds the model loader used by export. A variable so
// tests can stub it.
var newTaggingLoader = func(logger *logging.Logger) tagging.Loader {
	return tagging.NewEmbeddingLoader(logger)
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportProvider, "provider", "p", "", "provider: claude, chatgpt, or auto (required)")
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "input directory, conversations.json, or .zip export (required)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory (default output.base_path from config)")
	exportCmd.Flags().BoolVar(&exportTag, "tag", false, "enable AI tagging")
	exportCmd.Flags().BoolVar(&exportNoTag, "no-tag", false, "disable AI tagging")
	_ = exportCmd.MarkFlagRequired("provider")
	_ = exportCmd.MarkFlagRequired("input")
	exportCmd.Flags().BoolVar(&exportRedact, "redact", false, "replace API keys and other secrets with [REDACTED] markers")
	exportCmd.Flags().BoolVar(&exportNoRedact, "no-redact", false, "disable secret redaction")
	exportCmd.MarkFlagsMutuallyExclusive("tag", "no-tag")
	exportCmd.MarkFlagsMutuallyExclusive("redact", "no-redact")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations to Markdown",
	Long: `Export conversations from a Claude or ChatGPT data export.

Each conversation is written to <output>/<yyyy>/<MM>-<month>/<dd>-<slug>.md.
Existing files with the same path are overwritten.

Examples:
  # Export a Claude archive
  chatarchive export --provider claude --input ~/Downloads/claude-export.zip

  # Detect the provider and tag conversations
  chatarchive export -p auto -i ./conversations.json -o ~/notes/chats --tag

  # Scrub pasted credentials before writing
  chatarchive export -p chatgpt -i ./chatgpt.zip --redact`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	taggingEnabled := appConfig.Tagging.Enabled
	if exportTag {
		taggingEnabled = true
	}
	if exportNoTag {
		taggingEnabled = false
	}

	redact := appConfig.Output.RedactSecrets
	if exportRedact {
		redact = true
	}
	if exportNoRedact {
		redact = false
	}

	outputPath := exportOutput
	if outputPath == "" {
		outputPath = appConfig.Output.BasePath
	}

	fmt.Fprintln(out, "Starting export...")

	data, p, err := loadExport(ctx, exportProvider, exportInput)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Reading %s export from %s...\n", p.Name(), data.Source)

	modelBar := report.NewProgress(cmd.ErrOrStderr(), "Loading model")
	exportBar := report.NewProgress(cmd.ErrOrStderr(), "Exporting    ")

	results, err := export.NewManager().ExecuteExport(ctx, data, export.ExportContext{
		Provider:       p,
		OutputPath:     outputPath,
		TaggingEnabled: taggingEnabled,
		Tagging:        tagging.FromSettings(appConfig.Tagging),
		Loader:         newTaggingLoader(appLogger),
		RedactSecrets:  redact,
		AllowlistPath:  appConfig.Output.Allowlist,
		Logger:         appLogger,
		OnStatusUpdate: func(status string) {
			modelBar.Done()
			fmt.Fprintln(out, status)
		},
		OnModelProgress: modelBar.Percent,
		OnProgress:      exportBar.Count,
	})
	modelBar.Done()
	exportBar.Done()
	if err != nil {
		return fmt.Errorf("export failed after %d conversations: %w", len(results), err)
	}

	fmt.Fprintf(out, "\nExport complete! Processed %d conversations.\n", len(results))
	if taggingEnabled {
		tagged := 0
		for _, r := range results {
			if len(r.Tags) > 0 {
				tagged++
			}
		}
		fmt.Fprintf(out, "Tagged: %d of %d\n", tagged, len(results))
	}
	if redact {
		redacted := 0
		for _, r := range results {
			redacted += r.Redacted
		}
		fmt.Fprintf(out, "Redacted: %d secrets\n", redacted)
	}
	fmt.Fprintf(out, "Output: %s\n", outputPath)
	return nil
}

// loadExport resolves inputPath and picks the provider for kind, probing the
// payload when kind is auto.
func loadExport(ctx context.Context, kind, inputPath string) (*input.Data, provider.Provider, error) {
	k, err := provider.ParseKind(kind)
	if err != nil {
		return nil, nil, err
	}

	data, err := input.NewResolver().Resolve(ctx, inputPath)
	if err != nil {
		return nil, nil, err
	}

	if k == provider.KindAuto {
		if k, err = provider.Detect(data); err != nil {
			return nil, nil, fmt.Errorf("detecting provider for %s: %w", data.Source, err)
		}
	}

	p, err := provider.New(k)
	if err != nil {
		return nil, nil, err
	}
	return data, p, nil
}

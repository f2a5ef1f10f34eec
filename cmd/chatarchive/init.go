//go:build cgo

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/chatarchive/internal/embeddings"
	"github.com/fyrsmithlabs/chatarchive/internal/report"
)

var initFlags struct {
	force   bool
	version string
}

// downloadONNXRuntime is swapped out in tests.
var downloadONNXRuntime = embeddings.DownloadONNXRuntime

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the ONNX runtime used by local tagging",
	Long: `Install the ONNX runtime shared library needed by the fastembed tagging
backend into ~/.config/chat-archive/lib/.

export fetches the runtime on first use, so init is only needed to prepare
a machine for offline use. ONNX_PATH, when set, overrides the managed copy.

Examples:
  chatarchive init
  chatarchive init --force
  chatarchive init --onnx-version 1.22.0`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "reinstall even if a runtime is already present")
	initCmd.Flags().StringVar(&initFlags.version, "onnx-version", embeddings.DefaultONNXRuntimeVersion, "ONNX runtime release to install")
}

func runInit(cmd *cobra.Command, _ []string) error {
	if existing := embeddings.GetONNXLibraryPath(); existing != "" && !initFlags.force {
		cmd.Printf("ONNX runtime found: %s\n", existing)
		cmd.Println("Pass --force to reinstall.")
		return nil
	}

	cmd.Printf("Installing ONNX runtime v%s\n", initFlags.version)
	bar := report.NewProgress(cmd.ErrOrStderr(), "Downloading")
	err := downloadONNXRuntime(cmd.Context(), initFlags.version, bar.Percent)
	bar.Done()
	if err != nil {
		return fmt.Errorf("installing ONNX runtime: %w", err)
	}

	path := embeddings.GetONNXLibraryPath()
	if path == "" {
		return errors.New("download completed but library not found")
	}
	cmd.Printf("ONNX runtime installed: %s\n", path)
	return nil
}

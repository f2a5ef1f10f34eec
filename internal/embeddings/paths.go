package embeddings

import (
	"os"
	"path/filepath"
)

// appDir is the directory name used under the user's cache and config roots.
const appDir = "chat-archive"

// ProgressFunc receives download progress as a percentage (0-100).
type ProgressFunc func(percent int)

// DefaultCacheDir returns the FastEmbed model cache directory,
// $XDG_CACHE_HOME/chat-archive/models or its platform equivalent.
func DefaultCacheDir() string {
	root, err := os.UserCacheDir()
	if err != nil {
		root = "."
	}
	return filepath.Join(root, appDir, "models")
}

// onnxInstallDir returns the directory where a managed ONNX runtime lives.
func onnxInstallDir() string {
	root, err := os.UserConfigDir()
	if err != nil {
		root = "."
	}
	return filepath.Join(root, appDir, "lib")
}

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileWriter persists rendered documents.
type FileWriter interface {
	Write(ctx context.Context, path, text string) error
}

// Writer writes documents to the local filesystem, creating parent
// directories and overwriting existing files.
type Writer struct{}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements FileWriter.
func (w *Writer) Write(ctx context.Context, path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

var _ FileWriter = (*Writer)(nil)

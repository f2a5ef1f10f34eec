//go:build !cgo

package embeddings

import (
	"context"
	"errors"
)

// ErrFastEmbedNotAvailable is returned by every FastEmbed entry point in
// builds without cgo.
var ErrFastEmbedNotAvailable = errors.New("fastembed: binary built without cgo; set tagging.backend to tei")

// FastEmbedConfig mirrors the cgo build so callers compile unchanged.
type FastEmbedConfig struct {
	Model        string
	CacheDir     string
	MaxLength    int
	ShowProgress bool
}

// FastEmbedProvider cannot be constructed without cgo.
type FastEmbedProvider struct{}

// NewFastEmbedProvider always fails.
func NewFastEmbedProvider(FastEmbedConfig) (*FastEmbedProvider, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (*FastEmbedProvider) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (*FastEmbedProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, ErrFastEmbedNotAvailable
}

func (*FastEmbedProvider) Dimension() int { return 0 }

func (*FastEmbedProvider) Close() error { return nil }

// EnsureONNXRuntime always fails; only FastEmbed uses the ONNX runtime.
func EnsureONNXRuntime(context.Context, ProgressFunc) (string, error) {
	return "", ErrFastEmbedNotAvailable
}

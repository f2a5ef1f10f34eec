package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	BackendFastEmbed = "fastembed"
	BackendTEI       = "tei"
)

const DefaultModel = "BAAI/bge-small-en-v1.5"

// Embedder turns text into vectors. Documents are the conversation bodies
// being tagged; queries are the category descriptions they are scored
// against.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is an Embedder with a known output size that must be closed.
type Provider interface {
	Embedder
	Dimension() int
	Close() error
}

// ProviderConfig selects and configures a backend. Fields that do not apply
// to the chosen backend are ignored.
type ProviderConfig struct {
	Provider string // BackendFastEmbed (default) or BackendTEI
	Model    string

	BaseURL string
	APIKey  string
	Timeout time.Duration

	CacheDir     string
	ShowProgress bool
}

// NewProvider builds the backend named by cfg.Provider.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	switch strings.ToLower(cfg.Provider) {
	case "", BackendFastEmbed:
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:        model,
			CacheDir:     cfg.CacheDir,
			ShowProgress: cfg.ShowProgress,
		})
	case BackendTEI:
		return NewTEIClient(TEIConfig{
			BaseURL: cfg.BaseURL,
			Model:   model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
}

// modelDimensions covers the FastEmbed catalogue under both its Hugging Face
// and fastembed names.
var modelDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// detectDimensionFromModel guesses from the size word in unknown model
// names and falls back to 384.
func detectDimensionFromModel(model string) int {
	if dim, ok := modelDimensions[model]; ok {
		return dim
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "large"):
		return 1024
	case strings.Contains(lower, "base"):
		return 768
	}
	return 384
}

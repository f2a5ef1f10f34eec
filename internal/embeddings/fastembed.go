//go:build cgo

package embeddings

import (
	"context"
	"fmt"
	"sync"
	"time"

	fastembed "github.com/anush008/fastembed-go"
	"go.uber.org/zap"
)

// FastEmbedConfig holds configuration for the FastEmbed provider.
type FastEmbedConfig struct {
	// Model is a Hugging Face name (BAAI/bge-small-en-v1.5) or a fastembed
	// name (fast-bge-small-en-v1.5).
	Model string

	// CacheDir holds downloaded model files. Defaults to DefaultCacheDir().
	CacheDir string

	// MaxLength is the token limit per input; longer conversations are
	// truncated by the tokenizer. Defaults to 512.
	MaxLength int

	// ShowProgress prints fastembed's own download progress bar.
	ShowProgress bool
}

const (
	defaultMaxLength = 512
	// passageBatchSize is how many texts go through one ONNX run.
	passageBatchSize = 64
)

// hfModelNames maps Hugging Face names to fastembed's identifiers.
var hfModelNames = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
	"BAAI/bge-small-zh-v1.5":                 fastembed.BGESmallZH,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// resolveModel returns the fastembed model for name and its dimension.
func resolveModel(name string) (fastembed.EmbeddingModel, int, error) {
	model, ok := hfModelNames[name]
	if !ok {
		model = fastembed.EmbeddingModel(name)
	}
	dim, ok := modelDimensions[string(model)]
	if !ok {
		return "", 0, fmt.Errorf("%w: model %q is not bundled with fastembed", ErrInvalidConfig, name)
	}
	return model, dim, nil
}

// FastEmbedProvider embeds text with a local ONNX model.
type FastEmbedProvider struct {
	mu        sync.RWMutex
	engine    *fastembed.FlagEmbedding
	dimension int
	metrics   *Metrics
}

// NewFastEmbedProvider loads the configured model, downloading it into the
// cache directory on first use.
func NewFastEmbedProvider(cfg FastEmbedConfig) (*FastEmbedProvider, error) {
	model, dim, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = DefaultCacheDir()
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = defaultMaxLength
	}

	engine, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cfg.CacheDir,
		MaxLength:            cfg.MaxLength,
		ShowDownloadProgress: &cfg.ShowProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s into %s: %w", cfg.Model, cfg.CacheDir, err)
	}

	return &FastEmbedProvider{
		engine:    engine,
		dimension: dim,
		metrics:   NewMetrics(BackendFastEmbed, zap.NewNop()),
	}, nil
}

// EmbedDocuments embeds conversation texts as passages.
func (p *FastEmbedProvider) EmbedDocuments(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	start := time.Now()
	defer func() { p.metrics.Observe(ctx, opDocuments, texts, time.Since(start), err) }()

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.engine == nil {
		return nil, ErrProviderClosed
	}

	vectors, err = p.engine.PassageEmbed(texts, passageBatchSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

// EmbedQuery embeds a short label or question. fastembed adds the "query: "
// prefix BGE models expect.
func (p *FastEmbedProvider) EmbedQuery(ctx context.Context, text string) (vector []float32, err error) {
	start := time.Now()
	defer func() { p.metrics.Observe(ctx, opQuery, []string{text}, time.Since(start), err) }()

	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.engine == nil {
		return nil, ErrProviderClosed
	}

	vector, err = p.engine.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// Dimension returns the vector size of the loaded model.
func (p *FastEmbedProvider) Dimension() int {
	return p.dimension
}

// Close destroys the ONNX session. Later calls fail with ErrProviderClosed.
func (p *FastEmbedProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil {
		return nil
	}
	err := p.engine.Destroy()
	p.engine = nil
	return err
}

var _ Provider = (*FastEmbedProvider)(nil)

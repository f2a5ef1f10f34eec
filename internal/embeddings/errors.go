package embeddings

import "errors"

var (
	ErrEmptyInput      = errors.New("empty or nil input texts")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
	ErrProviderClosed  = errors.New("embedding provider closed")
)

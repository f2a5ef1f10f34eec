package tagging

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatarchive/internal/embeddings"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
)

// ProgressFunc receives load progress as a percentage (0-100).
type ProgressFunc func(percent int)

// Loader brings up a Classifier for cfg, reporting progress when it can.
type Loader interface {
	Load(ctx context.Context, cfg Config, onProgress ProgressFunc) (Classifier, error)
}

// runtimeShare is the part of the progress range spent fetching the ONNX
// runtime; the rest covers model loading.
const runtimeShare = 80

// EmbeddingLoader loads a ZeroShotClassifier over an embedding backend.
type EmbeddingLoader struct {
	logger        *logging.Logger
	newProvider   func(embeddings.ProviderConfig) (embeddings.Provider, error)
	ensureRuntime func(context.Context, embeddings.ProgressFunc) (string, error)
}

// NewEmbeddingLoader creates a loader for the fastembed and tei backends.
func NewEmbeddingLoader(logger *logging.Logger) *EmbeddingLoader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &EmbeddingLoader{
		logger:        logger,
		newProvider:   embeddings.NewProvider,
		ensureRuntime: embeddings.EnsureONNXRuntime,
	}
}

// Load implements Loader. For fastembed the ONNX runtime is made available
// first, downloading it when missing.
func (l *EmbeddingLoader) Load(ctx context.Context, cfg Config, onProgress ProgressFunc) (Classifier, error) {
	report := func(pct int) {
		if onProgress != nil {
			onProgress(pct)
		}
	}

	pcfg := cfg.providerConfig()
	if pcfg.Provider == "" || pcfg.Provider == embeddings.BackendFastEmbed {
		path, err := l.ensureRuntime(ctx, func(pct int) {
			report(pct * runtimeShare / 100)
		})
		if err != nil {
			return nil, fmt.Errorf("preparing ONNX runtime: %w", err)
		}
		l.logger.Debug(ctx, "onnx runtime ready", zap.String("path", path))
	}
	report(runtimeShare)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	provider, err := l.newProvider(pcfg)
	if err != nil {
		return nil, fmt.Errorf("loading %s model %q: %w", backendName(pcfg.Provider), pcfg.Model, err)
	}
	l.logger.Info(ctx, "tagging model loaded",
		zap.String("backend", backendName(pcfg.Provider)),
		zap.String("model", pcfg.Model),
		zap.Int("dimension", provider.Dimension()),
	)
	report(100)

	return NewZeroShotClassifier(provider), nil
}

func backendName(b string) string {
	if b == "" {
		return embeddings.BackendFastEmbed
	}
	return b
}

var _ Loader = (*EmbeddingLoader)(nil)

package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/provider"
	"github.com/fyrsmithlabs/chatarchive/internal/secrets"
	"github.com/fyrsmithlabs/chatarchive/internal/tagging"
)

// Status messages reported through ExportContext.OnStatusUpdate.
const (
	StatusLoadingModel = "Loading AI model..."
	StatusExporting    = "Exporting..."
)

// ErrNoProvider is returned when an ExportContext has no provider.
var ErrNoProvider = errors.New("export: no provider")

// ExportContext describes one export run.
type ExportContext struct {
	Provider   provider.Provider
	OutputPath string

	TaggingEnabled bool
	Tagging        tagging.Config

	// Loader brings up the tagging model. Defaults to an EmbeddingLoader.
	Loader tagging.Loader

	// RedactSecrets scrubs credentials before anything is written.
	// AllowlistPath optionally names a TOML allowlist.
	RedactSecrets bool
	AllowlistPath string

	Logger *logging.Logger

	OnStatusUpdate func(status string)
	// OnModelProgress receives model load progress (0-100).
	OnModelProgress func(percent int)
	// OnProgress is called after each written file.
	OnProgress func(done, total int)
}

func (ec *ExportContext) status(s string) {
	if ec.OnStatusUpdate != nil {
		ec.OnStatusUpdate(s)
	}
}

// Manager runs complete exports.
type Manager struct{}

// NewManager creates a Manager.
func NewManager() *Manager {
	return &Manager{}
}

// ExecuteExport builds a pipeline for ec and exports data with it. When
// tagging is enabled the model is loaded first; a load failure aborts the
// run before anything is written.
func (m *Manager) ExecuteExport(ctx context.Context, data *input.Data, ec ExportContext) ([]conversation.ExportResult, error) {
	if ec.Provider == nil {
		return nil, ErrNoProvider
	}

	logger := ec.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	batchID := uuid.NewString()
	ctx, span := startSpan(ctx, spanBatch,
		attribute.String("export.batch", batchID),
		attribute.String("export.provider", string(ec.Provider.Kind())),
		attribute.Bool("export.tagging", ec.TaggingEnabled),
	)
	defer span.End()
	ctx = logging.WithBatchID(ctx, batchID)
	ctx = logging.WithProvider(ctx, string(ec.Provider.Kind()))

	var tagger *tagging.Tagger
	if ec.TaggingEnabled {
		ec.status(StatusLoadingModel)

		loader := ec.Loader
		if loader == nil {
			loader = tagging.NewEmbeddingLoader(logger)
		}
		tagger = tagging.New(ec.Tagging, loader, logger)
		defer func() {
			if err := tagger.Close(); err != nil {
				logger.Warn(ctx, "closing tagger", zap.Error(err))
			}
		}()

		if err := tagger.Initialize(ctx, ec.OnModelProgress); err != nil {
			failSpan(span, err, "model load failed")
			return nil, fmt.Errorf("initializing tagger: %w", err)
		}
	}

	var opts []PipelineOption
	if ec.RedactSecrets {
		redactor, err := newRedactor(ec.AllowlistPath)
		if err != nil {
			failSpan(span, err, "redactor setup failed")
			return nil, err
		}
		opts = append(opts, WithRedactor(redactor))
	}

	var convTagger ConversationTagger
	if tagger != nil {
		convTagger = tagger
	}

	pipeline := NewPipeline(
		ec.Provider,
		NewMarkdownTransformer(),
		NewOrganizer(ec.OutputPath),
		NewWriter(),
		convTagger,
		logger,
		opts...,
	)

	ec.status(StatusExporting)
	logger.Info(ctx, "export started",
		zap.String("output", ec.OutputPath),
		zap.Bool("tagging", ec.TaggingEnabled),
		zap.Bool("redact", ec.RedactSecrets),
	)

	results, err := pipeline.Export(ctx, data, Options{
		EnableTagging: ec.TaggingEnabled,
		OnProgress:    ec.OnProgress,
	})
	span.SetAttributes(attribute.Int("export.written", len(results)))
	if err != nil {
		failSpan(span, err, "export failed")
		return results, err
	}

	logger.Info(ctx, "export finished", zap.Int("written", len(results)))
	return results, nil
}

func newRedactor(allowlistPath string) (*secrets.Redactor, error) {
	allowlist, err := secrets.LoadAllowlist(allowlistPath)
	if err != nil {
		return nil, fmt.Errorf("loading allowlist: %w", err)
	}
	redactor, err := secrets.New(allowlist)
	if err != nil {
		return nil, fmt.Errorf("creating redactor: %w", err)
	}
	return redactor, nil
}

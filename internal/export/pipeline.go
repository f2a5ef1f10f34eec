package export

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/provider"
	"github.com/fyrsmithlabs/chatarchive/internal/secrets"
)

// ConversationTagger assigns tags to a conversation.
type ConversationTagger interface {
	TagConversation(ctx context.Context, conv *conversation.Conversation) ([]string, error)
}

// ConversationRedactor scrubs secrets from a conversation in place.
type ConversationRedactor interface {
	RedactConversation(conv *conversation.Conversation) *secrets.Result
}

// Options controls one export run.
type Options struct {
	// EnableTagging runs the tagger on each conversation when one is set.
	EnableTagging bool

	// OnProgress is called after each written file.
	OnProgress func(done, total int)
}

// Pipeline exports conversations of one provider.
type Pipeline struct {
	provider    provider.Provider
	transformer *MarkdownTransformer
	organizer   *Organizer
	writer      FileWriter
	tagger      ConversationTagger
	redactor    ConversationRedactor
	logger      *logging.Logger
	metrics     *Metrics
}

// PipelineOption configures optional pipeline stages.
type PipelineOption func(*Pipeline)

// WithRedactor scrubs every conversation before it is tagged and rendered.
func WithRedactor(r ConversationRedactor) PipelineOption {
	return func(p *Pipeline) {
		p.redactor = r
	}
}

// NewPipeline creates a pipeline. tagger may be nil.
func NewPipeline(p provider.Provider, transformer *MarkdownTransformer, organizer *Organizer, writer FileWriter, tagger ConversationTagger, logger *logging.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	pipeline := &Pipeline{
		provider:    p,
		transformer: transformer,
		organizer:   organizer,
		writer:      writer,
		tagger:      tagger,
		logger:      logger.Named("export"),
		metrics:     NewMetrics(logger.Underlying()),
	}
	for _, opt := range opts {
		opt(pipeline)
	}
	return pipeline
}

// Normalize converts the raw payload with the pipeline's provider. Skipped
// records are logged, not returned. A nil payload yields no conversations.
func (p *Pipeline) Normalize(ctx context.Context, data *input.Data) []conversation.Conversation {
	if data == nil {
		return []conversation.Conversation{}
	}
	result := p.provider.NormalizeWithErrors(data)
	if result.SkippedCount > 0 {
		p.logger.Warn(ctx, "skipped undecodable records",
			zap.Int("skipped", result.SkippedCount),
			zap.Any("records", result.Skipped),
		)
	}
	p.logger.Debug(ctx, "normalized conversations",
		zap.String("source", data.Source),
		zap.Int("count", len(result.Conversations)),
	)
	return result.Conversations
}

// ExportConversations writes each conversation in order. Secrets are
// redacted first when a redactor is set. Tagging failures
// leave the conversation untagged. The first write failure stops the run and
// is returned with the results written so far; so is a cancelled ctx.
func (p *Pipeline) ExportConversations(ctx context.Context, convs []conversation.Conversation, opts Options) ([]conversation.ExportResult, error) {
	results := make([]conversation.ExportResult, 0, len(convs))
	kind := string(p.provider.Kind())

	for i := range convs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := p.exportOne(ctx, &convs[i], kind, opts)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if opts.OnProgress != nil {
			opts.OnProgress(len(results), len(convs))
		}
	}

	return results, nil
}

func (p *Pipeline) exportOne(ctx context.Context, conv *conversation.Conversation, kind string, opts Options) (conversation.ExportResult, error) {
	ctx, span := startSpan(ctx, spanConversation,
		attribute.String("conversation.id", conv.UUID),
		attribute.Int("conversation.messages", len(conv.Messages)),
	)
	defer span.End()
	ctx = logging.WithConversationID(ctx, conv.UUID)

	redacted := 0
	if p.redactor != nil {
		redacted = p.redact(ctx, conv, kind)
		span.SetAttributes(attribute.Int("export.redacted", redacted))
	}

	if opts.EnableTagging && p.tagger != nil {
		p.tag(ctx, conv, kind)
	}

	text, err := p.transformer.ToMarkdown(conv)
	if err != nil {
		failSpan(span, err, "render failed")
		return conversation.ExportResult{}, fmt.Errorf("rendering conversation %s (%q): %w", conv.UUID, conv.Title, err)
	}

	path := p.organizer.GetPath(conv)
	span.SetAttributes(attribute.String("export.path", path))
	if err := p.writer.Write(ctx, path, text); err != nil {
		failSpan(span, err, "write failed")
		p.metrics.RecordWriteFailure(ctx, kind)
		p.logger.Error(ctx, "write failed", zap.String("path", path), zap.Error(err))
		return conversation.ExportResult{}, fmt.Errorf("exporting conversation %s (%q) to %s: %w", conv.UUID, conv.Title, path, err)
	}

	p.metrics.RecordExported(ctx, kind)
	p.logger.Debug(ctx, "conversation exported", zap.String("path", path))

	return conversation.ExportResult{
		Conversation: conv,
		Path:         path,
		Tags:         conv.Tags,
		Redacted:     redacted,
	}, nil
}

func (p *Pipeline) tag(ctx context.Context, conv *conversation.Conversation, kind string) {
	tags, err := p.tagger.TagConversation(ctx, conv)
	if err != nil {
		p.metrics.RecordTaggingFailure(ctx, kind)
		trace.SpanFromContext(ctx).AddEvent("tagging failed", trace.WithAttributes(attribute.String("error", err.Error())))
		p.logger.Warn(ctx, "tagging failed, exporting without tags", zap.Error(err))
		return
	}
	conv.Tags = tags
}

func (p *Pipeline) redact(ctx context.Context, conv *conversation.Conversation, kind string) int {
	res := p.redactor.RedactConversation(conv)
	if n := res.Total(); n > 0 {
		p.metrics.RecordRedacted(ctx, kind, n)
		p.logger.Info(ctx, "redacted secrets",
			zap.Int("count", n),
			zap.Strings("rules", res.RuleIDs()),
		)
		return n
	}
	return 0
}

// Export normalizes data and exports every resulting conversation.
func (p *Pipeline) Export(ctx context.Context, data *input.Data, opts Options) ([]conversation.ExportResult, error) {
	convs := p.Normalize(ctx, data)
	return p.ExportConversations(ctx, convs, opts)
}

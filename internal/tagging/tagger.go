package tagging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
)

const (
	// contextMessages is how many leading messages feed the context text.
	contextMessages = 6

	// maxContextRunes bounds the context text handed to the model.
	maxContextRunes = 512
)

// ErrNoLoader is returned when a Tagger must load a model but has no Loader.
var ErrNoLoader = errors.New("tagging: no model loader configured")

// Tagger assigns category labels to conversations. It is safe for
// concurrent use once initialized.
type Tagger struct {
	cfg    Config
	loader Loader
	logger *logging.Logger

	mu         sync.Mutex
	classifier Classifier
}

// New creates a Tagger. The model is not loaded until Initialize or the
// first TagConversation call.
func New(cfg Config, loader Loader, logger *logging.Logger) *Tagger {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tagger{
		cfg:    cfg,
		loader: loader,
		logger: logger.Named("tagging"),
	}
}

// NewWithClassifier creates a Tagger around an already loaded classifier.
func NewWithClassifier(cfg Config, classifier Classifier, logger *logging.Logger) *Tagger {
	t := New(cfg, nil, logger)
	t.classifier = classifier
	return t
}

// Initialize loads the classifier, forwarding progress (0-100) to
// onProgress when the loader reports it. Calling it again after success is
// a no-op.
func (t *Tagger) Initialize(ctx context.Context, onProgress func(percent int)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initLocked(ctx, onProgress)
}

func (t *Tagger) initLocked(ctx context.Context, onProgress func(percent int)) error {
	if t.classifier != nil {
		return nil
	}
	if t.loader == nil {
		return ErrNoLoader
	}

	classifier, err := t.loader.Load(ctx, t.cfg, onProgress)
	if err != nil {
		return fmt.Errorf("loading tagging model: %w", err)
	}
	t.classifier = classifier
	return nil
}

// TagConversation returns the labels that apply to conv, best first. A
// conversation with no usable text gets no tags and the model is not
// invoked. The model is loaded on first use if Initialize was not called.
func (t *Tagger) TagConversation(ctx context.Context, conv *conversation.Conversation) ([]string, error) {
	text := ContextText(conv)
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	t.mu.Lock()
	if err := t.initLocked(ctx, nil); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	classifier := t.classifier
	t.mu.Unlock()

	scores, err := classifier.Classify(ctx, text, t.cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("classifying conversation: %w", err)
	}

	tags := selectTags(scores, t.cfg.Threshold, t.cfg.MaxTags)
	t.logger.Trace(ctx, "conversation classified",
		zap.Strings("tags", tags),
		zap.Int("candidates", len(scores)),
	)
	return tags, nil
}

// Close releases the classifier. The Tagger may be initialized again.
func (t *Tagger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.classifier == nil {
		return nil
	}
	err := t.classifier.Close()
	t.classifier = nil
	return err
}

// ContextText builds the classifier input: the title, a space, and the text
// of the first six messages joined by spaces, truncated to 512 runes.
func ContextText(conv *conversation.Conversation) string {
	if conv == nil {
		return ""
	}

	n := min(len(conv.Messages), contextMessages)
	parts := make([]string, 0, n)
	for _, m := range conv.Messages[:n] {
		parts = append(parts, m.Text)
	}

	text := conv.Title + " " + strings.Join(parts, " ")
	if runes := []rune(text); len(runes) > maxContextRunes {
		text = string(runes[:maxContextRunes])
	}
	return text
}

// selectTags keeps labels scoring strictly above threshold, highest first,
// capped at maxTags. Ties keep label order.
func selectTags(scores []Score, threshold float64, maxTags int) []string {
	kept := make([]Score, 0, len(scores))
	for _, s := range scores {
		if s.Score > threshold {
			kept = append(kept, s)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	if maxTags > 0 && len(kept) > maxTags {
		kept = kept[:maxTags]
	}

	tags := make([]string, len(kept))
	for i, s := range kept {
		tags[i] = s.Label
	}
	return tags
}

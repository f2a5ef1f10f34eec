package tagging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/chatarchive/internal/embeddings"
)

// Score is the probability that a label applies to a text.
type Score struct {
	Label string
	Score float64
}

// Classifier scores a text against candidate labels. Scores are independent
// per label (multi-label) and returned in label order.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]Score, error)
	Close() error
}

const (
	entailmentTemplate    = "This conversation is about %s."
	contradictionTemplate = "This conversation is not about %s."

	// scoreTemperature sharpens the entailment/contradiction margin into a
	// probability.
	scoreTemperature = 0.05
)

// ErrDimensionMismatch is returned when the backend yields vectors of
// different lengths for one request.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// hypotheses holds the embedded entailment and contradiction statements for
// one label.
type hypotheses struct {
	entail []float32
	contra []float32
}

// ZeroShotClassifier scores labels by comparing the text embedding with an
// entailment and a contradiction hypothesis per label:
//
//	score = sigmoid((cos(text, entail) - cos(text, contra)) / 0.05)
//
// Hypothesis embeddings are computed once per label set.
type ZeroShotClassifier struct {
	embedder embeddings.Embedder

	mu    sync.Mutex
	cache map[string][]hypotheses
}

// NewZeroShotClassifier creates a classifier over embedder. If embedder also
// implements io.Closer, Close releases it.
func NewZeroShotClassifier(embedder embeddings.Embedder) *ZeroShotClassifier {
	return &ZeroShotClassifier{
		embedder: embedder,
		cache:    make(map[string][]hypotheses),
	}
}

// Classify implements Classifier.
func (c *ZeroShotClassifier) Classify(ctx context.Context, text string, labels []string) ([]Score, error) {
	if len(labels) == 0 {
		return []Score{}, nil
	}

	hyps, err := c.hypothesesFor(ctx, labels)
	if err != nil {
		return nil, err
	}

	query, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding text: %w", err)
	}

	scores := make([]Score, len(labels))
	for i, label := range labels {
		entail, err := cosine(query, hyps[i].entail)
		if err != nil {
			return nil, err
		}
		contra, err := cosine(query, hyps[i].contra)
		if err != nil {
			return nil, err
		}
		scores[i] = Score{Label: label, Score: sigmoid((entail - contra) / scoreTemperature)}
	}
	return scores, nil
}

// hypothesesFor returns the cached hypothesis embeddings for labels,
// embedding them in one batch on first use.
func (c *ZeroShotClassifier) hypothesesFor(ctx context.Context, labels []string) ([]hypotheses, error) {
	key := strings.Join(labels, "\x00")

	c.mu.Lock()
	defer c.mu.Unlock()

	if hyps, ok := c.cache[key]; ok {
		return hyps, nil
	}

	texts := make([]string, 0, 2*len(labels))
	for _, label := range labels {
		texts = append(texts,
			fmt.Sprintf(entailmentTemplate, label),
			fmt.Sprintf(contradictionTemplate, label),
		)
	}

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding hypotheses: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding hypotheses: got %d vectors for %d texts", len(vectors), len(texts))
	}

	hyps := make([]hypotheses, len(labels))
	for i := range labels {
		hyps[i] = hypotheses{entail: vectors[2*i], contra: vectors[2*i+1]}
	}
	c.cache[key] = hyps
	return hyps, nil
}

// Close releases the embedder when it owns resources.
func (c *ZeroShotClassifier) Close() error {
	if closer, ok := c.embedder.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var _ Classifier = (*ZeroShotClassifier)(nil)

package tagging

import (
	"context"
	"errors"
	"sync"

	"github.com/fyrsmithlabs/chatarchive/internal/embeddings"
)

// fakeClassifier returns fixed scores per label and counts calls.
type fakeClassifier struct {
	mu     sync.Mutex
	scores map[string]float64
	err    error
	calls  int
	texts  []string
	closed bool
}

func (f *fakeClassifier) Classify(_ context.Context, text string, labels []string) ([]Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Score, len(labels))
	for i, l := range labels {
		out[i] = Score{Label: l, Score: f.scores[l]}
	}
	return out, nil
}

func (f *fakeClassifier) Close() error {
	f.closed = true
	return nil
}

// fakeLoader hands out a fixed classifier, optionally reporting progress.
type fakeLoader struct {
	classifier Classifier
	err        error
	progress   []int
	loads      int
}

func (l *fakeLoader) Load(_ context.Context, _ Config, onProgress ProgressFunc) (Classifier, error) {
	l.loads++
	if l.err != nil {
		return nil, l.err
	}
	for _, p := range l.progress {
		if onProgress != nil {
			onProgress(p)
		}
	}
	return l.classifier, nil
}

// fakeEmbedder maps texts to fixed vectors; unknown texts get def.
type fakeEmbedder struct {
	vectors  map[string][]float32
	def      []float32
	docCalls int
	closed   bool
	err      error
}

func (e *fakeEmbedder) lookup(text string) []float32 {
	if v, ok := e.vectors[text]; ok {
		return v
	}
	return e.def
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.docCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.lookup(t)
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.lookup(text), nil
}

func (e *fakeEmbedder) Dimension() int { return len(e.def) }

func (e *fakeEmbedder) Close() error {
	e.closed = true
	return nil
}

var errBoom = errors.New("boom")

var _ embeddings.Provider = (*fakeEmbedder)(nil)

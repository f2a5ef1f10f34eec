package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	teiDefaultTimeout = 60 * time.Second
	teiErrorBodyLimit = 4 << 10
)

// TEIConfig points at a Text-Embeddings-Inference server.
type TEIConfig struct {
	BaseURL string // e.g. http://localhost:8080
	// Model is reported in metrics and used to guess Dimension; the server
	// decides which model actually answers.
	Model   string
	APIKey  string
	Timeout time.Duration // zero means 60s
}

func (c TEIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base URL must be http(s): %q", ErrInvalidConfig, c.BaseURL)
	}
	return nil
}

// TEIClient is a Provider backed by the TEI /embed endpoint. It holds no
// local resources, so Close only stops further calls.
type TEIClient struct {
	endpoint  string
	apiKey    string
	dimension int
	http      *http.Client
	metrics   *Metrics
	closed    bool
}

func NewTEIClient(cfg TEIConfig) (*TEIClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = teiDefaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &TEIClient{
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/embed",
		apiKey:    cfg.APIKey,
		dimension: detectDimensionFromModel(model),
		http:      &http.Client{Timeout: timeout},
		metrics:   NewMetrics(BackendTEI, zap.NewNop()),
	}, nil
}

func (c *TEIClient) Dimension() int { return c.dimension }

func (c *TEIClient) Close() error {
	c.closed = true
	return nil
}

// EmbedDocuments sends all texts in one request and requires one vector
// back per text.
func (c *TEIClient) EmbedDocuments(ctx context.Context, texts []string) (out [][]float32, err error) {
	defer c.observe(ctx, opDocuments, texts, time.Now(), &err)

	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	if out, err = c.post(ctx, texts); err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(out), len(texts))
	}
	return out, nil
}

func (c *TEIClient) EmbedQuery(ctx context.Context, text string) (_ []float32, err error) {
	defer c.observe(ctx, opQuery, []string{text}, time.Now(), &err)

	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	out, err := c.post(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrEmbeddingFailed)
	}
	return out[0], nil
}

func (c *TEIClient) observe(ctx context.Context, op string, texts []string, start time.Time, err *error) {
	c.metrics.Observe(ctx, op, texts, time.Since(start), *err)
}

// post sends inputs, a string or a []string, with truncation on so long
// conversations do not fail the request.
func (c *TEIClient) post(ctx context.Context, inputs any) ([][]float32, error) {
	if c.closed {
		return nil, ErrProviderClosed
	}
	payload, err := json.Marshal(map[string]any{"inputs": inputs, "truncate": true})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, teiErrorBodyLimit))
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingFailed, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

var _ Provider = (*TEIClient)(nil)

package tagging

import (
	"time"

	"github.com/fyrsmithlabs/chatarchive/internal/config"
	"github.com/fyrsmithlabs/chatarchive/internal/embeddings"
)

// Config configures a Tagger.
type Config struct {
	Model      string
	Threshold  float64
	MaxTags    int
	Categories []string

	// Backend selects the embedding backend: "fastembed" or "tei".
	Backend  string
	CacheDir string
	BaseURL  string
	APIKey   config.Secret
	Timeout  time.Duration
}

// DefaultConfig mirrors config.Default().Tagging.
func DefaultConfig() Config {
	return FromSettings(config.Default().Tagging)
}

// FromSettings converts the application tagging section.
func FromSettings(s config.TaggingConfig) Config {
	return Config{
		Model:      s.Model,
		Threshold:  s.Threshold,
		MaxTags:    s.MaxTags,
		Categories: append([]string(nil), s.Categories...),
		Backend:    s.Backend,
		CacheDir:   s.CacheDir,
		BaseURL:    s.BaseURL,
		APIKey:     s.APIKey,
		Timeout:    s.Timeout.Duration(),
	}
}

// providerConfig is the embedding backend configuration for c.
func (c Config) providerConfig() embeddings.ProviderConfig {
	return embeddings.ProviderConfig{
		Provider: c.Backend,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		APIKey:   c.APIKey.Value(),
		CacheDir: c.CacheDir,
		Timeout:  c.Timeout,
	}
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Tagging.Threshold, cfg.Tagging.Threshold)
	assert.Equal(t, want.Tagging.MaxTags, cfg.Tagging.MaxTags)
	assert.Equal(t, DefaultCategories, cfg.Tagging.Categories)
	assert.Equal(t, BackendFastEmbed, cfg.Tagging.Backend)
	assert.Equal(t, 60*time.Second, cfg.Tagging.Timeout.Duration())
	assert.False(t, cfg.Tagging.Enabled)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, `output:
  base_path: /archive
tagging:
  enabled: true
  threshold: 0.7
  max_tags: 3
  categories:
    - work
    - family
  backend: tei
  base_url: http://tei:8080
  timeout: 5s
logging:
  level: debug
`, 0600)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/archive", cfg.Output.BasePath)
	assert.True(t, cfg.Tagging.Enabled)
	assert.Equal(t, 0.7, cfg.Tagging.Threshold)
	assert.Equal(t, 3, cfg.Tagging.MaxTags)
	assert.Equal(t, []string{"work", "family"}, cfg.Tagging.Categories, "file lists replace defaults")
	assert.Equal(t, BackendTEI, cfg.Tagging.Backend)
	assert.Equal(t, 5*time.Second, cfg.Tagging.Timeout.Duration())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "tagging:\n  max_tags: 3\n", 0644)

	t.Setenv("CHATARCHIVE_TAGGING_MAX_TAGS", "7")
	t.Setenv("CHATARCHIVE_TAGGING_ENABLED", "true")
	t.Setenv("CHATARCHIVE_TAGGING_CATEGORIES", "work, travel ,,health")
	t.Setenv("CHATARCHIVE_OUTPUT_BASE_PATH", "/from/env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Tagging.MaxTags)
	assert.True(t, cfg.Tagging.Enabled)
	assert.Equal(t, []string{"work", "travel", "health"}, cfg.Tagging.Categories)
	assert.Equal(t, "/from/env", cfg.Output.BasePath)
}

func TestLoad_TelemetryFromEnv(t *testing.T) {
	path := writeConfig(t, "telemetry:\n  endpoint: collector:4317\n", 0644)

	t.Setenv("CHATARCHIVE_TELEMETRY_ENABLED", "true")
	t.Setenv("CHATARCHIVE_TELEMETRY_SAMPLE_RATE", "0.25")
	t.Setenv("CHATARCHIVE_TELEMETRY_EXPORT_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, 0.25, cfg.Telemetry.SampleRate)
	assert.Equal(t, 30*time.Second, cfg.Telemetry.ExportInterval.Duration())
	assert.Equal(t, 5*time.Second, cfg.Telemetry.ShutdownTimeout.Duration())
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "threshold too high", content: "tagging:\n  threshold: 1.5\n", wantErr: "threshold"},
		{name: "threshold negative", content: "tagging:\n  threshold: -0.1\n", wantErr: "threshold"},
		{name: "zero max tags", content: "tagging:\n  max_tags: 0\n", wantErr: "max_tags"},
		{name: "empty categories when enabled", content: "tagging:\n  enabled: true\n  categories: []\n", wantErr: "categories"},
		{name: "unknown backend", content: "tagging:\n  backend: openai\n", wantErr: "backend"},
		{name: "bad log format", content: "logging:\n  format: xml\n", wantErr: "logging.format"},
		{name: "bad yaml", content: "tagging: [unclosed\n", wantErr: "failed to load config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content, 0600))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EmptyCategoriesAllowedWhenDisabled(t *testing.T) {
	cfg, err := Load(writeConfig(t, "tagging:\n  enabled: false\n  categories: []\n", 0600))
	require.NoError(t, err)
	assert.Empty(t, cfg.Tagging.Categories)
}

func TestLoad_FileTooLarge(t *testing.T) {
	content := "# " + strings.Repeat("x", maxConfigFileSize) + "\n"
	_, err := Load(writeConfig(t, content, 0600))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoad_SecretRequiresPrivateFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission model differs on windows")
	}

	content := "tagging:\n  backend: tei\n  api_key: hunter2\n"

	_, err := Load(writeConfig(t, content, 0644))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")

	cfg, err := Load(writeConfig(t, content, 0600))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.Tagging.APIKey.Value())
}

func TestLoad_DirectoryRejected(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux-only")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/chat-archive/config.yaml", path)
}

func TestMarshal_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Tagging.APIKey = "super-secret-key"

	out, err := Marshal(cfg)
	require.NoError(t, err)

	text := string(out)
	assert.NotContains(t, text, "super-secret-key")
	assert.Contains(t, text, "api_key: '[REDACTED]'")
	assert.Contains(t, text, "timeout: 1m0s")
	assert.Contains(t, text, "max_tags: 5")
}

func TestEnsureConfigDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat-archive", "config.yaml")
	require.NoError(t, EnsureConfigDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

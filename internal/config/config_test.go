package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9090

[llm]
provider = "openai"
model = "gpt-4o-mini"
api_key = "sk-test"

[search]
top_k_per_source = 5
search_timeout_sec = 15

[store]
path = "/tmp/test.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Search.TopKPerSource)
	assert.Equal(t, 15*time.Second, cfg.Search.SearchTimeout())
	assert.Equal(t, "/tmp/test.db", cfg.Store.Path)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 3, cfg.Search.TopKPerSource)
	assert.Equal(t, 0.3, cfg.Search.MinWebRelevance)
	assert.Equal(t, 30*time.Second, cfg.Search.SearchTimeout())
	assert.Equal(t, 10*time.Second, cfg.Search.StoreTimeout())
	assert.Equal(t, 60*time.Second, cfg.Search.GenerateTimeout())
	assert.Equal(t, 5*time.Second, cfg.Search.LogWriteTimeout())
	assert.Equal(t, 0.7, cfg.Quality.HistoryMinConfidence)
	assert.Equal(t, 50, cfg.Quality.HistoryLimit)
	assert.Equal(t, 2, cfg.Concurrency.Embedding)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("LLM_MODEL", "claude-sonnet-4-20250514")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("PORT", "7070")
	t.Setenv("STORE_PATH", "/tmp/override.db")

	path := writeConfig(t, `
[llm]
provider = "ollama"
model = "qwen2:0.5b"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/override.db", cfg.Store.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")

	assert.Error(t, err)
}

func TestLoadMalformedTOML(t *testing.T) {
	path := writeConfig(t, "[server\nport=")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("PORT", "")

	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2:0.5b", cfg.LLM.Model)
}

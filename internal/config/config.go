package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type SearchConfig struct {
	TopK               int     `toml:"top_k"`
	TopKPerSource      int     `toml:"top_k_per_source"`
	MinWebRelevance    float64 `toml:"min_web_relevance"`
	SearchTimeoutSec   int     `toml:"search_timeout_sec"`
	StoreTimeoutSec    int     `toml:"store_timeout_sec"`
	GenerateTimeoutSec int     `toml:"generate_timeout_sec"`
	LogWriteTimeoutSec int     `toml:"log_write_timeout_sec"`
}

type QualityConfig struct {
	HistoryMinConfidence float64 `toml:"history_min_confidence"`
	HistoryLimit         int     `toml:"history_limit"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type ConcurrencyConfig struct {
	SourceSearch int `toml:"source_search"`
	Embedding    int `toml:"embedding"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	LLM         LLMConfig         `toml:"llm"`
	Search      SearchConfig      `toml:"search"`
	Quality     QualityConfig     `toml:"quality"`
	Store       StoreConfig       `toml:"store"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Logging     LoggingConfig     `toml:"logging"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	return &cfg, nil
}

// Default returns a config usable without a config file on disk.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
		c.LLM.Model = "qwen2:0.5b"
		c.LLM.BaseURL = "http://localhost:11434"
	}
	if c.Search.TopK == 0 {
		c.Search.TopK = 5
	}
	if c.Search.TopKPerSource == 0 {
		c.Search.TopKPerSource = 3
	}
	if c.Search.MinWebRelevance == 0 {
		c.Search.MinWebRelevance = 0.3
	}
	if c.Search.SearchTimeoutSec == 0 {
		c.Search.SearchTimeoutSec = 30
	}
	if c.Search.StoreTimeoutSec == 0 {
		c.Search.StoreTimeoutSec = 10
	}
	if c.Search.GenerateTimeoutSec == 0 {
		c.Search.GenerateTimeoutSec = 60
	}
	if c.Search.LogWriteTimeoutSec == 0 {
		c.Search.LogWriteTimeoutSec = 5
	}
	if c.Quality.HistoryMinConfidence == 0 {
		c.Quality.HistoryMinConfidence = 0.7
	}
	if c.Quality.HistoryLimit == 0 {
		c.Quality.HistoryLimit = 50
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/metadata.db"
	}
	if c.Concurrency.SourceSearch == 0 {
		c.Concurrency.SourceSearch = 4
	}
	if c.Concurrency.Embedding == 0 {
		c.Concurrency.Embedding = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *SearchConfig) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutSec) * time.Second
}

func (c *SearchConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSec) * time.Second
}

func (c *SearchConfig) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutSec) * time.Second
}

func (c *SearchConfig) LogWriteTimeout() time.Duration {
	return time.Duration(c.LogWriteTimeoutSec) * time.Second
}

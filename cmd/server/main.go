package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"

	"github.com/mnfctr/datasheet-rag/internal/config"
	"github.com/mnfctr/datasheet-rag/internal/core"
	"github.com/mnfctr/datasheet-rag/internal/core/answer"
	"github.com/mnfctr/datasheet-rag/internal/core/quality"
	"github.com/mnfctr/datasheet-rag/internal/core/source"
	"github.com/mnfctr/datasheet-rag/internal/index"
	"github.com/mnfctr/datasheet-rag/internal/llm"
	"github.com/mnfctr/datasheet-rag/internal/logging"
	"github.com/mnfctr/datasheet-rag/internal/server"
	"github.com/mnfctr/datasheet-rag/internal/store"
	"github.com/mnfctr/datasheet-rag/internal/websearch"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn().Str("path", cfgPath).Err(err).Msg("config file not loaded, using defaults")
		cfg = config.Default()
	}

	logging.Setup(cfg.Logging.Level)

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatal().Str("path", cfg.Store.Path).Err(err).Msg("failed to open metadata store")
	}
	defer st.Close()

	llmClient, embedder, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize LLM client")
	}
	if !llmClient.Available(context.Background()) {
		log.Warn().Str("provider", cfg.LLM.Provider).Msg("LLM provider not reachable at startup, queries will fail until it is")
	}

	ix := index.New()

	searchers := []source.Searcher{
		source.NewDocumentSource(ix, embedder, cfg.Search.SearchTimeout()),
		source.NewHistorySource(st, embedder, cfg.Quality.HistoryMinConfidence, cfg.Quality.HistoryLimit, cfg.Search.StoreTimeout(), int64(cfg.Concurrency.Embedding)),
		source.NewWebSource(websearch.NewClient("", cfg.Search.SearchTimeout()), cfg.Search.MinWebRelevance),
	}

	pipeline := core.NewPipeline(
		searchers,
		answer.NewGenerator(llmClient, cfg.Search.GenerateTimeout()),
		quality.NewValidator(),
		st,
		cfg.Search.StoreTimeout(),
		cfg.Search.LogWriteTimeout(),
	)

	srv := server.NewServer(pipeline)
	r := srv.SetupRouter()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("addr", addr).Str("provider", cfg.LLM.Provider).Str("model", llmClient.ModelName()).Msg("starting server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// ABOUTME: Shared wiring for CLI commands: config, logging, and the RAG pipeline
// ABOUTME: Each command builds exactly the components it needs from here
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/docchat-standalone/internal/config"
	"github.com/harper/docchat-standalone/internal/core"
	"github.com/harper/docchat-standalone/internal/llm"
	"github.com/harper/docchat-standalone/internal/storage"
	"github.com/harper/docchat-standalone/internal/storage/chroma"
	"github.com/harper/docchat-standalone/internal/storage/memory"
)

// app bundles the wired retrieval pipeline for CLI commands
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     storage.VectorStore
	factory   *llm.Factory
	embedder  llm.Embedder
	retriever *core.Retriever
	ingestor  *core.Ingestor
}

// newLogger builds a zap logger honoring the global verbosity flags
func newLogger() (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if quiet {
		zcfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zcfg.Build()
}

// newApp loads configuration and wires the full pipeline
func newApp() (*app, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	// CHROMA_URL=memory keeps vectors in-process, useful for local runs
	// without a Chroma server.
	var store storage.VectorStore
	if cfg.ChromaURL == "memory" {
		store = memory.NewStore()
	} else {
		store = chroma.NewStore(chroma.Config{
			URL:        cfg.ChromaURL,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		})
	}

	factory := llm.NewFactory(llm.FactoryConfig{
		OpenAIKey:    cfg.OpenAIKey,
		GroqKey:      cfg.GroqKey,
		DefaultModel: cfg.ChatModel,
		Timeout:      cfg.Timeout,
		MaxRetries:   cfg.MaxRetries,
		RetryDelay:   cfg.RetryDelay,
	}, logger)

	embedder, err := factory.Embedder(cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("initializing embedder: %w", err)
	}

	chunker := core.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.MinChunkChars)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		factory:   factory,
		embedder:  embedder,
		retriever: core.NewRetriever(store, embedder, factory, cfg.TopKResults, logger),
		ingestor:  core.NewIngestor(store, embedder, chunker, cfg.DocsPath, logger),
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

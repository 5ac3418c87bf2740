// Command ecocoach builds and queries the retrieval index that grounds the
// sustainability coach in its document corpus.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/config"
	"github.com/greenloop-ai/ecocoach/internal/db"
	dbBadger "github.com/greenloop-ai/ecocoach/internal/db/badger"
	"github.com/greenloop-ai/ecocoach/internal/domain"
	logpkg "github.com/greenloop-ai/ecocoach/internal/logger"
	"github.com/greenloop-ai/ecocoach/internal/metrics"
	"github.com/greenloop-ai/ecocoach/internal/repository/corpus"
	"github.com/greenloop-ai/ecocoach/internal/repository/embcache"
	"github.com/greenloop-ai/ecocoach/internal/repository/indexfile"
	"github.com/greenloop-ai/ecocoach/internal/splitter"
	openaiTransport "github.com/greenloop-ai/ecocoach/internal/transport/openai"
	"github.com/greenloop-ai/ecocoach/internal/usecase/indexer"
)

// app is the composition root, assembled once before any command runs.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	cache     db.Store
	embedder  domain.Embedder
	completer domain.Completer
	indexer   *indexer.Service
}

var theApp *app

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ecocoach",
		Short: "Retrieval-grounded sustainability coach",
		Long: `ecocoach indexes a directory of text documents into embedding vectors
and answers questions grounded in the most similar chunks.

A persisted index under index.persist_dir is authoritative: corpus changes
are ignored until it is rebuilt with 'ecocoach index --rebuild'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			theApp = a
			cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), a.logger))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if theApp != nil {
				theApp.close()
			}
		},
	}

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newApp() (*app, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var cache db.Store
	if cfg.Cache.Enabled {
		cache, err = dbBadger.NewStore(dbBadger.Config{Dir: cfg.Cache.Dir})
		if err != nil {
			logger.Warn("Embedding cache unavailable, continuing without it", zap.Error(err))
		} else {
			embedder = embcache.New(embedder, cache, metrics.EmbeddingCacheTotal, logger)
		}
	}

	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:       cfg.Chat.APIKey,
		BaseURL:      cfg.Chat.BaseURL,
		Model:        cfg.Chat.Model,
		SystemPrompt: cfg.Chat.SystemPrompt,
		Temperature:  cfg.Chat.Temperature,
		Provider:     cfg.Chat.Provider,
		Logger:       logger,
	})

	split, err := splitter.New(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("create splitter: %w", err)
	}

	loader := corpus.NewLoader(cfg.Corpus.Extensions, logger)
	indexRepo := indexfile.New(cfg.Index.PersistDir, logger)
	indexSvc := indexer.New(loader, split, embedder, indexRepo, cfg.Corpus.Dir, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		embedder:  embedder,
		completer: completer,
		indexer:   indexSvc,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close embedding cache", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

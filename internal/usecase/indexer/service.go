// Package indexer builds the vector index from the source corpus, or reuses
// a previously persisted copy.
package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domdoc "github.com/greenloop-ai/ecocoach/internal/domain/document"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

// defaultBatchSize bounds how many chunk texts go into one embedding call.
const defaultBatchSize = 64

// Service orchestrates load -> split -> embed -> persist.
type Service struct {
	loader    Loader
	splitter  Splitter
	embed     Embedder
	store     Store
	sourceDir string
	batchSize int
	logger    *zap.Logger
}

// New creates an indexer service.
func New(
	loader Loader, splitter Splitter, embed Embedder, store Store,
	sourceDir string, logger *zap.Logger,
) *Service {
	return &Service{
		loader:    loader,
		splitter:  splitter,
		embed:     embed,
		store:     store,
		sourceDir: sourceDir,
		batchSize: defaultBatchSize,
		logger:    logger,
	}
}

// BuildOrLoad returns the persisted index when one exists, otherwise builds
// from the source corpus and persists the result. A persisted copy is
// authoritative even when source documents have since changed; rebuilding
// requires removing the persist directory first.
func (s *Service) BuildOrLoad(ctx context.Context) (*domidx.Index, error) {
	exists, err := s.store.Exists()
	if err != nil {
		return nil, fmt.Errorf("check persisted index: %w", err)
	}
	if exists {
		idx, err := s.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load persisted index: %w", err)
		}
		return idx, nil
	}
	return s.Build(ctx)
}

// Build loads the corpus, chunks and embeds every document, and persists the
// assembled index. An empty corpus builds successfully into a zero-entry
// index.
func (s *Service) Build(ctx context.Context) (*domidx.Index, error) {
	docs, err := s.loader.Load(ctx, s.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	var chunks []domdoc.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.splitter.Split(doc)...)
	}

	idx := domidx.New(0)
	totalTokens := 0

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text()
		}

		res, err := s.batchEmbed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed chunks [%d:%d]: %w", start, end, err)
		}
		totalTokens += res.TotalTokens

		for i, c := range batch {
			entry := domidx.NewEntry(c.DocumentID(), c.Seq(), c.Text(), res.Embeddings[i])
			if err := idx.Append(entry); err != nil {
				return nil, fmt.Errorf("assemble index: %w", err)
			}
		}
	}

	if err := s.store.Save(ctx, idx); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}

	s.logger.Info("Built index",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimension", idx.Dimension()),
		zap.Int("embedding_tokens", totalTokens),
	)
	return idx, nil
}

// Load returns the persisted index without building.
func (s *Service) Load(ctx context.Context) (*domidx.Index, error) {
	return s.store.Load(ctx)
}

// batchEmbed uses the native batch API when the embedder supports it and
// falls back to per-text calls otherwise.
func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}

package indexer

import (
	"context"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domdoc "github.com/greenloop-ai/ecocoach/internal/domain/document"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

// Loader reads the source corpus.
type Loader interface {
	Load(ctx context.Context, dir string) ([]domdoc.Document, error)
}

// Splitter cuts a document into overlapping chunks.
type Splitter interface {
	Split(doc domdoc.Document) []domdoc.Chunk
}

// Embedder vectorizes chunk text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Store persists and restores the index.
type Store interface {
	Exists() (bool, error)
	Load(ctx context.Context) (*domidx.Index, error)
	Save(ctx context.Context, idx *domidx.Index) error
}

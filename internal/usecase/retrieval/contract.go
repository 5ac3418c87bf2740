package retrieval

import (
	"context"

	"github.com/greenloop-ai/ecocoach/internal/domain"
)

// Embedder vectorizes query text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

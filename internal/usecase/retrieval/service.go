// Package retrieval ranks indexed chunks by cosine similarity to a query.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
	"github.com/greenloop-ai/ecocoach/internal/domain/search/result"
	"github.com/greenloop-ai/ecocoach/internal/logger"
)

// Service answers similarity queries against an immutable index. Queries do
// not mutate state, so one Service may serve concurrent callers.
type Service struct {
	idx   *domidx.Index
	embed Embedder
}

// New creates a retrieval service over a built index.
func New(idx *domidx.Index, embed Embedder) *Service {
	return &Service{idx: idx, embed: embed}
}

// Query embeds the query text and returns the top k most similar chunks.
func (s *Service) Query(ctx context.Context, text string, k int) ([]result.Result, error) {
	if k <= 0 || s.idx.Len() == 0 {
		return nil, nil
	}

	embRes, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	results, err := s.QueryVector(embRes.Embedding, k)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("Ranked query against index",
		zap.Int("index_entries", s.idx.Len()),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// QueryVector returns the top min(k, entry count) entries by descending
// cosine similarity. Equal scores keep insertion order. k <= 0 and an empty
// index both yield an empty result, not an error; a vector whose length
// disagrees with the index dimension fails with ErrDimensionMismatch.
func (s *Service) QueryVector(vector []float32, k int) ([]result.Result, error) {
	if k <= 0 || s.idx.Len() == 0 {
		return nil, nil
	}
	if len(vector) != s.idx.Dimension() {
		return nil, fmt.Errorf(
			"query vector has length %d, index dimension is %d: %w",
			len(vector), s.idx.Dimension(), domain.ErrDimensionMismatch)
	}

	entries := s.idx.Entries()
	scores := make([]float64, len(entries))
	order := make([]int, len(entries))
	for i := range entries {
		scores[i] = cosineSimilarity(vector, entries[i].Vector())
		order[i] = i
	}

	// Stable sort keeps insertion order for equal scores, which makes
	// results deterministic.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(entries) {
		k = len(entries)
	}

	results := make([]result.Result, 0, k)
	for _, pos := range order[:k] {
		e := &entries[pos]
		results = append(results, result.New(e.DocumentID(), e.Seq(), e.Text(), scores[pos]))
	}
	return results, nil
}

// cosineSimilarity is the dot product over the magnitude product,
// accumulated in float64. A zero-magnitude vector scores 0 against
// everything instead of dividing by zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

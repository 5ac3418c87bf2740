package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

type stubEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	s.called = true
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func testIndex(t *testing.T, vectors ...[]float32) *domidx.Index {
	t.Helper()
	idx := domidx.New(0)
	for i, vec := range vectors {
		entry := domidx.NewEntry("doc", i, "chunk", vec)
		if err := idx.Append(entry); err != nil {
			t.Fatalf("Append entry %d: %v", i, err)
		}
	}
	return idx
}

func TestQueryVector_RanksByDescendingSimilarity(t *testing.T) {
	idx := testIndex(t,
		[]float32{0, 1},  // orthogonal to query
		[]float32{1, 0},  // identical direction
		[]float32{1, 1},  // 45 degrees
		[]float32{-1, 0}, // opposite
	)
	svc := New(idx, nil)

	results, err := svc.QueryVector([]float32{1, 0}, 4)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	wantOrder := []int{1, 2, 0, 3}
	for i, want := range wantOrder {
		if results[i].Seq() != want {
			t.Errorf("result %d is entry %d, want %d", i, results[i].Seq(), want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score() > results[i-1].Score() {
			t.Errorf("scores not non-increasing at %d", i)
		}
	}
	if math.Abs(results[0].Score()-1) > 1e-9 {
		t.Errorf("identical vector score = %f, want 1", results[0].Score())
	}
}

func TestQueryVector_TiesKeepInsertionOrder(t *testing.T) {
	// All entries identical: every score ties, insertion order must hold.
	idx := testIndex(t,
		[]float32{1, 1},
		[]float32{1, 1},
		[]float32{1, 1},
	)
	svc := New(idx, nil)

	results, err := svc.QueryVector([]float32{2, 0}, 3)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	for i, r := range results {
		if r.Seq() != i {
			t.Errorf("result %d is entry %d, insertion order broken", i, r.Seq())
		}
	}
}

func TestQueryVector_TopKSmallerThanIndex(t *testing.T) {
	idx := testIndex(t,
		[]float32{1, 0},
		[]float32{0.9, 0.1},
		[]float32{0, 1},
	)
	svc := New(idx, nil)

	results, err := svc.QueryVector([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Seq() != 0 || results[1].Seq() != 1 {
		t.Errorf("unexpected top-2: %d, %d", results[0].Seq(), results[1].Seq())
	}
}

func TestQueryVector_KLargerThanIndex(t *testing.T) {
	idx := testIndex(t, []float32{1, 0}, []float32{0, 1})
	svc := New(idx, nil)

	results, err := svc.QueryVector([]float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected exactly entry count results, got %d", len(results))
	}
}

func TestQueryVector_NonPositiveK(t *testing.T) {
	idx := testIndex(t, []float32{1, 0})
	svc := New(idx, nil)

	for _, k := range []int{0, -1, -100} {
		results, err := svc.QueryVector([]float32{1, 0}, k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if len(results) != 0 {
			t.Errorf("k=%d: expected empty, got %d results", k, len(results))
		}
	}
}

func TestQueryVector_EmptyIndex(t *testing.T) {
	svc := New(domidx.New(0), nil)

	for _, k := range []int{1, 10, 1000} {
		results, err := svc.QueryVector([]float32{1, 2, 3}, k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		if len(results) != 0 {
			t.Errorf("k=%d: expected empty, got %d", k, len(results))
		}
	}
}

func TestQueryVector_DimensionMismatch(t *testing.T) {
	idx := testIndex(t, []float32{1, 0, 0})
	svc := New(idx, nil)

	_, err := svc.QueryVector([]float32{1, 0}, 1)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	// The index must be untouched and still queryable.
	results, err := svc.QueryVector([]float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("QueryVector after mismatch: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestQueryVector_ZeroMagnitudeScoresZero(t *testing.T) {
	idx := testIndex(t, []float32{0, 0}, []float32{1, 0})
	svc := New(idx, nil)

	results, err := svc.QueryVector([]float32{1, 1}, 2)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	var zeroScore float64 = -1
	for _, r := range results {
		if r.Seq() == 0 {
			zeroScore = r.Score()
		}
	}
	if zeroScore != 0 {
		t.Errorf("zero-magnitude entry score = %f, want 0", zeroScore)
	}

	// Zero query vector scores 0 against everything.
	results, err = svc.QueryVector([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("QueryVector: %v", err)
	}
	for _, r := range results {
		if r.Score() != 0 {
			t.Errorf("entry %d score = %f, want 0", r.Seq(), r.Score())
		}
	}
}

func TestQuery_EmbedsTextThenRanks(t *testing.T) {
	idx := testIndex(t, []float32{1, 0}, []float32{0, 1})
	embed := &stubEmbedder{vec: []float32{0, 2}}
	svc := New(idx, embed)

	results, err := svc.Query(context.Background(), "compost tips", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !embed.called {
		t.Fatal("expected the embedder to be called")
	}
	if len(results) != 1 || results[0].Seq() != 1 {
		t.Errorf("expected entry 1 on top")
	}
	if results[0].Text() != "chunk" {
		t.Errorf("unexpected text %q", results[0].Text())
	}
}

func TestQuery_EmbedderErrorPropagates(t *testing.T) {
	idx := testIndex(t, []float32{1, 0})
	embed := &stubEmbedder{err: domain.ErrEmbeddingProviderError}
	svc := New(idx, embed)

	_, err := svc.Query(context.Background(), "q", 1)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestQuery_EmptyIndexSkipsEmbedding(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{1}}
	svc := New(domidx.New(0), embed)

	results, err := svc.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
	if embed.called {
		t.Error("embedding an empty-index query wastes a provider call")
	}
}

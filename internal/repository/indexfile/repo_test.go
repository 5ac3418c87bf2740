package indexfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

func buildIndex(t *testing.T, vectors map[string][]float32) *domidx.Index {
	t.Helper()
	idx := domidx.New(0)
	seq := 0
	for _, id := range []string{"alpha", "beta", "gamma"} {
		vec, ok := vectors[id]
		if !ok {
			continue
		}
		if err := idx.Append(domidx.NewEntry(id, seq, "text of "+id, vec)); err != nil {
			t.Fatalf("Append: %v", err)
		}
		seq++
	}
	return idx
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())
	ctx := context.Background()

	idx := buildIndex(t, map[string][]float32{
		"alpha": {0.1, -0.25, 3.5e-8},
		"beta":  {1, 0, -1},
		"gamma": {0.30000001, 2.7182817, -0.99999994},
	})
	if err := repo.Save(ctx, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Dimension() != idx.Dimension() {
		t.Errorf("dimension = %d, want %d", loaded.Dimension(), idx.Dimension())
	}
	if loaded.Len() != idx.Len() {
		t.Fatalf("entry count = %d, want %d", loaded.Len(), idx.Len())
	}
	if !loaded.BuiltAt().Equal(idx.BuiltAt()) {
		t.Errorf("built-at marker = %v, want %v", loaded.BuiltAt(), idx.BuiltAt())
	}

	want := idx.Entries()
	for i, got := range loaded.Entries() {
		if got.DocumentID() != want[i].DocumentID() || got.Seq() != want[i].Seq() {
			t.Errorf("entry %d identity mismatch", i)
		}
		if got.Text() != want[i].Text() {
			t.Errorf("entry %d text mismatch", i)
		}
		gv, wv := got.Vector(), want[i].Vector()
		if len(gv) != len(wv) {
			t.Fatalf("entry %d vector length %d, want %d", i, len(gv), len(wv))
		}
		for j := range gv {
			if gv[j] != wv[j] {
				t.Errorf("entry %d vector[%d] = %v, want %v (not bit-exact)", i, j, gv[j], wv[j])
			}
		}
	}
}

func TestSaveLoad_EmptyIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())
	ctx := context.Background()

	if err := repo.Save(ctx, domidx.New(0)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("expected empty index, got %d entries", loaded.Len())
	}
	if loaded.Dimension() != 0 {
		t.Errorf("expected dimension 0, got %d", loaded.Dimension())
	}
}

func TestExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())

	exists, err := repo.Exists()
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("expected no index before save")
	}

	// A stray empty directory is not a persisted index.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	exists, err = repo.Exists()
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatal("empty directory should not count as an index")
	}

	if err := repo.Save(context.Background(), domidx.New(0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	exists, err = repo.Exists()
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("expected index after save")
	}
}

func TestLoad_NoIndex(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "db"), zap.NewNop())
	_, err := repo.Load(context.Background())
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestLoad_CorruptMetadata(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metaFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	repo := New(dir, zap.NewNop())
	_, err := repo.Load(context.Background())
	if !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestLoad_DimensionDisagreement(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())
	ctx := context.Background()

	idx := domidx.New(0)
	if err := idx.Append(domidx.NewEntry("a", 0, "text", []float32{1, 2, 3})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Save(ctx, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Rewrite the entry with a vector that disagrees with the metadata.
	entry := `{"document_id":"a","seq":0,"text":"text","vector":[1,2]}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, entriesFile), []byte(entry), 0o644); err != nil {
		t.Fatalf("write entries: %v", err)
	}

	_, err := repo.Load(ctx)
	if !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestLoad_EntryCountMismatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())
	ctx := context.Background()

	idx := domidx.New(0)
	if err := idx.Append(domidx.NewEntry("a", 0, "text", []float32{1, 2})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Save(ctx, idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, entriesFile), nil, 0o644); err != nil {
		t.Fatalf("truncate entries: %v", err)
	}

	_, err := repo.Load(ctx)
	if !errors.Is(err, domain.ErrCorruptIndex) {
		t.Fatalf("expected ErrCorruptIndex, got %v", err)
	}
}

func TestSave_ReplacesExistingIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	repo := New(dir, zap.NewNop())
	ctx := context.Background()

	first := buildIndex(t, map[string][]float32{"alpha": {1, 2}})
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := buildIndex(t, map[string][]float32{
		"alpha": {0, 1, 2},
		"beta":  {3, 4, 5},
	})
	if err := repo.Save(ctx, second); err != nil {
		t.Fatalf("Save over existing index: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("expected 2 entries after resave, got %d", loaded.Len())
	}
	if loaded.Dimension() != 3 {
		t.Errorf("expected dimension 3 after resave, got %d", loaded.Dimension())
	}
}

func TestSave_OverwritesStrayEmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	repo := New(dir, zap.NewNop())
	idx := domidx.New(0)
	if err := idx.Append(domidx.NewEntry("a", 0, "text", []float32{0.5})); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Save(context.Background(), idx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", loaded.Len())
	}
}

// Package indexfile persists the vector index as a directory of JSON records:
// a metadata file plus one JSON line per entry. Writes go to a temporary
// sibling directory and are published with a single rename, so a failed save
// never leaves a partially written index visible to a later load.
package indexfile

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain"
	domidx "github.com/greenloop-ai/ecocoach/internal/domain/index"
)

const (
	metaFile    = "meta.json"
	entriesFile = "entries.jsonl"

	formatVersion = 1

	// maxEntryLine bounds a single persisted entry record (text + vector).
	maxEntryLine = 16 * 1024 * 1024
)

// Repo implements usecase/indexer.Store against a persist directory.
type Repo struct {
	dir    string
	logger *zap.Logger
}

// New creates an index repository rooted at the persist directory.
func New(dir string, logger *zap.Logger) *Repo {
	return &Repo{dir: dir, logger: logger}
}

// Exists reports whether a previously persisted index is present. Only the
// metadata record counts; a stray empty directory does not.
func (r *Repo) Exists() (bool, error) {
	_, err := os.Stat(filepath.Join(r.dir, metaFile))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", r.dir, err)
}

// Save persists the index atomically: records are written to a temporary
// sibling directory which is then renamed over the target path.
func (r *Repo) Save(ctx context.Context, idx *domidx.Index) error {
	parent := filepath.Dir(r.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create parent directory %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, ".index-*")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := r.writeEntries(ctx, filepath.Join(tmp, entriesFile), idx); err != nil {
		return err
	}
	if err := r.writeMeta(filepath.Join(tmp, metaFile), idx); err != nil {
		return err
	}

	// A directory already at the target (a previous index, or a stray empty
	// one) would block the rename; move it aside first.
	if _, err := os.Stat(r.dir); err == nil {
		old := tmp + ".old"
		if err := os.Rename(r.dir, old); err != nil {
			return fmt.Errorf("replace %s: %w", r.dir, err)
		}
		defer os.RemoveAll(old)
	}
	if err := os.Rename(tmp, r.dir); err != nil {
		return fmt.Errorf("publish index to %s: %w", r.dir, err)
	}

	r.logger.Info("Persisted index",
		zap.String("dir", r.dir),
		zap.Int("entries", idx.Len()),
		zap.Int("dimension", idx.Dimension()),
	)
	return nil
}

// Load reads the persisted index back. Missing or inconsistent metadata
// fails with domain.ErrCorruptIndex; the recovery is to delete the persist
// directory and rebuild.
func (r *Repo) Load(ctx context.Context) (*domidx.Index, error) {
	meta, err := r.readMeta()
	if err != nil {
		return nil, err
	}

	entries, err := r.readEntries(ctx, meta)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Loaded persisted index",
		zap.String("dir", r.dir),
		zap.Int("entries", len(entries)),
		zap.Int("dimension", meta.Dimension),
	)
	return domidx.Reconstruct(meta.Dimension, meta.BuiltAt, entries), nil
}

func (r *Repo) writeMeta(path string, idx *domidx.Index) error {
	meta := metaDTO{
		FormatVersion: formatVersion,
		Dimension:     idx.Dimension(),
		EntryCount:    idx.Len(),
		BuiltAt:       idx.BuiltAt(),
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal index metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index metadata: %w", err)
	}
	return nil
}

func (r *Repo) writeEntries(ctx context.Context, path string, idx *domidx.Index) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create entries file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i, entry := range idx.Entries() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.Encode(toEntryDTO(entry)); err != nil {
			return fmt.Errorf("encode entry %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush entries file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync entries file: %w", err)
	}
	return nil
}

func (r *Repo) readMeta() (metaDTO, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, metaFile))
	if os.IsNotExist(err) {
		return metaDTO{}, fmt.Errorf("no index at %s: %w", r.dir, domain.ErrIndexNotFound)
	}
	if err != nil {
		return metaDTO{}, fmt.Errorf("read index metadata: %w", err)
	}

	var meta metaDTO
	if err := json.Unmarshal(data, &meta); err != nil {
		return metaDTO{}, fmt.Errorf("parse index metadata: %w: %w", domain.ErrCorruptIndex, err)
	}
	if meta.FormatVersion != formatVersion {
		return metaDTO{}, fmt.Errorf(
			"unsupported index format version %d: %w", meta.FormatVersion, domain.ErrCorruptIndex)
	}
	if meta.EntryCount < 0 || meta.Dimension < 0 {
		return metaDTO{}, fmt.Errorf("negative index metadata: %w", domain.ErrCorruptIndex)
	}
	if meta.EntryCount > 0 && meta.Dimension == 0 {
		return metaDTO{}, fmt.Errorf(
			"index has %d entries but no dimension: %w", meta.EntryCount, domain.ErrCorruptIndex)
	}
	return meta, nil
}

func (r *Repo) readEntries(ctx context.Context, meta metaDTO) ([]domidx.Entry, error) {
	f, err := os.Open(filepath.Join(r.dir, entriesFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("index entries file missing: %w", domain.ErrCorruptIndex)
	}
	if err != nil {
		return nil, fmt.Errorf("open index entries: %w", err)
	}
	defer f.Close()

	entries := make([]domidx.Entry, 0, meta.EntryCount)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEntryLine)

	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++

		var dto entryDTO
		if err := json.Unmarshal(scanner.Bytes(), &dto); err != nil {
			return nil, fmt.Errorf("parse entry %d: %w: %w", line, domain.ErrCorruptIndex, err)
		}
		if len(dto.Vector) != meta.Dimension {
			return nil, fmt.Errorf(
				"entry %d has vector length %d, index dimension is %d: %w",
				line, len(dto.Vector), meta.Dimension, domain.ErrCorruptIndex)
		}
		entries = append(entries, dto.toDomain())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read index entries: %w", err)
	}
	if line != meta.EntryCount {
		return nil, fmt.Errorf(
			"index metadata declares %d entries, found %d: %w",
			meta.EntryCount, line, domain.ErrCorruptIndex)
	}
	return entries, nil
}

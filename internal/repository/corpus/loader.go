// Package corpus loads source documents from a flat directory of text files.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	domdoc "github.com/greenloop-ai/ecocoach/internal/domain/document"
)

// DefaultExtensions are the file extensions recognized as corpus documents.
var DefaultExtensions = []string{".txt", ".md"}

// Loader reads recognized text files directly inside a source directory.
// Subdirectories are not descended into.
type Loader struct {
	extensions map[string]bool
	logger     *zap.Logger
}

// NewLoader creates a corpus loader. An empty extension list falls back to
// DefaultExtensions.
func NewLoader(extensions []string, logger *zap.Logger) *Loader {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	recognized := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		recognized[strings.ToLower(ext)] = true
	}
	return &Loader{extensions: recognized, logger: logger}
}

// Load returns one Document per recognized file in dir, in lexical filename
// order so rebuilds are reproducible. A missing directory is created empty
// and yields no documents. Files that cannot be read or are not valid UTF-8
// are skipped with a warning rather than failing the whole load.
func (l *Loader) Load(ctx context.Context, dir string) ([]domdoc.Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create corpus directory %s: %w", dir, err)
		}
		l.logger.Info("Created empty corpus directory", zap.String("dir", dir))
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory %s: %w", dir, err)
	}

	var docs []domdoc.Document
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !l.extensions[ext] {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable corpus file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		if !utf8.Valid(data) {
			l.logger.Warn("Skipping corpus file with invalid UTF-8",
				zap.String("path", path))
			continue
		}

		id := strings.TrimSuffix(name, filepath.Ext(name))
		doc, err := domdoc.New(id, path, string(data))
		if err != nil {
			l.logger.Warn("Skipping corpus file",
				zap.String("path", path), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}

	l.logger.Info("Loaded corpus",
		zap.String("dir", dir), zap.Int("documents", len(docs)))
	return docs, nil
}

// Package document holds the corpus document aggregate and its chunks.
package document

import "fmt"

// Document is a single corpus text file (immutable value object).
type Document struct {
	id     string
	source string
	text   string
}

// New validates and creates a Document. The ID is derived from the source
// filename by the loader; Source keeps the full path for diagnostics.
func New(id, source, text string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required")
	}
	return Document{id: id, source: source, text: text}, nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Source returns the path the document was loaded from.
func (d *Document) Source() string { return d.source }

// Text returns the raw document text.
func (d *Document) Text() string { return d.text }

// Chunk is one overlapping segment of a document. Chunks from the same
// document keep document-relative order via Seq; the overlap relation with
// the neighbouring chunk is implicit in that ordering.
type Chunk struct {
	documentID string
	seq        int
	text       string
}

// NewChunk creates a chunk of a document.
func NewChunk(documentID string, seq int, text string) Chunk {
	return Chunk{documentID: documentID, seq: seq, text: text}
}

// DocumentID returns the parent document identifier.
func (c *Chunk) DocumentID() string { return c.documentID }

// Seq returns the chunk's sequence index within its document.
func (c *Chunk) Seq() int { return c.seq }

// Text returns the chunk text span.
func (c *Chunk) Text() string { return c.text }

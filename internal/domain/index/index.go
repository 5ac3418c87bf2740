// Package index holds the vector index aggregate: embedded chunks plus
// dimension metadata.
package index

import (
	"fmt"
	"time"
)

// Entry is the durable unit of the index: one chunk and its embedding.
type Entry struct {
	documentID string
	seq        int
	text       string
	vector     []float32
}

// NewEntry creates an index entry.
func NewEntry(documentID string, seq int, text string, vector []float32) Entry {
	return Entry{documentID: documentID, seq: seq, text: text, vector: vector}
}

// DocumentID returns the source document identifier.
func (e *Entry) DocumentID() string { return e.documentID }

// Seq returns the chunk sequence index within its document.
func (e *Entry) Seq() int { return e.seq }

// Text returns the chunk text.
func (e *Entry) Text() string { return e.text }

// Vector returns the embedding vector.
func (e *Entry) Vector() []float32 { return e.vector }

// Index is the in-memory vector index. Once built it is immutable and safe
// for concurrent reads. Entry order is insertion order and is the tie-break
// order for equal similarity scores.
type Index struct {
	dimension int
	builtAt   time.Time
	entries   []Entry
}

// New creates an empty index. A zero dimension means the dimension is not
// yet known and will be adopted from the first appended entry; an index
// built over an empty corpus keeps dimension 0 and zero entries.
func New(dimension int) *Index {
	return &Index{dimension: dimension, builtAt: time.Now().UTC()}
}

// Reconstruct rebuilds an index from persisted state without validation.
// Storage is expected to have verified entry dimensions on load.
func Reconstruct(dimension int, builtAt time.Time, entries []Entry) *Index {
	return &Index{dimension: dimension, builtAt: builtAt, entries: entries}
}

// Append adds an entry, enforcing the dimension invariant: every vector in
// the index has exactly the declared dimension.
func (i *Index) Append(e Entry) error {
	if i.dimension == 0 && len(i.entries) == 0 {
		i.dimension = len(e.vector)
	}
	if len(e.vector) != i.dimension {
		return fmt.Errorf(
			"entry %s#%d has dimension %d, index has %d",
			e.documentID, e.seq, len(e.vector), i.dimension,
		)
	}
	i.entries = append(i.entries, e)
	return nil
}

// Dimension returns the declared embedding dimension (0 for an empty index).
func (i *Index) Dimension() int { return i.dimension }

// BuiltAt returns the build marker timestamp.
func (i *Index) BuiltAt() time.Time { return i.builtAt }

// Len returns the entry count.
func (i *Index) Len() int { return len(i.entries) }

// Entries returns the entries in insertion order.
func (i *Index) Entries() []Entry { return i.entries }

// Package splitter cuts document text into overlapping chunks for embedding.
//
// Splitting is recursive and separator-aware: text is divided on the highest
// priority separator present (paragraph breaks, then line breaks, then
// sentence punctuation, then spaces, then raw characters), oversized pieces
// are re-split on lower priority separators, and adjacent small pieces are
// merged back together up to the chunk size. Separators stay attached to the
// preceding piece, so concatenating the chunk heads reproduces the original
// text exactly.
package splitter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domdoc "github.com/greenloop-ai/ecocoach/internal/domain/document"
)

// DefaultSeparators is the priority list used when none is configured.
// The empty string means "split between any two characters" and is the
// last resort.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", " ", ""}

// Splitter produces overlapping chunks of at most chunkSize characters,
// where the first overlap characters of every chunk after the first repeat
// the tail of the previous chunk.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New validates the chunking parameters and creates a Splitter.
// Sizes are measured in characters (runes), and overlap must be smaller
// than chunkSize so every chunk carries new text.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must be non-negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: DefaultSeparators,
	}, nil
}

// Split cuts a document's text into ordered overlapping chunks.
// A document shorter than the chunk size yields exactly one chunk with no
// overlap; an empty document yields no chunks.
func (s *Splitter) Split(doc domdoc.Document) []domdoc.Chunk {
	text := doc.Text()
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= s.chunkSize {
		return []domdoc.Chunk{domdoc.NewChunk(doc.ID(), 0, text)}
	}

	// The overlap carried from the previous chunk counts against the chunk
	// size cap, so new text per chunk is budgeted at chunkSize - overlap.
	budget := s.chunkSize - s.overlap
	heads := merge(s.split(text, s.separators, budget), budget)

	chunks := make([]domdoc.Chunk, 0, len(heads))
	prev := ""
	for seq, head := range heads {
		chunkText := head
		if seq > 0 {
			chunkText = tailRunes(prev, s.overlap) + head
		}
		chunks = append(chunks, domdoc.NewChunk(doc.ID(), seq, chunkText))
		prev = chunkText
	}
	return chunks
}

// split recursively divides text into pieces of at most budget characters.
// A piece that contains none of the remaining separators is atomic and is
// returned whole even when it exceeds the budget.
func (s *Splitter) split(text string, separators []string, budget int) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}

	sep, rest, ok := pickSeparator(text, separators)
	if !ok {
		return []string{text}
	}

	var parts []string
	if sep == "" {
		parts = splitRunes(text, budget)
	} else {
		parts = strings.SplitAfter(text, sep)
	}

	var pieces []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if utf8.RuneCountInString(part) <= budget {
			pieces = append(pieces, part)
		} else {
			pieces = append(pieces, s.split(part, rest, budget)...)
		}
	}
	return pieces
}

// pickSeparator returns the first separator present in text and the lower
// priority separators left for recursion.
func pickSeparator(text string, separators []string) (string, []string, bool) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil, true
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:], true
		}
	}
	return "", nil, false
}

// merge greedily joins adjacent pieces into heads of at most budget
// characters. Concatenating the heads reproduces the input exactly.
func merge(pieces []string, budget int) []string {
	var heads []string
	var b strings.Builder
	current := 0

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if current > 0 && current+n > budget {
			heads = append(heads, b.String())
			b.Reset()
			current = 0
		}
		b.WriteString(piece)
		current += n
	}
	if current > 0 {
		heads = append(heads, b.String())
	}
	return heads
}

// splitRunes cuts text into windows of at most n runes.
func splitRunes(text string, n int) []string {
	var parts []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += n {
		end := start + n
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

// tailRunes returns the last n runes of s, or all of s when shorter.
func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

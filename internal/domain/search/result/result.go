// Package result holds the retrieval result value object.
package result

// Result is one retrieved chunk with its similarity score.
type Result struct {
	documentID string
	seq        int
	text       string
	score      float64
}

// New creates a retrieval result.
func New(documentID string, seq int, text string, score float64) Result {
	return Result{documentID: documentID, seq: seq, text: text, score: score}
}

// DocumentID returns the source document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// Seq returns the chunk sequence index within its document.
func (r *Result) Seq() int { return r.seq }

// Text returns the chunk text.
func (r *Result) Text() string { return r.text }

// Score returns the cosine similarity against the query.
func (r *Result) Score() float64 { return r.score }

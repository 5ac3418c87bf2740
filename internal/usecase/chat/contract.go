package chat

import (
	"context"

	"github.com/greenloop-ai/ecocoach/internal/domain/search/result"
)

// Retriever finds corpus chunks relevant to the user message.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]result.Result, error)
}

// Completer produces the coaching reply for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

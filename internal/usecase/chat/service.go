// Package chat answers user messages with advice grounded in the retrieved
// corpus. The completion provider is an external capability that may fail;
// a static fallback reply covers that case so the coach always answers.
package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain/search/result"
)

// DefaultFallbackReply is used when none is configured.
const DefaultFallbackReply = "Try small steps: reduce waste, save energy, and protect nature!"

// Service assembles grounded prompts and handles completion failures.
type Service struct {
	retriever Retriever
	completer Completer
	topK      int
	fallback  string
	logger    *zap.Logger
}

// New creates a chat service. topK bounds how many retrieved chunks go into
// the prompt; an empty fallback uses DefaultFallbackReply.
func New(retriever Retriever, completer Completer, topK int, fallback string, logger *zap.Logger) *Service {
	if fallback == "" {
		fallback = DefaultFallbackReply
	}
	return &Service{
		retriever: retriever,
		completer: completer,
		topK:      topK,
		fallback:  fallback,
		logger:    logger,
	}
}

// Answer replies to a user message. Retrieval failures degrade to an
// ungrounded prompt; completion failures return the static fallback reply.
// Answer never fails.
func (s *Service) Answer(ctx context.Context, message string) string {
	results, err := s.retriever.Query(ctx, message, s.topK)
	if err != nil {
		s.logger.Warn("Retrieval failed, answering without context", zap.Error(err))
		results = nil
	}

	reply, err := s.completer.Complete(ctx, buildPrompt(results, message))
	if err != nil {
		s.logger.Warn("Completion failed, using fallback reply", zap.Error(err))
		return s.fallback
	}
	return reply
}

// buildPrompt frames the user message as a coaching question, preceded by
// the retrieved excerpts when any were found.
func buildPrompt(results []result.Result, message string) string {
	var b strings.Builder
	b.WriteString("You are an eco-friendly lifestyle coach.\n")
	b.WriteString("Give simple, positive, and actionable advice.\n")

	if len(results) > 0 {
		b.WriteString("\nUse these excerpts from the knowledge base when relevant:\n")
		for _, r := range results {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(r.Text()))
			b.WriteString("\n")
		}
	}

	b.WriteString("\nUser asked: ")
	b.WriteString(message)
	return b.String()
}

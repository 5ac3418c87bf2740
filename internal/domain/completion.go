package domain

import "context"

// Completer is the chat completion contract. The concrete model is an
// external collaborator; callers must supply their own fallback reply
// when a completion fails.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/greenloop-ai/ecocoach/internal/domain"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float32 `json:"temperature"`
}

func TestCompleter_Complete(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Take the bus today."}}]
		}`))
	}))
	defer server.Close()

	comp := NewCompleter(&CompleterConfig{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		Model:        "test-model",
		SystemPrompt: "You are a helpful sustainability coach.",
		Temperature:  0.7,
		Provider:     "test",
		Logger:       zap.NewNop(),
	})

	reply, err := comp.Complete(context.Background(), "How can I commute greener?")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Take the bus today." {
		t.Errorf("unexpected reply: %q", reply)
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("first message role = %s, want system", captured.Messages[0].Role)
	}
	if captured.Messages[1].Content != "How can I commute greener?" {
		t.Errorf("user message = %q", captured.Messages[1].Content)
	}
	if captured.Temperature != 0.7 {
		t.Errorf("temperature = %f, want 0.7", captured.Temperature)
	}
}

func TestCompleter_NoSystemPrompt(t *testing.T) {
	var captured chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}}]
		}`))
	}))
	defer server.Close()

	comp := NewCompleter(&CompleterConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	if _, err := comp.Complete(context.Background(), "hi"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(captured.Messages) != 1 {
		t.Fatalf("expected only the user message, got %d", len(captured.Messages))
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit"}}`))
	}))
	defer server.Close()

	comp := NewCompleter(&CompleterConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := comp.Complete(context.Background(), "hi")
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}

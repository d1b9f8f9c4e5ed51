package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aviary-ai/aviary/internal/log"
)

// newTestGateway points a Gateway at a stub completion server.
func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGateway(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, log.NewNop())
	return g, srv
}

func completionResponse(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: text}},
		},
	}
}

func TestComplete(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionResponse("Hi there"))
	})

	msgs := []Message{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hey"},
		{Role: "user", Content: "Hello again"},
	}
	text, err := g.Complete(context.Background(), "You are a helpful assistant.\n\n", msgs, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "Hi there" {
		t.Errorf("Complete() = %q, want %q", text, "Hi there")
	}

	// System instruction leads, context follows in order.
	if len(gotReq.Messages) != 4 {
		t.Fatalf("upstream got %d messages, want 4", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" {
		t.Errorf("leading role = %q, want system", gotReq.Messages[0].Role)
	}
	if gotReq.Messages[1].Content != "Hello" || gotReq.Messages[3].Content != "Hello again" {
		t.Error("context messages reordered")
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", gotReq.Model)
	}
}

func TestCompleteRejected(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
	})

	_, err := g.Complete(context.Background(), "sys", nil, "gpt-4o-mini")
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Complete() error = %v, want ErrRejected", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v does not carry a StatusError", err)
	}
	if statusErr.Status != http.StatusTooManyRequests {
		t.Errorf("StatusError.Status = %d, want 429", statusErr.Status)
	}
}

func TestCompleteMalformed(t *testing.T) {
	tests := []struct {
		name string
		resp openai.ChatCompletionResponse
	}{
		{"no choices", openai.ChatCompletionResponse{ID: "x", Object: "chat.completion"}},
		{"empty answer", completionResponse("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.resp)
			})
			_, err := g.Complete(context.Background(), "sys", nil, "gpt-4o-mini")
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Complete() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestCompleteUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // connection refused from here on

	g := NewGateway(Config{APIKey: "test-key", BaseURL: url + "/v1"}, log.NewNop())
	_, err := g.Complete(context.Background(), "sys", nil, "gpt-4o-mini")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Complete() error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	g := NewGateway(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Timeout: 50 * time.Millisecond,
	}, log.NewNop())

	_, err := g.Complete(context.Background(), "sys", nil, "gpt-4o-mini")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Complete() error = %v, want ErrUnavailable", err)
	}
}

func TestCompleteCancelled(t *testing.T) {
	started := make(chan struct{})
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-block
	}))
	defer srv.Close()
	defer close(block)

	g := NewGateway(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := g.Complete(ctx, "sys", nil, "gpt-4o-mini")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Complete() error = %v, want ErrUnavailable", err)
	}
}

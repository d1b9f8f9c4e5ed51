// Package llm is the gateway to the external completion service.
//
// One request per turn, one full answer back. There is no automatic retry
// and no token streaming at this layer; failures are surfaced immediately
// with a typed error so the orchestrator can decide what the caller sees.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Typed gateway failures. Checked with errors.Is().
var (
	// ErrUnavailable indicates a network failure or timeout reaching the
	// service. Safe to retry, but retrying is the caller's decision.
	ErrUnavailable = errors.New("completion service unavailable")

	// ErrRejected indicates a non-success response from the service.
	// Non-retryable without caller intervention; the upstream status is
	// carried by the wrapping StatusError.
	ErrRejected = errors.New("completion request rejected")

	// ErrMalformed indicates a success response with no recognizable answer.
	// A hard failure rather than an empty string, so a blank assistant turn
	// is never persisted.
	ErrMalformed = errors.New("completion response malformed")
)

// StatusError carries the upstream HTTP status of a rejected request.
// It unwraps to ErrRejected.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion request rejected: upstream status %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrRejected }

// Message is one entry of the context window sent upstream.
type Message struct {
	Role    string
	Content string
}

// Config holds the gateway's connection settings.
type Config struct {
	APIKey  string
	BaseURL string        // empty uses the service default
	Timeout time.Duration // per-call ceiling; zero means no gateway-imposed limit
}

// Gateway issues completion requests against an OpenAI-compatible service.
// Gateway is safe for concurrent use by multiple goroutines.
type Gateway struct {
	client  *openai.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Gateway{
		client:  openai.NewClientWithConfig(clientCfg),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Complete sends the system instruction and ordered context messages and
// returns the full answer text. The system instruction travels as the
// distinguished leading entry; context messages follow in the order given.
//
// The given context bounds the call: cancelling it (caller disconnect)
// abandons the request, and the configured timeout maps to ErrUnavailable.
func (g *Gateway) Complete(ctx context.Context, system string, messages []Message, model string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	chatMessages = append(chatMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: chatMessages,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformed)
	}
	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("%w: empty answer text", ErrMalformed)
	}

	g.logger.Debug("completion obtained",
		"model", model,
		"context_messages", len(messages),
		"duration", time.Since(start),
	)
	return text, nil
}

// classify maps transport and service errors onto the gateway taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timeout: %v", ErrUnavailable, err)
	}
	if errors.Is(err, context.Canceled) {
		// Caller disconnect; still unavailable from the turn's perspective.
		return fmt.Errorf("%w: cancelled: %v", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

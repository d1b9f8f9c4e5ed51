// Package chat runs one conversation turn end to end.
//
// A turn walks a fixed pipeline: access check, conversation resolution,
// user turn persistence, context build, completion call, assistant turn
// persistence, delivery. Stages run strictly in order within a turn and
// never branch back; concurrent turns on different conversations do not
// block each other. Once the user's message is persisted it stays persisted
// regardless of what later stages do.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/conversation"
	"github.com/aviary-ai/aviary/internal/llm"
	"github.com/aviary-ai/aviary/internal/prompt"
)

// Stage identifies where in the turn pipeline an error occurred.
type Stage string

// Pipeline stages in execution order.
const (
	StageAccessCheck   Stage = "access_check"
	StageConversation  Stage = "conversation"
	StageUserTurn      Stage = "user_turn"
	StageContext       Stage = "context"
	StageCompletion    Stage = "completion"
	StageAssistantTurn Stage = "assistant_turn"
)

// Sentinel errors for turn processing.
var (
	// ErrEmptyMessage indicates a turn request with no message text.
	ErrEmptyMessage = errors.New("message required")

	// ErrPersistence indicates a storage write failed. Fatal for the
	// current turn; never retried silently.
	ErrPersistence = errors.New("persistence failure")
)

// TurnError is a stage-tagged turn failure. Unwrap exposes the underlying
// error so callers keep matching sentinels with errors.Is().
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed at %s: %v", e.Stage, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// AgentResolver resolves an agent profile and verifies access.
type AgentResolver interface {
	Resolve(ctx context.Context, agentID, userID uuid.UUID) (agent.Agent, error)
}

// ConversationStore is the persistence surface a turn needs.
type ConversationStore interface {
	ResolveOrCreate(ctx context.Context, id, agentID, userID uuid.UUID) (conversation.Conversation, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string) (conversation.Message, error)
	Window(ctx context.Context, conversationID uuid.UUID) ([]conversation.Message, error)
}

// PromptLister returns an agent's instruction blocks in insertion order.
type PromptLister interface {
	List(ctx context.Context, agentID uuid.UUID) ([]prompt.Block, error)
}

// Completer issues one completion request and returns the full answer.
type Completer interface {
	Complete(ctx context.Context, system string, messages []llm.Message, model string) (string, error)
}

// Request is one inbound user turn. A zero ConversationID starts a new
// conversation.
type Request struct {
	AgentID        uuid.UUID
	UserID         uuid.UUID
	ConversationID uuid.UUID
	Message        string
}

// Result is a completed turn: the conversation it belongs to and the full
// assistant answer.
type Result struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Text           string    `json:"text"`
}

// Orchestrator coordinates the turn pipeline.
// Orchestrator is safe for concurrent use by multiple goroutines; turns on
// the same conversation are not serialized here and callers wanting strict
// per-conversation ordering must serialize their own requests.
type Orchestrator struct {
	agents        AgentResolver
	conversations ConversationStore
	prompts       PromptLister
	completer     Completer
	logger        *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(agents AgentResolver, conversations ConversationStore, prompts PromptLister, completer Completer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		agents:        agents,
		conversations: conversations,
		prompts:       prompts,
		completer:     completer,
		logger:        logger,
	}
}

// Send runs one turn to completion and returns the assistant's answer.
//
// The context is the caller's request context: disconnecting cancels the
// outstanding completion call, and a cancelled call persists no partial
// assistant message. On gateway failure the user's message stays persisted
// and no assistant message is written; a later retry by the caller appends
// a fresh user turn rather than reusing the failed one.
func (o *Orchestrator) Send(ctx context.Context, req Request) (Result, error) {
	if req.Message == "" {
		return Result{}, &TurnError{Stage: StageAccessCheck, Err: ErrEmptyMessage}
	}
	start := time.Now()

	profile, err := o.agents.Resolve(ctx, req.AgentID, req.UserID)
	if err != nil {
		return Result{}, &TurnError{Stage: StageAccessCheck, Err: err}
	}

	conv, err := o.conversations.ResolveOrCreate(ctx, req.ConversationID, req.AgentID, req.UserID)
	if err != nil {
		return Result{}, &TurnError{Stage: StageConversation, Err: err}
	}

	// Durability checkpoint: from here the turn is recoverable even if
	// every later stage fails.
	if _, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleUser, req.Message); err != nil {
		return Result{}, &TurnError{Stage: StageUserTurn, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}

	window, err := o.conversations.Window(ctx, conv.ID)
	if err != nil {
		return Result{}, &TurnError{Stage: StageContext, Err: err}
	}
	blocks, err := o.prompts.List(ctx, profile.ID)
	if err != nil {
		return Result{}, &TurnError{Stage: StageContext, Err: err}
	}
	system := prompt.Compose(profile.SystemPrompt, blocks)

	answer, err := o.completer.Complete(ctx, system, toLLMMessages(window), profile.ModelName)
	if err != nil {
		// The user message stays; no assistant message is written.
		o.logger.Warn("completion failed",
			"conversation_id", conv.ID,
			"agent_id", profile.ID,
			"error", err,
		)
		return Result{}, &TurnError{Stage: StageCompletion, Err: err}
	}

	if _, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleAssistant, answer); err != nil {
		return Result{}, &TurnError{Stage: StageAssistantTurn, Err: fmt.Errorf("%w: %v", ErrPersistence, err)}
	}

	o.logger.Info("turn completed",
		"conversation_id", conv.ID,
		"agent_id", profile.ID,
		"model", profile.ModelName,
		"context_messages", len(window),
		"duration", time.Since(start),
	)
	return Result{ConversationID: conv.ID, Text: answer}, nil
}

func toLLMMessages(window []conversation.Message) []llm.Message {
	out := make([]llm.Message, 0, len(window))
	for _, m := range window {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

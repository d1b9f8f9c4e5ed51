// Package prompt stores instruction blocks and composes them with an
// agent's base prompt into the effective system prompt for a chat turn.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aviary-ai/aviary/internal/postgres"
)

// Sentinel errors for prompt operations.
var (
	// ErrEmptyContent indicates a create request without content.
	ErrEmptyContent = errors.New("prompt content required")
)

// Querier defines the database operations the prompt store needs.
type Querier interface {
	CreatePrompt(ctx context.Context, arg postgres.CreatePromptParams) (postgres.Prompt, error)
	ListPromptsByAgent(ctx context.Context, agentID pgtype.UUID) ([]postgres.Prompt, error)
}

// Block is one stored instruction attached to an agent.
type Block struct {
	ID        uuid.UUID `json:"id"`
	AgentID   uuid.UUID `json:"agent_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Store implements prompt block operations over a Querier.
type Store struct {
	querier Querier
}

// NewStore creates a prompt Store.
func NewStore(querier Querier) *Store {
	return &Store{querier: querier}
}

// Create attaches a new instruction block to an agent. Blocks are append
// only; composition order is insertion order.
func (s *Store) Create(ctx context.Context, agentID uuid.UUID, title, content, category string) (Block, error) {
	if content == "" {
		return Block{}, ErrEmptyContent
	}
	row, err := s.querier.CreatePrompt(ctx, postgres.CreatePromptParams{
		AgentID:  postgres.PgUUID(agentID),
		Title:    title,
		Content:  content,
		Category: category,
	})
	if err != nil {
		return Block{}, fmt.Errorf("create prompt: %w", err)
	}
	return toBlock(row), nil
}

// List returns an agent's blocks in insertion order.
func (s *Store) List(ctx context.Context, agentID uuid.UUID) ([]Block, error) {
	rows, err := s.querier.ListPromptsByAgent(ctx, postgres.PgUUID(agentID))
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	blocks := make([]Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, toBlock(row))
	}
	return blocks, nil
}

// Compose builds the effective system prompt: the base prompt followed by
// each block as a bracketed section. The output is deterministic for a given
// base and block order.
//
//	<base>\n\n[CATEGORY] Title\ncontent\n\n[CATEGORY] Title\ncontent\n\n...
//
// With no blocks the result is the base prompt and the trailing separator.
func Compose(base string, blocks []Block) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\n")
	for _, blk := range blocks {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(blk.Category))
		b.WriteString("] ")
		b.WriteString(blk.Title)
		b.WriteString("\n")
		b.WriteString(blk.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func toBlock(row postgres.Prompt) Block {
	return Block{
		ID:        postgres.FromPgUUID(row.ID),
		AgentID:   postgres.FromPgUUID(row.AgentID),
		Title:     row.Title,
		Content:   row.Content,
		Category:  row.Category,
		CreatedAt: row.CreatedAt.Time,
	}
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const createPrompt = `
INSERT INTO prompts (agent_id, title, content, category)
VALUES ($1, $2, $3, $4)
RETURNING id, agent_id, title, content, category, seq, created_at
`

// CreatePromptParams holds the arguments for CreatePrompt.
type CreatePromptParams struct {
	AgentID  pgtype.UUID
	Title    string
	Content  string
	Category string
}

// CreatePrompt inserts a new instruction block for an agent.
func (q *Queries) CreatePrompt(ctx context.Context, arg CreatePromptParams) (Prompt, error) {
	row := q.db.QueryRow(ctx, createPrompt, arg.AgentID, arg.Title, arg.Content, arg.Category)
	var p Prompt
	err := row.Scan(&p.ID, &p.AgentID, &p.Title, &p.Content, &p.Category, &p.Seq, &p.CreatedAt)
	if err != nil {
		return Prompt{}, fmt.Errorf("create prompt: %w", err)
	}
	return p, nil
}

const listPromptsByAgent = `
SELECT id, agent_id, title, content, category, seq, created_at
FROM prompts
WHERE agent_id = $1
ORDER BY seq
`

// ListPromptsByAgent returns all instruction blocks of an agent in insertion
// order. The seq ordering is load-bearing: the rendered system instruction
// must be deterministic.
func (q *Queries) ListPromptsByAgent(ctx context.Context, agentID pgtype.UUID) ([]Prompt, error) {
	rows, err := q.db.Query(ctx, listPromptsByAgent, agentID)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	var items []Prompt
	for rows.Next() {
		var p Prompt
		if err := rows.Scan(&p.ID, &p.AgentID, &p.Title, &p.Content, &p.Category, &p.Seq, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return items, nil
}

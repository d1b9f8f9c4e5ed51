package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const createConversation = `
INSERT INTO conversations (agent_id, user_id, title)
VALUES ($1, $2, $3)
RETURNING id, agent_id, user_id, title, created_at
`

// CreateConversationParams holds the arguments for CreateConversation.
type CreateConversationParams struct {
	AgentID pgtype.UUID
	UserID  pgtype.UUID
	Title   string
}

// CreateConversation inserts a new conversation scoped to (agent, user).
func (q *Queries) CreateConversation(ctx context.Context, arg CreateConversationParams) (Conversation, error) {
	row := q.db.QueryRow(ctx, createConversation, arg.AgentID, arg.UserID, arg.Title)
	var c Conversation
	err := row.Scan(&c.ID, &c.AgentID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

const getConversation = `
SELECT id, agent_id, user_id, title, created_at
FROM conversations
WHERE id = $1
`

// GetConversation fetches a conversation by ID.
func (q *Queries) GetConversation(ctx context.Context, id pgtype.UUID) (Conversation, error) {
	row := q.db.QueryRow(ctx, getConversation, id)
	var c Conversation
	err := row.Scan(&c.ID, &c.AgentID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

const listConversations = `
SELECT id, agent_id, user_id, title, created_at
FROM conversations
WHERE agent_id = $1 AND user_id = $2
ORDER BY created_at DESC
`

// ListConversationsParams holds the arguments for ListConversations.
type ListConversationsParams struct {
	AgentID pgtype.UUID
	UserID  pgtype.UUID
}

// ListConversations returns a user's conversations with an agent,
// most recent first.
func (q *Queries) ListConversations(ctx context.Context, arg ListConversationsParams) ([]Conversation, error) {
	rows, err := q.db.Query(ctx, listConversations, arg.AgentID, arg.UserID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var items []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.AgentID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return items, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const addMessage = `
INSERT INTO messages (conversation_id, role, content)
VALUES ($1, $2, $3)
RETURNING id, conversation_id, role, content, seq, created_at
`

// AddMessageParams holds the arguments for AddMessage.
type AddMessageParams struct {
	ConversationID pgtype.UUID
	Role           string
	Content        string
}

// AddMessage appends one message. The timestamp and seq are server-assigned;
// existing rows are never mutated or reordered.
func (q *Queries) AddMessage(ctx context.Context, arg AddMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, addMessage, arg.ConversationID, arg.Role, arg.Content)
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Seq, &m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("add message: %w", err)
	}
	return m, nil
}

const recentMessages = `
SELECT id, conversation_id, role, content, seq, created_at FROM (
    SELECT id, conversation_id, role, content, seq, created_at
    FROM messages
    WHERE conversation_id = $1
    ORDER BY created_at DESC, seq DESC
    LIMIT $2
) tail
ORDER BY created_at, seq
`

// RecentMessagesParams holds the arguments for RecentMessages.
type RecentMessagesParams struct {
	ConversationID pgtype.UUID
	Limit          int32
}

// RecentMessages returns up to Limit most recent messages of a conversation
// in ascending chronological order (oldest first). This ordering is what the
// completion service receives; reversing it would corrupt dialogue coherence.
func (q *Queries) RecentMessages(ctx context.Context, arg RecentMessagesParams) ([]Message, error) {
	rows, err := q.db.Query(ctx, recentMessages, arg.ConversationID, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

const listMessages = `
SELECT id, conversation_id, role, content, seq, created_at
FROM messages
WHERE conversation_id = $1
ORDER BY created_at, seq
`

// ListMessages returns the full ordered message log of a conversation.
func (q *Queries) ListMessages(ctx context.Context, conversationID pgtype.UUID) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessages, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

const countMessages = `
SELECT COUNT(*) FROM messages WHERE conversation_id = $1
`

// CountMessages returns the number of messages in a conversation.
func (q *Queries) CountMessages(ctx context.Context, conversationID pgtype.UUID) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, countMessages, conversationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// scanMessages drains rows into a Message slice.
func scanMessages(rows pgx.Rows) ([]Message, error) {
	var items []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.Seq, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return items, nil
}

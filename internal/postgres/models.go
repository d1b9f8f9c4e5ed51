package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// User is a row in the users table.
type User struct {
	ID           pgtype.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    pgtype.Timestamptz
}

// Project is a row in the projects table.
type Project struct {
	ID          pgtype.UUID
	UserID      pgtype.UUID
	Name        string
	Description string
	CreatedAt   pgtype.Timestamptz
}

// Agent is a row in the agents table.
type Agent struct {
	ID            pgtype.UUID
	ProjectID     pgtype.UUID
	Name          string
	SystemPrompt  string
	ModelProvider string
	ModelName     string
	CreatedAt     pgtype.Timestamptz
}

// Prompt is a row in the prompts table.
// Seq preserves insertion order among an agent's prompts.
type Prompt struct {
	ID        pgtype.UUID
	AgentID   pgtype.UUID
	Title     string
	Content   string
	Category  string
	Seq       int64
	CreatedAt pgtype.Timestamptz
}

// Conversation is a row in the conversations table.
type Conversation struct {
	ID        pgtype.UUID
	AgentID   pgtype.UUID
	UserID    pgtype.UUID
	Title     string
	CreatedAt pgtype.Timestamptz
}

// Message is a row in the messages table.
// Ordering key is (CreatedAt, Seq).
type Message struct {
	ID             pgtype.UUID
	ConversationID pgtype.UUID
	Role           string
	Content        string
	Seq            int64
	CreatedAt      pgtype.Timestamptz
}

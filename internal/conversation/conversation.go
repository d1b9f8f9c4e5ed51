// Package conversation persists conversations and their append-only message
// history, and builds the bounded context window sent to the model.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aviary-ai/aviary/internal/postgres"
)

// DefaultTitle is assigned to conversations created without one.
const DefaultTitle = "New Chat"

// DefaultWindow is the number of most recent messages sent as context.
// A trailing window over chronological order; older messages are silently
// excluded, with no summarization or token counting.
const DefaultWindow = 20

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Sentinel errors for conversation operations.
var (
	// ErrNotFound indicates the conversation does not exist or belongs to
	// another user or agent. Foreign conversations are indistinguishable
	// from missing ones so existence is not leaked.
	ErrNotFound = errors.New("conversation not found")
)

// Querier defines the database operations the conversation store needs.
type Querier interface {
	CreateConversation(ctx context.Context, arg postgres.CreateConversationParams) (postgres.Conversation, error)
	GetConversation(ctx context.Context, id pgtype.UUID) (postgres.Conversation, error)
	ListConversations(ctx context.Context, arg postgres.ListConversationsParams) ([]postgres.Conversation, error)
	AddMessage(ctx context.Context, arg postgres.AddMessageParams) (postgres.Message, error)
	RecentMessages(ctx context.Context, arg postgres.RecentMessagesParams) ([]postgres.Message, error)
	ListMessages(ctx context.Context, conversationID pgtype.UUID) ([]postgres.Message, error)
	CountMessages(ctx context.Context, conversationID pgtype.UUID) (int64, error)
}

// Conversation is one persisted dialogue between a user and an agent.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	AgentID   uuid.UUID `json:"agent_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Message is one turn in a conversation. The (CreatedAt, Seq) pair is the
// ordering key; Seq breaks ties between messages sharing a timestamp.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store implements conversation persistence over a Querier.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	querier Querier
	window  int
}

// NewStore creates a conversation Store. window is the context window size;
// zero or negative takes DefaultWindow.
func NewStore(querier Querier, window int) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{querier: querier, window: window}
}

// Create starts a new conversation between a user and an agent.
// An empty title takes DefaultTitle.
func (s *Store) Create(ctx context.Context, agentID, userID uuid.UUID, title string) (Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}
	row, err := s.querier.CreateConversation(ctx, postgres.CreateConversationParams{
		AgentID: postgres.PgUUID(agentID),
		UserID:  postgres.PgUUID(userID),
		Title:   title,
	})
	if err != nil {
		return Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return toConversation(row), nil
}

// Get loads a conversation and verifies it belongs to the given user and
// agent. Foreign or missing conversations both return ErrNotFound.
func (s *Store) Get(ctx context.Context, id, agentID, userID uuid.UUID) (Conversation, error) {
	row, err := s.querier.GetConversation(ctx, postgres.PgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if postgres.FromPgUUID(row.UserID) != userID || postgres.FromPgUUID(row.AgentID) != agentID {
		return Conversation{}, ErrNotFound
	}
	return toConversation(row), nil
}

// GetOwned loads a conversation checking only user ownership, for history
// reads where the agent is implied by the conversation itself.
func (s *Store) GetOwned(ctx context.Context, id, userID uuid.UUID) (Conversation, error) {
	row, err := s.querier.GetConversation(ctx, postgres.PgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if postgres.FromPgUUID(row.UserID) != userID {
		return Conversation{}, ErrNotFound
	}
	return toConversation(row), nil
}

// ResolveOrCreate returns the identified conversation after ownership checks,
// or creates a fresh one when id is uuid.Nil.
func (s *Store) ResolveOrCreate(ctx context.Context, id, agentID, userID uuid.UUID) (Conversation, error) {
	if id == uuid.Nil {
		return s.Create(ctx, agentID, userID, "")
	}
	return s.Get(ctx, id, agentID, userID)
}

// List returns a user's conversations with an agent, most recent first.
func (s *Store) List(ctx context.Context, agentID, userID uuid.UUID) ([]Conversation, error) {
	rows, err := s.querier.ListConversations(ctx, postgres.ListConversationsParams{
		AgentID: postgres.PgUUID(agentID),
		UserID:  postgres.PgUUID(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	conversations := make([]Conversation, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, toConversation(row))
	}
	return conversations, nil
}

// AppendMessage durably appends one turn. The database assigns the timestamp
// and sequence number; prior messages are never mutated.
func (s *Store) AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string) (Message, error) {
	row, err := s.querier.AddMessage(ctx, postgres.AddMessageParams{
		ConversationID: postgres.PgUUID(conversationID),
		Role:           role,
		Content:        content,
	})
	if err != nil {
		return Message{}, fmt.Errorf("append message: %w", err)
	}
	return toMessage(row), nil
}

// Window returns the context window for a conversation: the most recent
// messages up to the configured window size, oldest first. A message
// persisted immediately before the call is part of the window.
func (s *Store) Window(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.querier.RecentMessages(ctx, postgres.RecentMessagesParams{
		ConversationID: postgres.PgUUID(conversationID),
		Limit:          int32(s.window),
	})
	if err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}
	return toMessages(rows), nil
}

// Messages returns a conversation's full history, oldest first.
func (s *Store) Messages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	rows, err := s.querier.ListMessages(ctx, postgres.PgUUID(conversationID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return toMessages(rows), nil
}

func toConversation(row postgres.Conversation) Conversation {
	return Conversation{
		ID:        postgres.FromPgUUID(row.ID),
		AgentID:   postgres.FromPgUUID(row.AgentID),
		UserID:    postgres.FromPgUUID(row.UserID),
		Title:     row.Title,
		CreatedAt: row.CreatedAt.Time,
	}
}

func toMessage(row postgres.Message) Message {
	return Message{
		ID:             postgres.FromPgUUID(row.ID),
		ConversationID: postgres.FromPgUUID(row.ConversationID),
		Role:           row.Role,
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.Time,
	}
}

func toMessages(rows []postgres.Message) []Message {
	messages := make([]Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, toMessage(row))
	}
	return messages
}

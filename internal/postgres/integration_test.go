//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aviary-ai/aviary/internal/postgres"
	"github.com/aviary-ai/aviary/internal/testutil"
)

// TestQueries exercises the full query surface against a real database,
// including the server-assigned ordering that the in-memory mocks only
// approximate.
func TestQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	database, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	q := postgres.New(database.Pool)

	user, err := q.CreateUser(ctx, postgres.CreateUserParams{
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if !user.ID.Valid {
		t.Fatal("CreateUser returned invalid id")
	}

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := q.CreateUser(ctx, postgres.CreateUserParams{
			Email:        "ada@example.com",
			Name:         "Other",
			PasswordHash: "x",
		})
		if err == nil {
			t.Fatal("expected unique violation, got nil")
		}
	})

	project, err := q.CreateProject(ctx, postgres.CreateProjectParams{
		UserID:      user.ID,
		Name:        "Support",
		Description: "customer support bots",
	})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	agent, err := q.CreateAgent(ctx, postgres.CreateAgentParams{
		ProjectID:     project.ID,
		Name:          "Helper",
		SystemPrompt:  "You are a helpful assistant.",
		ModelProvider: "openai",
		ModelName:     "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}

	t.Run("prompt blocks keep insertion order", func(t *testing.T) {
		titles := []string{"Tone", "Format", "Escalation"}
		for _, title := range titles {
			_, err := q.CreatePrompt(ctx, postgres.CreatePromptParams{
				AgentID:  agent.ID,
				Title:    title,
				Content:  "content for " + title,
				Category: "style",
			})
			if err != nil {
				t.Fatalf("CreatePrompt %q: %v", title, err)
			}
		}

		blocks, err := q.ListPromptsByAgent(ctx, agent.ID)
		if err != nil {
			t.Fatalf("ListPromptsByAgent: %v", err)
		}
		if len(blocks) != len(titles) {
			t.Fatalf("got %d blocks, want %d", len(blocks), len(titles))
		}
		for i, b := range blocks {
			if b.Title != titles[i] {
				t.Errorf("block %d: got title %q, want %q", i, b.Title, titles[i])
			}
		}
	})

	conv, err := q.CreateConversation(ctx, postgres.CreateConversationParams{
		AgentID: agent.ID,
		UserID:  user.ID,
		Title:   "New Chat",
	})
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	t.Run("recent messages window is trailing and oldest first", func(t *testing.T) {
		for i := 0; i < 25; i++ {
			_, err := q.AddMessage(ctx, postgres.AddMessageParams{
				ConversationID: conv.ID,
				Role:           "user",
				Content:        fmt.Sprintf("message %d", i),
			})
			if err != nil {
				t.Fatalf("AddMessage %d: %v", i, err)
			}
		}

		window, err := q.RecentMessages(ctx, postgres.RecentMessagesParams{
			ConversationID: conv.ID,
			Limit:          20,
		})
		if err != nil {
			t.Fatalf("RecentMessages: %v", err)
		}
		if len(window) != 20 {
			t.Fatalf("got %d messages, want 20", len(window))
		}
		if window[0].Content != "message 5" {
			t.Errorf("window starts at %q, want %q", window[0].Content, "message 5")
		}
		if window[19].Content != "message 24" {
			t.Errorf("window ends at %q, want %q", window[19].Content, "message 24")
		}
		for i := 1; i < len(window); i++ {
			if window[i].Seq <= window[i-1].Seq {
				t.Fatalf("seq not strictly increasing at index %d", i)
			}
		}

		count, err := q.CountMessages(ctx, conv.ID)
		if err != nil {
			t.Fatalf("CountMessages: %v", err)
		}
		if count != 25 {
			t.Errorf("got count %d, want 25", count)
		}
	})

	t.Run("list conversations scoped to agent and user", func(t *testing.T) {
		convs, err := q.ListConversations(ctx, postgres.ListConversationsParams{
			AgentID: agent.ID,
			UserID:  user.ID,
		})
		if err != nil {
			t.Fatalf("ListConversations: %v", err)
		}
		if len(convs) != 1 {
			t.Fatalf("got %d conversations, want 1", len(convs))
		}
		if convs[0].ID != conv.ID {
			t.Errorf("got conversation %v, want %v", convs[0].ID, conv.ID)
		}
	})

	t.Run("update password", func(t *testing.T) {
		err := q.UpdateUserPassword(ctx, postgres.UpdateUserPasswordParams{
			ID:           user.ID,
			PasswordHash: "$2a$10$newhashnewhashnewhash",
		})
		if err != nil {
			t.Fatalf("UpdateUserPassword: %v", err)
		}
		got, err := q.GetUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if got.PasswordHash != "$2a$10$newhashnewhashnewhash" {
			t.Errorf("password hash not updated")
		}
	})
}

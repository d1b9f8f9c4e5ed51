// Package agent manages agent profiles and resolves them for chat turns.
//
// An agent profile is the configuration a chat turn runs under: the base
// system prompt plus the model provider and name. Resolution re-checks
// project ownership on every call; access is never cached across turns.
package agent

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

// Profile defaults applied when a create request omits them.
const (
	DefaultSystemPrompt  = "You are a helpful assistant."
	DefaultModelProvider = "openai"
	DefaultModelName     = "gpt-4o-mini"
)

// Sentinel errors for agent operations.
var (
	// ErrNotFound indicates the agent does not exist.
	ErrNotFound = errors.New("agent not found")

	// ErrForbidden indicates the agent's project belongs to another user.
	ErrForbidden = errors.New("agent access denied")

	// ErrEmptyName indicates a create request without a name.
	ErrEmptyName = errors.New("agent name required")
)

// Querier defines the database operations the agent store needs.
// GetProject is included because every access check walks agent to project
// to owner.
type Querier interface {
	CreateAgent(ctx context.Context, arg postgres.CreateAgentParams) (postgres.Agent, error)
	GetAgent(ctx context.Context, id pgtype.UUID) (postgres.Agent, error)
	ListAgentsByProject(ctx context.Context, projectID pgtype.UUID) ([]postgres.Agent, error)
	GetProject(ctx context.Context, id pgtype.UUID) (postgres.Project, error)
}

// Agent is a configured chat persona inside a project.
type Agent struct {
	ID            uuid.UUID `json:"id"`
	ProjectID     uuid.UUID `json:"project_id"`
	Name          string    `json:"name"`
	SystemPrompt  string    `json:"system_prompt"`
	ModelProvider string    `json:"model_provider"`
	ModelName     string    `json:"model_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store implements agent operations over a Querier.
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	querier Querier
}

// NewStore creates an agent Store.
func NewStore(querier Querier) *Store {
	return &Store{querier: querier}
}

// CreateParams holds the fields for creating an agent. Zero values for
// SystemPrompt, ModelProvider and ModelName take the package defaults.
type CreateParams struct {
	ProjectID     uuid.UUID
	Name          string
	SystemPrompt  string
	ModelProvider string
	ModelName     string
}

// Create makes a new agent in a project the caller owns.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, p CreateParams) (Agent, error) {
	if p.Name == "" {
		return Agent{}, ErrEmptyName
	}
	if err := s.checkProjectAccess(ctx, p.ProjectID, userID); err != nil {
		return Agent{}, err
	}

	if p.SystemPrompt == "" {
		p.SystemPrompt = DefaultSystemPrompt
	}
	if p.ModelProvider == "" {
		p.ModelProvider = DefaultModelProvider
	}
	if p.ModelName == "" {
		p.ModelName = DefaultModelName
	}

	row, err := s.querier.CreateAgent(ctx, postgres.CreateAgentParams{
		ProjectID:     postgres.PgUUID(p.ProjectID),
		Name:          p.Name,
		SystemPrompt:  p.SystemPrompt,
		ModelProvider: p.ModelProvider,
		ModelName:     p.ModelName,
	})
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return toAgent(row), nil
}

// Resolve loads an agent profile for a chat turn, verifying the caller may
// use it. A missing agent returns ErrNotFound; an agent in a project the
// caller doesn't own returns ErrForbidden.
func (s *Store) Resolve(ctx context.Context, agentID, userID uuid.UUID) (Agent, error) {
	row, err := s.querier.GetAgent(ctx, postgres.PgUUID(agentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	if err := s.checkProjectAccess(ctx, postgres.FromPgUUID(row.ProjectID), userID); err != nil {
		return Agent{}, err
	}
	return toAgent(row), nil
}

// List returns the agents of a project the caller owns.
func (s *Store) List(ctx context.Context, projectID, userID uuid.UUID) ([]Agent, error) {
	if err := s.checkProjectAccess(ctx, projectID, userID); err != nil {
		return nil, err
	}
	rows, err := s.querier.ListAgentsByProject(ctx, postgres.PgUUID(projectID))
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	agents := make([]Agent, 0, len(rows))
	for _, row := range rows {
		agents = append(agents, toAgent(row))
	}
	return agents, nil
}

// checkProjectAccess verifies the project exists and the user owns it.
// A missing project maps to ErrNotFound so an agent under a deleted project
// behaves like a missing agent.
func (s *Store) checkProjectAccess(ctx context.Context, projectID, userID uuid.UUID) error {
	row, err := s.querier.GetProject(ctx, postgres.PgUUID(projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get project: %w", err)
	}
	if postgres.FromPgUUID(row.UserID) != userID {
		return ErrForbidden
	}
	return nil
}

func toAgent(row postgres.Agent) Agent {
	return Agent{
		ID:            postgres.FromPgUUID(row.ID),
		ProjectID:     postgres.FromPgUUID(row.ProjectID),
		Name:          row.Name,
		SystemPrompt:  row.SystemPrompt,
		ModelProvider: row.ModelProvider,
		ModelName:     row.ModelName,
		CreatedAt:     row.CreatedAt.Time,
	}
}

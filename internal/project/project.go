// Package project manages the user-owned workspaces that agents live in.
package project

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

// Sentinel errors for project operations.
var (
	// ErrNotFound indicates the project does not exist.
	ErrNotFound = errors.New("project not found")

	// ErrForbidden indicates the project exists but belongs to another user.
	ErrForbidden = errors.New("project access denied")

	// ErrEmptyName indicates a create request without a name.
	ErrEmptyName = errors.New("project name required")
)

// Querier defines the database operations the project store needs.
type Querier interface {
	CreateProject(ctx context.Context, arg postgres.CreateProjectParams) (postgres.Project, error)
	GetProject(ctx context.Context, id pgtype.UUID) (postgres.Project, error)
	ListProjectsByUser(ctx context.Context, userID pgtype.UUID) ([]postgres.Project, error)
}

// Project is a user-owned workspace.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store implements project operations over a Querier.
type Store struct {
	querier Querier
}

// NewStore creates a project Store.
func NewStore(querier Querier) *Store {
	return &Store{querier: querier}
}

// Create makes a new project owned by the given user.
func (s *Store) Create(ctx context.Context, userID uuid.UUID, name, description string) (Project, error) {
	if name == "" {
		return Project{}, ErrEmptyName
	}
	row, err := s.querier.CreateProject(ctx, postgres.CreateProjectParams{
		UserID:      postgres.PgUUID(userID),
		Name:        name,
		Description: description,
	})
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return toProject(row), nil
}

// Get returns a project after checking the caller owns it.
// Foreign projects return ErrForbidden, missing ones ErrNotFound.
func (s *Store) Get(ctx context.Context, id, userID uuid.UUID) (Project, error) {
	row, err := s.querier.GetProject(ctx, postgres.PgUUID(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrNotFound
		}
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	if postgres.FromPgUUID(row.UserID) != userID {
		return Project{}, ErrForbidden
	}
	return toProject(row), nil
}

// List returns the caller's projects, oldest first.
func (s *Store) List(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := s.querier.ListProjectsByUser(ctx, postgres.PgUUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, toProject(row))
	}
	return projects, nil
}

func toProject(row postgres.Project) Project {
	return Project{
		ID:          postgres.FromPgUUID(row.ID),
		UserID:      postgres.FromPgUUID(row.UserID),
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.Time,
	}
}

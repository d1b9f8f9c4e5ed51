package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const createProject = `
INSERT INTO projects (user_id, name, description)
VALUES ($1, $2, $3)
RETURNING id, user_id, name, description, created_at
`

// CreateProjectParams holds the arguments for CreateProject.
type CreateProjectParams struct {
	UserID      pgtype.UUID
	Name        string
	Description string
}

// CreateProject inserts a new project owned by a user.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, createProject, arg.UserID, arg.Name, arg.Description)
	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

const getProject = `
SELECT id, user_id, name, description, created_at
FROM projects
WHERE id = $1
`

// GetProject fetches a project by ID.
func (q *Queries) GetProject(ctx context.Context, id pgtype.UUID) (Project, error) {
	row := q.db.QueryRow(ctx, getProject, id)
	var p Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

const listProjectsByUser = `
SELECT id, user_id, name, description, created_at
FROM projects
WHERE user_id = $1
ORDER BY created_at
`

// ListProjectsByUser returns all projects owned by a user in creation order.
func (q *Queries) ListProjectsByUser(ctx context.Context, userID pgtype.UUID) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjectsByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var items []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

const createAgent = `
INSERT INTO agents (project_id, name, system_prompt, model_provider, model_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, project_id, name, system_prompt, model_provider, model_name, created_at
`

// CreateAgentParams holds the arguments for CreateAgent.
type CreateAgentParams struct {
	ProjectID     pgtype.UUID
	Name          string
	SystemPrompt  string
	ModelProvider string
	ModelName     string
}

// CreateAgent inserts a new agent under a project.
func (q *Queries) CreateAgent(ctx context.Context, arg CreateAgentParams) (Agent, error) {
	row := q.db.QueryRow(ctx, createAgent,
		arg.ProjectID, arg.Name, arg.SystemPrompt, arg.ModelProvider, arg.ModelName)
	var a Agent
	err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.SystemPrompt, &a.ModelProvider, &a.ModelName, &a.CreatedAt)
	if err != nil {
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return a, nil
}

const getAgent = `
SELECT id, project_id, name, system_prompt, model_provider, model_name, created_at
FROM agents
WHERE id = $1
`

// GetAgent fetches an agent by ID.
func (q *Queries) GetAgent(ctx context.Context, id pgtype.UUID) (Agent, error) {
	row := q.db.QueryRow(ctx, getAgent, id)
	var a Agent
	err := row.Scan(&a.ID, &a.ProjectID, &a.Name, &a.SystemPrompt, &a.ModelProvider, &a.ModelName, &a.CreatedAt)
	if err != nil {
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

const listAgentsByProject = `
SELECT id, project_id, name, system_prompt, model_provider, model_name, created_at
FROM agents
WHERE project_id = $1
ORDER BY created_at
`

// ListAgentsByProject returns all agents of a project in creation order.
func (q *Queries) ListAgentsByProject(ctx context.Context, projectID pgtype.UUID) ([]Agent, error) {
	rows, err := q.db.Query(ctx, listAgentsByProject, projectID)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var items []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Name, &a.SystemPrompt, &a.ModelProvider, &a.ModelName, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return items, nil
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/prompt"
)

// agentHandler serves agent profiles and their instruction blocks.
type agentHandler struct {
	agents  *agent.Store
	prompts *prompt.Store
	logger  *slog.Logger
}

type createAgentRequest struct {
	Name          string `json:"name"`
	SystemPrompt  string `json:"system_prompt"`
	ModelProvider string `json:"model_provider"`
	ModelName     string `json:"model_name"`
}

func (h *agentHandler) create(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	projectID, err := uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid project id")
		return
	}

	var req createAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	created, err := h.agents.Create(r.Context(), userID, agent.CreateParams{
		ProjectID:     projectID,
		Name:          req.Name,
		SystemPrompt:  req.SystemPrompt,
		ModelProvider: req.ModelProvider,
		ModelName:     req.ModelName,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *agentHandler) list(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	projectID, err := uuid.Parse(r.PathValue("projectID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid project id")
		return
	}

	agents, err := h.agents.List(r.Context(), projectID, userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (h *agentHandler) get(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid agent id")
		return
	}

	a, err := h.agents.Resolve(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type createPromptRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (h *agentHandler) createPrompt(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	agentID, err := uuid.Parse(r.PathValue("agentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid agent id")
		return
	}
	// Ownership first; block writes to foreign agents.
	if _, err := h.agents.Resolve(r.Context(), agentID, userID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	var req createPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	created, err := h.prompts.Create(r.Context(), agentID, req.Title, req.Content, req.Category)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *agentHandler) listPrompts(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	agentID, err := uuid.Parse(r.PathValue("agentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid agent id")
		return
	}
	if _, err := h.agents.Resolve(r.Context(), agentID, userID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	blocks, err := h.prompts.List(r.Context(), agentID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompts": blocks})
}

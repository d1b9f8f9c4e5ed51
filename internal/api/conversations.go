package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/conversation"
)

// conversationHandler serves conversation history endpoints.
type conversationHandler struct {
	agents        *agent.Store
	conversations *conversation.Store
	logger        *slog.Logger
}

func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
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

	conversations, err := h.conversations.List(r.Context(), agentID, userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": conversations})
}

func (h *conversationHandler) messages(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid conversation id")
		return
	}

	// The ownership check is the lookup; foreign conversations 404.
	conv, err := h.conversations.GetOwned(r.Context(), id, userID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	messages, err := h.conversations.Messages(r.Context(), conv.ID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/aviary-ai/aviary/internal/chat"
)

// chatHandler runs conversation turns and delivers the answer over SSE.
type chatHandler struct {
	orchestrator *chat.Orchestrator
	logger       *slog.Logger
}

// eventDone is the single terminal SSE event of a turn. There is no
// incremental token streaming.
const eventDone = "done"

type sendRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// send handles POST /api/chat/agents/{agentID}.
//
// The whole turn runs before any response bytes: pipeline failures map to
// plain JSON errors with real HTTP statuses, and only a completed turn
// switches the response to an SSE stream with its single terminal event.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	agentID, err := uuid.Parse(r.PathValue("agentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid agent id")
		return
	}

	var req sendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	conversationID := uuid.Nil
	if req.ConversationID != "" {
		conversationID, err = uuid.Parse(req.ConversationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid conversation id")
			return
		}
	}

	// The request context flows into the gateway call, so a client that
	// disconnects mid-turn cancels the upstream request.
	result, err := h.orchestrator.Send(r.Context(), chat.Request{
		AgentID:        agentID,
		UserID:         userID,
		ConversationID: conversationID,
		Message:        req.Message,
	})
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	if err := writeEvent(w, flusher, eventDone, result); err != nil {
		h.logger.Debug("sse write failed", "conversation_id", result.ConversationID, "error", err)
	}
}

// writeEvent writes one SSE event and flushes it.
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	flusher.Flush()
	return nil
}

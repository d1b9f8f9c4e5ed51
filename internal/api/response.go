package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aviary-ai/aviary/internal/agent"
	"github.com/aviary-ai/aviary/internal/auth"
	"github.com/aviary-ai/aviary/internal/chat"
	"github.com/aviary-ai/aviary/internal/conversation"
	"github.com/aviary-ai/aviary/internal/files"
	"github.com/aviary-ai/aviary/internal/llm"
	"github.com/aviary-ai/aviary/internal/project"
	"github.com/aviary-ai/aviary/internal/prompt"
)

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 1 << 20

// errorEnvelope is the single error response shape of the API.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response with the given status code.
// Buffer-first so headers are only sent after successful encoding and a
// proper 500 can still be returned if encoding fails.
func writeJSON(w http.ResponseWriter, status int, data any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common and expected.
		slog.Debug("failed to write response body", "error", err)
	}
}

// writeError writes an error envelope with the given status.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

// writeDomainError maps a service error onto an HTTP status and envelope.
// Unrecognized errors become an opaque 500 so internals never leak.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, agent.ErrNotFound),
		errors.Is(err, project.ErrNotFound),
		errors.Is(err, conversation.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, agent.ErrForbidden),
		errors.Is(err, project.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, llm.ErrUnavailable):
		writeError(w, http.StatusGatewayTimeout, "upstream_unavailable", "completion service unavailable")
	case errors.Is(err, llm.ErrRejected):
		writeError(w, http.StatusBadGateway, "upstream_rejected", "completion service rejected the request")
	case errors.Is(err, llm.ErrMalformed):
		writeError(w, http.StatusBadGateway, "upstream_malformed", "completion service returned no answer")
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrWrongPurpose):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
	case errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, project.ErrEmptyName),
		errors.Is(err, agent.ErrEmptyName),
		errors.Is(err, prompt.ErrEmptyContent),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, files.ErrEmptyFile):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, files.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeJSON decodes a size-limited JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

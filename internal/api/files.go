package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aviary-ai/aviary/internal/files"
)

// fileHandler forwards uploads to the provider's file storage.
type fileHandler struct {
	service *files.Service
	logger  *slog.Logger
}

func (h *fileHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, files.MaxUploadBytes+1)
	if err := r.ParseMultipartForm(files.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "expected multipart form upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large", "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read upload")
		return
	}

	uploaded, err := h.service.Upload(r.Context(), header.Filename, data, r.FormValue("purpose"))
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploaded)
}

func (h *fileHandler) list(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.List(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": stored})
}

func (h *fileHandler) delete(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("id")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "file id is required")
		return
	}
	if err := h.service.Delete(r.Context(), fileID); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
